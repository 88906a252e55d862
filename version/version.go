package version

import "fmt"

// set by -ldflags "-X github.com/ocfl-archive/gosaef/version.Version=..."
var (
	Version = "dev-0.0.0"
	Commit  = "000000000000000000000000000000000badf00d"
	Date    = "1970-01-01T00:00:01Z"
	BuiltBy = "dev"
)

// ShortCommit returns a short commit hash.
func ShortCommit() string {
	if len(Commit) < 7 {
		return Commit
	}
	return Commit[:7]
}

func String() string {
	return fmt.Sprintf("%s (%s, %s, %s)", Version, ShortCommit(), Date, BuiltBy)
}
