package checksum

import (
	"crypto/md5"
	"crypto/sha1"
	"crypto/sha256"
	"crypto/sha512"
	"hash"

	"emperror.dev/errors"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

type DigestAlgorithm string

const (
	DigestMD5    DigestAlgorithm = "md5"
	DigestSHA1   DigestAlgorithm = "sha1"
	DigestSHA256 DigestAlgorithm = "sha256"
	DigestSHA512 DigestAlgorithm = "sha512"
)

var hashFunc = map[DigestAlgorithm]func() hash.Hash{
	DigestMD5:    md5.New,
	DigestSHA1:   sha1.New,
	DigestSHA256: sha256.New,
	DigestSHA512: sha512.New,
}

// names used by the Dataverse native api for checksum types
var dataverseName = map[DigestAlgorithm]string{
	DigestMD5:    "MD5",
	DigestSHA1:   "SHA-1",
	DigestSHA256: "SHA-256",
	DigestSHA512: "SHA-512",
}

func DigestNames() []DigestAlgorithm {
	names := maps.Keys(hashFunc)
	slices.Sort(names)
	return names
}

func HashExists(csType DigestAlgorithm) bool {
	_, ok := hashFunc[csType]
	return ok
}

func GetHash(csType DigestAlgorithm) (hash.Hash, error) {
	f, ok := hashFunc[csType]
	if !ok {
		return nil, errors.Errorf("unknown checksum %s", csType)
	}
	return f(), nil
}

// DataverseName is the checksum type name as reported by Dataverse.
func (d DigestAlgorithm) DataverseName() string {
	return dataverseName[d]
}
