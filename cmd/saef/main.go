package main

import "github.com/ocfl-archive/gosaef/saef/cmd"

func main() {
	cmd.Execute()
}
