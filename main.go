package main

import (
	"os"

	"github.com/ByLCY/labelmaker/cli"
)

var (
	version = "dev"
	commit  string
	date    string
)

func main() {
	cli.SetVersion(version, commit, date)
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
