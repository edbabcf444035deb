// Package main is the entry point for the cohortmatch CLI binary.
package main

import (
	"os"

	cli "cohortmatch/pkg/cli"
)

func main() {
	os.Exit(cli.Execute())
}
