// Package main is the entry point for the olap CLI binary.
package main

import (
	"os"

	"duck-olap/pkg/cli"
)

func main() {
	os.Exit(cli.Execute())
}
