// Package main is the entry point for the textvet CLI.
package main

import (
	"os"

	"github.com/jmylchreest/textvet/cmd/textvet/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
