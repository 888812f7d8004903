// Package main is the entry point for the empdex CLI.
package main

import (
	"os"

	"github.com/empdex/empdex/cmd/empdex/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		// Cobra already printed the error
		os.Exit(1)
	}
}
