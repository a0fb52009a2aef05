// Package main provides the entry point for the healthnav CLI.
package main

import (
	"os"

	"github.com/healthnav/healthnav/cmd/healthnav/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
