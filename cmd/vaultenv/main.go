// Package main is the entry point for the vaultenv CLI.
package main

import (
	"os"
)

// Build information, set by ldflags during build.
var (
	version   = "dev"
	commit    = "unknown"
	buildTime = "unknown"
)

func main() {
	Version = version
	Commit = commit
	BuildTime = buildTime

	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}
