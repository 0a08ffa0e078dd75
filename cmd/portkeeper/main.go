// Package main is the entry point for the portkeeper CLI.
//
// The binary reserves TCP ports by holding listening sockets until it is
// stopped. All functionality lives in internal/cli.
//
// Build-time variables (version, commit, date) are injected via ldflags.
// During development they default to "dev", "none" and "unknown".
package main

import (
	"github.com/shinji-kodama/portkeeper/internal/cli"
)

// version, commit and date are set at build time via ldflags and shown by
// --version.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	cli.Version = version
	cli.Commit = commit
	cli.Date = date

	rootCmd := cli.NewRootCommand()
	cli.Execute(rootCmd)
}
