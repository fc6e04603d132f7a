// Package main is the entry point for the walletgate CLI.
package main

import (
	"os"

	"github.com/mrz1836/walletgate/internal/cli"
)

// Set by ldflags at release time.
//
//nolint:gochecknoglobals // Build metadata injected by the linker
var (
	version = ""
	commit  = ""
	date    = ""
)

func main() {
	cli.SetVersion(cli.BuildInfo{Version: version, Commit: commit, Date: date})
	if err := cli.Execute(); err != nil {
		os.Exit(cli.ExitCode(err))
	}
}
