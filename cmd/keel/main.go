// Package main provides the entry point for the keel CLI.
package main

import (
	"context"
	"os"

	"github.com/mrz1836/keel/internal/cli"
)

// Build information set via ldflags.
var (
	version = "" //nolint:gochecknoglobals // set via ldflags
	commit  = "" //nolint:gochecknoglobals // set via ldflags
	date    = "" //nolint:gochecknoglobals // set via ldflags
)

func main() {
	ctx := context.Background()
	err := cli.Execute(ctx, cli.BuildInfo{Version: version, Commit: commit, Date: date})
	cli.CloseLogFile()
	os.Exit(cli.ExitCodeForError(err))
}
