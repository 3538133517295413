package cli

// This file contains test utilities for testing CLI functions.
// These helpers are only available in test files (*_test.go).

import (
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"
)

// newOutputCmd builds a minimal command carrying the output flag, for
// calling run functions directly without the full root command.
func newOutputCmd(t *testing.T, output string) *cobra.Command {
	t.Helper()

	cmd := &cobra.Command{Use: "test"}
	cmd.Flags().String("output", output, "")
	return cmd
}

// initTestLogger routes the global logger to a discard writer so command
// runs under test stay silent.
func initTestLogger(t *testing.T) {
	t.Helper()

	InitLoggerWithWriter(false, false, io.Discard)
}

// writeTestDataFile creates a small file for commands to operate on.
func writeTestDataFile(t *testing.T, dir, name string) string {
	t.Helper()

	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte("keel test data"), 0o600))
	return path
}
