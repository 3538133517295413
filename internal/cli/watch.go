// Package cli provides the command-line interface for keel.
package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/mrz1836/keel"
	"github.com/mrz1836/keel/internal/ctxutil"
	"github.com/mrz1836/keel/internal/signal"
)

// watchEvent is one observed file-system event.
type watchEvent struct {
	Op   string `json:"op"`
	Path string `json:"path"`
	Size int64  `json:"size,omitempty"`
}

// AddWatchCommand adds the watch command to the root command.
func AddWatchCommand(parent *cobra.Command) {
	cmd := &cobra.Command{
		Use:   "watch <file>",
		Short: "Follow file-system events for a file",
		Long: `Resolve a file's identity, then report write, create, remove, rename, and
chmod events for it until interrupted. With --output json each event is
emitted as one JSON object per line.

Examples:
  keel watch segment.db
  keel watch --output json segment.db`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWatch(cmd.Context(), cmd, args[0], os.Stdout)
		},
	}
	parent.AddCommand(cmd)
}

// runWatch executes the watch command.
func runWatch(ctx context.Context, cmd *cobra.Command, path string, w io.Writer) error {
	if err := ctxutil.Canceled(ctx); err != nil {
		return err
	}

	output := cmd.Flag("output").Value.String()
	logger := GetLogger()

	h := signal.NewHandler(ctx)
	defer h.Stop()
	ctx = h.Context()

	reg := keel.NewRegistry(keel.WithLogger(logger))
	id, err := reg.Resolve(path)
	if err != nil {
		return err
	}
	target := id.Path()

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer func() { _ = watcher.Close() }()

	// Watch the directory: rename and recreate events for the file are
	// only delivered to its parent.
	if err := watcher.Add(filepath.Dir(target)); err != nil {
		return fmt.Errorf("failed to watch %s: %w", filepath.Dir(target), err)
	}

	logger.Info().Str("path", target).Stringer("key", id.Key()).Msg("watching")
	if output == OutputText {
		_, _ = fmt.Fprintf(w, "Watching %s (%s)\n", target, id.Key())
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if ev.Name != target {
				continue
			}
			reportWatchEvent(w, output, ev, target)
		case watchErr, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Error().Err(watchErr).Msg("watch error")
		}
	}
}

// reportWatchEvent prints one event in the selected format.
func reportWatchEvent(w io.Writer, output string, ev fsnotify.Event, target string) {
	event := watchEvent{Op: ev.Op.String(), Path: target}
	if ev.Op.Has(fsnotify.Write) || ev.Op.Has(fsnotify.Create) {
		if fi, err := os.Stat(target); err == nil {
			event.Size = fi.Size()
		}
	}

	if output == OutputJSON {
		if data, err := json.Marshal(event); err == nil {
			_, _ = fmt.Fprintln(w, string(data))
		}
		return
	}
	if event.Size > 0 {
		_, _ = fmt.Fprintf(w, "%-8s %s (%d bytes)\n", event.Op, event.Path, event.Size)
		return
	}
	_, _ = fmt.Fprintf(w, "%-8s %s\n", event.Op, event.Path)
}
