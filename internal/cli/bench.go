// Package cli provides the command-line interface for keel.
package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/mrz1836/keel"
	"github.com/mrz1836/keel/internal/constants"
	"github.com/mrz1836/keel/internal/ctxutil"
	"github.com/mrz1836/keel/internal/errors"
)

// benchPhase holds latency percentiles for one phase, in microseconds.
type benchPhase struct {
	P50 int64 `json:"p50_us"`
	P95 int64 `json:"p95_us"`
	P99 int64 `json:"p99_us"`
}

// benchReport summarizes a bench run.
type benchReport struct {
	Path   string     `json:"path"`
	Count  int        `json:"count"`
	Size   int        `json:"size"`
	Mapped bool       `json:"mapped"`
	Write  benchPhase `json:"write"`
	Sync   benchPhase `json:"sync"`
	Read   benchPhase `json:"read"`
}

// AddBenchCommand adds the bench command to the root command.
func AddBenchCommand(parent *cobra.Command) {
	var (
		dir    string
		count  int
		size   int
		sparse bool
		mapped bool
	)

	cmd := &cobra.Command{
		Use:   "bench",
		Short: "Measure write, sync, and read latencies on a scratch file",
		Long: `Create an ephemeral file, hold it under an exclusive lock, and measure
per-operation latency for positional writes, syncs, and reads. The file is
removed when the run finishes.

Examples:
  keel bench
  keel bench --count 1000 --size 8192
  keel bench --mmap --sparse --dir /var/tmp`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runBench(cmd.Context(), cmd, os.Stdout, dir, count, size, sparse, mapped)
		},
	}
	cmd.Flags().StringVar(&dir, "dir", "", "directory for the scratch file (default: system temp dir)")
	cmd.Flags().IntVar(&count, "count", constants.BenchDefaultCount, "operations per phase")
	cmd.Flags().IntVar(&size, "size", constants.BenchDefaultSize, "bytes per operation")
	cmd.Flags().BoolVar(&sparse, "sparse", false, "create the scratch file with the sparse hint")
	cmd.Flags().BoolVar(&mapped, "mmap", false, "read through a memory mapping instead of positional reads")
	parent.AddCommand(cmd)
}

// runBench executes the bench command.
func runBench(ctx context.Context, cmd *cobra.Command, w io.Writer, dir string, count, size int, sparse, mapped bool) error {
	if err := ctxutil.Canceled(ctx); err != nil {
		return err
	}
	if count <= 0 || size <= 0 {
		return fmt.Errorf("%w: count and size must be positive", errors.ErrInvalidArgument)
	}

	output := cmd.Flag("output").Value.String()
	logger := GetLogger()

	if dir == "" {
		dir = os.TempDir()
	}
	path := filepath.Join(dir, fmt.Sprintf("keel-bench-%s.db", uuid.New().String()[:8]))

	opts := []keel.CreateOption{keel.Ephemeral()}
	if sparse {
		opts = append(opts, keel.Sparse())
	}

	reg := keel.NewRegistry(keel.WithLogger(logger))
	f, err := reg.Create(path, opts...)
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()

	lock := f.LockExclusive()
	if err := lock.LockContext(ctx); err != nil {
		return err
	}
	defer func() { _ = lock.Unlock() }()

	logger.Info().Str("path", f.Path()).Int("count", count).Int("size", size).Msg("bench started")

	buf := make([]byte, size)
	for i := range buf {
		buf[i] = byte(i)
	}

	// Data starts past the reserved lock bytes.
	offset := func(i int) int64 {
		return keel.ReservedHeaderLen + int64(i)*int64(size)
	}

	writes := make([]time.Duration, 0, count)
	syncs := make([]time.Duration, 0, count)
	for i := 0; i < count; i++ {
		if err := ctxutil.Canceled(ctx); err != nil {
			return err
		}
		t0 := time.Now()
		if _, err := f.WriteAt(buf, offset(i)); err != nil {
			return err
		}
		writes = append(writes, time.Since(t0))

		t0 = time.Now()
		if err := f.Sync(); err != nil {
			return err
		}
		syncs = append(syncs, time.Since(t0))
	}

	reads, err := benchReads(ctx, f, buf, offset, count, size, mapped)
	if err != nil {
		return err
	}

	report := benchReport{
		Path:   f.Path(),
		Count:  count,
		Size:   size,
		Mapped: mapped,
		Write:  phaseOf(writes),
		Sync:   phaseOf(syncs),
		Read:   phaseOf(reads),
	}

	if output == OutputJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	}

	_, _ = fmt.Fprintf(w, "Bench on %s (%d ops x %d bytes, mmap=%v)\n", report.Path, count, size, mapped)
	_, _ = fmt.Fprintf(w, "  write: p50=%dus p95=%dus p99=%dus\n", report.Write.P50, report.Write.P95, report.Write.P99)
	_, _ = fmt.Fprintf(w, "  sync:  p50=%dus p95=%dus p99=%dus\n", report.Sync.P50, report.Sync.P95, report.Sync.P99)
	_, _ = fmt.Fprintf(w, "  read:  p50=%dus p95=%dus p99=%dus\n", report.Read.P50, report.Read.P95, report.Read.P99)
	return nil
}

// benchReads measures the read phase, either positionally or through a
// memory mapping of the full data region.
func benchReads(ctx context.Context, f *keel.File, buf []byte, offset func(int) int64, count, size int, mapped bool) ([]time.Duration, error) {
	reads := make([]time.Duration, 0, count)

	if mapped {
		arena := keel.NewArena()
		defer func() { _ = arena.Close() }()

		m, err := f.Map(keel.ReservedHeaderLen, int64(count)*int64(size), arena)
		if err != nil {
			return nil, err
		}
		data := m.Bytes()
		for i := 0; i < count; i++ {
			if err := ctxutil.Canceled(ctx); err != nil {
				return nil, err
			}
			t0 := time.Now()
			copy(buf, data[i*size:(i+1)*size])
			reads = append(reads, time.Since(t0))
		}
		return reads, arena.Close()
	}

	for i := 0; i < count; i++ {
		if err := ctxutil.Canceled(ctx); err != nil {
			return nil, err
		}
		t0 := time.Now()
		if _, err := f.ReadAt(buf, offset(i)); err != nil {
			return nil, err
		}
		reads = append(reads, time.Since(t0))
	}
	return reads, nil
}

// phaseOf reduces raw latencies to percentiles.
func phaseOf(durations []time.Duration) benchPhase {
	sorted := make([]time.Duration, len(durations))
	copy(sorted, durations)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

	at := func(p float64) int64 {
		if len(sorted) == 0 {
			return 0
		}
		idx := int(float64(len(sorted)-1) * p)
		return sorted[idx].Microseconds()
	}
	return benchPhase{P50: at(0.50), P95: at(0.95), P99: at(0.99)}
}
