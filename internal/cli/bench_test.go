package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"io/fs"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrz1836/keel/internal/errors"
)

func TestBenchCommand_RunsAllPhases(t *testing.T) {
	t.Parallel()

	initTestLogger(t)

	buf := new(bytes.Buffer)
	err := runBench(context.Background(), newOutputCmd(t, OutputJSON), buf, t.TempDir(), 8, 256, false, false)
	require.NoError(t, err)

	var report benchReport
	require.NoError(t, json.Unmarshal(buf.Bytes(), &report))
	assert.Equal(t, 8, report.Count)
	assert.Equal(t, 256, report.Size)
	assert.False(t, report.Mapped)

	// The scratch file is ephemeral and gone after the run.
	_, err = os.Stat(report.Path)
	assert.ErrorIs(t, err, fs.ErrNotExist)
}

func TestBenchCommand_MappedReads(t *testing.T) {
	t.Parallel()

	initTestLogger(t)

	buf := new(bytes.Buffer)
	err := runBench(context.Background(), newOutputCmd(t, OutputJSON), buf, t.TempDir(), 4, 512, false, true)
	require.NoError(t, err)

	var report benchReport
	require.NoError(t, json.Unmarshal(buf.Bytes(), &report))
	assert.True(t, report.Mapped)

	_, err = os.Stat(report.Path)
	assert.ErrorIs(t, err, fs.ErrNotExist)
}

func TestBenchCommand_SparseScratchFile(t *testing.T) {
	t.Parallel()

	initTestLogger(t)

	buf := new(bytes.Buffer)
	err := runBench(context.Background(), newOutputCmd(t, OutputText), buf, t.TempDir(), 4, 128, true, false)
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "Bench on")
}

func TestBenchCommand_RejectsInvalidArguments(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		count int
		size  int
	}{
		{"zero count", 0, 128},
		{"negative count", -1, 128},
		{"zero size", 4, 0},
		{"negative size", 4, -128},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			initTestLogger(t)

			buf := new(bytes.Buffer)
			err := runBench(context.Background(), newOutputCmd(t, OutputText), buf, t.TempDir(), tc.count, tc.size, false, false)
			require.Error(t, err)
			assert.ErrorIs(t, err, errors.ErrInvalidArgument)
			assert.Equal(t, ExitInvalidInput, ExitCodeForError(err))
		})
	}
}

func TestBenchCommand_ContextCanceled(t *testing.T) {
	t.Parallel()

	initTestLogger(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel() // Cancel immediately

	buf := new(bytes.Buffer)
	err := runBench(ctx, newOutputCmd(t, OutputText), buf, t.TempDir(), 4, 128, false, false)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestPhaseOf(t *testing.T) {
	t.Parallel()

	t.Run("known distribution", func(t *testing.T) {
		t.Parallel()

		durations := make([]time.Duration, 0, 100)
		for i := 1; i <= 100; i++ {
			durations = append(durations, time.Duration(i)*time.Microsecond)
		}

		phase := phaseOf(durations)
		assert.Equal(t, int64(50), phase.P50)
		assert.Equal(t, int64(95), phase.P95)
		assert.Equal(t, int64(99), phase.P99)
	})

	t.Run("empty input", func(t *testing.T) {
		t.Parallel()

		phase := phaseOf(nil)
		assert.Equal(t, int64(0), phase.P50)
		assert.Equal(t, int64(0), phase.P95)
		assert.Equal(t, int64(0), phase.P99)
	})

	t.Run("single value", func(t *testing.T) {
		t.Parallel()

		phase := phaseOf([]time.Duration{42 * time.Microsecond})
		assert.Equal(t, int64(42), phase.P50)
		assert.Equal(t, int64(42), phase.P95)
		assert.Equal(t, int64(42), phase.P99)
	})
}
