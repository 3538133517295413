package keel

import (
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func createTestFile(t *testing.T, opts ...CreateOption) *File {
	t.Helper()

	reg := NewRegistry()
	f, err := reg.Create(filepath.Join(t.TempDir(), "keel.db"), opts...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = f.Close() })
	return f
}

func TestRegistry_Create_NewFile(t *testing.T) {
	t.Parallel()

	f := createTestFile(t)

	assert.True(t, filepath.IsAbs(f.Path()))
	require.NotNil(t, f.ID())
	assert.Equal(t, f.Path(), f.ID().Path())

	size, err := f.Size()
	require.NoError(t, err)
	assert.Equal(t, int64(0), size)

	_, err = os.Stat(f.Path())
	require.NoError(t, err)
}

func TestRegistry_Create_ExistingFileFails(t *testing.T) {
	t.Parallel()

	reg := NewRegistry()
	path := filepath.Join(t.TempDir(), "keel.db")

	f, err := reg.Create(path)
	require.NoError(t, err)
	defer func() { _ = f.Close() }()

	_, err = reg.Create(path)
	require.Error(t, err)
	assert.ErrorIs(t, err, fs.ErrExist)

	// The failed attempt must not have disturbed the existing file.
	_, err = os.Stat(path)
	require.NoError(t, err)
}

func TestRegistry_Open_MissingFileFails(t *testing.T) {
	t.Parallel()

	reg := NewRegistry()

	_, err := reg.Open(filepath.Join(t.TempDir(), "absent.db"))
	require.Error(t, err)
	assert.ErrorIs(t, err, fs.ErrNotExist)
}

func TestRegistry_Open_SharesIdentityWithCreate(t *testing.T) {
	t.Parallel()

	reg := NewRegistry()
	path := filepath.Join(t.TempDir(), "keel.db")

	created, err := reg.Create(path)
	require.NoError(t, err)
	defer func() { _ = created.Close() }()

	opened, err := reg.Open(path)
	require.NoError(t, err)
	defer func() { _ = opened.Close() }()

	assert.Same(t, created.ID(), opened.ID())
}

func TestFile_WriteAtReadAt_RoundTrip(t *testing.T) {
	t.Parallel()

	f := createTestFile(t)
	payload := []byte("keelfile")

	n, err := f.WriteAt(payload, 2)
	require.NoError(t, err)
	require.Equal(t, len(payload), n)

	buf := make([]byte, len(payload))
	n, err = f.ReadAt(buf, 2)
	require.NoError(t, err)
	assert.Equal(t, len(payload), n)
	assert.Equal(t, payload, buf)

	// Bytes before the written region were never touched and read back zero.
	head := make([]byte, 2)
	_, err = f.ReadAt(head, 0)
	require.NoError(t, err)
	assert.Equal(t, []byte{0, 0}, head)
}

func TestFile_ReadAt_EndOfFile(t *testing.T) {
	t.Parallel()

	f := createTestFile(t)
	_, err := f.WriteAt([]byte("keel"), 0)
	require.NoError(t, err)

	// A read running past the end returns what was there plus io.EOF.
	buf := make([]byte, 16)
	n, err := f.ReadAt(buf, 2)
	require.ErrorIs(t, err, io.EOF)
	assert.Equal(t, 2, n)
	assert.Equal(t, []byte("el"), buf[:n])

	// Reads starting at or past the end return no bytes at all.
	n, err = f.ReadAt(buf, 4)
	require.ErrorIs(t, err, io.EOF)
	assert.Equal(t, 0, n)

	n, err = f.ReadAt(buf, 100)
	require.ErrorIs(t, err, io.EOF)
	assert.Equal(t, 0, n)
}

func TestFile_NegativeOffsets(t *testing.T) {
	t.Parallel()

	f := createTestFile(t)
	buf := make([]byte, 4)

	_, err := f.ReadAt(buf, -1)
	assert.ErrorIs(t, err, ErrNegativeOffset)

	_, err = f.WriteAt(buf, -1)
	assert.ErrorIs(t, err, ErrNegativeOffset)
}

func TestFile_WriteAt_ExtendsFile(t *testing.T) {
	t.Parallel()

	f := createTestFile(t)

	_, err := f.WriteAt([]byte{0xFF}, 100)
	require.NoError(t, err)

	size, err := f.Size()
	require.NoError(t, err)
	assert.Equal(t, int64(101), size)
}

func TestFile_Sync(t *testing.T) {
	t.Parallel()

	f := createTestFile(t)

	_, err := f.WriteAt([]byte("durable"), 0)
	require.NoError(t, err)
	require.NoError(t, f.Sync())
}

func TestFile_Ephemeral_RemovedOnClose(t *testing.T) {
	t.Parallel()

	reg := NewRegistry()
	f, err := reg.Create(filepath.Join(t.TempDir(), "scratch.db"), Ephemeral())
	require.NoError(t, err)
	path := f.Path()

	require.NoError(t, f.Close())

	_, err = os.Stat(path)
	assert.ErrorIs(t, err, fs.ErrNotExist)

	// The second close must not complain about the missing file.
	require.NoError(t, f.Close())
}

func TestFile_Close_Idempotent(t *testing.T) {
	t.Parallel()

	f := createTestFile(t)

	require.NoError(t, f.Close())
	require.NoError(t, f.Close())

	_, err := f.ReadAt(make([]byte, 1), 0)
	require.Error(t, err)
	assert.ErrorIs(t, err, fs.ErrClosed)
}

func TestFile_Sparse_WriteFarOffset(t *testing.T) {
	t.Parallel()

	f := createTestFile(t, Sparse())

	const farOffset = 1 << 20
	_, err := f.WriteAt([]byte{0x01}, farOffset)
	require.NoError(t, err)

	size, err := f.Size()
	require.NoError(t, err)
	assert.Equal(t, int64(farOffset+1), size)
}
