package keel

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sync/atomic"

	"github.com/rs/zerolog"
)

// createPerm is the mode new database files are created with.
const createPerm = 0o644

// File is a handle to a keel file: positional I/O, explicit durability,
// memory mapping, and composite lock construction. Handles are produced by
// Registry.Create and Registry.Open and share one FileID per physical
// path.
//
// The positional operations are safe for concurrent use. Close is
// idempotent and safe to call concurrently with itself; closing while
// other operations are in flight surfaces their errors through the
// underlying descriptor.
type File struct {
	path      string
	f         *os.File
	id        *FileID
	ephemeral bool
	logger    zerolog.Logger
	closed    atomic.Bool
}

// Create creates the file at path, which must not exist yet, and opens it
// for reading and writing. A failed creation leaves no file behind.
// Creating an existing path fails wrapping fs.ErrExist.
func (r *Registry) Create(path string, opts ...CreateOption) (*File, error) {
	var cfg createConfig
	for _, opt := range opts {
		opt(&cfg)
	}

	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_EXCL, createPerm) //nolint:gosec // callers choose database file locations
	if err != nil {
		return nil, fmt.Errorf("failed to create %s: %w", path, err)
	}
	success := false
	defer func() {
		if !success {
			_ = f.Close()
			// The path was free before this call, so removing is safe.
			_ = os.Remove(path)
		}
	}()

	if cfg.sparse {
		if err := setSparse(f); err != nil {
			return nil, fmt.Errorf("failed to create %s: %w", path, err)
		}
	}

	id, err := r.Resolve(path)
	if err != nil {
		return nil, err
	}

	success = true
	r.logger.Debug().Str("path", id.Path()).Bool("sparse", cfg.sparse).Bool("ephemeral", cfg.ephemeral).Msg("file created")
	return &File{path: id.Path(), f: f, id: id, ephemeral: cfg.ephemeral, logger: r.logger}, nil
}

// Open opens an existing file at path for reading and writing. Opening a
// missing path fails wrapping fs.ErrNotExist.
func (r *Registry) Open(path string) (*File, error) {
	f, err := os.OpenFile(path, os.O_RDWR, 0) //nolint:gosec // callers choose database file locations
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}

	id, err := r.Resolve(path)
	if err != nil {
		_ = f.Close()
		return nil, err
	}

	r.logger.Debug().Str("path", id.Path()).Msg("file opened")
	return &File{path: id.Path(), f: f, id: id, logger: r.logger}, nil
}

// Path returns the canonical path of the file.
func (f *File) Path() string {
	return f.path
}

// ID returns the file's identity.
func (f *File) ID() *FileID {
	return f.id
}

// ReadAt reads len(p) bytes starting at offset off. A read that reaches
// the end of the file returns the bytes read together with io.EOF; a read
// starting at or past the end returns (0, io.EOF). Negative offsets fail
// with ErrNegativeOffset.
func (f *File) ReadAt(p []byte, off int64) (int, error) {
	if off < 0 {
		return 0, fmt.Errorf("failed to read %s: %w", f.path, ErrNegativeOffset)
	}
	return f.f.ReadAt(p, off)
}

// WriteAt writes len(p) bytes starting at offset off, extending the file
// when the write reaches past its end. Negative offsets fail with
// ErrNegativeOffset.
func (f *File) WriteAt(p []byte, off int64) (int, error) {
	if off < 0 {
		return 0, fmt.Errorf("failed to write %s: %w", f.path, ErrNegativeOffset)
	}
	return f.f.WriteAt(p, off)
}

// Sync blocks until previously written data has reached durable storage.
// File metadata is flushed only where the platform cannot separate the
// two.
func (f *File) Sync() error {
	if err := fdatasync(f.f); err != nil {
		return fmt.Errorf("failed to sync %s: %w", f.path, err)
	}
	return nil
}

// Size returns the current length of the file.
func (f *File) Size() (int64, error) {
	fi, err := f.f.Stat()
	if err != nil {
		return 0, fmt.Errorf("failed to stat %s: %w", f.path, err)
	}
	return fi.Size(), nil
}

// Map maps length bytes of the file starting at offset for shared reading
// and writing. A region reaching past the end of the file grows the file
// to offset+length first, so every mapped page has backing store. The
// mapping is owned by the arena and stays valid until the arena closes;
// nothing else may unmap it.
func (f *File) Map(offset, length int64, a *Arena) (*Mapping, error) {
	if offset < 0 {
		return nil, fmt.Errorf("failed to map %s: %w", f.path, ErrNegativeOffset)
	}
	if length <= 0 {
		return nil, fmt.Errorf("failed to map %s: %w", f.path, ErrInvalidMapLength)
	}

	fi, err := f.f.Stat()
	if err != nil {
		return nil, fmt.Errorf("failed to map %s: %w", f.path, err)
	}
	if end := offset + length; end > fi.Size() {
		// Accessing mapped pages without backing store faults on most
		// platforms instead of returning an error.
		if err := f.f.Truncate(end); err != nil {
			return nil, fmt.Errorf("failed to map %s: %w", f.path, err)
		}
	}

	m, err := newMapping(f.f, offset, length)
	if err != nil {
		return nil, fmt.Errorf("failed to map %s: %w", f.path, err)
	}
	if err := a.register(m); err != nil {
		_ = m.unmap()
		return nil, fmt.Errorf("failed to map %s: %w", f.path, err)
	}

	f.logger.Debug().Str("path", f.path).Int64("offset", offset).Int64("length", length).Msg("region mapped")
	return m, nil
}

// LockShared constructs a shared-mode composite lock bound to this file.
// The lock is not acquired.
func (f *File) LockShared() *FileLock {
	return f.newLock(true)
}

// LockExclusive constructs an exclusive-mode composite lock bound to this
// file. The lock is not acquired.
func (f *File) LockExclusive() *FileLock {
	return f.newLock(false)
}

func (f *File) newLock(shared bool) *FileLock {
	return &FileLock{file: f, shared: shared, logger: f.logger}
}

// Close releases the handle. Ephemeral files are removed from the file
// system as part of closing. Close is idempotent.
//
// Closing drops any advisory locks this process holds on the file, so
// locks taken through the handle must be released first.
func (f *File) Close() error {
	if !f.closed.CompareAndSwap(false, true) {
		return nil
	}

	err := f.f.Close()
	if f.ephemeral {
		if rmErr := os.Remove(f.path); rmErr != nil && !errors.Is(rmErr, fs.ErrNotExist) {
			err = errors.Join(err, rmErr)
		}
	}
	if err != nil {
		return fmt.Errorf("failed to close %s: %w", f.path, err)
	}

	f.logger.Debug().Str("path", f.path).Bool("removed", f.ephemeral).Msg("file closed")
	return nil
}
