package keel

import (
	"errors"
	"fmt"
	"math"
	"os"
	"sync"
)

// Mapping is a read/write view of a file region backed by a shared memory
// mapping. Writes through Bytes land in the file's page cache exactly like
// positional writes.
//
// A mapping is owned by the Arena it was registered with. Its bytes stay
// valid until the arena closes and must not be touched afterwards.
type Mapping struct {
	data []byte
	raw  []byte // the mapped region including alignment padding
}

// Bytes returns the mapped window. The slice aliases file contents; it
// must not be used after the owning arena closes.
func (m *Mapping) Bytes() []byte {
	return m.data
}

// Len returns the length of the mapped window.
func (m *Mapping) Len() int {
	return len(m.data)
}

func (m *Mapping) unmap() error {
	return unmapRegion(m.raw)
}

// newMapping maps length bytes at offset, padding the start of the region
// down to the platform's mapping alignment.
func newMapping(f *os.File, offset, length int64) (*Mapping, error) {
	align := mapAlignment()
	base := offset - offset%align
	pad := offset - base
	total := pad + length
	if total > math.MaxInt {
		return nil, ErrInvalidMapLength
	}

	raw, err := mapRegion(f, base, int(total))
	if err != nil {
		return nil, err
	}
	return &Mapping{data: raw[pad : pad+length], raw: raw}, nil
}

// Arena bounds the lifetime of a set of mappings. Mappings are registered
// by File.Map and are exclusively owned by the arena: closing it is the
// only way to unmap them.
//
// An arena is safe for concurrent use.
type Arena struct {
	mu       sync.Mutex
	closed   bool
	mappings []*Mapping
}

// NewArena creates an empty arena.
func NewArena() *Arena {
	return &Arena{}
}

// register claims ownership of m. Fails with ErrArenaClosed once the
// arena has been closed.
func (a *Arena) register(m *Mapping) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.closed {
		return ErrArenaClosed
	}
	a.mappings = append(a.mappings, m)
	return nil
}

// Close unmaps every mapping the arena owns, newest first, and invalidates
// their bytes. Close is idempotent; the first call returns the combined
// unmap errors, later calls return nil.
func (a *Arena) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.closed {
		return nil
	}
	a.closed = true

	var errs []error
	for i := len(a.mappings) - 1; i >= 0; i-- {
		if err := a.mappings[i].unmap(); err != nil {
			errs = append(errs, fmt.Errorf("failed to unmap region: %w", err))
		}
	}
	a.mappings = nil
	return errors.Join(errs...)
}
