package keel

import (
	"fmt"

	"golang.org/x/sync/semaphore"
)

// readerGateCapacity sizes the shared gate so that concurrent shared
// holders within the process never exhaust it.
const readerGateCapacity = 1 << 30

// FileKey identifies a physical file independent of the paths that reach
// it. On Unix systems it holds the device and inode numbers; on Windows it
// holds the volume serial number and the file index.
type FileKey struct {
	Device uint64
	Inode  uint64
}

// String returns the key in device:inode form.
func (k FileKey) String() string {
	return fmt.Sprintf("%d:%d", k.Device, k.Inode)
}

// FileID is the stable in-process identity of a file. All handles opened
// through one Registry for the same canonical path share a single FileID,
// and with it the in-process gates that file locks coordinate through.
//
// The exclusive gate admits one holder at a time. The shared gate is wide
// enough that shared holders never block each other; the two gates do not
// coordinate with one another, and conflicts between shared and exclusive
// lockers in the same process surface at the OS bookkeeping layer instead.
type FileID struct {
	path string
	key  FileKey

	exclusive *semaphore.Weighted
	shared    *semaphore.Weighted
}

func newFileID(path string, key FileKey) *FileID {
	return &FileID{
		path:      path,
		key:       key,
		exclusive: semaphore.NewWeighted(1),
		shared:    semaphore.NewWeighted(readerGateCapacity),
	}
}

// Path returns the canonical path the identity was resolved from.
func (id *FileID) Path() string {
	return id.path
}

// Key returns the physical identity of the file.
func (id *FileID) Key() FileKey {
	return id.key
}

// String returns a human-readable description of the identity.
func (id *FileID) String() string {
	return fmt.Sprintf("%s (%s)", id.path, id.key)
}

// gate returns the in-process gate for the requested lock mode.
func (id *FileID) gate(shared bool) *semaphore.Weighted {
	if shared {
		return id.shared
	}
	return id.exclusive
}
