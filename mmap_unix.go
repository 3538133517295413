//go:build unix

package keel

import (
	"os"

	"golang.org/x/sys/unix"
)

// mapAlignment returns the offset alignment the platform requires for
// file mappings.
func mapAlignment() int64 {
	return int64(os.Getpagesize())
}

// mapRegion maps length bytes of the file starting at the aligned offset
// off for shared reading and writing. The caller has already sized the
// file to cover the region.
func mapRegion(f *os.File, off int64, length int) ([]byte, error) {
	b, err := unix.Mmap(int(f.Fd()), off, length, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
	if err != nil {
		return nil, &os.PathError{Op: "mmap", Path: f.Name(), Err: err}
	}
	return b, nil
}

// unmapRegion releases a region returned by mapRegion.
func unmapRegion(b []byte) error {
	return unix.Munmap(b)
}
