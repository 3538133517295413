//go:build unix

package keel

import (
	"os"

	"golang.org/x/sys/unix"
)

// fileKeyForPath reads the physical identity of the file behind path.
// The path must exist.
func fileKeyForPath(path string) (FileKey, error) {
	var st unix.Stat_t
	if err := unix.Stat(path, &st); err != nil {
		return FileKey{}, &os.PathError{Op: "stat", Path: path, Err: err}
	}
	return FileKey{Device: uint64(st.Dev), Inode: uint64(st.Ino)}, nil //nolint:unconvert // Dev and Ino widths vary by platform
}
