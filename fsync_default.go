//go:build !linux

package keel

import "os"

// fdatasync flushes written data to the device. Platforms without a
// data-only sync fall back to a full fsync.
func fdatasync(f *os.File) error {
	return f.Sync()
}
