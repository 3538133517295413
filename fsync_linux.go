//go:build linux

package keel

import (
	"os"

	"golang.org/x/sys/unix"
)

// fdatasync flushes written data to the device without forcing a metadata
// flush when none is needed. The call is restarted after signal
// interruptions.
func fdatasync(f *os.File) error {
	for {
		err := unix.Fdatasync(int(f.Fd()))
		if err != unix.EINTR {
			return err
		}
	}
}
