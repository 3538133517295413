//go:build windows

package keel

import (
	"os"

	"golang.org/x/sys/windows"
)

// setSparse marks the file as sparse so that unwritten regions are not
// backed by allocated clusters.
func setSparse(f *os.File) error {
	var returned uint32
	err := windows.DeviceIoControl(
		windows.Handle(f.Fd()),
		windows.FSCTL_SET_SPARSE,
		nil, 0,
		nil, 0,
		&returned,
		nil,
	)
	if err != nil {
		return &os.PathError{Op: "set sparse", Path: f.Name(), Err: err}
	}
	return nil
}
