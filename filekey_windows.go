//go:build windows

package keel

import (
	"os"

	"golang.org/x/sys/windows"
)

// fileKeyForPath reads the physical identity of the file behind path.
// The path must exist. The volume serial number and file index together
// play the role the device and inode numbers play on Unix.
func fileKeyForPath(path string) (FileKey, error) {
	p, err := windows.UTF16PtrFromString(path)
	if err != nil {
		return FileKey{}, &os.PathError{Op: "open", Path: path, Err: err}
	}

	// Zero desired access is enough to query metadata; backup semantics
	// allows directories as well as files.
	h, err := windows.CreateFile(
		p,
		0,
		windows.FILE_SHARE_READ|windows.FILE_SHARE_WRITE|windows.FILE_SHARE_DELETE,
		nil,
		windows.OPEN_EXISTING,
		windows.FILE_FLAG_BACKUP_SEMANTICS,
		0,
	)
	if err != nil {
		return FileKey{}, &os.PathError{Op: "open", Path: path, Err: err}
	}
	defer func() { _ = windows.CloseHandle(h) }()

	var info windows.ByHandleFileInformation
	if err := windows.GetFileInformationByHandle(h, &info); err != nil {
		return FileKey{}, &os.PathError{Op: "stat", Path: path, Err: err}
	}
	return FileKey{
		Device: uint64(info.VolumeSerialNumber),
		Inode:  uint64(info.FileIndexHigh)<<32 | uint64(info.FileIndexLow),
	}, nil
}
