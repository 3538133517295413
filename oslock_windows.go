//go:build windows

package keel

import (
	"os"

	"golang.org/x/sys/windows"
)

// LockFileEx/UnlockFileEx byte range covering the reserved region.
// See: https://learn.microsoft.com/en-us/windows/win32/api/fileapi/nf-fileapi-lockfileex
const (
	lockReserved  = 0                     // Reserved parameter, must be zero
	lockBytesLow  = uint32(lockRegionLen) // Low-order 32 bits of byte range to lock
	lockBytesHigh = 0                     // High-order 32 bits of byte range to lock
)

func lockOverlapped() *windows.Overlapped {
	return &windows.Overlapped{Offset: lockRegionStart}
}

// lockRegion blocks until the reserved region is locked in the requested
// mode.
func lockRegion(f *os.File, shared bool) error {
	var flags uint32
	if !shared {
		flags = windows.LOCKFILE_EXCLUSIVE_LOCK
	}
	return windows.LockFileEx(
		windows.Handle(f.Fd()),
		flags,
		lockReserved,
		lockBytesLow,
		lockBytesHigh,
		lockOverlapped(),
	)
}

// tryLockRegion attempts to lock the reserved region without blocking.
// It reports false without an error when another process holds a
// conflicting lock.
func tryLockRegion(f *os.File, shared bool) (bool, error) {
	flags := uint32(windows.LOCKFILE_FAIL_IMMEDIATELY)
	if !shared {
		flags |= windows.LOCKFILE_EXCLUSIVE_LOCK
	}
	err := windows.LockFileEx(
		windows.Handle(f.Fd()),
		flags,
		lockReserved,
		lockBytesLow,
		lockBytesHigh,
		lockOverlapped(),
	)
	if err == nil {
		return true, nil
	}
	if err == windows.ERROR_LOCK_VIOLATION {
		return false, nil
	}
	return false, err
}

// unlockRegion releases this process's lock on the reserved region.
func unlockRegion(f *os.File) error {
	return windows.UnlockFileEx(
		windows.Handle(f.Fd()),
		lockReserved,
		lockBytesLow,
		lockBytesHigh,
		lockOverlapped(),
	)
}
