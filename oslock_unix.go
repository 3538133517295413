//go:build unix

package keel

import (
	"io"
	"os"

	"golang.org/x/sys/unix"
)

// fcntl record locks rather than flock: only fcntl supports byte ranges
// and a shared/exclusive mode per range.

func flockFor(shared bool) unix.Flock_t {
	typ := int16(unix.F_WRLCK)
	if shared {
		typ = unix.F_RDLCK
	}
	return unix.Flock_t{
		Type:   typ,
		Whence: int16(io.SeekStart),
		Start:  lockRegionStart,
		Len:    lockRegionLen,
	}
}

// lockRegion blocks until the reserved region is locked in the requested
// mode. The wait is restarted after signal interruptions, which the Go
// runtime delivers routinely for goroutine preemption.
func lockRegion(f *os.File, shared bool) error {
	ft := flockFor(shared)
	for {
		err := unix.FcntlFlock(f.Fd(), unix.F_SETLKW, &ft)
		if err == nil {
			return nil
		}
		if err != unix.EINTR {
			return err
		}
	}
}

// tryLockRegion attempts to lock the reserved region without blocking.
// It reports false without an error when another process holds a
// conflicting lock.
func tryLockRegion(f *os.File, shared bool) (bool, error) {
	ft := flockFor(shared)
	err := unix.FcntlFlock(f.Fd(), unix.F_SETLK, &ft)
	if err == nil {
		return true, nil
	}
	if err == unix.EAGAIN || err == unix.EACCES {
		return false, nil
	}
	return false, err
}

// unlockRegion releases this process's lock on the reserved region.
func unlockRegion(f *os.File) error {
	ft := flockFor(false)
	ft.Type = int16(unix.F_UNLCK)
	return unix.FcntlFlock(f.Fd(), unix.F_SETLK, &ft)
}
