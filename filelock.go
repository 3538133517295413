package keel

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/semaphore"
)

// The OS-level lock targets a fixed region at the start of the file. The
// storage engine above reserves these bytes as a lock marker in its file
// format.
const (
	lockRegionStart = 0
	lockRegionLen   = 2
)

// ReservedHeaderLen is the number of bytes at the start of every keel file
// reserved as the lock marker region. A storage engine layering a format
// on keel files should keep its data out of the first ReservedHeaderLen
// bytes.
const ReservedHeaderLen = lockRegionLen

// lockRetryInterval paces the polling fallback used when an OS-level wait
// has to stay cancellable.
const lockRetryInterval = 50 * time.Millisecond

// FileLock is a composite lock on a file: an in-process gate on the file's
// identity combined with an advisory OS-level lock on the reserved region.
// The gate is acquired first, which keeps goroutines of one process from
// racing each other into the OS-level lock; release happens in the reverse
// order. The two are held as one unit, never independently.
//
// Construct instances with File.LockShared or File.LockExclusive;
// construction acquires nothing, and a released lock may be re-locked.
// A FileLock value must not be mutated from multiple goroutines at once.
// Cross-goroutine coordination happens through the shared FileID, not
// through individual FileLock values.
//
// Acquisition is not reentrant: a goroutine holding an exclusive lock that
// locks a second exclusive FileLock on the same identity blocks on the
// in-process gate exactly as a second sync.Mutex.Lock call would.
type FileLock struct {
	file   *File
	shared bool
	logger zerolog.Logger

	// token is non-nil exactly while the lock is held. It stays set after a
	// failed OS-level release so that Unlock can be retried.
	token *lockToken
}

// Shared reports whether the lock acquires the region in shared mode.
func (l *FileLock) Shared() bool {
	return l.shared
}

// Held reports whether the lock is currently held.
func (l *FileLock) Held() bool {
	return l.token != nil
}

// Lock acquires the composite lock, blocking without a cancellation point
// until both halves are held. It is a no-op when already held.
//
// Lock fails with ErrLockOverlap when this process already holds or is
// acquiring a lock on the region through another FileLock, and with the
// underlying error when the OS-level acquisition fails. Nothing stays
// acquired on failure.
func (l *FileLock) Lock() error {
	if l.token != nil {
		return nil
	}
	_, err := l.lockWith(
		func(gate *semaphore.Weighted) (bool, error) {
			// Acquiring with a background context cannot fail.
			_ = gate.Acquire(context.Background(), 1)
			return true, nil
		},
		func() (bool, error) {
			if err := lockRegion(l.file.f, l.shared); err != nil {
				return false, fmt.Errorf("failed to lock %s: %w", l.file.path, err)
			}
			return true, nil
		},
	)
	return err
}

// LockContext acquires the composite lock like Lock but gives up when ctx
// is done. The OS-level wait is a paced retry of the non-blocking
// acquisition so that cancellation can interrupt it. On cancellation the
// context error is returned and nothing stays acquired.
func (l *FileLock) LockContext(ctx context.Context) error {
	if l.token != nil {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	_, err := l.lockWith(
		func(gate *semaphore.Weighted) (bool, error) {
			if err := gate.Acquire(ctx, 1); err != nil {
				return false, err
			}
			return true, nil
		},
		func() (bool, error) {
			for {
				ok, err := tryLockRegion(l.file.f, l.shared)
				if err != nil {
					return false, fmt.Errorf("failed to lock %s: %w", l.file.path, err)
				}
				if ok {
					return true, nil
				}
				select {
				case <-ctx.Done():
					return false, ctx.Err()
				case <-time.After(lockRetryInterval):
				}
			}
		},
	)
	return err
}

// TryLock attempts the composite acquisition without blocking. It reports
// false when the in-process gate, the process-wide bookkeeping, or the
// OS-level lock is unavailable, leaving nothing acquired, and false when
// this instance already holds the lock; every true is a fresh acquisition
// paired with exactly one Unlock. Failures are not distinguished; use
// TryLockTimeout to separate contention from I/O errors.
func (l *FileLock) TryLock() bool {
	if l.token != nil {
		return false
	}
	acquired, _ := l.lockWith(
		func(gate *semaphore.Weighted) (bool, error) {
			return gate.TryAcquire(1), nil
		},
		func() (bool, error) {
			return tryLockRegion(l.file.f, l.shared)
		},
	)
	return acquired
}

// TryLockTimeout attempts the composite acquisition, waiting up to timeout
// for the in-process gate. The OS-level attempt never blocks. Contention
// in either half, including an overlap within this process, reports
// (false, nil), as does a lock this instance already holds; I/O errors
// propagate after rollback.
func (l *FileLock) TryLockTimeout(timeout time.Duration) (bool, error) {
	if l.token != nil {
		return false, nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	acquired, err := l.lockWith(
		func(gate *semaphore.Weighted) (bool, error) {
			if err := gate.Acquire(ctx, 1); err != nil {
				// The budget ran out waiting for the gate.
				return false, nil
			}
			return true, nil
		},
		func() (bool, error) {
			return tryLockRegion(l.file.f, l.shared)
		},
	)
	if errors.Is(err, ErrLockOverlap) {
		return false, nil
	}
	return acquired, err
}

// Unlock releases the composite lock, OS level first, then the in-process
// gate. Unlocking a lock that is not held is a no-op.
//
// When the OS-level release fails the lock stays held, the gate stays
// taken, and the error is returned; a later Unlock retries the release.
// The gate is never released more than once per acquisition.
func (l *FileLock) Unlock() error {
	if l.token == nil {
		return nil
	}
	if err := unlockRegion(l.file.f); err != nil {
		return fmt.Errorf("failed to unlock %s: %w", l.file.path, err)
	}
	processLocks.remove(l.token)
	l.token = nil
	l.file.id.gate(l.shared).Release(1)
	l.logger.Trace().Str("path", l.file.path).Bool("shared", l.shared).Msg("lock released")
	return nil
}

// NewCond always fails with ErrConditionsUnsupported: a file lock has no
// way to suspend a holder and admit another, so condition variables cannot
// be derived from it.
func (l *FileLock) NewCond() (*sync.Cond, error) {
	return nil, ErrConditionsUnsupported
}

// lockWith runs the acquisition sequence: in-process gate, process-wide
// bookkeeping, OS-level lock. When a later step does not complete, the
// earlier steps are rolled back in reverse order so that no partial
// acquisition survives.
func (l *FileLock) lockWith(gateAcquire func(*semaphore.Weighted) (bool, error), osAcquire func() (bool, error)) (bool, error) {
	gate := l.file.id.gate(l.shared)
	ok, err := gateAcquire(gate)
	if err != nil || !ok {
		return false, err
	}
	success := false
	defer func() {
		if !success {
			gate.Release(1)
		}
	}()

	tok := &lockToken{
		key:    l.file.id.Key(),
		start:  lockRegionStart,
		length: lockRegionLen,
		shared: l.shared,
	}
	if err := processLocks.add(tok); err != nil {
		return false, err
	}
	defer func() {
		if !success {
			processLocks.remove(tok)
		}
	}()

	ok, err = osAcquire()
	if err != nil || !ok {
		return false, err
	}

	l.token = tok
	success = true
	l.logger.Trace().Str("path", l.file.path).Bool("shared", l.shared).Msg("lock acquired")
	return true, nil
}
