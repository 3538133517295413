package keel

import "errors"

// Sentinel errors for error categorization.
// These allow callers to check error types with errors.Is().
// Errors produced by the operating system (file exists, file not found,
// file closed) are wrapped and surface through the os and io/fs sentinels
// instead of duplicates here.
var (
	// ErrLockOverlap indicates that a lock request covers a region of a file
	// on which this process already holds or is acquiring a lock.
	ErrLockOverlap = errors.New("lock region already held by this process")

	// ErrConditionsUnsupported indicates that condition variables cannot be
	// derived from a file lock.
	ErrConditionsUnsupported = errors.New("conditions not supported on file locks")

	// ErrNegativeOffset indicates that a negative file offset was given to a
	// positional read, write, or mapping operation.
	ErrNegativeOffset = errors.New("negative file offset")

	// ErrInvalidMapLength indicates that a mapping was requested with a
	// length that is zero or negative.
	ErrInvalidMapLength = errors.New("invalid mapping length")

	// ErrArenaClosed indicates that a mapping was requested against an arena
	// that has already been closed.
	ErrArenaClosed = errors.New("arena already closed")
)
