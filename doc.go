// Package keel provides the file layer of an embedded storage engine:
// stable file identities, composite in-process and OS-level locking, and
// positional file I/O with explicit durability and memory mapping.
//
// A Registry resolves paths to canonical FileID values and opens files
// through them. Handles obtained from one Registry share a single FileID
// per physical path, which is what makes the in-process half of the
// composite lock work: every FileLock on the same file coordinates through
// the same identity before touching the OS.
//
// The OS-level half is an advisory byte-range lock over the first two bytes
// of the file. A storage engine layering a format on keel files should
// treat those bytes as a reserved header range and keep its own data out
// of them; nothing here enforces that, advisory locks never block I/O.
//
// Usage:
//
//	reg := keel.NewRegistry()
//	f, err := reg.Create("/data/segment.db")
//	if err != nil {
//	    return err
//	}
//	defer f.Close()
//
//	lock := f.LockExclusive()
//	if err := lock.Lock(); err != nil {
//	    return err
//	}
//	defer lock.Unlock()
//
//	_, err = f.WriteAt(payload, 2)
//
// POSIX record locks belong to the process, not the descriptor that took
// them, and closing any descriptor on the file drops them. Keep every
// handle to a keel file inside this package's Registry and the process-wide
// bookkeeping here stays accurate; opening the same file through plain
// os.OpenFile alongside it is not supported.
package keel
