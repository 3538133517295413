package keel

import (
	"fmt"
	"sync"
)

// lockToken records one lock request on a region of a physical file. A
// token is registered before the OS-level acquisition starts, so a request
// that is still blocked in the OS already conflicts with later requests on
// the same region.
type lockToken struct {
	key    FileKey
	start  int64
	length int64
	shared bool
}

// overlaps reports whether two tokens cover intersecting regions of the
// same physical file. Mode is ignored: the process may hold at most one
// lock per region, shared or not.
func (t *lockToken) overlaps(o *lockToken) bool {
	return t.key == o.key && t.start < o.start+o.length && o.start < t.start+t.length
}

func (t *lockToken) mode() string {
	if t.shared {
		return "shared"
	}
	return "exclusive"
}

// lockTable tracks the byte-range locks this process holds or is acquiring,
// keyed by physical file. The operating system attributes advisory locks to
// the process as a whole and silently merges conflicting requests from it,
// so overlap detection has to happen here, before the syscall.
type lockTable struct {
	mu   sync.Mutex
	held map[FileKey][]*lockToken
}

func newLockTable() *lockTable {
	return &lockTable{held: make(map[FileKey][]*lockToken)}
}

// add registers a token, failing with ErrLockOverlap if any registered
// token covers an intersecting region of the same file.
func (lt *lockTable) add(tok *lockToken) error {
	lt.mu.Lock()
	defer lt.mu.Unlock()

	for _, held := range lt.held[tok.key] {
		if held.overlaps(tok) {
			return fmt.Errorf("%w: %s region [%d,%d) on %s",
				ErrLockOverlap, held.mode(), held.start, held.start+held.length, tok.key)
		}
	}
	lt.held[tok.key] = append(lt.held[tok.key], tok)
	return nil
}

// remove drops a previously added token. Removing a token that is not
// registered is a no-op.
func (lt *lockTable) remove(tok *lockToken) {
	lt.mu.Lock()
	defer lt.mu.Unlock()

	toks := lt.held[tok.key]
	for i, held := range toks {
		if held == tok {
			toks[i] = toks[len(toks)-1]
			toks = toks[:len(toks)-1]
			break
		}
	}
	if len(toks) == 0 {
		delete(lt.held, tok.key)
		return
	}
	lt.held[tok.key] = toks
}

// locked reports whether any token is registered for the file. Used by
// tests and diagnostics.
func (lt *lockTable) locked(key FileKey) bool {
	lt.mu.Lock()
	defer lt.mu.Unlock()
	return len(lt.held[key]) > 0
}

// processLocks is the process-wide lock table. Advisory file locks are
// scoped to the process no matter how many registries exist, so the
// bookkeeping that mirrors them must be process-wide too.
var processLocks = newLockTable() //nolint:gochecknoglobals // mirrors the OS per-process lock scope
