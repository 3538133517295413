package keel

import (
	"fmt"
	"path/filepath"
	"sync"

	"github.com/rs/zerolog"
)

// Registry resolves paths to stable file identities and opens files
// through them. Identities are kept per canonical path for the lifetime of
// the registry, so every handle a registry produces for one physical path
// shares the same FileID and with it the in-process lock gates.
//
// The registry is meant to be constructed once and passed to whatever
// opens database files; there is no package-level instance. Hard links are
// a known limitation: two paths to the same file resolve to distinct
// identities with independent in-process gates, and only the process-wide
// OS bookkeeping still serializes them.
type Registry struct {
	logger zerolog.Logger

	mu  sync.RWMutex
	ids map[string]*FileID
}

// RegistryOption configures a Registry.
type RegistryOption func(*Registry)

// WithLogger routes the registry's diagnostics to the given logger.
// Handles and locks opened through the registry inherit it. The default
// discards everything.
func WithLogger(logger zerolog.Logger) RegistryOption {
	return func(r *Registry) {
		r.logger = logger
	}
}

// NewRegistry creates an empty registry.
func NewRegistry(opts ...RegistryOption) *Registry {
	r := &Registry{
		logger: zerolog.Nop(),
		ids:    make(map[string]*FileID),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve returns the identity of the file at path, constructing it on
// first resolution. The path must exist: resolution canonicalizes it
// through the file system and reads the file's physical key. Concurrent
// first resolutions of one path observe the same instance.
func (r *Registry) Resolve(path string) (*FileID, error) {
	canonical, err := canonicalPath(path)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve %s: %w", path, err)
	}

	r.mu.RLock()
	id, found := r.ids[canonical]
	r.mu.RUnlock()
	if found {
		return id, nil
	}

	key, err := fileKeyForPath(canonical)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve %s: %w", path, err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	// Another goroutine may have inserted while the key was read.
	if id, found := r.ids[canonical]; found {
		return id, nil
	}
	id = newFileID(canonical, key)
	r.ids[canonical] = id
	r.logger.Debug().Str("path", canonical).Stringer("key", key).Msg("file identity resolved")
	return id, nil
}

// canonicalPath resolves path to its absolute, symlink-free form.
func canonicalPath(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}
	return filepath.EvalSymlinks(abs)
}
