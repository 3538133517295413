// Package ctxutil provides context utility functions.
package ctxutil

import "context"

// Canceled checks if the context has been canceled or exceeded its deadline.
// Returns the context error if done, nil otherwise. Command implementations
// call this at entry so that work never starts under a dead context.
func Canceled(ctx context.Context) error {
	return ctx.Err()
}
