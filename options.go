package keel

// createConfig collects the create-time options.
type createConfig struct {
	sparse    bool
	ephemeral bool
}

// CreateOption configures Registry.Create.
type CreateOption func(*createConfig)

// Sparse hints to the file system that unwritten regions of the file
// should not be backed by allocated blocks. Unix filesystems behave this
// way unconditionally; on Windows the file is marked sparse explicitly.
func Sparse() CreateOption {
	return func(c *createConfig) {
		c.sparse = true
	}
}

// Ephemeral marks the file for removal when the handle is closed, for
// temporary database files whose contents do not outlive the handle.
func Ephemeral() CreateOption {
	return func(c *createConfig) {
		c.ephemeral = true
	}
}
