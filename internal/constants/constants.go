// Package constants provides centralized constant values used throughout the
// keel CLI. This package is the single source of truth for all shared constants
// and MUST NOT import any other internal packages.
package constants

// Directory names and paths used by keel for organizing data.
const (
	// KeelHome is the hidden directory name where keel stores its data.
	// This directory is created in the user's home directory.
	KeelHome = ".keel"

	// LogsDir is the directory name where log files are stored.
	LogsDir = "logs"

	// CLILogFileName is the name of the global CLI log file.
	// This file is located in ~/.keel/logs/keel.log
	CLILogFileName = "keel.log"
)

// Log rotation settings for the global CLI log file.
const (
	// LogMaxSizeMB is the maximum size of the log file before rotation, in megabytes.
	LogMaxSizeMB = 10

	// LogMaxBackups is the number of rotated log files to retain.
	LogMaxBackups = 3

	// LogMaxAgeDays is the number of days rotated log files are retained.
	LogMaxAgeDays = 30

	// LogCompress enables compression of rotated log files.
	LogCompress = true
)

// Defaults for the bench command.
const (
	// BenchDefaultCount is the default number of operations per bench phase.
	BenchDefaultCount = 256

	// BenchDefaultSize is the default I/O size per bench operation, in bytes.
	BenchDefaultSize = 4096
)
