// Package testutil provides testing utilities for the keel CLI.
//
// This package contains mock errors used across test files.
// It should only be imported by test files (*_test.go).
package testutil

import "errors"

// Mock errors for testing purposes.
// These errors are used to simulate various failure scenarios in tests.
var (
	// ErrMockIO indicates a mock I/O failure (used in tests).
	ErrMockIO = errors.New("io failure")

	// ErrMockNotFound indicates a mock resource was not found (used in tests).
	ErrMockNotFound = errors.New("not found")

	// ErrMockUnavailable indicates a mock resource is unavailable (used in tests).
	ErrMockUnavailable = errors.New("unavailable")
)
