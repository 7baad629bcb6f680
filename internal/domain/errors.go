package domain

import "errors"

// Domain errors represent error conditions in the linetap domain.
// These errors are returned by the public API and can be checked with errors.Is.
var (
	// ErrAlreadyRunning is returned when Start() is called on a running server.
	ErrAlreadyRunning = errors.New("linetap: already running")

	// ErrAlreadyStopping is returned when Start() is called while a previous
	// Stop() is still in progress.
	ErrAlreadyStopping = errors.New("linetap: stop in progress")

	// ErrNotRunning is returned for operations that require a running instance.
	ErrNotRunning = errors.New("linetap: not running")

	// ErrShutdownTimeout is returned when graceful shutdown exceeds the grace period.
	ErrShutdownTimeout = errors.New("linetap: shutdown timeout")

	// ErrInvalidConfig is returned when configuration validation fails.
	ErrInvalidConfig = errors.New("linetap: invalid configuration")
)
