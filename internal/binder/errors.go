package binder

import (
	"errors"
	"fmt"
)

var (
	// ErrDeviceUnavailable is returned when the device cannot be opened.
	ErrDeviceUnavailable = errors.New("device unavailable")
	// ErrInvalidEvent marks a poll result that is neither a valid
	// coordinate nor a known action code.
	ErrInvalidEvent = errors.New("invalid event")
	// ErrConfigParse marks a malformed bindings file.
	ErrConfigParse = errors.New("malformed bindings file")
)

// LoopError wraps any failure raised while a session's run loop was active.
// The caller is expected to dump the bindings before giving up.
type LoopError struct {
	Level int
	Err   error
}

func (e *LoopError) Error() string {
	return fmt.Sprintf("run loop (level %d): %v", e.Level, e.Err)
}

func (e *LoopError) Unwrap() error { return e.Err }
