package grpcurl

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for grpcurl operations.
var (
	// ErrNotFound indicates the grpcurl binary could not be located.
	ErrNotFound = errors.New("grpcurl binary not found")

	// ErrInvalidOutput indicates grpcurl succeeded but printed unparseable output.
	ErrInvalidOutput = errors.New("invalid grpcurl output")
)

// ExitError reports a grpcurl run that exited with a non-zero status.
type ExitError struct {
	Op       string // Operation that failed ("invoke", "list", "describe")
	ExitCode int    // Process exit status, -1 if unknown
	Stderr   string // Captured standard error
	Err      error  // Underlying *exec.ExitError
}

// Error implements the error interface.
func (e *ExitError) Error() string {
	msg := strings.TrimSpace(e.Stderr)
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	}
	return fmt.Sprintf("grpcurl %s: %s", e.Op, msg)
}

// Unwrap returns the underlying error for errors.Is/As support.
func (e *ExitError) Unwrap() error {
	return e.Err
}

// IsExitError reports whether err came from a non-zero grpcurl exit.
func IsExitError(err error) bool {
	var exitErr *ExitError
	return errors.As(err, &exitErr)
}
