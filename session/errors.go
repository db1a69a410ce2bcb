package session

import (
	"errors"
	"fmt"
)

// Sentinel errors for session operations.
var (
	// ErrLaunch indicates the grpcurl process could not be started.
	ErrLaunch = errors.New("launch failed")

	// ErrIO indicates a read or write on a live process failed.
	ErrIO = errors.New("stream i/o failed")

	// ErrSerialization indicates a payload could not be encoded as JSON.
	ErrSerialization = errors.New("serialization failed")

	// ErrNoActiveStream indicates there is no session for the key or its
	// input is closed.
	ErrNoActiveStream = errors.New("no active stream")

	// ErrInvalidSignal indicates an unrecognized signal name.
	ErrInvalidSignal = errors.New("invalid signal")

	// ErrSessionExists indicates the key is active and the collision policy
	// is reject.
	ErrSessionExists = errors.New("session already exists")

	// ErrInvalidCallShape indicates an unknown call shape, or a unary call
	// passed to Start.
	ErrInvalidCallShape = errors.New("invalid call shape")

	// ErrInvalidRequest indicates a request is missing its address or method.
	ErrInvalidRequest = errors.New("invalid request")

	// ErrTooManySessions indicates the session limit is reached.
	ErrTooManySessions = errors.New("too many sessions")

	// ErrManagerClosed indicates the manager no longer accepts calls.
	ErrManagerClosed = errors.New("manager is closed")
)

// Error wraps a session failure with the operation and key involved.
type Error struct {
	Op  string // Operation that failed ("start", "signal", "send", "invoke")
	Key Key    // Session the operation targeted
	Err error  // Underlying error
}

// Error implements the error interface.
func (e *Error) Error() string {
	return fmt.Sprintf("session %s %s: %v", e.Op, e.Key, e.Err)
}

// Unwrap returns the underlying error for errors.Is/As support.
func (e *Error) Unwrap() error {
	return e.Err
}

func newError(op string, key Key, err error) error {
	return &Error{Op: op, Key: key, Err: err}
}

// IsNoActiveStream reports whether err means the session has no open input.
func IsNoActiveStream(err error) bool {
	return errors.Is(err, ErrNoActiveStream)
}

// IsLaunch reports whether err means the process could not be started.
func IsLaunch(err error) bool {
	return errors.Is(err, ErrLaunch)
}
