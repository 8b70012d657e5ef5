package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrUserNotFound is returned by repositories when no record exists.
	ErrUserNotFound = errors.New("user not found")

	// ErrIdentityMismatch means the username exists but the submitted
	// demographics do not match the stored record.
	ErrIdentityMismatch = errors.New("demographics mismatch")

	// ErrExtensionUnavailable means the one-time limit extension is not
	// applicable in the user's current state.
	ErrExtensionUnavailable = errors.New("limit extension unavailable")

	// ErrReservationExpired means the user's reservation was reclaimed
	// before the operation could use it.
	ErrReservationExpired = errors.New("reservation expired")
)

// ValidationError reports a missing or malformed input field. Recoverable;
// no state changes before it is raised.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// WrongPhaseError reports an operation invoked outside its valid session
// state. It signals a client/protocol bug rather than a user mistake.
type WrongPhaseError struct {
	Op    string
	State string
}

func (e *WrongPhaseError) Error() string {
	return fmt.Sprintf("%s not allowed in state %q", e.Op, e.State)
}

// StorageError wraps a persistence gateway failure. Surfaced as retryable;
// in-memory rotation state is left unchanged when it is raised.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage failure during %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}
