package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrValidation is wrapped by every *ValidationError.
	ErrValidation = errors.New("validation failed")
	// ErrNotFound is returned when no booking carries the requested id.
	ErrNotFound = errors.New("booking not found")
	// ErrDuplicateID is returned when an add would break id uniqueness.
	ErrDuplicateID = errors.New("booking id already exists")
)

// ValidationError reports a blocking form problem. No state is mutated
// when one is returned.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// RemoteWriteError wraps a rejected create/update/delete against the remote store.
type RemoteWriteError struct {
	Op  string
	ID  string
	Err error
}

func (e *RemoteWriteError) Error() string {
	return fmt.Sprintf("remote %s of booking %s failed: %v", e.Op, e.ID, e.Err)
}

func (e *RemoteWriteError) Unwrap() error { return e.Err }

// RemoteReadError wraps a rejected fetch against a remote collaborator.
type RemoteReadError struct {
	Op  string
	Err error
}

func (e *RemoteReadError) Error() string {
	return fmt.Sprintf("remote %s failed: %v", e.Op, e.Err)
}

func (e *RemoteReadError) Unwrap() error { return e.Err }
