package auth

import (
	"errors"
	"fmt"
)

// Sentinel errors for the failure classes the presentation layers map to
// status codes. Validation and conflict failures carry a caller-visible
// message; storage and hashing faults are logged in full and surfaced as an
// opaque internal error.
var (
	// ErrInvalidCredentials covers both unknown username and wrong password
	// so callers cannot enumerate accounts.
	ErrInvalidCredentials = errors.New("Invalid username or password")

	// ErrConflict means the username is already taken.
	ErrConflict = errors.New("Username already exists")
)

// ValidationError is a caller-fixable input defect. The message is reported
// verbatim to the client.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string { return e.Msg }

// StorageError wraps a fault from the store adapter.
type StorageError struct {
	Err error
}

func (e *StorageError) Error() string { return fmt.Sprintf("storage error: %v", e.Err) }
func (e *StorageError) Unwrap() error { return e.Err }

// HashingError wraps an internal fault from the credential codec.
type HashingError struct {
	Err error
}

func (e *HashingError) Error() string { return fmt.Sprintf("hashing error: %v", e.Err) }
func (e *HashingError) Unwrap() error { return e.Err }

// IsValidation reports whether err is a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
