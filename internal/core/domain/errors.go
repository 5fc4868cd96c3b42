package domain

import (
	"errors"
	"fmt"
	"strings"
)

// Common domain errors
var (
	ErrInvalidInput   = errors.New("invalid input")
	ErrUnauthorized   = errors.New("unauthorized")
	ErrForbidden      = errors.New("forbidden")
	ErrDuplicateEntry = errors.New("duplicate entry")
	ErrStorageCorrupt = errors.New("storage corrupted")
)

// Auth errors
var (
	// ErrMalformedCredentials is returned by login for syntactically invalid
	// input only. A credential mismatch is reported as a plain false.
	ErrMalformedCredentials = errors.New("invalid email or password")
	ErrInvalidCSRFToken     = errors.New("invalid csrf token")
)

// User errors
var (
	ErrUserNotFound      = errors.New("user not found")
	ErrUserAlreadyExists = errors.New("user already exists")
	ErrInvalidTier       = errors.New("invalid user tier")
)

// Application errors
var (
	ErrApplicationNotFound = errors.New("application not found")
	ErrInvalidStatus       = errors.New("invalid application status")
)

// ValidationError carries every human-readable reason a record was rejected.
type ValidationError struct {
	Reasons []string
}

// NewValidationError returns nil when there are no reasons.
func NewValidationError(reasons []string) error {
	if len(reasons) == 0 {
		return nil
	}
	return &ValidationError{Reasons: reasons}
}

func (e *ValidationError) Error() string {
	return "validation failed: " + strings.Join(e.Reasons, ", ")
}

// Unwrap lets callers match validation failures with errors.Is(err, ErrInvalidInput).
func (e *ValidationError) Unwrap() error {
	return ErrInvalidInput
}

// StorageCorruptionError reports a persisted value that could not be decoded.
type StorageCorruptionError struct {
	Key string
	Err error
}

func (e *StorageCorruptionError) Error() string {
	return fmt.Sprintf("storage key %q is corrupted: %v", e.Key, e.Err)
}

func (e *StorageCorruptionError) Unwrap() []error {
	return []error{ErrStorageCorrupt, e.Err}
}
