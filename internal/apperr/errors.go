// Package apperr defines the error taxonomy shared by every layer.
package apperr

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when a document does not exist
	ErrNotFound = errors.New("not found")
	// ErrDuplicate is returned when a unique field is already taken
	ErrDuplicate = errors.New("already exists")
	// ErrConfirmationRequired is returned when a destructive operation was not confirmed
	ErrConfirmationRequired = errors.New("confirmation required")
)

// AuthCode is a provider reason code
type AuthCode string

// Auth reason codes
const (
	CodeInvalidCredential AuthCode = "invalid-credential"
	CodeEmailInUse        AuthCode = "email-already-in-use"
	CodeWeakPassword      AuthCode = "weak-password"
	CodeInvalidEmail      AuthCode = "invalid-email"
	CodeUserDisabled      AuthCode = "user-disabled"
	CodeUserNotFound      AuthCode = "user-not-found"
	CodeSessionExpired    AuthCode = "session-expired"
)

// AuthError is a failed authentication or account operation
type AuthError struct {
	Code AuthCode
	Err  error
}

func (e *AuthError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("auth/%s: %v", e.Code, e.Err)
	}
	return "auth/" + string(e.Code)
}

func (e *AuthError) Unwrap() error { return e.Err }

// Auth creates an AuthError with the given code
func Auth(code AuthCode, err error) error {
	return &AuthError{Code: code, Err: err}
}

// DataAccessError is a generic read or write failure of the document database
type DataAccessError struct {
	Op  string
	Err error
}

func (e *DataAccessError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *DataAccessError) Unwrap() error { return e.Err }

// DataAccess wraps a database error
func DataAccess(op string, err error) error {
	return &DataAccessError{Op: op, Err: err}
}

// StorageError is an upload, download or delete failure of the blob store
type StorageError struct {
	Op  string
	Key string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("failed to %s object %q: %v", e.Op, e.Key, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

// Storage wraps a blob store error
func Storage(op, key string, err error) error {
	return &StorageError{Op: op, Key: key, Err: err}
}

// Validation reasons
const (
	ReasonRequired         = "required"
	ReasonInvalid          = "invalid"
	ReasonMismatch         = "mismatch"
	ReasonUnchanged        = "unchanged"
	ReasonLocationRequired = "location-required"
	ReasonInvalidCategory  = "invalid-category"
)

// ValidationError is a rejected input
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

// Required reports a missing required field
func Required(field string) error {
	return &ValidationError{Field: field, Reason: ReasonRequired}
}

// Invalid reports a field rejected for the given reason
func Invalid(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}

// ExternalError is a failure of a third-party service such as geocoding or push
type ExternalError struct {
	Service string
	Err     error
}

func (e *ExternalError) Error() string {
	return fmt.Sprintf("%s: %v", e.Service, e.Err)
}

func (e *ExternalError) Unwrap() error { return e.Err }

// External wraps a third-party service error
func External(service string, err error) error {
	return &ExternalError{Service: service, Err: err}
}

// IsAuth reports whether err carries an AuthError, returning its code
func IsAuth(err error) (AuthCode, bool) {
	var authErr *AuthError
	if errors.As(err, &authErr) {
		return authErr.Code, true
	}
	return "", false
}
