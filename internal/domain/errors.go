package domain

import "github.com/pkg/errors"

var (
	ErrCourseNotFound   = &NotFoundError{Resource: "course"}
	ErrUserNotFound     = &NotFoundError{Resource: "user"}
	ErrPurchaseNotFound = &NotFoundError{Resource: "purchase"}

	ErrNotAuthenticated = &AuthorizationError{Err: errors.New("User not authenticated")}
	ErrNotEducator      = &AuthorizationError{Err: errors.New("Unauthorized Access"), Authenticated: true}
	ErrNotEnrolled      = &AuthorizationError{Err: errors.New("user has not purchased this course"), Authenticated: true}

	ErrAlreadyEnrolled = NewValidationError(errors.New("already enrolled in this course"))
)

// FieldError is used to indicate an error with a specific struct field.
type FieldError struct {
	Field string
	Error string
}

type ValidationError struct {
	Err    error
	Fields []FieldError
}

func NewValidationError(err error, flds ...FieldError) error {
	return &ValidationError{Err: err, Fields: flds}
}

func (err *ValidationError) Error() string {
	if err.Err == nil {
		return "validation failed"
	}
	return err.Err.Error()
}

// AuthorizationError covers both a missing identity (Authenticated == false)
// and an identity lacking the capability for the action.
type AuthorizationError struct {
	Err           error
	Authenticated bool
}

func (err *AuthorizationError) Error() string { return err.Err.Error() }

type NotFoundError struct {
	Resource string
}

func (err *NotFoundError) Error() string { return err.Resource + " not found" }

// TransientStoreError marks a storage failure that may succeed when retried
// (write contention, lost connection, timeouts).
type TransientStoreError struct {
	Err error
}

func NewTransientStoreError(err error) error {
	return &TransientStoreError{Err: err}
}

func (err *TransientStoreError) Error() string { return "transient store error: " + err.Err.Error() }

func (err *TransientStoreError) Unwrap() error { return err.Err }

func IsTransient(err error) bool {
	var terr *TransientStoreError
	return errors.As(err, &terr)
}

func IsNotFound(err error) bool {
	var nerr *NotFoundError
	return errors.As(err, &nerr)
}
