package util

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	ErrPermissionDenied   = errors.New("permission denied")
	ErrNotFound           = errors.New("not found")
	ErrConflict           = errors.New("conflict")
	ErrValidation         = errors.New("validation failed")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInactiveUser       = errors.New("user is inactive")
	ErrInviteExpired      = errors.New("invite expired")
	ErrInviteEmail        = errors.New("email does not match invite")
	ErrEmailInUse         = errors.New("email already in use")
	ErrUsernameTaken      = errors.New("username already taken")
	ErrLocationInUse      = errors.New("location has assessments")
	ErrTallyNotInLocation = errors.New("tally does not belong to location")
)

// ValidationError lists the offending fields of a request.
type ValidationError struct {
	Fields map[string]string
}

func NewValidationError() *ValidationError {
	return &ValidationError{Fields: make(map[string]string)}
}

func (e *ValidationError) Add(field, message string) *ValidationError {
	e.Fields[field] = message
	return e
}

// Err returns nil when no field was added.
func (e *ValidationError) Err() error {
	if len(e.Fields) == 0 {
		return nil
	}
	return e
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = k + ": " + e.Fields[k]
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// Invalid builds a single-field validation error.
func Invalid(field, format string, args ...any) error {
	return NewValidationError().Add(field, fmt.Sprintf(format, args...))
}

// DetailedError carries data for the client alongside a sentinel.
type DetailedError struct {
	Err  error
	Data any
}

func (e *DetailedError) Error() string { return e.Err.Error() }

func (e *DetailedError) Unwrap() error { return e.Err }
