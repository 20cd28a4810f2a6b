package apperrors

import (
	"errors"
	"fmt"
)

var (
	// ErrUnauthenticated indicates no usable token is available
	ErrUnauthenticated = errors.New("unauthenticated")
	// ErrNotFound indicates the requested entity is not present
	ErrNotFound = errors.New("not found")
)

// Kind classifies an error for callers that decide on retry or redirect
type Kind string

const (
	KindValidation Kind = "validation"
	KindAuth       Kind = "auth"
	KindNetwork    Kind = "network"
	KindServer     Kind = "server"
	KindParse      Kind = "parse"
)

// ValidationError is raised locally before any network call is made
type ValidationError struct {
	Field   string
	Message string
	Err     error
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("validation failed: %s", e.Message)
	}
	return fmt.Sprintf("validation failed on %s: %s", e.Field, e.Message)
}

func (e *ValidationError) Unwrap() error { return e.Err }

// AuthError means the request could not be authorized. Callers should send
// the user back to sign-in.
type AuthError struct {
	Message string
	Err     error
}

func (e *AuthError) Error() string {
	if e.Message == "" {
		return "authentication required"
	}
	return e.Message
}

func (e *AuthError) Unwrap() error {
	if e.Err == nil {
		return ErrUnauthenticated
	}
	return e.Err
}

// NetworkError is a transport failure where no response was received
type NetworkError struct {
	Op  string
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("%s: network error: %v", e.Op, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// ServerError is a non-2xx response. Message carries the server's message
// verbatim when it sent one.
type ServerError struct {
	StatusCode int
	Message    string
	Err        error
}

func (e *ServerError) Error() string {
	return e.Message
}

func (e *ServerError) Unwrap() error { return e.Err }

// ParseError reports a malformed date or time value
type ParseError struct {
	Value  string
	Layout string
	Err    error
}

func (e *ParseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("cannot parse %q as %s: %v", e.Value, e.Layout, e.Err)
	}
	return fmt.Sprintf("cannot parse %q as %s", e.Value, e.Layout)
}

func (e *ParseError) Unwrap() error { return e.Err }

// NewValidation builds a ValidationError for a field
func NewValidation(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

// IsValidation reports whether err is a ValidationError
func IsValidation(err error) bool {
	var target *ValidationError
	return errors.As(err, &target)
}

// IsAuth reports whether err is an AuthError
func IsAuth(err error) bool {
	var target *AuthError
	return errors.As(err, &target)
}

// IsNetwork reports whether err is a NetworkError
func IsNetwork(err error) bool {
	var target *NetworkError
	return errors.As(err, &target)
}

// IsServer reports whether err is a ServerError
func IsServer(err error) bool {
	var target *ServerError
	return errors.As(err, &target)
}

// IsParse reports whether err is a ParseError
func IsParse(err error) bool {
	var target *ParseError
	return errors.As(err, &target)
}

// KindOf returns the classification of err, or "" for unclassified errors.
// Validation wins over parse since validation wraps parse failures.
func KindOf(err error) Kind {
	switch {
	case err == nil:
		return ""
	case IsValidation(err):
		return KindValidation
	case IsAuth(err):
		return KindAuth
	case IsNetwork(err):
		return KindNetwork
	case IsServer(err):
		return KindServer
	case IsParse(err):
		return KindParse
	default:
		return ""
	}
}

// Retryable reports whether the caller may reasonably retry the operation
func Retryable(err error) bool {
	return IsNetwork(err)
}
