// Package errs contains sentinel errors used across layers for stable error mapping.
package errs

import (
	"errors"
	"fmt"
	"strings"
)

// Common sentinels shared by the service and handler layers. Handlers map
// these to HTTP statuses; services never import net/http.
var (
	// ErrNotFound indicates the requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrConflict indicates a unique constraint violation (e.g. email taken).
	ErrConflict = errors.New("already exists")

	// ErrInvalidCredentials indicates a failed login. The same error covers
	// unknown email and wrong password so callers cannot probe for accounts.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrForbidden indicates the caller is authenticated but lacks the role
	// or ownership required for the operation.
	ErrForbidden = errors.New("forbidden")

	// ErrPayloadTooLarge indicates an upload over the size ceiling.
	ErrPayloadTooLarge = errors.New("payload too large")

	// ErrUnsupportedMedia indicates an upload whose content type is outside
	// the image allow-list.
	ErrUnsupportedMedia = errors.New("unsupported media type")
)

// FieldError is a single field-level validation failure.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError aggregates every violated field for one request so the
// client can surface all problems at once.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	msgs := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		msgs[i] = fmt.Sprintf("%s: %s", f.Field, f.Message)
	}
	return "validation failed: " + strings.Join(msgs, "; ")
}

// Add records a field violation and returns the receiver for chaining.
func (e *ValidationError) Add(field, message string) *ValidationError {
	e.Fields = append(e.Fields, FieldError{Field: field, Message: message})
	return e
}

// OrNil returns nil when no fields were violated.
func (e *ValidationError) OrNil() error {
	if len(e.Fields) == 0 {
		return nil
	}
	return e
}

// AsValidation extracts a *ValidationError from err's chain, if present.
func AsValidation(err error) (*ValidationError, bool) {
	var ve *ValidationError
	ok := errors.As(err, &ve)
	return ve, ok
}
