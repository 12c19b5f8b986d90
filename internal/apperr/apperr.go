// Package apperr carries typed service failures across layers. Handlers map
// a Kind to its HTTP status instead of inventing codes ad hoc.
package apperr

import "net/http"

type Kind int

const (
	KindValidation Kind = iota
	KindUnauthorized
	KindForbidden
	KindNotFound
	KindConflict
	KindInternal
)

type Error struct {
	Kind    Kind
	Message string
	// Fields holds field-keyed validation messages, nil for non-validation
	// failures.
	Fields map[string]string
}

func (e *Error) Error() string { return e.Message }

// Status maps an error kind to its HTTP status. Conflict (duplicate
// username) surfaces as 400 with a field error, not 409.
func (e *Error) Status() int {
	switch e.Kind {
	case KindValidation, KindConflict:
		return http.StatusBadRequest
	case KindUnauthorized:
		return http.StatusUnauthorized
	case KindForbidden:
		return http.StatusForbidden
	case KindNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

func Validation(fields map[string]string) *Error {
	return &Error{Kind: KindValidation, Message: "Invalid input", Fields: fields}
}

func ValidationField(field, message string) *Error {
	return Validation(map[string]string{field: message})
}

func Unauthorized(message string) *Error {
	return &Error{Kind: KindUnauthorized, Message: message}
}

func Forbidden(message string) *Error {
	return &Error{Kind: KindForbidden, Message: message}
}

func NotFound(message string) *Error {
	return &Error{Kind: KindNotFound, Message: message}
}

func Internal(message string) *Error {
	return &Error{Kind: KindInternal, Message: message}
}
