// Package apperr defines the error kinds surfaced to API clients and their
// HTTP status codes.
package apperr

import (
	"errors"
	"fmt"
	"net/http"

	pkgerrors "github.com/pkg/errors"
)

type Kind int

const (
	KindInternal Kind = iota
	KindValidation
	KindNotFound
	KindForbidden
	KindConflict
	KindUpstream
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindNotFound:
		return "not_found"
	case KindForbidden:
		return "forbidden"
	case KindConflict:
		return "conflict"
	case KindUpstream:
		return "upstream"
	default:
		return "internal"
	}
}

// Status returns the HTTP status code for the kind. Conflict maps to 400, not 409.
func (k Kind) Status() int {
	switch k {
	case KindValidation, KindConflict:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	case KindForbidden:
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

// Error is an error with a client-safe message. The cause carries a stack trace
// and is only rendered outside production.
type Error struct {
	Kind    Kind
	Message string
	cause   error
}

func (e *Error) Error() string {
	if e.cause == nil || e.cause.Error() == e.Message {
		return e.Message
	}
	return e.Message + ": " + e.cause.Error()
}

func (e *Error) Unwrap() error { return e.cause }

// Stack renders the cause with its stack trace.
func (e *Error) Stack() string {
	if e.cause == nil {
		return ""
	}
	return fmt.Sprintf("%+v", e.cause)
}

func newError(kind Kind, msg string) *Error {
	return &Error{Kind: kind, Message: msg, cause: pkgerrors.New(msg)}
}

func wrap(kind Kind, msg string, err error) *Error {
	if err == nil {
		return newError(kind, msg)
	}
	return &Error{Kind: kind, Message: msg, cause: pkgerrors.WithStack(err)}
}

func Validation(msg string) *Error { return newError(KindValidation, msg) }

func NotFound(msg string) *Error { return newError(KindNotFound, msg) }

func Forbidden(msg string) *Error { return newError(KindForbidden, msg) }

func Conflict(msg string) *Error { return newError(KindConflict, msg) }

// Upstream reports a failed call to a remote collaborator (object storage, signing).
func Upstream(msg string, err error) *Error { return wrap(KindUpstream, msg, err) }

func Internal(msg string, err error) *Error { return wrap(KindInternal, msg, err) }

// KindOf returns the kind of the first *Error in err's chain, or KindInternal.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// Is reports whether err carries the given kind.
func Is(err error, kind Kind) bool {
	var e *Error
	return errors.As(err, &e) && e.Kind == kind
}
