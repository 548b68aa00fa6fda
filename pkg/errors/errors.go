// Package errors carries coded errors between the domain layer, the renderer
// and the two outer surfaces (CLI and HTTP).
//
// An [Error] pairs a [Code] with a message meant for a person and an optional
// cause. The CLI prints [UserMessage] and, for [Recoverable] failures, a hint
// to reload; the server maps codes onto HTTP statuses.
//
//	err := errors.Wrap(errors.ErrCodeStore, cause, "list domains under %s", parent)
//	if errors.Is(err, errors.ErrCodeStore) { ... }
package errors

import (
	"errors"
	"fmt"
)

// Code is a stable, machine-readable failure category.
type Code string

const (
	ErrCodeInvalidInput    Code = "INVALID_INPUT"
	ErrCodeInvalidFormat   Code = "INVALID_FORMAT"
	ErrCodeInvalidViewport Code = "INVALID_VIEWPORT"
	ErrCodeInvalidConfig   Code = "INVALID_CONFIG"
	ErrCodeInvalidPath     Code = "INVALID_PATH"

	ErrCodeNotFound       Code = "NOT_FOUND"
	ErrCodeDomainNotFound Code = "DOMAIN_NOT_FOUND"
	ErrCodeFileNotFound   Code = "FILE_NOT_FOUND"

	ErrCodeNetwork Code = "NETWORK_ERROR"
	ErrCodeTimeout Code = "TIMEOUT"
	ErrCodeStore   Code = "STORE_ERROR"
	ErrCodeRender  Code = "RENDER_ERROR"

	ErrCodeInternal    Code = "INTERNAL_ERROR"
	ErrCodeUnsupported Code = "UNSUPPORTED"
)

// recoverable lists the codes a reload can fix.
var recoverable = map[Code]bool{
	ErrCodeRender:  true,
	ErrCodeStore:   true,
	ErrCodeNetwork: true,
	ErrCodeTimeout: true,
}

// Error is a coded failure. Message is shown to users as is.
type Error struct {
	Code    Code
	Message string
	Cause   error
}

func (e *Error) Error() string {
	s := string(e.Code) + ": " + e.Message
	if e.Cause != nil {
		s += ": " + e.Cause.Error()
	}
	return s
}

func (e *Error) Unwrap() error { return e.Cause }

// New returns an Error with a formatted message and no cause.
func New(code Code, format string, args ...any) *Error {
	return Wrap(code, nil, format, args...)
}

// Wrap returns an Error with a formatted message around cause.
func Wrap(code Code, cause error, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...), Cause: cause}
}

// outermost returns the first *Error in err's chain.
func outermost(err error) (*Error, bool) {
	var e *Error
	ok := errors.As(err, &e)
	return e, ok
}

// Is reports whether the first *Error in err's chain carries code.
func Is(err error, code Code) bool { return GetCode(err) == code && code != "" }

// GetCode returns the code of the first *Error in err's chain, or "".
func GetCode(err error) Code {
	if e, ok := outermost(err); ok {
		return e.Code
	}
	return ""
}

// UserMessage returns the message without code or cause, falling back to
// err.Error() for foreign errors.
func UserMessage(err error) string {
	if e, ok := outermost(err); ok {
		return e.Message
	}
	return err.Error()
}

// Recoverable reports whether reloading may succeed. Render and collaborator
// failures qualify; invalid input does not.
func Recoverable(err error) bool { return recoverable[GetCode(err)] }
