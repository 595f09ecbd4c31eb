// Package apperr classifies failures crossing the application boundary.
package apperr

import (
	"errors"
	"fmt"
)

type Kind string

const (
	KindNotAuthenticated Kind = "NOT_AUTHENTICATED"
	KindNotFound         Kind = "NOT_FOUND"
	KindValidation       Kind = "VALIDATION"
	KindConflict         Kind = "CONFLICT"
	KindProvider         Kind = "PROVIDER"
	KindStore            Kind = "STORE"
)

// Error carries a Kind, the operation that failed and a caller-safe message.
type Error struct {
	Kind    Kind
	Op      string
	Message string
	Err     error
}

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	}
	if e.Op != "" {
		return fmt.Sprintf("%s: %s", e.Op, msg)
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

func newError(kind Kind, op, msg string, err error) *Error {
	return &Error{Kind: kind, Op: op, Message: msg, Err: err}
}

func NotAuthenticated(op, msg string) *Error {
	return newError(KindNotAuthenticated, op, msg, nil)
}

func NotFound(op string, err error) *Error {
	return newError(KindNotFound, op, messageOf(err), err)
}

func Validation(op string, err error) *Error {
	return newError(KindValidation, op, messageOf(err), err)
}

// Invalid is Validation with a literal reason.
func Invalid(op, msg string) *Error {
	return newError(KindValidation, op, msg, nil)
}

func Conflict(op string, err error) *Error {
	return newError(KindConflict, op, messageOf(err), err)
}

func Provider(op string, err error) *Error {
	return newError(KindProvider, op, "upstream provider failed", err)
}

func Store(op string, err error) *Error {
	return newError(KindStore, op, "internal error", err)
}

// KindOf returns the kind of the first *Error in err's chain. Unknown errors
// count as store failures.
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return KindStore
}

// MessageOf returns the caller-safe message for err.
func MessageOf(err error) string {
	var appErr *Error
	if errors.As(err, &appErr) && appErr.Message != "" {
		return appErr.Message
	}
	return "internal error"
}

func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

func messageOf(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
