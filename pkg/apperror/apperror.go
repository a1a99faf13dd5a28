// Package apperror defines the error taxonomy surfaced by the request workflow.
package apperror

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies an error for callers deciding how to present it
type Kind string

const (
	KindValidation    Kind = "validation"
	KindAuthorization Kind = "authorization"
	KindStateConflict Kind = "state_conflict"
	KindStockConflict Kind = "stock_conflict"
	KindNotFound      Kind = "not_found"
)

// Machine-readable error codes
const (
	CodeValidation        = "validation"
	CodeInvalidStatus     = "invalid_status"
	CodeForbidden         = "forbidden"
	CodeAlreadyFinalized  = "already_finalized"
	CodeInvalidTransition = "invalid_transition"
	CodeExceedsRequested  = "exceeds_requested"
	CodeInsufficientStock = "insufficient_stock"
	CodeNotFound          = "not_found"
)

// Error is a classified domain error carrying a human-readable reason
type Error struct {
	Kind    Kind
	Code    string
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

// Is matches another *Error with the same code, so sentinel-style checks work
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Code == e.Code
}

func newf(kind Kind, code, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Code: code, Message: fmt.Sprintf(format, args...)}
}

func Validation(format string, args ...interface{}) *Error {
	return newf(KindValidation, CodeValidation, format, args...)
}

func InvalidStatus(format string, args ...interface{}) *Error {
	return newf(KindValidation, CodeInvalidStatus, format, args...)
}

func Forbidden(format string, args ...interface{}) *Error {
	return newf(KindAuthorization, CodeForbidden, format, args...)
}

func AlreadyFinalized(format string, args ...interface{}) *Error {
	return newf(KindStateConflict, CodeAlreadyFinalized, format, args...)
}

func InvalidTransition(format string, args ...interface{}) *Error {
	return newf(KindStateConflict, CodeInvalidTransition, format, args...)
}

func ExceedsRequested(format string, args ...interface{}) *Error {
	return newf(KindStateConflict, CodeExceedsRequested, format, args...)
}

func InsufficientStock(format string, args ...interface{}) *Error {
	return newf(KindStockConflict, CodeInsufficientStock, format, args...)
}

func NotFound(format string, args ...interface{}) *Error {
	return newf(KindNotFound, CodeNotFound, format, args...)
}

// Sentinels for errors.Is comparisons
var (
	ErrForbidden         = &Error{Kind: KindAuthorization, Code: CodeForbidden}
	ErrAlreadyFinalized  = &Error{Kind: KindStateConflict, Code: CodeAlreadyFinalized}
	ErrInvalidTransition = &Error{Kind: KindStateConflict, Code: CodeInvalidTransition}
	ErrExceedsRequested  = &Error{Kind: KindStateConflict, Code: CodeExceedsRequested}
	ErrInsufficientStock = &Error{Kind: KindStockConflict, Code: CodeInsufficientStock}
	ErrInvalidStatus     = &Error{Kind: KindValidation, Code: CodeInvalidStatus}
	ErrValidation        = &Error{Kind: KindValidation, Code: CodeValidation}
	ErrNotFound          = &Error{Kind: KindNotFound, Code: CodeNotFound}
)

// From extracts the classified error from a chain, if any
func From(err error) (*Error, bool) {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// HTTPStatus maps an error to the status code a handler should answer with
func HTTPStatus(err error) int {
	appErr, ok := From(err)
	if !ok {
		return http.StatusInternalServerError
	}
	switch appErr.Kind {
	case KindValidation:
		return http.StatusBadRequest
	case KindAuthorization:
		return http.StatusForbidden
	case KindNotFound:
		return http.StatusNotFound
	case KindStateConflict, KindStockConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
