package services

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrKind classifies core failures so handlers can map them to HTTP statuses
// in one place.
type ErrKind string

const (
	KindAuthentication    ErrKind = "authentication"
	KindAuthorization     ErrKind = "authorization"
	KindInvalidTransition ErrKind = "invalid_transition"
	KindValidation        ErrKind = "validation"
	KindNotFound          ErrKind = "not_found"
	KindExternal          ErrKind = "external_dependency"
	KindInternal          ErrKind = "internal"
)

// AppError is a structured core failure. Core errors are always returned to
// the caller; only report-upload and notification failures are absorbed into
// a degraded state instead.
type AppError struct {
	Kind    ErrKind
	Message string
}

func (e *AppError) Error() string {
	return e.Message
}

// HTTPStatus maps the error kind to a response status
func (e *AppError) HTTPStatus() int {
	switch e.Kind {
	case KindAuthentication:
		return http.StatusUnauthorized
	case KindAuthorization:
		return http.StatusForbidden
	case KindInvalidTransition:
		return http.StatusConflict
	case KindValidation:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	case KindExternal:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// Errorf creates an AppError with a formatted message
func Errorf(kind ErrKind, format string, args ...interface{}) *AppError {
	return &AppError{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// KindOf returns the kind of an error, or KindInternal for plain errors.
func KindOf(err error) ErrKind {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return KindInternal
}

// IsKind reports whether the error carries the given kind.
func IsKind(err error, kind ErrKind) bool {
	return KindOf(err) == kind
}
