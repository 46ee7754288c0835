// Package apperrors defines sentinel errors shared across services and
// handlers. Handlers map these to HTTP status codes in one place.
package apperrors

import "errors"

var (
	ErrNotFound               = errors.New("not found")
	ErrUnauthorized           = errors.New("unauthorized")
	ErrForbidden              = errors.New("forbidden")
	ErrNoDepartmentAssigned   = errors.New("no department assigned")
	ErrInvalidStateTransition = errors.New("invalid state transition")
	ErrConflict               = errors.New("conflict")
	ErrInvalidInput           = errors.New("invalid input")
)
