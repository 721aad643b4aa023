package utils

import "errors"

// Sentinel errors shared by services and handlers. Services wrap them with
// fmt.Errorf("%w: ...") and handlers map them to HTTP status codes.
var (
	ErrValidation   = errors.New("validation failed")
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
	ErrInvalidState = errors.New("invalid state")
	ErrUpstream     = errors.New("upstream provider error")
	ErrUnavailable  = errors.New("service unavailable")
)
