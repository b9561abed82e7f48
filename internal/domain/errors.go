package domain

import "errors"

var (
	ErrNotFound               = errors.New("not found")
	ErrForbidden              = errors.New("forbidden")
	ErrInvalidArgument        = errors.New("invalid argument")
	ErrInvalidStateTransition = errors.New("invalid state transition")
	ErrUnauthenticated        = errors.New("unauthenticated")
	ErrConflict               = errors.New("conflict")
)
