package apperrors

import "errors"

var (
	ErrNotFound          = errors.New("not found")
	ErrUnauthorized      = errors.New("unauthorized")
	ErrForbidden         = errors.New("forbidden")
	ErrConflict          = errors.New("conflict")
	ErrInvalidRole       = errors.New("invalid role")
	ErrSelfRoleChange    = errors.New("cannot change own role")
	ErrAlreadyCheckedOut = errors.New("visitor already checked out")
	ErrInvalidTransition = errors.New("invalid status transition")
)
