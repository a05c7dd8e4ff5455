package services

import (
	"errors"
	"fmt"
)

// Sentinel errors the controllers map to HTTP status codes.
var (
	ErrNotFound           = errors.New("not found")
	ErrForbidden          = errors.New("forbidden")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrEmailTaken         = errors.New("email already registered")
	ErrUsernameTaken      = errors.New("username already taken")
	ErrAlreadyVoted       = errors.New("user has already voted on this battle")
	ErrBattleClosed       = errors.New("battle is no longer active")
	ErrValidation         = errors.New("validation failed")
)

// validationError wraps ErrValidation with field-level detail.
func validationError(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}
