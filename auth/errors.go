package auth

import "errors"

var (
	ErrNotFound    = errors.New("not found")
	ErrInvalid     = errors.New("invalid")
	ErrExpired     = errors.New("expired")
	ErrLocked      = errors.New("locked")
	ErrRateLimited = errors.New("rate limited")
	ErrAlreadyUsed = errors.New("already used")
	ErrValidation  = errors.New("validation failed")
)

// FieldError is a ValidationError tied to one input field.
type FieldError struct {
	Field   string
	Message string
}

func (e *FieldError) Error() string {
	return e.Field + ": " + e.Message
}

func (e *FieldError) Unwrap() error {
	return ErrValidation
}
