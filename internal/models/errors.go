package models

import "errors"

var (
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrNotFound          = errors.New("resource not found")
	ErrForbidden         = errors.New("not authorized")
	ErrInvalidState      = errors.New("invalid status transition")
	ErrValidation        = errors.New("validation failed")
)
