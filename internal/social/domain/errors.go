package domain

import "errors"

var (
	// ErrNotFound is returned when an account, rule or post does not exist.
	ErrNotFound = errors.New("not found")
	// ErrInvalidInput wraps validation failures on user supplied data.
	ErrInvalidInput = errors.New("invalid input")
	// ErrAccountInactive is returned when an operation needs an active account.
	ErrAccountInactive = errors.New("account is not active")
	// ErrForbidden is returned when a user touches another user's account.
	ErrForbidden = errors.New("forbidden")
)
