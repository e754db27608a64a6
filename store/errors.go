package store

import "errors"

// Common errors for session store operations.
var (
	ErrSessionNotFound = errors.New("session not found")
	ErrInvalidConfig   = errors.New("invalid configuration")
	ErrInvalidDriver   = errors.New("invalid driver type")
)
