package model

import "errors"

// Validation and lookup errors shared by every stats backend.
var (
	ErrUserNotFound     = errors.New("user not found")
	ErrDocumentNotFound = errors.New("document not found")
	ErrMissingUserID    = errors.New("missing user_id")
	ErrInvalidDuration  = errors.New("invalid duration")
)
