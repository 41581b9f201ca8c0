package domain

import "errors"

// Sentinel errors for the domain layer. These provide consistent, checkable
// errors for the few failures that reach a caller. Store mutations never
// return them; they resolve not-found and duplicates as silent no-ops.
var (
	ErrNotFound       = errors.New("requested resource not found")
	ErrInvalidProfile = errors.New("invalid user profile")
	ErrEmptyMessage   = errors.New("message text is empty")
)
