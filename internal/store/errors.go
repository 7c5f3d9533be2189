package store

import "errors"

// Sentinel errors shared by the repositories. Handlers translate these
// into user-visible outcomes; anything else is a storage failure.
var (
	ErrNotFound      = errors.New("not found")
	ErrUsernameTaken = errors.New("username already taken")
)
