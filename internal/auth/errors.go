package auth

import "errors"

var (
	// ErrAuthFailed is returned for unknown usernames and wrong
	// passwords alike, so callers cannot probe which usernames exist.
	ErrAuthFailed = errors.New("invalid credentials")

	ErrWrongCurrentPassword = errors.New("current password is incorrect")
)

// UnknownRoleError reports a registration naming a role that does not
// exist. Unknown roles fail the whole registration rather than being
// skipped, so nothing is persisted.
type UnknownRoleError struct {
	Role string
}

func (e *UnknownRoleError) Error() string {
	return "unknown role: " + e.Role
}
