// Package session implements the per-client state bag: an opaque cookie
// identifier pointing at a server-side key-value record holding the
// logged-in user, the anti-forgery token and the queued flash messages.
package session

import "context"

// Flash is a one-shot message surfaced on the next rendered page.
type Flash struct {
	Message  string `json:"message"`
	Category string `json:"category"`
}

// Session is the state attached to one browser client.
// It is loaded, mutated and saved within a single request.
type Session struct {
	ID        string  `json:"-"`
	User      string  `json:"user,omitempty"`
	CSRFToken string  `json:"csrf_token,omitempty"`
	Flashes   []Flash `json:"flashes,omitempty"`

	renew bool
}

// Renew asks the manager to move this session under a freshly
// generated ID when the update is saved. Call it on privilege changes
// such as login, so an ID a client held before authenticating can
// never be replayed to reach the authenticated session.
func (s *Session) Renew() {
	s.renew = true
}

// Store persists sessions. Implementations must never return another
// session's data for an ID they did not store it under.
type Store interface {
	// Load returns the session stored under id, or nil when unknown
	// or expired.
	Load(ctx context.Context, id string) (*Session, error)
	Save(ctx context.Context, s *Session) error
	Delete(ctx context.Context, id string) error
}
