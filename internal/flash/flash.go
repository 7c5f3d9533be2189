// Package flash queues one-shot messages on the session, drained on the
// next rendered page.
package flash

import "userweb/internal/session"

const (
	CategorySuccess = "success"
	CategoryDanger  = "danger"
	CategoryPrimary = "primary"
)

// Push appends a message to the session's flash queue.
func Push(s *session.Session, message, category string) {
	if category == "" {
		category = CategoryPrimary
	}
	s.Flashes = append(s.Flashes, session.Flash{Message: message, Category: category})
}

// Drain returns all queued messages in push order and empties the
// queue. A second call returns nothing until something is pushed again.
func Drain(s *session.Session) []session.Flash {
	msgs := s.Flashes
	s.Flashes = nil
	return msgs
}
