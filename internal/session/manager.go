package session

import (
	"hash/fnv"
	"net/http"
	"sync"
	"time"
)

const lockShards = 64

// Manager ties the client-held cookie to the stored session and
// serializes all work on one session behind a keyed lock, so a
// verify-then-rotate sequence cannot interleave with a concurrent
// double submit for the same session.
type Manager struct {
	store  Store
	cookie CookieOptions
	maxAge int

	// Sharded by session ID hash. Coarser than one lock per session,
	// never finer, so per-session ordering still holds.
	locks [lockShards]sync.Mutex
}

func NewManager(store Store, ttl time.Duration, cookie CookieOptions) *Manager {
	return &Manager{
		store:  store,
		cookie: cookie,
		maxAge: int(ttl.Seconds()),
	}
}

func (m *Manager) lock(id string) *sync.Mutex {
	h := fnv.New32a()
	h.Write([]byte(id))
	return &m.locks[h.Sum32()%lockShards]
}

// Update loads the caller's session, runs fn on it under the
// per-session lock, and saves the result. A missing or unknown cookie
// transparently yields a fresh empty session under a newly minted ID;
// the cookie is (re)issued whenever the ID changed. fn returning an
// error aborts without saving.
func (m *Manager) Update(w http.ResponseWriter, r *http.Request, fn func(s *Session) error) (*Session, error) {
	id, minted, err := m.resolveID(r)
	if err != nil {
		return nil, err
	}

	mu := m.lock(id)
	mu.Lock()
	defer mu.Unlock()

	var s *Session
	if !minted {
		s, err = m.store.Load(r.Context(), id)
		if err != nil {
			return nil, err
		}
	}
	if s == nil {
		s = &Session{ID: id}
	}

	if err := fn(s); err != nil {
		return nil, err
	}

	// Renew before saving: nobody else can hold the new ID yet, so the
	// old shard lock still covers the whole move.
	oldID := s.ID
	renewed := s.renew
	if renewed {
		s.renew = false
		newID, err := GenerateID()
		if err != nil {
			return nil, err
		}
		s.ID = newID
	}

	if err := m.store.Save(r.Context(), s); err != nil {
		return nil, err
	}

	if renewed && oldID != s.ID {
		_ = m.store.Delete(r.Context(), oldID)
	}

	if minted || renewed {
		SetCookie(w, s.ID, m.maxAge, m.cookie)
	}
	return s, nil
}

// Destroy removes the stored session and clears the client cookie.
func (m *Manager) Destroy(w http.ResponseWriter, r *http.Request) error {
	if cookie, err := r.Cookie(CookieName); err == nil && cookie.Value != "" {
		mu := m.lock(cookie.Value)
		mu.Lock()
		err := m.store.Delete(r.Context(), cookie.Value)
		mu.Unlock()
		if err != nil {
			return err
		}
	}

	ClearCookie(w, m.cookie)
	return nil
}

// resolveID returns the session ID to use for this request. A cookie
// value the store does not know is treated as absent rather than
// adopted: storing state under a client-chosen string would let an
// attacker plant an ID in a victim's browser and replay it later
// (session fixation). The bool reports whether the ID is new to the
// client.
func (m *Manager) resolveID(r *http.Request) (string, bool, error) {
	if cookie, err := r.Cookie(CookieName); err == nil && cookie.Value != "" {
		s, err := m.store.Load(r.Context(), cookie.Value)
		if err != nil {
			return "", false, err
		}
		if s != nil {
			return cookie.Value, false, nil
		}
	}

	id, err := GenerateID()
	if err != nil {
		return "", false, err
	}
	return id, true, nil
}
