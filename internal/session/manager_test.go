package session

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestManager() *Manager {
	return NewManager(NewMemoryStore(time.Hour), time.Hour, CookieOptions{})
}

func sessionCookie(t *testing.T, rec *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	for _, c := range rec.Result().Cookies() {
		if c.Name == CookieName {
			return c
		}
	}
	t.Fatal("no session cookie issued")
	return nil
}

func TestManager_LazyCreateAndPersist(t *testing.T) {
	t.Parallel()

	m := newTestManager()

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)

	s, err := m.Update(rec, req, func(s *Session) error {
		assert.Empty(t, s.User)
		s.User = "alice"
		return nil
	})
	require.NoError(t, err)
	require.NotEmpty(t, s.ID)

	cookie := sessionCookie(t, rec)
	assert.Equal(t, s.ID, cookie.Value)

	// The immediately following request observes the write.
	req2 := httptest.NewRequest(http.MethodGet, "/", nil)
	req2.AddCookie(cookie)
	s2, err := m.Update(httptest.NewRecorder(), req2, func(s *Session) error {
		assert.Equal(t, "alice", s.User)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, s.ID, s2.ID)
}

func TestManager_UnknownCookieGetsFreshID(t *testing.T) {
	t.Parallel()

	m := newTestManager()

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: CookieName, Value: "attacker-chosen-id"})

	s, err := m.Update(rec, req, func(s *Session) error {
		assert.Empty(t, s.User)
		assert.Empty(t, s.CSRFToken)
		return nil
	})
	require.NoError(t, err)

	// A client-chosen string is never adopted as the session ID; the
	// client gets a freshly minted one instead.
	assert.NotEqual(t, "attacker-chosen-id", s.ID)
	cookie := sessionCookie(t, rec)
	assert.Equal(t, s.ID, cookie.Value)

	// Nothing was stored under the planted value.
	loaded, err := m.store.Load(req.Context(), "attacker-chosen-id")
	require.NoError(t, err)
	assert.Nil(t, loaded)
}

func TestManager_RenewMovesSession(t *testing.T) {
	t.Parallel()

	m := newTestManager()

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	s, err := m.Update(rec, req, func(s *Session) error {
		s.CSRFToken = "pre-login-token"
		return nil
	})
	require.NoError(t, err)
	oldCookie := sessionCookie(t, rec)
	oldID := s.ID

	rec2 := httptest.NewRecorder()
	req2 := httptest.NewRequest(http.MethodPost, "/", nil)
	req2.AddCookie(oldCookie)
	s2, err := m.Update(rec2, req2, func(s *Session) error {
		s.User = "alice"
		s.Renew()
		return nil
	})
	require.NoError(t, err)

	// The session moved to a new ID, carrying its state along, and the
	// new cookie was issued.
	assert.NotEqual(t, oldID, s2.ID)
	assert.Equal(t, "alice", s2.User)
	newCookie := sessionCookie(t, rec2)
	assert.Equal(t, s2.ID, newCookie.Value)

	// The old ID is dead: replaying it starts an empty session.
	req3 := httptest.NewRequest(http.MethodGet, "/", nil)
	req3.AddCookie(oldCookie)
	s3, err := m.Update(httptest.NewRecorder(), req3, func(s *Session) error { return nil })
	require.NoError(t, err)
	assert.Empty(t, s3.User)
	assert.NotEqual(t, oldID, s3.ID)

	// The new ID holds the login and does not renew again.
	req4 := httptest.NewRequest(http.MethodGet, "/", nil)
	req4.AddCookie(newCookie)
	s4, err := m.Update(httptest.NewRecorder(), req4, func(s *Session) error { return nil })
	require.NoError(t, err)
	assert.Equal(t, "alice", s4.User)
	assert.Equal(t, s2.ID, s4.ID)
}

func TestManager_FnErrorAbortsSave(t *testing.T) {
	t.Parallel()

	m := newTestManager()

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	s, err := m.Update(rec, req, func(s *Session) error {
		s.User = "alice"
		return nil
	})
	require.NoError(t, err)
	cookie := sessionCookie(t, rec)

	boom := errors.New("boom")
	req2 := httptest.NewRequest(http.MethodGet, "/", nil)
	req2.AddCookie(cookie)
	_, err = m.Update(httptest.NewRecorder(), req2, func(s *Session) error {
		s.User = "mallory"
		return boom
	})
	require.ErrorIs(t, err, boom)

	req3 := httptest.NewRequest(http.MethodGet, "/", nil)
	req3.AddCookie(cookie)
	s3, err := m.Update(httptest.NewRecorder(), req3, func(s *Session) error { return nil })
	require.NoError(t, err)
	assert.Equal(t, "alice", s3.User)
	assert.Equal(t, s.ID, s3.ID)
}

func TestManager_SerializesSameSession(t *testing.T) {
	t.Parallel()

	m := newTestManager()

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	_, err := m.Update(rec, req, func(s *Session) error { return nil })
	require.NoError(t, err)
	cookie := sessionCookie(t, rec)

	// Each update is a read-modify-write; without per-session
	// serialization most of these appends would be lost.
	const n = 50
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			r := httptest.NewRequest(http.MethodGet, "/", nil)
			r.AddCookie(cookie)
			_, err := m.Update(httptest.NewRecorder(), r, func(s *Session) error {
				s.Flashes = append(s.Flashes, Flash{Message: "m", Category: "primary"})
				return nil
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.AddCookie(cookie)
	s, err := m.Update(httptest.NewRecorder(), r, func(s *Session) error { return nil })
	require.NoError(t, err)
	assert.Len(t, s.Flashes, n)
}

func TestManager_Destroy(t *testing.T) {
	t.Parallel()

	m := newTestManager()

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	_, err := m.Update(rec, req, func(s *Session) error {
		s.User = "alice"
		return nil
	})
	require.NoError(t, err)
	cookie := sessionCookie(t, rec)

	rec2 := httptest.NewRecorder()
	req2 := httptest.NewRequest(http.MethodPost, "/", nil)
	req2.AddCookie(cookie)
	require.NoError(t, m.Destroy(rec2, req2))

	cleared := sessionCookie(t, rec2)
	assert.Negative(t, cleared.MaxAge)

	req3 := httptest.NewRequest(http.MethodGet, "/", nil)
	req3.AddCookie(cookie)
	s3, err := m.Update(httptest.NewRecorder(), req3, func(s *Session) error { return nil })
	require.NoError(t, err)
	assert.Empty(t, s3.User)
}
