package session

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"minicms/internal/conf"

	"github.com/gorilla/sessions"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "0123456789abcdef0123456789abcdef"

// roundTrip saves the session of one request and loads it on the next.
func roundTrip(t *testing.T, m *Manager, mutate func(*Session)) *Session {
	t.Helper()
	r1 := httptest.NewRequest(http.MethodGet, "/", nil)
	w1 := httptest.NewRecorder()
	s := m.Load(r1)
	mutate(s)
	require.NoError(t, s.Save(r1, w1))

	r2 := httptest.NewRequest(http.MethodGet, "/", nil)
	for _, c := range w1.Result().Cookies() {
		r2.AddCookie(c)
	}
	return m.Load(r2)
}

func stores(t *testing.T) map[string]sessions.Store {
	t.Helper()
	out := map[string]sessions.Store{}
	for _, kind := range []string{"cookie", "filesystem", "memory"} {
		st, err := NewStore(conf.Session{Store: kind, Secret: testSecret, Path: t.TempDir(), MaxAge: 3600})
		require.NoError(t, err)
		out[kind] = st
	}
	return out
}

func TestSession_UserSurvivesRoundTrip(t *testing.T) {
	for kind, st := range stores(t) {
		t.Run(kind, func(t *testing.T) {
			m := NewManager(st, "test_session", nil)

			got := roundTrip(t, m, func(s *Session) { s.SetUser(7, "admin") })

			assert.True(t, got.Authenticated())
			assert.Equal(t, int64(7), got.UserID())
			assert.Equal(t, "admin", got.Role())
		})
	}
}

func TestSession_StateIsSingleUse(t *testing.T) {
	m := NewManager(NewMemoryStore(sessions.Options{Path: "/"}), "s", nil)

	issued := time.Unix(1700000000, 0)
	got := roundTrip(t, m, func(s *Session) {
		s.IssueState(PendingLogin{Provider: "google", State: "first", Verifier: "v1", IssuedAt: issued})
		s.IssueState(PendingLogin{Provider: "github", State: "second", IssuedAt: issued})
	})

	pending := got.ConsumeState()
	assert.Equal(t, PendingLogin{Provider: "github", State: "second", IssuedAt: issued}, pending)

	assert.Equal(t, PendingLogin{}, got.ConsumeState())
}

func TestSession_SetUserDropsPendingState(t *testing.T) {
	m := NewManager(NewMemoryStore(sessions.Options{Path: "/"}), "s", nil)
	s := m.Load(httptest.NewRequest(http.MethodGet, "/", nil))

	s.IssueState(PendingLogin{Provider: "github", State: "abc", Verifier: "v", IssuedAt: time.Now()})
	s.SetUser(1, "user")

	assert.Equal(t, PendingLogin{}, s.ConsumeState())
}

func TestSession_LoginDiscardsOldRecord(t *testing.T) {
	for kind, st := range stores(t) {
		if kind == "cookie" {
			continue
		}
		t.Run(kind, func(t *testing.T) {
			m := NewManager(st, "test_session", nil)

			// login page: a state is issued and stored under the first id
			r1 := httptest.NewRequest(http.MethodGet, "/", nil)
			w1 := httptest.NewRecorder()
			s := m.Load(r1)
			s.IssueState(PendingLogin{Provider: "github", State: "abc", IssuedAt: time.Now()})
			require.NoError(t, s.Save(r1, w1))
			before := w1.Result().Cookies()
			require.Len(t, before, 1)

			// callback: the state is consumed and the user logged in
			r2 := httptest.NewRequest(http.MethodGet, "/", nil)
			r2.AddCookie(before[0])
			w2 := httptest.NewRecorder()
			s = m.Load(r2)
			require.Equal(t, "abc", s.ConsumeState().State)
			s.SetUser(9, "user")
			require.NoError(t, s.Save(r2, w2))

			after := w2.Result().Cookies()
			require.Len(t, after, 2)
			assert.True(t, after[0].MaxAge < 0)
			assert.NotEqual(t, before[0].Value, after[1].Value)

			// the cookie from before login finds nothing
			r3 := httptest.NewRequest(http.MethodGet, "/", nil)
			r3.AddCookie(before[0])
			old := m.Load(r3)
			assert.Equal(t, PendingLogin{}, old.ConsumeState())
			assert.False(t, old.Authenticated())

			// the new cookie carries the login
			r4 := httptest.NewRequest(http.MethodGet, "/", nil)
			r4.AddCookie(after[1])
			assert.Equal(t, int64(9), m.Load(r4).UserID())
		})
	}
}

func TestSession_FlashesAndOldInput(t *testing.T) {
	m := NewManager(NewMemoryStore(sessions.Options{Path: "/"}), "s", nil)

	got := roundTrip(t, m, func(s *Session) {
		s.AddFlash(FlashError, "Title is required.")
		s.AddFlash(FlashSuccess, "Saved.")
		s.SetOld(map[string]string{"title": "Hi"})
	})

	assert.Equal(t, []string{"Title is required."}, got.Flashes(FlashError))
	assert.Equal(t, []string{"Saved."}, got.Flashes(FlashSuccess))
	assert.Empty(t, got.Flashes(FlashError))
	assert.Equal(t, "Hi", got.Old()["title"])
	assert.Empty(t, got.Old())
}

func TestSession_ClearExpiresCookie(t *testing.T) {
	store := NewMemoryStore(sessions.Options{Path: "/", MaxAge: 3600})
	m := NewManager(store, "s", nil)

	logged := roundTrip(t, m, func(s *Session) { s.SetUser(3, "user") })
	require.Equal(t, 1, store.Len())

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	w := httptest.NewRecorder()
	logged.Clear()
	require.NoError(t, logged.Save(r, w))

	assert.Equal(t, 0, store.Len())
	assert.False(t, logged.Authenticated())
	require.Len(t, w.Result().Cookies(), 1)
	assert.True(t, w.Result().Cookies()[0].MaxAge < 0)
}

func TestManager_TamperedCookieStartsFresh(t *testing.T) {
	st, err := NewStore(conf.Session{Store: "cookie", Secret: testSecret, MaxAge: 60})
	require.NoError(t, err)
	m := NewManager(st, "s", nil)

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.AddCookie(&http.Cookie{Name: "s", Value: strings.Repeat("A", 40)})

	s := m.Load(r)
	require.NotNil(t, s)
	assert.False(t, s.Authenticated())
}

func TestMiddleware_PutsSessionInContext(t *testing.T) {
	m := NewManager(NewMemoryStore(sessions.Options{Path: "/"}), "s", nil)
	var got *Session

	h := m.Middleware(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		got = FromContext(r.Context())
	}))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	assert.NotNil(t, got)
	assert.Nil(t, FromContext(httptest.NewRequest(http.MethodGet, "/", nil).Context()))
}

func TestNewStore_Unknown(t *testing.T) {
	_, err := NewStore(conf.Session{Store: "redis"})
	assert.Error(t, err)
}
