// Package session wraps gorilla/sessions with the typed accessors the
// admin backend needs: the logged-in user, the pending OAuth state, flash
// messages and preserved form input.
package session

import (
	"encoding/gob"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/sessions"
)

const (
	keyUserID        = "user_id"
	keyRole          = "role"
	keyOAuthState    = "oauth_state"
	keyOAuthVerifer  = "oauth_verifier"
	keyOAuthProvider = "oauth_provider"
	keyOAuthIssued   = "oauth_issued"
	keyOld           = "old"
)

var pendingKeys = []string{keyOAuthState, keyOAuthVerifer, keyOAuthProvider, keyOAuthIssued}

// Flash kinds.
const (
	FlashSuccess = "success"
	FlashError   = "error"
)

func init() {
	gob.Register(map[string]string{})
}

// Session is the per-request view of the user's session.
type Session struct {
	raw *sessions.Session
	// rotate is set by SetUser; the next Save discards the stored record
	// under the old id before writing a new one.
	rotate bool
}

// PendingLogin is an OAuth attempt started by Begin and not yet completed.
type PendingLogin struct {
	Provider string
	State    string
	Verifier string
	IssuedAt time.Time
}

// Wrap adapts a gorilla session.
func Wrap(raw *sessions.Session) *Session {
	return &Session{raw: raw}
}

// UserID returns the logged-in user id, or 0.
func (s *Session) UserID() int64 {
	id, _ := s.raw.Values[keyUserID].(int64)
	return id
}

// Role returns the logged-in user's role name.
func (s *Session) Role() string {
	role, _ := s.raw.Values[keyRole].(string)
	return role
}

// Authenticated reports whether a user is logged in.
func (s *Session) Authenticated() bool {
	return s.UserID() > 0
}

// SetUser records a successful login. Any pending OAuth state is dropped.
// On Save, server-side stores delete the record under the old id and issue
// a new one.
func (s *Session) SetUser(id int64, role string) {
	s.rotate = true
	s.raw.Values[keyUserID] = id
	s.raw.Values[keyRole] = role
	s.dropPending()
}

// Clear removes every value and expires the cookie on the next Save.
func (s *Session) Clear() {
	for k := range s.raw.Values {
		delete(s.raw.Values, k)
	}
	s.raw.Options.MaxAge = -1
}

// IssueState stores a login attempt, replacing any earlier pending one.
func (s *Session) IssueState(p PendingLogin) {
	s.dropPending()
	s.raw.Values[keyOAuthState] = p.State
	s.raw.Values[keyOAuthProvider] = p.Provider
	s.raw.Values[keyOAuthIssued] = p.IssuedAt.Unix()
	if p.Verifier != "" {
		s.raw.Values[keyOAuthVerifer] = p.Verifier
	}
}

// ConsumeState returns the pending login and removes it. A second call
// returns the zero value.
func (s *Session) ConsumeState() PendingLogin {
	var p PendingLogin
	p.State, _ = s.raw.Values[keyOAuthState].(string)
	p.Verifier, _ = s.raw.Values[keyOAuthVerifer].(string)
	p.Provider, _ = s.raw.Values[keyOAuthProvider].(string)
	if issued, ok := s.raw.Values[keyOAuthIssued].(int64); ok {
		p.IssuedAt = time.Unix(issued, 0)
	}
	s.dropPending()
	return p
}

func (s *Session) dropPending() {
	for _, k := range pendingKeys {
		delete(s.raw.Values, k)
	}
}

// AddFlash queues a message for the next rendered page.
func (s *Session) AddFlash(kind, msg string) {
	s.raw.AddFlash(msg, kind)
}

// Flashes returns and removes the queued messages of kind.
func (s *Session) Flashes(kind string) []string {
	var out []string
	for _, f := range s.raw.Flashes(kind) {
		if msg, ok := f.(string); ok {
			out = append(out, msg)
		}
	}
	return out
}

// SetOld preserves submitted form values for re-rendering after a redirect.
func (s *Session) SetOld(values map[string]string) {
	s.raw.Values[keyOld] = values
}

// Old returns and removes the preserved form values. The result is never
// nil.
func (s *Session) Old() map[string]string {
	old, _ := s.raw.Values[keyOld].(map[string]string)
	delete(s.raw.Values, keyOld)
	if old == nil {
		old = map[string]string{}
	}
	return old
}

// Save writes the session through its store.
func (s *Session) Save(r *http.Request, w http.ResponseWriter) error {
	if s.rotate {
		if err := s.discard(r, w); err != nil {
			return err
		}
		s.rotate = false
	}
	return s.raw.Save(r, w)
}

// discard deletes the stored record under the current id. Cookie stores
// have no id and nothing to delete.
func (s *Session) discard(r *http.Request, w http.ResponseWriter) error {
	if s.raw.ID == "" {
		return nil
	}
	old := sessions.NewSession(s.raw.Store(), s.raw.Name())
	old.ID = s.raw.ID
	opts := sessions.Options{Path: "/"}
	if s.raw.Options != nil {
		opts = *s.raw.Options
	}
	opts.MaxAge = -1
	old.Options = &opts
	if err := s.raw.Store().Save(r, w, old); err != nil {
		return fmt.Errorf("failed to discard session %s: %w", s.raw.Name(), err)
	}
	s.raw.ID = ""
	return nil
}
