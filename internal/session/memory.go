package session

import (
	"net/http"
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/sessions"
)

// MemoryStore keeps session values in process memory, keyed by a random id
// held in the cookie. Sessions are lost on restart.
type MemoryStore struct {
	options sessions.Options

	mu   sync.Mutex
	data map[string]map[interface{}]interface{}
}

// NewMemoryStore 创建内存会话存储
func NewMemoryStore(opts sessions.Options) *MemoryStore {
	return &MemoryStore{options: opts, data: make(map[string]map[interface{}]interface{})}
}

// Get returns the cached session for the request, loading it on first use.
func (s *MemoryStore) Get(r *http.Request, name string) (*sessions.Session, error) {
	return sessions.GetRegistry(r).Get(s, name)
}

// New loads the session named by the request cookie or starts an empty one.
func (s *MemoryStore) New(r *http.Request, name string) (*sessions.Session, error) {
	session := sessions.NewSession(s, name)
	opts := s.options
	session.Options = &opts
	session.IsNew = true

	c, err := r.Cookie(name)
	if err != nil {
		return session, nil
	}

	s.mu.Lock()
	values, ok := s.data[c.Value]
	s.mu.Unlock()
	if !ok {
		return session, nil
	}

	session.ID = c.Value
	session.IsNew = false
	for k, v := range values {
		session.Values[k] = v
	}
	return session, nil
}

// Save stores the session values, or deletes them when MaxAge < 0.
func (s *MemoryStore) Save(_ *http.Request, w http.ResponseWriter, session *sessions.Session) error {
	if session.Options.MaxAge < 0 {
		if session.ID != "" {
			s.mu.Lock()
			delete(s.data, session.ID)
			s.mu.Unlock()
		}
		http.SetCookie(w, sessions.NewCookie(session.Name(), "", session.Options))
		return nil
	}

	if session.ID == "" {
		session.ID = uuid.NewString()
	}
	values := make(map[interface{}]interface{}, len(session.Values))
	for k, v := range session.Values {
		values[k] = v
	}

	s.mu.Lock()
	s.data[session.ID] = values
	s.mu.Unlock()

	http.SetCookie(w, sessions.NewCookie(session.Name(), session.ID, session.Options))
	return nil
}

// Len returns the number of stored sessions.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.data)
}
