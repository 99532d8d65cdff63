package session

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"minicms/internal/conf"

	"github.com/gorilla/sessions"
)

// NewStore builds the configured gorilla session store.
func NewStore(cfg conf.Session) (sessions.Store, error) {
	opts := sessions.Options{
		Path:     "/",
		MaxAge:   cfg.MaxAge,
		Secure:   cfg.Secure,
		HttpOnly: true,
		// Lax so the provider's redirect back to the callback carries the cookie.
		SameSite: http.SameSiteLaxMode,
	}

	switch cfg.Store {
	case "cookie":
		s := sessions.NewCookieStore([]byte(cfg.Secret))
		s.Options = &opts
		s.MaxAge(cfg.MaxAge)
		return s, nil
	case "filesystem":
		s := sessions.NewFilesystemStore(cfg.Path, []byte(cfg.Secret))
		s.Options = &opts
		s.MaxAge(cfg.MaxAge)
		// the default 4096 byte limit is for cookies; values live on disk here
		s.MaxLength(0)
		return s, nil
	case "memory":
		return NewMemoryStore(opts), nil
	default:
		return nil, fmt.Errorf("unknown session store %q", cfg.Store)
	}
}

type ctxKey struct{}

// Manager loads sessions from a store under a fixed cookie name.
type Manager struct {
	store  sessions.Store
	name   string
	logger *slog.Logger
}

// NewManager 创建会话管理器
func NewManager(store sessions.Store, name string, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{store: store, name: name, logger: logger}
}

// Load returns the request's session. An unreadable cookie (tampered, or
// signed with a rotated secret) yields a fresh session.
func (m *Manager) Load(r *http.Request) *Session {
	raw, err := m.store.Get(r, m.name)
	if err != nil {
		m.logger.Warn("discarding unreadable session", "error", err, "remote_addr", r.RemoteAddr)
	}
	if raw == nil {
		raw = sessions.NewSession(m.store, m.name)
		raw.IsNew = true
		if o, ok := storeOptions(m.store); ok {
			opts := *o
			raw.Options = &opts
		}
	}
	return Wrap(raw)
}

// Middleware puts the session into the request context.
func (m *Manager) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		next.ServeHTTP(w, r.WithContext(NewContext(r.Context(), m.Load(r))))
	})
}

// NewContext returns ctx carrying s.
func NewContext(ctx context.Context, s *Session) context.Context {
	return context.WithValue(ctx, ctxKey{}, s)
}

// FromContext returns the session stored by Middleware, or nil.
func FromContext(ctx context.Context) *Session {
	s, _ := ctx.Value(ctxKey{}).(*Session)
	return s
}

func storeOptions(store sessions.Store) (*sessions.Options, bool) {
	switch s := store.(type) {
	case *sessions.CookieStore:
		return s.Options, true
	case *sessions.FilesystemStore:
		return s.Options, true
	case *MemoryStore:
		return &s.options, true
	}
	return nil, false
}
