package auth

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"minicms/internal/biz"
	"minicms/internal/router"
	"minicms/internal/session"
)

// UserLookup loads the session's user on every gated request.
type UserLookup interface {
	FindByID(ctx context.Context, id int64) (*biz.User, error)
}

// Gate loads the session and lets only authenticated users past, except for
// the login pages.
type Gate struct {
	sessions *session.Manager
	users    UserLookup
	prefix   string
	public   map[string]bool
	logger   *slog.Logger
}

// NewGate builds the gate for the area mounted at prefix. The login page
// and each configured provider's login and callback paths are public.
func NewGate(sessions *session.Manager, users UserLookup, prefix string, providers []string, logger *slog.Logger) *Gate {
	if logger == nil {
		logger = slog.Default()
	}
	public := map[string]bool{"/login": true}
	for _, name := range providers {
		public[router.Normalize("/login/"+name)] = true
		public[router.Normalize("/login/"+name+"/callback")] = true
	}
	return &Gate{
		sessions: sessions,
		users:    users,
		prefix:   strings.TrimSuffix(prefix, "/"),
		public:   public,
		logger:   logger,
	}
}

// Public reports whether the normalized path is reachable without a login.
func (g *Gate) Public(path string) bool {
	return g.public[router.Normalize(path)]
}

// Middleware enforces the gate. Unauthenticated requests are redirected to
// the login page without reaching next.
func (g *Gate) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess := g.sessions.Load(r)
		ctx := session.NewContext(r.Context(), sess)
		r = r.WithContext(ctx)

		if g.Public(strings.TrimPrefix(r.URL.Path, g.prefix)) {
			next.ServeHTTP(w, r)
			return
		}
		if !sess.Authenticated() {
			g.redirectToLogin(w, r)
			return
		}

		if g.users != nil {
			u, err := g.users.FindByID(ctx, sess.UserID())
			switch {
			case errors.Is(err, biz.ErrUserNotFound) || (err == nil && !u.Active):
				g.logger.Info("ending session of removed or disabled user", "user_id", sess.UserID())
				sess.Clear()
				if err := sess.Save(r, w); err != nil {
					g.logger.Error("failed to save session", "error", err)
				}
				g.redirectToLogin(w, r)
				return
			case err != nil:
				g.logger.Error("failed to load session user", "user_id", sess.UserID(), "error", err)
				http.Error(w, "internal server error", http.StatusInternalServerError)
				return
			}
			r = r.WithContext(WithUser(ctx, u))
		}
		next.ServeHTTP(w, r)
	})
}

func (g *Gate) redirectToLogin(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, g.prefix+"/login", http.StatusFound)
}

// RequireAdmin is a route guard that lets only administrators through. deny
// writes the refusal.
func RequireAdmin(deny http.HandlerFunc) router.Guard {
	return func(w http.ResponseWriter, r *http.Request) bool {
		if IsAdmin(r.Context()) {
			return true
		}
		deny(w, r)
		return false
	}
}

// IsAdmin reports whether the request belongs to an administrator. The user
// loaded by the gate wins over the role cached in the session.
func IsAdmin(ctx context.Context) bool {
	if u := UserFromContext(ctx); u != nil {
		return u.IsAdmin()
	}
	if sess := session.FromContext(ctx); sess != nil {
		return sess.Role() == biz.RoleAdmin
	}
	return false
}
