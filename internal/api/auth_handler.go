package api

import (
	"errors"
	"log/slog"
	"net/http"

	"minicms/internal/auth"
	"minicms/internal/biz"
	"minicms/internal/metrics"
	"minicms/internal/router"
	"minicms/internal/session"
)

// AuthHandler handles password and social login.
type AuthHandler struct {
	view    *View
	flow    *auth.Flow
	login   *biz.AuthUsecase
	landing string
	logger  *slog.Logger
}

// NewAuthHandler creates a new auth handler. landing is the admin path users
// are sent to after logging in.
func NewAuthHandler(view *View, flow *auth.Flow, login *biz.AuthUsecase, landing string, logger *slog.Logger) *AuthHandler {
	if logger == nil {
		logger = slog.Default()
	}
	if landing == "" {
		landing = "/"
	}
	return &AuthHandler{view: view, flow: flow, login: login, landing: landing, logger: logger}
}

// RegisterRoutes registers auth routes
func (h *AuthHandler) RegisterRoutes(rt *router.Router) {
	rt.Get("/login", h.loginForm)
	rt.Post("/login", h.passwordLogin)
	rt.Get("/logout", h.logout)
	rt.Get("/login/{provider}/callback", h.callback)
	rt.Get("/login/{provider}", h.redirect)
}

func (h *AuthHandler) loginForm(w http.ResponseWriter, r *http.Request, _ []string) {
	if sess := session.FromContext(r.Context()); sess != nil && sess.Authenticated() {
		h.view.Redirect(w, r, h.landing)
		return
	}
	h.view.Render(w, r, http.StatusOK, "admin/login", Page{
		Title: "Log in",
		Data:  h.flow.Providers().Names(),
	})
}

func (h *AuthHandler) passwordLogin(w http.ResponseWriter, r *http.Request, _ []string) {
	if err := r.ParseForm(); err != nil {
		h.view.Flash(w, r, session.FlashError, "Invalid form submission.", "/login")
		return
	}
	email := r.PostForm.Get("email")
	old := map[string]string{"email": email}

	u, err := h.login.Login(r.Context(), email, r.PostForm.Get("password"))
	if _, ok := biz.AsValidation(err); ok {
		h.view.FormError(w, r, err, old, "/login")
		return
	}
	if errors.Is(err, biz.ErrInvalidCredentials) {
		metrics.RecordPasswordLogin(false)
		h.logger.Info("password login failed", "remote_addr", r.RemoteAddr)
		h.view.FormError(w, r, biz.ValidationErrors{"Invalid email or password."}, old, "/login")
		return
	}
	if err != nil {
		h.view.ServerError(w, r, err)
		return
	}

	metrics.RecordPasswordLogin(true)
	session.FromContext(r.Context()).SetUser(u.ID, u.RoleName)
	h.logger.Info("password login succeeded", "user_id", u.ID)
	h.view.Redirect(w, r, h.landing)
}

func (h *AuthHandler) logout(w http.ResponseWriter, r *http.Request, _ []string) {
	session.FromContext(r.Context()).Clear()
	h.view.Redirect(w, r, "/login")
}

// redirect starts the OAuth flow for params[0].
func (h *AuthHandler) redirect(w http.ResponseWriter, r *http.Request, params []string) {
	authURL, err := h.flow.Begin(session.FromContext(r.Context()), params[0])
	if errors.Is(err, auth.ErrUnknownProvider) {
		h.view.Flash(w, r, session.FlashError, "Unknown login provider.", "/login")
		return
	}
	if err != nil {
		h.view.ServerError(w, r, err)
		return
	}
	if err := session.FromContext(r.Context()).Save(r, w); err != nil {
		h.view.ServerError(w, r, err)
		return
	}
	http.Redirect(w, r, authURL, http.StatusFound)
}

func (h *AuthHandler) callback(w http.ResponseWriter, r *http.Request, params []string) {
	provider := params[0]
	_, err := h.flow.Complete(r.Context(), session.FromContext(r.Context()), provider, r.URL.Query())

	switch {
	case err == nil:
		h.view.Redirect(w, r, h.landing)
	case errors.Is(err, auth.ErrStateMismatch):
		h.view.SecurityError(w, r, "oauth state mismatch")
	case errors.Is(err, auth.ErrUnknownProvider):
		h.view.Flash(w, r, session.FlashError, "Unknown login provider.", "/login")
	case errors.Is(err, auth.ErrMissingCode):
		h.logger.Info("oauth login cancelled", "provider", provider, "error", err)
		h.view.Flash(w, r, session.FlashError, "Login was cancelled.", "/login")
	case errors.Is(err, auth.ErrTokenExchange),
		errors.Is(err, auth.ErrProfileFetch),
		errors.Is(err, auth.ErrMissingProviderID):
		h.logger.Warn("oauth provider request failed", "provider", provider, "error", err)
		h.view.Flash(w, r, session.FlashError, "Could not sign in with "+provider+". Please try again.", "/login")
	case errors.Is(err, auth.ErrAccountDisabled):
		h.view.Flash(w, r, session.FlashError, "This account has been disabled.", "/login")
	default:
		h.logger.Error("failed to link oauth account", "provider", provider, "error", err)
		h.view.Flash(w, r, session.FlashError, "Sign-in failed. Please contact an administrator.", "/login")
	}
}
