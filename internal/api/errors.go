package api

import (
	"net/http"
)

// NotFound renders the 404 page for the current request path.
func (v *View) NotFound(w http.ResponseWriter, r *http.Request) {
	v.NotFoundPath(w, r, r.URL.Path)
}

// NotFoundPath is the router's not-found handler.
func (v *View) NotFoundPath(w http.ResponseWriter, r *http.Request, path string) {
	v.Render(w, r, http.StatusNotFound, "errors/404", Page{Title: "Page not found", Data: path})
}

// Forbidden renders the 403 page. It is the deny handler of the admin guard.
func (v *View) Forbidden(w http.ResponseWriter, r *http.Request) {
	v.logger.Info("forbidden", "path", r.URL.Path, "remote_addr", r.RemoteAddr)
	v.Render(w, r, http.StatusForbidden, "errors/403", Page{Title: "Forbidden"})
}

// SecurityError renders the 400 page used when a request fails a
// verification such as the OAuth state check, and writes an audit line.
func (v *View) SecurityError(w http.ResponseWriter, r *http.Request, reason string) {
	v.logger.Warn("security check failed",
		"reason", reason,
		"path", r.URL.Path,
		"remote_addr", r.RemoteAddr,
		"user_agent", r.UserAgent(),
	)
	v.Render(w, r, http.StatusBadRequest, "errors/400", Page{Title: "Security check failed", Data: v.AdminURL("/login")})
}

// ServerError logs err and renders the 500 page without exposing it.
func (v *View) ServerError(w http.ResponseWriter, r *http.Request, err error) {
	v.logger.Error("request failed", "method", r.Method, "path", r.URL.Path, "error", err)
	v.Render(w, r, http.StatusInternalServerError, "errors/500", Page{Title: "Server error"})
}
