package api

import (
	"log/slog"
	"net/http"

	"minicms/internal/auth"
	"minicms/internal/biz"
	"minicms/internal/session"
)

// Page is the data every template receives.
type Page struct {
	Title       string
	Description string
	AdminPath   string
	User        *biz.User
	IsAdmin     bool
	Success     []string
	Errors      []string
	// Old holds the previously submitted form values, falling back to the
	// defaults the handler supplied.
	Old  map[string]string
	Data any
}

// View renders pages and redirects on behalf of the handlers.
type View struct {
	renderer  *Renderer
	adminPath string
	logger    *slog.Logger
}

// NewView 创建 View
func NewView(renderer *Renderer, adminPath string, logger *slog.Logger) *View {
	if logger == nil {
		logger = slog.Default()
	}
	return &View{renderer: renderer, adminPath: adminPath, logger: logger}
}

// AdminURL returns the absolute path of an admin route.
func (v *View) AdminURL(path string) string {
	if path == "/" {
		return v.adminPath + "/"
	}
	return v.adminPath + path
}

// Render fills in the ambient page fields, drains pending flashes and old
// input from the session and writes the page.
func (v *View) Render(w http.ResponseWriter, r *http.Request, status int, name string, page Page) {
	page.AdminPath = v.adminPath
	old := page.Old
	page.Old = map[string]string{}
	for k, val := range old {
		page.Old[k] = val
	}

	if sess := session.FromContext(r.Context()); sess != nil {
		page.Success = append(page.Success, sess.Flashes(session.FlashSuccess)...)
		page.Errors = append(page.Errors, sess.Flashes(session.FlashError)...)
		for k, val := range sess.Old() {
			page.Old[k] = val
		}
		v.save(w, r, sess)
	}
	if u := auth.UserFromContext(r.Context()); u != nil {
		page.User = u
		page.IsAdmin = u.IsAdmin()
	}

	if err := v.renderer.Render(w, status, name, page); err != nil {
		v.logger.Error("failed to render page", "template", name, "error", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
	}
}

// Redirect saves the session and redirects to an admin path.
func (v *View) Redirect(w http.ResponseWriter, r *http.Request, path string) {
	if sess := session.FromContext(r.Context()); sess != nil {
		v.save(w, r, sess)
	}
	http.Redirect(w, r, v.AdminURL(path), http.StatusFound)
}

// Flash queues a message for the next page and redirects to path.
func (v *View) Flash(w http.ResponseWriter, r *http.Request, kind, msg, path string) {
	if sess := session.FromContext(r.Context()); sess != nil {
		sess.AddFlash(kind, msg)
	}
	v.Redirect(w, r, path)
}

// FormError sends validation problems back to the form at path together
// with the submitted values. Any other error is a server error.
func (v *View) FormError(w http.ResponseWriter, r *http.Request, err error, old map[string]string, path string) {
	verrs, ok := biz.AsValidation(err)
	if !ok {
		v.ServerError(w, r, err)
		return
	}
	if sess := session.FromContext(r.Context()); sess != nil {
		for _, msg := range verrs {
			sess.AddFlash(session.FlashError, msg)
		}
		if old != nil {
			sess.SetOld(old)
		}
	}
	v.Redirect(w, r, path)
}

func (v *View) save(w http.ResponseWriter, r *http.Request, sess *session.Session) {
	if err := sess.Save(r, w); err != nil {
		v.logger.Error("failed to save session", "error", err)
	}
}
