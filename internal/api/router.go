package api

import (
	"net/http"
	"strings"

	"minicms/internal/auth"
	"minicms/internal/metrics"
	"minicms/internal/router"

	"github.com/gorilla/mux"
	"github.com/spf13/afero"
)

// Handlers groups the page handlers mounted by NewRouter.
type Handlers struct {
	Auth      *AuthHandler
	Dashboard *DashboardHandler
	Posts     *PostHandler
	Users     *UserHandler
	Roles     *RoleHandler
	Media     *MediaHandler
	Blog      *BlogHandler
}

// RouterConfig holds what NewRouter needs besides the handlers.
type RouterConfig struct {
	AdminPath     string
	UploadsPrefix string
	Uploads       afero.Fs
	DB            Pinger
}

// NewRouter 创建路由并注册所有 handler
func NewRouter(cfg RouterConfig, view *View, gate *auth.Gate, h Handlers) *mux.Router {
	r := mux.NewRouter()
	r.NotFoundHandler = http.HandlerFunc(view.NotFound)

	// Health check and metrics (public, no auth)
	r.HandleFunc("/health", HealthCheckHandler(cfg.DB)).Methods(http.MethodGet)
	r.Handle("/metrics", metrics.Handler()).Methods(http.MethodGet)

	uploads := "/" + strings.Trim(cfg.UploadsPrefix, "/")
	r.PathPrefix(uploads + "/").Handler(http.StripPrefix(uploads, uploadsHandler(cfg.Uploads))).Methods(http.MethodGet, http.MethodHead)

	// Admin area: everything below the prefix goes through the gate and
	// then the admin router.
	admin := NewAdminRouter(cfg.AdminPath, view, h)
	gated := gate.Middleware(admin)
	r.Handle(cfg.AdminPath, gated)
	r.PathPrefix(cfg.AdminPath + "/").Handler(gated)

	// Public blog
	h.Blog.RegisterRoutes(r)

	return r
}

// NewAdminRouter registers every admin route. Routes that change users,
// roles or media, and post deletion, sit behind the admin guard.
func NewAdminRouter(prefix string, view *View, h Handlers) *router.Router {
	rt := router.New(router.WithPrefix(prefix), router.WithObserver(metrics.RecordDispatch))
	rt.SetNotFoundHandler(view.NotFoundPath)

	requireAdmin := auth.RequireAdmin(view.Forbidden)
	h.Auth.RegisterRoutes(rt)
	h.Dashboard.RegisterRoutes(rt)
	h.Posts.RegisterRoutes(rt, requireAdmin)
	h.Users.RegisterRoutes(rt, requireAdmin)
	h.Roles.RegisterRoutes(rt, requireAdmin)
	h.Media.RegisterRoutes(rt, requireAdmin)
	return rt
}

// uploadsHandler serves files from the upload directory without directory
// listings.
func uploadsHandler(fsys afero.Fs) http.Handler {
	files := http.FileServer(afero.NewHttpFs(fsys).Dir("."))
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "" || strings.HasSuffix(r.URL.Path, "/") {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("X-Content-Type-Options", "nosniff")
		files.ServeHTTP(w, r)
	})
}
