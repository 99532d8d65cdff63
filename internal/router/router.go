package router

import (
	"context"
	"net/http"
	"strings"
)

// Handler is a terminal route handler. params holds the captured
// placeholder values in template order.
type Handler func(w http.ResponseWriter, r *http.Request, params []string)

// NotFoundHandler is invoked with the normalized path when nothing matches.
type NotFoundHandler func(w http.ResponseWriter, r *http.Request, path string)

// Route is a registered (method, pattern, guards, handler) tuple. It is
// never mutated after registration.
type Route struct {
	Method  string
	pattern *Pattern
	guards  []Guard
	handler Handler
}

// Template returns the normalized template the route was registered with.
func (rt *Route) Template() string {
	return rt.pattern.String()
}

// Match is the result of a successful lookup.
type Match struct {
	Route  *Route
	Params []string
}

// Router dispatches (method, path) to the first registered matching route.
// Registration order is match priority: register specific templates before
// general ones that share a prefix.
type Router struct {
	prefix   string
	routes   map[string][]*Route
	notFound NotFoundHandler
	observe  func(method, template string)
}

// Option configures a Router.
type Option func(*Router)

// WithPrefix strips prefix from r.URL.Path in ServeHTTP before dispatching.
func WithPrefix(prefix string) Option {
	return func(rt *Router) {
		rt.prefix = strings.TrimSuffix(prefix, "/")
	}
}

// WithObserver registers a callback invoked once per dispatch with the
// matched template, or "" when nothing matched.
func WithObserver(fn func(method, template string)) Option {
	return func(rt *Router) {
		rt.observe = fn
	}
}

// New creates an empty Router.
func New(opts ...Option) *Router {
	rt := &Router{routes: make(map[string][]*Route)}
	for _, opt := range opts {
		opt(rt)
	}
	return rt
}

// Handle compiles template and appends the route to method's list. It
// panics on an invalid template, like http.ServeMux does.
func (rt *Router) Handle(method, template string, h Handler, guards ...Guard) *Route {
	route := &Route{
		Method:  strings.ToUpper(method),
		pattern: MustCompile(template),
		guards:  append([]Guard(nil), guards...),
		handler: h,
	}
	rt.routes[route.Method] = append(rt.routes[route.Method], route)
	return route
}

// Get registers a GET route.
func (rt *Router) Get(template string, h Handler, guards ...Guard) *Route {
	return rt.Handle(http.MethodGet, template, h, guards...)
}

// Post registers a POST route.
func (rt *Router) Post(template string, h Handler, guards ...Guard) *Route {
	return rt.Handle(http.MethodPost, template, h, guards...)
}

// SetNotFoundHandler replaces the fallback handler.
func (rt *Router) SetNotFoundHandler(h NotFoundHandler) {
	rt.notFound = h
}

// Lookup returns the first route registered for method whose pattern
// matches the normalized path.
func (rt *Router) Lookup(method, path string) (*Match, bool) {
	path = Normalize(path)
	for _, route := range rt.routes[strings.ToUpper(method)] {
		if params, ok := route.pattern.Match(path); ok {
			return &Match{Route: route, Params: params}, true
		}
	}
	return nil, false
}

// Dispatch normalizes path, finds the first matching route for method and
// runs its guards and handler. Panics raised by handlers are not recovered
// here.
func (rt *Router) Dispatch(w http.ResponseWriter, r *http.Request, path, method string) {
	path = Normalize(path)

	m, ok := rt.Lookup(method, path)
	if !ok {
		if rt.observe != nil {
			rt.observe(method, "")
		}
		rt.handleNotFound(w, r, path)
		return
	}
	if rt.observe != nil {
		rt.observe(method, m.Route.Template())
	}

	r = r.WithContext(withParams(r.Context(), m.Params))
	if !runGuards(m.Route.guards, w, r) {
		return
	}
	m.Route.handler(w, r, m.Params)
}

// ServeHTTP dispatches r.URL.Path (minus the configured prefix).
func (rt *Router) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	rt.Dispatch(w, r, rt.Path(r), r.Method)
}

// Path returns the request path relative to the router prefix, normalized.
func (rt *Router) Path(r *http.Request) string {
	path := r.URL.Path
	if rt.prefix != "" {
		if path == rt.prefix {
			path = "/"
		} else if strings.HasPrefix(path, rt.prefix+"/") {
			path = path[len(rt.prefix):]
		}
	}
	return Normalize(path)
}

func (rt *Router) handleNotFound(w http.ResponseWriter, r *http.Request, path string) {
	if rt.notFound != nil {
		rt.notFound(w, r, path)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusNotFound)
	_, _ = w.Write([]byte("<h1>404 - Page not found</h1>"))
}

type paramsKey struct{}

func withParams(ctx context.Context, params []string) context.Context {
	return context.WithValue(ctx, paramsKey{}, params)
}

// Params returns the captured placeholder values stored on ctx by Dispatch.
func Params(ctx context.Context) []string {
	params, _ := ctx.Value(paramsKey{}).([]string)
	return params
}
