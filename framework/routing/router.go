package routing

import (
	"net/http"
	"strings"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// Router wraps chi.Router with controller routes and a route table.
type Router struct {
	mux    chi.Router
	prefix string
	table  *table
}

// table is shared by a router and every group or prefix derived from it.
type table struct {
	mu         sync.RWMutex
	routes     []Route
	dispatcher Dispatcher
}

// New creates a Router with sane defaults (RequestID, RealIP, Recoverer).
// Request logging is mounted by the routing provider once the logger exists.
func New() *Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	return &Router{mux: r, table: &table{}}
}

// SetDispatcher sets the dispatcher that serves controller routes.
func (r *Router) SetDispatcher(d Dispatcher) {
	r.table.mu.Lock()
	defer r.table.mu.Unlock()
	r.table.dispatcher = d
}

// Routes returns a copy of every registered route, in registration order.
func (r *Router) Routes() []Route {
	r.table.mu.RLock()
	defer r.table.mu.RUnlock()
	out := make([]Route, len(r.table.routes))
	copy(out, r.table.routes)
	return out
}

// ── HTTP verbs ───────────────────────────────────────────────────────────────

func (r *Router) Get(pattern string, h http.HandlerFunc)    { r.handle(http.MethodGet, pattern, h) }
func (r *Router) Post(pattern string, h http.HandlerFunc)   { r.handle(http.MethodPost, pattern, h) }
func (r *Router) Put(pattern string, h http.HandlerFunc)    { r.handle(http.MethodPut, pattern, h) }
func (r *Router) Patch(pattern string, h http.HandlerFunc)  { r.handle(http.MethodPatch, pattern, h) }
func (r *Router) Delete(pattern string, h http.HandlerFunc) { r.handle(http.MethodDelete, pattern, h) }

// Any registers a handler for all common HTTP methods.
func (r *Router) Any(pattern string, h http.HandlerFunc) {
	for _, m := range anyMethods {
		r.handle(m, pattern, h)
	}
}

var anyMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS", "HEAD"}

func (r *Router) handle(method, pattern string, h http.HandlerFunc) {
	r.mux.Method(method, pattern, h)
	r.record(Route{Method: method, Pattern: r.prefix + pattern})
}

// ── Controller routes ────────────────────────────────────────────────────────

// Controller routes method+pattern to an action of a container-built
// controller. target is "ControllerID@Action"; the action defaults to Index.
//
//	router.Controller("GET", "/posts/{id}", "PostController@Show")
//
// It panics on a malformed target, like chi does on a malformed pattern.
func (r *Router) Controller(method, pattern, target string) {
	controller, action, err := ParseTarget(target)
	if err != nil {
		panic(err)
	}
	route := Route{
		Method:     strings.ToUpper(method),
		Pattern:    r.prefix + pattern,
		Controller: controller,
		Action:     action,
	}
	r.mux.Method(route.Method, pattern, r.dispatch(route))
	r.record(route)
}

// Resource registers standard RESTful routes for a resource controller.
//
//	GET    /photos           → Index
//	POST   /photos           → Store
//	GET    /photos/{id}      → Show
//	PUT    /photos/{id}      → Update
//	PATCH  /photos/{id}      → Update
//	DELETE /photos/{id}      → Destroy
func (r *Router) Resource(pattern, controller string) {
	r.Controller(http.MethodGet, pattern, controller+"@Index")
	r.Controller(http.MethodPost, pattern, controller+"@Store")
	r.Controller(http.MethodGet, pattern+"/{id}", controller+"@Show")
	r.Controller(http.MethodPut, pattern+"/{id}", controller+"@Update")
	r.Controller(http.MethodPatch, pattern+"/{id}", controller+"@Update")
	r.Controller(http.MethodDelete, pattern+"/{id}", controller+"@Destroy")
}

func (r *Router) dispatch(route Route) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		r.table.mu.RLock()
		d := r.table.dispatcher
		r.table.mu.RUnlock()
		if d == nil {
			http.Error(w, "no dispatcher for "+route.Controller, http.StatusInternalServerError)
			return
		}

		matched := route
		if rctx := chi.RouteContext(req.Context()); rctx != nil {
			for i, key := range rctx.URLParams.Keys {
				// "*" is the join point of mounted sub-routers
				if key == "*" || i >= len(rctx.URLParams.Values) {
					continue
				}
				matched.Params = append(matched.Params, rctx.URLParams.Values[i])
			}
		}
		d.Dispatch(w, req, matched)
	}
}

func (r *Router) record(route Route) {
	r.table.mu.Lock()
	defer r.table.mu.Unlock()
	r.table.routes = append(r.table.routes, route)
}

// ── Groups & Prefixes ────────────────────────────────────────────────────────

// Group creates an inline group sharing the parent's prefix.
func (r *Router) Group(fn func(r *Router)) {
	r.mux.Group(func(mx chi.Router) {
		fn(&Router{mux: mx, prefix: r.prefix, table: r.table})
	})
}

// Prefix creates a sub-router with a URL prefix.
func (r *Router) Prefix(pattern string, fn func(r *Router)) {
	r.mux.Route(pattern, func(mx chi.Router) {
		fn(&Router{mux: mx, prefix: r.prefix + pattern, table: r.table})
	})
}

// ── Middleware ───────────────────────────────────────────────────────────────

// Middleware adds one or more middleware to the router.
func (r *Router) Middleware(mw ...func(http.Handler) http.Handler) {
	r.mux.Use(mw...)
}

// ── Static files ─────────────────────────────────────────────────────────────

// Static serves a filesystem at the given prefix.
// e.g. router.Static("/public", "./public")
func (r *Router) Static(prefix, dir string) {
	fs := http.StripPrefix(r.prefix+prefix, http.FileServer(http.Dir(dir)))
	r.handle(http.MethodGet, prefix+"/*", func(w http.ResponseWriter, req *http.Request) {
		fs.ServeHTTP(w, req)
	})
}

// Mount attaches a plain handler under pattern, e.g. the metrics endpoint.
func (r *Router) Mount(pattern string, h http.Handler) {
	r.mux.Handle(pattern, h)
	r.record(Route{Method: "*", Pattern: r.prefix + pattern})
}

// ── Params ───────────────────────────────────────────────────────────────────

// Param extracts a URL param by name.
func Param(r *http.Request, key string) string {
	return chi.URLParam(r, key)
}

// ── Serve ────────────────────────────────────────────────────────────────────

// ServeHTTP implements http.Handler so Router can be passed to http.ListenAndServe.
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.mux.ServeHTTP(w, req)
}

// Handler returns the underlying http.Handler (for testing etc.).
func (r *Router) Handler() http.Handler {
	return r.mux
}
