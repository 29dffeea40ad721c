package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// BasicRouter is an HTTP router implementing the [Router] interface.
//
// Uses [chi.Mux] internally for routing and URL parameters.
type BasicRouter struct {
	mux         *chi.Mux
	middlewares []Middleware
}

// NewBasicRouter creates a new [BasicRouter] instance with JSON 404 and 405 responses.
func NewBasicRouter() *BasicRouter {
	mux := chi.NewRouter()
	mux.NotFound(NotFound)
	mux.MethodNotAllowed(MethodNotAllowed)

	return &BasicRouter{
		mux:         mux,
		middlewares: []Middleware{},
	}
}

// Use adds [Middleware] to the [Router] instance's middleware stack, applied in the order it's added.
//
// Middleware wraps handlers at registration, so it must be added before routes.
func (r *BasicRouter) Use(middleware ...Middleware) {
	r.middlewares = append(r.middlewares, middleware...)
}

// Handle registers a handler for the specified HTTP method and path.
//
// The handler is wrapped with all registered middleware.
func (r *BasicRouter) Handle(method, path string, handler http.Handler) {
	r.mux.Method(method, path, r.Apply(handler))
}

// Handler mounts a custom [Handler] implementation under prefix.
//
// All routes returned by [Handler.Routes] are registered on a sub-router, each wrapped with the middleware stack.
// Unmatched paths below prefix answer with the JSON not found body.
func (r *BasicRouter) Handler(prefix string, handler Handler) {
	r.mux.Route(prefix, func(sub chi.Router) {
		sub.NotFound(NotFound)
		sub.MethodNotAllowed(MethodNotAllowed)

		for _, route := range handler.Routes() {
			sub.Method(route.Method, route.Pattern, r.Apply(route.Handler))
		}
	})
}

// ServeHTTP implements [http.Handler] for the entire router.
func (r *BasicRouter) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.mux.ServeHTTP(w, req)
}

// Apply wraps a handler with all registered middleware.
//
// Middleware is applied in reverse order (last added wraps first).
func (r *BasicRouter) Apply(handler http.Handler) http.Handler {
	wrapped := handler

	for i := len(r.middlewares) - 1; i >= 0; i-- {
		wrapped = r.middlewares[i](wrapped)
	}

	return wrapped
}

// NotFound answers unknown paths.
func NotFound(w http.ResponseWriter, _ *http.Request) {
	WriteError(w, http.StatusNotFound, "Not found")
}

// MethodNotAllowed answers known paths requested with the wrong method.
func MethodNotAllowed(w http.ResponseWriter, _ *http.Request) {
	WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
}
