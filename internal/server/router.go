package server

import (
	"net/http"
	"strings"
)

// BasicRouter is a simple HTTP router implementing the [Router] interface.
//
// Uses [http.ServeMux] internally for routing, so paths may carry wildcards such as "/course/{id}".
// Middleware wraps the mux as a whole, so unmatched requests (404, 405) pass through it too.
type BasicRouter struct {
	mux         *http.ServeMux
	middlewares []Middleware
	handler     http.Handler // mux wrapped in middlewares; rebuilt by Use
}

// NewBasicRouter creates a new [BasicRouter] instance.
func NewBasicRouter() *BasicRouter {
	mux := http.NewServeMux()
	return &BasicRouter{
		mux:         mux,
		middlewares: []Middleware{},
		handler:     mux,
	}
}

// Use adds [Middleware] to the [Router] instance's middleware stack, applied in the order it's added.
func (r *BasicRouter) Use(middleware ...Middleware) {
	r.middlewares = append(r.middlewares, middleware...)
	r.handler = r.Apply(r.mux)
}

// Handle registers a handler for the specified HTTP method and path.
//
// The same path may be registered for several methods; requests with any other method get
// 405 Method Not Allowed from the mux. GET registrations also answer HEAD.
func (r *BasicRouter) Handle(method, path string, handler http.Handler) {
	r.mux.Handle(strings.ToUpper(method)+" "+path, handler)
}

// HandleFunc is [BasicRouter.Handle] for plain functions.
func (r *BasicRouter) HandleFunc(method, path string, fn http.HandlerFunc) {
	r.Handle(method, path, fn)
}

// Handler registers a custom Handler implementation.
//
// All routes returned by [Handler.Routes] are registered with this handler.
func (r *BasicRouter) Handler(handler Handler) {
	for _, route := range handler.Routes() {
		r.mux.Handle(route, handler)
	}
}

// ServeHTTP implements [http.Handler] for the entire router.
//
// Middleware must be added before the router starts serving.
func (r *BasicRouter) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.handler.ServeHTTP(w, req)
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
