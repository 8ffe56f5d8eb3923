// Package http provides the HTTP server and routing layer.
package http

import (
	"net/http"
)

// Middleware wraps an http.Handler, following the standard net/http
// middleware pattern.
type Middleware func(http.Handler) http.Handler

// Router abstracts HTTP routing so handlers do not depend on the
// underlying mux implementation.
type Router interface {
	GET(path string, handler http.HandlerFunc, middlewares ...Middleware)
	POST(path string, handler http.HandlerFunc, middlewares ...Middleware)
	PUT(path string, handler http.HandlerFunc, middlewares ...Middleware)
	DELETE(path string, handler http.HandlerFunc, middlewares ...Middleware)

	// Group creates a route group with a path prefix. Group middleware
	// applies to every route registered inside the group.
	Group(prefix string, fn func(Router), middlewares ...Middleware)

	// Use adds middleware applying to all subsequent routes.
	Use(middlewares ...Middleware)

	// Handler returns the http.Handler for use with http.Server.
	Handler() http.Handler
}

// Chain applies middlewares to a handler; the first middleware in the
// list is the outermost.
func Chain(handler http.Handler, middlewares ...Middleware) http.Handler {
	for i := len(middlewares) - 1; i >= 0; i-- {
		handler = middlewares[i](handler)
	}
	return handler
}
