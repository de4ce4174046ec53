// Package server provides HTTP routing, middleware, and the server lifecycle used by the web catalog.
//
// # Router Infrastructure
//
// The [Router] interface defines HTTP routing with middleware support.
//
// [Middleware] added with [BasicRouter.Use] wraps the whole mux, first added outermost, so it also sees
// requests that match no route.
//
// The [BasicRouter] implementation registers "METHOD /path" patterns on an [http.ServeMux], which gives
// path wildcards and 405 responses for free.
//
// # Middleware
//
//   - [RequestID] tags each request and response with an X-Request-ID
//   - [Logger] writes one structured log line per request
//   - [Recover] converts panics into 500 responses
//   - [Timeout] puts a deadline on the request context
//
// # Lifecycle
//
// [Server] serves until its context is cancelled (normally by SIGINT/SIGTERM in the CLI), then calls
// [http.Server.Shutdown] with a bounded timeout so in-flight requests can finish.
//
// # Handler Interface
//
// Custom handlers implement the [Handler] interface, which wraps the stdlib handler interface and adds routes,
// allowing handlers to register multiple routes to encapsulate route definitions within the implementation.
package server
