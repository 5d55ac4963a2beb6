// Package server provides HTTP routing, middleware, and the sync API surface.
//
// # Router Infrastructure
//
// The [Router] interface defines HTTP routing with middleware support.
//
// [Middleware] wraps handlers in reverse order (last added executes first), following the standard Go pattern.
//
// The [BasicRouter] implementation uses [http.ServeMux] with method-qualified patterns.
//
// # Handlers
//
// Custom handlers implement the [Handler] interface, which wraps the stdlib handler interface and adds routes,
// allowing handlers to register multiple routes to encapsulate route definitions within the implementation.
//
// [SyncHandler] exposes the sync engine over POST /api/playlists/sync; [HealthHandler] serves GET /health.
// Request logging and panic recovery are provided as middleware.
package server
