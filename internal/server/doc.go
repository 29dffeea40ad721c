// Package server provides HTTP routing, middleware and the server lifecycle for the dashboard API.
//
// # Router Infrastructure
//
// The [Router] interface defines HTTP routing with middleware support.
//
// [Middleware] wraps handlers in reverse order (last added executes first), following the standard Go pattern.
// Middleware is applied when a route is registered, so [BasicRouter.Use] must be called first.
//
// The [BasicRouter] implementation uses [chi.Mux] internally. Route patterns accept chi URL parameters
// ("/getArtistById/{id}"), read by handlers with chi.URLParam.
//
// # Handler Interface
//
// Custom handlers implement the [Handler] interface and return their [Route] list,
// allowing a group of endpoints to be mounted under one prefix ("/api/artist", "/api/content").
//
// # Errors
//
// Unmatched paths answer 404 with {"success": false, "message": "Not found"}; [WriteError] produces the same
// envelope for handler failures.
//
// # Lifecycle
//
// [Serve] listens until its context is cancelled (SIGINT/SIGTERM in the CLI), then drains in-flight requests.
package server
