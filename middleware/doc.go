// Package middleware provides HTTP middleware compatible with chi and the
// standard net/http stack.
//
// Middleware composes in the usual chi order:
//
//	r := chi.NewRouter()
//	r.Use(middleware.RequestID())
//	r.Use(middleware.Logging(log))
//	r.Use(middleware.Recover(log))
//
// RequestID assigns each request a UUID available via GetRequestID, Logging
// emits one structured record per request, and Recover converts panics into
// 500 responses instead of dropped connections.
package middleware
