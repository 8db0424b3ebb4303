// Package handler implements the HTTP surface of the service: the chat and
// place-search proxy endpoints, health and metrics endpoints, and the mapping
// from admission outcomes to HTTP statuses.
//
// Every proxied response carries X-RateLimit-Limit, X-RateLimit-Remaining,
// and X-RateLimit-Reset headers (reset as epoch milliseconds). Rate-limit
// denials map to 429 with Retry-After; quota-layer denials map to a single
// generic 503 regardless of cause; upstream failures map to 502.
package handler
