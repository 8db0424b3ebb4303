// Package clientip extracts real client IP addresses from HTTP requests.
//
// It handles common proxy headers in priority order to determine the actual
// client address, which the rate limiter depends on for identifier
// derivation behind proxies, load balancers, or CDNs.
//
// Headers are checked in this order:
//  1. CF-Connecting-IP (Cloudflare)
//  2. DO-Connecting-IP (DigitalOcean)
//  3. X-Forwarded-For (leftmost entry, the original client)
//  4. X-Real-IP (nginx and other proxies)
//  5. RemoteAddr (direct connection)
//
// Every candidate is parsed and normalized; invalid strings and the
// unspecified addresses 0.0.0.0 and :: are rejected and the next source is
// tried. IPv6 addresses are returned in canonical form.
package clientip
