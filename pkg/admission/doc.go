// Package admission composes the rate limiter, response cache, and daily
// quota tracker into the fixed sequencing rule every proxied request goes
// through before an outbound call is made.
//
// The order is deliberate and never varies:
//
//  1. Rate limiter check — cheapest and most abuse-relevant, so it runs
//     first. A denial short-circuits everything: no cache lookup, no quota
//     grant, no upstream call.
//  2. Cache lookup (cacheable operations only) — runs before the quota
//     check so a cache hit never counts against the daily ceiling.
//  3. Quota grant — issued immediately before the expensive upstream call.
//  4. Upstream call, then cache fill on success.
//
// Once a token is consumed or a grant issued it is not returned, even if
// the upstream call is cancelled or fails.
//
// The pipeline accepts its collaborators as narrow interfaces so handlers
// can be exercised with call-counting stubs; the concrete ratelimiter,
// cache, and quota types satisfy them directly.
package admission
