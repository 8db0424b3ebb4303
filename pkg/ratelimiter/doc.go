// Package ratelimiter provides per-identifier token bucket rate limiting
// with window-granular refill.
//
// Each identifier owns a bucket of tokens. A bucket starts full, one token
// is consumed per admitted request, and the bucket is refilled back to
// capacity only when at least one whole window has elapsed since the last
// refill. This allows short bursts up to the capacity while enforcing the
// configured average rate, and makes the limiter's behavior deterministic
// and easy to test: bursts recover at window boundaries, not continuously.
//
// Basic usage:
//
//	limiter, err := ratelimiter.New(ratelimiter.Config{
//		Capacity: 100,         // 100 requests
//		Window:   time.Minute, // per minute
//	})
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	result := limiter.Check("client-id")
//	if !result.Allowed {
//		// Deny with 429; result.ResetAt tells the client when to retry.
//		return
//	}
//
// Buckets are created lazily on first use and removed by a periodic sweep
// once they have been idle for at least two windows. Run the sweep with the
// Start/Stop lifecycle, or Run for errgroup composition:
//
//	eg.Go(limiter.Run(ctx))
//
// The limiter never fails a check: an unknown identifier is always treated
// as a full bucket.
package ratelimiter
