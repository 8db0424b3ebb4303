// Package cache provides an in-memory TTL store, generic over the payload
// type, used to avoid repeating billed upstream calls for identical requests.
//
// Entries expire lazily on read and are additionally removed by a periodic
// sweep, so memory stays bounded even for keys that are written once and
// never read again. Both paths share a single liveness predicate and can
// never disagree about what counts as expired. Reads do not extend expiry
// (no sliding expiration) and writes overwrite unconditionally.
//
// Basic usage:
//
//	c, err := cache.New[SearchResult](5 * time.Minute)
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	c.Set("places:coffee berlin", result)
//
//	if result, ok := c.Get("places:coffee berlin"); ok {
//		// Served from cache; no upstream call, no quota spent.
//	}
//
// Run the sweep with the Start/Stop lifecycle, or Run for errgroup
// composition:
//
//	eg.Go(c.Run(ctx))
//
// Instantiate one cache per payload shape; keys are deterministic strings
// derived from request parameters by the caller.
package cache
