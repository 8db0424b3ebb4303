package cache

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"
)

// ErrInvalidTTL is returned when a cache is constructed with a non-positive default TTL.
var ErrInvalidTTL = errors.New("default TTL must be positive")

// entry holds a stored value with its expiry bounds.
type entry[V any] struct {
	value     V
	createdAt time.Time
	expiresAt time.Time
}

// Cache is an in-memory TTL store for values of type V.
// Safe for concurrent use.
type Cache[V any] struct {
	mu      sync.Mutex
	entries map[string]entry[V]

	defaultTTL time.Duration

	// Configuration
	cleanupInterval time.Duration
	shutdownTimeout time.Duration
	logger          *slog.Logger
	now             func() time.Time

	// State management
	ctx     context.Context
	cancel  context.CancelFunc
	running atomic.Bool
	wg      sync.WaitGroup

	// Observability metrics
	hits    atomic.Int64
	misses  atomic.Int64
	expired atomic.Int64
}

// Stats provides observability metrics for monitoring and debugging.
type Stats struct {
	Hits      int64 // Reads served from a live entry
	Misses    int64 // Reads that found no live entry
	Expired   int64 // Entries removed because their TTL elapsed
	Entries   int   // Raw entry count, including expired-but-unswept entries
	IsRunning bool  // Whether the sweep goroutine is running
}

// Option configures a Cache.
type Option[V any] func(*Cache[V])

// WithCleanupInterval sets how often the expired-entry sweep runs.
func WithCleanupInterval[V any](interval time.Duration) Option[V] {
	return func(c *Cache[V]) {
		if interval > 0 {
			c.cleanupInterval = interval
		}
	}
}

// WithShutdownTimeout sets the graceful shutdown timeout for the sweep.
func WithShutdownTimeout[V any](timeout time.Duration) Option[V] {
	return func(c *Cache[V]) {
		if timeout > 0 {
			c.shutdownTimeout = timeout
		}
	}
}

// WithLogger sets the logger for internal operations.
func WithLogger[V any](logger *slog.Logger) Option[V] {
	return func(c *Cache[V]) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithTimeSource overrides the wall clock. Intended for deterministic tests.
func WithTimeSource[V any](now func() time.Time) Option[V] {
	return func(c *Cache[V]) {
		if now != nil {
			c.now = now
		}
	}
}

// New creates a TTL cache with the given default TTL.
// Call Start() (or compose Run() into an errgroup) to begin the periodic sweep.
func New[V any](defaultTTL time.Duration, opts ...Option[V]) (*Cache[V], error) {
	if defaultTTL <= 0 {
		return nil, fmt.Errorf("%w: got %s", ErrInvalidTTL, defaultTTL)
	}

	c := &Cache[V]{
		entries:         make(map[string]entry[V]),
		defaultTTL:      defaultTTL,
		cleanupInterval: time.Minute,
		shutdownTimeout: 30 * time.Second,
		logger:          slog.New(slog.NewTextHandler(io.Discard, nil)),
		now:             time.Now,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c, nil
}

// isLive reports whether an entry is still readable at the given instant.
// The read path and the sweep both use this predicate.
func isLive[V any](e entry[V], now time.Time) bool {
	return !now.After(e.expiresAt)
}

// Set stores a value under key with the default TTL, overwriting any
// existing entry unconditionally.
func (c *Cache[V]) Set(key string, value V) {
	c.SetTTL(key, value, c.defaultTTL)
}

// SetTTL stores a value under key with an explicit TTL, overwriting any
// existing entry unconditionally.
func (c *Cache[V]) SetTTL(key string, value V, ttl time.Duration) {
	if ttl <= 0 {
		ttl = c.defaultTTL
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	c.entries[key] = entry[V]{
		value:     value,
		createdAt: now,
		expiresAt: now.Add(ttl),
	}
}

// Get returns the value stored under key. Reading an expired entry deletes
// it and reports a miss. A hit does not extend the entry's expiry.
func (c *Cache[V]) Get(key string) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, exists := c.entries[key]
	if !exists {
		c.misses.Add(1)
		var zero V
		return zero, false
	}

	if !isLive(e, c.now()) {
		delete(c.entries, key)
		c.expired.Add(1)
		c.misses.Add(1)
		var zero V
		return zero, false
	}

	c.hits.Add(1)
	return e.value, true
}

// Has reports whether a live entry exists for key, with the same
// expired-entry deletion side effect as Get.
func (c *Cache[V]) Has(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, exists := c.entries[key]
	if !exists {
		return false
	}

	if !isLive(e, c.now()) {
		delete(c.entries, key)
		c.expired.Add(1)
		return false
	}

	return true
}

// Delete removes the entry for key, expired or not.
func (c *Cache[V]) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.entries, key)
}

// Clear removes all entries.
func (c *Cache[V]) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	clear(c.entries)
}

// Len returns the raw entry count, including entries that have expired but
// have not yet been read or swept.
func (c *Cache[V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return len(c.entries)
}

// Cleanup removes all expired entries and returns the number removed.
// It is invoked by the background sweep but may also be called directly.
func (c *Cache[V]) Cleanup() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	removed := 0
	for key, e := range c.entries {
		if !isLive(e, now) {
			delete(c.entries, key)
			removed++
		}
	}

	if removed > 0 {
		c.expired.Add(int64(removed))
	}
	return removed
}

// Start begins the background expired-entry sweep. This is a blocking
// operation that runs until the context is cancelled. Use Run() for errgroup
// pattern or call this in a goroutine.
func (c *Cache[V]) Start(ctx context.Context) error {
	c.mu.Lock()
	if c.cancel != nil {
		c.mu.Unlock()
		return fmt.Errorf("cache already started")
	}

	c.ctx, c.cancel = context.WithCancel(ctx)
	c.mu.Unlock()

	c.running.Store(true)
	defer c.running.Store(false)

	c.logger.InfoContext(c.ctx, "cache cleanup started",
		slog.Duration("cleanup_interval", c.cleanupInterval),
		slog.Duration("default_ttl", c.defaultTTL))

	ticker := time.NewTicker(c.cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-c.ctx.Done():
			c.logger.InfoContext(context.Background(), "cache cleanup stopping")
			return c.ctx.Err()
		case <-ticker.C:
			c.cleanupWithWait()
		}
	}
}

// Stop gracefully shuts down the background sweep with a timeout.
// Returns an error if the shutdown timeout is exceeded.
func (c *Cache[V]) Stop() error {
	c.mu.Lock()
	if c.cancel == nil {
		c.mu.Unlock()
		return fmt.Errorf("cache not started")
	}

	cancel := c.cancel
	c.cancel = nil
	c.mu.Unlock()

	cancel()

	ctx, ctxCancel := context.WithTimeout(context.Background(), c.shutdownTimeout)
	defer ctxCancel()

	done := make(chan struct{})
	go func() {
		c.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		c.logger.InfoContext(context.Background(), "cache stopped cleanly")
		return nil
	case <-ctx.Done():
		c.logger.WarnContext(context.Background(), "cache shutdown timeout exceeded",
			slog.Duration("timeout", c.shutdownTimeout))
		return fmt.Errorf("shutdown timeout exceeded after %s", c.shutdownTimeout)
	}
}

// Run provides errgroup compatibility for coordinated lifecycle management.
// Returns a function that starts the sweep, monitors context cancellation,
// and performs graceful shutdown when the context is cancelled.
func (c *Cache[V]) Run(ctx context.Context) func() error {
	return func() error {
		errCh := make(chan error, 1)
		go func() {
			errCh <- c.Start(ctx)
		}()

		select {
		case <-ctx.Done():
			_ = c.Stop() // Ignore stop error in normal shutdown
			<-errCh      // Wait for Start() to exit
			return nil
		case err := <-errCh:
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return nil
			}
			return err
		}
	}
}

// cleanupWithWait wraps Cleanup with WaitGroup tracking for graceful shutdown.
func (c *Cache[V]) cleanupWithWait() {
	c.mu.Lock()
	if c.cancel == nil {
		c.mu.Unlock()
		return
	}
	c.wg.Add(1)
	c.mu.Unlock()

	defer c.wg.Done()
	c.Cleanup()
}

// Stats returns current cache statistics for observability and monitoring.
// This method is thread-safe and can be called at any time.
func (c *Cache[V]) Stats() Stats {
	c.mu.Lock()
	isRunning := c.cancel != nil
	entries := len(c.entries)
	c.mu.Unlock()

	return Stats{
		Hits:      c.hits.Load(),
		Misses:    c.misses.Load(),
		Expired:   c.expired.Load(),
		Entries:   entries,
		IsRunning: isRunning,
	}
}

// Healthcheck validates that the cache's background sweep is operational.
// Returns nil if healthy, or an error describing the health issue.
func (c *Cache[V]) Healthcheck(ctx context.Context) error {
	if !c.Stats().IsRunning {
		return fmt.Errorf("cache cleanup is not running")
	}
	return nil
}
