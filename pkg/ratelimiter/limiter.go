package ratelimiter

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

// bucket represents the token bucket state for a single identifier.
type bucket struct {
	tokens     int
	lastRefill time.Time
}

// Config defines a traffic class: at most Capacity admitted requests per Window.
type Config struct {
	Capacity int           `env:"CAPACITY" envDefault:"60"`
	Window   time.Duration `env:"WINDOW" envDefault:"1m"`
}

// Validate checks that the configuration is usable.
func (c Config) Validate() error {
	if c.Capacity <= 0 {
		return fmt.Errorf("%w: got %d", ErrInvalidCapacity, c.Capacity)
	}
	if c.Window <= 0 {
		return fmt.Errorf("%w: got %s", ErrInvalidWindow, c.Window)
	}
	return nil
}

// Result reports the outcome of a single admission check.
type Result struct {
	Allowed    bool
	Limit      int           // Configured capacity of the bucket
	Remaining  int           // Tokens left after this check
	ResetAt    time.Time     // When the bucket next refills to capacity
	RetryAfter time.Duration // How long to wait before retrying; zero when allowed
}

// Limiter is an in-memory token bucket rate limiter keyed by identifier.
// Safe for concurrent use.
type Limiter struct {
	mu      sync.Mutex
	buckets map[string]*bucket

	capacity int
	window   time.Duration

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
	bucketsCreated atomic.Int64
	bucketsRemoved atomic.Int64
}

// Stats provides observability metrics for monitoring and debugging.
type Stats struct {
	BucketsCreated int64 // Total number of buckets created
	BucketsRemoved int64 // Total number of idle buckets removed
	ActiveBuckets  int   // Current number of tracked identifiers
	IsRunning      bool  // Whether the cleanup goroutine is running
}

// Option configures a Limiter.
type Option func(*Limiter)

// WithCleanupInterval sets how often the idle-bucket sweep runs.
func WithCleanupInterval(interval time.Duration) Option {
	return func(l *Limiter) {
		if interval > 0 {
			l.cleanupInterval = interval
		}
	}
}

// WithShutdownTimeout sets the graceful shutdown timeout for the sweep.
func WithShutdownTimeout(timeout time.Duration) Option {
	return func(l *Limiter) {
		if timeout > 0 {
			l.shutdownTimeout = timeout
		}
	}
}

// WithLogger sets the logger for internal operations.
func WithLogger(logger *slog.Logger) Option {
	return func(l *Limiter) {
		if logger != nil {
			l.logger = logger
		}
	}
}

// WithTimeSource overrides the wall clock. Intended for deterministic tests.
func WithTimeSource(now func() time.Time) Option {
	return func(l *Limiter) {
		if now != nil {
			l.now = now
		}
	}
}

// New creates a rate limiter for a single traffic class.
// Call Start() (or compose Run() into an errgroup) to begin the idle-bucket sweep.
func New(cfg Config, opts ...Option) (*Limiter, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	l := &Limiter{
		buckets:         make(map[string]*bucket),
		capacity:        cfg.Capacity,
		window:          cfg.Window,
		cleanupInterval: cfg.Window,
		shutdownTimeout: 30 * time.Second,
		logger:          slog.New(slog.NewTextHandler(io.Discard, nil)),
		now:             time.Now,
	}

	for _, opt := range opts {
		opt(l)
	}

	return l, nil
}

// Check admits or denies one request for the given identifier, consuming a
// token when allowed. An identifier that has never been seen starts with a
// full bucket, so its first check is always allowed.
func (l *Limiter) Check(identifier string) Result {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	b, exists := l.buckets[identifier]

	if !exists {
		b = &bucket{
			tokens:     l.capacity,
			lastRefill: now,
		}
		l.buckets[identifier] = b
		l.bucketsCreated.Add(1)
	} else if now.Sub(b.lastRefill) >= l.window {
		// Refill happens only at whole-window granularity. The per-window
		// refill equals the capacity, so one elapsed window always restores
		// the bucket to full.
		b.tokens = l.capacity
		b.lastRefill = now
	}

	res := Result{
		Limit:   l.capacity,
		ResetAt: b.lastRefill.Add(l.window),
	}

	if b.tokens > 0 {
		b.tokens--
		res.Allowed = true
		res.Remaining = b.tokens
		return res
	}

	if wait := res.ResetAt.Sub(now); wait > 0 {
		res.RetryAfter = wait
	}
	return res
}

// Info reports the current state for an identifier without consuming a token
// or mutating refill state. Unseen identifiers report a full bucket.
func (l *Limiter) Info(identifier string) Result {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	b, exists := l.buckets[identifier]
	if !exists {
		return Result{
			Allowed:   true,
			Limit:     l.capacity,
			Remaining: l.capacity,
			ResetAt:   now.Add(l.window),
		}
	}

	tokens := b.tokens
	if now.Sub(b.lastRefill) >= l.window {
		tokens = l.capacity
	}

	return Result{
		Allowed:   tokens > 0,
		Limit:     l.capacity,
		Remaining: tokens,
		ResetAt:   b.lastRefill.Add(l.window),
	}
}

// Reset removes the bucket for an identifier. The next check for it behaves
// as if the identifier had never been seen.
func (l *Limiter) Reset(identifier string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	delete(l.buckets, identifier)
}

// Cleanup removes buckets that have been idle for at least two windows and
// returns the number of buckets removed. It is invoked by the background
// sweep but may also be called directly.
func (l *Limiter) Cleanup() int {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	staleThreshold := 2 * l.window

	removed := 0
	for identifier, b := range l.buckets {
		if now.Sub(b.lastRefill) >= staleThreshold {
			delete(l.buckets, identifier)
			removed++
		}
	}

	if removed > 0 {
		l.bucketsRemoved.Add(int64(removed))
	}
	return removed
}

// Start begins the background idle-bucket sweep. This is a blocking operation
// that runs until the context is cancelled. Use Run() for errgroup pattern or
// call this in a goroutine.
func (l *Limiter) Start(ctx context.Context) error {
	l.mu.Lock()
	if l.cancel != nil {
		l.mu.Unlock()
		return fmt.Errorf("rate limiter already started")
	}

	l.ctx, l.cancel = context.WithCancel(ctx)
	l.mu.Unlock()

	l.running.Store(true)
	defer l.running.Store(false)

	l.logger.InfoContext(l.ctx, "rate limiter cleanup started",
		slog.Duration("cleanup_interval", l.cleanupInterval),
		slog.Int("capacity", l.capacity),
		slog.Duration("window", l.window))

	ticker := time.NewTicker(l.cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-l.ctx.Done():
			l.logger.InfoContext(context.Background(), "rate limiter cleanup stopping")
			return l.ctx.Err()
		case <-ticker.C:
			l.cleanupWithWait()
		}
	}
}

// Stop gracefully shuts down the background sweep with a timeout.
// Returns an error if the shutdown timeout is exceeded.
func (l *Limiter) Stop() error {
	l.mu.Lock()
	if l.cancel == nil {
		l.mu.Unlock()
		return fmt.Errorf("rate limiter not started")
	}

	cancel := l.cancel
	l.cancel = nil
	l.mu.Unlock()

	cancel()

	ctx, ctxCancel := context.WithTimeout(context.Background(), l.shutdownTimeout)
	defer ctxCancel()

	done := make(chan struct{})
	go func() {
		l.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		l.logger.InfoContext(context.Background(), "rate limiter stopped cleanly")
		return nil
	case <-ctx.Done():
		l.logger.WarnContext(context.Background(), "rate limiter shutdown timeout exceeded",
			slog.Duration("timeout", l.shutdownTimeout))
		return fmt.Errorf("shutdown timeout exceeded after %s", l.shutdownTimeout)
	}
}

// Run provides errgroup compatibility for coordinated lifecycle management.
// Returns a function that starts the sweep, monitors context cancellation,
// and performs graceful shutdown when the context is cancelled.
func (l *Limiter) Run(ctx context.Context) func() error {
	return func() error {
		errCh := make(chan error, 1)
		go func() {
			errCh <- l.Start(ctx)
		}()

		select {
		case <-ctx.Done():
			_ = l.Stop() // Ignore stop error in normal shutdown
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
func (l *Limiter) cleanupWithWait() {
	l.mu.Lock()
	if l.cancel == nil {
		l.mu.Unlock()
		return
	}
	l.wg.Add(1)
	l.mu.Unlock()

	defer l.wg.Done()
	l.Cleanup()
}

// Stats returns current limiter statistics for observability and monitoring.
// This method is thread-safe and can be called at any time.
func (l *Limiter) Stats() Stats {
	l.mu.Lock()
	isRunning := l.cancel != nil
	activeBuckets := len(l.buckets)
	l.mu.Unlock()

	return Stats{
		BucketsCreated: l.bucketsCreated.Load(),
		BucketsRemoved: l.bucketsRemoved.Load(),
		ActiveBuckets:  activeBuckets,
		IsRunning:      isRunning,
	}
}

// Healthcheck validates that the limiter's background sweep is operational.
// Returns nil if healthy, or an error describing the health issue.
func (l *Limiter) Healthcheck(ctx context.Context) error {
	if !l.Stats().IsRunning {
		return fmt.Errorf("rate limiter cleanup is not running")
	}
	return nil
}
