package quota

import (
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"
)

// resetPeriod is the rollover interval for daily usage counters.
const resetPeriod = 24 * time.Hour

// ServiceConfig declares one tracked external service.
type ServiceConfig struct {
	// Credential is the secret used to call the service. Never logged.
	Credential string
	// DailyLimit caps grants per rolling day; zero means unlimited.
	DailyLimit int
}

// serviceState is the mutable usage record for one service.
type serviceState struct {
	credential string
	dailyLimit int
	usageCount int
	lastReset  time.Time
}

// UsageStats is a read-only snapshot of a service's usage.
type UsageStats struct {
	Count     int       // Grants issued since the last rollover
	Limit     int       // Configured daily limit; meaningful only when Limited
	Remaining int       // Limit minus Count; meaningful only when Limited
	Limited   bool      // Whether a daily limit is configured
	LastReset time.Time // When the counter last rolled over
}

// Tracker manages per-service daily usage counters and credential grants.
// Safe for concurrent use.
type Tracker struct {
	mu       sync.Mutex
	services map[string]*serviceState

	logger *slog.Logger
	now    func() time.Time
}

// Option configures a Tracker.
type Option func(*Tracker)

// WithLogger sets the logger for internal operations.
func WithLogger(logger *slog.Logger) Option {
	return func(t *Tracker) {
		if logger != nil {
			t.logger = logger
		}
	}
}

// WithTimeSource overrides the wall clock. Intended for deterministic tests.
func WithTimeSource(now func() time.Time) Option {
	return func(t *Tracker) {
		if now != nil {
			t.now = now
		}
	}
}

// NewTracker creates a tracker for the given services. Services with an
// empty credential are skipped and will deny grants as not configured;
// that is a deployment defect worth noticing, so it is logged.
func NewTracker(services map[string]ServiceConfig, opts ...Option) *Tracker {
	t := &Tracker{
		services: make(map[string]*serviceState, len(services)),
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
		now:      time.Now,
	}

	for _, opt := range opts {
		opt(t)
	}

	now := t.now()
	for id, cfg := range services {
		if cfg.Credential == "" {
			t.logger.Warn("service registered without credential, grants will be denied",
				slog.String("service", id))
			continue
		}
		t.services[id] = &serviceState{
			credential: cfg.Credential,
			dailyLimit: cfg.DailyLimit,
			lastReset:  now,
		}
	}

	return t
}

// Grant authorizes one call against the service's daily ceiling and returns
// its credential. The usage counter is incremented on success and counts
// grants issued, not calls completed: a grant is never returned, even if the
// downstream call is cancelled.
func (t *Tracker) Grant(serviceID string) (string, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	s, exists := t.services[serviceID]
	if !exists {
		return "", fmt.Errorf("%w: %s", ErrServiceNotConfigured, serviceID)
	}

	t.resetIfNeeded(s)

	if s.dailyLimit > 0 && s.usageCount >= s.dailyLimit {
		return "", fmt.Errorf("%w: %s", ErrQuotaExceeded, serviceID)
	}

	s.usageCount++
	return s.credential, nil
}

// Stats returns a usage snapshot for the service without issuing a grant.
// The pending rollover, if any, is reflected in the snapshot but not applied.
func (t *Tracker) Stats(serviceID string) (UsageStats, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	s, exists := t.services[serviceID]
	if !exists {
		return UsageStats{}, fmt.Errorf("%w: %s", ErrServiceNotConfigured, serviceID)
	}

	stats := UsageStats{
		Count:     s.usageCount,
		LastReset: s.lastReset,
	}
	if t.now().Sub(s.lastReset) >= resetPeriod {
		stats.Count = 0
	}
	if s.dailyLimit > 0 {
		stats.Limited = true
		stats.Limit = s.dailyLimit
		stats.Remaining = max(0, s.dailyLimit-stats.Count)
	}

	return stats, nil
}

// resetIfNeeded rolls the usage counter over once the reset period has
// elapsed. Checked lazily on every grant attempt; an idle service rolls
// over on its next use no matter how many periods were missed.
func (t *Tracker) resetIfNeeded(s *serviceState) {
	now := t.now()
	if now.Sub(s.lastReset) >= resetPeriod {
		s.usageCount = 0
		s.lastReset = now
	}
}
