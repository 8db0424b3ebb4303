package admission

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/cityscout-app/cityscout/pkg/metrics"
	"github.com/cityscout-app/cityscout/pkg/quota"
	"github.com/cityscout-app/cityscout/pkg/ratelimiter"
)

// RateLimiter admits or denies a request for a client identifier.
// *ratelimiter.Limiter satisfies this interface.
type RateLimiter interface {
	Check(identifier string) ratelimiter.Result
}

// Granter issues credentials against a service's daily quota.
// *quota.Tracker satisfies this interface.
type Granter interface {
	Grant(serviceID string) (string, error)
}

// Store is the response cache surface the pipeline needs.
// *cache.Cache[V] satisfies this interface.
type Store[V any] interface {
	Get(key string) (V, bool)
	Set(key string, value V)
}

// CallFunc performs the outbound call using the granted credential.
type CallFunc[V any] func(ctx context.Context, credential string) (V, error)

// Result is the outcome of an admitted request.
type Result[V any] struct {
	Value     V
	FromCache bool
	RateLimit ratelimiter.Result
}

// Pipeline applies the admission sequence for one external service.
type Pipeline[V any] struct {
	service string
	limiter RateLimiter
	granter Granter
	store   Store[V] // nil for non-cacheable operations

	logger  *slog.Logger
	metrics *metrics.Metrics
}

// Option configures a Pipeline.
type Option[V any] func(*Pipeline[V])

// WithStore enables response caching for the pipeline's operations.
func WithStore[V any](store Store[V]) Option[V] {
	return func(p *Pipeline[V]) {
		p.store = store
	}
}

// WithLogger sets the logger for internal denials.
func WithLogger[V any](logger *slog.Logger) Option[V] {
	return func(p *Pipeline[V]) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// WithMetrics enables Prometheus instrumentation.
func WithMetrics[V any](m *metrics.Metrics) Option[V] {
	return func(p *Pipeline[V]) {
		p.metrics = m
	}
}

// New creates an admission pipeline for the named external service.
func New[V any](service string, limiter RateLimiter, granter Granter, opts ...Option[V]) (*Pipeline[V], error) {
	if service == "" {
		return nil, errors.New("service name is required")
	}
	if limiter == nil {
		return nil, errors.New("rate limiter is required")
	}
	if granter == nil {
		return nil, errors.New("quota granter is required")
	}

	p := &Pipeline[V]{
		service: service,
		limiter: limiter,
		granter: granter,
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
	}

	for _, opt := range opts {
		opt(p)
	}

	return p, nil
}

// Do runs one request through the admission sequence and, when admitted,
// through the outbound call. cacheKey may be empty to bypass the cache for a
// single request; the cache is skipped entirely when the pipeline has no
// store. The returned Result always carries the rate-limit state so the
// caller can set response headers.
func (p *Pipeline[V]) Do(ctx context.Context, clientID, cacheKey string, call CallFunc[V]) (Result[V], error) {
	rl := p.limiter.Check(clientID)
	res := Result[V]{RateLimit: rl}

	if !rl.Allowed {
		p.metrics.RateLimitDenied(p.service)
		return res, &RateLimitError{Result: rl}
	}

	cacheable := p.store != nil && cacheKey != ""
	if cacheable {
		if value, ok := p.store.Get(cacheKey); ok {
			p.metrics.CacheHit(p.service)
			res.Value = value
			res.FromCache = true
			return res, nil
		}
		p.metrics.CacheMiss(p.service)
	}

	credential, err := p.granter.Grant(p.service)
	if err != nil {
		// The two denial causes are logged with different severity but
		// surfaced identically: a missing credential is a deployment defect,
		// an exhausted quota is routine.
		switch {
		case errors.Is(err, quota.ErrServiceNotConfigured):
			p.metrics.QuotaDenied(p.service, "unconfigured")
			p.logger.ErrorContext(ctx, "grant denied, service not configured",
				slog.String("service", p.service))
		case errors.Is(err, quota.ErrQuotaExceeded):
			p.metrics.QuotaDenied(p.service, "exhausted")
			p.logger.WarnContext(ctx, "grant denied, daily quota exhausted",
				slog.String("service", p.service))
		default:
			p.metrics.QuotaDenied(p.service, "other")
			p.logger.ErrorContext(ctx, "grant denied",
				slog.String("service", p.service),
				slog.Any("error", err))
		}
		return res, ErrServiceUnavailable
	}

	value, err := call(ctx, credential)
	p.metrics.UpstreamCall(p.service, err)
	if err != nil {
		// The token and the grant stay spent.
		return res, fmt.Errorf("upstream call to %s: %w", p.service, err)
	}

	if cacheable {
		p.store.Set(cacheKey, value)
	}

	res.Value = value
	return res, nil
}
