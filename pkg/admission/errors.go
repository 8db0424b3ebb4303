package admission

import (
	"fmt"
	"time"

	"github.com/cityscout-app/cityscout/pkg/ratelimiter"
)

// ErrServiceUnavailable is returned for every quota-layer denial. Whether the
// service was over its daily ceiling or simply not configured is logged
// internally but deliberately not distinguishable from this error; the HTTP
// layer maps it to a single generic 503.
type serviceUnavailableError struct{}

func (serviceUnavailableError) Error() string { return "service temporarily unavailable" }

var ErrServiceUnavailable error = serviceUnavailableError{}

// RateLimitError reports a denial by the per-client rate limiter. It carries
// the limiter result so the HTTP layer can emit a 429 with limit, remaining,
// and reset headers.
type RateLimitError struct {
	Result ratelimiter.Result
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("rate limit exceeded, retry in %s", e.Result.RetryAfter.Round(time.Millisecond))
}
