package quota

import "errors"

// Package-level error definitions for quota operations. Both grant denials
// are expected outcomes the caller must branch on, not exceptional failures.
var (
	ErrServiceNotConfigured = errors.New("service not configured")
	ErrQuotaExceeded        = errors.New("daily quota exceeded")
)
