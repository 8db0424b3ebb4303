// Package quota gates access to external service credentials behind a
// rolling daily usage ceiling.
//
// Each tracked service holds a credential and an optional daily limit. A
// grant is an authorization to make one call: it is issued at
// credential-retrieval time, before any network cost is spent, and the usage
// counter counts grants issued rather than calls that succeeded. The counter
// rolls over lazily: the first grant attempt at least 24 hours after the
// last reset starts a fresh day, so a service that sits idle for a week
// rolls over correctly on its next use without any background timer.
//
// Basic usage:
//
//	tracker := quota.NewTracker(map[string]quota.ServiceConfig{
//		"places-service": {Credential: apiKey, DailyLimit: 1000},
//	})
//
//	credential, err := tracker.Grant("places-service")
//	switch {
//	case errors.Is(err, quota.ErrQuotaExceeded):
//		// Over today's ceiling; retry after rollover.
//	case errors.Is(err, quota.ErrServiceNotConfigured):
//		// Deployment defect; log loudly, fail generically.
//	case err == nil:
//		// Spend the credential on exactly one call.
//	}
//
// Grants are never returned: a call that is cancelled downstream has still
// consumed its grant. Credentials are never logged by this package.
package quota
