package handler

import (
	"context"
	"net/http"
	"sort"
)

// Healthchecker reports whether a component is operational.
// The rate limiter, cache, and other lifecycle components satisfy it.
type Healthchecker interface {
	Healthcheck(ctx context.Context) error
}

type healthResponse struct {
	Status  string            `json:"status"`
	Failing map[string]string `json:"failing,omitempty"`
}

// Health returns a handler for GET /healthz that checks each named
// component. Any failure produces a 503 listing the failing components.
func Health(components map[string]Healthchecker) http.HandlerFunc {
	// Stable iteration keeps log and response ordering deterministic.
	names := make([]string, 0, len(components))
	for name := range components {
		names = append(names, name)
	}
	sort.Strings(names)

	return func(w http.ResponseWriter, r *http.Request) {
		failing := make(map[string]string)
		for _, name := range names {
			if err := components[name].Healthcheck(r.Context()); err != nil {
				failing[name] = err.Error()
			}
		}

		if len(failing) > 0 {
			respondJSON(w, http.StatusServiceUnavailable, healthResponse{
				Status:  "degraded",
				Failing: failing,
			})
			return
		}

		respondJSON(w, http.StatusOK, healthResponse{Status: "ok"})
	}
}
