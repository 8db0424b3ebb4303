package handler

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/cityscout-app/cityscout/pkg/ratelimiter"
)

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

type errorResponse struct {
	Error string `json:"error"`
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, errorResponse{Error: message})
}

// setRateLimitHeaders reports the client's bucket state. Reset is epoch
// milliseconds so clients can schedule retries without date parsing.
func setRateLimitHeaders(w http.ResponseWriter, rl ratelimiter.Result) {
	h := w.Header()
	h.Set("X-RateLimit-Limit", strconv.Itoa(rl.Limit))
	h.Set("X-RateLimit-Remaining", strconv.Itoa(rl.Remaining))
	h.Set("X-RateLimit-Reset", strconv.FormatInt(rl.ResetAt.UnixMilli(), 10))
}

// retryAfterSeconds rounds up so a client honoring the header never retries
// inside the current window.
func retryAfterSeconds(d time.Duration) string {
	secs := int64((d + time.Second - 1) / time.Second)
	if secs < 1 {
		secs = 1
	}
	return strconv.FormatInt(secs, 10)
}
