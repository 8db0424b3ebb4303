package middleware

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/cityscout-app/cityscout/core/logger"
	"github.com/cityscout-app/cityscout/pkg/clientip"
)

// responseRecorder captures the status code and body size written by the
// downstream handler.
type responseRecorder struct {
	http.ResponseWriter
	status      int
	bytes       int64
	wroteHeader bool
}

func (rr *responseRecorder) WriteHeader(status int) {
	if !rr.wroteHeader {
		rr.status = status
		rr.wroteHeader = true
	}
	rr.ResponseWriter.WriteHeader(status)
}

func (rr *responseRecorder) Write(b []byte) (int, error) {
	if !rr.wroteHeader {
		rr.WriteHeader(http.StatusOK)
	}
	n, err := rr.ResponseWriter.Write(b)
	rr.bytes += int64(n)
	return n, err
}

// Logging emits one structured record per request at Info level, or Error
// level for 5xx responses.
func Logging(log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rr := &responseRecorder{ResponseWriter: w, status: http.StatusOK}

			next.ServeHTTP(rr, r)

			attrs := []any{
				logger.Method(r.Method),
				logger.Path(r.URL.Path),
				logger.StatusCode(rr.status),
				logger.Latency(time.Since(start)),
				logger.ClientIP(clientip.GetIP(r)),
				logger.RequestID(GetRequestID(r.Context())),
				slog.Int64("bytes_out", rr.bytes),
			}

			if rr.status >= http.StatusInternalServerError {
				log.Error("request failed", attrs...)
			} else {
				log.Info("request served", attrs...)
			}
		})
	}
}
