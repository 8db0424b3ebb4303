package middleware

import (
	"log/slog"
	"net/http"
	"runtime"

	"github.com/cityscout-app/cityscout/core/logger"
)

// Recover converts panics in downstream handlers into 500 responses and logs
// the panic value with a stack trace.
func Recover(log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					const size = 64 << 10
					buf := make([]byte, size)
					buf = buf[:runtime.Stack(buf, false)]

					log.Error("panic recovered",
						slog.Any("panic", rec),
						logger.Method(r.Method),
						logger.Path(r.URL.Path),
						logger.RequestID(GetRequestID(r.Context())),
						slog.String("stack", string(buf)),
					)

					w.Header().Set("Content-Type", "application/json; charset=utf-8")
					w.WriteHeader(http.StatusInternalServerError)
					w.Write([]byte(`{"error":"internal server error"}`))
				}
			}()

			next.ServeHTTP(w, r)
		})
	}
}
