package transport

import (
	"log/slog"
	"net/http"
	"time"
)

// Audit returns middleware that emits one structured audit record per
// request: method, path, final status, duration in milliseconds, and the
// request's correlation ID. It wraps the full downstream chain, so the
// status it observes is the one that actually left the pipeline, including
// statuses produced by the recovery and problem layers.
func Audit(logger *slog.Logger) Middleware {
	if logger == nil {
		logger = slog.Default()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			sw := &auditWriter{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(sw, r)

			logger.LogAttrs(r.Context(), slog.LevelInfo, "request",
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.Int("status", sw.status),
				slog.Float64("duration_ms", float64(time.Since(start).Microseconds())/1000),
				slog.String("request_id", RequestIDFromContext(r.Context())),
			)
		})
	}
}

// auditWriter wraps http.ResponseWriter to capture the final status code.
type auditWriter struct {
	http.ResponseWriter
	status  int
	written bool
}

func (w *auditWriter) WriteHeader(status int) {
	if !w.written {
		w.status = status
		w.written = true
	}
	w.ResponseWriter.WriteHeader(status)
}

func (w *auditWriter) Write(b []byte) (int, error) {
	if !w.written {
		w.written = true
	}
	return w.ResponseWriter.Write(b)
}

// Unwrap returns the underlying ResponseWriter for http.NewResponseController.
func (w *auditWriter) Unwrap() http.ResponseWriter {
	return w.ResponseWriter
}
