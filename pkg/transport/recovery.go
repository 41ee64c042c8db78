package transport

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/fusionfutures/api/pkg/problem"
)

// Recovery returns middleware that catches panics in the downstream chain
// and converts them to a 500 problem envelope. The panic value's message
// becomes the detail; stack traces go to the log, never to the wire. The
// server continues to accept new requests after a panic is recovered.
func Recovery(logger *slog.Logger) Middleware {
	if logger == nil {
		logger = slog.Default()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					logger.Error("handler panicked",
						"panic", rec,
						"path", r.URL.Path,
						"request_id", RequestIDFromContext(r.Context()),
					)
					problem.Write(w, r, problem.Internal(fmt.Sprint(rec)))
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}
