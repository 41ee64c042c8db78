package transport

import (
	"errors"
	"log/slog"
	"net"
	"net/http"
	"strconv"

	"github.com/fusionfutures/api/pkg/observability"
	"github.com/fusionfutures/api/pkg/problem"
	"github.com/fusionfutures/api/pkg/ratelimit"
)

// RateLimit returns middleware that counts each request against the
// client's quota before it reaches the route table. Exceeding the cap
// produces a 429 problem envelope with a Retry-After hint. The client key
// is the request's remote address.
func RateLimit(limiter ratelimit.Limiter, logger *slog.Logger) Middleware {
	if logger == nil {
		logger = slog.Default()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if err := limiter.Allow(r.Context(), clientKey(r)); err != nil {
				var le *ratelimit.LimitError
				if errors.As(err, &le) {
					logger.Warn("rate limit exceeded",
						"remote_addr", r.RemoteAddr,
						"request_id", RequestIDFromContext(r.Context()),
					)
					observability.RateLimitRejectedTotal.Inc()

					retry := int(le.RetryAfter.Seconds())
					if retry < 1 {
						retry = 1
					}
					w.Header().Set("Retry-After", strconv.Itoa(retry))
					problem.Write(w, r, problem.RateLimited(le.Error()))
					return
				}
				// A limiter failure is not the client's fault; let the
				// request through.
				logger.Warn("rate limiter error", "error", err)
			}
			next.ServeHTTP(w, r)
		})
	}
}

// clientKey derives the rate-limit bucket key from the request's network
// address.
func clientKey(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
