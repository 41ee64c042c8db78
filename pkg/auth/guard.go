package auth

import (
	"log/slog"
	"net/http"

	"github.com/fusionfutures/api/pkg/problem"
)

// Guard wraps handlers that require an authenticated identity with a
// specific role. Role matching is exact; there is no hierarchy.
type Guard struct {
	resolver *Resolver
	logger   *slog.Logger
}

// NewGuard creates a Guard using the given resolver.
func NewGuard(resolver *Resolver, logger *slog.Logger) *Guard {
	if logger == nil {
		logger = slog.Default()
	}
	return &Guard{resolver: resolver, logger: logger}
}

// RequireRole returns middleware that resolves the request's identity,
// rejects it when the role does not exactly equal required, and otherwise
// injects the identity into the request context. No business logic behind
// this middleware runs without a role-matching identity.
func (g *Guard) RequireRole(required string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id, err := g.resolver.Resolve(r)
			if err != nil {
				g.logger.Warn("authentication failed",
					"path", r.URL.Path,
					"remote_addr", r.RemoteAddr,
				)
				problem.Write(w, r, err)
				return
			}

			if id.Role != required {
				g.logger.Warn("role check failed",
					"path", r.URL.Path,
					"subject", id.Subject,
					"role", id.Role,
					"required", required,
				)
				problem.Write(w, r, problem.Forbidden("Insufficient role"))
				return
			}

			next.ServeHTTP(w, r.WithContext(SetIdentity(r.Context(), id)))
		})
	}
}
