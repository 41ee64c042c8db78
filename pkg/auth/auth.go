// Package auth resolves request credentials into identities and guards
// routes by role.
//
// A credential is a signed session token carried either as a Bearer
// authorization header or in the session cookie. The Resolver extracts and
// verifies it; the Guard wraps handlers that require a specific role.
package auth

import (
	"net/http"
	"strings"

	"github.com/fusionfutures/api/pkg/debug"
	"github.com/fusionfutures/api/pkg/problem"
)

// Identity represents the authenticated caller. It is immutable and scoped
// to a single request; the core never persists it.
type Identity struct {
	// Subject is the unique identifier (the caller's email).
	Subject string

	// Role determines which guarded routes the caller may use.
	Role string
}

// Verifier decodes a verified token into an identity.
type Verifier interface {
	Verify(token string) (Identity, error)
}

// Resolver extracts a session token from a request and resolves it into an
// identity. It is side-effect free.
type Resolver struct {
	verifier   Verifier
	cookieName string
}

// NewResolver creates a Resolver reading bearer tokens and the named cookie.
func NewResolver(verifier Verifier, cookieName string) *Resolver {
	return &Resolver{verifier: verifier, cookieName: cookieName}
}

// Resolve extracts a token from the Authorization header (Bearer scheme) or,
// failing that, the session cookie, and verifies it. All failure modes map
// to an unauthenticated problem; callers at this boundary do not need to
// distinguish expired from tampered tokens.
func (r *Resolver) Resolve(req *http.Request) (Identity, error) {
	raw := bearerToken(req)
	if raw == "" {
		if c, err := req.Cookie(r.cookieName); err == nil {
			raw = c.Value
		}
	}
	if raw == "" {
		return Identity{}, problem.Unauthenticated("Not authenticated")
	}

	id, err := r.verifier.Verify(raw)
	if err != nil {
		debug.Log("auth", "token verification failed", "error", err)
		return Identity{}, problem.Unauthenticated("Invalid or expired token")
	}
	debug.Log("auth", "credential resolved", "subject", id.Subject, "role", id.Role)
	return id, nil
}

// bearerToken returns the Bearer token from the Authorization header, or "".
func bearerToken(req *http.Request) string {
	header := req.Header.Get("Authorization")
	if header == "" || !strings.HasPrefix(header, "Bearer ") {
		return ""
	}
	return strings.TrimPrefix(header, "Bearer ")
}
