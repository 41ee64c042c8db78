// Package csrf implements double-submit cookie CSRF protection.
//
// A random token is set as a script-readable cookie and must be echoed by
// the client in a request header. A forged cross-site request cannot read
// the cookie to echo it, so the pair only matches for same-origin callers.
package csrf

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"net/http"

	"github.com/fusionfutures/api/pkg/debug"
	"github.com/fusionfutures/api/pkg/problem"
)

// tokenBytes is the entropy of an issued token before encoding.
const tokenBytes = 32

// Guard issues and verifies double-submit token pairs.
type Guard struct {
	cookieName string
	headerName string
	domain     string
	secure     bool
}

// New creates a Guard with the given cookie and header names.
func New(cookieName, headerName, domain string, secure bool) *Guard {
	return &Guard{
		cookieName: cookieName,
		headerName: headerName,
		domain:     domain,
		secure:     secure,
	}
}

// Issue generates a fresh random token and writes it as a cookie on the
// response. The cookie is deliberately not HTTP-only: client code must be
// able to read it back to echo it as a header.
func (g *Guard) Issue(w http.ResponseWriter) (string, error) {
	buf := make([]byte, tokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generating csrf token: %w", err)
	}
	token := base64.RawURLEncoding.EncodeToString(buf)

	http.SetCookie(w, &http.Cookie{
		Name:     g.cookieName,
		Value:    token,
		Path:     "/",
		Domain:   g.domain,
		HttpOnly: false,
		Secure:   g.secure,
		SameSite: http.SameSiteLaxMode,
	})
	return token, nil
}

// Verify checks that the request carries both halves of the token pair and
// that they are byte-equal.
func (g *Guard) Verify(r *http.Request) error {
	cookie, err := r.Cookie(g.cookieName)
	if err != nil || cookie.Value == "" {
		return problem.CSRFRejected("CSRF validation failed")
	}
	header := r.Header.Get(g.headerName)
	if header == "" {
		return problem.CSRFRejected("CSRF validation failed")
	}
	if subtle.ConstantTimeCompare([]byte(cookie.Value), []byte(header)) != 1 {
		return problem.CSRFRejected("CSRF validation failed")
	}
	return nil
}

// Protect returns middleware rejecting requests that fail Verify. Apply it
// to state-mutating routes only, after authentication and authorization.
func (g *Guard) Protect(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := g.Verify(r); err != nil {
			debug.Log("csrf", "token pair rejected", "path", r.URL.Path)
			problem.Write(w, r, err)
			return
		}
		next.ServeHTTP(w, r)
	})
}
