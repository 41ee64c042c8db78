package auth

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/fusionfutures/api/pkg/problem"
)

// Issuer creates a signed session token for a subject and role.
type Issuer interface {
	Issue(subject, role string) (string, error)
}

// CookieSettings controls the session cookie written at login.
type CookieSettings struct {
	Name   string
	Domain string
	Secure bool
	MaxAge time.Duration
}

// tokenRequest is the login request body.
type tokenRequest struct {
	Email string `json:"email"`
	Role  string `json:"role"`
}

// tokenResponse is the login response body.
type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

// LoginHandler issues a session token for the posted email and role, sets
// it as an HTTP-only session cookie, and returns it as a bearer token.
func LoginHandler(issuer Issuer, cookie CookieSettings, logger *slog.Logger) http.Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req tokenRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			problem.Write(w, r, problem.InvalidRequest("Malformed request body"))
			return
		}
		if req.Email == "" {
			problem.Write(w, r, problem.InvalidRequest("email is required"))
			return
		}
		if req.Role == "" {
			req.Role = "user"
		}

		tok, err := issuer.Issue(req.Email, req.Role)
		if err != nil {
			logger.Error("issuing token", "error", err)
			problem.Write(w, r, problem.Internal("could not issue token"))
			return
		}

		http.SetCookie(w, &http.Cookie{
			Name:     cookie.Name,
			Value:    tok,
			Path:     "/",
			Domain:   cookie.Domain,
			MaxAge:   int(cookie.MaxAge.Seconds()),
			HttpOnly: true,
			Secure:   cookie.Secure,
			SameSite: http.SameSiteLaxMode,
		})

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(tokenResponse{AccessToken: tok, TokenType: "bearer"})
	})
}
