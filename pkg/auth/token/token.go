// Package token signs and verifies opaque session tokens.
//
// Tokens are HMAC-SHA256 signed JWTs encoding the subject, role, and
// issuance time. Verification is purely computational: no network or
// storage I/O, safe for concurrent use.
package token

import (
	"errors"
	"fmt"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"

	"github.com/fusionfutures/api/pkg/auth"
)

// Error kinds callers must distinguish: an expired session should prompt
// re-login, an invalid token is hostile input.
var (
	ErrExpired = errors.New("token expired")
	ErrInvalid = errors.New("token invalid")
)

// Codec issues and verifies signed session tokens.
type Codec struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// New creates a Codec signing with the given secret. Tokens verify
// successfully for ttl after issuance and fail with ErrExpired afterwards.
func New(secret string, ttl time.Duration) *Codec {
	return &Codec{
		secret: []byte(secret),
		ttl:    ttl,
		now:    time.Now,
	}
}

// claims is the token payload.
type claims struct {
	Role string `json:"role"`
	jwtlib.RegisteredClaims
}

// Issue creates a signed token for the subject and role.
func (c *Codec) Issue(subject, role string) (string, error) {
	now := c.now()
	t := jwtlib.NewWithClaims(jwtlib.SigningMethodHS256, claims{
		Role: role,
		RegisteredClaims: jwtlib.RegisteredClaims{
			Subject:   subject,
			IssuedAt:  jwtlib.NewNumericDate(now),
			ExpiresAt: jwtlib.NewNumericDate(now.Add(c.ttl)),
		},
	})

	signed, err := t.SignedString(c.secret)
	if err != nil {
		return "", fmt.Errorf("signing token: %w", err)
	}
	return signed, nil
}

// Verify parses and validates a token, returning the identity it encodes.
// Returns ErrExpired once the validity window has elapsed, ErrInvalid for
// any signature mismatch or malformed token.
func (c *Codec) Verify(tokenStr string) (auth.Identity, error) {
	var cl claims
	_, err := jwtlib.ParseWithClaims(tokenStr, &cl,
		func(t *jwtlib.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwtlib.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
			}
			return c.secret, nil
		},
		jwtlib.WithValidMethods([]string{"HS256"}),
		jwtlib.WithTimeFunc(c.now),
	)
	if err != nil {
		if errors.Is(err, jwtlib.ErrTokenExpired) {
			return auth.Identity{}, fmt.Errorf("%w: %v", ErrExpired, err)
		}
		return auth.Identity{}, fmt.Errorf("%w: %v", ErrInvalid, err)
	}

	if cl.Subject == "" {
		return auth.Identity{}, fmt.Errorf("%w: missing subject", ErrInvalid)
	}

	role := cl.Role
	if role == "" {
		role = "user"
	}

	return auth.Identity{Subject: cl.Subject, Role: role}, nil
}
