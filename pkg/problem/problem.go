// Package problem defines the wire error format for the API: an RFC 7807
// problem-details envelope plus the typed error kinds the guards and
// middleware raise. Every non-2xx response is rendered through this package
// so clients see exactly one error shape.
package problem

import (
	"encoding/json"
	"errors"
	"net/http"
)

// typeBase prefixes the type URI of every problem kind.
const typeBase = "https://fusionfutures.dev/problems/"

// Problem is both the wire envelope and the error value carried between a
// guard and the translation point. Instance is filled in when the problem
// is written to a response.
type Problem struct {
	Type     string `json:"type"`
	Title    string `json:"title"`
	Status   int    `json:"status"`
	Detail   string `json:"detail"`
	Instance string `json:"instance,omitempty"`
}

// Error implements the error interface.
func (p *Problem) Error() string {
	return p.Title + ": " + p.Detail
}

// Is reports kind equality so callers can match with errors.Is against the
// exported prototypes below.
func (p *Problem) Is(target error) bool {
	t, ok := target.(*Problem)
	return ok && t.Type == p.Type
}

// Prototypes for errors.Is matching. Compare against these, construct with
// the functions below.
var (
	ErrUnauthenticated = &Problem{Type: typeBase + "unauthenticated", Status: http.StatusUnauthorized}
	ErrForbidden       = &Problem{Type: typeBase + "forbidden", Status: http.StatusForbidden}
	ErrCSRF            = &Problem{Type: typeBase + "csrf-rejected", Status: http.StatusForbidden}
	ErrRateLimited     = &Problem{Type: typeBase + "rate-limit", Status: http.StatusTooManyRequests}
	ErrConflict        = &Problem{Type: typeBase + "conflict", Status: http.StatusConflict}
	ErrNotFound        = &Problem{Type: typeBase + "not-found", Status: http.StatusNotFound}
	ErrInternal        = &Problem{Type: typeBase + "internal-error", Status: http.StatusInternalServerError}
	ErrInvalidRequest  = &Problem{Type: typeBase + "invalid-request", Status: http.StatusBadRequest}
)

// Unauthenticated reports a missing, invalid, or expired credential.
func Unauthenticated(detail string) *Problem {
	return &Problem{Type: ErrUnauthenticated.Type, Title: "Not authenticated", Status: http.StatusUnauthorized, Detail: detail}
}

// Forbidden reports a valid credential that lacks the required role.
func Forbidden(detail string) *Problem {
	return &Problem{Type: ErrForbidden.Type, Title: "Insufficient role", Status: http.StatusForbidden, Detail: detail}
}

// CSRFRejected reports a missing or mismatched double-submit token pair.
func CSRFRejected(detail string) *Problem {
	return &Problem{Type: ErrCSRF.Type, Title: "CSRF validation failed", Status: http.StatusForbidden, Detail: detail}
}

// RateLimited reports an exceeded request quota.
func RateLimited(detail string) *Problem {
	return &Problem{Type: ErrRateLimited.Type, Title: "Rate limit exceeded", Status: http.StatusTooManyRequests, Detail: detail}
}

// Conflict reports a domain-level duplicate.
func Conflict(detail string) *Problem {
	return &Problem{Type: ErrConflict.Type, Title: "Conflict", Status: http.StatusConflict, Detail: detail}
}

// NotFound reports a missing resource.
func NotFound(detail string) *Problem {
	return &Problem{Type: ErrNotFound.Type, Title: "Not found", Status: http.StatusNotFound, Detail: detail}
}

// Internal reports an unanticipated failure. The detail is the failure's
// message only; stack traces never reach the wire.
func Internal(detail string) *Problem {
	return &Problem{Type: ErrInternal.Type, Title: "Internal server error", Status: http.StatusInternalServerError, Detail: detail}
}

// InvalidRequest reports a malformed request body or parameter.
func InvalidRequest(detail string) *Problem {
	return &Problem{Type: ErrInvalidRequest.Type, Title: "Invalid request", Status: http.StatusBadRequest, Detail: detail}
}

// From coerces any error into a Problem. Non-Problem errors become Internal
// with the error's message as detail.
func From(err error) *Problem {
	var p *Problem
	if errors.As(err, &p) {
		return p
	}
	return Internal(err.Error())
}

// Write renders err as a problem envelope on w, filling Instance from the
// request URL. It is the single translation point between internal error
// kinds and the wire format.
func Write(w http.ResponseWriter, r *http.Request, err error) {
	p := From(err)

	// Copy so concurrent requests never share an envelope.
	out := *p
	if r != nil {
		out.Instance = r.URL.String()
	}

	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(out.Status)
	json.NewEncoder(w).Encode(&out)
}
