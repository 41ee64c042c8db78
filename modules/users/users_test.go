package users

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/fusionfutures/api/pkg/auth"
	"github.com/fusionfutures/api/pkg/auth/token"
	"github.com/fusionfutures/api/pkg/csrf"
	"github.com/fusionfutures/api/pkg/module"
	"github.com/fusionfutures/api/pkg/storage"
	"github.com/fusionfutures/api/pkg/storage/memory"
)

type harness struct {
	store *memory.Store
	codec *token.Codec
	csrf  *csrf.Guard
	mux   *http.ServeMux
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	store := memory.New()
	codec := token.New("test-secret", time.Hour)
	resolver := auth.NewResolver(codec, "fusion_auth")
	guard := auth.NewGuard(resolver, nil)
	csrfGuard := csrf.New("fusion_csrf", "X-CSRF-Token", "", false)

	registry := module.NewRegistry()
	if err := registry.Register(context.Background(), New(store, guard, csrfGuard)); err != nil {
		t.Fatalf("registering module: %v", err)
	}
	mux := http.NewServeMux()
	registry.Apply(mux)

	return &harness{store: store, codec: codec, csrf: csrfGuard, mux: mux}
}

func (h *harness) authorize(t *testing.T, req *http.Request, role string) {
	t.Helper()
	tok, err := h.codec.Issue("admin@example.com", role)
	if err != nil {
		t.Fatalf("issuing token: %v", err)
	}
	req.Header.Set("Authorization", "Bearer "+tok)
}

func (h *harness) withCSRF(t *testing.T, req *http.Request) {
	t.Helper()

	rec := httptest.NewRecorder()
	tok, err := h.csrf.Issue(rec)
	if err != nil {
		t.Fatalf("issuing csrf token: %v", err)
	}
	for _, c := range rec.Result().Cookies() {
		req.AddCookie(c)
	}
	req.Header.Set("X-CSRF-Token", tok)
}

func TestList_RequiresAdmin(t *testing.T) {
	tests := []struct {
		name string
		role string
		want int
	}{
		{"unauthenticated", "", http.StatusUnauthorized},
		{"non-admin", "user", http.StatusForbidden},
		{"admin", "admin", http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t)

			req := httptest.NewRequest("GET", "/users", nil)
			if tt.role != "" {
				h.authorize(t, req, tt.role)
			}
			rec := httptest.NewRecorder()
			h.mux.ServeHTTP(rec, req)

			if rec.Code != tt.want {
				t.Errorf("status = %d, want %d", rec.Code, tt.want)
			}
		})
	}
}

func TestList_ReturnsUsers(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	h.store.CreateUser(ctx, storage.User{ID: "u1", Email: "alice@example.com", Role: "admin"})
	h.store.CreateUser(ctx, storage.User{ID: "u2", Email: "bob@example.com", Role: "user"})

	req := httptest.NewRequest("GET", "/users", nil)
	h.authorize(t, req, "admin")
	rec := httptest.NewRecorder()
	h.mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var users []storage.User
	if err := json.NewDecoder(rec.Body).Decode(&users); err != nil {
		t.Fatalf("decoding body: %v", err)
	}
	if len(users) != 2 {
		t.Fatalf("users = %d, want 2", len(users))
	}
	if users[0].Email != "alice@example.com" || users[1].Email != "bob@example.com" {
		t.Errorf("users out of insertion order: %+v", users)
	}
}

func TestList_EmptyReturnsEmptyArray(t *testing.T) {
	h := newHarness(t)

	req := httptest.NewRequest("GET", "/users", nil)
	h.authorize(t, req, "admin")
	rec := httptest.NewRecorder()
	h.mux.ServeHTTP(rec, req)

	if got := strings.TrimSpace(rec.Body.String()); got != "[]" {
		t.Errorf("body = %s, want empty array, not null", got)
	}
}

func TestCreate_Succeeds(t *testing.T) {
	h := newHarness(t)

	req := httptest.NewRequest("POST", "/users", strings.NewReader(`{"id":"u3","email":"carol@example.com","role":"admin"}`))
	h.authorize(t, req, "admin")
	h.withCSRF(t, req)

	rec := httptest.NewRecorder()
	h.mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	var user storage.User
	if err := json.NewDecoder(rec.Body).Decode(&user); err != nil {
		t.Fatalf("decoding body: %v", err)
	}
	if user.ID != "u3" || user.Email != "carol@example.com" || user.Role != "admin" {
		t.Errorf("created user = %+v", user)
	}
}

func TestCreate_DefaultsRoleToUser(t *testing.T) {
	h := newHarness(t)

	req := httptest.NewRequest("POST", "/users", strings.NewReader(`{"id":"u4","email":"dave@example.com"}`))
	h.authorize(t, req, "admin")
	h.withCSRF(t, req)

	rec := httptest.NewRecorder()
	h.mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var user storage.User
	if err := json.NewDecoder(rec.Body).Decode(&user); err != nil {
		t.Fatalf("decoding body: %v", err)
	}
	if user.Role != "user" {
		t.Errorf("role = %q, want default \"user\"", user.Role)
	}
}

func TestCreate_RequiresCSRF(t *testing.T) {
	h := newHarness(t)

	req := httptest.NewRequest("POST", "/users", strings.NewReader(`{"id":"u5","email":"eve@example.com"}`))
	h.authorize(t, req, "admin")

	rec := httptest.NewRecorder()
	h.mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusForbidden {
		t.Errorf("status = %d, want 403", rec.Code)
	}
}

func TestCreate_DuplicateID(t *testing.T) {
	h := newHarness(t)
	h.store.CreateUser(context.Background(), storage.User{ID: "u6", Email: "frank@example.com"})

	req := httptest.NewRequest("POST", "/users", strings.NewReader(`{"id":"u6","email":"other@example.com"}`))
	h.authorize(t, req, "admin")
	h.withCSRF(t, req)

	rec := httptest.NewRecorder()
	h.mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusConflict {
		t.Fatalf("status = %d, want 409", rec.Code)
	}
	var envelope struct {
		Detail string `json:"detail"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&envelope); err != nil {
		t.Fatalf("decoding envelope: %v", err)
	}
	if envelope.Detail != "User already exists" {
		t.Errorf("detail = %q", envelope.Detail)
	}
}

func TestCreate_InvalidBody(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"malformed JSON", `{`},
		{"missing id", `{"email":"x@example.com"}`},
		{"missing email", `{"id":"u7"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t)

			req := httptest.NewRequest("POST", "/users", strings.NewReader(tt.body))
			h.authorize(t, req, "admin")
			h.withCSRF(t, req)

			rec := httptest.NewRecorder()
			h.mux.ServeHTTP(rec, req)

			if rec.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want 400", rec.Code)
			}
		})
	}
}
