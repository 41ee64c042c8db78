// Package users contributes admin-only user management endpoints.
package users

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/fusionfutures/api/pkg/auth"
	"github.com/fusionfutures/api/pkg/csrf"
	"github.com/fusionfutures/api/pkg/module"
	"github.com/fusionfutures/api/pkg/problem"
	"github.com/fusionfutures/api/pkg/storage"
)

// Module serves the /users routes.
type Module struct {
	store storage.Store
	guard *auth.Guard
	csrf  *csrf.Guard
}

// New creates the users module.
func New(store storage.Store, guard *auth.Guard, csrfGuard *csrf.Guard) *Module {
	return &Module{store: store, guard: guard, csrf: csrfGuard}
}

// Name identifies the module.
func (m *Module) Name() string { return "users" }

// Routes returns the module's route table. Both routes require the admin
// role; the state-changing create additionally requires a CSRF token pair.
func (m *Module) Routes() []module.Route {
	adminOnly := m.guard.RequireRole("admin")
	return []module.Route{
		{Method: http.MethodGet, Path: "/users", Handler: adminOnly(http.HandlerFunc(m.handleList))},
		{Method: http.MethodPost, Path: "/users", Handler: adminOnly(m.csrf.Protect(http.HandlerFunc(m.handleCreate)))},
	}
}

// createRequest is the create request body.
type createRequest struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

func (m *Module) handleList(w http.ResponseWriter, r *http.Request) {
	users, err := m.store.ListUsers(r.Context())
	if err != nil {
		problem.Write(w, r, err)
		return
	}
	if users == nil {
		users = []storage.User{}
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(users)
}

func (m *Module) handleCreate(w http.ResponseWriter, r *http.Request) {
	var req createRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		problem.Write(w, r, problem.InvalidRequest("Malformed request body"))
		return
	}
	if req.ID == "" || req.Email == "" {
		problem.Write(w, r, problem.InvalidRequest("id and email are required"))
		return
	}
	if req.Role == "" {
		req.Role = "user"
	}

	user := storage.User{ID: req.ID, Email: req.Email, Role: req.Role}
	if err := m.store.CreateUser(r.Context(), user); err != nil {
		if errors.Is(err, storage.ErrConflict) {
			problem.Write(w, r, problem.Conflict("User already exists"))
			return
		}
		problem.Write(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(user)
}
