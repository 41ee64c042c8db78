// Package demo contributes the demo data endpoints: a CSRF token issuer, a
// searchable listing, and an admin-only, CSRF-protected create operation
// that publishes a domain event.
package demo

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/fusionfutures/api/pkg/auth"
	"github.com/fusionfutures/api/pkg/csrf"
	"github.com/fusionfutures/api/pkg/events"
	"github.com/fusionfutures/api/pkg/module"
	"github.com/fusionfutures/api/pkg/problem"
	"github.com/fusionfutures/api/pkg/storage"
)

// CreatedTopic is the event topic published for each created item.
const CreatedTopic = "demo.created"

// Module serves the /demo-data routes.
type Module struct {
	store  storage.Store
	bus    *events.Bus
	guard  *auth.Guard
	csrf   *csrf.Guard
	logger *slog.Logger
}

// New creates the demo module.
func New(store storage.Store, bus *events.Bus, guard *auth.Guard, csrfGuard *csrf.Guard, logger *slog.Logger) *Module {
	if logger == nil {
		logger = slog.Default()
	}
	return &Module{store: store, bus: bus, guard: guard, csrf: csrfGuard, logger: logger}
}

// Name identifies the module.
func (m *Module) Name() string { return "demo" }

// Init seeds the demo table on first start so the listing is never empty
// in a fresh environment.
func (m *Module) Init(ctx context.Context) error {
	existing, err := m.store.ListDemoItems(ctx, "")
	if err != nil {
		return err
	}
	if len(existing) > 0 {
		return nil
	}

	seed := []storage.DemoItem{
		{ID: "1", Title: "Active pilots", Metric: "18", Searchable: "pilots"},
		{ID: "2", Title: "AI initiatives", Metric: "5", Searchable: "ai"},
	}
	for _, item := range seed {
		if err := m.store.CreateDemoItem(ctx, item); err != nil && !errors.Is(err, storage.ErrConflict) {
			return err
		}
	}
	return nil
}

// Routes returns the module's route table. The create route is wrapped by
// the role guard first and the CSRF guard second, so a forged request is
// rejected for authentication before CSRF is even checked.
func (m *Module) Routes() []module.Route {
	adminOnly := m.guard.RequireRole("admin")
	return []module.Route{
		{Method: http.MethodGet, Path: "/demo-data/csrf-token", Handler: http.HandlerFunc(m.handleCSRFToken)},
		{Method: http.MethodGet, Path: "/demo-data", Handler: http.HandlerFunc(m.handleList)},
		{Method: http.MethodPost, Path: "/demo-data", Handler: adminOnly(m.csrf.Protect(http.HandlerFunc(m.handleCreate)))},
	}
}

// createRequest is the create request body.
type createRequest struct {
	ID     string `json:"id"`
	Title  string `json:"title"`
	Metric string `json:"metric"`
}

func (m *Module) handleCSRFToken(w http.ResponseWriter, r *http.Request) {
	token, err := m.csrf.Issue(w)
	if err != nil {
		problem.Write(w, r, err)
		return
	}
	writeJSON(w, map[string]string{"csrfToken": token})
}

func (m *Module) handleList(w http.ResponseWriter, r *http.Request) {
	items, err := m.store.ListDemoItems(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		problem.Write(w, r, err)
		return
	}
	if items == nil {
		items = []storage.DemoItem{}
	}
	writeJSON(w, map[string]any{"items": items})
}

func (m *Module) handleCreate(w http.ResponseWriter, r *http.Request) {
	var req createRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		problem.Write(w, r, problem.InvalidRequest("Malformed request body"))
		return
	}
	if req.ID == "" || req.Title == "" || req.Metric == "" {
		problem.Write(w, r, problem.InvalidRequest("id, title and metric are required"))
		return
	}

	item := storage.DemoItem{
		ID:         req.ID,
		Title:      req.Title,
		Metric:     req.Metric,
		Searchable: strings.ToLower(req.Title),
	}

	if err := m.store.CreateDemoItem(r.Context(), item); err != nil {
		if errors.Is(err, storage.ErrConflict) {
			problem.Write(w, r, problem.Conflict("Item already exists"))
			return
		}
		problem.Write(w, r, err)
		return
	}

	m.bus.Publish(CreatedTopic, map[string]any{
		"id":         item.ID,
		"title":      item.Title,
		"metric":     item.Metric,
		"searchable": item.Searchable,
	})

	writeJSON(w, item)
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}
