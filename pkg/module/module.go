// Package module defines the contract between the application core and its
// feature modules, and the registry that merges module routes into one
// route table.
//
// Modules are composed into a static list at startup rather than being
// discovered by scanning: the set of modules is a compile-time decision and
// collisions are checked before the server accepts traffic.
package module

import (
	"context"
	"fmt"
	"net/http"
)

// Route is one HTTP route contributed by a module.
type Route struct {
	// Method is the HTTP method ("GET", "POST", ...).
	Method string

	// Path is the request path the route serves.
	Path string

	Handler http.Handler
}

// Module is a named bundle of routes. Modules are assumed independent of
// one another; registration order carries no meaning.
type Module interface {
	// Name identifies the module in logs and collision errors.
	Name() string

	// Routes returns the routes this module contributes. Called once at
	// startup.
	Routes() []Route
}

// Initializer is an optional startup hook a module may implement, e.g. to
// ensure backing storage exists or seed initial data. A returned error
// aborts startup.
type Initializer interface {
	Init(ctx context.Context) error
}

// Registry merges module route sets into one table, failing fast when two
// modules claim the same method and path.
type Registry struct {
	routes []Route
	owners map[string]string // "METHOD path" -> module name
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{owners: make(map[string]string)}
}

// Register runs the module's Init hook (when present) and merges its routes
// into the registry. Returns a descriptive error on a path+method collision.
func (r *Registry) Register(ctx context.Context, m Module) error {
	if init, ok := m.(Initializer); ok {
		if err := init.Init(ctx); err != nil {
			return fmt.Errorf("initializing module %s: %w", m.Name(), err)
		}
	}

	for _, route := range m.Routes() {
		key := route.Method + " " + route.Path
		if owner, exists := r.owners[key]; exists {
			return fmt.Errorf("module %s registers route %q already registered by module %s", m.Name(), key, owner)
		}
		r.owners[key] = m.Name()
		r.routes = append(r.routes, route)
	}

	return nil
}

// Apply adds every registered route to the mux, in registration order.
func (r *Registry) Apply(mux *http.ServeMux) {
	for _, route := range r.routes {
		mux.Handle(route.Method+" "+route.Path, route.Handler)
	}
}

// Routes returns the merged route table.
func (r *Registry) Routes() []Route {
	return r.routes
}
