package module

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

// fakeModule is a test module with a fixed name and route set.
type fakeModule struct {
	name   string
	routes []Route
	init   func(context.Context) error
}

func (m *fakeModule) Name() string    { return m.name }
func (m *fakeModule) Routes() []Route { return m.routes }

// fakeInitModule additionally implements Initializer.
type fakeInitModule struct {
	fakeModule
}

func (m *fakeInitModule) Init(ctx context.Context) error { return m.init(ctx) }

func okHandler(body string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(body))
	})
}

func TestRegistry_MergesRoutesInOrder(t *testing.T) {
	r := NewRegistry()

	first := &fakeModule{name: "first", routes: []Route{
		{Method: "GET", Path: "/a", Handler: okHandler("a")},
	}}
	second := &fakeModule{name: "second", routes: []Route{
		{Method: "GET", Path: "/b", Handler: okHandler("b")},
	}}

	for _, m := range []Module{first, second} {
		if err := r.Register(context.Background(), m); err != nil {
			t.Fatalf("Register(%s): %v", m.Name(), err)
		}
	}

	if got := len(r.Routes()); got != 2 {
		t.Fatalf("routes = %d, want 2", got)
	}

	mux := http.NewServeMux()
	r.Apply(mux)

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest("GET", "/b", nil))
	if rec.Body.String() != "b" {
		t.Errorf("GET /b = %q, want b", rec.Body.String())
	}
}

func TestRegistry_CollisionFailsFast(t *testing.T) {
	r := NewRegistry()

	first := &fakeModule{name: "first", routes: []Route{
		{Method: "POST", Path: "/demo-data", Handler: okHandler("")},
	}}
	second := &fakeModule{name: "second", routes: []Route{
		{Method: "POST", Path: "/demo-data", Handler: okHandler("")},
	}}

	if err := r.Register(context.Background(), first); err != nil {
		t.Fatalf("Register(first): %v", err)
	}

	err := r.Register(context.Background(), second)
	if err == nil {
		t.Fatal("Register(second) succeeded, want collision error")
	}
	for _, want := range []string{"first", "second", "POST /demo-data"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("collision error %q missing %q", err, want)
		}
	}
}

func TestRegistry_SamePathDifferentMethodAllowed(t *testing.T) {
	r := NewRegistry()

	m := &fakeModule{name: "demo", routes: []Route{
		{Method: "GET", Path: "/demo-data", Handler: okHandler("")},
		{Method: "POST", Path: "/demo-data", Handler: okHandler("")},
	}}

	if err := r.Register(context.Background(), m); err != nil {
		t.Fatalf("Register: %v", err)
	}
}

func TestRegistry_InitHookRuns(t *testing.T) {
	r := NewRegistry()

	ran := false
	m := &fakeInitModule{fakeModule{
		name:   "seeded",
		routes: []Route{{Method: "GET", Path: "/x", Handler: okHandler("")}},
		init:   func(context.Context) error { ran = true; return nil },
	}}

	if err := r.Register(context.Background(), m); err != nil {
		t.Fatalf("Register: %v", err)
	}
	if !ran {
		t.Error("Init hook did not run")
	}
}

func TestRegistry_InitFailureAborts(t *testing.T) {
	r := NewRegistry()

	boom := errors.New("storage unavailable")
	m := &fakeInitModule{fakeModule{
		name:   "broken",
		routes: []Route{{Method: "GET", Path: "/x", Handler: okHandler("")}},
		init:   func(context.Context) error { return boom },
	}}

	err := r.Register(context.Background(), m)
	if !errors.Is(err, boom) {
		t.Fatalf("Register: err = %v, want wrapped init error", err)
	}
	if len(r.Routes()) != 0 {
		t.Error("routes registered despite init failure")
	}
}
