// Package app composes the request pipeline: it wires the token codec,
// guards, middleware chain, module registry, and event bus into a single
// http.Handler.
//
// Pipeline order, outermost first: correlation ID, audit, metrics, CORS,
// rate limiting, panic recovery, then the routed handler. Route-level
// guards (authentication, authorization, CSRF) are applied by the modules
// on their own routes before business logic runs.
package app

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"

	"github.com/fusionfutures/api/modules/demo"
	"github.com/fusionfutures/api/modules/users"
	"github.com/fusionfutures/api/pkg/auth"
	"github.com/fusionfutures/api/pkg/auth/token"
	"github.com/fusionfutures/api/pkg/config"
	"github.com/fusionfutures/api/pkg/csrf"
	"github.com/fusionfutures/api/pkg/events"
	"github.com/fusionfutures/api/pkg/module"
	"github.com/fusionfutures/api/pkg/observability"
	"github.com/fusionfutures/api/pkg/problem"
	"github.com/fusionfutures/api/pkg/ratelimit"
	"github.com/fusionfutures/api/pkg/storage"
	"github.com/fusionfutures/api/pkg/transport"
)

// App is the composed application.
type App struct {
	cfg     *config.Config
	logger  *slog.Logger
	bus     *events.Bus
	handler http.Handler
}

// New wires the application together. The built-in feature modules are
// registered first, then any extra modules, each in order; a route
// collision aborts construction.
func New(cfg *config.Config, logger *slog.Logger, store storage.Store, limiter ratelimit.Limiter, bus *events.Bus, extra ...module.Module) (*App, error) {
	if logger == nil {
		logger = slog.Default()
	}

	codec := token.New(cfg.Auth.SecretKey, cfg.Auth.TokenTTL)
	resolver := auth.NewResolver(codec, cfg.Auth.Cookie.Name)
	guard := auth.NewGuard(resolver, logger)
	csrfGuard := csrf.New(cfg.CSRF.CookieName, cfg.CSRF.HeaderName, cfg.CSRF.Domain, cfg.CSRF.Secure)

	// Decoupled side effect: audit-log every created demo item.
	bus.Subscribe(demo.CreatedTopic, func(_ context.Context, payload map[string]any) error {
		logger.Info("demo.created", "event", payload)
		return nil
	})

	mods := []module.Module{
		demo.New(store, bus, guard, csrfGuard, logger),
		users.New(store, guard, csrfGuard),
	}
	mods = append(mods, extra...)

	registry := module.NewRegistry()
	for _, m := range mods {
		if err := registry.Register(context.Background(), m); err != nil {
			return nil, fmt.Errorf("registering modules: %w", err)
		}
		logger.Info("module registered", "module", m.Name())
	}

	mux := http.NewServeMux()
	// Catch-all so unmatched routes render the problem envelope instead of
	// the mux's plain-text 404.
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		problem.Write(w, r, problem.NotFound("No such route"))
	})
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, map[string]string{"status": "ok"})
	})
	mux.HandleFunc("GET /livez", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, map[string]string{"status": "alive"})
	})
	mux.Handle("POST /auth/token", auth.LoginHandler(codec, auth.CookieSettings{
		Name:   cfg.Auth.Cookie.Name,
		Domain: cfg.Auth.Cookie.Domain,
		Secure: cfg.Auth.Cookie.Secure,
		MaxAge: cfg.Auth.Cookie.MaxAge,
	}, logger))
	if cfg.Observability.Metrics.Enabled {
		mux.Handle("GET "+cfg.Observability.Metrics.Path, promhttp.Handler())
	}
	registry.Apply(mux)

	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   cfg.CORS.Origins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: true,
	})

	middlewares := []transport.Middleware{
		transport.RequestID(),
		transport.Audit(logger),
	}
	if cfg.Observability.Metrics.Enabled {
		middlewares = append(middlewares, observability.MetricsMiddleware)
	}
	middlewares = append(middlewares,
		corsHandler.Handler,
		transport.RateLimit(limiter, logger),
		transport.Recovery(logger),
	)

	return &App{
		cfg:     cfg,
		logger:  logger,
		bus:     bus,
		handler: transport.Chain(middlewares...)(mux),
	}, nil
}

// Handler returns the composed request pipeline.
func (a *App) Handler() http.Handler {
	return a.handler
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}
