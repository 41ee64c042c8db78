// Package config provides unified configuration for the Fusion Futures API.
//
// Configuration is loaded with a layered approach:
//  1. Built-in defaults
//  2. YAML config file (discovered or explicitly specified)
//  3. Environment variable overrides (FUSION_ prefix)
//  4. File reference resolution (_file suffix fields)
//  5. Validation
package config

import "time"

// Config holds all configuration for the API server. It is constructed once
// at process start and passed explicitly into every component that needs it;
// nothing reads configuration through ambient globals.
type Config struct {
	Server        ServerConfig        `yaml:"server"`
	Auth          AuthConfig          `yaml:"auth"`
	CSRF          CSRFConfig          `yaml:"csrf"`
	CORS          CORSConfig          `yaml:"cors"`
	RateLimit     RateLimitConfig     `yaml:"ratelimit"`
	Storage       StorageConfig       `yaml:"storage"`
	Observability ObservabilityConfig `yaml:"observability"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port            int           `yaml:"port"`             // default: 8080
	ReadTimeout     time.Duration `yaml:"read_timeout"`     // default: 30s
	WriteTimeout    time.Duration `yaml:"write_timeout"`    // default: 30s
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"` // default: 10s
}

// AuthConfig holds session token and cookie settings.
type AuthConfig struct {
	// SecretKey signs session tokens. Required.
	SecretKey     string `yaml:"secret_key"`
	SecretKeyFile string `yaml:"secret_key_file"` // _file variant for secret_key

	// TokenTTL is the verification validity window for issued tokens.
	// Default: 12h.
	TokenTTL time.Duration `yaml:"token_ttl"`

	Cookie CookieConfig `yaml:"cookie"`
}

// CookieConfig holds session cookie settings. Secure is an explicit option
// rather than being inferred from the presence of a cookie domain.
type CookieConfig struct {
	Name   string        `yaml:"name"`    // default: "fusion_auth"
	Domain string        `yaml:"domain"`  // optional
	Secure bool          `yaml:"secure"`  // default: false
	MaxAge time.Duration `yaml:"max_age"` // default: 8h
}

// CSRFConfig holds double-submit token settings.
type CSRFConfig struct {
	CookieName string `yaml:"cookie_name"` // default: "fusion_csrf"
	HeaderName string `yaml:"header_name"` // default: "X-CSRF-Token"
	Domain     string `yaml:"domain"`      // optional
	Secure     bool   `yaml:"secure"`      // default: false
}

// CORSConfig holds allowed frontend origins.
type CORSConfig struct {
	Origins []string `yaml:"origins"` // default: ["http://localhost:3100"]
}

// RateLimitConfig holds per-client request quota settings.
type RateLimitConfig struct {
	// RequestsPerMinute caps requests per client key. 0 disables limiting.
	// Default: 100.
	RequestsPerMinute int `yaml:"requests_per_minute"`

	// Backend selects the counter store: "memory" or "redis". Default: "memory".
	Backend string `yaml:"backend"`

	Redis RedisConfig `yaml:"redis"`
}

// RedisConfig holds Redis connection settings for the rate limiter.
type RedisConfig struct {
	Addr     string `yaml:"addr"` // default: "localhost:6379"
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

// StorageConfig holds persistence settings.
type StorageConfig struct {
	Type     string         `yaml:"type"` // "memory" or "postgres", default: "memory"
	Postgres PostgresConfig `yaml:"postgres"`
}

// PostgresConfig holds PostgreSQL-specific settings.
type PostgresConfig struct {
	DSN             string        `yaml:"dsn"`
	DSNFile         string        `yaml:"dsn_file"`          // _file variant for dsn
	MaxConns        int32         `yaml:"max_conns"`         // default: 25
	MinConns        int32         `yaml:"min_conns"`         // default: 5
	MaxConnLifetime time.Duration `yaml:"max_conn_lifetime"` // default: 5m
	MigrateOnStart  bool          `yaml:"migrate_on_start"`  // default: false
}

// ObservabilityConfig holds monitoring and logging settings.
type ObservabilityConfig struct {
	Metrics MetricsConfig `yaml:"metrics"`
	Logging LoggingConfig `yaml:"logging"`
}

// LoggingConfig holds log level and debug category settings. Both can be
// overridden with FUSION_LOG_LEVEL and FUSION_DEBUG.
type LoggingConfig struct {
	Level string `yaml:"level"` // default: "INFO"
	Debug string `yaml:"debug"` // comma-separated debug categories
}

// MetricsConfig holds Prometheus metrics endpoint settings.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"` // default: true
	Path    string `yaml:"path"`    // default: "/metrics"
}

// Defaults returns a Config with all default values filled in.
func Defaults() Config {
	return Config{
		Server: ServerConfig{
			Port:            8080,
			ReadTimeout:     30 * time.Second,
			WriteTimeout:    30 * time.Second,
			ShutdownTimeout: 10 * time.Second,
		},
		Auth: AuthConfig{
			TokenTTL: 12 * time.Hour,
			Cookie: CookieConfig{
				Name:   "fusion_auth",
				MaxAge: 8 * time.Hour,
			},
		},
		CSRF: CSRFConfig{
			CookieName: "fusion_csrf",
			HeaderName: "X-CSRF-Token",
		},
		CORS: CORSConfig{
			Origins: []string{"http://localhost:3100"},
		},
		RateLimit: RateLimitConfig{
			RequestsPerMinute: 100,
			Backend:           "memory",
			Redis: RedisConfig{
				Addr: "localhost:6379",
			},
		},
		Storage: StorageConfig{
			Type: "memory",
			Postgres: PostgresConfig{
				MaxConns:        25,
				MinConns:        5,
				MaxConnLifetime: 5 * time.Minute,
			},
		},
		Observability: ObservabilityConfig{
			Metrics: MetricsConfig{
				Enabled: true,
				Path:    "/metrics",
			},
			Logging: LoggingConfig{
				Level: "INFO",
			},
		},
	}
}
