package postgres

import "time"

// Config holds pool sizing and migration behavior for the store. Zero
// values fall back to the defaults below; DSN is the only required field.
type Config struct {
	// DSN is the PostgreSQL connection string.
	DSN string

	// MaxConns caps the pool size. Default: 25.
	MaxConns int32

	// MinConns is how many idle connections the pool keeps warm so the
	// first requests after a quiet period don't pay dial latency. Default: 5.
	MinConns int32

	// MaxConnLifetime bounds how long a connection is reused before the
	// pool replaces it. Default: 5 minutes.
	MaxConnLifetime time.Duration

	// MigrateOnStart applies pending schema migrations during New.
	MigrateOnStart bool
}

func (c *Config) defaults() {
	if c.MaxConns == 0 {
		c.MaxConns = 25
	}
	if c.MinConns == 0 {
		c.MinConns = 5
	}
	if c.MaxConnLifetime == 0 {
		c.MaxConnLifetime = 5 * time.Minute
	}
}
