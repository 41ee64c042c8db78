// Package storage defines the narrow persistence interface the feature
// modules call through, plus the sentinel errors backends translate their
// failures into. The pipeline itself never touches storage.
package storage

import "context"

// DemoItem is a demo data record.
type DemoItem struct {
	ID         string `json:"id"`
	Title      string `json:"title"`
	Metric     string `json:"metric"`
	Searchable string `json:"-"`
}

// User is a managed account record.
type User struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

// Store is the persistence collaborator. Each write runs as one unit of
// work: committed on success, rolled back on failure, resources always
// released. Implementations must be safe for concurrent use.
type Store interface {
	// CreateDemoItem inserts an item. Returns ErrConflict when the ID exists.
	CreateDemoItem(ctx context.Context, item DemoItem) error

	// ListDemoItems returns items in insertion order. A non-empty query
	// filters on the searchable field by substring.
	ListDemoItems(ctx context.Context, query string) ([]DemoItem, error)

	// CreateUser inserts a user. Returns ErrConflict when the ID exists.
	CreateUser(ctx context.Context, user User) error

	// ListUsers returns all users in insertion order.
	ListUsers(ctx context.Context) ([]User, error)

	// Ping verifies the backend is reachable.
	Ping(ctx context.Context) error

	// Close releases underlying resources.
	Close()
}
