// Package memory provides an in-memory implementation of storage.Store for
// testing and lightweight deployments. Records are lost when the process
// restarts.
package memory

import (
	"context"
	"strings"
	"sync"

	"github.com/fusionfutures/api/pkg/storage"
)

// Store is an in-memory storage.Store.
type Store struct {
	mu        sync.RWMutex
	items     map[string]storage.DemoItem
	itemOrder []string
	users     map[string]storage.User
	userOrder []string
}

// Ensure Store implements storage.Store at compile time.
var _ storage.Store = (*Store)(nil)

// New creates an empty in-memory store.
func New() *Store {
	return &Store{
		items: make(map[string]storage.DemoItem),
		users: make(map[string]storage.User),
	}
}

// CreateDemoItem inserts an item, rejecting duplicate IDs.
func (s *Store) CreateDemoItem(_ context.Context, item storage.DemoItem) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.items[item.ID]; exists {
		return storage.ErrConflict
	}
	s.items[item.ID] = item
	s.itemOrder = append(s.itemOrder, item.ID)
	return nil
}

// ListDemoItems returns items in insertion order, filtered by substring
// match on the searchable field when query is non-empty.
func (s *Store) ListDemoItems(_ context.Context, query string) ([]storage.DemoItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	items := make([]storage.DemoItem, 0, len(s.itemOrder))
	for _, id := range s.itemOrder {
		item := s.items[id]
		if query != "" && !strings.Contains(item.Searchable, query) {
			continue
		}
		items = append(items, item)
	}
	return items, nil
}

// CreateUser inserts a user, rejecting duplicate IDs.
func (s *Store) CreateUser(_ context.Context, user storage.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.users[user.ID]; exists {
		return storage.ErrConflict
	}
	s.users[user.ID] = user
	s.userOrder = append(s.userOrder, user.ID)
	return nil
}

// ListUsers returns users in insertion order.
func (s *Store) ListUsers(_ context.Context) ([]storage.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	users := make([]storage.User, 0, len(s.userOrder))
	for _, id := range s.userOrder {
		users = append(users, s.users[id])
	}
	return users, nil
}

// Ping always succeeds for the in-memory store.
func (s *Store) Ping(_ context.Context) error {
	return nil
}

// Close is a no-op for the in-memory store.
func (s *Store) Close() {}
