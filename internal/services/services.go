// package services implements clients for the data backends the catalog runs on
//
// Supabase (hosted PostgREST), local SQLite (via repositories)
package services

import (
	"context"
	"fmt"

	"github.com/desertthunder/uus/internal/models"
	"github.com/desertthunder/uus/internal/shared"
)

// Backend is a [models.Store] that can report its name and health.
type Backend interface {
	models.Store

	// Name returns the name of the backend (e.g., "Supabase", "SQLite")
	Name() string

	// Health performs a cheap round trip and returns an error when the backend is unreachable.
	Health(ctx context.Context) error
}

// LocalBackend adapts a local [models.Store] (the SQLite repositories) to [Backend].
type LocalBackend struct {
	models.Store
}

// NewLocalBackend wraps store.
func NewLocalBackend(store models.Store) *LocalBackend {
	return &LocalBackend{Store: store}
}

// Name returns the backend name.
func (l *LocalBackend) Name() string { return "SQLite" }

// Health lists categories to confirm the database answers.
func (l *LocalBackend) Health(ctx context.Context) error {
	if _, err := l.ListCategories(ctx); err != nil {
		return fmt.Errorf("%w: %v", shared.ErrServiceUnavailable, err)
	}
	return nil
}
