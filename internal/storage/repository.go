// Package storage persists savings groups with their members and ledger.
package storage

import (
	"context"
	"errors"

	"ajo/internal/core"
)

// ErrVersionConflict is returned by SaveGroup when the stored version no longer
// matches the version the caller loaded.
var ErrVersionConflict = errors.New("group was modified concurrently")

// Repository stores whole group aggregates. Implementations return deep copies
// so callers never share state with the store.
type Repository interface {
	CreateGroup(ctx context.Context, g *core.Group) error
	GetGroup(ctx context.Context, id string) (*core.Group, error)
	ListGroups(ctx context.Context) ([]*core.Group, error)
	// SaveGroup replaces members and records. It succeeds only if g.Version
	// equals the stored version, and increments g.Version on success.
	SaveGroup(ctx context.Context, g *core.Group) error
	DeleteGroup(ctx context.Context, id string) error
	Ping(ctx context.Context) error
	Close() error
}

func groupNotFound(id string) error {
	return &core.NotFoundError{Kind: "group", ID: id}
}
