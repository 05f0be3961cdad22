package storage

import (
	"context"
	"sort"
	"sync"

	"ajo/internal/core"
)

// MemoryRepository is a map-backed Repository for development and tests.
type MemoryRepository struct {
	mu     sync.RWMutex
	groups map[string]*core.Group
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{groups: make(map[string]*core.Group)}
}

func (r *MemoryRepository) CreateGroup(_ context.Context, g *core.Group) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if g.Version == 0 {
		g.Version = 1
	}
	r.groups[g.ID] = g.Clone()
	return nil
}

func (r *MemoryRepository) GetGroup(_ context.Context, id string) (*core.Group, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	g, ok := r.groups[id]
	if !ok {
		return nil, groupNotFound(id)
	}
	return g.Clone(), nil
}

func (r *MemoryRepository) ListGroups(_ context.Context) ([]*core.Group, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*core.Group, 0, len(r.groups))
	for _, g := range r.groups {
		out = append(out, g.Clone())
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (r *MemoryRepository) SaveGroup(_ context.Context, g *core.Group) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cur, ok := r.groups[g.ID]
	if !ok {
		return groupNotFound(g.ID)
	}
	if cur.Version != g.Version {
		return ErrVersionConflict
	}
	g.Version++
	r.groups[g.ID] = g.Clone()
	return nil
}

func (r *MemoryRepository) DeleteGroup(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.groups[id]; !ok {
		return groupNotFound(id)
	}
	delete(r.groups, id)
	return nil
}

func (r *MemoryRepository) Ping(context.Context) error { return nil }

func (r *MemoryRepository) Close() error { return nil }
