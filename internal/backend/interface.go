// Package backend assembles the storage, messaging, cache and export
// collaborators selected by configuration.
package backend

import (
	"context"
	"errors"

	"ajo/internal/cache"
	"ajo/internal/services"
	"ajo/internal/sheets"
	"ajo/internal/storage"
)

// CleanupFunc releases a resource acquired while building a backend.
type CleanupFunc func() error

// Pinger is implemented by collaborators that can report their health.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Backend is the set of collaborators the services run on.
type Backend struct {
	Repo       storage.Repository
	Dispatcher services.ReminderDispatcher
	Cache      cache.Store
	Exporter   sheets.ReportExporter // nil when export is disabled

	pingers  []Pinger
	cleanups []CleanupFunc
}

func (b *Backend) addCleanup(fn CleanupFunc) {
	b.cleanups = append(b.cleanups, fn)
}

// Ready pings every collaborator that supports it.
func (b *Backend) Ready(ctx context.Context) error {
	var errs []error
	for _, p := range b.pingers {
		if err := p.Ping(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Close releases resources in reverse order of acquisition.
func (b *Backend) Close() error {
	var errs []error
	for i := len(b.cleanups) - 1; i >= 0; i-- {
		if err := b.cleanups[i](); err != nil {
			errs = append(errs, err)
		}
	}
	b.cleanups = nil
	return errors.Join(errs...)
}

// Factory creates backends based on configuration
type Factory interface {
	CreateBackend(ctx context.Context, config Config) (*Backend, error)
}
