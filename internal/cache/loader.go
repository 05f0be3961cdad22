package cache

import (
	"context"
	"encoding/json"
	"log/slog"

	"golang.org/x/sync/singleflight"
)

// Loader reads through a Store, collapsing concurrent misses for the same key
// into a single load. Values travel through the Store as JSON.
type Loader[T any] struct {
	store Store
	group singleflight.Group
}

func NewLoader[T any](store Store) *Loader[T] {
	return &Loader[T]{store: store}
}

// GetOrLoad returns the cached value for key, or calls load and caches its
// result. hit reports whether the value came from the store. Store failures
// degrade to a load and are only logged.
func (l *Loader[T]) GetOrLoad(ctx context.Context, key string, load func(context.Context) (T, error)) (value T, hit bool, err error) {
	if raw, ok, gerr := l.store.Get(ctx, key); gerr != nil {
		slog.WarnContext(ctx, "Cache read failed", "key", key, "error", gerr)
	} else if ok {
		if uerr := json.Unmarshal(raw, &value); uerr == nil {
			return value, true, nil
		}
		_ = l.store.Delete(ctx, key)
	}

	v, err, _ := l.group.Do(key, func() (any, error) {
		loaded, err := load(ctx)
		if err != nil {
			return loaded, err
		}
		if raw, merr := json.Marshal(loaded); merr == nil {
			if serr := l.store.Set(ctx, key, raw); serr != nil {
				slog.WarnContext(ctx, "Cache write failed", "key", key, "error", serr)
			}
		}
		return loaded, nil
	})
	if err != nil {
		var zero T
		return zero, false, err
	}
	return v.(T), false, nil
}
