package cache

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

type fakeClock struct{ t time.Time }

func (f *fakeClock) now() time.Time { return f.t }

func TestLRUCache_EvictsLeastRecentlyUsed(t *testing.T) {
	c := NewLRUCache[int](2, time.Minute)
	c.Set("a", 1)
	c.Set("b", 2)
	c.Get("a")
	c.Set("c", 3)

	if _, ok := c.Get("b"); ok {
		t.Error("b should have been evicted")
	}
	if v, ok := c.Get("a"); !ok || v != 1 {
		t.Errorf("a = %d, %v", v, ok)
	}
	if c.Size() != 2 {
		t.Errorf("size = %d, want 2", c.Size())
	}
}

func TestLRUCache_TTL(t *testing.T) {
	clock := &fakeClock{t: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	c := NewLRUCache[string](10, time.Minute)
	c.now = clock.now

	c.Set("a", "x")
	c.Set("b", "y")
	clock.t = clock.t.Add(2 * time.Minute)
	c.Set("c", "z")

	if _, ok := c.Get("a"); ok {
		t.Error("a should have expired")
	}
	if n := c.CleanExpired(); n != 1 {
		t.Errorf("CleanExpired() = %d, want 1 (b)", n)
	}
	if v, ok := c.Get("c"); !ok || v != "z" {
		t.Errorf("c = %q, %v", v, ok)
	}
}

func TestLRUCache_ZeroTTLNeverExpires(t *testing.T) {
	clock := &fakeClock{t: time.Now()}
	c := NewLRUCache[int](0, 0)
	c.now = clock.now
	c.Set("a", 1)
	clock.t = clock.t.Add(24 * time.Hour)
	if _, ok := c.Get("a"); !ok {
		t.Error("entry without TTL expired")
	}
	c.Delete("a")
	if c.Size() != 0 {
		t.Error("Delete did not remove entry")
	}
}

func TestManager_Sweep(t *testing.T) {
	clock := &fakeClock{t: time.Now()}
	c := NewLRUCache[int](10, time.Second)
	c.now = clock.now
	c.Set("a", 1)
	clock.t = clock.t.Add(time.Minute)

	m := NewManager()
	m.Register(c)
	if n := m.Sweep(); n != 1 {
		t.Errorf("Sweep() = %d, want 1", n)
	}
	m.StartCleanup(time.Hour)
	m.Stop()
	m.Stop()
}

type report struct {
	Name  string
	Total int64
}

func TestLoader_CachesAndCollapses(t *testing.T) {
	ctx := context.Background()
	l := NewLoader[report](NewMemoryStore(10, time.Minute))
	var calls atomic.Int32
	release := make(chan struct{})
	load := func(context.Context) (report, error) {
		calls.Add(1)
		<-release
		return report{Name: "g1", Total: 150000}, nil
	}

	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, _, err := l.GetOrLoad(ctx, "k", load); err != nil {
				t.Error(err)
			}
		}()
	}
	time.Sleep(20 * time.Millisecond)
	close(release)
	wg.Wait()
	if n := calls.Load(); n != 1 {
		t.Errorf("load calls = %d, want 1", n)
	}

	v, hit, err := l.GetOrLoad(ctx, "k", load)
	if err != nil || !hit || v.Total != 150000 {
		t.Errorf("second read = %+v, hit=%v, err=%v", v, hit, err)
	}
}

func TestLoader_ErrorNotCached(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(10, time.Minute)
	l := NewLoader[report](store)
	boom := errors.New("boom")

	if _, _, err := l.GetOrLoad(ctx, "k", func(context.Context) (report, error) { return report{}, boom }); !errors.Is(err, boom) {
		t.Fatalf("err = %v, want boom", err)
	}
	if store.Size() != 0 {
		t.Error("failed load should not be cached")
	}
}

func TestNewRedisStore_Unreachable(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if _, err := NewRedisStore(ctx, "127.0.0.1:1", time.Minute); err == nil {
		t.Error("expected ping error for unreachable redis")
	}
}
