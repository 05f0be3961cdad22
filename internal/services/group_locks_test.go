package services

import (
	"sync"
	"testing"
)

func TestGroupLocks_SerializesPerGroup(t *testing.T) {
	locks := NewGroupLocks()
	var (
		wg      sync.WaitGroup
		counter int
	)
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock := locks.Lock("g1")
			defer unlock()
			v := counter
			v++
			counter = v
		}()
	}
	wg.Wait()
	if counter != 50 {
		t.Errorf("counter = %d, want 50", counter)
	}
	if n := locks.Len(); n != 0 {
		t.Errorf("lock entries leaked: %d", n)
	}
}

func TestGroupLocks_IndependentGroups(t *testing.T) {
	locks := NewGroupLocks()
	unlockA := locks.Lock("a")
	done := make(chan struct{})
	go func() {
		unlock := locks.Lock("b")
		unlock()
		close(done)
	}()
	<-done // would deadlock if groups shared a lock
	unlockA()
}
