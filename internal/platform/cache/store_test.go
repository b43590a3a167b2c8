package cache

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestStore_ExpiresEntries(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 1, 5, 8, 0, 0, 0, time.UTC)
	s := NewStore[string](time.Minute)
	s.now = func() time.Time { return now }

	s.Set("Berlin", "DE")
	if v, ok := s.Get("Berlin"); !ok || v != "DE" {
		t.Fatalf("expected cached value, got %q ok=%v", v, ok)
	}

	now = now.Add(2 * time.Minute)
	if _, ok := s.Get("Berlin"); ok {
		t.Fatalf("expected entry to expire")
	}
	if s.Len() != 0 {
		t.Fatalf("expected expired entry to be evicted, len=%d", s.Len())
	}
}

func TestStore_GetOrLoadCollapsesConcurrentMisses(t *testing.T) {
	t.Parallel()

	s := NewStore[int](0)
	var loads atomic.Int32
	release := make(chan struct{})

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			v, err := s.GetOrLoad(context.Background(), "k", func(context.Context) (int, error) {
				loads.Add(1)
				<-release
				return 42, nil
			})
			if err != nil || v != 42 {
				t.Errorf("unexpected result v=%d err=%v", v, err)
			}
		}()
	}
	time.Sleep(20 * time.Millisecond)
	close(release)
	wg.Wait()

	if got := loads.Load(); got != 1 {
		t.Fatalf("expected exactly one load, got %d", got)
	}
}

func TestStore_GetOrLoadDoesNotCacheErrors(t *testing.T) {
	t.Parallel()

	s := NewStore[string](time.Hour)
	_, err := s.GetOrLoad(context.Background(), "k", func(context.Context) (string, error) {
		return "", errors.New("boom")
	})
	if err == nil {
		t.Fatalf("expected load error")
	}
	if _, ok := s.Get("k"); ok {
		t.Fatalf("failed load must not be cached")
	}
}
