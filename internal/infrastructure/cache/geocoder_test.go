package cache

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/riskibarqy/club-scraper/internal/usecase"
)

type countingGeocoder struct {
	mu    sync.Mutex
	calls map[string]int
	err   error
}

func (g *countingGeocoder) Geocode(_ context.Context, location string) (usecase.Place, bool, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.calls == nil {
		g.calls = make(map[string]int)
	}
	g.calls[location]++
	if g.err != nil {
		return usecase.Place{}, false, g.err
	}
	if location == "Atlantis" {
		return usecase.Place{}, false, nil
	}
	return usecase.Place{Country: "Norway", CountryCode: "no"}, true, nil
}

func TestGeocoder_CachesHitsAndMisses(t *testing.T) {
	t.Parallel()

	next := &countingGeocoder{}
	g := NewGeocoder(next, 0)
	ctx := context.Background()

	for _, location := range []string{"Oslo", " oslo ", "OSLO"} {
		place, found, err := g.Geocode(ctx, location)
		if err != nil || !found || place.CountryCode != "no" {
			t.Fatalf("Geocode(%q) = %+v, %v, %v", location, place, found, err)
		}
	}
	for i := 0; i < 2; i++ {
		if _, found, err := g.Geocode(ctx, "Atlantis"); err != nil || found {
			t.Fatalf("Geocode(Atlantis) found=%v err=%v", found, err)
		}
	}

	if next.calls["Oslo"] != 1 || next.calls[" oslo "] != 0 || next.calls["Atlantis"] != 1 {
		t.Fatalf("unexpected upstream calls: %v", next.calls)
	}
}

func TestGeocoder_DoesNotCacheErrors(t *testing.T) {
	t.Parallel()

	next := &countingGeocoder{err: usecase.ErrDependencyUnavailable}
	g := NewGeocoder(next, 0)

	for i := 0; i < 2; i++ {
		if _, _, err := g.Geocode(context.Background(), "Oslo"); !errors.Is(err, usecase.ErrDependencyUnavailable) {
			t.Fatalf("expected ErrDependencyUnavailable, got %v", err)
		}
	}
	if next.calls["Oslo"] != 2 {
		t.Fatalf("expected failed lookups to be retried, got %d calls", next.calls["Oslo"])
	}
}
