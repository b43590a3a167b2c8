package nominatim

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/riskibarqy/club-scraper/internal/platform/logging"
	"github.com/riskibarqy/club-scraper/internal/platform/resilience"
	"github.com/riskibarqy/club-scraper/internal/usecase"
)

func newTestClient(srv *httptest.Server, minDelay time.Duration) *Client {
	return NewClient(ClientConfig{
		HTTPClient: srv.Client(),
		BaseURL:    srv.URL,
		UserAgent:  "club-scraper-test",
		MinDelay:   minDelay,
		Retry:      resilience.RetryConfig{Attempts: 2, BaseWait: time.Millisecond, MaxWait: time.Millisecond},
		Logger:     logging.NewNop(),
	})
}

func TestClient_GeocodeFound(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/search" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		q := r.URL.Query()
		if q.Get("q") != "Oslo, Norway" || q.Get("addressdetails") != "1" || q.Get("limit") != "1" {
			t.Errorf("unexpected query %s", r.URL.RawQuery)
		}
		if r.Header.Get("User-Agent") != "club-scraper-test" {
			t.Errorf("unexpected user agent %q", r.Header.Get("User-Agent"))
		}
		_, _ = io.WriteString(w, `[{"display_name":"Oslo, Norway","address":{"city":"Oslo","country":"Norway","country_code":"NO"}}]`)
	}))
	defer srv.Close()

	place, found, err := newTestClient(srv, 0).Geocode(context.Background(), " Oslo, Norway ")
	if err != nil {
		t.Fatalf("Geocode unexpected error: %v", err)
	}
	if !found {
		t.Fatalf("expected a match")
	}
	if place.Country != "Norway" || place.CountryCode != "no" {
		t.Fatalf("unexpected place: %+v", place)
	}
}

func TestClient_GeocodeNoMatch(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, `[]`)
	}))
	defer srv.Close()

	_, found, err := newTestClient(srv, 0).Geocode(context.Background(), "Nowhere at all")
	if err != nil {
		t.Fatalf("Geocode unexpected error: %v", err)
	}
	if found {
		t.Fatalf("expected no match")
	}
}

func TestClient_GeocodeRejectsBlank(t *testing.T) {
	t.Parallel()

	c := NewClient(ClientConfig{Logger: logging.NewNop()})
	if _, _, err := c.Geocode(context.Background(), "  "); !errors.Is(err, usecase.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestClient_GeocodeUnavailable(t *testing.T) {
	t.Parallel()

	var attempts atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		attempts.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	_, _, err := newTestClient(srv, 0).Geocode(context.Background(), "Oslo")
	if !errors.Is(err, usecase.ErrDependencyUnavailable) {
		t.Fatalf("expected ErrDependencyUnavailable, got %v", err)
	}
	if attempts.Load() != 2 {
		t.Fatalf("expected 2 attempts, got %d", attempts.Load())
	}
}

func TestClient_SpacesCalls(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, `[]`)
	}))
	defer srv.Close()

	c := newTestClient(srv, 40*time.Millisecond)
	start := time.Now()
	for i := 0; i < 3; i++ {
		if _, _, err := c.Geocode(context.Background(), "Bergen"); err != nil {
			t.Fatalf("Geocode unexpected error: %v", err)
		}
	}
	if elapsed := time.Since(start); elapsed < 80*time.Millisecond {
		t.Fatalf("calls were not spaced: %s", elapsed)
	}
}
