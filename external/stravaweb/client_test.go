package stravaweb

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/riskibarqy/club-scraper/internal/domain/activity"
	"github.com/riskibarqy/club-scraper/internal/domain/club"
	"github.com/riskibarqy/club-scraper/internal/domain/record"
	"github.com/riskibarqy/club-scraper/internal/platform/logging"
	"github.com/riskibarqy/club-scraper/internal/usecase"
)

const membersPage1 = `<html><body>
<ul class="list-athletes">
  <li>
    <img class="avatar-img" src="https://cdn.example/a1.jpg">
    <div class="text-headline"><a href="/athletes/101">Ada  Lovelace</a></div>
    <div class="location">London, England</div>
  </li>
  <li>
    <div class="text-headline"><a href="/athletes/102">Grace Hopper</a></div>
  </li>
</ul>
<ul class="pagination"><li class="next_page"><a href="/clubs/7/members?page=2">Next</a></li></ul>
</body></html>`

const membersPage2 = `<html><body>
<ul class="list-athletes">
  <li>
    <div class="text-headline"><a href="/athletes/103">Alan Turing</a></div>
    <div class="location">Wilmslow</div>
  </li>
</ul>
<ul class="pagination"><li class="next_page disabled"><span>Next</span></li></ul>
</body></html>`

const feedPage = `<html><body>
<div data-testid="web-feed-entry">
  <div data-testid="activity_entry_container"><h3><a href="/activities/12?from=feed">Evening Ride</a></h3></div>
</div>
<div data-testid="web-feed-entry">
  <div data-testid="activity_entry_container"><h3><a href="/activities/11#comments">Morning Ride</a></h3></div>
  <div data-testid="activity_entry_container"><h3><a href="/activities/12">Evening Ride</a></h3></div>
</div>
<div data-testid="web-feed-entry">
  <div data-testid="activity_entry_container"><h3><a href="/activities/13">Gone</a></h3></div>
</div>
</body></html>`

const activityPage = `<html><body>
<span class="title">Ada Lovelace – Ride – Commute</span>
<div class="details-container">
  <time>5:30 PM on Monday, July 8, 2024</time>
  <a href="/athletes/101">Ada Lovelace</a>
  <h1>Morning Ride</h1>
  <div class="content">Around the park</div>
  <span class="location">London</span>
</div>
<ul class="inline-stats section">
  <li><strong>42.20 km</strong><div class="label">Distance</div></li>
  <li><strong>1:30:05</strong><div class="label">Moving Time</div></li>
  <li><strong>350 m</strong><div class="label">Elevation</div></li>
  <li><strong>Show More</strong></li>
</ul>
<div class="section more-stats">
  <table>
    <tr><th>Speed</th><td>28.1km/h</td><td>54.0km/h</td></tr>
    <tr><th>Calories</th><td>1,021</td></tr>
    <tr><th>Elapsed Time</th><td>1:45:00</td></tr>
  </table>
</div>
<div class="section device-section"><div class="device spans8">Garmin Edge 530</div></div>
<span data-testid="kudos_count">12</span>
</body></html>`

const leaderboardPage = `<html><body>
<div class="leaderboard">
<table class="dense striped sortable">
  <thead><tr><th>Rank</th><th>Athlete</th><th>Distance</th><th>Rides</th><th>Longest</th><th>Avg. Speed</th><th>Elev. Gain</th></tr></thead>
  <tbody>
    <tr><td>1</td><td><div><a href="/athletes/101">Ada Lovelace</a></div></td><td>120.5 km</td><td>4</td><td>60.2 km</td><td>28.1km/h</td><td>1,204 m</td></tr>
    <tr><td>2</td><td><div><a href="/athletes/103">Alan Turing</a></div></td><td>80.0 km</td><td>2</td><td>50.0 km</td><td>25.0km/h</td><td>600 m</td></tr>
  </tbody>
</table>
</div>
</body></html>`

const emptyLeaderboardPage = `<html><body><div class="leaderboard"><h4 class="empty-results">No results</h4></div></body></html>`

const clubPage = `<html><body>
<h1 class="mb-sm">Lovelace Riders
<span class="badge">Verified</span></h1>
<div class="club-meta"><div class="location"><span class="app-icon-wrapper  ">Cycling</span> London, England</div></div>
</body></html>`

func newScrapeServer(t *testing.T) *httptest.Server {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("/clubs/7/members", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("page") == "2" {
			_, _ = io.WriteString(w, membersPage2)
			return
		}
		_, _ = io.WriteString(w, membersPage1)
	})
	mux.HandleFunc("/dashboard", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("club_id") != "7" || r.URL.Query().Get("feed_type") != "club" {
			t.Errorf("unexpected feed query %s", r.URL.RawQuery)
		}
		_, _ = io.WriteString(w, feedPage)
	})
	mux.HandleFunc("/activities/11", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, activityPage)
	})
	mux.HandleFunc("/activities/12", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, activityPage)
	})
	mux.HandleFunc("/activities/13", func(w http.ResponseWriter, _ *http.Request) {
		http.NotFound(w, nil)
	})
	mux.HandleFunc("/clubs/7/leaderboard", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("week_offset") == "1" {
			_, _ = io.WriteString(w, emptyLeaderboardPage)
			return
		}
		_, _ = io.WriteString(w, leaderboardPage)
	})
	mux.HandleFunc("/clubs/7", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, clubPage)
	})
	mux.HandleFunc("/clubs/8", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/login", http.StatusFound)
	})
	mux.HandleFunc("/login", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, `<form id="login_form"></form>`)
	})
	return httptest.NewServer(mux)
}

func newTestClient(t *testing.T, srv *httptest.Server) *Client {
	t.Helper()
	c, err := NewClient(ClientConfig{
		BaseURL:       srv.URL,
		SessionCookie: "cookie",
		Timeout:       5 * time.Second,
		MaxWorkers:    2,
		Logger:        logging.NewNop(),
	})
	if err != nil {
		t.Fatalf("NewClient unexpected error: %v", err)
	}
	return c
}

func TestClient_ClubMembersFollowsPagination(t *testing.T) {
	t.Parallel()

	srv := newScrapeServer(t)
	defer srv.Close()

	got, err := newTestClient(t, srv).ClubMembers(context.Background(), "7")
	if err != nil {
		t.Fatalf("ClubMembers unexpected error: %v", err)
	}
	want := []record.Raw{
		{ClubID: "7", EntityID: "101", Pairs: []record.Pair{
			{Label: "athlete_url", Value: "/athletes/101"},
			{Label: "name", Value: "Ada Lovelace"},
			{Label: "location", Value: "London, England"},
			{Label: "avatar", Value: "https://cdn.example/a1.jpg"},
		}},
		{ClubID: "7", EntityID: "102", Pairs: []record.Pair{
			{Label: "athlete_url", Value: "/athletes/102"},
			{Label: "name", Value: "Grace Hopper"},
		}},
		{ClubID: "7", EntityID: "103", Pairs: []record.Pair{
			{Label: "athlete_url", Value: "/athletes/103"},
			{Label: "name", Value: "Alan Turing"},
			{Label: "location", Value: "Wilmslow"},
		}},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("members mismatch (-want +got):\n%s", diff)
	}
}

func TestClient_ClubActivitiesReportsFailedPages(t *testing.T) {
	t.Parallel()

	srv := newScrapeServer(t)
	defer srv.Close()

	got, err := newTestClient(t, srv).ClubActivities(context.Background(), "7")
	if !errors.Is(err, usecase.ErrNotFound) {
		t.Fatalf("expected the missing page to be reported, got %v", err)
	}
	if len(got) != 2 || got[0].EntityID != "11" || got[1].EntityID != "12" {
		t.Fatalf("unexpected activities: %+v", got)
	}

	now := time.Date(2024, 7, 10, 12, 0, 0, 0, time.UTC)
	assembled, err := activity.Assemble(got[0], now)
	if err != nil {
		t.Fatalf("Assemble unexpected error: %v", err)
	}
	a := assembled.Record
	if len(assembled.FieldErrors) != 0 {
		t.Fatalf("unexpected field errors: %+v", assembled.FieldErrors)
	}
	if a.AthleteID != "101" || a.ActivityType != "Ride" || a.Commute == nil || !*a.Commute {
		t.Fatalf("unexpected identity fields: %+v", a)
	}
	if a.Distance == nil || *a.Distance != 42200 || a.MovingTime == nil || *a.MovingTime != 5405 {
		t.Fatalf("unexpected metrics: distance=%v moving=%v", a.Distance, a.MovingTime)
	}
	if a.ElapsedTime == nil || *a.ElapsedTime != 6300 || a.MaxSpeed == nil || *a.MaxSpeed != 15 {
		t.Fatalf("unexpected more stats: elapsed=%v max=%v", a.ElapsedTime, a.MaxSpeed)
	}
	if len(assembled.Unknown) != 0 {
		t.Fatalf("unpaired stat leaked into unknown labels: %+v", assembled.Unknown)
	}
	if a.ActivityKudos != 12 || !a.ActivityDate.Equal(time.Date(2024, 7, 8, 17, 30, 0, 0, time.UTC)) {
		t.Fatalf("unexpected kudos/date: %d %s", a.ActivityKudos, a.ActivityDate)
	}
}

func TestClient_ClubLeaderboard(t *testing.T) {
	t.Parallel()

	srv := newScrapeServer(t)
	defer srv.Close()
	c := newTestClient(t, srv)

	got, err := c.ClubLeaderboard(context.Background(), "7", 0)
	if err != nil {
		t.Fatalf("ClubLeaderboard unexpected error: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(got))
	}
	wantFirst := record.Raw{ClubID: "7", EntityID: "101", Pairs: []record.Pair{
		{Label: "Rank", Value: "1"},
		{Label: "Athlete", Value: "Ada Lovelace"},
		{Label: "Distance", Value: "120.5 km"},
		{Label: "Rides", Value: "4"},
		{Label: "Longest", Value: "60.2 km"},
		{Label: "Avg. Speed", Value: "28.1km/h"},
		{Label: "Elev. Gain", Value: "1,204 m"},
		{Label: "athlete_url", Value: "/athletes/101"},
	}}
	if diff := cmp.Diff(wantFirst, got[0]); diff != "" {
		t.Fatalf("row mismatch (-want +got):\n%s", diff)
	}

	previous, err := c.ClubLeaderboard(context.Background(), "7", 1)
	if err != nil || len(previous) != 0 {
		t.Fatalf("expected an empty previous week, got %v err=%v", previous, err)
	}
}

func TestClient_ResolveClubs(t *testing.T) {
	t.Parallel()

	srv := newScrapeServer(t)
	defer srv.Close()

	got, err := newTestClient(t, srv).ResolveClubs(context.Background(), []club.Club{
		{ID: "7", ActivityType: club.Running},
	})
	if err != nil {
		t.Fatalf("ResolveClubs unexpected error: %v", err)
	}
	want := []club.Club{{ID: "7", Name: "Lovelace Riders", ActivityType: club.Running, Location: "London, England"}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("clubs mismatch (-want +got):\n%s", diff)
	}
}

func TestClient_ExpiredSession(t *testing.T) {
	t.Parallel()

	srv := newScrapeServer(t)
	defer srv.Close()

	if _, err := newTestClient(t, srv).Club(context.Background(), "8"); !errors.Is(err, usecase.ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
}

func TestNewClient_RequiresSession(t *testing.T) {
	t.Parallel()

	if _, err := NewClient(ClientConfig{}); err == nil {
		t.Fatalf("expected an error without a session cookie")
	}
}

func TestClient_RequestRateSpacesFetches(t *testing.T) {
	t.Parallel()

	srv := newScrapeServer(t)
	defer srv.Close()

	c, err := NewClient(ClientConfig{
		BaseURL:           srv.URL,
		SessionCookie:     "cookie",
		Timeout:           5 * time.Second,
		MaxWorkers:        1,
		RequestsPerSecond: 0.5,
		Logger:            logging.NewNop(),
	})
	if err != nil {
		t.Fatalf("NewClient unexpected error: %v", err)
	}

	if _, err := c.Club(context.Background(), "7"); err != nil {
		t.Fatalf("first fetch unexpected error: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	if _, err := c.Club(ctx, "7"); err == nil {
		t.Fatalf("expected the second fetch to wait past the deadline")
	}
}
