package usecase

import (
	"context"

	"github.com/riskibarqy/club-scraper/internal/domain/leaderboard"
	"github.com/riskibarqy/club-scraper/internal/domain/record"
)

// ClubScraper yields raw labelled values for the entities on a club's
// pages. Every record carries the club id; EntityID is the activity id for
// activities and the athlete id for members and leaderboard lines, when
// the scraper already knows it.
type ClubScraper interface {
	ClubMembers(ctx context.Context, clubID string) ([]record.Raw, error)
	ClubActivities(ctx context.Context, clubID string) ([]record.Raw, error)
	// ClubLeaderboard reads the leaderboard weekOffset weeks back; 0 is the
	// current week.
	ClubLeaderboard(ctx context.Context, clubID string, weekOffset int) ([]record.Raw, error)
}

type Place struct {
	Country     string
	CountryCode string
}

// Geocoder resolves a free-text location. found is false when the
// location is valid but matches nothing.
type Geocoder interface {
	Geocode(ctx context.Context, location string) (place Place, found bool, err error)
}

// ResultsRepository stores weekly results keyed "<iso week>-<athlete id>".
type ResultsRepository interface {
	Load(ctx context.Context) (map[string]leaderboard.WeeklyResult, error)
	Save(ctx context.Context, results map[string]leaderboard.WeeklyResult) error
}
