package club

import (
	"sort"
	"strings"

	"github.com/riskibarqy/club-scraper/internal/domain/record"
)

type ActivityType string

const (
	Cycling  ActivityType = "Cycling"
	Running  ActivityType = "Running"
	Swimming ActivityType = "Swimming"
)

// Club is the static metadata carried on member and leaderboard rows.
type Club struct {
	ID           string
	Name         string
	ActivityType ActivityType
	Location     string
}

var leaderboardAliases = record.Aliases{
	"athlete":   "athlete_name",
	"time":      "moving_time",
	"elev_gain": "elevation_gain",
	"elevation": "elevation_gain",
}

var clubAliases = map[ActivityType]record.Aliases{
	Cycling: {
		"rides":     "activities",
		"longest":   "distance_longest",
		"avg_speed": "average_speed",
	},
	Running: {
		"runs":     "activities",
		"avg_pace": "pace",
	},
	Swimming: {
		"swims":    "activities",
		"avg_pace": "pace",
	},
}

// LeaderboardAliases maps the club's leaderboard table headers onto
// leaderboard fields. Header wording depends on the club's sport.
func (c Club) LeaderboardAliases() record.Aliases {
	return leaderboardAliases.Merge(clubAliases[c.ActivityType])
}

var sportTypes = map[ActivityType][]string{
	Cycling:  {"Ride", "E-Bike Ride", "Virtual Ride", "Gravel Ride", "Mountain Bike Ride"},
	Running:  {"Run", "Trail Run", "Virtual Run", "Walk", "Hike"},
	Swimming: {"Swim"},
}

// Accepts reports whether an activity of the given type counts toward the
// club's leaderboard.
func (c Club) Accepts(activityType string) bool {
	for _, t := range sportTypes[c.ActivityType] {
		if strings.EqualFold(t, strings.TrimSpace(activityType)) {
			return true
		}
	}
	return false
}

// Directory indexes the configured clubs by id.
type Directory struct {
	byID map[string]Club
	ids  []string
}

func NewDirectory(clubs ...Club) *Directory {
	d := &Directory{byID: make(map[string]Club, len(clubs))}
	for _, c := range clubs {
		if _, dup := d.byID[c.ID]; !dup {
			d.ids = append(d.ids, c.ID)
		}
		d.byID[c.ID] = c
	}
	sort.Strings(d.ids)
	return d
}

func (d *Directory) Get(id string) (Club, bool) {
	c, ok := d.byID[id]
	return c, ok
}

// IDs returns the club ids in ascending order.
func (d *Directory) IDs() []string {
	return append([]string(nil), d.ids...)
}

// ForActivity picks the club whose sport covers activityType. The club the
// activity was scraped from wins when it accepts the type.
func (d *Directory) ForActivity(scrapedFrom, activityType string) (Club, bool) {
	if c, ok := d.byID[scrapedFrom]; ok && c.Accepts(activityType) {
		return c, true
	}
	for _, id := range d.ids {
		if c := d.byID[id]; c.Accepts(activityType) {
			return c, true
		}
	}
	return Club{}, false
}
