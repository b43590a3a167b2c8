package member

import (
	"strings"
	"time"

	"github.com/riskibarqy/club-scraper/internal/domain/club"
	"github.com/riskibarqy/club-scraper/internal/domain/dataset"
	"github.com/riskibarqy/club-scraper/internal/domain/fieldparse"
	"github.com/riskibarqy/club-scraper/internal/domain/record"
)

// Member is one athlete's membership of one club. JoinDate is the day a
// scrape first saw the membership; the platform does not expose the real
// join date.
type Member struct {
	ClubID           string `validate:"required"`
	ClubName         string
	ClubLocation     string
	ClubActivityType string

	AthleteID                  string `validate:"required,numeric"`
	AthleteName                string
	AthleteLocation            *string
	AthleteLocationCountry     *string
	AthleteLocationCountryCode *string
	JoinDate                   time.Time
	AthleteTeam                *string
	AthletePicture             *string
}

var Columns = []string{
	"club_id",
	"club_name",
	"club_location",
	"club_activity_type",
	"athlete_id",
	"athlete_name",
	"athlete_location",
	"athlete_location_country",
	"athlete_location_country_code",
	"join_date",
	"athlete_team",
	"athlete_picture",
}

var aliases = record.Aliases{
	"name":        "athlete_name",
	"athlete":     "athlete_name",
	"location":    "athlete_location",
	"avatar":      "athlete_picture",
	"picture":     "athlete_picture",
	"athlete_url": "athlete_href",
	"href":        "athlete_href",
}

var known = record.Known(append([]string{"athlete_href"}, Columns...)...)

// Teams maps athlete ids to a team name from a static roster.
type Teams map[string]string

func (t Teams) lookup(athleteID string) *string {
	if name, ok := t[athleteID]; ok && strings.TrimSpace(name) != "" {
		return &name
	}
	return nil
}

// Assemble builds a member from a scraped member card. observed is the
// scrape time; its date becomes JoinDate.
func Assemble(raw record.Raw, c club.Club, observed time.Time, teams Teams) (record.Assembly[Member], error) {
	bag := record.NewBag(raw.Pairs, aliases)
	d := record.NewDecoder(bag)

	athleteID := raw.EntityID
	if athleteID == "" {
		athleteID = d.ID("athlete_href", fieldparse.AthleteID)
	}

	m := Member{
		ClubID:           raw.ClubID,
		ClubName:         c.Name,
		ClubLocation:     c.Location,
		ClubActivityType: string(c.ActivityType),
		AthleteID:        athleteID,
		AthleteName:      d.String("athlete_name"),
		AthleteLocation:  d.Text("athlete_location"),
		JoinDate:         time.Date(observed.Year(), observed.Month(), observed.Day(), 0, 0, 0, 0, observed.Location()),
		AthleteTeam:      teams.lookup(athleteID),
		AthletePicture:   d.Text("athlete_picture"),
	}

	out := record.Assembly[Member]{Record: m, FieldErrors: d.Errors(), Unknown: bag.Unknown(known)}
	return out, record.Validate(m)
}

// WithCountry returns a copy carrying a geocoded country.
func (m Member) WithCountry(country, code string) Member {
	if country != "" {
		m.AthleteLocationCountry = &country
	}
	if code != "" {
		code = strings.ToLower(code)
		m.AthleteLocationCountryCode = &code
	}
	return m
}

// NeedsGeocoding reports whether a location is known but no country yet.
func (m Member) NeedsGeocoding() bool {
	return m.AthleteLocation != nil && m.AthleteLocationCountryCode == nil
}

func Key(clubID, athleteID string) string {
	return dataset.Key(clubID, athleteID)
}

func (m Member) Key() string { return Key(m.ClubID, m.AthleteID) }
