package leaderboard

import (
	"math"

	"github.com/riskibarqy/club-scraper/internal/domain/activity"
	"github.com/riskibarqy/club-scraper/internal/domain/club"
	"github.com/riskibarqy/club-scraper/internal/domain/week"
)

type manualAcc struct {
	row       Row
	ids       map[string]struct{}
	moving    int64
	distance  float64
	longest   float64
	elevation float64
	speedSum  float64
	speedN    int
	paceSum   float64
	paceN     int
	hasMoving bool
}

// BuildManual aggregates activities into leaderboard rows per club, week
// and athlete, for athletes the club leaderboard does not list. Rows carry
// RankUnranked and come out in first-seen order. Activities whose type no
// configured club accepts are skipped.
func BuildManual(activities []activity.Activity, clubs *club.Directory) []Row {
	accs := make(map[string]*manualAcc)
	var order []string

	for _, a := range activities {
		if a.AthleteID == "" || a.ActivityDate.IsZero() {
			continue
		}
		c, ok := clubs.ForActivity(a.ClubID, a.ActivityType)
		if !ok {
			continue
		}
		w := week.Bucket(a.ActivityDate)
		key := Row{ClubID: c.ID, LeaderboardWeek: w.Label(), AthleteID: a.AthleteID}.Key()

		acc, ok := accs[key]
		if !ok {
			acc = &manualAcc{
				row: Row{
					ClubID:           c.ID,
					ClubName:         c.Name,
					ClubActivityType: string(c.ActivityType),
					ClubLocation:     c.Location,
					LeaderboardWeek:  w.Label(),
					DateStart:        w.Start,
					DateEnd:          w.LastDay(),
					Rank:             RankUnranked,
					AthleteID:        a.AthleteID,
					AthleteName:      a.AthleteName,
				},
				ids: make(map[string]struct{}),
			}
			accs[key] = acc
			order = append(order, key)
		}
		acc.add(a)
	}

	out := make([]Row, 0, len(order))
	for _, key := range order {
		out = append(out, accs[key].finish())
	}
	return out
}

func (m *manualAcc) add(a activity.Activity) {
	m.ids[a.ActivityID] = struct{}{}
	if a.MovingTime != nil {
		m.moving += *a.MovingTime
		m.hasMoving = true
	}
	if a.Distance != nil {
		m.distance += *a.Distance
		m.longest = math.Max(m.longest, *a.Distance)
	}
	if a.ElevationGain != nil {
		m.elevation += *a.ElevationGain
	}
	if a.AverageSpeed != nil {
		m.speedSum += *a.AverageSpeed
		m.speedN++
	}
	if a.Pace != nil {
		m.paceSum += float64(*a.Pace)
		m.paceN++
	}
}

func (m *manualAcc) finish() Row {
	r := m.row
	r.Activities = int64(len(m.ids))
	if m.hasMoving {
		moving := m.moving
		r.MovingTime = &moving
	}
	distance, longest, elevation := m.distance, m.longest, m.elevation
	r.Distance = &distance
	r.DistanceLongest = &longest
	r.ElevationGain = &elevation
	if m.speedN > 0 {
		speed := m.speedSum / float64(m.speedN)
		r.AverageSpeed = &speed
	}
	if m.paceN > 0 {
		pace := int64(math.Round(m.paceSum / float64(m.paceN)))
		r.Pace = &pace
	}
	return r
}
