package results

import (
	"github.com/riskibarqy/club-scraper/internal/domain/leaderboard"
	"github.com/riskibarqy/club-scraper/internal/domain/week"
)

// resultModel is one entry of the results file.
type resultModel struct {
	Week          string  `json:"week"`
	WeekNumber    int     `json:"week_number"`
	AthleteID     string  `json:"athlete_id"`
	AthleteName   string  `json:"athlete_name"`
	Rank          int64   `json:"rank"`
	Activities    int64   `json:"activities"`
	MovingTime    int64   `json:"moving_time"`
	Distance      float64 `json:"distance"`
	ElevationGain float64 `json:"elevation_gain"`
	Tickets       int     `json:"tickets"`
}

func toModel(r leaderboard.WeeklyResult) resultModel {
	m := resultModel{
		Week:          r.Week,
		AthleteID:     r.AthleteID,
		AthleteName:   r.AthleteName,
		Rank:          r.Rank,
		Activities:    r.Activities,
		MovingTime:    r.MovingTime,
		Distance:      r.Distance,
		ElevationGain: r.ElevationGain,
		Tickets:       r.Tickets,
	}
	if _, n, err := week.ParseISOLabel(r.Week); err == nil {
		m.WeekNumber = n
	}
	return m
}

func (m resultModel) toDomain() leaderboard.WeeklyResult {
	return leaderboard.WeeklyResult{
		Week:          m.Week,
		AthleteID:     m.AthleteID,
		AthleteName:   m.AthleteName,
		Rank:          m.Rank,
		Activities:    m.Activities,
		MovingTime:    m.MovingTime,
		Distance:      m.Distance,
		ElevationGain: m.ElevationGain,
		Tickets:       m.Tickets,
	}
}
