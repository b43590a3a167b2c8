package leaderboard

// AthleteSummary accumulates one athlete's totals across every week
// present in a results set.
type AthleteSummary struct {
	AthleteName   string
	Weeks         int
	Activities    int64
	Distance      float64
	MovingTime    int64
	ElevationGain float64
	Tickets       int
}

// WeeklyResult is the reduced per-week view used for reporting.
type WeeklyResult struct {
	Week          string
	AthleteID     string
	AthleteName   string
	Rank          int64
	Activities    int64
	MovingTime    int64
	Distance      float64
	ElevationGain float64
	Tickets       int
}

// SummarizeByAthlete groups results by athlete name. Athletes appear in the
// order they are first seen in results.
func SummarizeByAthlete(results []WeeklyResult) []AthleteSummary {
	index := make(map[string]int)
	var out []AthleteSummary
	for _, r := range results {
		i, ok := index[r.AthleteName]
		if !ok {
			i = len(out)
			index[r.AthleteName] = i
			out = append(out, AthleteSummary{AthleteName: r.AthleteName})
		}
		s := &out[i]
		s.Weeks++
		s.Activities += r.Activities
		s.Distance += r.Distance
		s.MovingTime += r.MovingTime
		s.ElevationGain += r.ElevationGain
		s.Tickets += r.Tickets
	}
	return out
}

// ResultOf reduces a leaderboard row to its weekly result.
func ResultOf(r Row, weekID string) WeeklyResult {
	res := WeeklyResult{
		Week:        weekID,
		AthleteID:   r.AthleteID,
		AthleteName: r.AthleteName,
		Rank:        r.Rank,
		Activities:  r.Activities,
	}
	if res.Rank == RankUnknown {
		res.Rank = RankUnranked
	}
	if r.MovingTime != nil {
		res.MovingTime = *r.MovingTime
	}
	if r.Distance != nil {
		res.Distance = *r.Distance
	}
	if r.ElevationGain != nil {
		res.ElevationGain = *r.ElevationGain
	}
	res.Tickets = TicketScore(float64(res.MovingTime))
	return res
}
