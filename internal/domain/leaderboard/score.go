package leaderboard

import "math"

const (
	oneTicketMinutes  = 150
	twoTicketsMinutes = 300
)

// TicketScore rewards weekly moving time: no ticket under 150 minutes, one
// ticket from 150 up to 300 minutes, two tickets from 300 minutes. Negative,
// NaN and infinite input score zero.
func TicketScore(movingTimeSeconds float64) int {
	if math.IsNaN(movingTimeSeconds) || math.IsInf(movingTimeSeconds, 0) || movingTimeSeconds <= 0 {
		return 0
	}
	minutes := movingTimeSeconds / 60
	switch {
	case minutes >= twoTicketsMinutes:
		return 2
	case minutes >= oneTicketMinutes:
		return 1
	default:
		return 0
	}
}
