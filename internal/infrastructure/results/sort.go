package results

import (
	"sort"

	"github.com/riskibarqy/club-scraper/internal/domain/leaderboard"
)

func sortedKeys(results map[string]leaderboard.WeeklyResult) []string {
	keys := make([]string, 0, len(results))
	for key := range results {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
