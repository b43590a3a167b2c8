package leaderboard

type Change int

const (
	Same Change = iota
	Up
	Down
	New
)

func (c Change) String() string {
	switch c {
	case Up:
		return "UP"
	case Down:
		return "DOWN"
	case New:
		return "NEW"
	default:
		return "SAME"
	}
}

// Glyph is the symbol shown next to an athlete in reports.
func (c Change) Glyph() string {
	switch c {
	case Up:
		return "▲"
	case Down:
		return "▼"
	case New:
		return "★"
	default:
		return "="
	}
}

type Delta struct {
	AthleteName string
	Change      Change
}

// RankingDelta compares list positions, best first. Every athlete in
// current gets one entry in current's order; athletes only in previous get
// none. A name listed twice keeps its first position.
func RankingDelta(current, previous []string) []Delta {
	prevPos := make(map[string]int, len(previous))
	for i, name := range previous {
		if _, ok := prevPos[name]; !ok {
			prevPos[name] = i
		}
	}

	seen := make(map[string]struct{}, len(current))
	out := make([]Delta, 0, len(current))
	for i, name := range current {
		if _, dup := seen[name]; dup {
			continue
		}
		seen[name] = struct{}{}

		change := New
		if j, ok := prevPos[name]; ok {
			switch {
			case i < j:
				change = Up
			case i > j:
				change = Down
			default:
				change = Same
			}
		}
		out = append(out, Delta{AthleteName: name, Change: change})
	}
	return out
}
