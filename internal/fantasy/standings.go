package fantasy

import (
	"cmp"
	"slices"
)

// RosterEntry is a rostered player and the stats that count for them.
// Stats is nil when the player has no rows.
type RosterEntry struct {
	Player   PlayerKey
	Position Position
	Stats    *StatLine
}

// Standing is one participant's line in a league table.
type Standing struct {
	UserID      string  `json:"user_id"`
	DisplayName string  `json:"display_name"`
	Rank        int     `json:"rank"`
	Points      float64 `json:"points"`
	Players     int     `json:"players"`
}

// RosterPoints sums each entry's positional score.
func RosterPoints(entries []RosterEntry) float64 {
	var total float64
	for _, e := range entries {
		if e.Stats == nil {
			continue
		}
		total += ScoreFor(e.Position, *e.Stats)
	}
	return total
}

// RankStandings orders by points descending then display name, assigning
// shared ranks to equal totals.
func RankStandings(standings []Standing) []Standing {
	out := slices.Clone(standings)
	slices.SortFunc(out, func(a, b Standing) int {
		if c := cmp.Compare(b.Points, a.Points); c != 0 {
			return c
		}
		return cmp.Compare(a.DisplayName, b.DisplayName)
	})

	for i := range out {
		if i > 0 && out[i].Points == out[i-1].Points {
			out[i].Rank = out[i-1].Rank
			continue
		}
		out[i].Rank = i + 1
	}
	return out
}
