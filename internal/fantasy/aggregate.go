package fantasy

import (
	"cmp"
	"slices"
)

// GameKey identifies a single game within a tournament.
type GameKey struct {
	Tournament string
	Game       string
}

// PlayerKey identifies a player across rows.
type PlayerKey struct {
	Name string `json:"name"`
	Team string `json:"team"`
}

// StatRow is one player's line for one game. Timestamp is empty when the
// source row carried none.
type StatRow struct {
	PlayerName string
	PlayerTeam string
	Tournament string
	Game       string
	Timestamp  string
	Stats      StatLine
}

// Player returns the row's player identity.
func (r StatRow) Player() PlayerKey {
	return PlayerKey{Name: r.PlayerName, Team: r.PlayerTeam}
}

// GameKey returns the row's game identity.
func (r StatRow) GameKey() GameKey {
	return GameKey{Tournament: r.Tournament, Game: r.Game}
}

// TournamentStats is a player's aggregate over a set of games. Tournament is
// empty for season totals.
type TournamentStats struct {
	Tournament      string   `json:"tournament,omitempty"`
	LatestTimestamp string   `json:"latest_timestamp,omitempty"`
	Tournaments     int      `json:"tournaments"`
	GamesPlayed     int      `json:"games_played"`
	Stats           StatLine `json:"stats"`
	CaptainScore    float64  `json:"captain_score"`
}

type tournamentGroup struct {
	name   string
	latest string
	games  map[GameKey]struct{}
	stats  StatLine
}

func (g *tournamentGroup) add(r StatRow) {
	if r.Timestamp > g.latest {
		g.latest = r.Timestamp
	}
	g.games[r.GameKey()] = struct{}{}
	g.stats = g.stats.Add(r.Stats)
}

func (g *tournamentGroup) result() TournamentStats {
	return TournamentStats{
		Tournament:      g.name,
		LatestTimestamp: g.latest,
		Tournaments:     1,
		GamesPlayed:     len(g.games),
		Stats:           g.stats,
		CaptainScore:    g.stats.score(CaptainScore),
	}
}

// compareRecency orders the most recent group first. Groups without any
// timestamp track "" and therefore sort after every timed group; ties fall
// back to the alphabetically first tournament name.
func compareRecency(a, b *tournamentGroup) int {
	if c := cmp.Compare(b.latest, a.latest); c != 0 {
		return c
	}
	return cmp.Compare(a.name, b.name)
}

func groupByTournament(rows []StatRow) []*tournamentGroup {
	index := make(map[string]*tournamentGroup)
	var groups []*tournamentGroup
	for _, r := range rows {
		g, ok := index[r.Tournament]
		if !ok {
			g = &tournamentGroup{name: r.Tournament, games: make(map[GameKey]struct{})}
			index[r.Tournament] = g
			groups = append(groups, g)
		}
		g.add(r)
	}
	slices.SortFunc(groups, compareRecency)
	return groups
}

// MostRecentTournament aggregates the rows of the player's latest tournament.
// It returns nil for empty input.
func MostRecentTournament(rows []StatRow) *TournamentStats {
	groups := groupByTournament(rows)
	if len(groups) == 0 {
		return nil
	}
	res := groups[0].result()
	return &res
}

// TournamentBreakdown aggregates every tournament, most recent first.
func TournamentBreakdown(rows []StatRow) []TournamentStats {
	groups := groupByTournament(rows)
	out := make([]TournamentStats, 0, len(groups))
	for _, g := range groups {
		out = append(out, g.result())
	}
	return out
}

// SeasonTotals sums every row. GamesPlayed counts distinct (tournament, game)
// pairs. It returns nil for empty input.
func SeasonTotals(rows []StatRow) *TournamentStats {
	if len(rows) == 0 {
		return nil
	}

	games := make(map[GameKey]struct{})
	tournaments := make(map[string]struct{})
	res := &TournamentStats{}
	for _, r := range rows {
		games[r.GameKey()] = struct{}{}
		tournaments[r.Tournament] = struct{}{}
		if r.Timestamp > res.LatestTimestamp {
			res.LatestTimestamp = r.Timestamp
		}
		res.Stats = res.Stats.Add(r.Stats)
	}
	res.Tournaments = len(tournaments)
	res.GamesPlayed = len(games)
	res.CaptainScore = res.Stats.score(CaptainScore)
	return res
}

// GroupByPlayer buckets rows per player, preserving row order within each.
func GroupByPlayer(rows []StatRow) map[PlayerKey][]StatRow {
	out := make(map[PlayerKey][]StatRow)
	for _, r := range rows {
		k := r.Player()
		out[k] = append(out[k], r)
	}
	return out
}
