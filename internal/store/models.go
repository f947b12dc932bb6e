package store

import (
	"database/sql"
	"time"

	"github.com/google/uuid"

	"github.com/fortuna/frisbee/internal/fantasy"
)

// LeagueType selects how a league prices and scores players.
type LeagueType string

const (
	LeagueTypeSalaryCap LeagueType = "salary_cap"
	LeagueTypeDraft     LeagueType = "draft"
)

// Valid reports whether t is a known league type.
func (t LeagueType) Valid() bool {
	return t == LeagueTypeSalaryCap || t == LeagueTypeDraft
}

// League is a fantasy league tied to one real-world team.
type League struct {
	ID         uuid.UUID  `json:"id" db:"id"`
	Name       string     `json:"name" db:"name"`
	Team       string     `json:"team" db:"team"`
	LeagueType LeagueType `json:"league_type" db:"league_type"`
	JoinCode   string     `json:"join_code" db:"join_code"`
	OwnerID    uuid.UUID  `json:"owner_id" db:"owner_id"`
	CreatedAt  time.Time  `json:"created_at" db:"created_at"`
}

// Participant is a user's membership in a league.
type Participant struct {
	ID          int64     `json:"id" db:"id"`
	LeagueID    uuid.UUID `json:"league_id" db:"league_id"`
	UserID      uuid.UUID `json:"user_id" db:"user_id"`
	DisplayName string    `json:"display_name" db:"display_name"`
	JoinedAt    time.Time `json:"joined_at" db:"joined_at"`
}

// PlayerStat is one imported per-game stat line.
type PlayerStat struct {
	ID               int64          `json:"id" db:"id"`
	Timestamp        sql.NullString `json:"timestamp,omitempty" db:"timestamp"`
	PlayerName       string         `json:"player_name" db:"player_name"`
	PlayerTeam       string         `json:"player_team" db:"player_team"`
	TournamentPlayed string         `json:"tournament_played" db:"tournament_played"`
	GamePlayed       string         `json:"game_played" db:"game_played"`
	Goals            int            `json:"goals" db:"goals"`
	Assists          int            `json:"assists" db:"assists"`
	Ds               int            `json:"ds" db:"ds"`
	Drops            int            `json:"drops" db:"drops"`
	Throwaways       int            `json:"throwaways" db:"throwaways"`
	CreatedAt        time.Time      `json:"created_at" db:"created_at"`
}

// Row converts the stored line into the scoring library's row type.
func (p PlayerStat) Row() fantasy.StatRow {
	return fantasy.StatRow{
		PlayerName: p.PlayerName,
		PlayerTeam: p.PlayerTeam,
		Tournament: p.TournamentPlayed,
		Game:       p.GamePlayed,
		Timestamp:  p.Timestamp.String,
		Stats: fantasy.StatLine{
			Goals:      p.Goals,
			Assists:    p.Assists,
			Ds:         p.Ds,
			Drops:      p.Drops,
			Throwaways: p.Throwaways,
		},
	}
}

// PlayerStatFromRow is the inverse of Row.
func PlayerStatFromRow(r fantasy.StatRow) PlayerStat {
	return PlayerStat{
		Timestamp:        sql.NullString{String: r.Timestamp, Valid: r.Timestamp != ""},
		PlayerName:       r.PlayerName,
		PlayerTeam:       r.PlayerTeam,
		TournamentPlayed: r.Tournament,
		GamePlayed:       r.Game,
		Goals:            r.Stats.Goals,
		Assists:          r.Stats.Assists,
		Ds:               r.Stats.Ds,
		Drops:            r.Stats.Drops,
		Throwaways:       r.Stats.Throwaways,
	}
}

// RosterPlayer is one player held by a participant in a league.
type RosterPlayer struct {
	ID         int64            `json:"id" db:"id"`
	LeagueID   uuid.UUID        `json:"league_id" db:"league_id"`
	UserID     uuid.UUID        `json:"user_id" db:"user_id"`
	Position   fantasy.Position `json:"position" db:"position"`
	PlayerName string           `json:"player_name" db:"player_name"`
	PlayerTeam string           `json:"player_team" db:"player_team"`
	CreatedAt  time.Time        `json:"created_at" db:"created_at"`
}

// Player returns the rostered player's identity.
func (r RosterPlayer) Player() fantasy.PlayerKey {
	return fantasy.PlayerKey{Name: r.PlayerName, Team: r.PlayerTeam}
}
