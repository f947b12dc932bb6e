package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lib/pq"

	"github.com/fortuna/frisbee/internal/store"
)

const statColumns = `id, timestamp, player_name, player_team, tournament_played, game_played,
	goals, assists, ds, drops, throwaways, created_at`

// StatsRepository handles player_stats data access
type StatsRepository struct {
	q store.DBTX
}

// NewStatsRepository creates a new stats repository
func NewStatsRepository(db *store.Database) *StatsRepository {
	return &StatsRepository{q: db.DB()}
}

// WithTx returns a copy bound to tx.
func (r *StatsRepository) WithTx(tx *sql.Tx) *StatsRepository {
	return &StatsRepository{q: tx}
}

// ListByTeam returns every row for a team. An empty team returns all rows.
func (r *StatsRepository) ListByTeam(ctx context.Context, team string) ([]store.PlayerStat, error) {
	query := `SELECT ` + statColumns + ` FROM player_stats
		WHERE ($1::text = '' OR player_team = $1::text)
		ORDER BY player_team, player_name, id`

	rows, err := r.q.QueryContext(ctx, query, team)
	if err != nil {
		return nil, fmt.Errorf("querying player stats: %w", err)
	}
	defer rows.Close()
	return scanStats(rows)
}

// ListByPlayer returns one player's rows in insertion order
func (r *StatsRepository) ListByPlayer(ctx context.Context, name, team string) ([]store.PlayerStat, error) {
	query := `SELECT ` + statColumns + ` FROM player_stats
		WHERE player_name = $1 AND player_team = $2
		ORDER BY id`

	rows, err := r.q.QueryContext(ctx, query, name, team)
	if err != nil {
		return nil, fmt.Errorf("querying player stats: %w", err)
	}
	defer rows.Close()
	return scanStats(rows)
}

// ReplaceAll clears player_stats and bulk-loads stats with COPY. Callers
// should run it inside a transaction so readers never see an empty table.
func (r *StatsRepository) ReplaceAll(ctx context.Context, stats []store.PlayerStat) (int, error) {
	if _, err := r.q.ExecContext(ctx, `DELETE FROM player_stats`); err != nil {
		return 0, fmt.Errorf("clearing player stats: %w", err)
	}

	stmt, err := r.q.PrepareContext(ctx, pq.CopyIn("player_stats",
		"timestamp", "player_name", "player_team", "tournament_played", "game_played",
		"goals", "assists", "ds", "drops", "throwaways",
	))
	if err != nil {
		return 0, fmt.Errorf("preparing copy: %w", err)
	}
	defer stmt.Close()

	for _, s := range stats {
		if _, err := stmt.ExecContext(ctx,
			s.Timestamp, s.PlayerName, s.PlayerTeam, s.TournamentPlayed, s.GamePlayed,
			s.Goals, s.Assists, s.Ds, s.Drops, s.Throwaways,
		); err != nil {
			return 0, fmt.Errorf("copying player stat %s/%s: %w", s.PlayerName, s.GamePlayed, err)
		}
	}

	// An empty Exec flushes the COPY buffer.
	if _, err := stmt.ExecContext(ctx); err != nil {
		return 0, fmt.Errorf("flushing copy: %w", err)
	}

	return len(stats), nil
}

func scanStats(rows *sql.Rows) ([]store.PlayerStat, error) {
	var out []store.PlayerStat
	for rows.Next() {
		var s store.PlayerStat
		err := rows.Scan(
			&s.ID, &s.Timestamp, &s.PlayerName, &s.PlayerTeam, &s.TournamentPlayed, &s.GamePlayed,
			&s.Goals, &s.Assists, &s.Ds, &s.Drops, &s.Throwaways, &s.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scanning player stat: %w", err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}
