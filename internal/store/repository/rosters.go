package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/fortuna/frisbee/internal/store"
)

// ConstraintRosterPlayer guards against rostering the same player twice.
const ConstraintRosterPlayer = "roster_players_player_key"

// RosterRepository handles roster_players data access
type RosterRepository struct {
	q store.DBTX
}

// NewRosterRepository creates a new roster repository
func NewRosterRepository(db *store.Database) *RosterRepository {
	return &RosterRepository{q: db.DB()}
}

// ListForMember returns one participant's roster in the order it was built
func (r *RosterRepository) ListForMember(ctx context.Context, leagueID, userID uuid.UUID) ([]*store.RosterPlayer, error) {
	query := `
		SELECT id, league_id, user_id, position, player_name, player_team, created_at
		FROM roster_players
		WHERE league_id = $1 AND user_id = $2
		ORDER BY id
	`
	return r.list(ctx, query, leagueID, userID)
}

// ListForLeague returns every roster row in a league
func (r *RosterRepository) ListForLeague(ctx context.Context, leagueID uuid.UUID) ([]*store.RosterPlayer, error) {
	query := `
		SELECT id, league_id, user_id, position, player_name, player_team, created_at
		FROM roster_players
		WHERE league_id = $1
		ORDER BY user_id, id
	`
	return r.list(ctx, query, leagueID)
}

// Add inserts a roster row.
func (r *RosterRepository) Add(ctx context.Context, p *store.RosterPlayer) error {
	query := `
		INSERT INTO roster_players (league_id, user_id, position, player_name, player_team)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at
	`

	err := r.q.QueryRowContext(ctx, query,
		p.LeagueID, p.UserID, p.Position, p.PlayerName, p.PlayerTeam,
	).Scan(&p.ID, &p.CreatedAt)
	if err != nil {
		return fmt.Errorf("inserting roster player: %w", err)
	}
	return nil
}

// Remove deletes one of the participant's roster rows.
func (r *RosterRepository) Remove(ctx context.Context, leagueID, userID uuid.UUID, id int64) error {
	res, err := r.q.ExecContext(ctx,
		`DELETE FROM roster_players WHERE id = $1 AND league_id = $2 AND user_id = $3`,
		id, leagueID, userID,
	)
	if err != nil {
		return fmt.Errorf("deleting roster player: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("roster player %d: %w", id, store.ErrNotFound)
	}
	return nil
}

func (r *RosterRepository) list(ctx context.Context, query string, args ...any) ([]*store.RosterPlayer, error) {
	rows, err := r.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying roster: %w", err)
	}
	defer rows.Close()

	var out []*store.RosterPlayer
	for rows.Next() {
		p := &store.RosterPlayer{}
		if err := rows.Scan(&p.ID, &p.LeagueID, &p.UserID, &p.Position, &p.PlayerName, &p.PlayerTeam, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning roster player: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}
