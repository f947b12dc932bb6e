package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/fortuna/frisbee/internal/store"
)

// Constraint names the services translate into domain errors.
const (
	ConstraintJoinCode = "leagues_join_code_key"
	ConstraintMember   = "league_participants_member_key"
)

const leagueColumns = `id, name, team, league_type, join_code, owner_id, created_at`

// LeagueRepository handles league and membership data access
type LeagueRepository struct {
	q store.DBTX
}

// NewLeagueRepository creates a new league repository
func NewLeagueRepository(db *store.Database) *LeagueRepository {
	return &LeagueRepository{q: db.DB()}
}

// WithTx returns a copy bound to tx.
func (r *LeagueRepository) WithTx(tx *sql.Tx) *LeagueRepository {
	return &LeagueRepository{q: tx}
}

// Create inserts a league and fills in its generated fields.
func (r *LeagueRepository) Create(ctx context.Context, league *store.League) error {
	query := `
		INSERT INTO leagues (name, team, league_type, join_code, owner_id)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at
	`

	err := r.q.QueryRowContext(ctx, query,
		league.Name, league.Team, league.LeagueType, league.JoinCode, league.OwnerID,
	).Scan(&league.ID, &league.CreatedAt)
	if err != nil {
		return fmt.Errorf("inserting league: %w", err)
	}
	return nil
}

// GetByID finds a league by ID
func (r *LeagueRepository) GetByID(ctx context.Context, id uuid.UUID) (*store.League, error) {
	query := `SELECT ` + leagueColumns + ` FROM leagues WHERE id = $1`
	return r.getOne(ctx, query, id)
}

// GetByJoinCode finds a league by its invite code
func (r *LeagueRepository) GetByJoinCode(ctx context.Context, code string) (*store.League, error) {
	query := `SELECT ` + leagueColumns + ` FROM leagues WHERE join_code = $1`
	return r.getOne(ctx, query, code)
}

// ListForUser returns every league the user participates in, newest first
func (r *LeagueRepository) ListForUser(ctx context.Context, userID uuid.UUID) ([]*store.League, error) {
	query := `
		SELECT l.id, l.name, l.team, l.league_type, l.join_code, l.owner_id, l.created_at
		FROM leagues l
		JOIN league_participants p ON p.league_id = l.id
		WHERE p.user_id = $1
		ORDER BY l.created_at DESC
	`

	rows, err := r.q.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("querying leagues: %w", err)
	}
	defer rows.Close()

	var leagues []*store.League
	for rows.Next() {
		league, err := scanLeague(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning league: %w", err)
		}
		leagues = append(leagues, league)
	}
	return leagues, rows.Err()
}

// AddParticipant inserts a membership row.
func (r *LeagueRepository) AddParticipant(ctx context.Context, p *store.Participant) error {
	query := `
		INSERT INTO league_participants (league_id, user_id, display_name)
		VALUES ($1, $2, $3)
		RETURNING id, joined_at
	`

	err := r.q.QueryRowContext(ctx, query, p.LeagueID, p.UserID, p.DisplayName).Scan(&p.ID, &p.JoinedAt)
	if err != nil {
		return fmt.Errorf("inserting participant: %w", err)
	}
	return nil
}

// RemoveParticipant deletes a membership. Roster rows cascade.
func (r *LeagueRepository) RemoveParticipant(ctx context.Context, leagueID, userID uuid.UUID) error {
	res, err := r.q.ExecContext(ctx,
		`DELETE FROM league_participants WHERE league_id = $1 AND user_id = $2`,
		leagueID, userID,
	)
	if err != nil {
		return fmt.Errorf("deleting participant: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("participant %s in league %s: %w", userID, leagueID, store.ErrNotFound)
	}
	return nil
}

// GetParticipant returns a user's membership in a league
func (r *LeagueRepository) GetParticipant(ctx context.Context, leagueID, userID uuid.UUID) (*store.Participant, error) {
	query := `
		SELECT id, league_id, user_id, display_name, joined_at
		FROM league_participants
		WHERE league_id = $1 AND user_id = $2
	`

	p := &store.Participant{}
	err := r.q.QueryRowContext(ctx, query, leagueID, userID).Scan(
		&p.ID, &p.LeagueID, &p.UserID, &p.DisplayName, &p.JoinedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("participant %s in league %s: %w", userID, leagueID, store.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("querying participant: %w", err)
	}
	return p, nil
}

// ListParticipants returns a league's members in join order
func (r *LeagueRepository) ListParticipants(ctx context.Context, leagueID uuid.UUID) ([]*store.Participant, error) {
	query := `
		SELECT id, league_id, user_id, display_name, joined_at
		FROM league_participants
		WHERE league_id = $1
		ORDER BY joined_at, id
	`

	rows, err := r.q.QueryContext(ctx, query, leagueID)
	if err != nil {
		return nil, fmt.Errorf("querying participants: %w", err)
	}
	defer rows.Close()

	var out []*store.Participant
	for rows.Next() {
		p := &store.Participant{}
		if err := rows.Scan(&p.ID, &p.LeagueID, &p.UserID, &p.DisplayName, &p.JoinedAt); err != nil {
			return nil, fmt.Errorf("scanning participant: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *LeagueRepository) getOne(ctx context.Context, query string, arg any) (*store.League, error) {
	league, err := scanLeague(r.q.QueryRowContext(ctx, query, arg))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("league %v: %w", arg, store.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("querying league: %w", err)
	}
	return league, nil
}

func scanLeague(scanner interface {
	Scan(dest ...any) error
}) (*store.League, error) {
	l := &store.League{}
	err := scanner.Scan(&l.ID, &l.Name, &l.Team, &l.LeagueType, &l.JoinCode, &l.OwnerID, &l.CreatedAt)
	if err != nil {
		return nil, err
	}
	return l, nil
}
