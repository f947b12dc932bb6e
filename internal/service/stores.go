package service

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"

	"github.com/fortuna/frisbee/internal/store"
	"github.com/fortuna/frisbee/internal/store/repository"
)

// LeagueStore is the persistence surface LeagueService needs.
type LeagueStore interface {
	CreateWithOwner(ctx context.Context, league *store.League, owner *store.Participant) error
	GetByID(ctx context.Context, id uuid.UUID) (*store.League, error)
	GetByJoinCode(ctx context.Context, code string) (*store.League, error)
	ListForUser(ctx context.Context, userID uuid.UUID) ([]*store.League, error)
	AddParticipant(ctx context.Context, p *store.Participant) error
	RemoveParticipant(ctx context.Context, leagueID, userID uuid.UUID) error
	GetParticipant(ctx context.Context, leagueID, userID uuid.UUID) (*store.Participant, error)
	ListParticipants(ctx context.Context, leagueID uuid.UUID) ([]*store.Participant, error)
}

// StatsSource reads imported stat rows.
type StatsSource interface {
	ListByTeam(ctx context.Context, team string) ([]store.PlayerStat, error)
	ListByPlayer(ctx context.Context, name, team string) ([]store.PlayerStat, error)
}

// RosterStore persists roster rows.
type RosterStore interface {
	ListForMember(ctx context.Context, leagueID, userID uuid.UUID) ([]*store.RosterPlayer, error)
	ListForLeague(ctx context.Context, leagueID uuid.UUID) ([]*store.RosterPlayer, error)
	Add(ctx context.Context, p *store.RosterPlayer) error
	Remove(ctx context.Context, leagueID, userID uuid.UUID, id int64) error
}

// PoolCache stores computed player pools. *cache.RedisCache implements it.
type PoolCache interface {
	GetJSON(ctx context.Context, key string, dst any) error
	SetJSON(ctx context.Context, key string, v any, ttl time.Duration) error
	DeletePrefix(ctx context.Context, prefix string) (int, error)
}

// dbLeagueStore adds the transactional create to the league repository.
type dbLeagueStore struct {
	*repository.LeagueRepository
	db *store.Database
}

// NewLeagueStore returns the Postgres-backed LeagueStore.
func NewLeagueStore(db *store.Database) LeagueStore {
	return &dbLeagueStore{
		LeagueRepository: repository.NewLeagueRepository(db),
		db:               db,
	}
}

// CreateWithOwner inserts the league and its owner's membership together.
func (s *dbLeagueStore) CreateWithOwner(ctx context.Context, league *store.League, owner *store.Participant) error {
	return s.db.RunInTx(ctx, func(tx *sql.Tx) error {
		repo := s.LeagueRepository.WithTx(tx)
		if err := repo.Create(ctx, league); err != nil {
			return err
		}
		owner.LeagueID = league.ID
		return repo.AddParticipant(ctx, owner)
	})
}
