package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/fortuna/frisbee/internal/fantasy"
)

// StandingsService ranks a league's participants.
type StandingsService struct {
	leagues *LeagueService
	pool    *PlayerPoolService
	rosters RosterStore
}

// NewStandingsService creates a new standings service
func NewStandingsService(leagues *LeagueService, pool *PlayerPoolService, rosters RosterStore) *StandingsService {
	return &StandingsService{leagues: leagues, pool: pool, rosters: rosters}
}

// Standings totals every participant's roster and ranks them.
func (s *StandingsService) Standings(ctx context.Context, userID, leagueID uuid.UUID) ([]fantasy.Standing, error) {
	league, _, err := s.leagues.Membership(ctx, userID, leagueID)
	if err != nil {
		return nil, err
	}

	participants, err := s.leagues.leagues.ListParticipants(ctx, leagueID)
	if err != nil {
		return nil, fmt.Errorf("fetching participants: %w", err)
	}
	rows, err := s.rosters.ListForLeague(ctx, leagueID)
	if err != nil {
		return nil, fmt.Errorf("fetching league rosters: %w", err)
	}
	pool, err := s.pool.PlayerPool(ctx, league)
	if err != nil {
		return nil, err
	}

	entries := make(map[uuid.UUID][]fantasy.RosterEntry, len(participants))
	for _, row := range rows {
		entry := fantasy.RosterEntry{Player: row.Player(), Position: row.Position}
		if p, ok := pool.Lookup(row.Player()); ok {
			stats := p.Stats.Stats
			entry.Stats = &stats
		}
		entries[row.UserID] = append(entries[row.UserID], entry)
	}

	standings := make([]fantasy.Standing, 0, len(participants))
	for _, p := range participants {
		standings = append(standings, fantasy.Standing{
			UserID:      p.UserID.String(),
			DisplayName: p.DisplayName,
			Points:      fantasy.RosterPoints(entries[p.UserID]),
			Players:     len(entries[p.UserID]),
		})
	}
	return fantasy.RankStandings(standings), nil
}
