package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/fortuna/frisbee/internal/fantasy"
	"github.com/fortuna/frisbee/internal/store"
	"github.com/fortuna/frisbee/internal/store/repository"
)

// RosterSlot is a rostered player enriched from the pool.
type RosterSlot struct {
	ID       int64            `json:"id"`
	Position fantasy.Position `json:"position"`
	Name     string           `json:"name"`
	Team     string           `json:"team"`
	Price    int              `json:"price,omitempty"`
	Points   float64          `json:"points"`
}

// Roster is one participant's roster in a league.
type Roster struct {
	LeagueID   uuid.UUID    `json:"league_id"`
	UserID     uuid.UUID    `json:"user_id"`
	Players    []RosterSlot `json:"players"`
	TotalPrice int          `json:"total_price"`
	Budget     int          `json:"budget,omitempty"`
	Points     float64      `json:"points"`
}

// AddPlayerInput names the player and position to roster.
type AddPlayerInput struct {
	Position string
	Name     string
	Team     string
}

// RosterService handles roster changes.
type RosterService struct {
	leagues *LeagueService
	pool    *PlayerPoolService
	rosters RosterStore
	logger  zerolog.Logger
}

// NewRosterService creates a new roster service
func NewRosterService(leagues *LeagueService, pool *PlayerPoolService, rosters RosterStore, logger zerolog.Logger) *RosterService {
	return &RosterService{
		leagues: leagues,
		pool:    pool,
		rosters: rosters,
		logger:  logger,
	}
}

// rulesFor returns the ceilings of a league type. Draft leagues have no
// budget.
func rulesFor(t store.LeagueType) fantasy.Rules {
	rules := fantasy.DefaultRules()
	if t == store.LeagueTypeDraft {
		rules.Budget = math.MaxInt
	}
	return rules
}

// GetRoster returns the user's roster with pool prices and points.
func (s *RosterService) GetRoster(ctx context.Context, userID, leagueID uuid.UUID) (*Roster, error) {
	league, _, err := s.leagues.Membership(ctx, userID, leagueID)
	if err != nil {
		return nil, err
	}

	rows, err := s.rosters.ListForMember(ctx, leagueID, userID)
	if err != nil {
		return nil, fmt.Errorf("fetching roster: %w", err)
	}
	pool, err := s.pool.PlayerPool(ctx, league)
	if err != nil {
		return nil, err
	}

	roster := &Roster{
		LeagueID: leagueID,
		UserID:   userID,
		Players:  make([]RosterSlot, 0, len(rows)),
	}
	if league.LeagueType == store.LeagueTypeSalaryCap {
		roster.Budget = fantasy.DefaultRules().Budget
	}

	for _, row := range rows {
		slot := RosterSlot{
			ID:       row.ID,
			Position: row.Position,
			Name:     row.PlayerName,
			Team:     row.PlayerTeam,
		}
		if p, ok := pool.Lookup(row.Player()); ok {
			slot.Price = p.Price
			slot.Points = fantasy.ScoreFor(row.Position, p.Stats.Stats)
		}
		roster.TotalPrice += slot.Price
		roster.Points += slot.Points
		roster.Players = append(roster.Players, slot)
	}
	return roster, nil
}

// AddPlayer rosters a pool player after checking the league's rules.
func (s *RosterService) AddPlayer(ctx context.Context, userID, leagueID uuid.UUID, in AddPlayerInput) (*store.RosterPlayer, error) {
	league, _, err := s.leagues.Membership(ctx, userID, leagueID)
	if err != nil {
		return nil, err
	}

	position, err := fantasy.ParsePosition(in.Position)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidRoster, err)
	}
	key := fantasy.PlayerKey{Name: strings.TrimSpace(in.Name), Team: strings.TrimSpace(in.Team)}

	pool, err := s.pool.PlayerPool(ctx, league)
	if err != nil {
		return nil, err
	}
	candidate, ok := pool.Lookup(key)
	if !ok {
		return nil, ErrPlayerNotFound
	}

	current, err := s.rosters.ListForMember(ctx, leagueID, userID)
	if err != nil {
		return nil, fmt.Errorf("fetching roster: %w", err)
	}

	slots := make([]fantasy.Slot, 0, len(current)+1)
	for _, row := range current {
		if row.Player() == key {
			return nil, ErrPlayerOnRoster
		}
		var price int
		if p, ok := pool.Lookup(row.Player()); ok {
			price = p.Price
		}
		slots = append(slots, fantasy.Slot{Position: row.Position, Price: price})
	}
	slots = append(slots, fantasy.Slot{Position: position, Price: candidate.Price})

	if err := rulesFor(league.LeagueType).Validate(slots); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidRoster, err)
	}

	if league.LeagueType == store.LeagueTypeDraft {
		taken, err := s.rosters.ListForLeague(ctx, leagueID)
		if err != nil {
			return nil, fmt.Errorf("fetching league rosters: %w", err)
		}
		for _, row := range taken {
			if row.Player() == key {
				return nil, ErrPlayerTaken
			}
		}
	}

	row := &store.RosterPlayer{
		LeagueID:   leagueID,
		UserID:     userID,
		Position:   position,
		PlayerName: key.Name,
		PlayerTeam: key.Team,
	}
	if err := s.rosters.Add(ctx, row); err != nil {
		if store.IsUniqueViolation(err, repository.ConstraintRosterPlayer) {
			return nil, ErrPlayerOnRoster
		}
		return nil, err
	}

	s.logger.Info().
		Str("league_id", leagueID.String()).
		Str("user_id", userID.String()).
		Str("player", key.Name).
		Str("position", string(position)).
		Msg("player rostered")
	return row, nil
}

// RemovePlayer drops one of the user's roster rows.
func (s *RosterService) RemovePlayer(ctx context.Context, userID, leagueID uuid.UUID, rosterPlayerID int64) error {
	if _, _, err := s.leagues.Membership(ctx, userID, leagueID); err != nil {
		return err
	}
	err := s.rosters.Remove(ctx, leagueID, userID, rosterPlayerID)
	if errors.Is(err, store.ErrNotFound) {
		return ErrPlayerNotFound
	}
	return err
}

// ValidateRoster checks a submitted snapshot against the salary-cap rules.
func (s *RosterService) ValidateRoster(slots []fantasy.Slot) error {
	return fantasy.ValidateRoster(slots)
}
