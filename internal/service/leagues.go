package service

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/fortuna/frisbee/internal/store"
	"github.com/fortuna/frisbee/internal/store/repository"
)

const (
	joinCodeLength   = 6
	joinCodeAttempts = 5

	// No 0/O or 1/I. Its length divides 256, so byte-modulo is unbiased.
	joinCodeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

	maxLeagueNameLength = 100
)

// CreateLeagueInput describes a new league.
type CreateLeagueInput struct {
	OwnerID     uuid.UUID
	DisplayName string
	Name        string
	Team        string
	LeagueType  store.LeagueType
}

// LeagueService handles league membership.
type LeagueService struct {
	leagues LeagueStore
	newCode func() (string, error)
	logger  zerolog.Logger
}

// NewLeagueService creates a new league service
func NewLeagueService(leagues LeagueStore, logger zerolog.Logger) *LeagueService {
	return &LeagueService{
		leagues: leagues,
		newCode: generateJoinCode,
		logger:  logger,
	}
}

// CreateLeague creates a league with the owner as its first participant.
// Join-code collisions are retried with a fresh code.
func (s *LeagueService) CreateLeague(ctx context.Context, in CreateLeagueInput) (*store.League, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" || len(name) > maxLeagueNameLength {
		return nil, fmt.Errorf("%w: name must be 1-%d characters", ErrInvalidLeague, maxLeagueNameLength)
	}
	if in.LeagueType == "" {
		in.LeagueType = store.LeagueTypeSalaryCap
	}
	if !in.LeagueType.Valid() {
		return nil, fmt.Errorf("%w: unknown league type %q", ErrInvalidLeague, in.LeagueType)
	}

	for attempt := 1; ; attempt++ {
		code, err := s.newCode()
		if err != nil {
			return nil, fmt.Errorf("generating join code: %w", err)
		}

		league := &store.League{
			Name:       name,
			Team:       strings.TrimSpace(in.Team),
			LeagueType: in.LeagueType,
			JoinCode:   code,
			OwnerID:    in.OwnerID,
		}
		owner := &store.Participant{
			UserID:      in.OwnerID,
			DisplayName: displayName(in.DisplayName, in.OwnerID),
		}

		err = s.leagues.CreateWithOwner(ctx, league, owner)
		if err == nil {
			s.logger.Info().
				Str("league_id", league.ID.String()).
				Str("owner_id", in.OwnerID.String()).
				Str("league_type", string(league.LeagueType)).
				Msg("league created")
			return league, nil
		}
		if !store.IsUniqueViolation(err, repository.ConstraintJoinCode) || attempt >= joinCodeAttempts {
			return nil, fmt.Errorf("creating league: %w", err)
		}
		s.logger.Debug().Int("attempt", attempt).Msg("join code collision, retrying")
	}
}

// JoinLeague adds the user to the league identified by code.
func (s *LeagueService) JoinLeague(ctx context.Context, userID uuid.UUID, code, name string) (*store.League, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" {
		return nil, ErrLeagueNotFound
	}

	league, err := s.leagues.GetByJoinCode(ctx, code)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrLeagueNotFound
	}
	if err != nil {
		return nil, err
	}

	p := &store.Participant{
		LeagueID:    league.ID,
		UserID:      userID,
		DisplayName: displayName(name, userID),
	}
	if err := s.leagues.AddParticipant(ctx, p); err != nil {
		if store.IsUniqueViolation(err, repository.ConstraintMember) {
			return nil, ErrAlreadyMember
		}
		return nil, err
	}

	s.logger.Info().
		Str("league_id", league.ID.String()).
		Str("user_id", userID.String()).
		Msg("participant joined")
	return league, nil
}

// LeaveLeague removes the user's membership. Their roster rows cascade.
func (s *LeagueService) LeaveLeague(ctx context.Context, userID, leagueID uuid.UUID) error {
	league, _, err := s.Membership(ctx, userID, leagueID)
	if err != nil {
		return err
	}
	if league.OwnerID == userID {
		return ErrOwnerCannotLeave
	}

	if err := s.leagues.RemoveParticipant(ctx, leagueID, userID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrNotMember
		}
		return err
	}
	return nil
}

// ListLeagues returns the leagues the user participates in.
func (s *LeagueService) ListLeagues(ctx context.Context, userID uuid.UUID) ([]*store.League, error) {
	leagues, err := s.leagues.ListForUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("fetching leagues: %w", err)
	}
	if leagues == nil {
		leagues = []*store.League{}
	}
	return leagues, nil
}

// GetLeague returns a league the user belongs to.
func (s *LeagueService) GetLeague(ctx context.Context, userID, leagueID uuid.UUID) (*store.League, error) {
	league, _, err := s.Membership(ctx, userID, leagueID)
	return league, err
}

// ListParticipants lists a league's members for one of its members.
func (s *LeagueService) ListParticipants(ctx context.Context, userID, leagueID uuid.UUID) ([]*store.Participant, error) {
	if _, _, err := s.Membership(ctx, userID, leagueID); err != nil {
		return nil, err
	}
	return s.leagues.ListParticipants(ctx, leagueID)
}

// Membership loads the league and the user's participant row, failing with
// ErrLeagueNotFound or ErrNotMember.
func (s *LeagueService) Membership(ctx context.Context, userID, leagueID uuid.UUID) (*store.League, *store.Participant, error) {
	league, err := s.leagues.GetByID(ctx, leagueID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, nil, ErrLeagueNotFound
	}
	if err != nil {
		return nil, nil, err
	}

	p, err := s.leagues.GetParticipant(ctx, leagueID, userID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, nil, ErrNotMember
	}
	if err != nil {
		return nil, nil, err
	}
	return league, p, nil
}

func displayName(name string, userID uuid.UUID) string {
	if name = strings.TrimSpace(name); name != "" {
		return name
	}
	return "player-" + userID.String()[:8]
}

func generateJoinCode() (string, error) {
	buf := make([]byte, joinCodeLength)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	for i, b := range buf {
		buf[i] = joinCodeAlphabet[int(b)%len(joinCodeAlphabet)]
	}
	return string(buf), nil
}
