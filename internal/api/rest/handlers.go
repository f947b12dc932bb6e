package rest

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/fortuna/frisbee/internal/api/auth"
	"github.com/fortuna/frisbee/internal/fantasy"
	"github.com/fortuna/frisbee/internal/service"
	"github.com/fortuna/frisbee/internal/store"
)

// LeagueService is implemented by *service.LeagueService.
type LeagueService interface {
	CreateLeague(ctx context.Context, in service.CreateLeagueInput) (*store.League, error)
	JoinLeague(ctx context.Context, userID uuid.UUID, code, displayName string) (*store.League, error)
	LeaveLeague(ctx context.Context, userID, leagueID uuid.UUID) error
	ListLeagues(ctx context.Context, userID uuid.UUID) ([]*store.League, error)
	GetLeague(ctx context.Context, userID, leagueID uuid.UUID) (*store.League, error)
	ListParticipants(ctx context.Context, userID, leagueID uuid.UUID) ([]*store.Participant, error)
}

// PlayerService is implemented by *service.PlayerPoolService.
type PlayerService interface {
	PlayerPool(ctx context.Context, league *store.League) (*service.Pool, error)
	PlayerHistory(ctx context.Context, name, team string) ([]fantasy.TournamentStats, error)
}

// RosterService is implemented by *service.RosterService.
type RosterService interface {
	GetRoster(ctx context.Context, userID, leagueID uuid.UUID) (*service.Roster, error)
	AddPlayer(ctx context.Context, userID, leagueID uuid.UUID, in service.AddPlayerInput) (*store.RosterPlayer, error)
	RemovePlayer(ctx context.Context, userID, leagueID uuid.UUID, rosterPlayerID int64) error
	ValidateRoster(slots []fantasy.Slot) error
}

// StandingsService is implemented by *service.StandingsService.
type StandingsService interface {
	Standings(ctx context.Context, userID, leagueID uuid.UUID) ([]fantasy.Standing, error)
}

// HealthChecker is a dependency that can be probed.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// Handler contains dependencies for HTTP handlers
type Handler struct {
	leagues   LeagueService
	players   PlayerService
	rosters   RosterService
	standings StandingsService
	health    map[string]HealthChecker
}

// NewHandler creates a new handler
func NewHandler(deps Deps) *Handler {
	return &Handler{
		leagues:   deps.Leagues,
		players:   deps.Players,
		rosters:   deps.Rosters,
		standings: deps.Standings,
		health:    deps.Health,
	}
}

// HealthCheck probes the database and cache.
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	status := http.StatusOK
	checks := make(map[string]string, len(h.health))
	for name, checker := range h.health {
		if err := checker.HealthCheck(ctx); err != nil {
			checks[name] = err.Error()
			status = http.StatusServiceUnavailable
			continue
		}
		checks[name] = "ok"
	}

	state := "healthy"
	if status != http.StatusOK {
		state = "degraded"
	}
	respondJSON(w, status, map[string]interface{}{
		"status":  state,
		"service": "frisbee",
		"checks":  checks,
	})
}

type createLeagueRequest struct {
	Name        string           `json:"name"`
	Team        string           `json:"team"`
	LeagueType  store.LeagueType `json:"league_type"`
	DisplayName string           `json:"display_name"`
}

// ListLeagues returns the caller's leagues
func (h *Handler) ListLeagues(w http.ResponseWriter, r *http.Request) {
	user := currentUser(r)
	leagues, err := h.leagues.ListLeagues(r.Context(), user.ID)
	if err != nil {
		respondServiceError(w, r, "Failed to fetch leagues", err)
		return
	}
	respondJSON(w, http.StatusOK, leagues)
}

// CreateLeague creates a league owned by the caller
func (h *Handler) CreateLeague(w http.ResponseWriter, r *http.Request) {
	var req createLeagueRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	user := currentUser(r)
	league, err := h.leagues.CreateLeague(r.Context(), service.CreateLeagueInput{
		OwnerID:     user.ID,
		DisplayName: displayNameOr(req.DisplayName, user),
		Name:        req.Name,
		Team:        req.Team,
		LeagueType:  req.LeagueType,
	})
	if err != nil {
		respondServiceError(w, r, "Failed to create league", err)
		return
	}
	respondJSON(w, http.StatusCreated, league)
}

type joinLeagueRequest struct {
	JoinCode    string `json:"join_code"`
	DisplayName string `json:"display_name"`
}

// JoinLeague adds the caller to the league with the given code
func (h *Handler) JoinLeague(w http.ResponseWriter, r *http.Request) {
	var req joinLeagueRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	user := currentUser(r)
	league, err := h.leagues.JoinLeague(r.Context(), user.ID, req.JoinCode, displayNameOr(req.DisplayName, user))
	if err != nil {
		respondServiceError(w, r, "Failed to join league", err)
		return
	}
	respondJSON(w, http.StatusOK, league)
}

// GetLeague returns one of the caller's leagues
func (h *Handler) GetLeague(w http.ResponseWriter, r *http.Request) {
	leagueID, ok := leagueIDParam(w, r)
	if !ok {
		return
	}

	league, err := h.leagues.GetLeague(r.Context(), currentUser(r).ID, leagueID)
	if err != nil {
		respondServiceError(w, r, "Failed to fetch league", err)
		return
	}
	respondJSON(w, http.StatusOK, league)
}

// LeaveLeague removes the caller from a league
func (h *Handler) LeaveLeague(w http.ResponseWriter, r *http.Request) {
	leagueID, ok := leagueIDParam(w, r)
	if !ok {
		return
	}

	if err := h.leagues.LeaveLeague(r.Context(), currentUser(r).ID, leagueID); err != nil {
		respondServiceError(w, r, "Failed to leave league", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ListParticipants returns a league's members
func (h *Handler) ListParticipants(w http.ResponseWriter, r *http.Request) {
	leagueID, ok := leagueIDParam(w, r)
	if !ok {
		return
	}

	participants, err := h.leagues.ListParticipants(r.Context(), currentUser(r).ID, leagueID)
	if err != nil {
		respondServiceError(w, r, "Failed to fetch participants", err)
		return
	}
	respondJSON(w, http.StatusOK, participants)
}

// GetPlayerPool returns the league's selectable players
func (h *Handler) GetPlayerPool(w http.ResponseWriter, r *http.Request) {
	leagueID, ok := leagueIDParam(w, r)
	if !ok {
		return
	}

	league, err := h.leagues.GetLeague(r.Context(), currentUser(r).ID, leagueID)
	if err != nil {
		respondServiceError(w, r, "Failed to fetch league", err)
		return
	}
	pool, err := h.players.PlayerPool(r.Context(), league)
	if err != nil {
		respondServiceError(w, r, "Failed to build player pool", err)
		return
	}

	players := pool.Players
	if players == nil {
		players = []service.PoolPlayer{}
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"league_id":   league.ID,
		"league_type": league.LeagueType,
		"players":     players,
	})
}

// GetStandings ranks the league's participants
func (h *Handler) GetStandings(w http.ResponseWriter, r *http.Request) {
	leagueID, ok := leagueIDParam(w, r)
	if !ok {
		return
	}

	standings, err := h.standings.Standings(r.Context(), currentUser(r).ID, leagueID)
	if err != nil {
		respondServiceError(w, r, "Failed to compute standings", err)
		return
	}
	respondJSON(w, http.StatusOK, standings)
}

// GetRoster returns the caller's roster in a league
func (h *Handler) GetRoster(w http.ResponseWriter, r *http.Request) {
	leagueID, ok := leagueIDParam(w, r)
	if !ok {
		return
	}

	roster, err := h.rosters.GetRoster(r.Context(), currentUser(r).ID, leagueID)
	if err != nil {
		respondServiceError(w, r, "Failed to fetch roster", err)
		return
	}
	respondJSON(w, http.StatusOK, roster)
}

type addRosterPlayerRequest struct {
	Position   string `json:"position"`
	PlayerName string `json:"player_name"`
	PlayerTeam string `json:"player_team"`
}

// AddRosterPlayer puts a pool player on the caller's roster
func (h *Handler) AddRosterPlayer(w http.ResponseWriter, r *http.Request) {
	leagueID, ok := leagueIDParam(w, r)
	if !ok {
		return
	}

	var req addRosterPlayerRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	row, err := h.rosters.AddPlayer(r.Context(), currentUser(r).ID, leagueID, service.AddPlayerInput{
		Position: req.Position,
		Name:     req.PlayerName,
		Team:     req.PlayerTeam,
	})
	if err != nil {
		respondServiceError(w, r, "Failed to add player", err)
		return
	}
	respondJSON(w, http.StatusCreated, row)
}

// RemoveRosterPlayer drops a player from the caller's roster
func (h *Handler) RemoveRosterPlayer(w http.ResponseWriter, r *http.Request) {
	leagueID, ok := leagueIDParam(w, r)
	if !ok {
		return
	}

	id, err := strconv.ParseInt(mux.Vars(r)["rosterPlayerID"], 10, 64)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid roster player ID", err)
		return
	}

	if err := h.rosters.RemovePlayer(r.Context(), currentUser(r).ID, leagueID, id); err != nil {
		respondServiceError(w, r, "Failed to remove player", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type validateRosterRequest struct {
	Slots []fantasy.Slot `json:"slots"`
}

type validateRosterResponse struct {
	Valid      bool   `json:"valid"`
	Reason     string `json:"reason,omitempty"`
	TotalPrice int    `json:"total_price"`
	Budget     int    `json:"budget"`
}

// ValidateRoster checks a roster snapshot without saving it
func (h *Handler) ValidateRoster(w http.ResponseWriter, r *http.Request) {
	var req validateRosterRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	resp := validateRosterResponse{
		Valid:      true,
		TotalPrice: fantasy.TotalPrice(req.Slots),
		Budget:     fantasy.DefaultRules().Budget,
	}
	if err := h.rosters.ValidateRoster(req.Slots); err != nil {
		resp.Valid = false
		resp.Reason = err.Error()
	}
	respondJSON(w, http.StatusOK, resp)
}

// GetPlayerHistory returns a player's per-tournament aggregates
func (h *Handler) GetPlayerHistory(w http.ResponseWriter, r *http.Request) {
	name := strings.TrimSpace(r.URL.Query().Get("name"))
	if name == "" {
		respondError(w, http.StatusBadRequest, "Query parameter 'name' is required", nil)
		return
	}
	team := strings.TrimSpace(r.URL.Query().Get("team"))

	history, err := h.players.PlayerHistory(r.Context(), name, team)
	if err != nil {
		respondServiceError(w, r, "Failed to fetch player history", err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"name":        name,
		"team":        team,
		"tournaments": history,
	})
}

func currentUser(r *http.Request) *auth.User {
	user, _ := auth.UserFromContext(r.Context())
	return user
}

func displayNameOr(name string, user *auth.User) string {
	if strings.TrimSpace(name) != "" {
		return name
	}
	if user.Email != "" {
		local, _, _ := strings.Cut(user.Email, "@")
		return local
	}
	return ""
}

func leagueIDParam(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(mux.Vars(r)["leagueID"])
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid league ID", err)
		return uuid.Nil, false
	}
	return id, true
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20))
	dec.DisallowUnknownFields()
	return dec.Decode(dst)
}
