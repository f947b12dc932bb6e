package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/fortuna/frisbee/internal/cache"
	"github.com/fortuna/frisbee/internal/store"
	"github.com/fortuna/frisbee/internal/store/repository"
)

func uniqueErr(constraint string) error {
	return &pq.Error{Code: "23505", Constraint: constraint}
}

type memLeagues struct {
	mu           sync.Mutex
	leagues      map[uuid.UUID]*store.League
	participants []*store.Participant
	nextID       int64
	collisions   int
}

func newMemLeagues() *memLeagues {
	return &memLeagues{leagues: make(map[uuid.UUID]*store.League)}
}

func (m *memLeagues) CreateWithOwner(_ context.Context, l *store.League, owner *store.Participant) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.collisions > 0 {
		m.collisions--
		return uniqueErr(repository.ConstraintJoinCode)
	}
	for _, existing := range m.leagues {
		if existing.JoinCode == l.JoinCode {
			return uniqueErr(repository.ConstraintJoinCode)
		}
	}
	l.ID = uuid.New()
	l.CreatedAt = time.Now()
	stored := *l
	m.leagues[l.ID] = &stored
	owner.LeagueID = l.ID
	return m.addParticipant(owner)
}

func (m *memLeagues) GetByID(_ context.Context, id uuid.UUID) (*store.League, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	l, ok := m.leagues[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return l, nil
}

func (m *memLeagues) GetByJoinCode(_ context.Context, code string) (*store.League, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, l := range m.leagues {
		if l.JoinCode == code {
			return l, nil
		}
	}
	return nil, store.ErrNotFound
}

func (m *memLeagues) ListForUser(_ context.Context, userID uuid.UUID) ([]*store.League, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*store.League
	for _, p := range m.participants {
		if p.UserID == userID {
			out = append(out, m.leagues[p.LeagueID])
		}
	}
	return out, nil
}

func (m *memLeagues) AddParticipant(_ context.Context, p *store.Participant) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.addParticipant(p)
}

func (m *memLeagues) addParticipant(p *store.Participant) error {
	for _, existing := range m.participants {
		if existing.LeagueID == p.LeagueID && existing.UserID == p.UserID {
			return uniqueErr(repository.ConstraintMember)
		}
	}
	m.nextID++
	p.ID = m.nextID
	p.JoinedAt = time.Now()
	m.participants = append(m.participants, p)
	return nil
}

func (m *memLeagues) RemoveParticipant(_ context.Context, leagueID, userID uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, p := range m.participants {
		if p.LeagueID == leagueID && p.UserID == userID {
			m.participants = append(m.participants[:i], m.participants[i+1:]...)
			return nil
		}
	}
	return store.ErrNotFound
}

func (m *memLeagues) GetParticipant(_ context.Context, leagueID, userID uuid.UUID) (*store.Participant, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range m.participants {
		if p.LeagueID == leagueID && p.UserID == userID {
			return p, nil
		}
	}
	return nil, store.ErrNotFound
}

func (m *memLeagues) ListParticipants(_ context.Context, leagueID uuid.UUID) ([]*store.Participant, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*store.Participant
	for _, p := range m.participants {
		if p.LeagueID == leagueID {
			out = append(out, p)
		}
	}
	return out, nil
}

type memStats struct {
	rows  []store.PlayerStat
	calls int
}

func (m *memStats) ListByTeam(_ context.Context, team string) ([]store.PlayerStat, error) {
	m.calls++
	var out []store.PlayerStat
	for _, r := range m.rows {
		if team == "" || r.PlayerTeam == team {
			out = append(out, r)
		}
	}
	return out, nil
}

func (m *memStats) ListByPlayer(_ context.Context, name, team string) ([]store.PlayerStat, error) {
	var out []store.PlayerStat
	for _, r := range m.rows {
		if r.PlayerName == name && r.PlayerTeam == team {
			out = append(out, r)
		}
	}
	return out, nil
}

type memRosters struct {
	rows   []*store.RosterPlayer
	nextID int64
}

func (m *memRosters) ListForMember(_ context.Context, leagueID, userID uuid.UUID) ([]*store.RosterPlayer, error) {
	var out []*store.RosterPlayer
	for _, r := range m.rows {
		if r.LeagueID == leagueID && r.UserID == userID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (m *memRosters) ListForLeague(_ context.Context, leagueID uuid.UUID) ([]*store.RosterPlayer, error) {
	var out []*store.RosterPlayer
	for _, r := range m.rows {
		if r.LeagueID == leagueID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (m *memRosters) Add(_ context.Context, p *store.RosterPlayer) error {
	for _, r := range m.rows {
		if r.LeagueID == p.LeagueID && r.UserID == p.UserID && r.Player() == p.Player() {
			return uniqueErr(repository.ConstraintRosterPlayer)
		}
	}
	m.nextID++
	p.ID = m.nextID
	m.rows = append(m.rows, p)
	return nil
}

func (m *memRosters) Remove(_ context.Context, leagueID, userID uuid.UUID, id int64) error {
	for i, r := range m.rows {
		if r.ID == id && r.LeagueID == leagueID && r.UserID == userID {
			m.rows = append(m.rows[:i], m.rows[i+1:]...)
			return nil
		}
	}
	return store.ErrNotFound
}

type memCache struct {
	mu   sync.Mutex
	data map[string][]byte
}

func newMemCache() *memCache {
	return &memCache{data: make(map[string][]byte)}
}

func (c *memCache) GetJSON(_ context.Context, key string, dst any) error {
	c.mu.Lock()
	raw, ok := c.data[key]
	c.mu.Unlock()
	if !ok {
		return cache.ErrMiss
	}
	return json.Unmarshal(raw, dst)
}

func (c *memCache) SetJSON(_ context.Context, key string, v any, _ time.Duration) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return err
	}
	c.mu.Lock()
	c.data[key] = raw
	c.mu.Unlock()
	return nil
}

func (c *memCache) DeletePrefix(_ context.Context, prefix string) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for k := range c.data {
		if strings.HasPrefix(k, prefix) {
			delete(c.data, k)
			n++
		}
	}
	return n, nil
}

func (c *memCache) len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.data)
}

// gatedStats holds ListByTeam open until release is closed.
type gatedStats struct {
	*memStats
	started chan struct{}
	release chan struct{}
	once    sync.Once
	mu      sync.Mutex
}

func newGatedStats(inner *memStats) *gatedStats {
	return &gatedStats{
		memStats: inner,
		started:  make(chan struct{}),
		release:  make(chan struct{}),
	}
}

func (g *gatedStats) ListByTeam(ctx context.Context, team string) ([]store.PlayerStat, error) {
	g.once.Do(func() { close(g.started) })
	select {
	case <-g.release:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.memStats.ListByTeam(ctx, team)
}

func (g *gatedStats) computeCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.memStats.calls
}

func stat(name, team, tournament, game, ts string, goals, assists, ds int) store.PlayerStat {
	return store.PlayerStat{
		PlayerName:       name,
		PlayerTeam:       team,
		TournamentPlayed: tournament,
		GamePlayed:       game,
		Timestamp:        nullString(ts),
		Goals:            goals,
		Assists:          assists,
		Ds:               ds,
	}
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
