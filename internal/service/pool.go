package service

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"slices"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"github.com/fortuna/frisbee/internal/cache"
	"github.com/fortuna/frisbee/internal/fantasy"
	"github.com/fortuna/frisbee/internal/metrics"
	"github.com/fortuna/frisbee/internal/store"
)

// PoolKeyPrefix prefixes every cached player pool.
const PoolKeyPrefix = "pool:"

// poolComputeTimeout bounds a shared pool computation, which outlives the
// request that started it.
const poolComputeTimeout = 30 * time.Second

// PoolPlayer is one selectable player with the numbers a league shows.
// Price is zero in draft leagues.
type PoolPlayer struct {
	Name   string                  `json:"name"`
	Team   string                  `json:"team"`
	Price  int                     `json:"price,omitempty"`
	Scores fantasy.RoleScores      `json:"scores"`
	Stats  fantasy.TournamentStats `json:"stats"`
}

// Key returns the player's identity.
func (p PoolPlayer) Key() fantasy.PlayerKey {
	return fantasy.PlayerKey{Name: p.Name, Team: p.Team}
}

// Pool is a computed player pool with a lookup index.
type Pool struct {
	Players []PoolPlayer
	index   map[fantasy.PlayerKey]int
}

// Lookup finds a player in the pool.
func (p *Pool) Lookup(k fantasy.PlayerKey) (PoolPlayer, bool) {
	if p.index == nil {
		p.index = make(map[fantasy.PlayerKey]int, len(p.Players))
		for i, pl := range p.Players {
			p.index[pl.Key()] = i
		}
	}
	i, ok := p.index[k]
	if !ok {
		return PoolPlayer{}, false
	}
	return p.Players[i], true
}

// PlayerPoolService computes and caches league player pools.
type PlayerPoolService struct {
	stats   StatsSource
	cache   PoolCache
	ttl     time.Duration
	metrics *metrics.Metrics
	group   singleflight.Group
	logger  zerolog.Logger

	// generation is bumped by InvalidatePools. A computation that started in
	// an older generation does not write its result to the cache.
	generation atomic.Uint64
}

// NewPlayerPoolService creates a pool service. c and m may be nil.
func NewPlayerPoolService(stats StatsSource, c PoolCache, ttl time.Duration, m *metrics.Metrics, logger zerolog.Logger) *PlayerPoolService {
	return &PlayerPoolService{
		stats:   stats,
		cache:   c,
		ttl:     ttl,
		metrics: m,
		logger:  logger,
	}
}

func poolKey(league *store.League) string {
	return PoolKeyPrefix + string(league.LeagueType) + ":" + league.Team
}

// PlayerPool returns the league's pool, from cache when possible.
func (s *PlayerPoolService) PlayerPool(ctx context.Context, league *store.League) (*Pool, error) {
	key := poolKey(league)

	if s.cache != nil {
		var players []PoolPlayer
		err := s.cache.GetJSON(ctx, key, &players)
		switch {
		case err == nil:
			s.metrics.CacheHit("pool")
			return &Pool{Players: players}, nil
		case !errors.Is(err, cache.ErrMiss):
			s.logger.Warn().Err(err).Str("key", key).Msg("pool cache read failed")
		}
		s.metrics.CacheMiss("pool")
	}

	gen := s.generation.Load()
	ch := s.group.DoChan(key+"#"+strconv.FormatUint(gen, 10), func() (any, error) {
		cctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), poolComputeTimeout)
		defer cancel()

		players, err := s.compute(cctx, league.Team, league.LeagueType)
		if err != nil {
			return nil, err
		}
		if s.cache == nil {
			return players, nil
		}
		if s.generation.Load() != gen {
			s.logger.Debug().Str("key", key).Msg("pools invalidated during compute, skipping cache write")
			return players, nil
		}
		if err := s.cache.SetJSON(cctx, key, players, s.ttl); err != nil {
			s.logger.Warn().Err(err).Str("key", key).Msg("pool cache write failed")
		}
		return players, nil
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return &Pool{Players: res.Val.([]PoolPlayer)}, nil
	}
}

func (s *PlayerPoolService) compute(ctx context.Context, team string, leagueType store.LeagueType) ([]PoolPlayer, error) {
	stats, err := s.stats.ListByTeam(ctx, team)
	if err != nil {
		return nil, fmt.Errorf("fetching player stats: %w", err)
	}
	rows := make([]fantasy.StatRow, 0, len(stats))
	for _, st := range stats {
		rows = append(rows, st.Row())
	}
	return BuildPool(rows, leagueType), nil
}

// BuildPool aggregates rows per player. Salary-cap leagues use each
// player's most recent tournament and get prices; draft leagues use season
// totals. Players are ordered by price, captain score, then name.
func BuildPool(rows []fantasy.StatRow, leagueType store.LeagueType) []PoolPlayer {
	byPlayer := fantasy.GroupByPlayer(rows)
	players := make([]PoolPlayer, 0, len(byPlayer))
	scores := make(map[fantasy.PlayerKey]float64, len(byPlayer))

	for key, playerRows := range byPlayer {
		var agg *fantasy.TournamentStats
		if leagueType == store.LeagueTypeDraft {
			agg = fantasy.SeasonTotals(playerRows)
		} else {
			agg = fantasy.MostRecentTournament(playerRows)
		}
		if agg == nil {
			continue
		}
		players = append(players, PoolPlayer{
			Name:   key.Name,
			Team:   key.Team,
			Scores: fantasy.ScoreAll(agg.Stats),
			Stats:  *agg,
		})
		scores[key] = agg.CaptainScore
	}

	if leagueType != store.LeagueTypeDraft {
		prices := fantasy.ScalePrices(scores)
		for i := range players {
			players[i].Price = prices[players[i].Key()]
		}
	}

	slices.SortFunc(players, func(a, b PoolPlayer) int {
		if c := cmp.Compare(b.Price, a.Price); c != 0 {
			return c
		}
		if c := cmp.Compare(b.Stats.CaptainScore, a.Stats.CaptainScore); c != 0 {
			return c
		}
		if c := cmp.Compare(a.Name, b.Name); c != 0 {
			return c
		}
		return cmp.Compare(a.Team, b.Team)
	})
	return players
}

// PlayerHistory returns a player's per-tournament aggregates, newest first.
func (s *PlayerPoolService) PlayerHistory(ctx context.Context, name, team string) ([]fantasy.TournamentStats, error) {
	stats, err := s.stats.ListByPlayer(ctx, name, team)
	if err != nil {
		return nil, fmt.Errorf("fetching player stats: %w", err)
	}
	if len(stats) == 0 {
		return nil, ErrPlayerNotFound
	}

	rows := make([]fantasy.StatRow, 0, len(stats))
	for _, st := range stats {
		rows = append(rows, st.Row())
	}
	return fantasy.TournamentBreakdown(rows), nil
}

// InvalidatePools drops every cached pool. Computations already in flight
// still answer their callers but no longer populate the cache.
func (s *PlayerPoolService) InvalidatePools(ctx context.Context) (int, error) {
	s.generation.Add(1)
	if s.cache == nil {
		return 0, nil
	}
	n, err := s.cache.DeletePrefix(ctx, PoolKeyPrefix)
	if err != nil {
		return n, fmt.Errorf("invalidating pools: %w", err)
	}
	return n, nil
}
