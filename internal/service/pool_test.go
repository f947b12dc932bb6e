package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	. "github.com/smartystreets/goconvey/convey"

	"github.com/fortuna/frisbee/internal/fantasy"
	"github.com/fortuna/frisbee/internal/metrics"
	"github.com/fortuna/frisbee/internal/store"
)

func sampleStats() *memStats {
	return &memStats{rows: []store.PlayerStat{
		stat("Alice", "Sharks", "Spring Open", "R1", "2024-04-01", 2, 2, 1),
		stat("Alice", "Sharks", "Spring Open", "R2", "2024-04-01", 1, 0, 0),
		stat("Alice", "Sharks", "Winter Cup", "R1", "2024-01-10", 5, 5, 5),
		stat("Bob", "Sharks", "Spring Open", "R1", "2024-04-01", 0, 1, 0),
		stat("Cara", "Owls", "Spring Open", "R1", "2024-04-01", 3, 3, 3),
	}}
}

func TestBuildPool(t *testing.T) {
	Convey("Given stat rows for two players", t, func() {
		var rows []fantasy.StatRow
		for _, st := range sampleStats().rows[:4] {
			rows = append(rows, st.Row())
		}

		Convey("Salary cap pools use the latest tournament and prices", func() {
			pool := BuildPool(rows, store.LeagueTypeSalaryCap)

			So(pool, ShouldHaveLength, 2)
			So(pool[0].Name, ShouldEqual, "Alice")
			So(pool[0].Price, ShouldEqual, fantasy.MaxPrice)
			So(pool[0].Stats.Tournament, ShouldEqual, "Spring Open")
			So(pool[0].Stats.GamesPlayed, ShouldEqual, 2)
			So(pool[0].Scores.Captain, ShouldEqual, 24.0)
			So(pool[1].Name, ShouldEqual, "Bob")
			So(pool[1].Price, ShouldEqual, fantasy.MinPrice)
		})

		Convey("Draft pools use season totals without prices", func() {
			pool := BuildPool(rows, store.LeagueTypeDraft)

			So(pool[0].Name, ShouldEqual, "Alice")
			So(pool[0].Price, ShouldEqual, 0)
			So(pool[0].Stats.GamesPlayed, ShouldEqual, 3)
			So(pool[0].Stats.Stats.Goals, ShouldEqual, 8)
		})

		Convey("An empty input builds an empty pool", func() {
			So(BuildPool(nil, store.LeagueTypeSalaryCap), ShouldBeEmpty)
		})
	})
}

func TestPlayerPoolService(t *testing.T) {
	Convey("Given a cached pool service", t, func() {
		ctx := context.Background()
		stats := sampleStats()
		c := newMemCache()
		m := metrics.New()
		svc := NewPlayerPoolService(stats, c, time.Minute, m, zerolog.Nop())
		league := &store.League{Team: "Sharks", LeagueType: store.LeagueTypeSalaryCap}

		Convey("The second request is served from cache", func() {
			first, err := svc.PlayerPool(ctx, league)
			So(err, ShouldBeNil)
			So(first.Players, ShouldHaveLength, 2)

			second, err := svc.PlayerPool(ctx, league)
			So(err, ShouldBeNil)
			So(second.Players, ShouldResemble, first.Players)
			So(stats.calls, ShouldEqual, 1)

			_, ok := second.Lookup(fantasy.PlayerKey{Name: "Bob", Team: "Sharks"})
			So(ok, ShouldBeTrue)
			_, ok = second.Lookup(fantasy.PlayerKey{Name: "Cara", Team: "Owls"})
			So(ok, ShouldBeFalse)
		})

		Convey("Invalidation forces recomputation", func() {
			_, _ = svc.PlayerPool(ctx, league)
			n, err := svc.InvalidatePools(ctx)
			So(err, ShouldBeNil)
			So(n, ShouldEqual, 1)

			_, _ = svc.PlayerPool(ctx, league)
			So(stats.calls, ShouldEqual, 2)
		})

		Convey("An empty team covers every team", func() {
			pool, err := svc.PlayerPool(ctx, &store.League{LeagueType: store.LeagueTypeDraft})
			So(err, ShouldBeNil)
			So(pool.Players, ShouldHaveLength, 3)
		})

		Convey("History lists tournaments newest first", func() {
			history, err := svc.PlayerHistory(ctx, "Alice", "Sharks")
			So(err, ShouldBeNil)
			So(history, ShouldHaveLength, 2)
			So(history[0].Tournament, ShouldEqual, "Spring Open")
			So(history[1].Tournament, ShouldEqual, "Winter Cup")

			_, err = svc.PlayerHistory(ctx, "Nobody", "Sharks")
			So(err, ShouldEqual, ErrPlayerNotFound)
		})
	})
}

func TestPlayerPoolServiceSharedCompute(t *testing.T) {
	Convey("Given a pool computation that is still loading stats", t, func() {
		stats := newGatedStats(sampleStats())
		c := newMemCache()
		svc := NewPlayerPoolService(stats, c, time.Minute, metrics.New(), zerolog.Nop())
		league := &store.League{Team: "Sharks", LeagueType: store.LeagueTypeSalaryCap}

		type result struct {
			pool *Pool
			err  error
		}
		fetch := func(ctx context.Context) <-chan result {
			out := make(chan result, 1)
			go func() {
				pool, err := svc.PlayerPool(ctx, league)
				out <- result{pool, err}
			}()
			return out
		}

		Convey("Cancelling the first caller does not fail the others", func() {
			firstCtx, cancel := context.WithCancel(context.Background())
			first := fetch(firstCtx)
			<-stats.started

			second := fetch(context.Background())
			time.Sleep(20 * time.Millisecond)

			cancel()
			res := <-first
			So(errors.Is(res.err, context.Canceled), ShouldBeTrue)

			close(stats.release)
			res = <-second
			So(res.err, ShouldBeNil)
			So(res.pool.Players, ShouldHaveLength, 2)
			So(stats.computeCount(), ShouldEqual, 1)
			So(c.len(), ShouldEqual, 1)
		})

		Convey("An invalidation during the computation keeps its result out of the cache", func() {
			pending := fetch(context.Background())
			<-stats.started

			_, err := svc.InvalidatePools(context.Background())
			So(err, ShouldBeNil)

			close(stats.release)
			res := <-pending
			So(res.err, ShouldBeNil)
			So(res.pool.Players, ShouldHaveLength, 2)
			So(c.len(), ShouldEqual, 0)

			_, err = svc.PlayerPool(context.Background(), league)
			So(err, ShouldBeNil)
			So(stats.computeCount(), ShouldEqual, 2)
			So(c.len(), ShouldEqual, 1)
		})
	})
}
