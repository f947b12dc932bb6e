package main

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/fortuna/frisbee/internal/api/auth"
	"github.com/fortuna/frisbee/internal/api/rest"
	"github.com/fortuna/frisbee/internal/cache"
	"github.com/fortuna/frisbee/internal/config"
	"github.com/fortuna/frisbee/internal/importer"
	"github.com/fortuna/frisbee/internal/ingest"
	"github.com/fortuna/frisbee/internal/logging"
	"github.com/fortuna/frisbee/internal/metrics"
	"github.com/fortuna/frisbee/internal/publisher"
	"github.com/fortuna/frisbee/internal/scheduler"
	"github.com/fortuna/frisbee/internal/service"
	"github.com/fortuna/frisbee/internal/store"
	"github.com/fortuna/frisbee/internal/store/repository"
)

const (
	serviceName    = "frisbee"
	serviceVersion = "1.0.0"

	redisMaxRetries = 30
	redisRetryDelay = 2 * time.Second
)

func main() {
	if err := run(); err != nil {
		log.Fatal().Err(err).Msg("frisbee exited")
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(ctx)
	if err != nil {
		return err
	}
	if err := logging.Setup(cfg.Environment, cfg.LogLevel); err != nil {
		return err
	}
	log.Info().Str("service", serviceName).Str("version", serviceVersion).Str("env", cfg.Environment).Msg("starting")

	db, err := store.NewDatabase(ctx, cfg.Database)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer db.Close()

	if err := db.RunMigrations(); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}
	log.Info().Msg("database migrations applied")

	redisCache, err := connectRedis(ctx, cfg.Redis.URL)
	if err != nil {
		return err
	}
	defer redisCache.Close()

	m := metrics.New()

	// Domain services
	statsRepo := repository.NewStatsRepository(db)
	rosterRepo := repository.NewRosterRepository(db)
	leagues := service.NewLeagueService(service.NewLeagueStore(db), logging.Component("leagues"))
	pool := service.NewPlayerPoolService(statsRepo, redisCache, cfg.Pool.CacheTTL, m, logging.Component("pool"))
	rosters := service.NewRosterService(leagues, pool, rosterRepo, logging.Component("rosters"))
	standings := service.NewStandingsService(leagues, pool, rosterRepo)

	// Imports
	fetcher := ingest.NewFetcher(cfg.Import.FetchTimeout, logging.Component("fetcher"))
	events := publisher.NewRedisPublisher(redisCache.Client(), cfg.Redis.Stream)
	runner := importer.NewRunner(fetcher, importer.NewDBStatsWriter(db), events, m)
	imports := importer.NewService(
		importer.NewRepository(db),
		runner,
		cfg.Import.PollInterval,
		cfg.Import.HistoryLimit,
		logging.Component("importer"),
	)

	sched, err := scheduler.New(logging.Component("scheduler"))
	if err != nil {
		return fmt.Errorf("create scheduler: %w", err)
	}
	if scheduled, err := sched.ScheduleImports(imports, cfg.Import); err != nil {
		return fmt.Errorf("schedule imports: %w", err)
	} else if scheduled {
		log.Info().Str("cron", cfg.Import.Cron).Str("source", cfg.Import.Source).Msg("recurring import scheduled")
	}

	server := rest.NewServer(cfg.HTTP.Port, rest.Deps{
		Leagues:   leagues,
		Players:   pool,
		Rosters:   rosters,
		Standings: standings,
		Imports:   imports,
		Verifier:  auth.NewVerifier(cfg.Auth.JWTSecret),
		Metrics:   m,
		Health: map[string]rest.HealthChecker{
			"database": db,
			"redis":    redisCache,
		},
		AllowedOrigins: cfg.HTTP.AllowedOrigins,
		Logger:         logging.Component("http"),
	})

	listener := publisher.NewListener(redisCache.Client(), cfg.Redis.Stream, logging.Component("listener"))

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return server.Start()
	})

	g.Go(func() error {
		return listener.Listen(gctx, func(ctx context.Context, ev publisher.StatsImported) error {
			n, err := pool.InvalidatePools(ctx)
			if err != nil {
				return err
			}
			log.Info().Int("rows", ev.Rows).Int("keys", n).Msg("player pools invalidated")
			return nil
		})
	})

	imports.Start()
	sched.Start()

	g.Go(func() error {
		<-gctx.Done()
		log.Info().Msg("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
		defer cancel()

		return errors.Join(
			server.Shutdown(shutdownCtx),
			sched.Stop(),
			imports.Shutdown(shutdownCtx),
		)
	})

	if err := g.Wait(); err != nil {
		return err
	}
	log.Info().Msg("frisbee stopped")
	return nil
}

func connectRedis(ctx context.Context, url string) (*cache.RedisCache, error) {
	var lastErr error
	for attempt := 1; attempt <= redisMaxRetries; attempt++ {
		c, err := cache.NewRedisCache(ctx, url)
		if err == nil {
			log.Info().Msg("connected to redis")
			return c, nil
		}
		lastErr = err
		log.Warn().Err(err).Int("attempt", attempt).Int("max", redisMaxRetries).Msg("redis connection failed")

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(redisRetryDelay):
		}
	}
	return nil, fmt.Errorf("connect redis after %d attempts: %w", redisMaxRetries, lastErr)
}
