// Command importstats replaces the player_stats table with the contents of
// a CSV or HTML stat sheet.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/fortuna/frisbee/internal/cache"
	"github.com/fortuna/frisbee/internal/config"
	"github.com/fortuna/frisbee/internal/importer"
	"github.com/fortuna/frisbee/internal/ingest"
	"github.com/fortuna/frisbee/internal/logging"
	"github.com/fortuna/frisbee/internal/metrics"
	"github.com/fortuna/frisbee/internal/publisher"
	"github.com/fortuna/frisbee/internal/store"
)

const (
	appName    = "frisbee-importstats"
	appVersion = "1.0.0"
)

func main() {
	if err := run(); err != nil {
		log.Error().Err(err).Msg("import failed")
		os.Exit(1)
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(ctx)
	if err != nil {
		return err
	}

	var (
		source = flag.String("source", cfg.Import.Source, "CSV/HTML file path or http(s) URL")
		format = flag.String("format", "", "Source format: csv or html (default: from extension)")
		team   = flag.String("team", cfg.Import.DefaultTeam, "Team for rows without a player_team")
		dryRun = flag.Bool("dry-run", false, "Parse and report without writing")
	)
	flag.Parse()

	if err := logging.Setup(cfg.Environment, cfg.LogLevel); err != nil {
		return err
	}
	log.Info().Str("app", appName).Str("version", appVersion).Msg("starting")

	if strings.TrimSpace(*source) == "" {
		flag.Usage()
		return fmt.Errorf("-source is required")
	}
	spec := importer.JobSpec{
		Source:      *source,
		DefaultTeam: *team,
		DryRun:      *dryRun,
	}
	if spec.Format, err = importer.ParseFormat(*format, *source); err != nil {
		return err
	}

	var (
		writer importer.StatsWriter
		events importer.EventPublisher
	)
	if !*dryRun {
		db, err := store.NewDatabase(ctx, cfg.Database)
		if err != nil {
			return fmt.Errorf("connect database: %w", err)
		}
		defer db.Close()
		if err := db.RunMigrations(); err != nil {
			return fmt.Errorf("run migrations: %w", err)
		}
		writer = importer.NewDBStatsWriter(db)

		// Without Redis the import still succeeds; server caches expire on TTL.
		redisCache, err := cache.NewRedisCache(ctx, cfg.Redis.URL)
		if err != nil {
			log.Warn().Err(err).Msg("redis unavailable, import event will not be published")
		} else {
			defer redisCache.Close()
			events = publisher.NewRedisPublisher(redisCache.Client(), cfg.Redis.Stream)
		}
	}

	fetcher := ingest.NewFetcher(cfg.Import.FetchTimeout, logging.Component("fetcher"))
	runner := importer.NewRunner(fetcher, writer, events, metrics.New())

	outcome, err := runner.Run(ctx, spec, &consoleReporter{logger: logging.Component("import")})
	if err != nil {
		return err
	}

	if outcome.DryRun {
		log.Info().Int("rows", outcome.Rows).Strs("teams", outcome.Teams).Msg("dry run complete, nothing written")
		return nil
	}
	log.Info().Int("rows", outcome.Rows).Strs("teams", outcome.Teams).Msg("player_stats replaced")
	return nil
}

type consoleReporter struct {
	logger zerolog.Logger
}

func (c *consoleReporter) OnJobStart(spec importer.JobSpec) {
	c.logger.Info().
		Str("source", spec.Source).
		Str("format", string(spec.Format)).
		Bool("dry_run", spec.DryRun).
		Msg("starting import")
}

func (c *consoleReporter) OnProgress(message string, current int, total int) {
	c.logger.Info().Msgf("[%d/%d] %s", current, total, message)
}

func (c *consoleReporter) OnWarning(message string) {
	c.logger.Warn().Msg(message)
}

func (c *consoleReporter) OnJobComplete(outcome *importer.Outcome) {
	c.logger.Info().
		Int("rows", outcome.Rows).
		Int("skipped_blank", outcome.SkippedBlank).
		Int("negative_values", outcome.NegativeValues).
		Msg("import complete")
}

func (c *consoleReporter) OnJobError(err error) {
	c.logger.Error().Err(err).Msg("import error")
}
