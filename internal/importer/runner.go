package importer

import (
	"bytes"
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/fortuna/frisbee/internal/fantasy"
	"github.com/fortuna/frisbee/internal/ingest"
	"github.com/fortuna/frisbee/internal/ingest/csvstats"
	"github.com/fortuna/frisbee/internal/ingest/htmlstats"
	"github.com/fortuna/frisbee/internal/metrics"
	"github.com/fortuna/frisbee/internal/publisher"
	"github.com/fortuna/frisbee/internal/store"
	"github.com/fortuna/frisbee/internal/store/repository"
)

// runSteps is the progress total reported by Run.
const runSteps = 4

// Fetcher loads the raw bytes of a source.
type Fetcher interface {
	Fetch(ctx context.Context, source string) ([]byte, error)
}

// StatsWriter replaces the whole player_stats table.
type StatsWriter interface {
	ReplaceAll(ctx context.Context, rows []fantasy.StatRow) (int, error)
}

// EventPublisher announces completed imports.
type EventPublisher interface {
	PublishStatsImported(ctx context.Context, ev publisher.StatsImported) error
}

// Runner executes import specs: fetch, parse, replace, announce.
type Runner struct {
	fetcher   Fetcher
	writer    StatsWriter
	publisher EventPublisher
	metrics   *metrics.Metrics
	now       func() time.Time
}

// NewRunner constructs a runner. publisher and m may be nil.
func NewRunner(fetcher Fetcher, writer StatsWriter, publisher EventPublisher, m *metrics.Metrics) *Runner {
	return &Runner{
		fetcher:   fetcher,
		writer:    writer,
		publisher: publisher,
		metrics:   m,
		now:       time.Now,
	}
}

// Run executes the job spec, reporting progress via the Reporter if provided.
func (r *Runner) Run(ctx context.Context, spec JobSpec, reporter Reporter) (*Outcome, error) {
	if reporter == nil {
		reporter = nopReporter{}
	}
	start := r.now()

	outcome, err := r.run(ctx, spec, reporter)
	if err != nil {
		reporter.OnJobError(err)
		r.metrics.ObserveImport(err, 0, r.now().Sub(start))
		return nil, err
	}

	if !outcome.DryRun {
		r.metrics.ObserveImport(nil, outcome.Rows, r.now().Sub(start))
	}
	reporter.OnJobComplete(outcome)
	return outcome, nil
}

func (r *Runner) run(ctx context.Context, spec JobSpec, reporter Reporter) (*Outcome, error) {
	reporter.OnJobStart(spec)

	format, err := ParseFormat(string(spec.Format), spec.Source)
	if err != nil {
		return nil, err
	}

	data, err := r.fetcher.Fetch(ctx, spec.Source)
	if err != nil {
		return nil, err
	}
	reporter.OnProgress(fmt.Sprintf("Fetched %d bytes from %s", len(data), spec.Source), 1, runSteps)

	parsed, err := parse(format, data, ingest.Options{DefaultTeam: spec.DefaultTeam})
	if err != nil {
		return nil, fmt.Errorf("parse %s source: %w", format, err)
	}
	if len(parsed.Rows) == 0 {
		return nil, ErrNoRows
	}
	if parsed.NegativeValues > 0 {
		reporter.OnWarning(fmt.Sprintf("%d negative stat values kept as-is", parsed.NegativeValues))
	}

	outcome := &Outcome{
		Rows:           len(parsed.Rows),
		Teams:          parsed.Teams(),
		NegativeValues: parsed.NegativeValues,
		SkippedBlank:   parsed.SkippedBlank,
		DryRun:         spec.DryRun,
	}
	reporter.OnProgress(fmt.Sprintf("Parsed %d rows for %d teams", outcome.Rows, len(outcome.Teams)), 2, runSteps)

	if spec.DryRun {
		reporter.OnProgress("Dry-run mode: no data will be written", runSteps, runSteps)
		return outcome, nil
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	written, err := r.writer.ReplaceAll(ctx, parsed.Rows)
	if err != nil {
		return nil, fmt.Errorf("replace player stats: %w", err)
	}
	outcome.Rows = written
	reporter.OnProgress(fmt.Sprintf("Replaced player_stats with %d rows", written), 3, runSteps)

	if r.publisher != nil {
		ev := publisher.StatsImported{
			JobID:      spec.JobID,
			Rows:       written,
			Teams:      outcome.Teams,
			Source:     spec.Source,
			ImportedAt: r.now().UTC(),
		}
		// The rows are committed; a lost event only delays cache expiry.
		if err := r.publisher.PublishStatsImported(ctx, ev); err != nil {
			reporter.OnWarning(fmt.Sprintf("publish import event: %v", err))
		}
	}
	reporter.OnProgress("Import announced", runSteps, runSteps)

	return outcome, nil
}

func parse(format Format, data []byte, opts ingest.Options) (*ingest.Result, error) {
	switch format {
	case FormatCSV:
		return csvstats.Parse(bytes.NewReader(data), opts)
	case FormatHTML:
		return htmlstats.Parse(bytes.NewReader(data), opts)
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, format)
}

// DBStatsWriter replaces player_stats inside a single transaction.
type DBStatsWriter struct {
	db *store.Database
}

// NewDBStatsWriter creates a writer over db.
func NewDBStatsWriter(db *store.Database) *DBStatsWriter {
	return &DBStatsWriter{db: db}
}

// ReplaceAll deletes every row and bulk-loads rows in one transaction.
func (w *DBStatsWriter) ReplaceAll(ctx context.Context, rows []fantasy.StatRow) (int, error) {
	stats := make([]store.PlayerStat, 0, len(rows))
	for _, r := range rows {
		stats = append(stats, store.PlayerStatFromRow(r))
	}

	var written int
	err := w.db.RunInTx(ctx, func(tx *sql.Tx) error {
		n, err := repository.NewStatsRepository(w.db).WithTx(tx).ReplaceAll(ctx, stats)
		written = n
		return err
	})
	if err != nil {
		return 0, err
	}
	return written, nil
}

type nopReporter struct{}

func (nopReporter) OnJobStart(JobSpec) {}
func (nopReporter) OnProgress(string, int, int) {}
func (nopReporter) OnWarning(string) {}
func (nopReporter) OnJobComplete(*Outcome) {}
func (nopReporter) OnJobError(error) {}
