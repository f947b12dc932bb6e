package importer

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// JobStore persists import jobs. *Repository is the production implementation.
type JobStore interface {
	CreateJob(ctx context.Context, job *Job) (*Job, error)
	UpdateStatus(ctx context.Context, jobID string, status JobStatus, message string, rows int, lastErr error) error
	UpdateProgress(ctx context.Context, jobID string, current, total int, message string) error
	AppendEvent(ctx context.Context, jobID, eventType, message string) error
	ResetStuckJobs(ctx context.Context) error
	MarkNextJobRunning(ctx context.Context) (*Job, error)
	GetActiveJob(ctx context.Context) (*Job, error)
	ListRecentJobs(ctx context.Context, limit int) ([]*Job, error)
}

// Request represents an import invocation request.
type Request struct {
	Source      string
	Format      string
	DefaultTeam string
	DryRun      bool
	RequestedBy string
}

// Service coordinates job persistence, execution, and status reporting.
type Service struct {
	repo   JobStore
	runner *Runner

	pollInterval time.Duration
	historyLimit int

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	logger zerolog.Logger
}

// NewService constructs a Service. Call Start to launch the worker.
func NewService(repo JobStore, runner *Runner, pollInterval time.Duration, historyLimit int, logger zerolog.Logger) *Service {
	ctx, cancel := context.WithCancel(context.Background())

	if pollInterval <= 0 {
		pollInterval = 3 * time.Second
	}
	if historyLimit <= 0 {
		historyLimit = 10
	}

	return &Service{
		repo:         repo,
		runner:       runner,
		pollInterval: pollInterval,
		historyLimit: historyLimit,
		ctx:          ctx,
		cancel:       cancel,
		logger:       logger,
	}
}

// Start launches the background worker loop.
func (s *Service) Start() {
	if err := s.repo.ResetStuckJobs(s.ctx); err != nil {
		s.logger.Error().Err(err).Msg("failed to reset jobs")
	}

	s.wg.Add(1)
	go s.worker()
}

// Shutdown stops the worker and waits for the running job to notice.
func (s *Service) Shutdown(ctx context.Context) error {
	s.cancel()

	done := make(chan struct{})
	go func() {
		defer close(done)
		s.wg.Wait()
	}()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-done:
		return nil
	}
}

// Enqueue validates req and stores a queued job.
func (s *Service) Enqueue(ctx context.Context, req Request) (*Job, error) {
	source := strings.TrimSpace(req.Source)
	if source == "" {
		return nil, fmt.Errorf("import requires a source")
	}

	format, err := ParseFormat(req.Format, source)
	if err != nil {
		return nil, err
	}

	job := &Job{
		Source:        source,
		Format:        format,
		DefaultTeam:   strings.TrimSpace(req.DefaultTeam),
		DryRun:        req.DryRun,
		RequestedBy:   sql.NullString{String: req.RequestedBy, Valid: req.RequestedBy != ""},
		Status:        JobStatusQueued,
		StatusMessage: sql.NullString{String: "Queued", Valid: true},
		ProgressTotal: runSteps,
	}

	stored, err := s.repo.CreateJob(ctx, job)
	if err != nil {
		return nil, err
	}

	_ = s.repo.AppendEvent(ctx, stored.JobID, "queued", "Job queued")
	s.logger.Info().
		Str("job_id", stored.JobID).
		Str("source", stored.Source).
		Str("format", string(stored.Format)).
		Bool("dry_run", stored.DryRun).
		Msg("import job queued")

	return stored, nil
}

// GetStatus returns the currently running job plus recent history.
func (s *Service) GetStatus(ctx context.Context) (*StatusSummary, error) {
	active, err := s.repo.GetActiveJob(ctx)
	if err != nil {
		return nil, err
	}

	history, err := s.repo.ListRecentJobs(ctx, s.historyLimit)
	if err != nil {
		return nil, err
	}

	return &StatusSummary{
		ActiveJob: active,
		History:   history,
	}, nil
}

func (s *Service) worker() {
	defer s.wg.Done()

	ticker := time.NewTicker(s.pollInterval)
	defer ticker.Stop()

	for {
		if s.ctx.Err() != nil {
			return
		}

		processed, err := s.ProcessNext(s.ctx)
		if err != nil {
			s.logger.Error().Err(err).Msg("claim job error")
		}
		if processed {
			continue
		}

		select {
		case <-s.ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// ProcessNext claims and runs one queued job. It reports whether a job
// was found.
func (s *Service) ProcessNext(ctx context.Context) (bool, error) {
	job, err := s.repo.MarkNextJobRunning(ctx)
	if err != nil {
		return false, err
	}
	if job == nil {
		return false, nil
	}

	s.executeJob(ctx, job)
	return true, nil
}

func (s *Service) executeJob(ctx context.Context, job *Job) {
	logger := s.logger.With().Str("job_id", job.JobID).Logger()
	reporter := &jobReporter{
		ctx:    ctx,
		repo:   s.repo,
		jobID:  job.JobID,
		logger: logger,
	}

	outcome, err := s.runner.Run(ctx, job.Spec(), reporter)
	if err != nil {
		logger.Error().Err(err).Msg("import job failed")
		_ = s.repo.UpdateStatus(ctx, job.JobID, JobStatusFailed, "Job failed", 0, err)
		return
	}

	msg := fmt.Sprintf("Imported %d rows", outcome.Rows)
	if outcome.DryRun {
		msg = fmt.Sprintf("Dry run parsed %d rows", outcome.Rows)
	}
	logger.Info().Int("rows", outcome.Rows).Bool("dry_run", outcome.DryRun).Msg("import job completed")
	_ = s.repo.UpdateStatus(ctx, job.JobID, JobStatusCompleted, msg, outcome.Rows, nil)
}

type jobReporter struct {
	ctx    context.Context
	repo   JobStore
	jobID  string
	logger zerolog.Logger
}

func (r *jobReporter) OnJobStart(spec JobSpec) {
	_ = r.repo.UpdateProgress(r.ctx, r.jobID, 0, runSteps, "Job starting")
}

func (r *jobReporter) OnProgress(message string, current int, total int) {
	_ = r.repo.UpdateProgress(r.ctx, r.jobID, current, total, message)
}

func (r *jobReporter) OnWarning(message string) {
	r.logger.Warn().Msg(message)
	_ = r.repo.AppendEvent(r.ctx, r.jobID, "warning", message)
}

func (r *jobReporter) OnJobComplete(outcome *Outcome) {
	_ = r.repo.AppendEvent(r.ctx, r.jobID, "complete", fmt.Sprintf("%d rows", outcome.Rows))
}

func (r *jobReporter) OnJobError(err error) {
	_ = r.repo.AppendEvent(r.ctx, r.jobID, "error", err.Error())
}
