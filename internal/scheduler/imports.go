package scheduler

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/fortuna/frisbee/internal/config"
	"github.com/fortuna/frisbee/internal/importer"
)

// ImportJobName names the recurring import job.
const ImportJobName = "stats-import"

// Enqueuer queues import jobs. *importer.Service implements it.
type Enqueuer interface {
	Enqueue(ctx context.Context, req importer.Request) (*importer.Job, error)
}

// ScheduleImports registers the configured recurring import. It reports
// false when no cron expression or source is configured.
func (s *Service) ScheduleImports(enq Enqueuer, cfg config.ImportConfig) (bool, error) {
	if cfg.Cron == "" || cfg.Source == "" {
		return false, nil
	}

	req := importer.Request{
		Source:      cfg.Source,
		Format:      cfg.Format,
		DefaultTeam: cfg.DefaultTeam,
		RequestedBy: "scheduler",
	}
	if _, err := s.AddJob(ImportJobName, cfg.Cron, importTask(enq, req, s.logger)); err != nil {
		return false, err
	}
	return true, nil
}

func importTask(enq Enqueuer, req importer.Request, logger zerolog.Logger) func() {
	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		job, err := enq.Enqueue(ctx, req)
		if err != nil {
			logger.Error().Err(err).Str("source", req.Source).Msg("scheduled import not queued")
			return
		}
		logger.Info().Str("job_id", job.JobID).Str("source", req.Source).Msg("scheduled import queued")
	}
}
