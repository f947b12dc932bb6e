package importer

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	// ErrNoRows is returned when a source parses to zero stat rows. The
	// table is left untouched.
	ErrNoRows = errors.New("no data to upload")

	ErrUnknownFormat = errors.New("unknown source format")
)

// Format names the layout of a stat source.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatHTML Format = "html"
)

// ParseFormat validates a format name. An empty name is inferred from
// the source's extension, defaulting to CSV.
func ParseFormat(name, source string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(name))) {
	case FormatCSV:
		return FormatCSV, nil
	case FormatHTML:
		return FormatHTML, nil
	case "":
		lower := strings.ToLower(source)
		if strings.HasSuffix(lower, ".html") || strings.HasSuffix(lower, ".htm") {
			return FormatHTML, nil
		}
		return FormatCSV, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownFormat, name)
}

// JobStatus represents the lifecycle state for a job.
type JobStatus string

const (
	JobStatusQueued    JobStatus = "queued"
	JobStatusRunning   JobStatus = "running"
	JobStatusCompleted JobStatus = "completed"
	JobStatusFailed    JobStatus = "failed"
)

// Job models the database representation of an import job.
type Job struct {
	JobID           string
	Source          string
	Format          Format
	DefaultTeam     string
	DryRun          bool
	RequestedBy     sql.NullString
	Status          JobStatus
	StatusMessage   sql.NullString
	ProgressCurrent int
	ProgressTotal   int
	RowsImported    int
	LastError       sql.NullString
	CreatedAt       time.Time
	UpdatedAt       time.Time
	StartedAt       sql.NullTime
	CompletedAt     sql.NullTime
}

// Spec returns the runner input described by the job.
func (j *Job) Spec() JobSpec {
	return JobSpec{
		JobID:       j.JobID,
		Source:      j.Source,
		Format:      j.Format,
		DefaultTeam: j.DefaultTeam,
		DryRun:      j.DryRun,
	}
}

// JobSpec describes the work to be performed by the runner.
type JobSpec struct {
	JobID       string
	Source      string
	Format      Format
	DefaultTeam string
	DryRun      bool
}

// Outcome summarizes a finished run.
type Outcome struct {
	Rows           int      `json:"rows"`
	Teams          []string `json:"teams"`
	NegativeValues int      `json:"negative_values"`
	SkippedBlank   int      `json:"skipped_blank"`
	DryRun         bool     `json:"dry_run"`
}

// Reporter receives lifecycle callbacks from the runner.
type Reporter interface {
	OnJobStart(spec JobSpec)
	OnProgress(message string, current int, total int)
	OnWarning(message string)
	OnJobComplete(outcome *Outcome)
	OnJobError(err error)
}

// StatusSummary is returned to API callers.
type StatusSummary struct {
	ActiveJob *Job   `json:"active_job,omitempty"`
	History   []*Job `json:"recent_jobs,omitempty"`
}
