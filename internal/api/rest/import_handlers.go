package rest

import (
	"context"
	"net/http"

	"github.com/fortuna/frisbee/internal/importer"
)

// ImportService is implemented by *importer.Service.
type ImportService interface {
	Enqueue(ctx context.Context, req importer.Request) (*importer.Job, error)
	GetStatus(ctx context.Context) (*importer.StatusSummary, error)
}

// ImportHandler proxies API calls to the import job service.
type ImportHandler struct {
	service ImportService
}

// NewImportHandler wires the REST layer to the import service.
func NewImportHandler(service ImportService) *ImportHandler {
	return &ImportHandler{service: service}
}

type apiImportRequest struct {
	Source      string `json:"source"`
	Format      string `json:"format"`
	DefaultTeam string `json:"default_team"`
	DryRun      bool   `json:"dry_run"`
}

// HandleImportRequest handles POST /api/v1/imports
func (h *ImportHandler) HandleImportRequest(w http.ResponseWriter, r *http.Request) {
	var req apiImportRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.Source == "" {
		respondError(w, http.StatusBadRequest, "Field 'source' is required", nil)
		return
	}

	job, err := h.service.Enqueue(r.Context(), importer.Request{
		Source:      req.Source,
		Format:      req.Format,
		DefaultTeam: req.DefaultTeam,
		DryRun:      req.DryRun,
		RequestedBy: currentUser(r).ID.String(),
	})
	if err != nil {
		respondServiceError(w, r, "Failed to enqueue import job", err)
		return
	}

	respondJSON(w, http.StatusAccepted, map[string]interface{}{
		"job": jobPayload(job),
	})
}

// HandleImportStatus handles GET /api/v1/imports/status
func (h *ImportHandler) HandleImportStatus(w http.ResponseWriter, r *http.Request) {
	summary, err := h.service.GetStatus(r.Context())
	if err != nil {
		respondServiceError(w, r, "Failed to fetch status", err)
		return
	}

	respondJSON(w, http.StatusOK, buildStatusPayload(summary))
}

func buildStatusPayload(summary *importer.StatusSummary) map[string]interface{} {
	response := map[string]interface{}{
		"status":  "idle",
		"message": "No active jobs",
	}

	if summary.ActiveJob != nil {
		response["status"] = summary.ActiveJob.Status
		if summary.ActiveJob.StatusMessage.Valid {
			response["message"] = summary.ActiveJob.StatusMessage.String
		}
		response["active_job"] = jobPayload(summary.ActiveJob)
	}

	history := make([]map[string]interface{}, 0, len(summary.History))
	for _, job := range summary.History {
		history = append(history, jobPayload(job))
	}

	response["history"] = history
	return response
}

func jobPayload(job *importer.Job) map[string]interface{} {
	if job == nil {
		return nil
	}

	payload := map[string]interface{}{
		"job_id":           job.JobID,
		"source":           job.Source,
		"format":           job.Format,
		"dry_run":          job.DryRun,
		"status":           job.Status,
		"progress_current": job.ProgressCurrent,
		"progress_total":   job.ProgressTotal,
		"rows_imported":    job.RowsImported,
		"created_at":       job.CreatedAt,
		"updated_at":       job.UpdatedAt,
	}

	if job.DefaultTeam != "" {
		payload["default_team"] = job.DefaultTeam
	}
	if job.StatusMessage.Valid {
		payload["status_message"] = job.StatusMessage.String
	}
	if job.RequestedBy.Valid {
		payload["requested_by"] = job.RequestedBy.String
	}
	if job.StartedAt.Valid {
		payload["started_at"] = job.StartedAt.Time
	}
	if job.CompletedAt.Valid {
		payload["completed_at"] = job.CompletedAt.Time
	}
	if job.LastError.Valid {
		payload["last_error"] = job.LastError.String
	}

	return payload
}
