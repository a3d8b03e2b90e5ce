package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"runner/internal/domain"
)

type runJobRequest struct {
	JobID string `json:"job_id"`
}

type runJobResponse struct {
	OK     bool   `json:"ok"`
	JobID  string `json:"job_id"`
	Status string `json:"status"`
}

// JobsRun accepts a job id, verifies the job exists and schedules its
// execution as a detached task. The response is an acknowledgement only;
// progress and failures surface through the job record.
func (a *App) JobsRun(w http.ResponseWriter, r *http.Request) {
	var req runJobRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid payload")
		return
	}
	if strings.TrimSpace(req.JobID) == "" {
		a.error(w, http.StatusBadRequest, "bad_request", "job_id required")
		return
	}

	job, err := a.Jobs.GetByID(r.Context(), req.JobID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			a.error(w, http.StatusNotFound, "not_found", "job not found")
			return
		}
		a.Logger.Error().Err(err).Str("job_id", req.JobID).Msg("handlers: job lookup failed")
		a.error(w, http.StatusInternalServerError, "internal", "failed to load job")
		return
	}

	a.Tasks.Go(func(ctx context.Context) {
		a.Processor.Process(ctx, job)
	})
	a.json(w, http.StatusAccepted, runJobResponse{OK: true, JobID: job.ID, Status: string(job.Status)})
}
