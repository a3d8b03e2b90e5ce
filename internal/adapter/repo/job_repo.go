package repo

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"runner/internal/domain"
)

// JobRepositoryPG implements domain.JobRepository.
type JobRepositoryPG struct {
	pool *pgxpool.Pool
}

// NewJobRepository creates a new job repository backed by PostgreSQL.
func NewJobRepository(pool *pgxpool.Pool) *JobRepositoryPG {
	return &JobRepositoryPG{pool: pool}
}

// GetByID fetches a job by its identifier.
func (r *JobRepositoryPG) GetByID(ctx context.Context, jobID string) (*domain.Job, error) {
	query := `
SELECT id, user_id, project_id, operation, status, payload, input_image_url, result_url, error, started_at, completed_at, created_at, updated_at
FROM ai_jobs
WHERE id = $1;
`
	row := r.pool.QueryRow(ctx, query, jobID)
	var job domain.Job
	var inputURL, resultURL, errMsg *string
	if err := row.Scan(
		&job.ID,
		&job.UserID,
		&job.ProjectID,
		&job.Operation,
		&job.Status,
		&job.Payload,
		&inputURL,
		&resultURL,
		&errMsg,
		&job.StartedAt,
		&job.CompletedAt,
		&job.CreatedAt,
		&job.UpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	if inputURL != nil {
		job.InputImageURL = *inputURL
	}
	if resultURL != nil {
		job.ResultURL = *resultURL
	}
	if errMsg != nil {
		job.ErrorMessage = *errMsg
	}
	return &job, nil
}

// MarkRunning transitions a job to running and records its start timestamp.
func (r *JobRepositoryPG) MarkRunning(ctx context.Context, jobID string, startedAt time.Time) error {
	query := `
UPDATE ai_jobs
SET status = $2,
    started_at = $3,
    updated_at = NOW()
WHERE id = $1;
`
	_, err := r.pool.Exec(ctx, query, jobID, domain.JobStatusRunning, startedAt)
	return err
}

// MarkCompleted writes the terminal completed state with its result URL.
func (r *JobRepositoryPG) MarkCompleted(ctx context.Context, jobID, resultURL string, completedAt time.Time) error {
	query := `
UPDATE ai_jobs
SET status = $2,
    result_url = $3,
    completed_at = $4,
    updated_at = NOW()
WHERE id = $1;
`
	_, err := r.pool.Exec(ctx, query, jobID, domain.JobStatusCompleted, resultURL, completedAt)
	return err
}

// MarkFailed writes the terminal failed state, preserving the failure text.
func (r *JobRepositoryPG) MarkFailed(ctx context.Context, jobID, errMsg string, completedAt time.Time) error {
	query := `
UPDATE ai_jobs
SET status = $2,
    error = $3,
    completed_at = $4,
    updated_at = NOW()
WHERE id = $1;
`
	_, err := r.pool.Exec(ctx, query, jobID, domain.JobStatusFailed, errMsg, completedAt)
	return err
}
