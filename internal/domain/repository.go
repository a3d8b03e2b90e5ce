package domain

import (
	"context"
	"time"
)

// JobRepository defines persistence for job entities. The job processor is
// the only caller of the Mark* methods.
type JobRepository interface {
	GetByID(ctx context.Context, jobID string) (*Job, error)
	MarkRunning(ctx context.Context, jobID string, startedAt time.Time) error
	MarkCompleted(ctx context.Context, jobID, resultURL string, completedAt time.Time) error
	MarkFailed(ctx context.Context, jobID, errMsg string, completedAt time.Time) error
}

// ProjectRepository updates project image references and appends history.
type ProjectRepository interface {
	SetOutputImage(ctx context.Context, projectID, url string) error
	SetOriginalImage(ctx context.Context, projectID, url string) error
	AppendEdit(ctx context.Context, edit *ProjectEdit) error
}
