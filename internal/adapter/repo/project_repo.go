package repo

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"runner/internal/domain"
)

// ProjectRepositoryPG implements domain.ProjectRepository.
type ProjectRepositoryPG struct {
	pool *pgxpool.Pool
}

// NewProjectRepository creates a new project repository backed by PostgreSQL.
func NewProjectRepository(pool *pgxpool.Pool) *ProjectRepositoryPG {
	return &ProjectRepositoryPG{pool: pool}
}

// SetOutputImage updates the project's current output and thumbnail.
func (r *ProjectRepositoryPG) SetOutputImage(ctx context.Context, projectID, url string) error {
	query := `
UPDATE projects
SET output_image_url = $2,
    thumbnail_url = $2,
    updated_at = NOW()
WHERE id = $1;
`
	_, err := r.pool.Exec(ctx, query, projectID, url)
	return err
}

// SetOriginalImage seeds the project's original image reference. Only the
// first text-to-image generation of a project calls this.
func (r *ProjectRepositoryPG) SetOriginalImage(ctx context.Context, projectID, url string) error {
	query := `
UPDATE projects
SET original_image_url = $2,
    updated_at = NOW()
WHERE id = $1;
`
	_, err := r.pool.Exec(ctx, query, projectID, url)
	return err
}

// AppendEdit inserts one immutable history record.
func (r *ProjectRepositoryPG) AppendEdit(ctx context.Context, edit *domain.ProjectEdit) error {
	query := `
INSERT INTO project_edits (id, project_id, edit_name, parameters, input_image_url, output_image_url, credit_cost, status)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8);
`
	_, err := r.pool.Exec(ctx, query,
		edit.ID,
		edit.ProjectID,
		edit.EditName,
		edit.Parameters,
		edit.InputImageURL,
		edit.OutputImageURL,
		edit.CreditCost,
		edit.Status,
	)
	return err
}
