// Package jobs owns the lifecycle of one job: status transitions, artifact
// persistence and the project records derived from a completed run.
package jobs

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"runner/internal/artifact"
	"runner/internal/domain"
	"runner/internal/infra"
)

// Executor runs one operation and yields the output artifact.
type Executor interface {
	Run(ctx context.Context, operation string, payload json.RawMessage, inputURL string) (*artifact.Artifact, error)
}

// ObjectStore persists artifact bytes and issues retrievable references.
type ObjectStore interface {
	Write(ctx context.Context, key string, data []byte) (string, error)
	SignedURL(key string, ttl time.Duration) (string, error)
}

// Processor drives a job from running to a terminal status. It is the sole
// writer of job status, timestamps, result and error.
type Processor struct {
	jobs      domain.JobRepository
	projects  domain.ProjectRepository
	store     ObjectStore
	engine    Executor
	seeds     func(operation string) bool
	signedTTL time.Duration
	logger    infra.Logger
	now       func() time.Time
}

// Options wires a Processor's collaborators.
type Options struct {
	Jobs      domain.JobRepository
	Projects  domain.ProjectRepository
	Store     ObjectStore
	Engine    Executor
	SeedsFunc func(operation string) bool
	SignedTTL time.Duration
	Logger    infra.Logger
	Now       func() time.Time
}

// NewProcessor constructs a Processor.
func NewProcessor(opts Options) *Processor {
	ttl := opts.SignedTTL
	if ttl <= 0 {
		ttl = 7 * 24 * time.Hour
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	seeds := opts.SeedsFunc
	if seeds == nil {
		seeds = func(string) bool { return false }
	}
	return &Processor{
		jobs:      opts.Jobs,
		projects:  opts.Projects,
		store:     opts.Store,
		engine:    opts.Engine,
		seeds:     seeds,
		signedTTL: ttl,
		logger:    opts.Logger,
		now:       now,
	}
}

// Process runs one job to completion. It never returns with the job still
// in the running state: every exit path lands on completed or failed.
func (p *Processor) Process(ctx context.Context, job *domain.Job) {
	log := p.logger.With().
		Str("job_id", job.ID).
		Str("operation", job.Operation).
		Logger()

	// The running transition is written before any provider call so the
	// job record always reflects work in flight.
	if err := p.jobs.MarkRunning(ctx, job.ID, p.now()); err != nil {
		log.Error().Err(err).Msg("jobs: mark running failed")
		p.fail(ctx, &log, job.ID, fmt.Errorf("mark running: %w", err))
		return
	}

	resultURL, err := p.execute(ctx, job)
	if err != nil {
		log.Error().Err(err).Msg("jobs: job failed")
		p.fail(ctx, &log, job.ID, err)
		return
	}

	if err := p.jobs.MarkCompleted(ctx, job.ID, resultURL, p.now()); err != nil {
		log.Error().Err(err).Msg("jobs: mark completed failed")
		p.fail(ctx, &log, job.ID, fmt.Errorf("persist result: %w", err))
		return
	}
	log.Info().Str("result_url", resultURL).Msg("jobs: completed")

	// The result is durable at this point; project bookkeeping failures are
	// logged but do not fail the job.
	if err := p.projects.SetOutputImage(ctx, job.ProjectID, resultURL); err != nil {
		log.Error().Err(err).Msg("jobs: update project output failed")
	}
	if p.seeds(job.Operation) {
		if err := p.projects.SetOriginalImage(ctx, job.ProjectID, resultURL); err != nil {
			log.Error().Err(err).Msg("jobs: seed project original failed")
		}
	}
	edit := &domain.ProjectEdit{
		ID:             uuid.NewString(),
		ProjectID:      job.ProjectID,
		EditName:       EditDisplayName(job.Operation),
		Parameters:     job.Payload,
		InputImageURL:  job.InputImageURL,
		OutputImageURL: resultURL,
		CreditCost:     0,
		Status:         domain.JobStatusCompleted,
	}
	if err := p.projects.AppendEdit(ctx, edit); err != nil {
		log.Error().Err(err).Msg("jobs: append edit history failed")
	}
}

// execute runs the engine, stores the artifact and returns its signed URL.
func (p *Processor) execute(ctx context.Context, job *domain.Job) (string, error) {
	art, err := p.engine.Run(ctx, job.Operation, job.Payload, job.InputImageURL)
	if err != nil {
		return "", err
	}
	key := fmt.Sprintf("u/%s/%s/ai-output%s", job.UserID, uuid.NewString(), art.Format.Ext())
	savedKey, err := p.store.Write(ctx, key, art.Data)
	if err != nil {
		return "", fmt.Errorf("store artifact: %w", err)
	}
	signed, err := p.store.SignedURL(savedKey, p.signedTTL)
	if err != nil {
		return "", fmt.Errorf("sign artifact url: %w", err)
	}
	return signed, nil
}

func (p *Processor) fail(ctx context.Context, log *infra.Logger, jobID string, cause error) {
	if err := p.jobs.MarkFailed(ctx, jobID, cause.Error(), p.now()); err != nil {
		log.Error().Err(err).Msg("jobs: mark failed errored")
	}
}

var editNameCaser = cases.Title(language.English)

// EditDisplayName turns an operation name into the human-readable edit name
// stored in project history: "remove_background" becomes "Remove Background".
func EditDisplayName(operation string) string {
	return editNameCaser.String(strings.ReplaceAll(operation, "_", " "))
}
