package usecase

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"creator-discovery/internal/domain/model"
	"creator-discovery/internal/domain/ports/repository"
	"creator-discovery/internal/infra/metrics"
)

// Compile-time check
var _ ReconcileUseCase = (*reconcileUC)(nil)

// ReconcileUseCase is the operator-facing audit: it compares a job's
// creators-found counter against the authoritative result rows and dedup
// keys. A mismatch indicates a bug in the batch flush discipline and is
// reported, never silently patched.
type ReconcileUseCase interface {
	Reconcile(ctx context.Context, jobID string) (*model.ReconcileReport, error)
}

type reconcileUC struct {
	jobs     repository.JobRepository
	keys     repository.DedupKeyRepository
	creators repository.CreatorRepository
	log      *zerolog.Logger
}

func NewReconcileUseCase(
	jobs repository.JobRepository,
	keys repository.DedupKeyRepository,
	creators repository.CreatorRepository,
	logger *zerolog.Logger,
) *reconcileUC {
	l := logger.With().Str("component", "ReconcileUC").Logger()
	return &reconcileUC{jobs: jobs, keys: keys, creators: creators, log: &l}
}

func (r *reconcileUC) Reconcile(ctx context.Context, jobID string) (*model.ReconcileReport, error) {
	job, err := r.jobs.FindByID(ctx, nil, jobID)
	if err != nil {
		return nil, err
	}
	resultRows, err := r.creators.CountByJob(ctx, nil, jobID)
	if err != nil {
		return nil, err
	}
	dedupKeys, err := r.keys.CountByJob(ctx, nil, jobID)
	if err != nil {
		return nil, err
	}

	report := &model.ReconcileReport{
		JobID:         job.ID,
		Status:        job.Status,
		CreatorsFound: job.CreatorsFound,
		ResultRows:    resultRows,
		DedupKeys:     dedupKeys,
		CountersMatch: job.CreatorsFound == resultRows && resultRows == dedupKeys,
		CheckedAt:     time.Now(),
	}
	if !report.CountersMatch {
		metrics.IncReconcileMismatch()
		r.log.Error().Str("job_id", jobID).
			Int("creators_found", report.CreatorsFound).
			Int("result_rows", report.ResultRows).
			Int("dedup_keys", report.DedupKeys).
			Msg("counter mismatch detected")
	}
	return report, nil
}
