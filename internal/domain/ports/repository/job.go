package repository

import (
	"context"
	"time"

	"creator-discovery/internal/domain/model"
)

type JobRepository interface {
	Create(ctx context.Context, tx Tx, job *model.Job) error
	FindByID(ctx context.Context, tx Tx, id string) (*model.Job, error)

	// UpdateProgress persists status, all counters, the cursor, the expanded
	// keyword list and the error field in a single statement. Partial updates
	// (counters without cursor) are a correctness hazard and must not exist.
	// The write is fenced on job.Version: if another invocation flushed since
	// the caller read the job, it returns domain.ErrConcurrentUpdate and
	// writes nothing.
	UpdateProgress(ctx context.Context, tx Tx, job *model.Job) error

	// RequestCancel flips the cancellation flag; the next invocation observes
	// it before dispatching further work.
	RequestCancel(ctx context.Context, tx Tx, id string) error

	// ListStaleProcessing returns jobs stuck in 'processing' whose last update
	// is older than cutoff. Used by the reaper sweep.
	ListStaleProcessing(ctx context.Context, tx Tx, cutoff time.Time, limit int) ([]*model.Job, error)
}
