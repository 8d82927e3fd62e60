package repository

import (
	"context"

	"creator-discovery/internal/domain/model"
)

// CreatorRepository stores the job's materialized results.
type CreatorRepository interface {
	AppendBatch(ctx context.Context, tx Tx, jobID string, creators []model.RawCreator) error
	CountByJob(ctx context.Context, tx Tx, jobID string) (int, error)
	ListByJob(ctx context.Context, tx Tx, jobID string, offset, limit int) ([]model.RawCreator, error)
}
