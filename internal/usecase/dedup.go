package usecase

import (
	"context"

	"creator-discovery/internal/domain/model"
	"creator-discovery/internal/domain/ports/repository"
)

// DedupEngine decides admit/reject for every candidate a job discovers.
// The underlying insert-if-absent is the sole correctness boundary; it is
// safe under concurrent admission attempts for the same job, which makes
// duplicate-invocation processing harmless even when the terminal-state
// guard misses a redelivery.
type DedupEngine struct {
	keys repository.DedupKeyRepository
}

func NewDedupEngine(keys repository.DedupKeyRepository) *DedupEngine {
	return &DedupEngine{keys: keys}
}

// Admit atomically records the creator's normalized identity for the job.
// admitted is false when the identity was already present; that is expected
// steady-state behavior, not an error.
func (d *DedupEngine) Admit(ctx context.Context, tx repository.Tx, jobID string, c model.RawCreator) (admitted bool, key string, err error) {
	key = c.Key()
	admitted, err = d.keys.Insert(ctx, tx, jobID, key)
	return admitted, key, err
}
