package postgres

import (
	"context"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"

	"creator-discovery/internal/domain/ports/repository"
)

var _ repository.DedupKeyRepository = (*dedupKeyRepo)(nil)

type dedupKeyRepo struct {
	pool *pgxpool.Pool
}

func NewDedupKeyRepo(pool *pgxpool.Pool) *dedupKeyRepo {
	return &dedupKeyRepo{pool: pool}
}

// Insert relies on the UNIQUE(job_id, creator_key) index: ON CONFLICT DO
// NOTHING makes the check-and-insert a single atomic statement, so concurrent
// admissions of the same creator resolve to exactly one inserted row.
func (r *dedupKeyRepo) Insert(ctx context.Context, tx repository.Tx, jobID, creatorKey string) (bool, error) {
	const q = `
INSERT INTO job_creators (job_id, creator_key, created_at)
VALUES ($1, $2, $3)
ON CONFLICT (job_id, creator_key) DO NOTHING;`

	cmd, err := execSQL(ctx, r.pool, tx, q, jobID, creatorKey, time.Now())
	if err != nil {
		return false, err
	}
	return cmd.RowsAffected() == 1, nil
}

func (r *dedupKeyRepo) CountByJob(ctx context.Context, tx repository.Tx, jobID string) (int, error) {
	row, err := pickRow(ctx, r.pool, tx, `SELECT COUNT(*) FROM job_creators WHERE job_id = $1;`, jobID)
	if err != nil {
		return 0, err
	}
	var n int
	if err := row.Scan(&n); err != nil {
		return 0, translateScanErr(err)
	}
	return n, nil
}
