package postgres

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v4/pgxpool"

	"creator-discovery/internal/domain/model"
	"creator-discovery/internal/domain/ports/repository"
)

var _ repository.CreatorRepository = (*creatorRepo)(nil)

type creatorRepo struct {
	pool *pgxpool.Pool
}

func NewCreatorRepo(pool *pgxpool.Pool) *creatorRepo {
	return &creatorRepo{pool: pool}
}

func (r *creatorRepo) AppendBatch(ctx context.Context, tx repository.Tx, jobID string, creators []model.RawCreator) error {
	const q = `
INSERT INTO scraping_results (id, job_id, platform, handle, display_name, followers, avatar_url, bio, region, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10);`

	now := time.Now()
	for _, c := range creators {
		_, err := execSQL(ctx, r.pool, tx, q,
			uuid.NewString(), jobID, c.Platform, c.Handle, c.DisplayName,
			c.Followers, c.AvatarURL, c.Bio, c.Region, now)
		if err != nil {
			return err
		}
	}
	return nil
}

func (r *creatorRepo) CountByJob(ctx context.Context, tx repository.Tx, jobID string) (int, error) {
	row, err := pickRow(ctx, r.pool, tx, `SELECT COUNT(*) FROM scraping_results WHERE job_id = $1;`, jobID)
	if err != nil {
		return 0, err
	}
	var n int
	if err := row.Scan(&n); err != nil {
		return 0, translateScanErr(err)
	}
	return n, nil
}

func (r *creatorRepo) ListByJob(ctx context.Context, tx repository.Tx, jobID string, offset, limit int) ([]model.RawCreator, error) {
	const q = `
SELECT platform, handle, display_name, followers, avatar_url, bio, region
FROM scraping_results
WHERE job_id = $1
ORDER BY created_at, handle
OFFSET $2 LIMIT $3;`

	rows, err := pickRows(ctx, r.pool, tx, q, jobID, offset, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.RawCreator
	for rows.Next() {
		var c model.RawCreator
		var platformStr string
		if err := rows.Scan(&platformStr, &c.Handle, &c.DisplayName, &c.Followers, &c.AvatarURL, &c.Bio, &c.Region); err != nil {
			return nil, translateScanErr(err)
		}
		c.Platform = model.Platform(platformStr)
		out = append(out, c)
	}
	return out, rows.Err()
}
