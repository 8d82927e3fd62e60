package postgres

import (
	"context"
	"encoding/json"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"creator-discovery/internal/domain"
	"creator-discovery/internal/domain/model"
	"creator-discovery/internal/domain/ports/repository"
)

var _ repository.JobRepository = (*jobRepo)(nil)

type jobRepo struct {
	pool *pgxpool.Pool
}

func NewJobRepo(pool *pgxpool.Pool) *jobRepo {
	return &jobRepo{pool: pool}
}

const jobColumns = `
id, platform, region, keywords, expanded_keywords, target_results,
keywords_dispatched, keywords_completed, creators_found,
cursor, status, last_error, cancel_requested, stale_invocations,
version, created_at, updated_at`

func (r *jobRepo) Create(ctx context.Context, tx repository.Tx, job *model.Job) error {
	cursor, err := json.Marshal(job.Cursor)
	if err != nil {
		return err
	}
	job.UpdatedAt = time.Now()

	const q = `
INSERT INTO scraping_jobs (` + jobColumns + `)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17);`

	_, err = execSQL(ctx, r.pool, tx, q,
		job.ID, job.Platform, job.Region, job.Keywords, job.ExpandedKeywords, job.TargetResults,
		job.KeywordsDispatched, job.KeywordsCompleted, job.CreatorsFound,
		cursor, job.Status, job.LastError, job.CancelRequested, job.StaleInvocations,
		job.Version, job.CreatedAt, job.UpdatedAt)
	return err
}

func (r *jobRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.Job, error) {
	const q = `SELECT ` + jobColumns + ` FROM scraping_jobs WHERE id = $1;`
	row, err := pickRow(ctx, r.pool, tx, q, id)
	if err != nil {
		return nil, err
	}
	return scanJob(row)
}

// UpdateProgress writes status, counters, expanded keywords, cursor and the
// error field in one statement. The batch flush calls this under the same
// transaction that inserts dedup keys and result rows.
//
// The version predicate fences out lost updates: delivery is at-least-once,
// so two invocations of the same job can both read the row and race to
// flush. Only the update carrying the version the caller read at lands; the
// stale one gets ErrConcurrentUpdate and its transaction rolls back.
func (r *jobRepo) UpdateProgress(ctx context.Context, tx repository.Tx, job *model.Job) error {
	cursor, err := json.Marshal(job.Cursor)
	if err != nil {
		return err
	}
	job.UpdatedAt = time.Now()

	const q = `
UPDATE scraping_jobs SET
  expanded_keywords = $2,
  keywords_dispatched = $3,
  keywords_completed = $4,
  creators_found = $5,
  cursor = $6,
  status = $7,
  last_error = $8,
  stale_invocations = $9,
  version = version + 1,
  updated_at = $10
WHERE id = $1 AND version = $11;`

	tag, err := execSQL(ctx, r.pool, tx, q,
		job.ID, job.ExpandedKeywords,
		job.KeywordsDispatched, job.KeywordsCompleted, job.CreatorsFound,
		cursor, job.Status, job.LastError, job.StaleInvocations, job.UpdatedAt,
		job.Version)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		if _, ferr := r.FindByID(ctx, tx, job.ID); ferr != nil {
			return ferr
		}
		return domain.ErrConcurrentUpdate
	}
	job.Version++
	return nil
}

func (r *jobRepo) RequestCancel(ctx context.Context, tx repository.Tx, id string) error {
	const q = `UPDATE scraping_jobs SET cancel_requested = TRUE, updated_at = $2 WHERE id = $1;`
	_, err := execSQL(ctx, r.pool, tx, q, id, time.Now())
	return err
}

func (r *jobRepo) ListStaleProcessing(ctx context.Context, tx repository.Tx, cutoff time.Time, limit int) ([]*model.Job, error) {
	const q = `
SELECT ` + jobColumns + `
FROM scraping_jobs
WHERE status = 'processing' AND updated_at < $1
ORDER BY updated_at
LIMIT $2;`

	rows, err := pickRows(ctx, r.pool, tx, q, cutoff, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*model.Job
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, job)
	}
	return out, rows.Err()
}

func scanJob(row pgx.Row) (*model.Job, error) {
	var (
		job         model.Job
		platformStr string
		statusStr   string
		cursorRaw   []byte
	)
	err := row.Scan(
		&job.ID, &platformStr, &job.Region, &job.Keywords, &job.ExpandedKeywords, &job.TargetResults,
		&job.KeywordsDispatched, &job.KeywordsCompleted, &job.CreatorsFound,
		&cursorRaw, &statusStr, &job.LastError, &job.CancelRequested, &job.StaleInvocations,
		&job.Version, &job.CreatedAt, &job.UpdatedAt,
	)
	if err != nil {
		return nil, translateScanErr(err)
	}
	job.Platform = model.Platform(platformStr)
	job.Status = model.JobStatus(statusStr)
	if len(cursorRaw) > 0 {
		if err := json.Unmarshal(cursorRaw, &job.Cursor); err != nil {
			return nil, err
		}
	}
	return &job, nil
}
