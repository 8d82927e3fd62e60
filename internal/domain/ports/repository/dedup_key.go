package repository

import "context"

type DedupKeyRepository interface {
	// Insert performs an atomic insert-if-absent for (jobID, creatorKey).
	// Returns true when the key was inserted (creator is new for this job),
	// false when it already existed. Duplicates are not an error.
	//
	// The check-and-insert is the sole admission gate; implementations must
	// back it with a unique constraint, not a read followed by a write.
	Insert(ctx context.Context, tx Tx, jobID, creatorKey string) (bool, error)

	CountByJob(ctx context.Context, tx Tx, jobID string) (int, error)
}
