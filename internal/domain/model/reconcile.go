package model

import "time"

// ReconcileReport compares a job's counters against the authoritative stores.
// A mismatch is surfaced to the operator, never auto-corrected.
type ReconcileReport struct {
	JobID         string    `json:"job_id"`
	Status        JobStatus `json:"status"`
	CreatorsFound int       `json:"creators_found"`
	ResultRows    int       `json:"result_rows"`
	DedupKeys     int       `json:"dedup_keys"`
	CountersMatch bool      `json:"counters_match"`
	CheckedAt     time.Time `json:"checked_at"`
}
