package adapter

import (
	"context"
	"time"
)

// InvokePayload is what the dispatch facility delivers to the worker.
// It intentionally carries no cursor or counters: an invocation re-reads
// the persisted job state and must not trust payload-embedded progress.
type InvokePayload struct {
	JobID   string `json:"job_id"`
	Attempt int    `json:"attempt"`
}

// TaskDispatcher schedules a future invocation of a job. Delivery is
// at-least-once; consumers must tolerate redelivery.
type TaskDispatcher interface {
	Dispatch(ctx context.Context, payload InvokePayload, delay time.Duration) (deliveryID string, err error)
}
