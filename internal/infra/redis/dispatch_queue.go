package redis

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"creator-discovery/internal/domain/ports/adapter"
)

const (
	queueKey     = "discovery:invocations"
	scheduledKey = "discovery:invocations:scheduled"
)

// Compile-time check
var _ adapter.TaskDispatcher = (*DispatchQueue)(nil)

// DispatchQueue is the redis-backed task-dispatch facility: a ready list for
// immediate invocations plus a sorted set for delayed ones. Delivery is
// at-least-once; a consumer crash between pop and completion redelivers via
// the stale-job reaper, and invocation idempotency absorbs duplicates.
type DispatchQueue struct {
	cli RedisClient
}

func NewDispatchQueue(cli RedisClient) *DispatchQueue {
	return &DispatchQueue{cli: cli}
}

type queuedInvocation struct {
	DeliveryID string                `json:"delivery_id"`
	Payload    adapter.InvokePayload `json:"payload"`
}

func (q *DispatchQueue) Dispatch(ctx context.Context, payload adapter.InvokePayload, delay time.Duration) (string, error) {
	item := queuedInvocation{DeliveryID: uuid.NewString(), Payload: payload}
	b, err := json.Marshal(item)
	if err != nil {
		return "", err
	}
	if delay <= 0 {
		if err := q.cli.LPush(ctx, queueKey, string(b)); err != nil {
			return "", err
		}
		return item.DeliveryID, nil
	}
	readyAt := float64(time.Now().Add(delay).UnixMilli())
	if err := q.cli.ZAdd(ctx, scheduledKey, readyAt, string(b)); err != nil {
		return "", err
	}
	return item.DeliveryID, nil
}

// Pop promotes due delayed invocations, then pops one ready invocation.
// ok is false when the queue is empty.
func (q *DispatchQueue) Pop(ctx context.Context) (payload adapter.InvokePayload, ok bool, err error) {
	due, err := q.cli.ZPopDue(ctx, scheduledKey, float64(time.Now().UnixMilli()), 16)
	if err != nil {
		return payload, false, err
	}
	for _, m := range due {
		if err := q.cli.LPush(ctx, queueKey, m); err != nil {
			return payload, false, err
		}
	}

	raw, err := q.cli.RPop(ctx, queueKey)
	if err != nil {
		if IsNil(err) {
			return payload, false, nil
		}
		return payload, false, err
	}
	var item queuedInvocation
	if err := json.Unmarshal([]byte(raw), &item); err != nil {
		return payload, false, err
	}
	return item.Payload, true, nil
}
