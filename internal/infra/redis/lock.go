// File: internal/infra/redis/lock.go
package redis

import (
	"context"
	"time"

	"creator-discovery/internal/domain"

	"github.com/google/uuid"
)

// Locker serializes invocations of the same job within this deployment.
// It narrows the at-least-once redelivery window; the terminal-state guard
// and atomic dedup admission remain the actual correctness boundary.
type Locker interface {
	TryLock(ctx context.Context, key string, ttl time.Duration) (token string, err error)
	Unlock(ctx context.Context, key, token string) error
}

var _ Locker = (*RedisLocker)(nil)

type RedisLocker struct {
	cli RedisClient
}

func NewLocker(c RedisClient) *RedisLocker {
	return &RedisLocker{cli: c}
}

func (l *RedisLocker) TryLock(ctx context.Context, key string, ttl time.Duration) (string, error) {
	token := uuid.NewString()
	ok, err := l.cli.SetNX(ctx, key, token, ttl)
	if err != nil {
		return "", err
	}
	if !ok {
		return "", domain.ErrInvocationInFlight
	}
	return token, nil
}

// Unlock releases only when the token still matches, so an expired lock
// re-acquired by another worker is never released from here.
func (l *RedisLocker) Unlock(ctx context.Context, key, token string) error {
	_, err := l.cli.GetDel(ctx, key, token)
	return err
}

func JobLockKey(jobID string) string { return "discovery:lock:" + jobID }
