package worker

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"creator-discovery/internal/domain"
	red "creator-discovery/internal/infra/redis"
	"creator-discovery/internal/usecase"
)

// DispatchWorker consumes the invocation queue and drives job invocations
// through the discovery use case. A per-job redis lock keeps two workers off
// the same job; a redelivered payload for a finished job is a no-op inside
// Invoke, so losing the lock race is harmless.
type DispatchWorker struct {
	queue    *red.DispatchQueue
	locker   red.Locker
	uc       usecase.DiscoveryUseCase
	interval time.Duration
	lockTTL  time.Duration
	log      *zerolog.Logger
}

func NewDispatchWorker(
	queue *red.DispatchQueue,
	locker red.Locker,
	uc usecase.DiscoveryUseCase,
	pollInterval, lockTTL time.Duration,
	logger *zerolog.Logger,
) *DispatchWorker {
	l := logger.With().Str("component", "DispatchWorker").Logger()
	return &DispatchWorker{
		queue:    queue,
		locker:   locker,
		uc:       uc,
		interval: pollInterval,
		lockTTL:  lockTTL,
		log:      &l,
	}
}

// Start runs the poll loop. This should be run in a goroutine.
func (w *DispatchWorker) Start(ctx context.Context, pool *Pool) {
	w.log.Info().Msg("dispatch worker started")
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.log.Info().Msg("dispatch worker stopping")
			return
		case <-ticker.C:
			payload, ok, err := w.queue.Pop(ctx)
			if err != nil {
				w.log.Error().Err(err).Msg("queue pop failed")
				continue
			}
			if !ok {
				continue
			}
			jobID := payload.JobID
			_ = pool.Submit(func(ctx context.Context) error {
				w.invokeOne(ctx, jobID)
				return nil
			})
		}
	}
}

func (w *DispatchWorker) invokeOne(ctx context.Context, jobID string) {
	token, err := w.locker.TryLock(ctx, red.JobLockKey(jobID), w.lockTTL)
	if err != nil {
		if errors.Is(err, domain.ErrInvocationInFlight) {
			w.log.Debug().Str("job_id", jobID).Msg("invocation already in flight, skipping")
			return
		}
		w.log.Error().Err(err).Str("job_id", jobID).Msg("lock acquisition failed")
		return
	}
	defer func() {
		if err := w.locker.Unlock(context.Background(), red.JobLockKey(jobID), token); err != nil {
			w.log.Warn().Err(err).Str("job_id", jobID).Msg("lock release failed")
		}
	}()

	start := time.Now()
	if err := w.uc.Invoke(ctx, jobID); err != nil {
		if errors.Is(err, domain.ErrConcurrentUpdate) {
			// Another delivery flushed first; its write stands.
			w.log.Debug().Str("job_id", jobID).Msg("invocation lost the flush race, skipping")
			return
		}
		w.log.Error().Err(err).Str("job_id", jobID).Msg("invocation failed")
		return
	}
	w.log.Debug().Str("job_id", jobID).Dur("duration", time.Since(start)).Msg("invocation done")
}
