package sched

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"creator-discovery/internal/usecase"
)

// Reaper periodically re-drives jobs whose invocation chain broke: a worker
// crash after the queue pop, or a dispatch that never landed. Progress-making
// jobs are never touched; each sweep counts against the stuck-job guard.
type Reaper struct {
	interval time.Duration
	uc       usecase.DiscoveryUseCase
	log      *zerolog.Logger
}

func NewReaper(interval time.Duration, uc usecase.DiscoveryUseCase, logger *zerolog.Logger) *Reaper {
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	l := logger.With().Str("component", "Reaper").Logger()
	return &Reaper{interval: interval, uc: uc, log: &l}
}

func (r *Reaper) Run(ctx context.Context) error {
	r.log.Info().Msg("starting stale-job reaper")
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			r.log.Info().Msg("stopping stale-job reaper")
			return ctx.Err()
		case <-ticker.C:
			sweepCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
			n, err := r.uc.ReapStale(sweepCtx)
			cancel()
			if err != nil {
				r.log.Error().Err(err).Msg("reaper sweep error")
				continue
			}
			if n > 0 {
				r.log.Info().Int("count", n).Msg("stale jobs re-driven")
			}
		}
	}
}
