package provider

import (
	"context"
	"time"

	"creator-discovery/internal/domain"
	"creator-discovery/internal/domain/model"
	"creator-discovery/internal/domain/ports/adapter"
)

// Compile-time check
var _ adapter.SearchProvider = (*throttled)(nil)

// throttled bounds in-process concurrency against one upstream with a
// semaphore and consults the shared rate limiter before spending a call.
type throttled struct {
	inner   adapter.SearchProvider
	sem     chan struct{}
	limiter Limiter
	perMin  int
}

// Limiter is the shared fixed-window quota check (redis-backed in prod).
type Limiter interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error)
}

func NewThrottled(inner adapter.SearchProvider, maxConcurrent int, limiter Limiter, requestsPerMin int) adapter.SearchProvider {
	if maxConcurrent <= 0 && (limiter == nil || requestsPerMin <= 0) {
		return inner
	}
	t := &throttled{inner: inner, limiter: limiter, perMin: requestsPerMin}
	if maxConcurrent > 0 {
		t.sem = make(chan struct{}, maxConcurrent)
	}
	return t
}

func (t *throttled) Platform() model.Platform { return t.inner.Platform() }

func (t *throttled) Search(ctx context.Context, keyword, pageToken string) (*adapter.SearchPage, error) {
	if t.limiter != nil && t.perMin > 0 {
		key := "rate_limit:search:" + string(t.inner.Platform())
		ok, err := t.limiter.Allow(ctx, key, t.perMin, time.Minute)
		if err == nil && !ok {
			// Local budget exhausted: same deferral semantics as an
			// upstream 429, without burning the upstream quota.
			return nil, &domain.ProviderError{
				Kind:     domain.KindRateLimited,
				Platform: string(t.inner.Platform()),
				Keyword:  keyword,
				Err:      errRateBudget,
			}
		}
	}
	if t.sem != nil {
		select {
		case t.sem <- struct{}{}:
			defer func() { <-t.sem }()
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return t.inner.Search(ctx, keyword, pageToken)
}
