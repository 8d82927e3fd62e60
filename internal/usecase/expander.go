package usecase

import (
	"context"
	"strings"

	"github.com/rs/zerolog"

	"creator-discovery/internal/domain/ports/adapter"
	"creator-discovery/internal/infra/metrics"
)

// ExpectedYieldPerKeyword is the empirical number of unique creators one
// keyword search is expected to contribute. Used to size the expansion.
const ExpectedYieldPerKeyword = 25

// KeywordExpander grows a seed keyword list until it can statistically reach
// the target result count. Expansion is a best-effort optimization: if the
// suggester is unavailable the seeds are returned unchanged.
type KeywordExpander struct {
	sugg  adapter.KeywordSuggester
	yield int
	log   *zerolog.Logger
}

func NewKeywordExpander(sugg adapter.KeywordSuggester, yield int, logger *zerolog.Logger) *KeywordExpander {
	if yield <= 0 {
		yield = ExpectedYieldPerKeyword
	}
	l := logger.With().Str("component", "KeywordExpander").Logger()
	return &KeywordExpander{sugg: sugg, yield: yield, log: &l}
}

// Expand returns the keyword list to drive the fan-out. The generative step is
// non-deterministic; callers persist the result once and never re-expand
// mid-job. Expand never fails: degradation falls back to the seeds.
func (e *KeywordExpander) Expand(ctx context.Context, seeds []string, target int) []string {
	needed := (target + e.yield - 1) / e.yield
	if needed <= len(seeds) {
		metrics.IncExpansion("not_needed")
		return append([]string(nil), seeds...)
	}

	extra := needed - len(seeds)
	suggestions, err := e.sugg.Suggest(ctx, seeds, extra)
	if err != nil || len(suggestions) == 0 {
		// Non-fatal degradation: the job proceeds with the seeds it has.
		e.log.Warn().Err(err).Int("wanted", extra).Msg("keyword expansion degraded to seeds")
		metrics.IncExpansion("degraded")
		return append([]string(nil), seeds...)
	}

	seen := make(map[string]struct{}, needed)
	for _, s := range seeds {
		seen[strings.ToLower(strings.TrimSpace(s))] = struct{}{}
	}

	out := append([]string(nil), seeds...)
	for _, s := range suggestions {
		if len(out) >= needed {
			break
		}
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		norm := strings.ToLower(s)
		if _, dup := seen[norm]; dup {
			continue
		}
		seen[norm] = struct{}{}
		out = append(out, s)
	}

	metrics.IncExpansion("expanded")
	e.log.Debug().Int("seeds", len(seeds)).Int("expanded", len(out)).Msg("keyword list expanded")
	return out
}
