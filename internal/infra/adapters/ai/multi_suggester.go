// File: internal/infra/adapters/ai/multi_suggester.go
package ai

import (
	"context"
	"errors"

	"creator-discovery/internal/domain/ports/adapter"
)

var _ adapter.KeywordSuggester = (*MultiSuggester)(nil)

// MultiSuggester tries each configured suggester in order and returns the
// first non-empty answer. Expansion is best-effort anyway, so the last error
// only matters for logging at the caller.
type MultiSuggester struct {
	chain []adapter.KeywordSuggester
}

func NewMultiSuggester(chain ...adapter.KeywordSuggester) *MultiSuggester {
	return &MultiSuggester{chain: chain}
}

func (m *MultiSuggester) Suggest(ctx context.Context, seeds []string, n int) ([]string, error) {
	var lastErr error
	for _, s := range m.chain {
		if s == nil {
			continue
		}
		out, err := s.Suggest(ctx, seeds, n)
		if err != nil {
			lastErr = err
			continue
		}
		if len(out) > 0 {
			return out, nil
		}
	}
	if lastErr == nil {
		lastErr = errors.New("no suggester produced keywords")
	}
	return nil, lastErr
}
