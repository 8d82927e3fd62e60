package ai

import (
	"context"

	"creator-discovery/internal/domain/ports/adapter"
)

var _ adapter.KeywordSuggester = (*NoopSuggester)(nil)

// NoopSuggester returns no suggestions, forcing the expander down its
// degraded path. Used for local/dev runs without an AI key.
type NoopSuggester struct{}

func NewNoopSuggester() *NoopSuggester { return &NoopSuggester{} }

func (s *NoopSuggester) Suggest(ctx context.Context, seeds []string, n int) ([]string, error) {
	return nil, nil
}
