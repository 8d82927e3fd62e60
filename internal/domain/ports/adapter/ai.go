package adapter

import "context"

// KeywordSuggester is the port for the generative keyword-expansion
// capability. It is best-effort: callers must degrade to the seed keywords
// when it fails or returns nothing.
type KeywordSuggester interface {
	// Suggest returns up to n additional terms related to the seeds.
	Suggest(ctx context.Context, seeds []string, n int) ([]string, error)
}
