package adapter

import (
	"context"

	"creator-discovery/internal/domain/model"
)

// SearchPage is one page of candidates for one keyword.
type SearchPage struct {
	Creators      []model.RawCreator
	NextPageToken string // empty when the keyword is exhausted
}

// SearchProvider wraps a single external platform search call.
// Implementations classify failures via domain.ProviderError so the batch
// scheduler can tell rate limiting from transient and fatal faults.
type SearchProvider interface {
	Platform() model.Platform
	Search(ctx context.Context, keyword, pageToken string) (*SearchPage, error)
}
