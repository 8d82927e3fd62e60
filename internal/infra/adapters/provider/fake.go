package provider

import (
	"context"
	"fmt"
	"time"

	"creator-discovery/internal/domain/model"
	"creator-discovery/internal/domain/ports/adapter"
)

var _ adapter.SearchProvider = (*FakeProvider)(nil)

// FakeProvider generates deterministic candidates for local/dev runs without
// touching real upstreams. Handles are derived from the keyword so different
// keywords mostly produce disjoint creators, with a small shared overlap to
// exercise dedup.
type FakeProvider struct {
	platform model.Platform
	perPage  int
}

func NewFakeProvider(platform model.Platform, perPage int) *FakeProvider {
	if perPage <= 0 {
		perPage = 30
	}
	return &FakeProvider{platform: platform, perPage: perPage}
}

func (f *FakeProvider) Platform() model.Platform { return f.platform }

func (f *FakeProvider) Search(ctx context.Context, keyword, pageToken string) (*adapter.SearchPage, error) {
	select {
	case <-time.After(10 * time.Millisecond):
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	page := &adapter.SearchPage{Creators: make([]model.RawCreator, 0, f.perPage)}
	for i := 0; i < f.perPage; i++ {
		handle := fmt.Sprintf("%s_creator_%d", keyword, i)
		if i < 2 {
			// shared across all keywords
			handle = fmt.Sprintf("popular_creator_%d", i)
		}
		page.Creators = append(page.Creators, model.RawCreator{
			Platform:    f.platform,
			Handle:      handle,
			DisplayName: handle,
			Followers:   int64(1000 * (i + 1)),
		})
	}
	return page, nil
}
