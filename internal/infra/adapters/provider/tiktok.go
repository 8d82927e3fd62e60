package provider

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"

	"creator-discovery/internal/domain/model"
	"creator-discovery/internal/domain/ports/adapter"
)

// Compile-time assurance this adapter satisfies the port
var _ adapter.SearchProvider = (*TikTokProvider)(nil)

// TikTokProvider searches creators through a TikTok search API gateway.
type TikTokProvider struct {
	apiKey string
	base   string
	client *http.Client
}

func NewTikTokProvider(baseURL, apiKey string) (*TikTokProvider, error) {
	if apiKey == "" {
		return nil, errors.New("tiktok api key empty")
	}
	if baseURL == "" {
		baseURL = "https://api.scrapecreators.com/tiktok"
	}
	return &TikTokProvider{
		apiKey: apiKey,
		base:   baseURL,
		client: newHTTPClient(),
	}, nil
}

func (p *TikTokProvider) Platform() model.Platform { return model.PlatformTikTok }

func (p *TikTokProvider) Search(ctx context.Context, keyword, pageToken string) (*adapter.SearchPage, error) {
	q := url.Values{}
	q.Set("keyword", keyword)
	if pageToken != "" {
		q.Set("cursor", pageToken)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.base+"/v1/search/users?"+q.Encode(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("X-API-Key", p.apiKey)

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, classifyTransport(p.Platform(), keyword, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return nil, classifyHTTP(p.Platform(), keyword, resp.StatusCode)
	}

	var payload struct {
		Users []struct {
			UniqueID      string `json:"unique_id"`
			Nickname      string `json:"nickname"`
			FollowerCount int64  `json:"follower_count"`
			AvatarURL     string `json:"avatar_url"`
			Signature     string `json:"signature"`
			Region        string `json:"region"`
		} `json:"users"`
		Cursor  string `json:"cursor"`
		HasMore bool   `json:"has_more"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, classifyTransport(p.Platform(), keyword, err)
	}

	page := &adapter.SearchPage{Creators: make([]model.RawCreator, 0, len(payload.Users))}
	for _, u := range payload.Users {
		if u.UniqueID == "" {
			continue
		}
		page.Creators = append(page.Creators, model.RawCreator{
			Platform:    model.PlatformTikTok,
			Handle:      u.UniqueID,
			DisplayName: u.Nickname,
			Followers:   u.FollowerCount,
			AvatarURL:   u.AvatarURL,
			Bio:         u.Signature,
			Region:      u.Region,
		})
	}
	if payload.HasMore {
		page.NextPageToken = payload.Cursor
	}
	return page, nil
}
