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

var _ adapter.SearchProvider = (*InstagramProvider)(nil)

// InstagramProvider searches profiles through a SERP-style gateway. Instagram
// has no public keyword API, so the upstream is a scraping proxy and rate
// limits aggressively; expect frequent 429 classification.
type InstagramProvider struct {
	apiKey string
	base   string
	client *http.Client
}

func NewInstagramProvider(baseURL, apiKey string) (*InstagramProvider, error) {
	if apiKey == "" {
		return nil, errors.New("instagram api key empty")
	}
	if baseURL == "" {
		baseURL = "https://serpapi.example.com"
	}
	return &InstagramProvider{
		apiKey: apiKey,
		base:   baseURL,
		client: newHTTPClient(),
	}, nil
}

func (p *InstagramProvider) Platform() model.Platform { return model.PlatformInstagram }

func (p *InstagramProvider) Search(ctx context.Context, keyword, pageToken string) (*adapter.SearchPage, error) {
	q := url.Values{}
	q.Set("engine", "instagram")
	q.Set("q", keyword)
	q.Set("api_key", p.apiKey)
	if pageToken != "" {
		q.Set("page_token", pageToken)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.base+"/search?"+q.Encode(), nil)
	if err != nil {
		return nil, err
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, classifyTransport(p.Platform(), keyword, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return nil, classifyHTTP(p.Platform(), keyword, resp.StatusCode)
	}

	var payload struct {
		Profiles []struct {
			Username      string `json:"username"`
			FullName      string `json:"full_name"`
			Followers     int64  `json:"followers"`
			ProfilePicURL string `json:"profile_pic_url"`
			Biography     string `json:"biography"`
		} `json:"profiles"`
		NextPageToken string `json:"next_page_token"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, classifyTransport(p.Platform(), keyword, err)
	}

	page := &adapter.SearchPage{
		Creators:      make([]model.RawCreator, 0, len(payload.Profiles)),
		NextPageToken: payload.NextPageToken,
	}
	for _, pr := range payload.Profiles {
		if pr.Username == "" {
			continue
		}
		page.Creators = append(page.Creators, model.RawCreator{
			Platform:    model.PlatformInstagram,
			Handle:      pr.Username,
			DisplayName: pr.FullName,
			Followers:   pr.Followers,
			AvatarURL:   pr.ProfilePicURL,
			Bio:         pr.Biography,
		})
	}
	return page, nil
}
