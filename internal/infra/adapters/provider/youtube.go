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

var _ adapter.SearchProvider = (*YouTubeProvider)(nil)

// YouTubeProvider searches channels via the Data API v3 search endpoint.
type YouTubeProvider struct {
	apiKey string
	base   string
	client *http.Client
}

func NewYouTubeProvider(baseURL, apiKey string) (*YouTubeProvider, error) {
	if apiKey == "" {
		return nil, errors.New("youtube api key empty")
	}
	if baseURL == "" {
		baseURL = "https://www.googleapis.com/youtube/v3"
	}
	return &YouTubeProvider{
		apiKey: apiKey,
		base:   baseURL,
		client: newHTTPClient(),
	}, nil
}

func (p *YouTubeProvider) Platform() model.Platform { return model.PlatformYouTube }

func (p *YouTubeProvider) Search(ctx context.Context, keyword, pageToken string) (*adapter.SearchPage, error) {
	q := url.Values{}
	q.Set("part", "snippet")
	q.Set("type", "channel")
	q.Set("maxResults", "50")
	q.Set("q", keyword)
	q.Set("key", p.apiKey)
	if pageToken != "" {
		q.Set("pageToken", pageToken)
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
		// The Data API reports quota exhaustion as 403 with reason
		// "quotaExceeded"; treat it the same as 429.
		if resp.StatusCode == http.StatusForbidden && isQuotaExceeded(resp) {
			return nil, classifyHTTP(p.Platform(), keyword, http.StatusTooManyRequests)
		}
		return nil, classifyHTTP(p.Platform(), keyword, resp.StatusCode)
	}

	var payload struct {
		Items []struct {
			Snippet struct {
				ChannelID    string `json:"channelId"`
				ChannelTitle string `json:"channelTitle"`
				Description  string `json:"description"`
				Thumbnails   struct {
					Default struct {
						URL string `json:"url"`
					} `json:"default"`
				} `json:"thumbnails"`
			} `json:"snippet"`
		} `json:"items"`
		NextPageToken string `json:"nextPageToken"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, classifyTransport(p.Platform(), keyword, err)
	}

	page := &adapter.SearchPage{
		Creators:      make([]model.RawCreator, 0, len(payload.Items)),
		NextPageToken: payload.NextPageToken,
	}
	for _, it := range payload.Items {
		if it.Snippet.ChannelID == "" {
			continue
		}
		page.Creators = append(page.Creators, model.RawCreator{
			Platform:    model.PlatformYouTube,
			Handle:      it.Snippet.ChannelID,
			DisplayName: it.Snippet.ChannelTitle,
			AvatarURL:   it.Snippet.Thumbnails.Default.URL,
			Bio:         it.Snippet.Description,
		})
	}
	return page, nil
}

func isQuotaExceeded(resp *http.Response) bool {
	var body struct {
		Error struct {
			Errors []struct {
				Reason string `json:"reason"`
			} `json:"errors"`
		} `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return false
	}
	for _, e := range body.Error.Errors {
		if e.Reason == "quotaExceeded" || e.Reason == "rateLimitExceeded" {
			return true
		}
	}
	return false
}
