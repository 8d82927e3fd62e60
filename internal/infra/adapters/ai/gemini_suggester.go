// File: internal/infra/adapters/ai/gemini_suggester.go
package ai

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"google.golang.org/genai"

	"creator-discovery/internal/domain/ports/adapter"
)

var _ adapter.KeywordSuggester = (*GeminiSuggester)(nil)

type GeminiSuggester struct {
	client *genai.Client
	model  string
}

// NewGeminiSuggester creates a keyword suggester backed by the Gemini API.
func NewGeminiSuggester(ctx context.Context, apiKey, baseURL, model string) (*GeminiSuggester, error) {
	if apiKey == "" {
		return nil, errors.New("gemini: empty api key")
	}
	if model == "" {
		model = "gemini-2.0-flash"
	}
	c, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
		HTTPOptions: genai.HTTPOptions{
			BaseURL: baseURL,
		},
	})
	if err != nil {
		return nil, err
	}
	return &GeminiSuggester{client: c, model: model}, nil
}

func (g *GeminiSuggester) Suggest(ctx context.Context, seeds []string, n int) ([]string, error) {
	chat, err := g.client.Chats.Create(ctx, g.model, &genai.GenerateContentConfig{
		MaxOutputTokens: 512,
	}, nil)
	if err != nil {
		return nil, err
	}

	resp, err := chat.SendMessage(ctx, genai.Part{Text: expansionPrompt(seeds, n)})
	if err != nil {
		return nil, err
	}

	text := ""
	if resp != nil && len(resp.Candidates) > 0 && resp.Candidates[0].Content != nil && len(resp.Candidates[0].Content.Parts) > 0 {
		if t := resp.Candidates[0].Content.Parts[0].Text; t != "" {
			text = t
		}
	}
	return parseKeywordLines(text, n), nil
}

// expansionPrompt asks for plain newline-separated terms so parsing stays
// trivial across providers.
func expansionPrompt(seeds []string, n int) string {
	var b strings.Builder
	b.WriteString("You help find social media creators. Given these search keywords:\n")
	for _, s := range seeds {
		b.WriteString("- ")
		b.WriteString(s)
		b.WriteString("\n")
	}
	b.WriteString("Suggest ")
	b.WriteString(strconv.Itoa(n))
	b.WriteString(" additional closely related search keywords. Reply with one keyword per line, no numbering, no commentary.")
	return b.String()
}

func parseKeywordLines(text string, max int) []string {
	lines := strings.Split(text, "\n")
	out := make([]string, 0, max)
	for _, l := range lines {
		l = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(l), "-"))
		if l == "" {
			continue
		}
		out = append(out, l)
		if len(out) >= max {
			break
		}
	}
	return out
}
