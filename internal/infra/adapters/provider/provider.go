// Package provider contains the platform-specific search adapters. Each one
// normalizes its upstream wire format into model.RawCreator and classifies
// failures through domain.ProviderError before anything downstream sees them.
package provider

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"creator-discovery/internal/domain"
	"creator-discovery/internal/domain/model"
)

var errRateBudget = errors.New("local request budget exhausted")

// classifyHTTP wraps a non-2xx response into a classified provider error.
func classifyHTTP(platform model.Platform, keyword string, status int) error {
	return &domain.ProviderError{
		Kind:     domain.ClassifyStatus(status),
		Platform: string(platform),
		Keyword:  keyword,
		Status:   status,
		Err:      fmt.Errorf("upstream http %d", status),
	}
}

// classifyTransport wraps a transport-level failure (conn refused, timeout,
// caller cancellation). None of these say anything about the request or the
// credentials, so they all classify as retryable.
func classifyTransport(platform model.Platform, keyword string, err error) error {
	return &domain.ProviderError{
		Kind:     domain.KindTransient,
		Platform: string(platform),
		Keyword:  keyword,
		Err:      err,
	}
}

func newHTTPClient() *http.Client {
	// Per-call deadlines come from the batch scheduler's context; this is a
	// backstop against a hung transport.
	return &http.Client{Timeout: 30 * time.Second}
}
