package domain

import (
	"context"
	"errors"
	"fmt"
)

// ErrorKind classifies provider failures for retry decisions.
type ErrorKind int

const (
	// KindTransient covers network failures, timeouts and upstream 5xx.
	// Retryable within the current batch and across invocations.
	KindTransient ErrorKind = iota
	// KindRateLimited means the upstream signalled quota exhaustion.
	// Never retried in the same batch; the keyword is deferred instead.
	KindRateLimited
	// KindFatal covers auth failures and malformed requests. Marks the job failed.
	KindFatal
)

func (k ErrorKind) String() string {
	switch k {
	case KindRateLimited:
		return "rate_limited"
	case KindFatal:
		return "fatal"
	default:
		return "transient"
	}
}

// ProviderError wraps a single failed search call with its classification.
type ProviderError struct {
	Kind     ErrorKind
	Platform string
	Keyword  string
	Status   int // upstream HTTP status when known, 0 otherwise
	Err      error
}

func (e *ProviderError) Error() string {
	if e.Status > 0 {
		return fmt.Sprintf("%s search %q: %s (http %d): %v", e.Platform, e.Keyword, e.Kind, e.Status, e.Err)
	}
	return fmt.Sprintf("%s search %q: %s: %v", e.Platform, e.Keyword, e.Kind, e.Err)
}

func (e *ProviderError) Unwrap() error { return e.Err }

// ClassifyStatus maps an upstream HTTP status to an ErrorKind.
// 429 is rate limiting, any 5xx is transient, everything else 4xx is fatal.
func ClassifyStatus(status int) ErrorKind {
	switch {
	case status == 429:
		return KindRateLimited
	case status >= 500:
		return KindTransient
	default:
		return KindFatal
	}
}

// KindOf extracts the classification from err. Unclassified errors,
// including context deadlines from call timeouts, count as transient.
func KindOf(err error) ErrorKind {
	var pe *ProviderError
	if errors.As(err, &pe) {
		return pe.Kind
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return KindTransient
	}
	return KindTransient
}

func IsRateLimited(err error) bool { return err != nil && KindOf(err) == KindRateLimited }
func IsFatal(err error) bool       { return err != nil && KindOf(err) == KindFatal }
