package model

import (
	"strings"
	"time"
)

// RawCreator is one normalized candidate returned by a provider search.
// Platform adapters translate their wire formats into this before the
// dedup engine ever sees the data.
type RawCreator struct {
	Platform    Platform
	Handle      string
	DisplayName string
	Followers   int64
	AvatarURL   string
	Bio         string
	Region      string
}

// CreatorKey computes the normalized identity used for dedup admission:
// lower-cased handle with platform-specific decorations stripped.
func CreatorKey(platform Platform, handle string) string {
	h := strings.ToLower(strings.TrimSpace(handle))
	h = strings.TrimPrefix(h, "@")
	return string(platform) + ":" + h
}

// Key is shorthand for CreatorKey over the creator's own fields.
func (c RawCreator) Key() string { return CreatorKey(c.Platform, c.Handle) }

// DedupKey is the unique-admission record for one creator within one job.
// Created exactly once at first admission, never updated.
type DedupKey struct {
	JobID      string
	CreatorKey string
	CreatedAt  time.Time
}
