package model

import (
	"strings"
	"time"

	"creator-discovery/internal/domain"
)

type JobStatus string

const (
	JobStatusPending    JobStatus = "pending"
	JobStatusProcessing JobStatus = "processing"
	JobStatusCompleted  JobStatus = "completed"
	JobStatusError      JobStatus = "error"
)

type Platform string

const (
	PlatformTikTok    Platform = "tiktok"
	PlatformInstagram Platform = "instagram"
	PlatformYouTube   Platform = "youtube"
)

func ParsePlatform(s string) (Platform, error) {
	switch Platform(strings.ToLower(strings.TrimSpace(s))) {
	case PlatformTikTok:
		return PlatformTikTok, nil
	case PlatformInstagram:
		return PlatformInstagram, nil
	case PlatformYouTube:
		return PlatformYouTube, nil
	default:
		return "", domain.ErrUnknownPlatform
	}
}

// Job is one creator-discovery request and its mutable execution state.
// Counters and cursor are authoritative only in the store; an invocation
// always re-reads the record before doing work.
type Job struct {
	ID               string
	Platform         Platform
	Region           string
	Keywords         []string // seed keywords as given by the caller
	ExpandedKeywords []string // persisted once, on first invocation
	TargetResults    int

	KeywordsDispatched int
	KeywordsCompleted  int
	CreatorsFound      int

	Cursor           Cursor
	Status           JobStatus
	LastError        string
	CancelRequested  bool
	StaleInvocations int

	// Version fences progress writes: an update only lands when it carries
	// the version it was read at, so a slower concurrent invocation cannot
	// overwrite counters with its stale snapshot.
	Version int64

	CreatedAt time.Time
	UpdatedAt time.Time
}

func NewJob(id string, platform Platform, region string, keywords []string, target int) (*Job, error) {
	if id == "" || len(keywords) == 0 || target <= 0 {
		return nil, domain.ErrInvalidArgument
	}
	now := time.Now()
	return &Job{
		ID:            id,
		Platform:      platform,
		Region:        region,
		Keywords:      keywords,
		TargetResults: target,
		Status:        JobStatusPending,
		CreatedAt:     now,
		UpdatedAt:     now,
	}, nil
}

func (j *Job) Terminal() bool {
	return j.Status == JobStatusCompleted || j.Status == JobStatusError
}

// TargetReached reports whether the admitted-creator counter has crossed the
// requested target. Overshoot within the crossing batch is allowed.
func (j *Job) TargetReached() bool {
	return j.CreatorsFound >= j.TargetResults
}
