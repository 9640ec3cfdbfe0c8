package youtube

import (
	"context"
	"errors"
)

var (
	ErrVideoUnavailable = errors.New("video unavailable")
	ErrNoTranscript     = errors.New("transcript not available")
)

// Provider opens sessions against the transcript source.
type Provider interface {
	NewSession(ctx context.Context) (Session, error)
}

type Session interface {
	GetInfo(ctx context.Context, videoID string) (*VideoInfo, error)
}

// TranscriptAccessor fetches caption segments for one video.
type TranscriptAccessor interface {
	Segments(ctx context.Context) ([]Segment, error)
}

type VideoInfo struct {
	Basic      BasicInfo
	Transcript TranscriptAccessor
}

// BasicInfo fields other than Title may be zero when the provider omits them.
type BasicInfo struct {
	ID              string
	Title           string
	Author          string
	DurationSeconds int
	ThumbnailURL    string
	ViewCount       string
}

type Segment struct {
	Text    string
	StartMs int64
}
