package types

import "time"

// SummarizeRequest is the inbound body of POST /api/summarize.
type SummarizeRequest struct {
	URL      string `json:"url"`
	Language string `json:"language,omitempty"`

	// Internal tracking
	RequestID  string    `json:"-"`
	Identity   string    `json:"-"`
	ReceivedAt time.Time `json:"-"`
}

// VideoMetadata is best-effort: only Title is always present.
type VideoMetadata struct {
	Title           string `json:"title"`
	Author          string `json:"author,omitempty"`
	DurationSeconds int    `json:"durationSeconds,omitempty"`
	ThumbnailURL    string `json:"thumbnailUrl,omitempty"`
	ViewCount       string `json:"viewCount,omitempty"`
}
