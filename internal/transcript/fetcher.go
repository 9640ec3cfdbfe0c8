package transcript

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/af-corp/thoth/internal/config"
	"github.com/af-corp/thoth/internal/telemetry"
	"github.com/af-corp/thoth/internal/types"
	"github.com/af-corp/thoth/internal/youtube"
)

// Result is a fetched transcript ready to be summarized.
type Result struct {
	Metadata  types.VideoMetadata `json:"metadata"`
	Text      string              `json:"text"`
	Truncated bool                `json:"truncated"`
}

// Source fetches a transcript for a validated video id. Failures are
// *types.StageError values.
type Source interface {
	Fetch(ctx context.Context, videoID string) (*Result, error)
}

// Fetcher runs the three provider stages, each under its own timeout.
type Fetcher struct {
	provider youtube.Provider
	cfg      func() config.TranscriptConfig
	metrics  *telemetry.Metrics
}

func NewFetcher(provider youtube.Provider, cfg func() config.TranscriptConfig, metrics *telemetry.Metrics) *Fetcher {
	return &Fetcher{provider: provider, cfg: cfg, metrics: metrics}
}

func (f *Fetcher) Fetch(ctx context.Context, videoID string) (*Result, error) {
	cfg := f.cfg()

	start := time.Now()
	sess, err := callWithTimeout(ctx, cfg.InitTimeout, f.provider.NewSession)
	f.metrics.RecordStage("session_init", time.Since(start))
	if err != nil {
		return nil, classify(ctx, err, types.ErrUpstreamInitTimeout, types.ErrUnknown)
	}

	start = time.Now()
	info, err := callWithTimeout(ctx, cfg.InfoTimeout, func(ctx context.Context) (*youtube.VideoInfo, error) {
		return sess.GetInfo(ctx, videoID)
	})
	f.metrics.RecordStage("video_info", time.Since(start))
	if err != nil {
		return nil, classify(ctx, err, types.ErrUpstreamInfoTimeout, types.ErrUnknown)
	}

	meta := metadataFrom(info.Basic)
	if limit := int(cfg.MaxDuration.Seconds()); limit > 0 && meta.DurationSeconds > limit {
		return nil, types.NewStageError(types.ErrVideoTooLong,
			fmt.Errorf("duration %ds exceeds %ds", meta.DurationSeconds, limit))
	}

	if info.Transcript == nil {
		return nil, types.NewStageError(types.ErrTranscriptUnavailable, youtube.ErrNoTranscript)
	}

	start = time.Now()
	segments, err := callWithTimeout(ctx, cfg.TranscriptTimeout, info.Transcript.Segments)
	f.metrics.RecordStage("transcript", time.Since(start))
	if err != nil {
		return nil, classify(ctx, err, types.ErrTranscriptUnavailable, types.ErrTranscriptUnavailable)
	}

	text, truncated := Assemble(segments, cfg.MaxChars)
	if text == "" {
		return nil, types.NewStageError(types.ErrNoTranscriptContent, errors.New("transcript has no text"))
	}
	if truncated {
		slog.Debug("transcript truncated", "video_id", videoID, "max_chars", cfg.MaxChars)
	}

	return &Result{Metadata: meta, Text: text, Truncated: truncated}, nil
}

func metadataFrom(b youtube.BasicInfo) types.VideoMetadata {
	return types.VideoMetadata{
		Title:           b.Title,
		Author:          b.Author,
		DurationSeconds: b.DurationSeconds,
		ThumbnailURL:    b.ThumbnailURL,
		ViewCount:       b.ViewCount,
	}
}

// classify maps a stage failure to its error code. Cancellation by the caller
// wins over everything else.
func classify(ctx context.Context, err error, onTimeout, otherwise types.ErrorCode) error {
	switch {
	case ctx.Err() != nil:
		return types.NewStageError(types.ErrCallerDisconnected, err)
	case errors.Is(err, context.DeadlineExceeded):
		return types.NewStageError(onTimeout, err)
	default:
		return types.NewStageError(otherwise, err)
	}
}

// callWithTimeout runs fn under a deadline and returns as soon as either fn
// finishes or the deadline passes, even if fn ignores its context.
func callWithTimeout[T any](ctx context.Context, d time.Duration, fn func(context.Context) (T, error)) (T, error) {
	if d <= 0 {
		return fn(ctx)
	}
	ctx, cancel := context.WithTimeout(ctx, d)
	defer cancel()

	type result struct {
		v   T
		err error
	}
	ch := make(chan result, 1)
	go func() {
		v, err := fn(ctx)
		ch <- result{v, err}
	}()

	select {
	case r := <-ch:
		return r.v, r.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}
