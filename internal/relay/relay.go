// Package relay streams a completion from the configured provider and
// re-frames it as caller-facing events.
package relay

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/af-corp/thoth/internal/config"
	"github.com/af-corp/thoth/internal/health"
	"github.com/af-corp/thoth/internal/relay/adapters"
	"github.com/af-corp/thoth/internal/telemetry"
	"github.com/af-corp/thoth/internal/types"
)

const defaultReadSize = 4096

// Request is one summarization to stream.
type Request struct {
	RequestID  string
	Language   types.Language
	Transcript string
}

type Relay struct {
	registry   *Registry
	tracker    *health.Tracker
	completion func() config.CompletionConfig
	prompts    func() *config.PromptsConfig
	metrics    *telemetry.Metrics
}

func New(registry *Registry, tracker *health.Tracker, completion func() config.CompletionConfig,
	prompts func() *config.PromptsConfig, metrics *telemetry.Metrics) *Relay {
	return &Relay{
		registry:   registry,
		tracker:    tracker,
		completion: completion,
		prompts:    prompts,
		metrics:    metrics,
	}
}

// Stream starts the upstream call and returns its events. The channel yields
// zero or more Content events followed by exactly one Done or Error, then
// closes. If ctx is cancelled the upstream read is aborted and the channel
// closes without a terminal event.
func (r *Relay) Stream(ctx context.Context, req Request) <-chan types.Event {
	out := make(chan types.Event)
	go r.run(ctx, req, out)
	return out
}

func (r *Relay) run(ctx context.Context, req Request, out chan<- types.Event) {
	defer close(out)

	cfg := r.completion()
	log := slog.With("request_id", req.RequestID, "provider", cfg.Provider)

	adapter, ok := r.registry.Get(cfg.Provider)
	if !ok {
		log.Error("completion provider not configured")
		send(ctx, out, types.ErrorEvent(types.MisconfiguredMessage(req.Language), types.ErrCompletionProvider))
		return
	}

	httpReq, err := adapter.NewStreamRequest(ctx, r.buildPrompt(cfg, req))
	if err != nil {
		if errors.Is(err, adapters.ErrMissingCredential) {
			log.Error("completion provider has no api key")
			send(ctx, out, types.ErrorEvent(types.MisconfiguredMessage(req.Language), types.ErrCompletionProvider))
			return
		}
		log.Error("failed to build completion request", "error", err)
		send(ctx, out, types.ErrorEvent(types.ErrorMessage(types.ErrUnknown, req.Language), types.ErrUnknown))
		return
	}

	if r.tracker != nil && !r.tracker.Allow(adapter.Name()) {
		log.Warn("completion provider circuit open, failing fast")
		send(ctx, out, types.ErrorEvent(types.ErrorMessage(types.ErrCompletionProvider, req.Language), types.ErrCompletionProvider))
		return
	}

	resp, err := adapter.SendRequest(httpReq)
	if err != nil {
		if ctx.Err() != nil {
			r.abandon(adapter)
			return
		}
		r.recordFailure(adapter)
		log.Error("completion request failed", "error", err)
		send(ctx, out, types.ErrorEvent(types.ErrorMessage(types.ErrCompletionProvider, req.Language), types.ErrCompletionProvider))
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		if resp.StatusCode >= http.StatusInternalServerError || resp.StatusCode == http.StatusTooManyRequests {
			r.recordFailure(adapter)
		} else if r.tracker != nil {
			r.tracker.RecordSuccess(adapter.Name())
		}
		log.Error("completion provider returned error status", "status", resp.StatusCode, "body", string(snippet))
		send(ctx, out, types.ErrorEvent(types.ProviderStatusMessage(req.Language, resp.StatusCode), types.ErrCompletionProvider))
		return
	}
	if r.tracker != nil {
		r.tracker.RecordSuccess(adapter.Name())
	}

	r.pump(ctx, adapter, resp.Body, req, cfg.ReadBufferSize, out, log)
}

// pump reads the upstream body until a terminal frame, EOF, a read error,
// or cancellation.
func (r *Relay) pump(ctx context.Context, adapter adapters.ProviderAdapter, body io.Reader, req Request,
	readSize int, out chan<- types.Event, log *slog.Logger) {
	if readSize <= 0 {
		readSize = defaultReadSize
	}
	buf := make([]byte, readSize)
	var dec LineDecoder
	provider := adapter.Name()

	for {
		n, readErr := body.Read(buf)
		if n > 0 {
			for _, frame := range dec.Feed(buf[:n]) {
				if frame.Kind == FrameComment {
					r.metrics.RecordRelayFrame(provider, "comment")
					log.Debug("upstream stream comment", "comment", frame.Data)
					continue
				}
				if frame.Data == types.DoneMarker {
					send(ctx, out, types.DoneEvent())
					return
				}

				delta, err := adapter.ParseStreamPayload([]byte(frame.Data))
				if err != nil {
					r.metrics.RecordRelayFrame(provider, "malformed")
					log.Warn("skipping malformed stream payload", "error", err, "payload", truncate(frame.Data, 200))
					continue
				}
				switch {
				case delta.Failure != "":
					r.metrics.RecordRelayFrame(provider, "error")
					log.Error("completion provider reported stream error", "message", delta.Failure)
					send(ctx, out, types.ErrorEvent(types.ErrorMessage(types.ErrCompletionStream, req.Language), types.ErrCompletionStream))
					return
				case delta.Content != "":
					r.metrics.RecordRelayFrame(provider, "content")
					if !send(ctx, out, types.ContentEvent(delta.Content)) {
						return
					}
				}
				if delta.Done {
					send(ctx, out, types.DoneEvent())
					return
				}
			}
		}

		if readErr != nil {
			if ctx.Err() != nil {
				log.Info("caller disconnected, upstream stream aborted")
				return
			}
			if errors.Is(readErr, io.EOF) {
				if dec.Pending() > 0 {
					log.Debug("upstream stream ended with unterminated line", "bytes", dec.Pending())
				}
				send(ctx, out, types.DoneEvent())
				return
			}
			log.Error("upstream stream read failed", "error", readErr)
			send(ctx, out, types.ErrorEvent(types.ErrorMessage(types.ErrCompletionStream, req.Language), types.ErrCompletionStream))
			return
		}
	}
}

func (r *Relay) buildPrompt(cfg config.CompletionConfig, req Request) adapters.Prompt {
	var prompts *config.PromptsConfig
	if r.prompts != nil {
		prompts = r.prompts()
	}
	tmpl := prompts.For(req.Language.String())
	return adapters.Prompt{
		System:      tmpl.System,
		User:        tmpl.UserPrefix + req.Transcript,
		Temperature: cfg.Temperature,
		MaxTokens:   cfg.MaxTokens,
	}
}

func (r *Relay) recordFailure(adapter adapters.ProviderAdapter) {
	if r.tracker != nil {
		r.tracker.RecordFailure(adapter.Name())
	}
}

func (r *Relay) abandon(adapter adapters.ProviderAdapter) {
	if r.tracker != nil {
		r.tracker.Abandon(adapter.Name())
	}
}

// send delivers ev unless ctx is cancelled first.
func send(ctx context.Context, out chan<- types.Event, ev types.Event) bool {
	select {
	case out <- ev:
		return true
	case <-ctx.Done():
		return false
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
