// Package summarize runs one summarize session: quota admission, reference
// validation, transcript fetch, and the completion relay, producing a single
// ordered stream of caller-facing events.
package summarize

import (
	"context"
	"errors"
	"log/slog"
	"math"
	"strings"
	"sync/atomic"
	"time"

	"github.com/af-corp/thoth/internal/quota"
	"github.com/af-corp/thoth/internal/relay"
	"github.com/af-corp/thoth/internal/screening"
	"github.com/af-corp/thoth/internal/telemetry"
	"github.com/af-corp/thoth/internal/transcript"
	"github.com/af-corp/thoth/internal/types"
	"github.com/af-corp/thoth/internal/youtube"
)

// Admitter decides whether a caller may start another session.
type Admitter interface {
	Admit(ctx context.Context, identity string) quota.Decision
}

// Streamer produces the completion events for a transcript.
type Streamer interface {
	Stream(ctx context.Context, req relay.Request) <-chan types.Event
}

// Session is one inbound summarize request.
type Session struct {
	RequestID string
	Identity  string
	URL       string
	Language  types.Language
}

// Run is a started session. Admission is decided before Start returns so the
// transport can publish quota headers ahead of the event stream.
type Run struct {
	Admission quota.Decision
	Events    <-chan types.Event

	state atomic.Int32
}

// State reports the session's current step.
func (r *Run) State() State {
	return State(r.state.Load())
}

func (r *Run) advance(next State) {
	for {
		cur := r.state.Load()
		if State(cur) >= next {
			return
		}
		if r.state.CompareAndSwap(cur, int32(next)) {
			return
		}
	}
}

type Controller struct {
	ledger      Admitter
	transcripts transcript.Source
	relay       Streamer
	screener    *screening.Scanner
	metrics     *telemetry.Metrics
	now         func() time.Time
}

func NewController(ledger Admitter, transcripts transcript.Source, streamer Streamer,
	screener *screening.Scanner, metrics *telemetry.Metrics) *Controller {
	return &Controller{
		ledger:      ledger,
		transcripts: transcripts,
		relay:       streamer,
		screener:    screener,
		metrics:     metrics,
		now:         time.Now,
	}
}

// Start admits the session and runs the rest of it in the background. The
// Events channel ends with exactly one Done or Error event and is then closed,
// unless ctx is cancelled first, in which case it closes without one.
func (c *Controller) Start(ctx context.Context, s Session) *Run {
	started := c.now()
	out := make(chan types.Event)
	run := &Run{Events: out}

	run.Admission = c.ledger.Admit(ctx, s.Identity)
	c.metrics.RecordQuotaDecision(admissionLabel(run.Admission))

	go func() {
		defer close(out)
		outcome := c.execute(ctx, s, run, out)
		run.advance(StateTerminated)
		c.metrics.RecordRequest(telemetry.RequestLabels{
			Language:   s.Language.String(),
			Outcome:    outcome,
			DurationMs: float64(c.now().Sub(started).Milliseconds()),
		})
	}()
	return run
}

// execute walks the states in order and returns the outcome label.
func (c *Controller) execute(ctx context.Context, s Session, run *Run, out chan<- types.Event) string {
	log := slog.With("request_id", s.RequestID, "identity", s.Identity)
	lang := s.Language

	if !run.Admission.Allowed {
		hours := int(math.Ceil(run.Admission.ResetAt.Sub(c.now()).Hours()))
		if hours < 0 {
			hours = 0
		}
		log.Info("quota exceeded", "reset_at", run.Admission.ResetAt)
		return c.fail(ctx, out, types.ErrorEvent(types.QuotaMessage(lang, hours), types.ErrQuotaExceeded))
	}

	run.advance(StateValidating)
	raw := strings.TrimSpace(s.URL)
	if raw == "" {
		return c.fail(ctx, out, types.ErrorEvent(types.EmptyURLMessage(lang), types.ErrInvalidReference))
	}
	ref, ok := youtube.Validate(raw)
	if !ok {
		log.Info("invalid video reference", "url", raw)
		return c.fail(ctx, out, types.ErrorEvent(types.ErrorMessage(types.ErrInvalidReference, lang), types.ErrInvalidReference))
	}

	run.advance(StateFetchingTranscript)
	if !send(ctx, out, types.StatusEvent(types.ReadingStatus(lang))) {
		return outcomeCancelled
	}
	res, err := c.transcripts.Fetch(ctx, ref.ID)
	if err != nil {
		code := types.ErrUnknown
		var se *types.StageError
		if errors.As(err, &se) {
			code = se.Code
		}
		if code == types.ErrCallerDisconnected || ctx.Err() != nil {
			log.Info("caller disconnected during transcript fetch")
			return outcomeCancelled
		}
		log.Warn("transcript fetch failed", "video_id", ref.ID, "code", code, "error", err)
		return c.fail(ctx, out, types.ErrorEvent(types.ErrorMessage(code, lang), code))
	}
	log.Info("transcript fetched", "video_id", ref.ID, "chars", len([]rune(res.Text)), "truncated", res.Truncated)

	if !send(ctx, out, types.MetadataEvent(res.Metadata)) {
		return outcomeCancelled
	}
	c.screener.Screen(s.RequestID, res.Text)

	run.advance(StateRelaying)
	if !send(ctx, out, types.StatusEvent(types.SummarizingStatus(lang))) {
		return outcomeCancelled
	}

	events := c.relay.Stream(ctx, relay.Request{RequestID: s.RequestID, Language: lang, Transcript: res.Text})
	for ev := range events {
		if !send(ctx, out, ev) {
			return outcomeCancelled
		}
		switch ev.Kind {
		case types.EventDone:
			return outcomeDone
		case types.EventError:
			return outcomeFor(ev.Code)
		}
	}

	if ctx.Err() != nil {
		log.Info("caller disconnected during relay")
		return outcomeCancelled
	}
	log.Error("completion relay ended without a terminal event")
	return c.fail(ctx, out, types.ErrorEvent(types.ErrorMessage(types.ErrUnknown, lang), types.ErrUnknown))
}

func (c *Controller) fail(ctx context.Context, out chan<- types.Event, ev types.Event) string {
	if !send(ctx, out, ev) {
		return outcomeCancelled
	}
	return outcomeFor(ev.Code)
}

const (
	outcomeDone      = "done"
	outcomeCancelled = "cancelled"
)

func outcomeFor(code types.ErrorCode) string {
	if code == "" {
		code = types.ErrUnknown
	}
	return strings.ToLower(string(code))
}

func admissionLabel(d quota.Decision) string {
	switch {
	case d.Bypassed:
		return "bypassed"
	case d.FailedOpen:
		return "failed_open"
	case d.Allowed:
		return "allowed"
	default:
		return "denied"
	}
}

func send(ctx context.Context, out chan<- types.Event, ev types.Event) bool {
	select {
	case out <- ev:
		return true
	case <-ctx.Done():
		return false
	}
}
