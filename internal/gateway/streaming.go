package gateway

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/af-corp/thoth/internal/types"
)

// eventStream writes caller-facing events as SSE frames. After the first
// failed write every further send is a no-op that returns the same error.
type eventStream struct {
	w   http.ResponseWriter
	rc  *http.ResponseController
	err error
}

func newEventStream(w http.ResponseWriter) (*eventStream, bool) {
	if _, ok := w.(http.Flusher); !ok {
		return nil, false
	}
	return &eventStream{w: w, rc: http.NewResponseController(w)}, true
}

func (s *eventStream) open(reqID string) {
	s.w.Header().Set("Content-Type", "text/event-stream")
	s.w.Header().Set("Cache-Control", "no-cache")
	s.w.Header().Set("Connection", "keep-alive")
	s.w.Header().Set("X-Accel-Buffering", "no")
	s.w.Header().Set("X-Request-ID", reqID)
	s.w.WriteHeader(http.StatusOK)
	s.flush()
}

func (s *eventStream) send(ev types.Event) error {
	if s.err != nil {
		return s.err
	}
	payload, err := ev.Payload()
	if err != nil {
		slog.Error("failed to encode event", "kind", ev.Kind.String(), "error", err)
		return nil
	}
	if _, err := fmt.Fprintf(s.w, "data: %s\n\n", payload); err != nil {
		s.err = err
		return err
	}
	return s.flush()
}

func (s *eventStream) flush() error {
	if err := s.rc.Flush(); err != nil {
		s.err = err
	}
	return s.err
}
