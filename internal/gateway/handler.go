package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/af-corp/thoth/internal/caller"
	"github.com/af-corp/thoth/internal/config"
	"github.com/af-corp/thoth/internal/httputil"
	"github.com/af-corp/thoth/internal/quota"
	"github.com/af-corp/thoth/internal/summarize"
	"github.com/af-corp/thoth/internal/types"
)

// Handler holds dependencies for the summarize HTTP handler.
type Handler struct {
	controller    *summarize.Controller
	quotaCapacity int
	cfg           func() *config.Config
}

func NewHandler(controller *summarize.Controller, quotaCapacity int, cfg func() *config.Config) *Handler {
	return &Handler{
		controller:    controller,
		quotaCapacity: quotaCapacity,
		cfg:           cfg,
	}
}

// Summarize handles POST /api/summarize
func (h *Handler) Summarize(w http.ResponseWriter, r *http.Request) {
	reqID := httputil.RequestIDFromContext(r.Context())
	if reqID == "" {
		reqID = httputil.NewRequestID()
	}
	receivedAt := time.Now()

	if limit := h.cfg().Server.MaxBodyBytes; limit > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, limit)
	}
	defer r.Body.Close()

	var req types.SummarizeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		var tooLarge *http.MaxBytesError
		switch {
		case errors.As(err, &tooLarge):
			httputil.WriteRequestTooLargeError(w, reqID, "Request body too large")
		case errors.Is(err, io.EOF):
			httputil.WriteBadRequestError(w, reqID, "Request body is empty")
		default:
			httputil.WriteBadRequestError(w, reqID, "Invalid JSON: "+err.Error())
		}
		return
	}
	req.RequestID = reqID
	req.Identity = caller.IdentityFromContext(r.Context())
	req.ReceivedAt = receivedAt

	lang, ok := types.ParseLanguage(req.Language)
	if !ok && req.Language != "" {
		slog.Warn("unsupported language, using default", "request_id", reqID, "language", req.Language)
	}

	stream, ok := newEventStream(w)
	if !ok {
		httputil.WriteInternalError(w, reqID, "Streaming not supported")
		return
	}

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	run := h.controller.Start(ctx, summarize.Session{
		RequestID: reqID,
		Identity:  req.Identity,
		URL:       req.URL,
		Language:  lang,
	})
	quota.SetHeaders(w.Header(), run.Admission, h.quotaCapacity)
	stream.open(reqID)

	var last types.EventKind
	for ev := range run.Events {
		last = ev.Kind
		if err := stream.send(ev); err != nil {
			// The controller stops on cancel; keep draining until it closes.
			cancel()
		}
	}

	slog.Info("summarize request finished",
		"request_id", reqID,
		"identity", req.Identity,
		"language", lang.String(),
		"last_event", last.String(),
		"disconnected", stream.err != nil || r.Context().Err() != nil,
		"duration_ms", time.Since(receivedAt).Milliseconds(),
	)
}
