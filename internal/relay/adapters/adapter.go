package adapters

import (
	"context"
	"errors"
	"net/http"
)

// ErrMissingCredential is returned when a provider has no API key configured.
var ErrMissingCredential = errors.New("provider credential not configured")

// Prompt is a single summarization request in provider-neutral form.
type Prompt struct {
	System      string
	User        string
	Temperature float64
	MaxTokens   int
}

// Delta is what one upstream stream payload contributes to the relay.
type Delta struct {
	Content string
	Done    bool
	// Failure is set when the provider reports an error inside the stream.
	Failure string
}

// ProviderAdapter builds streaming completion requests for one provider and
// decodes the data payloads of its event stream.
type ProviderAdapter interface {
	Name() string
	NewStreamRequest(ctx context.Context, p Prompt) (*http.Request, error)
	// ParseStreamPayload decodes the text after "data: ". It returns an
	// error only for malformed payloads.
	ParseStreamPayload(payload []byte) (Delta, error)
	SendRequest(req *http.Request) (*http.Response, error)
}
