package adapters

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/af-corp/thoth/internal/config"
)

const defaultAnthropicVersion = "2023-06-01"

// AnthropicAdapter talks to the Anthropic Messages API.
type AnthropicAdapter struct {
	name   string
	cfg    config.ProviderConfig
	client *http.Client
}

func NewAnthropicAdapter(name string, cfg config.ProviderConfig, client *http.Client) *AnthropicAdapter {
	return &AnthropicAdapter{name: name, cfg: cfg, client: client}
}

func (a *AnthropicAdapter) Name() string { return a.name }

func (a *AnthropicAdapter) NewStreamRequest(ctx context.Context, p Prompt) (*http.Request, error) {
	if a.cfg.APIKey == "" {
		return nil, ErrMissingCredential
	}

	// Anthropic requires max_tokens
	maxTokens := p.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 2048
	}
	temperature := p.Temperature

	body := anthropicRequestBody{
		Model:       a.cfg.Model,
		System:      p.System,
		Messages:    []anthropicMessage{{Role: "user", Content: p.User}},
		MaxTokens:   maxTokens,
		Stream:      true,
		Temperature: &temperature,
	}

	data, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshal anthropic request: %w", err)
	}

	url := strings.TrimRight(a.cfg.BaseURL, "/") + "/messages"
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("create http request: %w", err)
	}

	version := a.cfg.APIVersion
	if version == "" {
		version = defaultAnthropicVersion
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "text/event-stream")
	httpReq.Header.Set("x-api-key", a.cfg.APIKey)
	httpReq.Header.Set("anthropic-version", version)
	for k, v := range a.cfg.Headers {
		if v != "" {
			httpReq.Header.Set(k, v)
		}
	}

	return httpReq, nil
}

// ParseStreamPayload maps content_block_delta text to content and
// message_stop to the end of the stream. Other event types carry nothing.
func (a *AnthropicAdapter) ParseStreamPayload(payload []byte) (Delta, error) {
	var event struct {
		Type  string `json:"type"`
		Delta struct {
			Type string `json:"type"`
			Text string `json:"text"`
		} `json:"delta"`
		Error struct {
			Type    string `json:"type"`
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal(payload, &event); err != nil {
		return Delta{}, fmt.Errorf("decode anthropic event: %w", err)
	}

	switch event.Type {
	case "content_block_delta":
		if event.Delta.Type == "text_delta" {
			return Delta{Content: event.Delta.Text}, nil
		}
	case "message_stop":
		return Delta{Done: true}, nil
	case "error":
		msg := event.Error.Message
		if msg == "" {
			msg = event.Error.Type
		}
		return Delta{Failure: msg}, nil
	}
	return Delta{}, nil
}

func (a *AnthropicAdapter) SendRequest(req *http.Request) (*http.Response, error) {
	return a.client.Do(req)
}

type anthropicMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type anthropicRequestBody struct {
	Model       string             `json:"model"`
	Messages    []anthropicMessage `json:"messages"`
	System      string             `json:"system,omitempty"`
	MaxTokens   int                `json:"max_tokens"`
	Stream      bool               `json:"stream"`
	Temperature *float64           `json:"temperature,omitempty"`
}
