package adapters

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"github.com/af-corp/thoth/internal/config"
)

// OpenAIAdapter talks to OpenAI-compatible chat completion APIs such as OpenRouter.
type OpenAIAdapter struct {
	name   string
	cfg    config.ProviderConfig
	client *http.Client
}

func NewOpenAIAdapter(name string, cfg config.ProviderConfig, client *http.Client) *OpenAIAdapter {
	return &OpenAIAdapter{name: name, cfg: cfg, client: client}
}

func (a *OpenAIAdapter) Name() string { return a.name }

func (a *OpenAIAdapter) NewStreamRequest(ctx context.Context, p Prompt) (*http.Request, error) {
	if a.cfg.APIKey == "" {
		return nil, ErrMissingCredential
	}

	body := openai.ChatCompletionRequest{
		Model: a.cfg.Model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: p.System},
			{Role: openai.ChatMessageRoleUser, Content: p.User},
		},
		Stream:      true,
		Temperature: float32(p.Temperature),
		MaxTokens:   p.MaxTokens,
	}

	data, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshal openai request: %w", err)
	}

	url := strings.TrimRight(a.cfg.BaseURL, "/") + "/chat/completions"
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("create http request: %w", err)
	}

	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "text/event-stream")
	httpReq.Header.Set("Authorization", "Bearer "+a.cfg.APIKey)
	for k, v := range a.cfg.Headers {
		if v != "" {
			httpReq.Header.Set(k, v)
		}
	}

	return httpReq, nil
}

type openAIStreamError struct {
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

// ParseStreamPayload checks the error envelope before choices: OpenRouter
// reports mid-stream failures as an error object next to a choice whose
// finish_reason is "error".
func (a *OpenAIAdapter) ParseStreamPayload(payload []byte) (Delta, error) {
	var chunk openai.ChatCompletionStreamResponse
	if err := json.Unmarshal(payload, &chunk); err != nil {
		return Delta{}, fmt.Errorf("decode openai chunk: %w", err)
	}

	var streamErr openAIStreamError
	if err := json.Unmarshal(payload, &streamErr); err == nil && streamErr.Error != nil {
		return Delta{Failure: failureMessage(streamErr.Error.Message)}, nil
	}
	if len(chunk.Choices) == 0 {
		return Delta{}, nil
	}
	choice := chunk.Choices[0]
	if choice.FinishReason == finishReasonError {
		return Delta{Failure: failureMessage("")}, nil
	}
	return Delta{Content: choice.Delta.Content}, nil
}

const finishReasonError = "error"

func failureMessage(msg string) string {
	if msg == "" {
		return "upstream stream error"
	}
	return msg
}

func (a *OpenAIAdapter) SendRequest(req *http.Request) (*http.Response, error) {
	return a.client.Do(req)
}
