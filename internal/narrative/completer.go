package narrative

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/sashabaranov/go-openai"
)

var (
	ErrDisabled          = errors.New("narrative generation disabled")
	ErrRateLimited       = errors.New("narrative call budget exhausted")
	ErrTransport         = errors.New("narrative service unavailable")
	ErrEmptyResponse     = errors.New("empty narrative response")
	ErrMalformedResponse = errors.New("malformed narrative response")
	ErrPrompt            = errors.New("narrative prompt could not be rendered")
)

// Request is one completion call.
type Request struct {
	Kind        Kind
	Prompt      string
	Temperature float32
	MaxTokens   int
}

// Completer sends a prompt to a text-generation service and returns the raw
// reply.
type Completer interface {
	Complete(ctx context.Context, req Request) (string, error)
}

// OpenAICompleter calls the OpenAI chat completions API.
type OpenAICompleter struct {
	client *openai.Client
	model  string
}

// NewOpenAICompleter builds a completer for apiKey. Returns nil when the key
// is empty so callers can run in fallback-only mode. baseURL may point at any
// OpenAI-compatible endpoint.
func NewOpenAICompleter(apiKey, model, baseURL string, timeout time.Duration) *OpenAICompleter {
	if apiKey == "" {
		return nil
	}
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	cfg.HTTPClient = &http.Client{Timeout: timeout}

	if model == "" {
		model = openai.GPT4oMini
	}
	return &OpenAICompleter{client: openai.NewClientWithConfig(cfg), model: model}
}

func (c *OpenAICompleter) Complete(ctx context.Context, req Request) (string, error) {
	start := time.Now()
	LogRequest(req.Kind, c.model)

	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: req.Prompt},
		},
		Temperature: req.Temperature,
		MaxTokens:   req.MaxTokens,
	})
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrTransport, err)
	}
	LogResponse(req.Kind, time.Since(start), resp.Usage.TotalTokens)

	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
		return "", ErrEmptyResponse
	}
	return resp.Choices[0].Message.Content, nil
}
