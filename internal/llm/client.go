// Package llm wraps an OpenAI-compatible chat completion endpoint behind a
// single prompt-in, text-out call.
package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/wuwenbin0122/agentmate/internal/utils"
)

const defaultTimeout = 30 * time.Second

var (
	ErrMissingAPIKey   = errors.New("llm: api key is required")
	ErrEmptyCompletion = errors.New("llm: completion contained no choices")
)

// Client sends single-message prompts to the configured model.
type Client struct {
	api     *openai.Client
	model   string
	timeout time.Duration
}

func NewClient(cfg utils.LLMConfig) (*Client, error) {
	return NewClientWithHTTP(cfg, &http.Client{})
}

// NewClientWithHTTP lets callers swap the transport, e.g. in tests.
func NewClientWithHTTP(cfg utils.LLMConfig, httpClient *http.Client) (*Client, error) {
	key := strings.TrimSpace(cfg.APIKey)
	if key == "" {
		return nil, ErrMissingAPIKey
	}

	apiCfg := openai.DefaultConfig(key)
	if base := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/"); base != "" {
		apiCfg.BaseURL = base
	}
	if httpClient != nil {
		apiCfg.HTTPClient = httpClient
	}

	model := strings.TrimSpace(cfg.Model)
	if model == "" {
		model = "gemini-2.0-flash-lite"
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	return &Client{
		api:     openai.NewClientWithConfig(apiCfg),
		model:   model,
		timeout: timeout,
	}, nil
}

// Model reports the model name requests are sent to.
func (c *Client) Model() string { return c.model }

// Complete sends prompt as a single user message. The call is bounded by the
// configured timeout even when ctx has no deadline.
func (c *Client) Complete(ctx context.Context, prompt string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	resp, err := c.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
	})
	if err != nil {
		return "", fmt.Errorf("llm: create chat completion: %w", err)
	}

	if len(resp.Choices) == 0 {
		return "", ErrEmptyCompletion
	}

	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

// ListModels returns the model ids visible to the configured credential.
func (c *Client) ListModels(ctx context.Context) ([]string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	list, err := c.api.ListModels(ctx)
	if err != nil {
		return nil, fmt.Errorf("llm: list models: %w", err)
	}

	ids := make([]string, 0, len(list.Models))
	for _, m := range list.Models {
		ids = append(ids, m.ID)
	}
	return ids, nil
}
