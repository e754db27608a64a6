// Package llm wraps the text-generation collaborator behind a small
// interface. The production client talks to any OpenAI-compatible chat
// completions endpoint (OpenRouter, OpenAI, a local server) via langchaingo.
package llm

import (
	"context"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
)

// Message is a single chat message sent to the model.
type Message struct {
	Role    string // "user" | "assistant"
	Content string
}

// Config holds connection settings for the chat completions endpoint.
type Config struct {
	BaseURL string
	APIKey  string
	Model   string
	Timeout time.Duration
}

// Client generates text through an OpenAI-compatible endpoint.
type Client struct {
	model   llms.Model
	timeout time.Duration
}

// New creates a generation client. APIKey and Model are required.
func New(cfg Config) (*Client, error) {
	if cfg.APIKey == "" || cfg.Model == "" {
		return nil, errors.New("llm: api key and model are required")
	}
	opts := []openai.Option{
		openai.WithToken(cfg.APIKey),
		openai.WithModel(cfg.Model),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, openai.WithBaseURL(cfg.BaseURL))
	}
	model, err := openai.New(opts...)
	if err != nil {
		return nil, errors.Wrap(err, "llm: create client")
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{model: model, timeout: timeout}, nil
}

// Generate runs one chat completion with the given system prompt and
// message history and returns the model's text.
func (c *Client) Generate(ctx context.Context, system string, msgs []Message) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	content := make([]llms.MessageContent, 0, len(msgs)+1)
	if system != "" {
		content = append(content, llms.TextParts(llms.ChatMessageTypeSystem, system))
	}
	for _, m := range msgs {
		role := llms.ChatMessageTypeHuman
		if m.Role == "assistant" {
			role = llms.ChatMessageTypeAI
		}
		content = append(content, llms.TextParts(role, m.Content))
	}

	resp, err := c.model.GenerateContent(ctx, content)
	if err != nil {
		return "", errors.Wrap(err, "llm: generate")
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("llm: empty response")
	}
	return strings.TrimSpace(resp.Choices[0].Content), nil
}
