// Package openai adapts the OpenAI chat completion API to a
// generation.TextGenerator.
package openai

import (
	"context"
	"net/http"

	goopenai "github.com/sashabaranov/go-openai"
)

const DefaultModel = "gpt-4o-mini"

type Client struct {
	api   *goopenai.Client
	model string
}

type Option func(*goopenai.ClientConfig, *Client)

func WithModel(model string) Option {
	return func(_ *goopenai.ClientConfig, c *Client) {
		if model != "" {
			c.model = model
		}
	}
}

// WithBaseURL points the client at a compatible endpoint, e.g. a test server.
func WithBaseURL(url string) Option {
	return func(cfg *goopenai.ClientConfig, _ *Client) { cfg.BaseURL = url }
}

func WithHTTPClient(hc *http.Client) Option {
	return func(cfg *goopenai.ClientConfig, _ *Client) { cfg.HTTPClient = hc }
}

func New(apiKey string, opts ...Option) *Client {
	cfg := goopenai.DefaultConfig(apiKey)
	c := &Client{model: DefaultModel}
	for _, opt := range opts {
		opt(&cfg, c)
	}
	c.api = goopenai.NewClientWithConfig(cfg)
	return c
}

// Generate sends prompt as a single user message. An empty completion is
// returned as "" so the caller can apply its own fallback.
func (c *Client) Generate(ctx context.Context, prompt string) (string, error) {
	resp, err := c.api.CreateChatCompletion(ctx, goopenai.ChatCompletionRequest{
		Model: c.model,
		Messages: []goopenai.ChatCompletionMessage{
			{Role: goopenai.ChatMessageRoleUser, Content: prompt},
		},
	})
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", nil
	}
	return resp.Choices[0].Message.Content, nil
}
