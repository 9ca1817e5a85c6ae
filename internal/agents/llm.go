// Package agents provides the language model client and the multi-stage
// report generation pipeline built on top of it.
package agents

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/sashabaranov/go-openai"

	"twstock-analyst/internal/errors"
)

// Answer is one model response. Only Content is consumed by the core;
// the rest is carried for reporting and diagnostics.
type Answer struct {
	Content    string
	ModelUsed  string
	TokensUsed int
}

// LLMClient is the single capability boundary to the language model,
// shared by the resolver's fallback tier and all four report stages so
// backends can be swapped without touching either.
type LLMClient interface {
	// Answer sends a prompt and returns the model's text response.
	Answer(ctx context.Context, prompt string) (*Answer, error)
	// Model returns the configured model identifier.
	Model() string
}

// OpenAIClient implements LLMClient against any OpenAI-compatible chat
// endpoint. Ollama exposes one at <host>:11434/v1.
type OpenAIClient struct {
	client *openai.Client
	model  string
}

// NewOpenAIClient creates a chat client for the given endpoint and model.
// baseURL may be empty to use the OpenAI default; a zero timeout leaves
// the transport unbounded and relies on caller contexts.
func NewOpenAIClient(baseURL, apiKey, model string, timeout time.Duration) *OpenAIClient {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	if timeout > 0 {
		cfg.HTTPClient = &http.Client{Timeout: timeout}
	}
	return &OpenAIClient{
		client: openai.NewClientWithConfig(cfg),
		model:  model,
	}
}

// Answer sends a single-message prompt and returns the response text.
// Transport failures surface as ErrModelUnreachable.
func (c *OpenAIClient) Answer(ctx context.Context, prompt string) (*Answer, error) {
	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
	})
	if err != nil {
		return nil, errors.NewModelError("chat completion", err)
	}
	if len(resp.Choices) == 0 {
		return nil, errors.NewModelError("chat completion", fmt.Errorf("no choices returned"))
	}

	model := resp.Model
	if model == "" {
		model = c.model
	}

	return &Answer{
		Content:    resp.Choices[0].Message.Content,
		ModelUsed:  model,
		TokensUsed: resp.Usage.TotalTokens,
	}, nil
}

// Model returns the configured model identifier.
func (c *OpenAIClient) Model() string {
	return c.model
}
