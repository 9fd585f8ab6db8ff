package llm

import (
	"context"
	"errors"
	"fmt"

	openai "github.com/sashabaranov/go-openai"

	"github.com/streamops/modsentry/internal/session"
)

// #region client

// Client is a thin chat+embeddings wrapper over an OpenAI-compatible
// endpoint. Every call records its usage into the session cost tracker
// when one is attached.
type Client struct {
	api   API
	cfg   Config
	costs *session.CostTracker
}

// New builds a client talking to cfg.BaseURL (Together.ai by default).
func New(cfg Config, costs *session.CostTracker) *Client {
	oc := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		oc.BaseURL = cfg.BaseURL
	} else {
		oc.BaseURL = DefaultBaseURL
	}
	return NewWithAPI(openai.NewClientWithConfig(oc), cfg, costs)
}

// NewWithAPI builds a client over an injected API implementation.
func NewWithAPI(api API, cfg Config, costs *session.CostTracker) *Client {
	return &Client{api: api, cfg: cfg, costs: costs}
}

// Model returns the configured chat model name.
func (c *Client) Model() string {
	return c.cfg.Model
}

// #endregion client

// #region complete

// Complete sends a system+user prompt pair and returns the raw response
// text. The request demands a JSON-object response; callers parse it.
func (c *Client) Complete(ctx context.Context, system, user string) (string, Usage, error) {
	req := openai.ChatCompletionRequest{
		Model: c.cfg.Model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: system},
			{Role: openai.ChatMessageRoleUser, Content: user},
		},
		MaxTokens:   c.cfg.MaxTokens,
		Temperature: c.cfg.Temperature,
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
	}
	resp, err := c.api.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", Usage{}, fmt.Errorf("chat completion (%s): %w", c.cfg.Model, err)
	}
	usage := Usage{
		PromptTokens:     resp.Usage.PromptTokens,
		CompletionTokens: resp.Usage.CompletionTokens,
		TotalTokens:      resp.Usage.TotalTokens,
	}
	if c.costs != nil {
		usage.Cost = c.costs.Record(c.cfg.Model, usage.PromptTokens, usage.CompletionTokens, usage.TotalTokens)
	}
	if len(resp.Choices) == 0 {
		return "", usage, errors.New("chat completion returned no choices")
	}
	return resp.Choices[0].Message.Content, usage, nil
}

// #endregion complete

// #region embed

// Embed returns the embedding vector for one text. Satisfies
// memory.Embedder for the dense index backend.
func (c *Client) Embed(ctx context.Context, text string) ([]float32, error) {
	model := c.cfg.EmbedModel
	if model == "" {
		model = DefaultEmbedModel
	}
	resp, err := c.api.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Input: []string{text},
		Model: openai.EmbeddingModel(model),
	})
	if err != nil {
		return nil, fmt.Errorf("embeddings (%s): %w", model, err)
	}
	if c.costs != nil {
		c.costs.Record(model, resp.Usage.PromptTokens, 0, resp.Usage.TotalTokens)
	}
	if len(resp.Data) == 0 {
		return nil, errors.New("embeddings response empty")
	}
	return resp.Data[0].Embedding, nil
}

// #endregion embed
