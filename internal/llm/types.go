package llm

import (
	"context"

	openai "github.com/sashabaranov/go-openai"
)

// DefaultBaseURL points at Together.ai's OpenAI-compatible endpoint.
const DefaultBaseURL = "https://api.together.xyz/v1"

// DefaultEmbedModel is the retrieval embedding model used when the
// config names none.
const DefaultEmbedModel = "togethercomputer/m2-bert-80M-8k-retrieval"

// Config selects the endpoint and generation parameters for one client.
type Config struct {
	BaseURL     string
	APIKey      string
	Model       string
	EmbedModel  string
	MaxTokens   int
	Temperature float32
}

// Usage reports token consumption and estimated cost of one call.
type Usage struct {
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
	Cost             float64
}

// API is the slice of the OpenAI-compatible client the Client needs.
// *openai.Client satisfies it; tests inject a stub.
type API interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
	CreateEmbeddings(ctx context.Context, conv openai.EmbeddingRequestConverter) (openai.EmbeddingResponse, error)
}
