// Package embedding wraps the embedding providers behind a single
// capability: embed a batch of documents, or embed a single query.
package embedding

import (
	"context"
	"fmt"
	"strings"

	"github.com/tmc/langchaingo/embeddings"
	"github.com/tmc/langchaingo/llms/googleai"
	"github.com/tmc/langchaingo/llms/ollama"
	"github.com/tmc/langchaingo/llms/openai"

	"pdf-rag/internal/config"
)

// Embedder produces fixed-dimension vectors. EmbedDocuments is used at
// ingestion time, EmbedQuery at retrieval time; providers that distinguish
// document and query intent rely on the split.
type Embedder interface {
	EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error)
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
}

// New builds the embedder selected by cfg.Provider. A missing API key is a
// precondition failure reported here, before any network call.
func New(ctx context.Context, cfg *config.LLMConfig) (Embedder, error) {
	switch cfg.Provider {
	case "", "googleai", "gemini":
		return NewGoogleAIEmbedder(ctx, cfg)
	case "openai", "openrouter":
		return NewOpenAIEmbedder(cfg)
	case "ollama":
		return NewOllamaEmbedder(cfg)
	default:
		return nil, fmt.Errorf("unknown embedding provider %q", cfg.Provider)
	}
}

// NewGoogleAIEmbedder embeds through Google's text-embedding models.
func NewGoogleAIEmbedder(ctx context.Context, cfg *config.LLMConfig) (*embeddings.EmbedderImpl, error) {
	if cfg.Key == "" {
		return nil, fmt.Errorf("no Google AI API key configured; set GEMINI_API_KEY or GOOGLE_API_KEY")
	}
	llm, err := googleai.New(ctx,
		googleai.WithAPIKey(cfg.Key),
		googleai.WithDefaultEmbeddingModel(cfg.Model),
	)
	if err != nil {
		return nil, fmt.Errorf("initializing Google AI client: %w", err)
	}
	return embeddings.NewEmbedder(llm)
}

// NewOpenAIEmbedder embeds through an OpenAI-compatible endpoint, including
// OpenRouter-style gateways.
func NewOpenAIEmbedder(cfg *config.LLMConfig) (*embeddings.EmbedderImpl, error) {
	if cfg.Key == "" {
		return nil, fmt.Errorf("no API key configured for embedding model %s", cfg.Model)
	}
	opts := []openai.Option{
		openai.WithToken(strings.TrimPrefix(cfg.Key, "Bearer ")),
		openai.WithModel(cfg.Model),
		openai.WithEmbeddingModel(cfg.Model),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, openai.WithBaseURL(cfg.BaseURL))
	}
	llm, err := openai.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("initializing OpenAI client: %w", err)
	}
	return embeddings.NewEmbedder(llm)
}

// NewOllamaEmbedder embeds through a local Ollama server.
func NewOllamaEmbedder(cfg *config.LLMConfig) (*embeddings.EmbedderImpl, error) {
	opts := []ollama.Option{ollama.WithModel(cfg.Model)}
	if cfg.BaseURL != "" {
		opts = append(opts, ollama.WithServerURL(cfg.BaseURL))
	}
	llm, err := ollama.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("initializing Ollama client: %w", err)
	}
	return embeddings.NewEmbedder(llm)
}
