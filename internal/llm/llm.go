// Package llm wraps the generative model providers behind a single
// generate-text capability.
package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/googleai"
	"github.com/tmc/langchaingo/llms/ollama"
	"github.com/tmc/langchaingo/llms/openai"

	"pdf-rag/internal/config"
)

// Model generates freeform text from a prompt. Empty output is a legitimate
// result, not an error.
type Model interface {
	Generate(ctx context.Context, prompt string, maxTokens int, temperature float64) (string, error)
}

type langchainModel struct {
	llm llms.Model
}

// New builds the model selected by cfg.Provider. A missing API key is a
// precondition failure reported here, before any network call.
func New(ctx context.Context, cfg *config.LLMConfig) (Model, error) {
	switch cfg.Provider {
	case "", "googleai", "gemini":
		if cfg.Key == "" {
			return nil, fmt.Errorf("no Google AI API key configured; set GEMINI_API_KEY or GOOGLE_API_KEY")
		}
		llm, err := googleai.New(ctx,
			googleai.WithAPIKey(cfg.Key),
			googleai.WithDefaultModel(cfg.Model),
		)
		if err != nil {
			return nil, fmt.Errorf("initializing Google AI client: %w", err)
		}
		return &langchainModel{llm: llm}, nil
	case "openai", "openrouter":
		if cfg.Key == "" {
			return nil, fmt.Errorf("no API key configured for inference model %s", cfg.Model)
		}
		opts := []openai.Option{
			openai.WithToken(strings.TrimPrefix(cfg.Key, "Bearer ")),
			openai.WithModel(cfg.Model),
		}
		if cfg.BaseURL != "" {
			opts = append(opts, openai.WithBaseURL(cfg.BaseURL))
		}
		llm, err := openai.New(opts...)
		if err != nil {
			return nil, fmt.Errorf("initializing OpenAI client: %w", err)
		}
		return &langchainModel{llm: llm}, nil
	case "ollama":
		opts := []ollama.Option{ollama.WithModel(cfg.Model)}
		if cfg.BaseURL != "" {
			opts = append(opts, ollama.WithServerURL(cfg.BaseURL))
		}
		llm, err := ollama.New(opts...)
		if err != nil {
			return nil, fmt.Errorf("initializing Ollama client: %w", err)
		}
		return &langchainModel{llm: llm}, nil
	default:
		return nil, fmt.Errorf("unknown LLM provider %q", cfg.Provider)
	}
}

func (m *langchainModel) Generate(ctx context.Context, prompt string, maxTokens int, temperature float64) (string, error) {
	messages := []llms.MessageContent{
		{
			Role:  llms.ChatMessageTypeHuman,
			Parts: []llms.ContentPart{llms.TextContent{Text: prompt}},
		},
	}
	res, err := m.llm.GenerateContent(ctx, messages,
		llms.WithMaxTokens(maxTokens),
		llms.WithTemperature(temperature),
	)
	if err != nil {
		return "", err
	}
	if len(res.Choices) == 0 {
		return "", nil
	}
	return res.Choices[0].Content, nil
}
