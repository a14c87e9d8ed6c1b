package llm

import (
	"context"
	"fmt"
	"log/slog"
)

// NewProvider creates a Provider from configuration, wrapped as
// caller → timeout → retry → logging → base. sink may be nil.
func NewProvider(ctx context.Context, cfg Config, sink EventSink, logger *slog.Logger) (Provider, error) {
	var base Provider
	var err error

	switch cfg.Provider {
	case ProviderAnthropic:
		base, err = NewAnthropicProvider(cfg.Anthropic)
	case ProviderOpenAI:
		base, err = NewOpenAIProvider(cfg.OpenAI)
	case ProviderGemini:
		base, err = NewGeminiProvider(ctx, cfg.Gemini)
	case ProviderOpenRouter:
		base, err = NewOpenRouterProvider(cfg.OpenRouter)
	case ProviderMock:
		return NewMockProvider(), nil
	default:
		return nil, fmt.Errorf("unknown LLM provider: %q", cfg.Provider)
	}
	if err != nil {
		return nil, fmt.Errorf("initializing %s provider: %w", cfg.Provider, err)
	}

	logged := WithLogging(base, cfg.Provider, sink, logger)
	return WithTimeout(WithRetry(logged, cfg.Retry), cfg.Timeout), nil
}

// NewEmbedder returns an Embedder when the configuration can serve one.
// Only OpenAI-compatible endpoints expose embeddings here.
func NewEmbedder(cfg Config) (Embedder, error) {
	switch cfg.Provider {
	case ProviderOpenAI:
		return NewOpenAIProvider(cfg.OpenAI)
	case ProviderOpenRouter:
		p, err := NewOpenRouterProvider(cfg.OpenRouter)
		if err != nil {
			return nil, err
		}
		p.embeddingModel = cfg.OpenAI.EmbeddingModel
		return p, nil
	}
	if cfg.OpenAI.APIKey != "" {
		return NewOpenAIProvider(cfg.OpenAI)
	}
	return nil, fmt.Errorf("embeddings need an OpenAI-compatible provider, got %q", cfg.Provider)
}
