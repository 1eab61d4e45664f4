package embedding

import (
	"context"
	"fmt"
	"strings"

	"qanoonhub-backend/config"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

// NewProviderFromConfig builds the configured embedding provider
func NewProviderFromConfig(ctx context.Context, cfg *config.Config) (Provider, error) {
	switch strings.ToLower(cfg.EmbeddingProvider) {
	case "gemini":
		if cfg.GeminiAPIKey == "" {
			return nil, fmt.Errorf("%w: GEMINI_API_KEY not set", ErrNoProviderEnabled)
		}
		client, err := genai.NewClient(ctx, option.WithAPIKey(cfg.GeminiAPIKey))
		if err != nil {
			return nil, fmt.Errorf("failed to initialize gemini client: %w", err)
		}
		return NewGeminiProvider(client, cfg.EmbeddingModel), nil

	case "openai":
		if cfg.OpenAIAPIKey == "" {
			return nil, fmt.Errorf("%w: OPENAI_API_KEY not set", ErrNoProviderEnabled)
		}
		return NewOpenAIProvider(cfg.OpenAIAPIKey, cfg.EmbeddingModel, cfg.EmbeddingDimension), nil

	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownProvider, cfg.EmbeddingProvider)
	}
}
