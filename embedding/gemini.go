package embedding

import (
	"context"
	"fmt"

	"github.com/google/generative-ai-go/genai"
)

const (
	// DefaultGeminiModel is the embedding model used when none is configured
	DefaultGeminiModel = "text-embedding-004"
	// GeminiDimension is the native output dimension of text-embedding-004
	GeminiDimension = 768
)

// GeminiProvider generates embeddings via the Gemini API
type GeminiProvider struct {
	client *genai.Client
	model  string
}

// NewGeminiProvider creates a Gemini embedding provider
func NewGeminiProvider(client *genai.Client, model string) *GeminiProvider {
	if model == "" {
		model = DefaultGeminiModel
	}
	return &GeminiProvider{client: client, model: model}
}

// Embed generates a single embedding
func (p *GeminiProvider) Embed(ctx context.Context, text string) ([]float32, error) {
	if text == "" {
		return nil, ErrEmptyText
	}

	em := p.client.EmbeddingModel(p.model)
	em.TaskType = genai.TaskTypeRetrievalDocument

	res, err := em.EmbedContent(ctx, genai.Text(text))
	if err != nil {
		return nil, fmt.Errorf("gemini embed failed: %w", err)
	}
	if res.Embedding == nil || len(res.Embedding.Values) == 0 {
		return nil, fmt.Errorf("gemini returned empty embedding")
	}
	return res.Embedding.Values, nil
}

// EmbedBatch generates embeddings for multiple texts in one API call
func (p *GeminiProvider) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, ErrEmptyText
	}

	em := p.client.EmbeddingModel(p.model)
	em.TaskType = genai.TaskTypeRetrievalDocument

	batch := em.NewBatch()
	for _, t := range texts {
		batch.AddContent(genai.Text(t))
	}

	res, err := em.BatchEmbedContents(ctx, batch)
	if err != nil {
		return nil, fmt.Errorf("gemini batch embed failed: %w", err)
	}
	if len(res.Embeddings) != len(texts) {
		return nil, fmt.Errorf("gemini returned %d embeddings for %d texts", len(res.Embeddings), len(texts))
	}

	vectors := make([][]float32, len(texts))
	for i, e := range res.Embeddings {
		if e == nil || len(e.Values) == 0 {
			return nil, fmt.Errorf("gemini returned empty embedding at index %d", i)
		}
		vectors[i] = e.Values
	}
	return vectors, nil
}

// Dimension returns the embedding dimension
func (p *GeminiProvider) Dimension() int {
	return GeminiDimension
}

// Name returns the provider name
func (p *GeminiProvider) Name() string {
	return "gemini"
}

var _ Provider = (*GeminiProvider)(nil)
