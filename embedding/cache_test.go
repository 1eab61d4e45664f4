package embedding

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeProvider deterministically maps each text to a vector and records
// every batch it is asked for.
type fakeProvider struct {
	batches [][]string
	err     error
}

func (p *fakeProvider) Embed(ctx context.Context, text string) ([]float32, error) {
	vectors, err := p.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

func (p *fakeProvider) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	p.batches = append(p.batches, texts)
	if p.err != nil {
		return nil, p.err
	}
	vectors := make([][]float32, len(texts))
	for i, text := range texts {
		vectors[i] = []float32{float32(len(text))}
	}
	return vectors, nil
}

func (p *fakeProvider) Dimension() int { return 1 }
func (p *fakeProvider) Name() string   { return "fake" }

func TestClientCachesRepeatedText(t *testing.T) {
	provider := &fakeProvider{}
	client := NewClient(provider, "test-model", time.Minute, nil)
	ctx := context.Background()

	first := client.Embed(ctx, "grant of bail")
	second := client.Embed(ctx, "grant of bail")

	require.NotNil(t, first)
	assert.Equal(t, first, second)
	assert.Len(t, provider.batches, 1, "the second call must be served from cache")
}

func TestClientBatchCallsProviderOnlyForMisses(t *testing.T) {
	provider := &fakeProvider{}
	client := NewClient(provider, "test-model", time.Minute, nil)
	ctx := context.Background()

	client.Embed(ctx, "bb")

	vectors := client.EmbedBatch(ctx, []string{"aaa", "bb", "cccc"})
	require.Len(t, vectors, 3)

	// Order is preserved even though only the misses hit the provider.
	assert.Equal(t, []float32{3}, vectors[0])
	assert.Equal(t, []float32{2}, vectors[1])
	assert.Equal(t, []float32{4}, vectors[2])

	require.Len(t, provider.batches, 2)
	assert.Equal(t, []string{"aaa", "cccc"}, provider.batches[1])
}

func TestClientDegradesOnProviderFailure(t *testing.T) {
	provider := &fakeProvider{err: errors.New("rate limited")}
	client := NewClient(provider, "test-model", time.Minute, nil)
	ctx := context.Background()

	assert.Nil(t, client.Embed(ctx, "grant of bail"))

	vectors := client.EmbedBatch(ctx, []string{"one", "two"})
	require.Len(t, vectors, 2)
	assert.Nil(t, vectors[0])
	assert.Nil(t, vectors[1])
}

func TestClientFailureIsNotCached(t *testing.T) {
	provider := &fakeProvider{err: errors.New("transient")}
	client := NewClient(provider, "test-model", time.Minute, nil)
	ctx := context.Background()

	require.Nil(t, client.Embed(ctx, "grant of bail"))

	provider.err = nil
	recovered := client.Embed(ctx, "grant of bail")
	assert.NotNil(t, recovered, "a failed text is retried once the provider recovers")
}

func TestClientSkipsEmptyTexts(t *testing.T) {
	provider := &fakeProvider{}
	client := NewClient(provider, "test-model", time.Minute, nil)

	vectors := client.EmbedBatch(context.Background(), []string{"", "bail"})
	require.Len(t, vectors, 2)
	assert.Nil(t, vectors[0])
	assert.NotNil(t, vectors[1])
	require.Len(t, provider.batches, 1)
	assert.Equal(t, []string{"bail"}, provider.batches[0])
}
