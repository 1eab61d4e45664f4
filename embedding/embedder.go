// Package embedding wraps the text-embedding providers behind a single
// interface and adds content-hash caching with graceful degradation: callers
// that can live without a vector never see a provider failure.
package embedding

import (
	"context"
	"errors"
)

// Common errors
var (
	ErrEmptyText         = errors.New("text cannot be empty")
	ErrNoProviderEnabled = errors.New("no embedding provider configured")
	ErrUnknownProvider   = errors.New("unknown embedding provider")
)

// Provider generates embeddings for texts. Implementations return errors;
// the cache layer on top converts those into nil vectors.
type Provider interface {
	// Embed generates a single embedding for the given text
	Embed(ctx context.Context, text string) ([]float32, error)

	// EmbedBatch generates embeddings for multiple texts, preserving order
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)

	// Dimension returns the embedding dimension for this provider
	Dimension() int

	// Name returns the provider name
	Name() string
}
