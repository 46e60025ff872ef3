// Package scoring ranks evidence windows by semantic similarity to a
// company/keyword question.
package scoring

import (
	"context"
	"errors"
	"fmt"
)

var (
	// ErrEmptyInput indicates empty or nil input texts.
	ErrEmptyInput = errors.New("empty or nil input texts")
	// ErrInvalidConfig indicates an unusable provider configuration.
	ErrInvalidConfig = errors.New("invalid embedding configuration")
	// ErrEmbeddingFailed indicates the provider could not embed the input.
	ErrEmbeddingFailed = errors.New("embedding generation failed")
)

// Embedder turns text into fixed-length vectors.
type Embedder interface {
	EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error)
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
	Close() error
}

// Provider names.
const (
	ProviderFastEmbed = "fastembed"
	ProviderTEI       = "tei"
)

// NewEmbedder builds the configured embedding provider.
func NewEmbedder(cfg Config) (Embedder, error) {
	cfg = cfg.WithDefaults()

	switch cfg.Provider {
	case ProviderFastEmbed:
		p, err := NewFastEmbedProvider(FastEmbedConfig{
			Model:     cfg.Model,
			CacheDir:  cfg.CacheDir,
			MaxLength: cfg.MaxLength,
		})
		if err != nil {
			return nil, err
		}
		return p, nil
	case ProviderTEI:
		t, err := NewTEIEmbedder(TEIConfig{
			BaseURL: cfg.BaseURL,
			Timeout: cfg.Timeout,
		})
		if err != nil {
			return nil, err
		}
		return t, nil
	default:
		return nil, fmt.Errorf("%w: unknown provider %q", ErrInvalidConfig, cfg.Provider)
	}
}
