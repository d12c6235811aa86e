package refdex

import (
	"context"
	"fmt"

	"github.com/kailas-cloud/refdex/internal/domain"
)

// Embedder converts a query image into a vector of the catalog's dimension.
type Embedder interface {
	Embed(ctx context.Context, image []byte) ([]float32, error)
}

// embedderAdapter wraps public Embedder to satisfy domain.ImageEmbedder.
type embedderAdapter struct {
	inner Embedder
}

func (a *embedderAdapter) Embed(ctx context.Context, image []byte) (domain.EmbeddingResult, error) {
	vec, err := a.inner.Embed(ctx, image)
	if err != nil {
		return domain.EmbeddingResult{}, fmt.Errorf("embed: %w: %w", domain.ErrEmbeddingProviderError, err)
	}
	return domain.EmbeddingResult{Embedding: vec}, nil
}
