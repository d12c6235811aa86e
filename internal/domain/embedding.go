package domain

import (
	"context"
	"fmt"
	"math"
)

// ImageEmbedder is the shared image vectorization contract between layers.
// Implementations are not assumed to be reentrant.
type ImageEmbedder interface {
	Embed(ctx context.Context, image []byte) (EmbeddingResult, error)
}

// HealthChecker verifies embedding provider availability.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// EmbeddingResult carries the embedding vector through the decorator chain.
type EmbeddingResult struct {
	Embedding []float32
	// Cached is true when the vector came from the embedding cache instead of the model.
	Cached bool
}

// NormalizedEmbedder is a domain decorator that scales every vector to unit length,
// so euclidean distances between embeddings stay within [0, 2].
type NormalizedEmbedder struct {
	inner ImageEmbedder
}

// NewNormalizedEmbedder wraps inner with L2 normalization.
func NewNormalizedEmbedder(inner ImageEmbedder) *NormalizedEmbedder {
	return &NormalizedEmbedder{inner: inner}
}

// Embed delegates to the inner embedder and normalizes the result.
func (e *NormalizedEmbedder) Embed(ctx context.Context, image []byte) (EmbeddingResult, error) {
	res, err := e.inner.Embed(ctx, image)
	if err != nil {
		return EmbeddingResult{}, fmt.Errorf("normalized embed: %w", err)
	}
	res.Embedding = Normalize(res.Embedding)
	return res, nil
}

// HealthCheck forwards to the inner embedder when it supports health checks.
func (e *NormalizedEmbedder) HealthCheck(ctx context.Context) error {
	if hc, ok := e.inner.(HealthChecker); ok {
		return hc.HealthCheck(ctx) //nolint:wrapcheck // transparent decorator
	}
	return nil
}

// Normalize returns a unit-length copy of v. A zero vector is returned unchanged.
func Normalize(v []float32) []float32 {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	out := make([]float32, len(v))
	if sum == 0 {
		copy(out, v)
		return out
	}
	norm := math.Sqrt(sum)
	for i, x := range v {
		out[i] = float32(float64(x) / norm)
	}
	return out
}
