// Package embedding decorates image embedders with logging and vector checks.
package embedding

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/refdex/internal/domain"
)

// InstrumentedEmbedder wraps an ImageEmbedder with logging and a dimension check.
// Transport metrics (requests, duration) are recorded by the providers themselves.
type InstrumentedEmbedder struct {
	inner    domain.ImageEmbedder
	provider string
	model    string
	// dims is the expected vector size, 0 to accept any.
	dims   int
	logger *zap.Logger
}

// NewInstrumentedEmbedder wraps an embedder with observability.
func NewInstrumentedEmbedder(
	inner domain.ImageEmbedder, provider, model string,
	dims int, logger *zap.Logger,
) *InstrumentedEmbedder {
	return &InstrumentedEmbedder{
		inner:    inner,
		provider: provider,
		model:    model,
		dims:     dims,
		logger:   logger,
	}
}

// Embed delegates to the inner embedder and validates the vector size.
// Failures that are not already classified become ErrEmbeddingProviderError.
func (p *InstrumentedEmbedder) Embed(ctx context.Context, image []byte) (domain.EmbeddingResult, error) {
	start := time.Now()

	result, err := p.inner.Embed(ctx, image)

	duration := time.Since(start)

	if err != nil {
		p.logger.Error("Embedding request failed",
			zap.String("provider", p.provider),
			zap.String("model", p.model),
			zap.Duration("duration", duration),
			zap.Error(err),
		)
		if !errors.Is(err, domain.ErrEmbeddingProviderError) {
			return domain.EmbeddingResult{}, fmt.Errorf("embed: %w: %w", domain.ErrEmbeddingProviderError, err)
		}
		return domain.EmbeddingResult{}, fmt.Errorf("embed: %w", err)
	}

	if p.dims > 0 && len(result.Embedding) != p.dims {
		p.logger.Error("Embedding has unexpected dimensions",
			zap.String("provider", p.provider),
			zap.String("model", p.model),
			zap.Int("got", len(result.Embedding)),
			zap.Int("want", p.dims),
		)
		return domain.EmbeddingResult{}, fmt.Errorf("embed: got %d dimensions, want %d: %w",
			len(result.Embedding), p.dims, domain.ErrVectorDimMismatch)
	}

	p.logger.Debug("Embedding request completed",
		zap.String("provider", p.provider),
		zap.String("model", p.model),
		zap.Duration("duration", duration),
		zap.Int("dimensions", len(result.Embedding)),
		zap.Bool("cached", result.Cached),
	)

	return result, nil
}

// HealthCheck forwards to the inner embedder when it supports health checks.
func (p *InstrumentedEmbedder) HealthCheck(ctx context.Context) error {
	if hc, ok := p.inner.(domain.HealthChecker); ok {
		return hc.HealthCheck(ctx) //nolint:wrapcheck // transparent decorator
	}
	return nil
}
