// Package hash provides a deterministic stand-in image embedder for demos and
// tests: the vector is derived from the image digest, not its content.
package hash

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"fmt"
	"math"

	"github.com/kailas-cloud/refdex/internal/domain"
)

// DefaultDimensions is used when no dimension is configured.
const DefaultDimensions = 64

// Embedder maps identical images to identical unit vectors.
type Embedder struct {
	dims int
}

// NewEmbedder creates a hash embedder producing dims-dimensional vectors.
func NewEmbedder(dims int) *Embedder {
	if dims <= 0 {
		dims = DefaultDimensions
	}
	return &Embedder{dims: dims}
}

// Embed implements domain.ImageEmbedder.
func (e *Embedder) Embed(ctx context.Context, image []byte) (domain.EmbeddingResult, error) {
	if err := ctx.Err(); err != nil {
		return domain.EmbeddingResult{}, fmt.Errorf("hash embed: %w", err)
	}
	if len(image) == 0 {
		return domain.EmbeddingResult{}, fmt.Errorf("hash embed: empty image: %w", domain.ErrEmbeddingProviderError)
	}

	vec := make([]float32, e.dims)
	seed := sha256.Sum256(image)
	block := seed
	for i := range vec {
		off := (i % 8) * 4
		if i > 0 && off == 0 {
			// extend the stream: next block = sha256(previous block)
			block = sha256.Sum256(block[:])
		}
		u := binary.LittleEndian.Uint32(block[off:])
		// map to [-1, 1)
		vec[i] = float32(float64(u)/float64(math.MaxUint32)*2 - 1)
	}
	return domain.EmbeddingResult{Embedding: domain.Normalize(vec)}, nil
}

// Dimensions returns the vector size.
func (e *Embedder) Dimensions() int { return e.dims }
