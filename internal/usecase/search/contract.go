package search

import (
	"context"

	"github.com/kailas-cloud/refdex/internal/domain"
	"github.com/kailas-cloud/refdex/internal/domain/catalog"
	"github.com/kailas-cloud/refdex/internal/domain/search/request"
	"github.com/kailas-cloud/refdex/internal/domain/search/result"
	"github.com/kailas-cloud/refdex/internal/usecase/query"
)

// Embedder vectorizes query images. Implementations that reach the model
// serialize on the same ModelLock the service scores under.
type Embedder interface {
	Embed(ctx context.Context, image []byte) (domain.EmbeddingResult, error)
}

// Scorer scores a query embedding against every reference item.
type Scorer interface {
	Score(ctx context.Context, query []float32) (map[catalog.Key]float64, error)
	Ready() bool
}

// ResultStore keeps ranked result sets behind opaque handles.
type ResultStore interface {
	Put(ctx context.Context, set result.Set) (string, error)
	// Get reports false for unknown or evicted handles.
	Get(ctx context.Context, handle string) (result.Set, bool)
}

// QueryProcessor validates raw search input.
type QueryProcessor interface {
	Process(raw query.Raw) (request.Query, error)
}
