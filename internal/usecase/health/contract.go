package health

import "context"

// ReferenceChecker reports whether reference embeddings are loaded.
type ReferenceChecker interface {
	Ready() bool
}

// CachePinger checks embedding cache store availability.
type CachePinger interface {
	Ping(ctx context.Context) error
}

// EmbeddingChecker checks embedding provider availability.
type EmbeddingChecker interface {
	HealthCheck(ctx context.Context) error
}
