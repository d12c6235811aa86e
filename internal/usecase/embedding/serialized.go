package embedding

import (
	"context"
	"sync"
	"time"

	"github.com/kailas-cloud/refdex/internal/domain"
	"github.com/kailas-cloud/refdex/internal/metrics"
)

// ModelLock serializes every use of the model: provider inference and
// reference scoring. The zero value is ready to use.
type ModelLock struct {
	mu sync.Mutex
}

// Do runs fn while holding the lock. Once the lock is held fn runs to
// completion: it receives a context that is never canceled.
func (l *ModelLock) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	waitStart := time.Now()
	l.mu.Lock()
	defer l.mu.Unlock()
	metrics.ModelLockWaitSeconds.Observe(time.Since(waitStart).Seconds())

	return fn(context.WithoutCancel(ctx))
}

// SerializedEmbedder runs the provider under a ModelLock. It sits directly
// above the provider, so cache hits above it never wait for the lock.
type SerializedEmbedder struct {
	inner domain.ImageEmbedder
	lock  *ModelLock
}

// NewSerializedEmbedder wraps inner so that calls hold lock.
func NewSerializedEmbedder(inner domain.ImageEmbedder, lock *ModelLock) *SerializedEmbedder {
	return &SerializedEmbedder{inner: inner, lock: lock}
}

// Embed calls the inner embedder while holding the model lock.
func (e *SerializedEmbedder) Embed(ctx context.Context, image []byte) (domain.EmbeddingResult, error) {
	var res domain.EmbeddingResult
	err := e.lock.Do(ctx, func(ctx context.Context) error {
		var err error
		res, err = e.inner.Embed(ctx, image)
		return err
	})
	return res, err //nolint:wrapcheck // transparent decorator
}

// HealthCheck forwards to the inner embedder without taking the lock.
func (e *SerializedEmbedder) HealthCheck(ctx context.Context) error {
	if hc, ok := e.inner.(domain.HealthChecker); ok {
		return hc.HealthCheck(ctx) //nolint:wrapcheck // transparent decorator
	}
	return nil
}
