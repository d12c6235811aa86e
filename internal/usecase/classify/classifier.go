// Package classify scores a query embedding against every reference item.
package classify

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/panjf2000/ants/v2"

	"github.com/kailas-cloud/refdex/internal/domain"
	"github.com/kailas-cloud/refdex/internal/domain/catalog"
)

// DefaultChunkSize is the number of items scored by one pool task.
const DefaultChunkSize = 256

// Classifier maps a query embedding to a score per catalog item.
// Load must be called before Score; afterwards Score is safe for concurrent use.
type Classifier struct {
	metric    Metric
	agg       Aggregator
	chunkSize int
	pool      *ants.Pool
	ref       atomic.Pointer[catalog.Catalog]
}

// New creates a classifier. workers > 1 enables parallel scoring on an ants pool;
// callers must Close the classifier to release it.
func New(metric Metric, agg Aggregator, workers, chunkSize int) (*Classifier, error) {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	c := &Classifier{metric: metric, agg: agg, chunkSize: chunkSize}
	if workers > 1 {
		pool, err := ants.NewPool(workers)
		if err != nil {
			return nil, fmt.Errorf("create scoring pool: %w", err)
		}
		c.pool = pool
	}
	return c, nil
}

// Load installs the reference catalog.
func (c *Classifier) Load(cat *catalog.Catalog) {
	c.ref.Store(cat)
}

// Ready reports whether reference embeddings are loaded.
func (c *Classifier) Ready() bool {
	return c.ref.Load() != nil
}

// Metric returns the configured distance metric.
func (c *Classifier) Metric() Metric { return c.metric }

// Aggregator returns the configured aggregator.
func (c *Classifier) Aggregator() Aggregator { return c.agg }

// Close releases the worker pool.
func (c *Classifier) Close() {
	if c.pool != nil {
		c.pool.Release()
	}
}

// Score returns one score in [0, 1] per catalog item, higher meaning closer.
// The result is unordered.
func (c *Classifier) Score(ctx context.Context, query []float32) (map[catalog.Key]float64, error) {
	cat := c.ref.Load()
	if cat == nil {
		return nil, domain.ErrReferenceNotReady
	}
	if len(query) != cat.Dimensions() {
		return nil, fmt.Errorf("%w: query has %d dimensions, references have %d",
			domain.ErrVectorDimMismatch, len(query), cat.Dimensions())
	}

	items := cat.Items()
	scores := make([]float64, len(items))

	if c.pool == nil || len(items) <= c.chunkSize {
		c.scoreRange(items, query, scores, 0, len(items))
	} else if err := c.scoreParallel(ctx, items, query, scores); err != nil {
		return nil, err
	}

	out := make(map[catalog.Key]float64, len(items))
	for i := range items {
		out[items[i].Key()] = scores[i]
	}
	return out, nil
}

func (c *Classifier) scoreParallel(ctx context.Context, items []catalog.Item, query []float32, scores []float64) error {
	var wg sync.WaitGroup
	for start := 0; start < len(items); start += c.chunkSize {
		if err := ctx.Err(); err != nil {
			wg.Wait()
			return fmt.Errorf("score: %w", err)
		}
		end := min(start+c.chunkSize, len(items))
		wg.Add(1)
		task := func() {
			defer wg.Done()
			c.scoreRange(items, query, scores, start, end)
		}
		if err := c.pool.Submit(task); err != nil {
			// pool closed or overloaded, score inline
			task()
		}
	}
	wg.Wait()
	return nil
}

// scoreRange fills scores[start:end]. Chunks never overlap, so no locking is needed.
func (c *Classifier) scoreRange(items []catalog.Item, query []float32, scores []float64, start, end int) {
	for i := start; i < end; i++ {
		refs := items[i].Embeddings()
		ds := make([]float64, len(refs))
		for j, ref := range refs {
			ds[j] = c.metric.distance(query, ref)
		}
		scores[i] = c.metric.score(c.agg.apply(ds))
	}
}
