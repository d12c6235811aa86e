// Package resultcache stores ranked result sets behind random handles with
// least-recently-used eviction.
package resultcache

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"math"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/kailas-cloud/refdex/internal/domain/search/result"
	"github.com/kailas-cloud/refdex/internal/metrics"
)

// handleBytes is the handle entropy: 128 bits.
const handleBytes = 16

// maxHandleAttempts bounds retries on handle collision with a live entry.
const maxHandleAttempts = 8

// Cache is a bounded recency cache of result sets. Puts and successful gets
// both count as an access. Safe for concurrent use.
type Cache struct {
	entries  *lru.Cache[string, result.Set]
	capacity int
	newID    func() (string, error)
}

// New creates a cache holding at most capacity result sets. Zero means unbounded.
func New(capacity int) (*Cache, error) {
	if capacity < 0 {
		return nil, fmt.Errorf("result cache capacity must be >= 0, got %d", capacity)
	}
	size := capacity
	if size == 0 {
		size = math.MaxInt32
	}
	c := &Cache{capacity: capacity, newID: randomHandle}
	entries, err := lru.NewWithEvict[string, result.Set](size, func(string, result.Set) {
		metrics.ResultCacheEvictionsTotal.Inc()
	})
	if err != nil {
		return nil, fmt.Errorf("create result cache: %w", err)
	}
	c.entries = entries
	return c, nil
}

// Put stores set under a fresh handle, evicting the least recently accessed
// entry when the cache is full.
func (c *Cache) Put(_ context.Context, set result.Set) (string, error) {
	for range maxHandleAttempts {
		handle, err := c.newID()
		if err != nil {
			return "", fmt.Errorf("generate handle: %w", err)
		}
		// check-and-insert under the cache lock keeps live handles unique
		if found, _ := c.entries.ContainsOrAdd(handle, set); !found {
			metrics.ResultCacheEntries.Set(float64(c.entries.Len()))
			return handle, nil
		}
	}
	return "", fmt.Errorf("generate handle: %d collisions in a row", maxHandleAttempts)
}

// Get returns the set stored under handle and marks it as recently used.
func (c *Cache) Get(_ context.Context, handle string) (result.Set, bool) {
	set, ok := c.entries.Get(handle)
	if !ok {
		metrics.ResultCacheLookupsTotal.WithLabelValues("miss").Inc()
		return result.Set{}, false
	}
	metrics.ResultCacheLookupsTotal.WithLabelValues("hit").Inc()
	return set, true
}

// Len returns the number of live entries.
func (c *Cache) Len() int { return c.entries.Len() }

// Capacity returns the configured capacity, 0 meaning unbounded.
func (c *Cache) Capacity() int { return c.capacity }

func randomHandle() (string, error) {
	b := make([]byte, handleBytes)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("read random bytes: %w", err)
	}
	return hex.EncodeToString(b), nil
}
