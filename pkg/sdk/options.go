package refdex

import (
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Option configures the Client.
type Option interface {
	apply(*clientConfig)
}

// optionFunc adapts a function to the Option interface.
type optionFunc func(*clientConfig)

func (f optionFunc) apply(c *clientConfig) { f(c) }

type clientConfig struct {
	catalogPath string
	catalogJSON []byte

	embedder Embedder

	metric     string
	aggregator string
	workers    int
	chunkSize  int

	resultCapacity   int
	resultsPerPage   int
	categoryPageSize int

	maxTextChars      int
	allowedExtensions []string
	allowBrowse       bool

	cacheDriver   string // "valkey", "redis" or "badger"
	cacheAddrs    []string
	cachePassword string
	cachePath     string
	cacheTTL      time.Duration

	logger     *slog.Logger
	metricsReg prometheus.Registerer
}

// WithCatalogFile loads the reference catalog from a JSON file (gzip when the
// name ends in .gz).
func WithCatalogFile(path string) Option {
	return optionFunc(func(c *clientConfig) {
		c.catalogPath = path
	})
}

// WithCatalogJSON loads the reference catalog from an in-memory JSON document.
func WithCatalogJSON(data []byte) Option {
	return optionFunc(func(c *clientConfig) {
		c.catalogJSON = data
	})
}

// WithEmbedder sets the image embedding model. Defaults to a hash embedder
// matching the catalog dimension.
func WithEmbedder(e Embedder) Option {
	return optionFunc(func(c *clientConfig) {
		c.embedder = e
	})
}

// WithScoring sets the distance metric ("cosine", "euclidean") and the
// aggregator over an item's reference embeddings ("min", "max", "mean", "median").
// Defaults: cosine, min.
func WithScoring(metric, aggregator string) Option {
	return optionFunc(func(c *clientConfig) {
		c.metric = metric
		c.aggregator = aggregator
	})
}

// WithWorkers scores large catalogs on a pool of n goroutines in chunks of chunkSize items.
func WithWorkers(n, chunkSize int) Option {
	return optionFunc(func(c *clientConfig) {
		c.workers = n
		c.chunkSize = chunkSize
	})
}

// WithResultCapacity bounds the number of cached rankings. 0 (default) is unbounded.
func WithResultCapacity(n int) Option {
	return optionFunc(func(c *clientConfig) {
		c.resultCapacity = n
	})
}

// WithPageSizes sets the results page size and the category page size. Default: 5 and 5.
func WithPageSizes(results, category int) Option {
	return optionFunc(func(c *clientConfig) {
		c.resultsPerPage = results
		c.categoryPageSize = category
	})
}

// WithQueryLimits sets the maximum text length and the accepted image formats.
func WithQueryLimits(maxTextChars int, allowedExtensions ...string) Option {
	return optionFunc(func(c *clientConfig) {
		c.maxTextChars = maxTextChars
		c.allowedExtensions = allowedExtensions
	})
}

// WithBrowse accepts queries without image and text; they list the whole catalog.
func WithBrowse() Option {
	return optionFunc(func(c *clientConfig) {
		c.allowBrowse = true
	})
}

// WithValkeyCache caches query embeddings in Valkey.
func WithValkeyCache(addr, password string, ttl time.Duration) Option {
	return optionFunc(func(c *clientConfig) {
		c.cacheDriver = "valkey"
		c.cacheAddrs = []string{addr}
		c.cachePassword = password
		c.cacheTTL = ttl
	})
}

// WithRedisCache caches query embeddings in Redis.
func WithRedisCache(addr, password string, ttl time.Duration) Option {
	return optionFunc(func(c *clientConfig) {
		c.cacheDriver = "redis"
		c.cacheAddrs = []string{addr}
		c.cachePassword = password
		c.cacheTTL = ttl
	})
}

// WithBadgerCache caches query embeddings in a local Badger database.
// An empty path keeps the cache in memory.
func WithBadgerCache(path string, ttl time.Duration) Option {
	return optionFunc(func(c *clientConfig) {
		c.cacheDriver = "badger"
		c.cachePath = path
		c.cacheTTL = ttl
	})
}

// WithLogger enables structured logging for SDK operations.
// Pass nil to disable (default). Uses standard library slog.
func WithLogger(l *slog.Logger) Option {
	return optionFunc(func(c *clientConfig) {
		c.logger = l
	})
}

// WithPrometheus registers SDK metrics (operation counts and durations)
// on the given registerer. Pass nil to disable (default).
func WithPrometheus(reg prometheus.Registerer) Option {
	return optionFunc(func(c *clientConfig) {
		c.metricsReg = reg
	})
}
