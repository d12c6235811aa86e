package refdex

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/refdex/internal/db"
	dbBadger "github.com/kailas-cloud/refdex/internal/db/badger"
	dbRedis "github.com/kailas-cloud/refdex/internal/db/redis"
	"github.com/kailas-cloud/refdex/internal/domain"
	domcat "github.com/kailas-cloud/refdex/internal/domain/catalog"
	catalogrepo "github.com/kailas-cloud/refdex/internal/repository/catalog"
	"github.com/kailas-cloud/refdex/internal/repository/embcache"
	"github.com/kailas-cloud/refdex/internal/repository/resultcache"
	"github.com/kailas-cloud/refdex/internal/transport/hash"
	"github.com/kailas-cloud/refdex/internal/usecase/classify"
	embeddinguc "github.com/kailas-cloud/refdex/internal/usecase/embedding"
	healthuc "github.com/kailas-cloud/refdex/internal/usecase/health"
	"github.com/kailas-cloud/refdex/internal/usecase/pagination"
	"github.com/kailas-cloud/refdex/internal/usecase/query"
	searchuc "github.com/kailas-cloud/refdex/internal/usecase/search"
)

const defaultReadinessTimeout = 10 * time.Second

// searchUseCase is the search service surface the client calls; tests replace it.
type searchUseCase interface {
	Search(ctx context.Context, raw query.Raw) (string, error)
	ViewResults(ctx context.Context, handle string, page int) (pagination.Page, error)
	ViewCategory(ctx context.Context, category string, page int, handle string) (pagination.Page, error)
	ViewItem(ctx context.Context, category, label string) (domcat.Item, error)
	Catalog() *domcat.Catalog
}

// Client is the refdex SDK entry point. It is safe for concurrent use.
type Client struct {
	searchSvc searchUseCase
	healthSvc healthUseCase
	closers   []func()
	obs       *observer
}

// New loads the catalog and wires the engine. The provided context bounds
// catalog loading and the embedding cache readiness check.
func New(ctx context.Context, opts ...Option) (*Client, error) {
	cfg := &clientConfig{}
	for _, o := range opts {
		o.apply(cfg)
	}

	metric, err := classify.ParseMetric(cfg.metric)
	if err != nil {
		return nil, fmt.Errorf("refdex: %w", err)
	}
	agg, err := classify.ParseAggregator(cfg.aggregator)
	if err != nil {
		return nil, fmt.Errorf("refdex: %w", err)
	}

	cat, err := loadCatalog(ctx, cfg)
	if err != nil {
		return nil, err
	}

	obs, err := newObserver(cfg.logger, cfg.metricsReg)
	if err != nil {
		return nil, err
	}

	store, err := createStore(cfg)
	if err != nil {
		return nil, err
	}
	if store != nil {
		if err := store.WaitForReady(ctx, defaultReadinessTimeout); err != nil {
			store.Close()
			return nil, fmt.Errorf("refdex: embedding cache not ready: %w", err)
		}
	}

	return wireClient(cat, metric, agg, store, cfg, obs)
}

func loadCatalog(ctx context.Context, cfg *clientConfig) (*domcat.Catalog, error) {
	switch {
	case cfg.catalogJSON != nil:
		cat, err := catalogrepo.Decode(cfg.catalogJSON)
		if err != nil {
			return nil, fmt.Errorf("refdex: decode catalog: %w", err)
		}
		return cat, nil
	case cfg.catalogPath != "":
		cat, err := catalogrepo.NewFileSource(cfg.catalogPath).Load(ctx)
		if err != nil {
			return nil, fmt.Errorf("refdex: load catalog: %w", err)
		}
		return cat, nil
	default:
		return nil, errors.New("refdex: catalog required (use WithCatalogFile or WithCatalogJSON)")
	}
}

// createStore returns a nil store when no embedding cache is configured.
func createStore(cfg *clientConfig) (db.Store, error) {
	switch cfg.cacheDriver {
	case "":
		return nil, nil
	case "valkey", "redis":
		s, err := dbRedis.NewStore(dbRedis.Config{
			Addrs:    cfg.cacheAddrs,
			Password: cfg.cachePassword,
		})
		if err != nil {
			return nil, fmt.Errorf("refdex: create %s store: %w", cfg.cacheDriver, err)
		}
		return s, nil
	case "badger":
		s, err := dbBadger.NewStore(dbBadger.Config{Path: cfg.cachePath}, zap.NewNop())
		if err != nil {
			return nil, fmt.Errorf("refdex: create badger store: %w", err)
		}
		return s, nil
	default:
		return nil, fmt.Errorf("refdex: unknown cache driver %q", cfg.cacheDriver)
	}
}

func wireClient(
	cat *domcat.Catalog, metric classify.Metric, agg classify.Aggregator,
	store db.Store, cfg *clientConfig, obs *observer,
) (*Client, error) {
	clf, err := classify.New(metric, agg, cfg.workers, cfg.chunkSize)
	if err != nil {
		if store != nil {
			store.Close()
		}
		return nil, fmt.Errorf("refdex: %w", err)
	}
	clf.Load(cat)
	closers := []func(){clf.Close}

	// hash embedder unless one is configured; meant for demos and tests
	var emb domain.ImageEmbedder = hash.NewEmbedder(cat.Dimensions())
	if cfg.embedder != nil {
		emb = &embedderAdapter{inner: cfg.embedder}
	}
	modelLock := &embeddinguc.ModelLock{}
	emb = embeddinguc.NewSerializedEmbedder(emb, modelLock)

	var pinger healthuc.CachePinger
	if store != nil {
		namespace := fmt.Sprintf("sdk:%d", cat.Dimensions())
		emb = embcache.New(emb, store, namespace, cfg.cacheTTL, nil, zap.NewNop())
		pinger = store
		closers = append(closers, store.Close)
	}
	normalized := domain.NewNormalizedEmbedder(emb)

	results, err := resultcache.New(cfg.resultCapacity)
	if err != nil {
		for _, c := range closers {
			c()
		}
		return nil, fmt.Errorf("refdex: %w", err)
	}

	proc := query.New(cfg.maxTextChars, cfg.allowedExtensions, !cfg.allowBrowse)
	searchSvc := searchuc.New(cat, proc, normalized, clf, results, searchuc.Config{
		ResultsPerPage:   cfg.resultsPerPage,
		CategoryPageSize: cfg.categoryPageSize,
		ModelLock:        modelLock,
	})

	return &Client{
		searchSvc: searchSvc,
		healthSvc: healthuc.New(clf, pinger, normalized),
		closers:   closers,
		obs:       obs,
	}, nil
}

// Close releases the scoring pool and the embedding cache connection.
func (c *Client) Close() {
	for i := len(c.closers) - 1; i >= 0; i-- {
		c.closers[i]()
	}
	c.closers = nil
}

// Search ranks the catalog against q and returns the handle of the cached
// ranking. Validation failures are reported together; use Reasons to list them.
func (c *Client) Search(ctx context.Context, q Query) (id string, err error) {
	start := time.Now()
	defer func() { c.obs.observe("search", start, err) }()

	raw := query.Raw{
		Text:          q.Text,
		TextFilter:    q.TextFilter,
		IncludeDigits: q.IncludeDigits,
	}
	if q.Image != nil {
		raw.Image = &query.Upload{Filename: q.Filename, Data: q.Image}
	}
	if id, err = c.searchSvc.Search(ctx, raw); err != nil {
		return "", fmt.Errorf("search: %w", err)
	}
	return id, nil
}

// ViewResults returns a page of a cached ranking grouped by category.
func (c *Client) ViewResults(ctx context.Context, id string, page int) (p Page, err error) {
	start := time.Now()
	defer func() { c.obs.observe("view_results", start, err, "page", page) }()

	dp, err := c.searchSvc.ViewResults(ctx, id, page)
	if err != nil {
		return Page{}, fmt.Errorf("view results: %w", err)
	}
	return pageFromDomain(dp, c.searchSvc.Catalog()), nil
}

// ViewCategory returns a page of one category, ordered by the ranking behind
// id when it is known. An empty or expired id lists the category in catalog order.
func (c *Client) ViewCategory(ctx context.Context, category string, page int, id string) (p Page, err error) {
	start := time.Now()
	defer func() { c.obs.observe("view_category", start, err, "category", category, "page", page) }()

	dp, err := c.searchSvc.ViewCategory(ctx, category, page, id)
	if err != nil {
		return Page{}, fmt.Errorf("view category: %w", err)
	}
	return pageFromDomain(dp, c.searchSvc.Catalog()), nil
}

// ViewItem returns one catalog item.
func (c *Client) ViewItem(ctx context.Context, category, label string) (it Item, err error) {
	start := time.Now()
	defer func() { c.obs.observe("view_item", start, err, "category", category) }()

	item, err := c.searchSvc.ViewItem(ctx, category, label)
	if err != nil {
		return Item{}, fmt.Errorf("view item: %w", err)
	}
	return itemFromDomain(item), nil
}

// Categories lists the catalog categories in catalog order.
func (c *Client) Categories() []Category {
	cat := c.searchSvc.Catalog()
	names := cat.Categories()
	out := make([]Category, len(names))
	for i, name := range names {
		items, _ := cat.Category(name)
		out[i] = Category{Name: name, Items: len(items)}
	}
	return out
}
