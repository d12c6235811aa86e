package search

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/kailas-cloud/refdex/internal/domain"
	"github.com/kailas-cloud/refdex/internal/domain/catalog"
	"github.com/kailas-cloud/refdex/internal/domain/search/request"
	"github.com/kailas-cloud/refdex/internal/domain/search/result"
	"github.com/kailas-cloud/refdex/internal/logger"
	"github.com/kailas-cloud/refdex/internal/metrics"
	"github.com/kailas-cloud/refdex/internal/usecase/embedding"
	"github.com/kailas-cloud/refdex/internal/usecase/pagination"
	"github.com/kailas-cloud/refdex/internal/usecase/query"
)

// Default page sizes.
const (
	DefaultResultsPerPage   = 5
	DefaultCategoryPageSize = 5
)

// Config holds the page sizes used by the view operations and the model lock.
type Config struct {
	ResultsPerPage   int
	CategoryPageSize int
	// ModelLock is shared with the embedder's provider. Nil gives the service its own lock.
	ModelLock *embedding.ModelLock
}

// Service runs searches and serves cached result pages, category listings and items.
type Service struct {
	catalog *catalog.Catalog
	proc    QueryProcessor
	embed   Embedder
	scorer  Scorer
	store   ResultStore
	cfg     Config

	modelLock *embedding.ModelLock
}

// New creates a search service.
func New(
	cat *catalog.Catalog, proc QueryProcessor, embed Embedder,
	scorer Scorer, store ResultStore, cfg Config,
) *Service {
	if cfg.ResultsPerPage <= 0 {
		cfg.ResultsPerPage = DefaultResultsPerPage
	}
	if cfg.CategoryPageSize <= 0 {
		cfg.CategoryPageSize = DefaultCategoryPageSize
	}
	if cfg.ModelLock == nil {
		cfg.ModelLock = &embedding.ModelLock{}
	}
	return &Service{
		catalog:   cat,
		proc:      proc,
		embed:     embed,
		scorer:    scorer,
		store:     store,
		cfg:       cfg,
		modelLock: cfg.ModelLock,
	}
}

// Search validates raw, ranks the catalog and caches the ranking.
// It returns the handle of the cached result set.
func (s *Service) Search(ctx context.Context, raw query.Raw) (string, error) {
	q, err := s.proc.Process(raw)
	if err != nil {
		metrics.SearchesTotal.WithLabelValues("none", "invalid").Inc()
		return "", fmt.Errorf("process query: %w", err)
	}
	m := string(q.Mode())
	ctx = logger.With(ctx, zap.String("mode", m))

	if q.HasImage() && !s.scorer.Ready() {
		metrics.SearchesTotal.WithLabelValues(m, "error").Inc()
		return "", domain.ErrReferenceNotReady
	}

	set, err := s.Rank(ctx, q)
	if err != nil {
		if errors.Is(err, domain.ErrNoMatchFound) {
			metrics.SearchesTotal.WithLabelValues(m, "no_match").Inc()
			return "", err
		}
		metrics.SearchesTotal.WithLabelValues(m, "error").Inc()
		return "", err
	}

	handle, err := s.store.Put(ctx, set)
	if err != nil {
		metrics.SearchesTotal.WithLabelValues(m, "error").Inc()
		return "", fmt.Errorf("cache results: %w", err)
	}
	metrics.SearchesTotal.WithLabelValues(m, "ok").Inc()

	logger.FromContext(ctx).Debug("Search completed",
		zap.Bool("text_filter", q.TextFilter()),
		zap.Int("results", set.Len()),
	)
	return handle, nil
}

// ViewResults returns a page of the cached ranking grouped by category.
func (s *Service) ViewResults(ctx context.Context, handle string, page int) (pagination.Page, error) {
	set, ok := s.store.Get(ctx, handle)
	if !ok {
		return pagination.Page{}, domain.NewNotFound(domain.ReasonUnknownHandle, handle)
	}
	p, err := pagination.Paginate(set, page, s.cfg.ResultsPerPage, true)
	if err != nil {
		return pagination.Page{}, fmt.Errorf("paginate results: %w", err)
	}
	return p, nil
}

// ViewCategory returns a page of one category. A known handle reorders the
// listing by that ranking; an empty or unknown handle is ignored.
func (s *Service) ViewCategory(ctx context.Context, category string, page int, handle string) (pagination.Page, error) {
	items, ok := s.catalog.Category(category)
	if !ok {
		return pagination.Page{}, domain.NewNotFound(domain.ReasonUnknownCategory, category)
	}

	var ranking *result.Set
	if handle != "" {
		if set, found := s.store.Get(ctx, handle); found {
			ranking = &set
		}
	}

	p, err := pagination.CategoryListing(items, ranking, page, s.cfg.CategoryPageSize)
	if err != nil {
		return pagination.Page{}, fmt.Errorf("paginate category %q: %w", category, err)
	}
	return p, nil
}

// ViewItem returns a single catalog item.
func (s *Service) ViewItem(_ context.Context, category, label string) (catalog.Item, error) {
	if !s.catalog.HasCategory(category) {
		return catalog.Item{}, domain.NewNotFound(domain.ReasonUnknownCategory, category)
	}
	item, ok := s.catalog.Item(catalog.Key{Category: category, Label: label})
	if !ok {
		return catalog.Item{}, domain.NewNotFound(domain.ReasonUnknownLabel, label)
	}
	return item, nil
}

// Catalog returns the reference catalog served by the service.
func (s *Service) Catalog() *catalog.Catalog { return s.catalog }

// Query validates raw without ranking.
func (s *Service) Query(raw query.Raw) (request.Query, error) {
	q, err := s.proc.Process(raw)
	if err != nil {
		return request.Query{}, fmt.Errorf("process query: %w", err)
	}
	return q, nil
}
