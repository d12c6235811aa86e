package search

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/kailas-cloud/refdex/internal/domain"
	"github.com/kailas-cloud/refdex/internal/domain/catalog"
	"github.com/kailas-cloud/refdex/internal/domain/search/mode"
	"github.com/kailas-cloud/refdex/internal/domain/search/request"
	"github.com/kailas-cloud/refdex/internal/domain/search/result"
	"github.com/kailas-cloud/refdex/internal/domain/text"
	"github.com/kailas-cloud/refdex/internal/metrics"
)

// Rank turns a validated query into a ranked result set.
// An empty ranking is reported as domain.ErrNoMatchFound.
func (s *Service) Rank(ctx context.Context, q request.Query) (result.Set, error) {
	var (
		ranked []result.Result
		err    error
	)
	switch q.Mode() {
	case mode.Image:
		ranked, err = s.rankImage(ctx, q.Image())
	case mode.Text:
		ranked = rankText(s.catalog.Items(), q.Text())
	case mode.Browse:
		ranked = rankBrowse(s.catalog.Items())
	default:
		return result.Set{}, fmt.Errorf("unsupported ranking mode: %s", q.Mode())
	}
	if err != nil {
		return result.Set{}, err
	}

	if q.TextFilter() && q.HasText() {
		ranked = filterTokens(ranked, s.catalog, q.Text())
	}
	if len(ranked) == 0 {
		return result.Set{}, domain.ErrNoMatchFound
	}
	return result.NewSet(ranked), nil
}

// rankImage embeds the image and scores it. The embedder serializes provider
// inference on the model lock itself; scoring takes the same lock here. Both
// run to completion even if the caller goes away.
func (s *Service) rankImage(ctx context.Context, image []byte) ([]result.Result, error) {
	runCtx := context.WithoutCancel(ctx)

	emb, err := s.embed.Embed(runCtx, image)
	if err != nil {
		return nil, fmt.Errorf("embed query image: %w", err)
	}

	var scores map[catalog.Key]float64
	err = s.modelLock.Do(runCtx, func(ctx context.Context) error {
		scoreStart := time.Now()
		var scoreErr error
		scores, scoreErr = s.scorer.Score(ctx, emb.Embedding)
		if scoreErr == nil {
			metrics.ScoringDuration.Observe(time.Since(scoreStart).Seconds())
		}
		return scoreErr
	})
	if err != nil {
		return nil, fmt.Errorf("score query embedding: %w", err)
	}

	items := s.catalog.Items()
	ranked := make([]result.Result, 0, len(items))
	for i := range items {
		key := items[i].Key()
		ranked = append(ranked, result.New(key, scores[key]))
	}
	slices.SortStableFunc(ranked, func(a, b result.Result) int {
		sa, _ := a.Score()
		sb, _ := b.Score()
		return cmp.Compare(sb, sa)
	})
	return ranked, nil
}

// rankText gives every item score 1 and moves items whose text contains the
// whole query to the front, keeping catalog order within both groups.
func rankText(items []catalog.Item, q string) []result.Result {
	ranked := make([]result.Result, 0, len(items))
	var rest []result.Result
	for i := range items {
		r := result.New(items[i].Key(), 1)
		if text.MatchesFully(items[i].Text(), q) {
			ranked = append(ranked, r)
		} else {
			rest = append(rest, r)
		}
	}
	return append(ranked, rest...)
}

func rankBrowse(items []catalog.Item) []result.Result {
	ranked := make([]result.Result, len(items))
	for i := range items {
		ranked[i] = result.New(items[i].Key(), 1)
	}
	return ranked
}

// filterTokens drops results whose item text lacks any query token. Survivors keep their order.
func filterTokens(ranked []result.Result, cat *catalog.Catalog, q string) []result.Result {
	kept := make([]result.Result, 0, len(ranked))
	for _, r := range ranked {
		item, ok := cat.Item(r.Key())
		if ok && text.MatchesAllTokens(item.Text(), q) {
			kept = append(kept, r)
		}
	}
	return kept
}
