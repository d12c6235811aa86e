package pagination

import (
	"errors"
	"fmt"
	"testing"

	"github.com/kailas-cloud/refdex/internal/domain"
	"github.com/kailas-cloud/refdex/internal/domain/catalog"
	"github.com/kailas-cloud/refdex/internal/domain/search/result"
)

func key(c, l string) catalog.Key { return catalog.Key{Category: c, Label: l} }

func seqSet(n int) result.Set {
	rs := make([]result.Result, n)
	for i := range n {
		rs[i] = result.New(key(fmt.Sprintf("c%d", i), "x"), 1-float64(i)/10)
	}
	return result.NewSet(rs)
}

func TestPaginate_Bounds(t *testing.T) {
	set := seqSet(7)
	tests := []struct {
		page      int
		wantStart int
		wantEnd   int
		wantErr   bool
	}{
		{1, 0, 5, false},
		{2, 5, 7, false},
		{3, 0, 0, true},
		{0, 0, 0, true},
		{-1, 0, 0, true},
	}
	for _, tt := range tests {
		p, err := Paginate(set, tt.page, 5, false)
		if tt.wantErr {
			if !errors.Is(err, domain.ErrPageRange) {
				t.Errorf("page %d: err = %v, want ErrPageRange", tt.page, err)
			}
			continue
		}
		if err != nil {
			t.Fatalf("page %d: %v", tt.page, err)
		}
		if p.Start != tt.wantStart || p.End != tt.wantEnd || len(p.Entries) != tt.wantEnd-tt.wantStart {
			t.Errorf("page %d: [%d,%d) with %d entries", tt.page, p.Start, p.End, len(p.Entries))
		}
		if p.Pages != 2 || p.Total != 7 {
			t.Errorf("page %d: Pages=%d Total=%d", tt.page, p.Pages, p.Total)
		}
	}
}

func TestPaginate_Navigation(t *testing.T) {
	set := seqSet(7)
	first, _ := Paginate(set, 1, 5, false)
	last, _ := Paginate(set, 2, 5, false)
	if !first.HasNext() || first.HasPrev() {
		t.Errorf("first: next=%v prev=%v", first.HasNext(), first.HasPrev())
	}
	if last.HasNext() || !last.HasPrev() {
		t.Errorf("last: next=%v prev=%v", last.HasNext(), last.HasPrev())
	}
}

func TestPaginate_EmptySet(t *testing.T) {
	if _, err := Paginate(result.NewSet(nil), 1, 5, true); !errors.Is(err, domain.ErrPageRange) {
		t.Errorf("err = %v", err)
	}
}

func TestPaginate_BadSize(t *testing.T) {
	if _, err := Paginate(seqSet(3), 1, 0, false); !errors.Is(err, domain.ErrPageRange) {
		t.Errorf("err = %v", err)
	}
}

func TestGroup(t *testing.T) {
	set := result.NewSet([]result.Result{
		result.New(key("A", "x"), 0.9),
		result.New(key("B", "y"), 0.8),
		result.New(key("A", "z"), 0.7),
	})
	entries := Group(set)
	if len(entries) != 2 {
		t.Fatalf("entries = %d, want 2", len(entries))
	}
	if entries[0].Result.Label() != "x" || entries[0].Count != 2 {
		t.Errorf("A entry = %s count %d", entries[0].Result.Label(), entries[0].Count)
	}
	if entries[1].Result.Label() != "y" || entries[1].Count != 1 {
		t.Errorf("B entry = %s count %d", entries[1].Result.Label(), entries[1].Count)
	}

	p, err := Paginate(set, 1, 5, true)
	if err != nil {
		t.Fatal(err)
	}
	if !p.Grouped || p.Total != 2 {
		t.Errorf("grouped page: Grouped=%v Total=%d", p.Grouped, p.Total)
	}
}

func items(t *testing.T, category string, labels ...string) []catalog.Item {
	t.Helper()
	out := make([]catalog.Item, len(labels))
	for i, l := range labels {
		it, err := catalog.NewItem(key(category, l), l, nil, [][]float32{{1}})
		if err != nil {
			t.Fatal(err)
		}
		out[i] = it
	}
	return out
}

func labels(p Page) []string {
	out := make([]string, len(p.Entries))
	for i, e := range p.Entries {
		out[i] = e.Result.Label()
	}
	return out
}

func TestCategoryListing_CatalogOrder(t *testing.T) {
	p, err := CategoryListing(items(t, "birds", "robin", "crow", "jay"), nil, 1, 2)
	if err != nil {
		t.Fatal(err)
	}
	if got := labels(p); len(got) != 2 || got[0] != "robin" || got[1] != "crow" {
		t.Errorf("labels = %v", got)
	}
	if _, scored := p.Entries[0].Result.Score(); scored {
		t.Error("catalog-order listing must be unscored")
	}
	if p.Pages != 2 {
		t.Errorf("Pages = %d", p.Pages)
	}
}

func TestCategoryListing_Ranked(t *testing.T) {
	ranking := result.NewSet([]result.Result{
		result.New(key("birds", "jay"), 0.9),
		result.New(key("fish", "salmon"), 0.8),
		result.New(key("birds", "robin"), 0.7),
	})
	p, err := CategoryListing(items(t, "birds", "robin", "crow", "jay"), &ranking, 1, 5)
	if err != nil {
		t.Fatal(err)
	}
	got := labels(p)
	if len(got) != 2 || got[0] != "jay" || got[1] != "robin" {
		t.Errorf("labels = %v, want [jay robin]", got)
	}
	if s, ok := p.Entries[0].Result.Score(); !ok || s != 0.9 {
		t.Errorf("score = %v, %v", s, ok)
	}
}

func TestCategoryListing_RankingWithoutCategory(t *testing.T) {
	ranking := result.NewSet([]result.Result{result.New(key("fish", "salmon"), 0.8)})
	p, err := CategoryListing(items(t, "birds", "robin", "crow"), &ranking, 1, 5)
	if err != nil {
		t.Fatal(err)
	}
	if got := labels(p); len(got) != 2 || got[0] != "robin" {
		t.Errorf("labels = %v, want catalog order", got)
	}
}

func TestCategoryListing_OutOfRange(t *testing.T) {
	if _, err := CategoryListing(items(t, "birds", "robin"), nil, 2, 5); !errors.Is(err, domain.ErrPageRange) {
		t.Errorf("err = %v", err)
	}
}
