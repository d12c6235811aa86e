// Package pagination slices ranked result sets into fixed-size pages and
// optionally groups them by category.
package pagination

import (
	"fmt"

	"github.com/kailas-cloud/refdex/internal/domain"
	"github.com/kailas-cloud/refdex/internal/domain/catalog"
	"github.com/kailas-cloud/refdex/internal/domain/search/result"
)

// Entry is one element of a page. Count is the number of results of the
// entry's category in the full ungrouped sequence; it is set only on grouped pages.
type Entry struct {
	Result result.Result
	Count  int
}

// Page is a slice of a ranked sequence.
type Page struct {
	// Number is 1-based.
	Number int
	Size   int
	// Total is the number of entries in the (possibly grouped) sequence.
	Total int
	// Start and End bound the page within the sequence, End exclusive.
	Start int
	End   int
	// Pages is the number of pages available at this size.
	Pages   int
	Grouped bool
	Entries []Entry
}

// HasNext reports whether a following page exists.
func (p Page) HasNext() bool { return p.Number < p.Pages }

// HasPrev reports whether a preceding page exists.
func (p Page) HasPrev() bool { return p.Number > 1 }

// Paginate returns page number of set. With group, the sequence is first
// reduced to the best-ranked result of each category.
// A page is valid when 1 <= number and (number-1)*size < total.
func Paginate(set result.Set, number, size int, group bool) (Page, error) {
	if size <= 0 {
		return Page{}, fmt.Errorf("page size %d: %w", size, domain.ErrPageRange)
	}
	entries := toEntries(set, group)
	return slice(entries, number, size, group)
}

// Group keeps the first occurrence of each category in rank order and
// counts results per category over the whole sequence.
func Group(set result.Set) []Entry {
	return toEntries(set, true)
}

// CategoryListing pages the items of one category. With a ranking, items are
// reordered to the ranking's order and restricted to the labels it contains;
// when the ranking holds none of them the catalog order is kept.
func CategoryListing(items []catalog.Item, ranking *result.Set, number, size int) (Page, error) {
	if size <= 0 {
		return Page{}, fmt.Errorf("page size %d: %w", size, domain.ErrPageRange)
	}
	var entries []Entry
	if ranking != nil {
		entries = rankedListing(items, *ranking)
	}
	if len(entries) == 0 {
		entries = make([]Entry, len(items))
		for i := range items {
			entries[i] = Entry{Result: result.Unscored(items[i].Key())}
		}
	}
	return slice(entries, number, size, false)
}

func rankedListing(items []catalog.Item, ranking result.Set) []Entry {
	if len(items) == 0 {
		return nil
	}
	inCategory := make(map[catalog.Key]struct{}, len(items))
	for i := range items {
		inCategory[items[i].Key()] = struct{}{}
	}
	var entries []Entry
	seen := make(map[catalog.Key]struct{}, len(items))
	for i := 0; i < ranking.Len(); i++ {
		r := ranking.At(i)
		if _, ok := inCategory[r.Key()]; !ok {
			continue
		}
		if _, dup := seen[r.Key()]; dup {
			continue
		}
		seen[r.Key()] = struct{}{}
		entries = append(entries, Entry{Result: r})
	}
	return entries
}

func toEntries(set result.Set, group bool) []Entry {
	if !group {
		entries := make([]Entry, set.Len())
		for i := range entries {
			entries[i] = Entry{Result: set.At(i)}
		}
		return entries
	}

	counts := make(map[string]int)
	var order []Entry
	for i := 0; i < set.Len(); i++ {
		r := set.At(i)
		if counts[r.Category()] == 0 {
			order = append(order, Entry{Result: r})
		}
		counts[r.Category()]++
	}
	for i := range order {
		order[i].Count = counts[order[i].Result.Category()]
	}
	return order
}

func slice(entries []Entry, number, size int, grouped bool) (Page, error) {
	total := len(entries)
	if number < 1 || (number-1)*size >= total {
		return Page{}, fmt.Errorf("page %d of %d entries at %d per page: %w",
			number, total, size, domain.ErrPageRange)
	}
	start := (number - 1) * size
	end := min(start+size, total)
	return Page{
		Number:  number,
		Size:    size,
		Total:   total,
		Start:   start,
		End:     end,
		Pages:   (total + size - 1) / size,
		Grouped: grouped,
		Entries: append([]Entry(nil), entries[start:end]...),
	}, nil
}
