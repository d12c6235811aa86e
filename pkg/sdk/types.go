package refdex

import (
	domcat "github.com/kailas-cloud/refdex/internal/domain/catalog"
	"github.com/kailas-cloud/refdex/internal/usecase/pagination"
)

// Query is a search request. At least one of Image and Text is required
// unless the client was created WithBrowse.
type Query struct {
	Image    []byte
	Filename string
	Text     string
	// TextFilter keeps only items whose text contains every word of Text.
	TextFilter bool
	// IncludeDigits keeps digits when normalizing Text.
	IncludeDigits bool
}

// Field is one metadata entry of an item, in catalog order.
type Field struct {
	Name  string
	Value any
}

// Result is one ranked entry of a page.
type Result struct {
	Category string
	Label    string
	// Score is in [0, 1]; Scored is false for unranked category listings.
	Score  float64
	Scored bool
	// Count is the number of results in the entry's category, set on grouped result pages.
	Count    int
	Metadata []Field
}

// Page is one page of a ranking or a category listing.
type Page struct {
	Number  int
	Size    int
	Total   int
	Pages   int
	HasNext bool
	HasPrev bool
	Results []Result
}

// Item is a reference catalog entry.
type Item struct {
	Category   string
	Label      string
	Text       string
	Metadata   []Field
	References int
}

// Category summarizes one catalog category.
type Category struct {
	Name  string
	Items int
}

func fieldsFromDomain(ff []domcat.Field) []Field {
	if len(ff) == 0 {
		return nil
	}
	out := make([]Field, len(ff))
	for i, f := range ff {
		out[i] = Field{Name: f.Name, Value: f.Value}
	}
	return out
}

func itemFromDomain(it domcat.Item) Item {
	return Item{
		Category:   it.Category(),
		Label:      it.Label(),
		Text:       it.Text(),
		Metadata:   fieldsFromDomain(it.Metadata()),
		References: len(it.Embeddings()),
	}
}

func pageFromDomain(p pagination.Page, cat *domcat.Catalog) Page {
	results := make([]Result, len(p.Entries))
	for i, e := range p.Entries {
		score, scored := e.Result.Score()
		r := Result{
			Category: e.Result.Category(),
			Label:    e.Result.Label(),
			Score:    score,
			Scored:   scored,
			Count:    e.Count,
		}
		if it, ok := cat.Item(e.Result.Key()); ok {
			r.Metadata = fieldsFromDomain(it.Metadata())
		}
		results[i] = r
	}
	return Page{
		Number:  p.Number,
		Size:    p.Size,
		Total:   p.Total,
		Pages:   p.Pages,
		HasNext: p.HasNext(),
		HasPrev: p.HasPrev(),
		Results: results,
	}
}
