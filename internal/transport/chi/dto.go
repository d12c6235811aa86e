package chi

import (
	orderedmap "github.com/wk8/go-ordered-map/v2"

	"github.com/kailas-cloud/refdex/internal/domain/catalog"
	"github.com/kailas-cloud/refdex/internal/usecase/pagination"
)

type searchResponse struct {
	ResultsID string `json:"results_id"`
}

type resultEntry struct {
	Category string                              `json:"category"`
	Label    string                              `json:"label"`
	Score    *float64                            `json:"score,omitempty"`
	Count    int                                 `json:"count,omitempty"`
	Metadata *orderedmap.OrderedMap[string, any] `json:"metadata,omitempty"`
}

type pageResponse struct {
	ResultsID string        `json:"results_id,omitempty"`
	Category  string        `json:"category,omitempty"`
	Page      int           `json:"page"`
	PerPage   int           `json:"per_page"`
	Total     int           `json:"total"`
	Pages     int           `json:"pages"`
	HasNext   bool          `json:"has_next"`
	HasPrev   bool          `json:"has_prev"`
	Results   []resultEntry `json:"results"`
}

type itemResponse struct {
	Category   string                              `json:"category"`
	Label      string                              `json:"label"`
	Text       string                              `json:"text,omitempty"`
	Metadata   *orderedmap.OrderedMap[string, any] `json:"metadata,omitempty"`
	References int                                 `json:"references"`
}

type categoryResponse struct {
	Name  string `json:"name"`
	Items int    `json:"items"`
}

type healthResponse struct {
	Status  string            `json:"status"`
	Checks  map[string]string `json:"checks"`
	Version string            `json:"version"`
}

// metadataToJSON keeps the catalog field order in the encoded object.
func metadataToJSON(fields []catalog.Field) *orderedmap.OrderedMap[string, any] {
	if len(fields) == 0 {
		return nil
	}
	om := orderedmap.New[string, any](len(fields))
	for _, f := range fields {
		om.Set(f.Name, f.Value)
	}
	return om
}

func itemToResponse(it catalog.Item) itemResponse {
	return itemResponse{
		Category:   it.Category(),
		Label:      it.Label(),
		Text:       it.Text(),
		Metadata:   metadataToJSON(it.Metadata()),
		References: len(it.Embeddings()),
	}
}

// pageToResponse renders p, attaching each entry's metadata from cat.
func pageToResponse(p pagination.Page, cat *catalog.Catalog) pageResponse {
	results := make([]resultEntry, len(p.Entries))
	for i, e := range p.Entries {
		entry := resultEntry{
			Category: e.Result.Category(),
			Label:    e.Result.Label(),
			Count:    e.Count,
		}
		if score, ok := e.Result.Score(); ok {
			entry.Score = &score
		}
		if it, ok := cat.Item(e.Result.Key()); ok {
			entry.Metadata = metadataToJSON(it.Metadata())
		}
		results[i] = entry
	}
	return pageResponse{
		Page:    p.Number,
		PerPage: p.Size,
		Total:   p.Total,
		Pages:   p.Pages,
		HasNext: p.HasNext(),
		HasPrev: p.HasPrev(),
		Results: results,
	}
}
