// Package catalog loads the reference catalog from a JSON file or Postgres.
package catalog

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/klauspost/compress/gzip"
	orderedmap "github.com/wk8/go-ordered-map/v2"

	domcat "github.com/kailas-cloud/refdex/internal/domain/catalog"
	"github.com/kailas-cloud/refdex/internal/domain/text"
)

// itemJSON is one label entry of the catalog file. Older exports keep the
// display fields, text included, under "wrappers".
type itemJSON struct {
	Text       string                              `json:"text"`
	Metadata   *orderedmap.OrderedMap[string, any] `json:"metadata"`
	Wrappers   *orderedmap.OrderedMap[string, any] `json:"wrappers"`
	Embeddings [][]float32                         `json:"embeddings"`
}

type labelMap = orderedmap.OrderedMap[string, itemJSON]

// FileSource reads a catalog file shaped {category: {label: item}}.
// Paths ending in .gz are gunzipped. Key order in the file is catalog order.
type FileSource struct {
	path string
}

// NewFileSource creates a file-backed catalog source.
func NewFileSource(path string) *FileSource {
	return &FileSource{path: path}
}

// Load reads and validates the catalog.
func (s *FileSource) Load(_ context.Context) (*domcat.Catalog, error) {
	f, err := os.Open(s.path)
	if err != nil {
		return nil, fmt.Errorf("open catalog: %w", err)
	}
	defer func() { _ = f.Close() }()

	var r io.Reader = f
	if strings.HasSuffix(s.path, ".gz") {
		gz, err := gzip.NewReader(f)
		if err != nil {
			return nil, fmt.Errorf("open gzip catalog: %w", err)
		}
		defer func() { _ = gz.Close() }()
		r = gz
	}

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	cat, err := Decode(data)
	if err != nil {
		return nil, fmt.Errorf("catalog %s: %w", s.path, err)
	}
	return cat, nil
}

// Decode parses catalog JSON. Item text is normalized with text.Clean, digits dropped.
func Decode(data []byte) (*domcat.Catalog, error) {
	data = bytes.TrimSpace(data)
	categories := orderedmap.New[string, *labelMap]()
	if err := json.Unmarshal(data, categories); err != nil {
		return nil, fmt.Errorf("decode catalog json: %w", err)
	}

	var items []domcat.Item
	for c := categories.Oldest(); c != nil; c = c.Next() {
		if c.Value == nil {
			continue
		}
		for l := c.Value.Oldest(); l != nil; l = l.Next() {
			item, err := toItem(domcat.Key{Category: c.Key, Label: l.Key}, l.Value)
			if err != nil {
				return nil, err
			}
			items = append(items, item)
		}
	}
	cat, err := domcat.New(items)
	if err != nil {
		return nil, fmt.Errorf("build catalog: %w", err)
	}
	return cat, nil
}

func toItem(key domcat.Key, raw itemJSON) (domcat.Item, error) {
	meta := raw.Metadata
	if meta == nil {
		meta = raw.Wrappers
	}
	txt := raw.Text
	var fields []domcat.Field
	if meta != nil {
		for p := meta.Oldest(); p != nil; p = p.Next() {
			if p.Key == "text" {
				if s, ok := p.Value.(string); ok && txt == "" {
					txt = s
				}
				continue
			}
			fields = append(fields, domcat.Field{Name: p.Key, Value: p.Value})
		}
	}
	item, err := domcat.NewItem(key, text.Clean(txt, false), fields, raw.Embeddings)
	if err != nil {
		return domcat.Item{}, fmt.Errorf("decode item: %w", err)
	}
	return item, nil
}
