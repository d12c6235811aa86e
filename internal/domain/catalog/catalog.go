// Package catalog holds the read-only reference catalog: categorized items with
// normalized text, display metadata and one or more reference embeddings.
package catalog

import (
	"errors"
	"fmt"
)

// ErrEmptyEmbeddings signals an item without reference embeddings.
var ErrEmptyEmbeddings = errors.New("item has no embeddings")

// Key identifies a reference item. It is comparable and used as a map key.
type Key struct {
	Category string
	Label    string
}

func (k Key) String() string { return k.Category + "/" + k.Label }

// Field is a single ordered metadata entry of an item.
type Field struct {
	Name  string
	Value any
}

// Item is an immutable reference entry.
type Item struct {
	key        Key
	text       string
	metadata   []Field
	embeddings [][]float32
}

// NewItem validates and creates an Item. text is expected to be normalized already.
func NewItem(key Key, text string, metadata []Field, embeddings [][]float32) (Item, error) {
	if key.Category == "" {
		return Item{}, fmt.Errorf("item %s: category is required", key)
	}
	if key.Label == "" {
		return Item{}, fmt.Errorf("item %s: label is required", key)
	}
	if len(embeddings) == 0 {
		return Item{}, fmt.Errorf("item %s: %w", key, ErrEmptyEmbeddings)
	}
	dim := len(embeddings[0])
	vecs := make([][]float32, len(embeddings))
	for i, e := range embeddings {
		if len(e) == 0 || len(e) != dim {
			return Item{}, fmt.Errorf("item %s: embedding %d has dimension %d, want %d", key, i, len(e), dim)
		}
		vecs[i] = append([]float32(nil), e...)
	}
	return Item{
		key:        key,
		text:       text,
		metadata:   append([]Field(nil), metadata...),
		embeddings: vecs,
	}, nil
}

// Key returns the (category, label) identifier.
func (i Item) Key() Key { return i.key }

// Category returns the item category.
func (i Item) Category() string { return i.key.Category }

// Label returns the item label within its category.
func (i Item) Label() string { return i.key.Label }

// Text returns the normalized item text.
func (i Item) Text() string { return i.text }

// Metadata returns the display fields in source order. Callers must not modify it.
func (i Item) Metadata() []Field { return i.metadata }

// Embeddings returns the reference vectors. Callers must not modify them.
func (i Item) Embeddings() [][]float32 { return i.embeddings }

// Dimensions returns the length of the item's embedding vectors.
func (i Item) Dimensions() int { return len(i.embeddings[0]) }

// Catalog is the loaded reference set. It is immutable and safe for concurrent reads.
type Catalog struct {
	items      []Item
	index      map[Key]int
	categories []string
	byCategory map[string][]int
	dim        int
}

// New builds a catalog from items in iteration order.
// Keys must be unique and all embeddings must share one dimension.
func New(items []Item) (*Catalog, error) {
	c := &Catalog{
		items:      make([]Item, 0, len(items)),
		index:      make(map[Key]int, len(items)),
		byCategory: make(map[string][]int),
	}
	for _, it := range items {
		if len(it.embeddings) == 0 {
			return nil, fmt.Errorf("item %s: %w", it.key, ErrEmptyEmbeddings)
		}
		if _, dup := c.index[it.key]; dup {
			return nil, fmt.Errorf("duplicate item %s", it.key)
		}
		if c.dim == 0 {
			c.dim = it.Dimensions()
		} else if it.Dimensions() != c.dim {
			return nil, fmt.Errorf("item %s: dimension %d, catalog uses %d", it.key, it.Dimensions(), c.dim)
		}
		pos := len(c.items)
		c.items = append(c.items, it)
		c.index[it.key] = pos
		if _, seen := c.byCategory[it.key.Category]; !seen {
			c.categories = append(c.categories, it.key.Category)
		}
		c.byCategory[it.key.Category] = append(c.byCategory[it.key.Category], pos)
	}
	return c, nil
}

// Len returns the number of items.
func (c *Catalog) Len() int { return len(c.items) }

// Dimensions returns the shared embedding dimension (0 for an empty catalog).
func (c *Catalog) Dimensions() int { return c.dim }

// Items returns all items in catalog order. Callers must not modify the slice.
func (c *Catalog) Items() []Item { return c.items }

// Item looks up a single item.
func (c *Catalog) Item(key Key) (Item, bool) {
	pos, ok := c.index[key]
	if !ok {
		return Item{}, false
	}
	return c.items[pos], true
}

// HasCategory reports whether the category exists.
func (c *Catalog) HasCategory(name string) bool {
	_, ok := c.byCategory[name]
	return ok
}

// Category returns the items of one category in catalog order.
func (c *Catalog) Category(name string) ([]Item, bool) {
	positions, ok := c.byCategory[name]
	if !ok {
		return nil, false
	}
	out := make([]Item, len(positions))
	for i, p := range positions {
		out[i] = c.items[p]
	}
	return out, true
}

// Categories returns category names in first-seen order.
func (c *Catalog) Categories() []string {
	return append([]string(nil), c.categories...)
}
