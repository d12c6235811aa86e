package catalog

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	orderedmap "github.com/wk8/go-ordered-map/v2"

	domcat "github.com/kailas-cloud/refdex/internal/domain/catalog"
	"github.com/kailas-cloud/refdex/internal/domain/text"
)

// Metadata is stored as json, not jsonb: jsonb does not keep key order.
const loadQuery = `
	SELECT i.category, i.label, i.text, i.metadata, e.embedding
	FROM reference_items i
	JOIN reference_embeddings e ON e.category = i.category AND e.label = i.label
	ORDER BY i.position, e.ordinal
`

// row is one (item, embedding) pair as returned by loadQuery.
type row struct {
	category  string
	label     string
	text      string
	metadata  []byte
	embedding []float32
}

// PostgresSource loads the catalog from reference_items / reference_embeddings.
type PostgresSource struct {
	pool *pgxpool.Pool
}

// NewPostgresSource connects to dsn.
func NewPostgresSource(ctx context.Context, dsn string) (*PostgresSource, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse postgres dsn: %w", err)
	}
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	return &PostgresSource{pool: pool}, nil
}

// Close releases the connection pool.
func (s *PostgresSource) Close() {
	s.pool.Close()
}

// Load reads every item with its embeddings.
func (s *PostgresSource) Load(ctx context.Context) (*domcat.Catalog, error) {
	rows, err := s.pool.Query(ctx, loadQuery)
	if err != nil {
		return nil, fmt.Errorf("query catalog: %w", err)
	}
	defer rows.Close()

	var out []row
	for rows.Next() {
		var r row
		if err := rows.Scan(&r.category, &r.label, &r.text, &r.metadata, &r.embedding); err != nil {
			return nil, fmt.Errorf("scan catalog row: %w", err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate catalog rows: %w", err)
	}

	items, err := assemble(out)
	if err != nil {
		return nil, err
	}
	cat, err := domcat.New(items)
	if err != nil {
		return nil, fmt.Errorf("build catalog: %w", err)
	}
	return cat, nil
}

// assemble folds consecutive rows of the same item into one item. Rows must be
// ordered by item first; a key seen again after another item is a duplicate.
func assemble(rows []row) ([]domcat.Item, error) {
	var items []domcat.Item
	for i := 0; i < len(rows); {
		first := rows[i]
		key := domcat.Key{Category: first.category, Label: first.label}
		var embs [][]float32
		j := i
		for ; j < len(rows) && rows[j].category == key.Category && rows[j].label == key.Label; j++ {
			embs = append(embs, rows[j].embedding)
		}
		fields, err := decodeFields(first.metadata)
		if err != nil {
			return nil, fmt.Errorf("item %s: %w", key, err)
		}
		item, err := domcat.NewItem(key, text.Clean(first.text, false), fields, embs)
		if err != nil {
			return nil, fmt.Errorf("decode item: %w", err)
		}
		items = append(items, item)
		i = j
	}
	return items, nil
}

func decodeFields(raw []byte) ([]domcat.Field, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return nil, nil
	}
	om := orderedmap.New[string, any]()
	if err := json.Unmarshal(raw, om); err != nil {
		return nil, fmt.Errorf("decode metadata: %w", err)
	}
	fields := make([]domcat.Field, 0, om.Len())
	for p := om.Oldest(); p != nil; p = p.Next() {
		fields = append(fields, domcat.Field{Name: p.Key, Value: p.Value})
	}
	return fields, nil
}
