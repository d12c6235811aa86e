package catalog

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/klauspost/compress/gzip"

	domcat "github.com/kailas-cloud/refdex/internal/domain/catalog"
)

const sample = `{
  "fish": {
    "salmon": {"text": "Red Salmon", "metadata": {"zeta": 1, "alpha": "x"}, "embeddings": [[0, 0, 1]]}
  },
  "birds": {
    "robin": {"wrappers": {"text": "Robin Redbreast 2", "name": "Robin"}, "embeddings": [[1, 0, 0], [0.9, 0.1, 0]]},
    "crow":  {"text": "Crow", "embeddings": [[0, 1, 0]]}
  }
}`

func TestDecode(t *testing.T) {
	cat, err := Decode([]byte(sample))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}

	cats := cat.Categories()
	if len(cats) != 2 || cats[0] != "fish" || cats[1] != "birds" {
		t.Errorf("categories = %v, want file order", cats)
	}
	birds, _ := cat.Category("birds")
	if birds[0].Label() != "robin" || birds[1].Label() != "crow" {
		t.Errorf("birds order = %s, %s", birds[0].Label(), birds[1].Label())
	}

	salmon, _ := cat.Item(domcat.Key{Category: "fish", Label: "salmon"})
	if salmon.Text() != "red salmon" {
		t.Errorf("text = %q, want cleaned", salmon.Text())
	}
	meta := salmon.Metadata()
	if len(meta) != 2 || meta[0].Name != "zeta" || meta[1].Name != "alpha" {
		t.Errorf("metadata order = %v", meta)
	}

	robin, _ := cat.Item(domcat.Key{Category: "birds", Label: "robin"})
	if robin.Text() != "robin redbreast" {
		t.Errorf("wrapper text = %q", robin.Text())
	}
	if len(robin.Metadata()) != 1 || robin.Metadata()[0].Name != "name" {
		t.Errorf("wrapper metadata = %v, text must be lifted out", robin.Metadata())
	}
	if len(robin.Embeddings()) != 2 {
		t.Errorf("embeddings = %d", len(robin.Embeddings()))
	}
}

func TestDecode_Errors(t *testing.T) {
	tests := map[string]string{
		"not json":          `[1, 2`,
		"no embeddings":     `{"a": {"x": {"text": "x"}}}`,
		"mixed dimensions":  `{"a": {"x": {"embeddings": [[1, 0]]}, "y": {"embeddings": [[1]]}}}`,
		"ragged references": `{"a": {"x": {"embeddings": [[1, 0], [1]]}}}`,
	}
	for name, in := range tests {
		t.Run(name, func(t *testing.T) {
			if _, err := Decode([]byte(in)); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}

func TestFileSource_Gzip(t *testing.T) {
	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	if _, err := zw.Write([]byte(sample)); err != nil {
		t.Fatal(err)
	}
	if err := zw.Close(); err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(t.TempDir(), "meta.json.gz")
	if err := os.WriteFile(path, buf.Bytes(), 0o600); err != nil {
		t.Fatal(err)
	}

	cat, err := NewFileSource(path).Load(context.Background())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cat.Len() != 3 || cat.Dimensions() != 3 {
		t.Errorf("Len=%d Dimensions=%d", cat.Len(), cat.Dimensions())
	}
}

func TestFileSource_Missing(t *testing.T) {
	if _, err := NewFileSource(filepath.Join(t.TempDir(), "nope.json")).Load(context.Background()); err == nil {
		t.Fatal("expected error")
	}
}

func TestAssemble(t *testing.T) {
	rows := []row{
		{category: "birds", label: "robin", text: "Robin", metadata: []byte(`{"b":1,"a":2}`), embedding: []float32{1, 0}},
		{category: "birds", label: "robin", text: "Robin", metadata: []byte(`{"b":1,"a":2}`), embedding: []float32{0, 1}},
		{category: "fish", label: "salmon", text: "Salmon", embedding: []float32{1, 1}},
	}
	items, err := assemble(rows)
	if err != nil {
		t.Fatal(err)
	}
	if len(items) != 2 {
		t.Fatalf("items = %d", len(items))
	}
	if len(items[0].Embeddings()) != 2 || items[0].Text() != "robin" {
		t.Errorf("robin = %d embeddings, text %q", len(items[0].Embeddings()), items[0].Text())
	}
	if m := items[0].Metadata(); len(m) != 2 || m[0].Name != "b" {
		t.Errorf("metadata = %v", m)
	}
	if items[1].Metadata() != nil {
		t.Errorf("salmon metadata = %v", items[1].Metadata())
	}

	// a repeated key after another item surfaces as a duplicate in the catalog
	dup := append(rows, row{category: "birds", label: "robin", embedding: []float32{1, 0}})
	items, err = assemble(dup)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := domcat.New(items); err == nil {
		t.Error("duplicate key accepted")
	}
}

func TestDecodeFields_Invalid(t *testing.T) {
	if _, err := decodeFields([]byte(`[1]`)); err == nil {
		t.Error("expected error for non-object metadata")
	}
	if f, err := decodeFields([]byte("null")); err != nil || f != nil {
		t.Errorf("null metadata = %v, %v", f, err)
	}
}
