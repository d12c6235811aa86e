package result

import (
	"testing"

	"github.com/kailas-cloud/refdex/internal/domain/catalog"
)

func TestNew(t *testing.T) {
	key := catalog.Key{Category: "birds", Label: "robin"}
	r := New(key, 0.95)

	if r.Key() != key {
		t.Errorf("Key() = %v", r.Key())
	}
	if r.Category() != "birds" || r.Label() != "robin" {
		t.Errorf("Category/Label = %q/%q", r.Category(), r.Label())
	}
	score, ok := r.Score()
	if !ok || score != 0.95 {
		t.Errorf("Score() = %v, %v", score, ok)
	}
}

func TestUnscored(t *testing.T) {
	r := Unscored(catalog.Key{Category: "birds", Label: "crow"})
	if _, ok := r.Score(); ok {
		t.Error("unscored result reports a score")
	}
}

func TestSet(t *testing.T) {
	empty := NewSet(nil)
	if !empty.IsEmpty() || empty.Len() != 0 {
		t.Errorf("empty set: IsEmpty=%v Len=%d", empty.IsEmpty(), empty.Len())
	}

	a := New(catalog.Key{Category: "a", Label: "x"}, 0.9)
	b := New(catalog.Key{Category: "b", Label: "y"}, 0.8)
	s := NewSet([]Result{a, b})
	if s.Len() != 2 || s.At(0) != a || s.At(1) != b {
		t.Fatalf("set order broken: %v", s.Results())
	}

	cp := s.Results()
	cp[0] = b
	if s.At(0) != a {
		t.Error("Results() must return a copy")
	}
}
