package resultcache

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/kailas-cloud/refdex/internal/domain/catalog"
	"github.com/kailas-cloud/refdex/internal/domain/search/result"
)

func setOf(label string) result.Set {
	return result.NewSet([]result.Result{result.New(catalog.Key{Category: "c", Label: label}, 1)})
}

func TestPutGet(t *testing.T) {
	c, err := New(4)
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()
	h, err := c.Put(ctx, setOf("a"))
	if err != nil {
		t.Fatal(err)
	}
	if len(h) != 2*handleBytes {
		t.Errorf("handle %q has length %d", h, len(h))
	}
	got, ok := c.Get(ctx, h)
	if !ok || got.At(0).Label() != "a" {
		t.Fatalf("Get = %v, %v", got, ok)
	}
	if _, ok := c.Get(ctx, "missing"); ok {
		t.Error("unknown handle found")
	}
}

func TestHandlesUnique(t *testing.T) {
	c, _ := New(0)
	ctx := context.Background()
	seen := make(map[string]bool)
	for range 200 {
		h, err := c.Put(ctx, setOf("x"))
		if err != nil {
			t.Fatal(err)
		}
		if seen[h] {
			t.Fatalf("duplicate handle %s", h)
		}
		seen[h] = true
	}
	if c.Len() != 200 || c.Capacity() != 0 {
		t.Errorf("Len=%d Capacity=%d", c.Len(), c.Capacity())
	}
}

func TestEvictsLeastRecentlyUsed(t *testing.T) {
	c, _ := New(2)
	ctx := context.Background()
	ha, _ := c.Put(ctx, setOf("a"))
	hb, _ := c.Put(ctx, setOf("b"))

	// reading a makes b the eviction candidate
	if _, ok := c.Get(ctx, ha); !ok {
		t.Fatal("a missing")
	}
	hc, _ := c.Put(ctx, setOf("c"))

	if _, ok := c.Get(ctx, hb); ok {
		t.Error("b should have been evicted")
	}
	if _, ok := c.Get(ctx, ha); !ok {
		t.Error("a should survive")
	}
	if _, ok := c.Get(ctx, hc); !ok {
		t.Error("c should be present")
	}
	if c.Len() != 2 {
		t.Errorf("Len = %d", c.Len())
	}
}

func TestCollisionRetry(t *testing.T) {
	c, _ := New(0)
	ctx := context.Background()
	ids := []string{"dup", "dup", "fresh"}
	c.newID = func() (string, error) {
		id := ids[0]
		ids = ids[1:]
		return id, nil
	}
	if h, _ := c.Put(ctx, setOf("a")); h != "dup" {
		t.Fatalf("first handle = %q", h)
	}
	h, err := c.Put(ctx, setOf("b"))
	if err != nil || h != "fresh" {
		t.Fatalf("second handle = %q, %v", h, err)
	}
	if got, _ := c.Get(ctx, "dup"); got.At(0).Label() != "a" {
		t.Error("collision overwrote the live entry")
	}
}

func TestCollisionExhausted(t *testing.T) {
	c, _ := New(0)
	ctx := context.Background()
	c.newID = func() (string, error) { return "same", nil }
	if _, err := c.Put(ctx, setOf("a")); err != nil {
		t.Fatal(err)
	}
	if _, err := c.Put(ctx, setOf("b")); err == nil {
		t.Fatal("expected error after repeated collisions")
	}
}

func TestNew_NegativeCapacity(t *testing.T) {
	if _, err := New(-1); err == nil {
		t.Fatal("expected error")
	}
}

func TestCapacityLaw(t *testing.T) {
	c, _ := New(2)
	ctx := context.Background()
	ha, _ := c.Put(ctx, setOf("a"))
	hb, _ := c.Put(ctx, setOf("b"))
	hc, _ := c.Put(ctx, setOf("c"))

	if _, ok := c.Get(ctx, ha); ok {
		t.Error("a should have been evicted")
	}
	for _, h := range []string{hb, hc} {
		if _, ok := c.Get(ctx, h); !ok {
			t.Errorf("%s missing", h)
		}
	}
}

func TestConcurrentPutGet(t *testing.T) {
	const capacity = 8
	c, err := New(capacity)
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()

	var wg sync.WaitGroup
	for w := range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			var handles []string
			for i := range 200 {
				h, err := c.Put(ctx, setOf(fmt.Sprintf("w%d-%d", w, i)))
				if err != nil {
					t.Error(err)
					return
				}
				handles = append(handles, h)
				c.Get(ctx, handles[i/2])
				if n := c.Len(); n > capacity {
					t.Errorf("Len = %d exceeds capacity %d", n, capacity)
					return
				}
			}
		}()
	}
	wg.Wait()

	if n := c.Len(); n != capacity {
		t.Errorf("Len after load = %d, want %d", n, capacity)
	}
}
