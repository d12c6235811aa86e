package domain

import (
	"context"
	"errors"
	"math"
	"testing"
)

type stubEmbedder struct {
	result EmbeddingResult
	err    error
	got    []byte
}

func (s *stubEmbedder) Embed(_ context.Context, image []byte) (EmbeddingResult, error) {
	s.got = image
	return s.result, s.err
}

type stubHealthEmbedder struct {
	stubEmbedder
	healthErr error
}

func (s *stubHealthEmbedder) HealthCheck(context.Context) error { return s.healthErr }

func TestNormalizedEmbedder_UnitLength(t *testing.T) {
	inner := &stubEmbedder{result: EmbeddingResult{Embedding: []float32{3, 4}, Cached: true}}
	e := NewNormalizedEmbedder(inner)

	res, err := e.Embed(context.Background(), []byte("img"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(inner.got) != "img" {
		t.Errorf("inner got %q", inner.got)
	}
	if math.Abs(float64(res.Embedding[0])-0.6) > 1e-6 || math.Abs(float64(res.Embedding[1])-0.8) > 1e-6 {
		t.Errorf("Embedding = %v, want [0.6 0.8]", res.Embedding)
	}
	if !res.Cached {
		t.Error("Cached flag lost")
	}
	if inner.result.Embedding[0] != 3 {
		t.Error("inner vector modified in place")
	}
}

func TestNormalizedEmbedder_ErrorPropagation(t *testing.T) {
	inner := &stubEmbedder{err: ErrEmbeddingProviderError}
	_, err := NewNormalizedEmbedder(inner).Embed(context.Background(), nil)
	if !errors.Is(err, ErrEmbeddingProviderError) {
		t.Fatalf("err = %v", err)
	}
}

func TestNormalizedEmbedder_HealthCheck(t *testing.T) {
	if err := NewNormalizedEmbedder(&stubEmbedder{}).HealthCheck(context.Background()); err != nil {
		t.Errorf("plain inner: %v", err)
	}
	boom := errors.New("down")
	hc := &stubHealthEmbedder{healthErr: boom}
	if err := NewNormalizedEmbedder(hc).HealthCheck(context.Background()); !errors.Is(err, boom) {
		t.Errorf("health err = %v", err)
	}
}

func TestNormalize_Zero(t *testing.T) {
	got := Normalize([]float32{0, 0, 0})
	for _, x := range got {
		if x != 0 {
			t.Fatalf("Normalize(zero) = %v", got)
		}
	}
}
