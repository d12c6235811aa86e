package health

import (
	"context"
	"errors"
	"testing"
)

// --- Mocks ---

type mockReference struct {
	ready bool
}

func (m *mockReference) Ready() bool { return m.ready }

type mockCachePinger struct {
	err error
}

func (m *mockCachePinger) Ping(_ context.Context) error { return m.err }

type mockEmbeddingChecker struct {
	err error
}

func (m *mockEmbeddingChecker) HealthCheck(_ context.Context) error { return m.err }

// --- Tests ---

func TestCheck_AllHealthy(t *testing.T) {
	svc := New(&mockReference{ready: true}, &mockCachePinger{}, &mockEmbeddingChecker{})
	r := svc.Check(context.Background())

	if r.Status != Healthy {
		t.Errorf("expected %q, got %q", Healthy, r.Status)
	}
	for _, c := range []string{ComponentReference, ComponentEmbeddingCache, ComponentEmbedding} {
		if r.Checks[c] != CheckOK {
			t.Errorf("expected %s %q, got %q", c, CheckOK, r.Checks[c])
		}
	}
}

func TestCheck_ReferenceNotLoaded(t *testing.T) {
	svc := New(&mockReference{}, &mockCachePinger{}, &mockEmbeddingChecker{})
	r := svc.Check(context.Background())

	if r.Status != Unhealthy {
		t.Errorf("expected %q, got %q", Unhealthy, r.Status)
	}
	if r.Checks[ComponentReference] != CheckError {
		t.Errorf("expected reference %q, got %q", CheckError, r.Checks[ComponentReference])
	}
}

func TestCheck_CacheError(t *testing.T) {
	svc := New(&mockReference{ready: true}, &mockCachePinger{err: errors.New("conn refused")}, &mockEmbeddingChecker{})
	r := svc.Check(context.Background())

	if r.Status != Degraded {
		t.Errorf("expected %q, got %q", Degraded, r.Status)
	}
	if r.Checks[ComponentEmbeddingCache] != CheckError {
		t.Errorf("expected cache %q, got %q", CheckError, r.Checks[ComponentEmbeddingCache])
	}
	if r.Checks[ComponentEmbedding] != CheckOK {
		t.Errorf("expected embedding %q, got %q", CheckOK, r.Checks[ComponentEmbedding])
	}
}

func TestCheck_EmbeddingError(t *testing.T) {
	svc := New(&mockReference{ready: true}, nil, &mockEmbeddingChecker{err: errors.New("timeout")})
	r := svc.Check(context.Background())

	if r.Status != Degraded {
		t.Errorf("expected %q, got %q", Degraded, r.Status)
	}
	if r.Checks[ComponentEmbedding] != CheckError {
		t.Errorf("expected embedding %q, got %q", CheckError, r.Checks[ComponentEmbedding])
	}
	if _, ok := r.Checks[ComponentEmbeddingCache]; ok {
		t.Error("cache check should be absent when cache is nil")
	}
}

func TestCheck_OnlyReference(t *testing.T) {
	svc := New(&mockReference{ready: true}, nil, nil)
	r := svc.Check(context.Background())

	if r.Status != Healthy {
		t.Errorf("expected %q, got %q", Healthy, r.Status)
	}
	if len(r.Checks) != 1 {
		t.Errorf("expected 1 check, got %d: %v", len(r.Checks), r.Checks)
	}
}
