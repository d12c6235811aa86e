package health

import "context"

// Status represents the aggregated health status.
type Status string

const (
	// Healthy indicates all components are operational.
	Healthy Status = "ok"
	// Degraded indicates an optional component is failing; searches still work
	// (cache misses fall through to the model, provider errors surface per request).
	Degraded Status = "degraded"
	// Unhealthy indicates the reference data is not loaded.
	Unhealthy Status = "error"
)

// CheckResult represents an individual component health check outcome.
type CheckResult string

const (
	// CheckOK indicates a passing health check.
	CheckOK CheckResult = "ok"
	// CheckError indicates a failing health check.
	CheckError CheckResult = "error"
)

// Component names used as Report.Checks keys.
const (
	ComponentReference      = "reference"
	ComponentEmbeddingCache = "embedding_cache"
	ComponentEmbedding      = "embedding"
)

// Report aggregates health check results.
type Report struct {
	Status Status
	Checks map[string]CheckResult
}

// Service coordinates health checks.
type Service struct {
	reference ReferenceChecker
	cache     CachePinger
	embedding EmbeddingChecker
}

// New creates a Service. cache and embedding can be nil.
func New(reference ReferenceChecker, cache CachePinger, embedding EmbeddingChecker) *Service {
	return &Service{reference: reference, cache: cache, embedding: embedding}
}

// Check runs health checks against all components.
func (s *Service) Check(ctx context.Context) Report {
	checks := make(map[string]CheckResult)

	referenceOK := s.reference.Ready()
	checks[ComponentReference] = result(referenceOK)

	if s.cache != nil {
		checks[ComponentEmbeddingCache] = result(s.cache.Ping(ctx) == nil)
	}
	if s.embedding != nil {
		checks[ComponentEmbedding] = result(s.embedding.HealthCheck(ctx) == nil)
	}

	if !referenceOK {
		return Report{Status: Unhealthy, Checks: checks}
	}
	status := Healthy
	for _, v := range checks {
		if v == CheckError {
			status = Degraded
			break
		}
	}
	return Report{Status: status, Checks: checks}
}

func result(ok bool) CheckResult {
	if ok {
		return CheckOK
	}
	return CheckError
}
