package refdex

import "github.com/kailas-cloud/refdex/internal/domain"

// Sentinel errors re-exported from the domain layer.
// Use errors.Is() to check.
var (
	ErrValidation             = domain.ErrValidation
	ErrNotFound               = domain.ErrNotFound
	ErrPageRange              = domain.ErrPageRange
	ErrNoMatchFound           = domain.ErrNoMatchFound
	ErrReferenceNotReady      = domain.ErrReferenceNotReady
	ErrEmbeddingProviderError = domain.ErrEmbeddingProviderError
	ErrVectorDimMismatch      = domain.ErrVectorDimMismatch
)

// Reasons lists the reason codes of every validation or not-found failure in
// err, e.g. "empty_file" or "unknown_category".
func Reasons(err error) []string {
	var out []string
	for _, cause := range domain.Flatten(err) {
		if r, ok := domain.ReasonOf(cause); ok {
			out = append(out, string(r))
		}
	}
	return out
}
