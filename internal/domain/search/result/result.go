package result

import "github.com/kailas-cloud/refdex/internal/domain/catalog"

// Result is a single scored match. Higher scores rank better.
type Result struct {
	key    catalog.Key
	score  float64
	scored bool
}

// New creates a scored result. score is expected in [0, 1].
func New(key catalog.Key, score float64) Result {
	return Result{key: key, score: score, scored: true}
}

// Unscored creates a result without a score.
func Unscored(key catalog.Key) Result {
	return Result{key: key}
}

// Key returns the (category, label) identifier.
func (r Result) Key() catalog.Key { return r.key }

// Category returns the item category.
func (r Result) Category() string { return r.key.Category }

// Label returns the item label.
func (r Result) Label() string { return r.key.Label }

// Score returns the relevance score and whether it is set.
func (r Result) Score() (float64, bool) { return r.score, r.scored }

// Set is an immutable ranked sequence produced by one ranking operation.
type Set struct {
	results []Result
}

// NewSet takes ownership of results; callers must not modify the slice afterwards.
func NewSet(results []Result) Set {
	return Set{results: results}
}

// Len returns the number of results.
func (s Set) Len() int { return len(s.results) }

// IsEmpty reports whether the set has no results.
func (s Set) IsEmpty() bool { return len(s.results) == 0 }

// At returns the i-th result in rank order.
func (s Set) At(i int) Result { return s.results[i] }

// Results returns a copy of the ranked results.
func (s Set) Results() []Result {
	return append([]Result(nil), s.results...)
}
