package classify

import (
	"fmt"
	"math"
	"slices"
	"strings"
)

// Metric is the distance function between a query and a reference embedding.
type Metric string

// Supported metrics.
const (
	Cosine    Metric = "cosine"
	Euclidean Metric = "euclidean"
)

// ParseMetric resolves a configured metric name.
func ParseMetric(s string) (Metric, error) {
	switch m := Metric(strings.ToLower(strings.TrimSpace(s))); m {
	case Cosine, Euclidean:
		return m, nil
	case "":
		return Cosine, nil
	default:
		return "", fmt.Errorf("unknown metric %q (want cosine or euclidean)", s)
	}
}

func (m Metric) distance(a, b []float32) float64 {
	if m == Cosine {
		return cosineDistance(a, b)
	}
	return euclideanDistance(a, b)
}

// score converts a distance into a similarity clamped to [0, 1]. Cosine
// distance maps as 1-d, so references past orthogonal score 0. Euclidean
// distance between unit vectors spans [0, 2] and maps as 1-d/2.
func (m Metric) score(d float64) float64 {
	s := 1 - d
	if m == Euclidean {
		s = 1 - d/2
	}
	return math.Min(1, math.Max(0, s))
}

func euclideanDistance(a, b []float32) float64 {
	var sum float64
	for i := range a {
		d := float64(a[i]) - float64(b[i])
		sum += d * d
	}
	return math.Sqrt(sum)
}

func cosineDistance(a, b []float32) float64 {
	var dot, na, nb float64
	for i := range a {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		na += x * x
		nb += y * y
	}
	if na == 0 || nb == 0 {
		return 1
	}
	return 1 - dot/(math.Sqrt(na)*math.Sqrt(nb))
}

// Aggregator combines the distances to an item's reference embeddings into one.
type Aggregator string

// Supported aggregators.
const (
	Min    Aggregator = "min"
	Max    Aggregator = "max"
	Mean   Aggregator = "mean"
	Median Aggregator = "median"
)

// ParseAggregator resolves a configured aggregator name.
func ParseAggregator(s string) (Aggregator, error) {
	switch a := Aggregator(strings.ToLower(strings.TrimSpace(s))); a {
	case Min, Max, Mean, Median:
		return a, nil
	case "":
		return Min, nil
	default:
		return "", fmt.Errorf("unknown aggregator %q (want min, max, mean or median)", s)
	}
}

// apply aggregates ds. ds is non-empty and may be reordered.
func (a Aggregator) apply(ds []float64) float64 {
	switch a {
	case Max:
		return slices.Max(ds)
	case Mean:
		var sum float64
		for _, d := range ds {
			sum += d
		}
		return sum / float64(len(ds))
	case Median:
		slices.Sort(ds)
		n := len(ds)
		if n%2 == 1 {
			return ds[n/2]
		}
		return (ds[n/2-1] + ds[n/2]) / 2
	default:
		return slices.Min(ds)
	}
}
