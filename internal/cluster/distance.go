package cluster

import (
	"math"

	"github.com/rotisserie/eris"
)

// Metric identifies the distance metric used for vector comparison.
type Metric string

const (
	// MetricEuclidean is the L2 distance (the default).
	MetricEuclidean Metric = "euclidean"
	// MetricCosine is 1 - cosine similarity.
	MetricCosine Metric = "cosine"
)

// DistanceFunc computes the distance between two equal-length vectors.
type DistanceFunc func(a, b []float64) float64

// Euclidean returns the L2 distance between a and b.
// Assumes equal length (caller's responsibility).
func Euclidean(a, b []float64) float64 {
	var sum float64
	for i := range a {
		d := a[i] - b[i]
		sum += d * d
	}
	return math.Sqrt(sum)
}

// Cosine returns 1 - cosine similarity. Zero vectors are treated as maximally
// distant from everything, including each other.
func Cosine(a, b []float64) float64 {
	var dot, na, nb float64
	for i := range a {
		dot += a[i] * b[i]
		na += a[i] * a[i]
		nb += b[i] * b[i]
	}
	if na == 0 || nb == 0 {
		return 1
	}
	return 1 - dot/(math.Sqrt(na)*math.Sqrt(nb))
}

// DistanceProvider returns the distance function for the given metric.
func DistanceProvider(m Metric) (DistanceFunc, error) {
	switch m {
	case MetricEuclidean, "":
		return Euclidean, nil
	case MetricCosine:
		return Cosine, nil
	default:
		return nil, eris.Errorf("cluster: unsupported distance metric %q", m)
	}
}
