// Package cluster implements the density-based clustering variants: HDBSCAN
// over the native embedding space and fixed-radius DBSCAN over reduced
// vectors. Cluster ids are opaque non-negative integers; Noise marks points no
// stable cluster claimed.
package cluster

// Noise is the reserved label for unclustered points.
const Noise = -1

// Clusterer assigns a cluster label to every input vector, in input order.
type Clusterer interface {
	Cluster(vectors [][]float64) ([]int, error)
}
