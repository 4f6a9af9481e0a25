package cluster

import (
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// DBSCAN clusters vectors with a fixed neighborhood radius. A point is a core
// point when at least MinSamples points lie within Eps of it, counting the
// point itself (the convention the rest of this package assumes). Core points
// within Eps of each other share a cluster; non-core points within Eps of a
// core point join as border points; everything else is Noise.
type DBSCAN struct {
	Eps        float64
	MinSamples int
	Metric     Metric
}

// NewDBSCAN returns a clusterer with the given parameters.
func NewDBSCAN(eps float64, minSamples int, metric Metric) *DBSCAN {
	return &DBSCAN{Eps: eps, MinSamples: minSamples, Metric: metric}
}

// Cluster implements Clusterer. Expansion proceeds in ascending point index
// order, so the partition is deterministic for identical input.
func (d *DBSCAN) Cluster(vectors [][]float64) ([]int, error) {
	if d.Eps <= 0 {
		return nil, eris.Errorf("cluster: eps must be > 0, got %g", d.Eps)
	}
	if d.MinSamples < 1 {
		return nil, eris.Errorf("cluster: min_samples must be >= 1, got %d", d.MinSamples)
	}
	dist, err := DistanceProvider(d.Metric)
	if err != nil {
		return nil, err
	}

	n := len(vectors)
	labels := make([]int, n)
	for i := range labels {
		labels[i] = Noise
	}
	if n < d.MinSamples {
		return labels, nil
	}

	neighbors := func(i int) []int {
		var out []int
		for j := 0; j < n; j++ {
			if dist(vectors[i], vectors[j]) <= d.Eps {
				out = append(out, j)
			}
		}
		return out
	}

	visited := make([]bool, n)
	next := 0
	for i := 0; i < n; i++ {
		if visited[i] {
			continue
		}
		visited[i] = true

		hood := neighbors(i)
		if len(hood) < d.MinSamples {
			continue // not core; may still join a cluster as a border point
		}

		labels[i] = next
		queue := hood
		for len(queue) > 0 {
			p := queue[0]
			queue = queue[1:]

			if labels[p] == Noise {
				labels[p] = next // border or core, claimed by this cluster
			}
			if visited[p] {
				continue
			}
			visited[p] = true

			pHood := neighbors(p)
			if len(pHood) >= d.MinSamples {
				queue = append(queue, pHood...)
			}
		}
		next++
	}

	zap.L().Debug("cluster: dbscan complete",
		zap.Int("points", n),
		zap.Int("clusters", next),
	)
	return labels, nil
}
