package cluster

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// samePartition reports whether two labelings induce the same point-to-point
// "same cluster" relation, ignoring cluster numbering. Noise must match
// exactly.
func samePartition(t *testing.T, a, b []int) {
	t.Helper()
	require.Equal(t, len(a), len(b))
	for i := range a {
		assert.Equal(t, a[i] == Noise, b[i] == Noise, "noise mismatch at %d", i)
		for j := i + 1; j < len(a); j++ {
			if a[i] == Noise || a[j] == Noise {
				continue
			}
			assert.Equal(t, a[i] == a[j], b[i] == b[j], "relation mismatch at (%d,%d)", i, j)
		}
	}
}

func TestHDBSCAN_TrioWithOutliers(t *testing.T) {
	vectors := [][]float64{
		{0, 0},       // trio
		{0.1, 0},     // trio
		{0.05, 0.08}, // trio
		{10, 10},     // outlier
		{-10, 8},     // outlier
	}
	labels, err := NewHDBSCAN(2, 2, MetricEuclidean).Cluster(vectors)
	require.NoError(t, err)
	require.Len(t, labels, 5)

	assert.NotEqual(t, Noise, labels[0])
	assert.Equal(t, labels[0], labels[1])
	assert.Equal(t, labels[0], labels[2])
	assert.Equal(t, Noise, labels[3])
	assert.Equal(t, Noise, labels[4])
}

func TestHDBSCAN_TwoGroups(t *testing.T) {
	vectors := [][]float64{
		{0, 0}, {0.1, 0.1}, {0.2, 0},
		{50, 50}, {50.1, 50.1}, {50.2, 50},
	}
	labels, err := NewHDBSCAN(2, 2, MetricEuclidean).Cluster(vectors)
	require.NoError(t, err)

	assert.NotEqual(t, Noise, labels[0])
	assert.NotEqual(t, Noise, labels[3])
	assert.Equal(t, labels[0], labels[1])
	assert.Equal(t, labels[0], labels[2])
	assert.Equal(t, labels[3], labels[4])
	assert.Equal(t, labels[3], labels[5])
	assert.NotEqual(t, labels[0], labels[3])
}

func TestHDBSCAN_SinglePointIsNoise(t *testing.T) {
	labels, err := NewHDBSCAN(2, 2, MetricEuclidean).Cluster([][]float64{{1, 2}})
	require.NoError(t, err)
	assert.Equal(t, []int{Noise}, labels)
}

func TestHDBSCAN_FewerThanMinClusterSize(t *testing.T) {
	labels, err := NewHDBSCAN(3, 2, MetricEuclidean).Cluster([][]float64{{0, 0}, {1, 1}})
	require.NoError(t, err)
	assert.Equal(t, []int{Noise, Noise}, labels)
}

func TestHDBSCAN_EmptyInput(t *testing.T) {
	labels, err := NewHDBSCAN(2, 2, MetricEuclidean).Cluster(nil)
	require.NoError(t, err)
	assert.Empty(t, labels)
}

func TestHDBSCAN_CoincidentDuplicatesClusterTogether(t *testing.T) {
	vectors := [][]float64{
		{1, 1}, {1, 1}, {1, 1},
	}
	labels, err := NewHDBSCAN(2, 2, MetricEuclidean).Cluster(vectors)
	require.NoError(t, err)
	assert.NotEqual(t, Noise, labels[0])
	assert.Equal(t, labels[0], labels[1])
	assert.Equal(t, labels[0], labels[2])
}

func TestHDBSCAN_CoincidentPairsWithSeparation(t *testing.T) {
	vectors := [][]float64{
		{0, 0}, {0, 0},
		{5, 5}, {5, 5},
	}
	// min_samples=1: each duplicate's density neighborhood is its twin.
	labels, err := NewHDBSCAN(2, 1, MetricEuclidean).Cluster(vectors)
	require.NoError(t, err)
	assert.Equal(t, labels[0], labels[1])
	assert.Equal(t, labels[2], labels[3])
	assert.NotEqual(t, labels[0], labels[2])
	for _, l := range labels {
		assert.NotEqual(t, Noise, l)
	}
}

func TestHDBSCAN_Deterministic(t *testing.T) {
	vectors := [][]float64{
		{0, 0}, {0.2, 0.1}, {0.1, 0.3}, {8, 8}, {8.1, 8.2}, {20, -3},
	}
	c := NewHDBSCAN(2, 2, MetricEuclidean)
	first, err := c.Cluster(vectors)
	require.NoError(t, err)
	second, err := c.Cluster(vectors)
	require.NoError(t, err)
	samePartition(t, first, second)
	assert.Equal(t, first, second)
}

func TestHDBSCAN_NoiseSentinelInvariant(t *testing.T) {
	vectors := [][]float64{
		{0, 0}, {0.1, 0}, {0.2, 0.1},
		{30, 30}, {30.1, 30},
		{-40, 12}, {99, 99},
	}
	minClusterSize := 2
	labels, err := NewHDBSCAN(minClusterSize, 2, MetricEuclidean).Cluster(vectors)
	require.NoError(t, err)

	counts := map[int]int{}
	for _, l := range labels {
		if l != Noise {
			counts[l]++
		}
	}
	for id, n := range counts {
		assert.GreaterOrEqual(t, n, minClusterSize, "cluster %d", id)
	}
}

func TestHDBSCAN_InvalidParams(t *testing.T) {
	_, err := NewHDBSCAN(1, 2, MetricEuclidean).Cluster([][]float64{{0}})
	assert.Error(t, err)
	_, err = NewHDBSCAN(2, 0, MetricEuclidean).Cluster([][]float64{{0}})
	assert.Error(t, err)
	_, err = NewHDBSCAN(2, 2, Metric("chebyshev")).Cluster([][]float64{{0}})
	assert.Error(t, err)
}
