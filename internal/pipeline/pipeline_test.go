package pipeline

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/geocluster/internal/config"
	"github.com/sells-group/geocluster/internal/model"
)

// mapProvider returns a fixed vector per cleaned text, so tests control the
// geometry the clusterer sees.
type mapProvider struct {
	vectors map[string][]float64
	dim     int
}

func (p *mapProvider) Embed(_ context.Context, texts []string) ([][]float64, error) {
	out := make([][]float64, len(texts))
	for i, t := range texts {
		if v, ok := p.vectors[t]; ok {
			out[i] = v
			continue
		}
		// Unknown text lands far from everything.
		far := make([]float64, p.dim)
		far[0] = 1000 + float64(i)
		out[i] = far
	}
	return out, nil
}

func testConfig(algorithm string) *config.Config {
	return &config.Config{
		Embed: config.EmbedConfig{BatchSize: 64, Concurrency: 2},
		Cluster: config.ClusterConfig{
			Algorithm:         algorithm,
			MinClusterSize:    2,
			MinSamples:        2,
			Eps:               0.5,
			Metric:            "euclidean",
			ReducedDimensions: 2,
			RandomSeed:        42,
		},
		Label: config.LabelConfig{TopNTerms: 10},
	}
}

func record(id, desc string) model.Record {
	return model.Record{ID: id, Description: desc, Latitude: 48, Longitude: 11}
}

func TestRun_HDBSCANDenseGroupWithOutliers(t *testing.T) {
	provider := &mapProvider{
		dim: 2,
		vectors: map[string][]float64{
			"granite boulder":    {0, 0},
			"granite outcrop":    {0.1, 0},
			"granite erratic":    {0.05, 0.08},
			"distant lighthouse": {10, 10},
			"remote shipwreck":   {-10, 8},
		},
	}
	records := []model.Record{
		record("a", "granite boulder"),
		record("b", "granite outcrop"),
		record("c", "granite erratic"),
		record("d", "distant lighthouse"),
		record("e", "remote shipwreck"),
	}

	result, err := New(testConfig("hdbscan"), provider).Run(context.Background(), records)
	require.NoError(t, err)
	require.Len(t, result.Records, 5)

	// The dense trio forms one cluster; the two isolated points are noise.
	trio := result.Records[0].ClusterID
	assert.NotEqual(t, model.Noise, trio)
	assert.Equal(t, trio, result.Records[1].ClusterID)
	assert.Equal(t, trio, result.Records[2].ClusterID)
	assert.Equal(t, model.Noise, result.Records[3].ClusterID)
	assert.Equal(t, model.Noise, result.Records[4].ClusterID)

	assert.Equal(t, 1, result.ClusterCount())
	require.Contains(t, result.Summaries, trio)
	assert.Contains(t, result.Summaries[trio].TopTerms, "granite")
	assert.Equal(t, 3, result.Summaries[trio].MemberCount)

	assert.Equal(t, "#0000ff", result.Colors[trio])
	assert.Equal(t, "#808080", result.Colors[model.Noise])
}

func TestRun_DBSCANTwoGroups(t *testing.T) {
	provider := &mapProvider{
		dim: 2,
		vectors: map[string][]float64{
			"granite boulder": {0, 0},
			"granite outcrop": {0.2, 0},
			"river delta":     {10, 10},
			"river mouth":     {10.2, 10},
			"lone marker":     {50, 50},
		},
	}
	records := []model.Record{
		record("a", "granite boulder"),
		record("b", "granite outcrop"),
		record("c", "river delta"),
		record("d", "river mouth"),
		record("e", "lone marker"),
	}

	result, err := New(testConfig("dbscan"), provider).Run(context.Background(), records)
	require.NoError(t, err)

	assert.Equal(t, result.Records[0].ClusterID, result.Records[1].ClusterID)
	assert.Equal(t, result.Records[2].ClusterID, result.Records[3].ClusterID)
	assert.NotEqual(t, result.Records[0].ClusterID, result.Records[2].ClusterID)
	assert.Equal(t, model.Noise, result.Records[4].ClusterID)
	assert.Equal(t, 2, result.ClusterCount())

	// Embedding dimension equals reduced_dimensions, so reduction is skipped
	// with a warning.
	require.NotEmpty(t, result.Warnings)
	assert.Contains(t, result.Warnings[0], "skipping reduction")
}

func TestRun_DBSCANReducesHighDimensionalInput(t *testing.T) {
	// Four dimensions in, two groups far apart; PCA to 2 keeps them apart.
	provider := &mapProvider{
		dim: 4,
		vectors: map[string][]float64{
			"granite boulder": {0, 0, 0.1, 0},
			"granite outcrop": {0.2, 0.1, 0, 0},
			"river delta":     {100, 100, 0, 0.1},
			"river mouth":     {100.2, 100, 0.1, 0},
		},
	}
	records := []model.Record{
		record("a", "granite boulder"),
		record("b", "granite outcrop"),
		record("c", "river delta"),
		record("d", "river mouth"),
	}

	result, err := New(testConfig("dbscan"), provider).Run(context.Background(), records)
	require.NoError(t, err)

	assert.Equal(t, result.Records[0].ClusterID, result.Records[1].ClusterID)
	assert.Equal(t, result.Records[2].ClusterID, result.Records[3].ClusterID)
	assert.NotEqual(t, result.Records[0].ClusterID, result.Records[2].ClusterID)
}

func TestRun_DBSCANSingleRecordWarnsDegenerate(t *testing.T) {
	// One point can never reach min_samples, even counting itself.
	provider := &mapProvider{
		dim:     2,
		vectors: map[string][]float64{"granite boulder": {0, 0}},
	}
	records := []model.Record{record("a", "granite boulder")}

	result, err := New(testConfig("dbscan"), provider).Run(context.Background(), records)
	require.NoError(t, err)
	require.Len(t, result.Records, 1)
	assert.Equal(t, model.Noise, result.Records[0].ClusterID)
	require.NotEmpty(t, result.Warnings)
	assert.Contains(t, result.Warnings[0], "min_samples 2")
	assert.Contains(t, result.Warnings[0], "all points are noise")
}

func TestRun_HDBSCANMinSamplesAboveInputWarnsDegenerate(t *testing.T) {
	provider := &mapProvider{
		dim: 2,
		vectors: map[string][]float64{
			"granite boulder": {0, 0},
			"granite outcrop": {0.1, 0},
			"granite erratic": {0.05, 0.08},
		},
	}
	records := []model.Record{
		record("a", "granite boulder"),
		record("b", "granite outcrop"),
		record("c", "granite erratic"),
	}

	cfg := testConfig("hdbscan")
	cfg.Cluster.MinSamples = 5

	result, err := New(cfg, provider).Run(context.Background(), records)
	require.NoError(t, err)
	require.Len(t, result.Records, 3)
	for _, r := range result.Records {
		assert.Equal(t, model.Noise, r.ClusterID)
	}
	require.NotEmpty(t, result.Warnings)
	assert.Contains(t, result.Warnings[0], "min_samples 5")
	assert.Contains(t, result.Warnings[0], "all points are noise")
}

func TestRun_EmptyInputWarns(t *testing.T) {
	result, err := New(testConfig("hdbscan"), &mapProvider{dim: 2}).Run(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, result.Records)
	require.Len(t, result.Warnings, 1)
	assert.Contains(t, result.Warnings[0], "empty")
}

func TestRun_InvalidCoordinateIsFatal(t *testing.T) {
	records := []model.Record{
		{ID: "bad", Description: "text", Latitude: math.NaN(), Longitude: 0},
	}
	_, err := New(testConfig("hdbscan"), &mapProvider{dim: 2}).Run(context.Background(), records)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "latitude")
}

func TestRun_EmptyVocabularyClusterWarns(t *testing.T) {
	// Two coincident points whose descriptions normalize to nothing form a
	// cluster with no vocabulary; the run succeeds with a warning.
	provider := &mapProvider{
		dim:     2,
		vectors: map[string][]float64{"": {0, 0}},
	}
	records := []model.Record{
		record("a", "the and of"),
		record("b", "is was were"),
	}

	result, err := New(testConfig("hdbscan"), provider).Run(context.Background(), records)
	require.NoError(t, err)

	assert.NotEqual(t, model.Noise, result.Records[0].ClusterID)
	assert.Equal(t, result.Records[0].ClusterID, result.Records[1].ClusterID)
	assert.Empty(t, result.Summaries)
	require.NotEmpty(t, result.Warnings)
	assert.Contains(t, result.Warnings[0], "no usable vocabulary")
}

func TestRun_UnknownAlgorithm(t *testing.T) {
	records := []model.Record{record("a", "text")}
	_, err := New(testConfig("kmeans"), &mapProvider{dim: 2}).Run(context.Background(), records)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown algorithm")
}

func TestRun_RecordOrderPreserved(t *testing.T) {
	provider := &mapProvider{
		dim: 2,
		vectors: map[string][]float64{
			"granite boulder": {0, 0},
			"granite outcrop": {0.1, 0},
			"granite erratic": {0.05, 0.08},
		},
	}
	records := []model.Record{
		record("first", "granite boulder"),
		record("second", "granite outcrop"),
		record("third", "granite erratic"),
	}

	result, err := New(testConfig("hdbscan"), provider).Run(context.Background(), records)
	require.NoError(t, err)
	require.Len(t, result.Records, 3)
	assert.Equal(t, "first", result.Records[0].ID)
	assert.Equal(t, "second", result.Records[1].ID)
	assert.Equal(t, "third", result.Records[2].ID)
}
