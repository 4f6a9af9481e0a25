package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestLoadDefaults(t *testing.T) {
	// Change to temp dir so no config.yaml is found
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) })

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "id", cfg.Ingest.IDColumn)
	assert.Equal(t, "description", cfg.Ingest.DescriptionColumn)
	assert.Equal(t, "latitude", cfg.Ingest.LatitudeColumn)
	assert.Equal(t, "longitude", cfg.Ingest.LongitudeColumn)
	assert.Equal(t, "https://api.openai.com/v1", cfg.Embed.BaseURL)
	assert.Equal(t, "text-embedding-3-small", cfg.Embed.Model)
	assert.Equal(t, 64, cfg.Embed.BatchSize)
	assert.Equal(t, 4, cfg.Embed.Concurrency)
	assert.Equal(t, "hdbscan", cfg.Cluster.Algorithm)
	assert.Equal(t, 2, cfg.Cluster.MinClusterSize)
	assert.Equal(t, 2, cfg.Cluster.MinSamples)
	assert.InDelta(t, 0.875, cfg.Cluster.Eps, 0.0001)
	assert.Equal(t, "euclidean", cfg.Cluster.Metric)
	assert.Equal(t, 2, cfg.Cluster.ReducedDimensions)
	assert.Equal(t, int64(42), cfg.Cluster.RandomSeed)
	assert.Equal(t, 10, cfg.Label.TopNTerms)
	assert.Equal(t, "geocluster.db", cfg.Store.Path)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
}

func TestLoadFromYAML(t *testing.T) {
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) })

	yaml := `
cluster:
  algorithm: dbscan
  eps: 0.5
log:
  level: debug
  format: console
server:
  port: 9090
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0644))

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "dbscan", cfg.Cluster.Algorithm)
	assert.InDelta(t, 0.5, cfg.Cluster.Eps, 0.0001)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "console", cfg.Log.Format)
	assert.Equal(t, 9090, cfg.Server.Port)
	// Defaults still apply for unset values
	assert.Equal(t, 2, cfg.Cluster.MinSamples)
	assert.Equal(t, 10, cfg.Label.TopNTerms)
}

func TestLoadEnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) })

	yaml := `
cluster:
  algorithm: dbscan
log:
  level: debug
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0644))

	t.Setenv("GEOCLUSTER_CLUSTER_ALGORITHM", "hdbscan")
	t.Setenv("GEOCLUSTER_LOG_LEVEL", "warn")

	cfg, err := Load()
	require.NoError(t, err)

	// Env overrides file
	assert.Equal(t, "hdbscan", cfg.Cluster.Algorithm)
	assert.Equal(t, "warn", cfg.Log.Level)
}

func TestLoadEnvOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) })

	t.Setenv("GEOCLUSTER_SERVER_PORT", "3000")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 3000, cfg.Server.Port)
}

// validRun returns a Config that passes run-mode validation.
func validRun() *Config {
	return &Config{
		Embed: EmbedConfig{Key: "sk-test", BatchSize: 64, Concurrency: 4},
		Cluster: ClusterConfig{
			Algorithm:         "hdbscan",
			MinClusterSize:    2,
			MinSamples:        2,
			Eps:               0.875,
			ReducedDimensions: 2,
		},
		Label:  LabelConfig{TopNTerms: 10},
		Server: ServerConfig{Port: 8080},
	}
}

func TestValidateRun_AllPresent(t *testing.T) {
	assert.NoError(t, validRun().Validate("run"))
}

func TestValidateRun_MissingKey(t *testing.T) {
	cfg := validRun()
	cfg.Embed.Key = ""

	err := cfg.Validate("run")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "embed.key is required")
}

func TestValidateRun_BadAlgorithm(t *testing.T) {
	cfg := validRun()
	cfg.Cluster.Algorithm = "kmeans"

	err := cfg.Validate("run")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cluster.algorithm")
}

func TestValidateRun_HDBSCANBounds(t *testing.T) {
	cfg := validRun()
	cfg.Cluster.MinClusterSize = 1

	err := cfg.Validate("run")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "min_cluster_size")
}

func TestValidateRun_DBSCANBounds(t *testing.T) {
	cfg := validRun()
	cfg.Cluster.Algorithm = "dbscan"
	cfg.Cluster.Eps = 0
	cfg.Cluster.ReducedDimensions = 0

	err := cfg.Validate("run")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cluster.eps must be > 0")
	assert.Contains(t, err.Error(), "reduced_dimensions")
}

func TestValidateRun_CollectsAllProblems(t *testing.T) {
	cfg := validRun()
	cfg.Embed.Key = ""
	cfg.Embed.BatchSize = 0
	cfg.Label.TopNTerms = 0

	err := cfg.Validate("run")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "embed.key")
	assert.Contains(t, err.Error(), "batch_size")
	assert.Contains(t, err.Error(), "top_n_terms")
}

func TestValidateServe_InvalidPort(t *testing.T) {
	cfg := validRun()
	cfg.Server.Port = 0

	err := cfg.Validate("serve")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "server.port")
}

func TestValidateUnknownMode(t *testing.T) {
	err := validRun().Validate("unknown")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown mode")
}

func TestInitLoggerConsole(t *testing.T) {
	err := InitLogger(LogConfig{Level: "debug", Format: "console"})
	require.NoError(t, err)
	assert.NotNil(t, zap.L())
}

func TestInitLoggerJSON(t *testing.T) {
	err := InitLogger(LogConfig{Level: "info", Format: "json"})
	require.NoError(t, err)
	assert.NotNil(t, zap.L())
}

func TestInitLoggerInvalidLevel(t *testing.T) {
	err := InitLogger(LogConfig{Level: "invalid", Format: "json"})
	assert.Error(t, err)
}
