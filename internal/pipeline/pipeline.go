// Package pipeline orchestrates the clustering stages: validate, normalize,
// embed, optionally reduce, cluster, label and color.
package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/geocluster/internal/cluster"
	"github.com/sells-group/geocluster/internal/config"
	"github.com/sells-group/geocluster/internal/embed"
	"github.com/sells-group/geocluster/internal/labeler"
	"github.com/sells-group/geocluster/internal/model"
	"github.com/sells-group/geocluster/internal/normalize"
	"github.com/sells-group/geocluster/internal/palette"
	"github.com/sells-group/geocluster/internal/reduce"
)

// Pipeline runs the full clustering flow over a batch of records.
type Pipeline struct {
	cfg      *config.Config
	provider embed.Provider
	norm     *normalize.Normalizer
}

// New creates a Pipeline with its embedding provider.
func New(cfg *config.Config, provider embed.Provider) *Pipeline {
	return &Pipeline{
		cfg:      cfg,
		provider: provider,
		norm:     normalize.New(),
	}
}

// Result is the complete output of one run.
type Result struct {
	RunID     string                       `json:"run_id"`
	Algorithm string                       `json:"algorithm"`
	CreatedAt time.Time                    `json:"created_at"`
	Records   []model.ClusteredRecord      `json:"records"`
	Summaries map[int]model.ClusterSummary `json:"summaries"`
	Colors    map[int]string               `json:"colors"`
	Warnings  []string                     `json:"warnings,omitempty"`
}

// ClusterCount returns the number of non-noise clusters.
func (r *Result) ClusterCount() int {
	count := 0
	for id := range r.Summaries {
		if id != model.Noise {
			count++
		}
	}
	return count
}

// Run executes every stage in order. Invalid records abort the run before any
// provider call; degenerate inputs produce warnings, not errors.
func (p *Pipeline) Run(ctx context.Context, records []model.Record) (*Result, error) {
	log := zap.L().With(zap.String("algorithm", p.cfg.Cluster.Algorithm))
	log.Info("pipeline: starting run", zap.Int("records", len(records)))

	result := &Result{
		RunID:     uuid.New().String(),
		Algorithm: p.cfg.Cluster.Algorithm,
		CreatedAt: time.Now().UTC(),
	}

	for _, r := range records {
		if err := r.Validate(); err != nil {
			return nil, eris.Wrap(err, "pipeline: validate input")
		}
	}

	if len(records) == 0 {
		result.Warnings = append(result.Warnings, "input is empty; nothing to cluster")
		result.Summaries = map[int]model.ClusterSummary{}
		result.Colors = map[int]string{}
		return result, nil
	}

	// Normalize.
	normalized := make([]model.NormalizedRecord, len(records))
	texts := make([]string, len(records))
	for i, r := range records {
		cleaned := p.norm.Normalize(r.Description)
		normalized[i] = model.NormalizedRecord{Record: r, CleanedText: cleaned}
		texts[i] = cleaned
	}
	log.Debug("pipeline: normalized", zap.Int("records", len(normalized)))

	// Embed. Empty cleaned text is embedded as-is so positions stay aligned.
	vectors, err := embed.Batch(ctx, p.provider, texts, p.cfg.Embed.BatchSize, p.cfg.Embed.Concurrency)
	if err != nil {
		return nil, eris.Wrap(err, "pipeline: embed")
	}

	embedded := make([]model.EmbeddedRecord, len(normalized))
	for i, n := range normalized {
		embedded[i] = model.EmbeddedRecord{NormalizedRecord: n, Vector: vectors[i]}
	}

	// Reduce and cluster.
	labels, warnings, err := p.clusterVectors(vectors)
	if err != nil {
		return nil, err
	}
	result.Warnings = append(result.Warnings, warnings...)

	result.Records = make([]model.ClusteredRecord, len(embedded))
	for i, e := range embedded {
		result.Records[i] = model.ClusteredRecord{EmbeddedRecord: e, ClusterID: labels[i]}
	}

	// Label and color.
	result.Summaries = labeler.TopTerms(result.Records, p.cfg.Label.TopNTerms)
	result.Colors = palette.Assign(labels)

	for id, count := range memberCounts(labels) {
		if _, ok := result.Summaries[id]; !ok {
			result.Warnings = append(result.Warnings,
				fmt.Sprintf("cluster %d has no usable vocabulary (%d members)", id, count))
		}
	}

	log.Info("pipeline: run complete",
		zap.String("run_id", result.RunID),
		zap.Int("records", len(result.Records)),
		zap.Int("clusters", result.ClusterCount()),
		zap.Int("warnings", len(result.Warnings)),
	)
	return result, nil
}

// clusterVectors applies the configured algorithm, reducing dimensionality
// first for the fixed-radius variant.
func (p *Pipeline) clusterVectors(vectors [][]float64) ([]int, []string, error) {
	var warnings []string
	cfg := p.cfg.Cluster

	var clusterer cluster.Clusterer
	switch cfg.Algorithm {
	case "hdbscan":
		if n := len(vectors); n < cfg.MinClusterSize || n < cfg.MinSamples {
			warnings = append(warnings,
				fmt.Sprintf("only %d records for min_cluster_size %d / min_samples %d; all points are noise", n, cfg.MinClusterSize, cfg.MinSamples))
		}
		clusterer = cluster.NewHDBSCAN(cfg.MinClusterSize, cfg.MinSamples, cluster.Metric(cfg.Metric))

	case "dbscan":
		if len(vectors) < cfg.MinSamples {
			warnings = append(warnings,
				fmt.Sprintf("only %d records for min_samples %d; all points are noise", len(vectors), cfg.MinSamples))
		}
		if len(vectors) > 0 && cfg.ReducedDimensions < len(vectors[0]) {
			reduced, err := reduce.NewPCA(cfg.ReducedDimensions, cfg.RandomSeed).Reduce(vectors)
			if err != nil {
				return nil, nil, eris.Wrap(err, "pipeline: reduce")
			}
			vectors = reduced
		} else if len(vectors) > 0 {
			warnings = append(warnings,
				fmt.Sprintf("embedding dimension %d not above reduced_dimensions %d; skipping reduction", len(vectors[0]), cfg.ReducedDimensions))
		}
		clusterer = cluster.NewDBSCAN(cfg.Eps, cfg.MinSamples, cluster.Metric(cfg.Metric))

	default:
		return nil, nil, eris.Errorf("pipeline: unknown algorithm %q", cfg.Algorithm)
	}

	labels, err := clusterer.Cluster(vectors)
	if err != nil {
		return nil, nil, eris.Wrap(err, "pipeline: cluster")
	}
	return labels, warnings, nil
}

func memberCounts(labels []int) map[int]int {
	counts := make(map[int]int)
	for _, id := range labels {
		counts[id]++
	}
	return counts
}
