package main

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/sells-group/geocluster/internal/embed"
	"github.com/sells-group/geocluster/internal/ingest"
	"github.com/sells-group/geocluster/internal/mapview"
	"github.com/sells-group/geocluster/internal/model"
	"github.com/sells-group/geocluster/internal/pipeline"
	"github.com/sells-group/geocluster/internal/store"
	"github.com/sells-group/geocluster/pkg/openai"
)

var (
	runInput     string
	runOutput    string
	runGeoJSON   string
	runSummary   string
	runAlgorithm string
	runLimit     int
	runDryRun    bool
	runArchive   bool
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Cluster a geotagged dataset and write the map",
	Long: `Reads geotagged records from a CSV, XLSX or shapefile source, runs the
full clustering pipeline and writes the interactive HTML map.

Examples:
  # Dry run — parse and print records, no API calls
  geocluster run --input points.csv --dry-run

  # Full run with map, GeoJSON and YAML summary
  geocluster run --input points.csv --output map.html --geojson points.geojson --summary clusters.yaml

  # Density-based variant on reduced embeddings
  geocluster run --input points.shp --algorithm dbscan`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		records, err := ingest.Load(ctx, runInput, ingest.Columns{
			ID:          cfg.Ingest.IDColumn,
			Description: cfg.Ingest.DescriptionColumn,
			Latitude:    cfg.Ingest.LatitudeColumn,
			Longitude:   cfg.Ingest.LongitudeColumn,
		})
		if err != nil {
			return eris.Wrap(err, "run: load input")
		}

		if runLimit > 0 && runLimit < len(records) {
			records = records[:runLimit]
		}

		if runDryRun {
			return printRecordsJSON(records)
		}

		if runAlgorithm != "" {
			cfg.Cluster.Algorithm = runAlgorithm
		}
		if err := cfg.Validate("run"); err != nil {
			return err
		}

		client := openai.NewClient(cfg.Embed.Key, cfg.Embed.Model,
			openai.WithBaseURL(cfg.Embed.BaseURL),
			openai.WithRateLimit(cfg.Embed.RateLimitRPS),
		)
		pipe := pipeline.New(cfg, embed.NewOpenAIProvider(client))

		result, err := pipe.Run(ctx, records)
		if err != nil {
			return err
		}
		for _, warning := range result.Warnings {
			zap.L().Warn("run: " + warning)
		}

		if err := writeArtifacts(result); err != nil {
			return err
		}

		if runArchive {
			if err := archiveRun(cmd, result); err != nil {
				return err
			}
		}

		printReport(result)
		return nil
	},
}

func init() {
	runCmd.Flags().StringVar(&runInput, "input", "", "path to CSV, XLSX or shapefile input (required)")
	runCmd.Flags().StringVar(&runOutput, "output", "map.html", "write interactive HTML map to this path (empty = skip)")
	runCmd.Flags().StringVar(&runGeoJSON, "geojson", "", "write GeoJSON FeatureCollection to this path")
	runCmd.Flags().StringVar(&runSummary, "summary", "", "write YAML cluster summaries to this path")
	runCmd.Flags().StringVar(&runAlgorithm, "algorithm", "", "override cluster.algorithm (hdbscan or dbscan)")
	runCmd.Flags().IntVar(&runLimit, "limit", 0, "max records to process (0 = all)")
	runCmd.Flags().BoolVar(&runDryRun, "dry-run", false, "parse input and print records, skip pipeline")
	runCmd.Flags().BoolVar(&runArchive, "archive", false, "save the run to the SQLite archive")
	_ = runCmd.MarkFlagRequired("input")
	rootCmd.AddCommand(runCmd)
}

// writeArtifacts writes the map, GeoJSON and summary outputs that were
// requested by flags.
func writeArtifacts(result *pipeline.Result) error {
	if runOutput != "" {
		f, err := os.Create(runOutput)
		if err != nil {
			return eris.Wrap(err, "run: create map file")
		}
		renderErr := mapview.Render(f, cfg.Map.Title, result.Records, result.Summaries, result.Colors)
		closeErr := f.Close()
		if renderErr != nil {
			return renderErr
		}
		if closeErr != nil {
			return eris.Wrap(closeErr, "run: close map file")
		}
		zap.L().Info("run: map written", zap.String("path", runOutput))
	}

	if runGeoJSON != "" {
		data, err := mapview.GeoJSON(result.Records, result.Summaries, result.Colors)
		if err != nil {
			return err
		}
		if err := os.WriteFile(runGeoJSON, data, 0o644); err != nil {
			return eris.Wrap(err, "run: write geojson")
		}
		zap.L().Info("run: geojson written", zap.String("path", runGeoJSON))
	}

	if runSummary != "" {
		data, err := yaml.Marshal(sortedSummaries(result))
		if err != nil {
			return eris.Wrap(err, "run: marshal summaries")
		}
		if err := os.WriteFile(runSummary, data, 0o644); err != nil {
			return eris.Wrap(err, "run: write summaries")
		}
		zap.L().Info("run: summaries written", zap.String("path", runSummary))
	}

	return nil
}

// archiveRun persists the run to the configured SQLite database.
func archiveRun(cmd *cobra.Command, result *pipeline.Result) error {
	st, err := store.NewSQLite(cfg.Store.Path)
	if err != nil {
		return eris.Wrap(err, "run: open archive")
	}
	defer func() { _ = st.Close() }()

	ctx := cmd.Context()
	if err := st.Migrate(ctx); err != nil {
		return eris.Wrap(err, "run: migrate archive")
	}

	err = st.SaveRun(ctx, store.RunDetail{
		Run: store.Run{
			ID:           result.RunID,
			Algorithm:    result.Algorithm,
			RecordCount:  len(result.Records),
			ClusterCount: result.ClusterCount(),
			CreatedAt:    result.CreatedAt,
		},
		Records:   result.Records,
		Summaries: result.Summaries,
		Colors:    result.Colors,
	})
	if err != nil {
		return eris.Wrap(err, "run: archive run")
	}
	zap.L().Info("run: archived", zap.String("run_id", result.RunID), zap.String("path", cfg.Store.Path))
	return nil
}

// printReport writes one line per summarized cluster to stdout, ascending by
// cluster id, noise first.
func printReport(result *pipeline.Result) {
	for _, s := range sortedSummaries(result) {
		fmt.Printf("%d: %s\n", s.ClusterID, strings.Join(s.TopTerms, ", "))
	}
}

func sortedSummaries(result *pipeline.Result) []model.ClusterSummary {
	out := make([]model.ClusterSummary, 0, len(result.Summaries))
	for _, s := range result.Summaries {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ClusterID < out[j].ClusterID })
	return out
}

// printRecordsJSON prints parsed records as indented JSON.
func printRecordsJSON(records []model.Record) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(records)
}
