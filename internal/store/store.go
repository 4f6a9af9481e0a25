// Package store archives clustering runs so earlier results can be listed
// and re-served without re-embedding.
package store

import (
	"context"
	"time"

	"github.com/sells-group/geocluster/internal/model"
)

// Run is one archived pipeline execution.
type Run struct {
	ID           string    `json:"id"`
	Algorithm    string    `json:"algorithm"`
	RecordCount  int       `json:"record_count"`
	ClusterCount int       `json:"cluster_count"`
	CreatedAt    time.Time `json:"created_at"`
}

// RunDetail is a run together with its points and cluster summaries.
type RunDetail struct {
	Run       Run                          `json:"run"`
	Records   []model.ClusteredRecord      `json:"records"`
	Summaries map[int]model.ClusterSummary `json:"summaries"`
	Colors    map[int]string               `json:"colors"`
}

// Store defines the persistence interface for run archival.
type Store interface {
	SaveRun(ctx context.Context, detail RunDetail) error
	GetRun(ctx context.Context, runID string) (*RunDetail, error)
	ListRuns(ctx context.Context, limit int) ([]Run, error)

	Migrate(ctx context.Context) error
	Close() error
}
