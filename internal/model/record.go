// Package model defines the typed values flowing through the clustering
// pipeline. Each stage produces a new derived type instead of mutating a
// shared table, so ordering between stages is explicit.
package model

import (
	"math"

	"github.com/rotisserie/eris"
)

// Noise is the sentinel cluster id for points no stable cluster claimed.
const Noise = -1

// Record is one geotagged input row, immutable as given.
type Record struct {
	ID          string  `json:"id"`
	Description string  `json:"description"`
	Latitude    float64 `json:"latitude"`
	Longitude   float64 `json:"longitude"`
}

// Validate rejects records whose coordinates are missing or non-finite.
// An empty description is valid and treated as empty text.
func (r Record) Validate() error {
	if math.IsNaN(r.Latitude) || math.IsInf(r.Latitude, 0) {
		return eris.Errorf("model: record %s: latitude is not finite", r.ID)
	}
	if math.IsNaN(r.Longitude) || math.IsInf(r.Longitude, 0) {
		return eris.Errorf("model: record %s: longitude is not finite", r.ID)
	}
	return nil
}

// NormalizedRecord carries the cleaned text derived from Description.
type NormalizedRecord struct {
	Record
	CleanedText string `json:"cleaned_text"`
}

// EmbeddedRecord adds the embedding vector. Dimension is fixed per run.
type EmbeddedRecord struct {
	NormalizedRecord
	Vector []float64 `json:"-"`
}

// ClusteredRecord adds the cluster assignment. ClusterID is an opaque small
// non-negative integer, or Noise; only equality and the sentinel carry meaning.
type ClusteredRecord struct {
	EmbeddedRecord
	ClusterID int `json:"cluster_id"`
}

// ClusterSummary is the derived per-cluster term label.
type ClusterSummary struct {
	ClusterID   int      `json:"cluster_id" yaml:"cluster_id"`
	TopTerms    []string `json:"top_terms" yaml:"top_terms"`
	MemberCount int      `json:"member_count" yaml:"member_count"`
}
