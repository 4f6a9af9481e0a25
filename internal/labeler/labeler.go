// Package labeler derives the representative term list for each cluster from
// its members' cleaned text. Every cluster is scored as its own corpus: term
// frequencies and inverse document frequencies are computed over that
// cluster's documents only.
package labeler

import (
	"math"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/sells-group/geocluster/internal/model"
)

// DefaultTopN is the default number of terms per cluster summary.
const DefaultTopN = 10

// TopTerms builds a ClusterSummary per distinct cluster id with at least one
// member whose cleaned text is non-empty, noise included. Clusters whose
// members all normalized to empty text receive no summary and raise no error.
func TopTerms(records []model.ClusteredRecord, topN int) map[int]model.ClusterSummary {
	if topN <= 0 {
		topN = DefaultTopN
	}

	docs := make(map[int][]string)
	members := make(map[int]int)
	for _, r := range records {
		members[r.ClusterID]++
		if r.CleanedText != "" {
			docs[r.ClusterID] = append(docs[r.ClusterID], r.CleanedText)
		}
	}

	summaries := make(map[int]model.ClusterSummary, len(docs))
	for id, clusterDocs := range docs {
		terms := rankTerms(clusterDocs, topN)
		if len(terms) == 0 {
			continue
		}
		summaries[id] = model.ClusterSummary{
			ClusterID:   id,
			TopTerms:    terms,
			MemberCount: members[id],
		}
	}

	for id, count := range members {
		if _, ok := summaries[id]; !ok {
			zap.L().Warn("labeler: cluster has no usable vocabulary",
				zap.Int("cluster_id", id),
				zap.Int("members", count),
			)
		}
	}
	return summaries
}

// rankTerms scores the cluster's vocabulary by mean tf-idf over its documents
// and returns up to topN terms, ties broken by ascending lexicographic order.
func rankTerms(docs []string, topN int) []string {
	stop := vectorizerStopwords()

	tokenized := make([][]string, 0, len(docs))
	df := make(map[string]int)
	for _, doc := range docs {
		var toks []string
		seen := make(map[string]struct{})
		for _, tok := range strings.Fields(doc) {
			if _, isStop := stop[tok]; isStop {
				continue
			}
			toks = append(toks, tok)
			if _, ok := seen[tok]; ok {
				continue
			}
			seen[tok] = struct{}{}
			df[tok]++
		}
		tokenized = append(tokenized, toks)
	}
	if len(df) == 0 {
		return nil
	}

	// Smoothed IDF over this cluster's documents only.
	n := float64(len(tokenized))
	idf := make(map[string]float64, len(df))
	for term, count := range df {
		idf[term] = math.Log((1+n)/(1+float64(count))) + 1
	}

	// Mean of the L2-normalized tf-idf rows.
	scores := make(map[string]float64, len(df))
	for _, toks := range tokenized {
		if len(toks) == 0 {
			continue
		}
		tf := make(map[string]float64)
		for _, tok := range toks {
			tf[tok]++
		}
		var norm float64
		for term, count := range tf {
			w := count * idf[term]
			tf[term] = w
			norm += w * w
		}
		norm = math.Sqrt(norm)
		for term, w := range tf {
			scores[term] += w / norm / n
		}
	}

	terms := make([]string, 0, len(scores))
	for term := range scores {
		terms = append(terms, term)
	}
	sort.Slice(terms, func(i, j int) bool {
		if scores[terms[i]] != scores[terms[j]] {
			return scores[terms[i]] > scores[terms[j]]
		}
		return terms[i] < terms[j]
	})

	if len(terms) > topN {
		terms = terms[:topN]
	}
	return terms
}
