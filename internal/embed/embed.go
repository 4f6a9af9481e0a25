// Package embed defines the embedding provider boundary and the batch fan-out
// that feeds it. The provider is external; a failure here aborts the run.
package embed

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/geocluster/pkg/openai"
)

// Provider turns normalized texts into fixed-dimension vectors, one per input,
// in input order. Implementations must be deterministic for a fixed model
// identity within a run.
type Provider interface {
	Embed(ctx context.Context, texts []string) ([][]float64, error)
}

// OpenAIProvider adapts the OpenAI-compatible client to the Provider boundary.
type OpenAIProvider struct {
	client openai.Client
}

// NewOpenAIProvider wraps an embeddings client.
func NewOpenAIProvider(client openai.Client) *OpenAIProvider {
	return &OpenAIProvider{client: client}
}

// Embed implements Provider.
func (p *OpenAIProvider) Embed(ctx context.Context, texts []string) ([][]float64, error) {
	return p.client.Embeddings(ctx, texts)
}

// Batch embeds texts in slices of batchSize, running up to concurrency batches
// at once, and merges the results back in original input order. Any provider
// failure, length mismatch, or dimension mismatch is fatal; nothing is retried
// or cached here.
func Batch(ctx context.Context, p Provider, texts []string, batchSize, concurrency int) ([][]float64, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	if batchSize <= 0 {
		batchSize = 64
	}
	if concurrency <= 0 {
		concurrency = 1
	}

	vectors := make([][]float64, len(texts))

	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)

	for start := 0; start < len(texts); start += batchSize {
		end := min(start+batchSize, len(texts))
		g.Go(func() error {
			batch, err := p.Embed(gCtx, texts[start:end])
			if err != nil {
				return eris.Wrapf(err, "embed: batch [%d:%d]", start, end)
			}
			if len(batch) != end-start {
				return eris.Errorf("embed: batch [%d:%d] returned %d vectors", start, end, len(batch))
			}
			copy(vectors[start:end], batch)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	// The dimension is fixed by the provider for the whole run.
	dim := len(vectors[0])
	for i, v := range vectors {
		if len(v) != dim {
			return nil, eris.Errorf("embed: vector %d has dimension %d, want %d", i, len(v), dim)
		}
	}

	zap.L().Debug("embed: batches merged",
		zap.Int("texts", len(texts)),
		zap.Int("dimension", dim),
	)
	return vectors, nil
}
