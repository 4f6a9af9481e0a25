package embed

import (
	"context"
	"sync/atomic"
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// indexProvider embeds each text as a vector derived from its global sequence
// within the batch it receives, so merge order is observable.
type indexProvider struct {
	calls atomic.Int64
}

func (p *indexProvider) Embed(_ context.Context, texts []string) ([][]float64, error) {
	p.calls.Add(1)
	out := make([][]float64, len(texts))
	for i, t := range texts {
		out[i] = []float64{float64(len(t)), float64(i)}
	}
	return out, nil
}

type failingProvider struct{}

func (failingProvider) Embed(context.Context, []string) ([][]float64, error) {
	return nil, eris.New("provider down")
}

type shortProvider struct{}

func (shortProvider) Embed(_ context.Context, texts []string) ([][]float64, error) {
	return make([][]float64, len(texts)-1), nil
}

type raggedProvider struct{}

func (raggedProvider) Embed(_ context.Context, texts []string) ([][]float64, error) {
	out := make([][]float64, len(texts))
	for i := range texts {
		out[i] = make([]float64, 2+i%2)
	}
	return out, nil
}

func TestBatch_MergesInInputOrder(t *testing.T) {
	p := &indexProvider{}
	texts := []string{"a", "bb", "ccc", "dddd", "eeeee"}

	vectors, err := Batch(context.Background(), p, texts, 2, 3)
	require.NoError(t, err)
	require.Len(t, vectors, 5)
	// Three batches of at most 2.
	assert.Equal(t, int64(3), p.calls.Load())
	// First component is the text length, preserved in input order.
	for i, text := range texts {
		assert.Equal(t, float64(len(text)), vectors[i][0], "position %d", i)
	}
}

func TestBatch_SingleBatch(t *testing.T) {
	p := &indexProvider{}
	vectors, err := Batch(context.Background(), p, []string{"x", "y"}, 64, 4)
	require.NoError(t, err)
	assert.Len(t, vectors, 2)
	assert.Equal(t, int64(1), p.calls.Load())
}

func TestBatch_Empty(t *testing.T) {
	vectors, err := Batch(context.Background(), &indexProvider{}, nil, 64, 4)
	assert.NoError(t, err)
	assert.Nil(t, vectors)
}

func TestBatch_ProviderFailureIsFatal(t *testing.T) {
	_, err := Batch(context.Background(), failingProvider{}, []string{"a"}, 64, 1)
	assert.ErrorContains(t, err, "provider down")
}

func TestBatch_LengthMismatchIsFatal(t *testing.T) {
	_, err := Batch(context.Background(), shortProvider{}, []string{"a", "b"}, 64, 1)
	assert.ErrorContains(t, err, "returned 1 vectors")
}

func TestBatch_DimensionMismatchIsFatal(t *testing.T) {
	_, err := Batch(context.Background(), raggedProvider{}, []string{"a", "b"}, 64, 1)
	assert.ErrorContains(t, err, "dimension")
}
