// Package reduce projects high-dimensional embedding vectors into a
// low-dimensional space for the fixed-radius clustering variant.
package reduce

import (
	"math"
	"math/rand"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"gonum.org/v1/gonum/mat"
)

// PCA reduces vectors to Components principal directions via mean centering
// and seeded power iteration with deflation. Point order and count are
// preserved. For identical input and Seed the output is identical; with
// Seed <= 0 the iteration is time-seeded and runs are not reproducible.
type PCA struct {
	Components int
	Seed       int64
}

// NewPCA returns a reducer targeting d output dimensions.
func NewPCA(d int, seed int64) *PCA {
	return &PCA{Components: d, Seed: seed}
}

const (
	powerIterations = 200
	convergenceTol  = 1e-9
)

// Reduce projects vectors into the Components-dimensional space spanned by
// the top principal directions of the centered data.
func (p *PCA) Reduce(vectors [][]float64) ([][]float64, error) {
	if p.Components < 1 {
		return nil, eris.Errorf("reduce: components must be >= 1, got %d", p.Components)
	}
	n := len(vectors)
	if n == 0 {
		return nil, nil
	}
	dim := len(vectors[0])
	for i, v := range vectors {
		if len(v) != dim {
			return nil, eris.Errorf("reduce: vector %d has dimension %d, want %d", i, len(v), dim)
		}
	}
	if p.Components >= dim {
		return nil, eris.Errorf("reduce: components %d must be smaller than input dimension %d", p.Components, dim)
	}

	seed := p.Seed
	if seed <= 0 {
		seed = time.Now().UnixNano()
	}
	rng := rand.New(rand.NewSource(seed))

	// Center the data.
	centered := mat.NewDense(n, dim, nil)
	means := make([]float64, dim)
	for _, v := range vectors {
		for j, x := range v {
			means[j] += x
		}
	}
	for j := range means {
		means[j] /= float64(n)
	}
	for i, v := range vectors {
		for j, x := range v {
			centered.Set(i, j, x-means[j])
		}
	}

	// Covariance (up to the 1/(n-1) factor, which does not change the
	// principal directions).
	var cov mat.Dense
	cov.Mul(centered.T(), centered)

	components := mat.NewDense(dim, p.Components, nil)
	for c := 0; c < p.Components; c++ {
		v := powerIterate(&cov, rng)
		// Fix the sign so equivalent runs agree on direction.
		orientPrincipal(v)
		components.SetCol(c, v)
		deflate(&cov, v)
	}

	var projected mat.Dense
	projected.Mul(centered, components)

	out := make([][]float64, n)
	for i := range out {
		row := make([]float64, p.Components)
		for j := range row {
			row[j] = projected.At(i, j)
		}
		out[i] = row
	}

	zap.L().Debug("reduce: pca complete",
		zap.Int("points", n),
		zap.Int("from", dim),
		zap.Int("to", p.Components),
	)
	return out, nil
}

// powerIterate finds the dominant eigenvector of cov.
func powerIterate(cov *mat.Dense, rng *rand.Rand) []float64 {
	dim, _ := cov.Dims()
	v := make([]float64, dim)
	for i := range v {
		v[i] = rng.NormFloat64()
	}
	normalize(v)

	cur := mat.NewVecDense(dim, v)
	next := mat.NewVecDense(dim, nil)
	for iter := 0; iter < powerIterations; iter++ {
		next.MulVec(cov, cur)
		raw := next.RawVector().Data
		if norm(raw) == 0 {
			// Degenerate direction (all remaining variance deflated).
			break
		}
		normalize(raw)
		if math.Abs(dot(raw, cur.RawVector().Data)) > 1-convergenceTol {
			copy(cur.RawVector().Data, raw)
			break
		}
		cur, next = next, cur
	}

	out := make([]float64, dim)
	copy(out, cur.RawVector().Data)
	return out
}

// deflate removes the component along v from cov: cov -= lambda * v v^T.
func deflate(cov *mat.Dense, v []float64) {
	dim, _ := cov.Dims()
	vec := mat.NewVecDense(dim, v)
	tmp := mat.NewVecDense(dim, nil)
	tmp.MulVec(cov, vec)
	lambda := mat.Dot(vec, tmp)

	var outer mat.Dense
	outer.Outer(lambda, vec, vec)
	cov.Sub(cov, &outer)
}

// orientPrincipal makes the largest-magnitude entry positive.
func orientPrincipal(v []float64) {
	maxIdx := 0
	for i, x := range v {
		if math.Abs(x) > math.Abs(v[maxIdx]) {
			maxIdx = i
		}
	}
	if v[maxIdx] < 0 {
		for i := range v {
			v[i] = -v[i]
		}
	}
}

func dot(a, b []float64) float64 {
	var s float64
	for i := range a {
		s += a[i] * b[i]
	}
	return s
}

func norm(v []float64) float64 {
	return math.Sqrt(dot(v, v))
}

func normalize(v []float64) {
	n := norm(v)
	if n == 0 {
		return
	}
	for i := range v {
		v[i] /= n
	}
}
