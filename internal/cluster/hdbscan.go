package cluster

import (
	"math"
	"sort"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// lambdaCap bounds 1/distance for coincident points so stability arithmetic
// stays finite.
const lambdaCap = 1e12

// HDBSCAN clusters vectors in the native embedding space using hierarchical
// density-based clustering: mutual-reachability distances, a single-linkage
// hierarchy, and persistence-based cluster selection. Points outside every
// stable cluster are labeled Noise.
type HDBSCAN struct {
	MinClusterSize int
	MinSamples     int
	Metric         Metric
}

// NewHDBSCAN returns a clusterer with the given parameters.
func NewHDBSCAN(minClusterSize, minSamples int, metric Metric) *HDBSCAN {
	return &HDBSCAN{MinClusterSize: minClusterSize, MinSamples: minSamples, Metric: metric}
}

// Cluster implements Clusterer. With fewer points than MinClusterSize or
// MinSamples, every point is labeled Noise and no error is returned.
func (h *HDBSCAN) Cluster(vectors [][]float64) ([]int, error) {
	if h.MinClusterSize < 2 {
		return nil, eris.Errorf("cluster: min_cluster_size must be >= 2, got %d", h.MinClusterSize)
	}
	if h.MinSamples < 1 {
		return nil, eris.Errorf("cluster: min_samples must be >= 1, got %d", h.MinSamples)
	}
	dist, err := DistanceProvider(h.Metric)
	if err != nil {
		return nil, err
	}

	n := len(vectors)
	labels := make([]int, n)
	if n < h.MinClusterSize || n < h.MinSamples {
		for i := range labels {
			labels[i] = Noise
		}
		return labels, nil
	}

	d := pairwiseDistances(vectors, dist)
	core := coreDistances(d, h.MinSamples)
	edges := mstEdges(d, core)
	tree := buildLinkageTree(n, edges)
	labels = tree.condenseAndSelect(h.MinClusterSize)

	zap.L().Debug("cluster: hdbscan complete",
		zap.Int("points", n),
		zap.Int("clusters", countClusters(labels)),
	)
	return labels, nil
}

func countClusters(labels []int) int {
	seen := map[int]struct{}{}
	for _, l := range labels {
		if l != Noise {
			seen[l] = struct{}{}
		}
	}
	return len(seen)
}

func pairwiseDistances(vectors [][]float64, dist DistanceFunc) [][]float64 {
	n := len(vectors)
	d := make([][]float64, n)
	for i := range d {
		d[i] = make([]float64, n)
	}
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			v := dist(vectors[i], vectors[j])
			d[i][j] = v
			d[j][i] = v
		}
	}
	return d
}

// coreDistances returns, per point, the distance to its minSamples-th nearest
// other point (clamped to the farthest neighbor when the dataset is small).
func coreDistances(d [][]float64, minSamples int) []float64 {
	n := len(d)
	k := minSamples
	if k > n-1 {
		k = n - 1
	}
	core := make([]float64, n)
	buf := make([]float64, 0, n-1)
	for i := 0; i < n; i++ {
		buf = buf[:0]
		for j := 0; j < n; j++ {
			if j != i {
				buf = append(buf, d[i][j])
			}
		}
		sort.Float64s(buf)
		core[i] = buf[k-1]
	}
	return core
}

type edge struct {
	u, v int
	w    float64
}

// mstEdges builds a minimum spanning tree over the mutual-reachability graph
// using Prim's algorithm on the dense distance matrix.
func mstEdges(d [][]float64, core []float64) []edge {
	n := len(d)
	inTree := make([]bool, n)
	bestDist := make([]float64, n)
	bestFrom := make([]int, n)
	for i := range bestDist {
		bestDist[i] = math.Inf(1)
		bestFrom[i] = -1
	}

	mreach := func(i, j int) float64 {
		return math.Max(d[i][j], math.Max(core[i], core[j]))
	}

	edges := make([]edge, 0, n-1)
	current := 0
	inTree[0] = true
	for len(edges) < n-1 {
		next := -1
		for j := 0; j < n; j++ {
			if inTree[j] {
				continue
			}
			if w := mreach(current, j); w < bestDist[j] {
				bestDist[j] = w
				bestFrom[j] = current
			}
			if next == -1 || bestDist[j] < bestDist[next] {
				next = j
			}
		}
		inTree[next] = true
		edges = append(edges, edge{u: bestFrom[next], v: next, w: bestDist[next]})
		current = next
	}

	sort.Slice(edges, func(i, j int) bool {
		if edges[i].w != edges[j].w {
			return edges[i].w < edges[j].w
		}
		if edges[i].u != edges[j].u {
			return edges[i].u < edges[j].u
		}
		return edges[i].v < edges[j].v
	})
	return edges
}

// linkageTree is the single-linkage merge hierarchy. Leaves are points
// 0..n-1; internal nodes n..2n-2 carry the merge distance.
type linkageTree struct {
	n         int
	left      []int // indexed by node-n for internal nodes
	right     []int
	mergeDist []float64
	size      []int // leaf count per node, all nodes
}

func buildLinkageTree(n int, edges []edge) *linkageTree {
	t := &linkageTree{
		n:         n,
		left:      make([]int, 0, n-1),
		right:     make([]int, 0, n-1),
		mergeDist: make([]float64, 0, n-1),
		size:      make([]int, n, 2*n-1),
	}
	for i := 0; i < n; i++ {
		t.size[i] = 1
	}

	parent := make([]int, 2*n-1)
	node := make([]int, 2*n-1) // current tree node per union-find root
	for i := range parent {
		parent[i] = i
		node[i] = i
	}
	var find func(int) int
	find = func(x int) int {
		for parent[x] != x {
			parent[x] = parent[parent[x]]
			x = parent[x]
		}
		return x
	}

	next := n
	for _, e := range edges {
		ru, rv := find(e.u), find(e.v)
		t.left = append(t.left, node[ru])
		t.right = append(t.right, node[rv])
		t.mergeDist = append(t.mergeDist, e.w)
		t.size = append(t.size, t.size[node[ru]]+t.size[node[rv]])
		parent[ru] = rv
		node[find(rv)] = next
		next++
	}
	return t
}

func (t *linkageTree) children(internal int) (int, int) {
	return t.left[internal-t.n], t.right[internal-t.n]
}

func (t *linkageTree) lambda(internal int) float64 {
	dist := t.mergeDist[internal-t.n]
	if dist < 1/lambdaCap {
		return lambdaCap
	}
	return 1 / dist
}

// leaves returns the leaf points under node, in ascending order.
func (t *linkageTree) leaves(nodeID int) []int {
	var out []int
	stack := []int{nodeID}
	for len(stack) > 0 {
		nd := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if nd < t.n {
			out = append(out, nd)
			continue
		}
		l, r := t.children(nd)
		stack = append(stack, l, r)
	}
	sort.Ints(out)
	return out
}

// condCluster is a node of the condensed tree.
type condCluster struct {
	birth     float64
	children  []int
	stability float64
	subtree   []int // all points under this cluster
}

// condenseAndSelect condenses the hierarchy at minClusterSize, scores every
// condensed cluster by its persistence, and selects clusters bottom-up by
// excess of mass. The root is only selectable when the hierarchy never split
// into two viable clusters or shed a viable remainder, i.e. the whole dataset
// is one clump.
func (t *linkageTree) condenseAndSelect(minClusterSize int) []int {
	root := 2*t.n - 2
	clusters := []*condCluster{{birth: 0}}

	type frame struct {
		node    int
		cluster int
	}
	stack := []frame{{node: root, cluster: 0}}

	for len(stack) > 0 {
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		node, c := f.node, clusters[f.cluster]
		c.subtree = t.leaves(node)

		l, r := t.children(node)
		lam := t.lambda(node)

		// Coincident points merge at the capped lambda; they are never
		// separated, so the node dissolves as one unit.
		if lam >= lambdaCap {
			c.stability += float64(t.size[node]) * (lam - c.birth)
			continue
		}

		bigL := t.size[l] >= minClusterSize
		bigR := t.size[r] >= minClusterSize

		switch {
		case bigL && bigR:
			// True split: both sides become clusters; every point of c
			// leaves it here.
			for _, child := range []int{l, r} {
				id := len(clusters)
				clusters = append(clusters, &condCluster{birth: lam})
				c.children = append(c.children, id)
				stack = append(stack, frame{node: child, cluster: id})
			}
			c.stability += float64(t.size[node]) * (lam - c.birth)
		case bigL || bigR:
			// One side falls out as noise candidates; the surviving side
			// becomes a child cluster so its denser core stays selectable
			// on its own persistence.
			big := l
			if bigR {
				big = r
			}
			id := len(clusters)
			clusters = append(clusters, &condCluster{birth: lam})
			c.children = append(c.children, id)
			stack = append(stack, frame{node: big, cluster: id})
			c.stability += float64(t.size[node]) * (lam - c.birth)
		default:
			// Both sides too small: the cluster dissolves here.
			c.stability += float64(t.size[node]) * (lam - c.birth)
		}
	}

	// Bottom-up excess-of-mass selection. Clusters are created parent-first,
	// so reverse creation order visits children before parents.
	selected := make([]bool, len(clusters))
	score := make([]float64, len(clusters))
	for i := len(clusters) - 1; i >= 0; i-- {
		c := clusters[i]
		var childScore float64
		for _, ch := range c.children {
			childScore += score[ch]
		}
		if len(c.children) == 0 || c.stability >= childScore {
			score[i] = c.stability
			selected[i] = true
		} else {
			score[i] = childScore
		}
	}
	if len(clusters[0].children) > 0 {
		selected[0] = false
	}

	// Top-down: the highest selected cluster on each path wins.
	labels := make([]int, t.n)
	for i := range labels {
		labels[i] = Noise
	}
	nextLabel := 0
	walk := []int{0}
	for len(walk) > 0 {
		id := walk[len(walk)-1]
		walk = walk[:len(walk)-1]
		if selected[id] {
			for _, p := range clusters[id].subtree {
				labels[p] = nextLabel
			}
			nextLabel++
			continue
		}
		// Descend in reverse so lower-indexed children are labeled first.
		for j := len(clusters[id].children) - 1; j >= 0; j-- {
			walk = append(walk, clusters[id].children[j])
		}
	}
	return labels
}
