package iforest

import (
	"math"

	"github.com/go-sod/vtml/pkg/math/rng"
	"github.com/go-sod/vtml/pkg/math/vector"
	"github.com/valyala/fastrand"
)

const (
	leaf       int32 = -1
	eulerGamma       = 0.5772156649015329
)

// node is one split or leaf of a flattened isolation tree. Children are
// indices into tree.Nodes; Left == leaf marks a leaf holding Size samples.
type node struct {
	Feature   int32
	Threshold float64
	Left      int32
	Right     int32
	Size      int64
}

type tree struct {
	Nodes []node
}

func grow(data vector.Matrix, idx []int, maxDepth int, r *fastrand.RNG) tree {
	t := tree{Nodes: make([]node, 0, 2*len(idx))}
	t.split(data, idx, 0, maxDepth, r)
	return t
}

func (t *tree) split(data vector.Matrix, idx []int, depth, maxDepth int, r *fastrand.RNG) int32 {
	pos := int32(len(t.Nodes))
	t.Nodes = append(t.Nodes, node{Left: leaf, Right: leaf, Size: int64(len(idx))})
	if depth >= maxDepth || len(idx) <= 1 {
		return pos
	}

	// only features that still vary inside this node can isolate anything
	var (
		candidates []int
		lows       []float64
		highs      []float64
	)
	for j := 0; j < data.Cols(); j++ {
		lo, hi := math.Inf(1), math.Inf(-1)
		for _, i := range idx {
			v := data[i][j]
			if v < lo {
				lo = v
			}
			if v > hi {
				hi = v
			}
		}
		if hi > lo {
			candidates = append(candidates, j)
			lows = append(lows, lo)
			highs = append(highs, hi)
		}
	}
	if len(candidates) == 0 {
		return pos
	}

	c := rng.Intn(r, len(candidates))
	feature := candidates[c]
	threshold := lows[c] + rng.Float64(r)*(highs[c]-lows[c])

	n := 0
	for k := range idx {
		if data[idx[k]][feature] < threshold {
			idx[n], idx[k] = idx[k], idx[n]
			n++
		}
	}
	if n == 0 || n == len(idx) {
		return pos
	}

	left := t.split(data, idx[:n], depth+1, maxDepth, r)
	right := t.split(data, idx[n:], depth+1, maxDepth, r)
	t.Nodes[pos].Feature = int32(feature)
	t.Nodes[pos].Threshold = threshold
	t.Nodes[pos].Left = left
	t.Nodes[pos].Right = right
	return pos
}

// pathLength is the depth at which x lands plus the expected remaining depth of
// the unsplit samples sharing its leaf.
func (t tree) pathLength(x []float64) float64 {
	var depth float64
	pos := int32(0)
	for {
		n := t.Nodes[pos]
		if n.Left == leaf {
			return depth + averagePathLength(n.Size)
		}
		if x[n.Feature] < n.Threshold {
			pos = n.Left
		} else {
			pos = n.Right
		}
		depth++
	}
}

// averagePathLength is c(n), the mean path length of an unsuccessful search in
// a binary search tree of n samples.
func averagePathLength(n int64) float64 {
	switch {
	case n <= 1:
		return 0
	case n == 2:
		return 1
	default:
		return 2*(math.Log(float64(n-1))+eulerGamma) - 2*float64(n-1)/float64(n)
	}
}
