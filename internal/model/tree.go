package model

import (
	"math/rand"
	"sort"
)

// Criterion selects how a tree measures node impurity.
type Criterion int

const (
	// Gini treats the target as a 0/1 class label.
	Gini Criterion = iota
	// SquaredError treats the target as a continuous value.
	SquaredError
)

// Node is one entry of a flattened binary tree. Leaves have Feature -1.
type Node struct {
	Feature   int     `json:"f"`
	Threshold float64 `json:"t,omitempty"`
	Left      int     `json:"l,omitempty"`
	Right     int     `json:"r,omitempty"`
	Value     float64 `json:"v"`
}

// Tree is a fitted CART tree. A classification leaf holds P(churn); a
// regression leaf holds its prediction.
type Tree struct {
	Nodes []Node `json:"nodes"`
}

// Apply returns the index of the leaf x falls into.
func (t *Tree) Apply(x []float64) int {
	i := 0
	for t.Nodes[i].Feature >= 0 {
		n := t.Nodes[i]
		if x[n.Feature] <= n.Threshold {
			i = n.Left
		} else {
			i = n.Right
		}
	}
	return i
}

func (t *Tree) Predict(x []float64) float64 {
	return t.Nodes[t.Apply(x)].Value
}

type treeConfig struct {
	criterion       Criterion
	maxDepth        int
	minSamplesSplit int
	maxFeatures     int // 0 means every feature
}

type treeBuilder struct {
	cfg    treeConfig
	X      [][]float64
	target []float64
	weight []float64
	rng    *rand.Rand

	tree        Tree
	importances []float64
}

// growTree fits a tree on the rows listed in idx. Duplicate indices count as
// repeated samples. rng may be nil when maxFeatures is 0.
func growTree(cfg treeConfig, X [][]float64, target, weight []float64, idx []int, rng *rand.Rand) (Tree, []float64) {
	b := &treeBuilder{
		cfg:         cfg,
		X:           X,
		target:      target,
		weight:      weight,
		rng:         rng,
		importances: make([]float64, len(X[0])),
	}
	b.grow(idx, 0)
	return b.tree, b.importances
}

type sums struct {
	w, wt, wt2 float64
}

func (s *sums) add(w, t float64) {
	s.w += w
	s.wt += w * t
	s.wt2 += w * t * t
}

func (s sums) minus(o sums) sums {
	return sums{s.w - o.w, s.wt - o.wt, s.wt2 - o.wt2}
}

func (b *treeBuilder) impurity(s sums) float64 {
	if s.w <= 0 {
		return 0
	}
	mean := s.wt / s.w
	if b.cfg.criterion == Gini {
		return 2 * mean * (1 - mean)
	}
	v := s.wt2/s.w - mean*mean
	if v < 0 {
		return 0
	}
	return v
}

func (b *treeBuilder) grow(idx []int, depth int) int {
	var total sums
	for _, i := range idx {
		total.add(b.weight[i], b.target[i])
	}
	node := len(b.tree.Nodes)
	value := 0.0
	if total.w > 0 {
		value = total.wt / total.w
	}
	b.tree.Nodes = append(b.tree.Nodes, Node{Feature: -1, Value: value})

	imp := b.impurity(total)
	if depth >= b.cfg.maxDepth || len(idx) < b.cfg.minSamplesSplit || imp <= 1e-12 {
		return node
	}

	feat, thr, ok := b.bestSplit(idx, total, imp)
	if !ok {
		return node
	}

	var left, right []int
	var ls sums
	for _, i := range idx {
		if b.X[i][feat] <= thr {
			left = append(left, i)
			ls.add(b.weight[i], b.target[i])
		} else {
			right = append(right, i)
		}
	}
	rs := total.minus(ls)
	b.importances[feat] += total.w*imp - ls.w*b.impurity(ls) - rs.w*b.impurity(rs)

	l := b.grow(left, depth+1)
	r := b.grow(right, depth+1)
	b.tree.Nodes[node] = Node{Feature: feat, Threshold: thr, Left: l, Right: r, Value: value}
	return node
}

// bestSplit scans candidate features for the threshold with the lowest
// weighted child impurity. ok is false when no split lowers impurity.
func (b *treeBuilder) bestSplit(idx []int, total sums, imp float64) (feature int, thr float64, ok bool) {
	p := len(b.X[0])
	candidates := make([]int, p)
	for j := range candidates {
		candidates[j] = j
	}
	if b.cfg.maxFeatures > 0 && b.cfg.maxFeatures < p {
		b.rng.Shuffle(p, func(i, j int) { candidates[i], candidates[j] = candidates[j], candidates[i] })
		candidates = candidates[:b.cfg.maxFeatures]
	}

	best := total.w * imp
	order := make([]int, len(idx))
	for _, f := range candidates {
		copy(order, idx)
		sort.Slice(order, func(i, j int) bool { return b.X[order[i]][f] < b.X[order[j]][f] })

		var ls sums
		for k := 0; k < len(order)-1; k++ {
			i := order[k]
			ls.add(b.weight[i], b.target[i])
			cur, next := b.X[i][f], b.X[order[k+1]][f]
			if cur == next {
				continue
			}
			rs := total.minus(ls)
			score := ls.w*b.impurity(ls) + rs.w*b.impurity(rs)
			if score < best-1e-12 {
				best = score
				feature, thr, ok = f, cur+(next-cur)/2, true
			}
		}
	}
	return feature, thr, ok
}

// normalize scales xs to sum to 1, leaving an all-zero slice untouched.
func normalize(xs []float64) {
	s := 0.0
	for _, x := range xs {
		s += x
	}
	if s <= 0 {
		return
	}
	for i := range xs {
		xs[i] /= s
	}
}
