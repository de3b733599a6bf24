package model

import (
	"fmt"
	"math"
	"math/rand"
	"runtime"

	"golang.org/x/sync/errgroup"

	"hotel_churn/internal/domain"
)

// RandomForest is a bagged ensemble of Gini trees with sqrt(p) candidate
// features per split. Trees are grown concurrently; each tree draws from its
// own generator seeded from Seed and the tree index, so the fitted forest does
// not depend on scheduling.
type RandomForest struct {
	NTrees          int   `json:"n_trees"`
	MaxDepth        int   `json:"max_depth"`
	MinSamplesSplit int   `json:"min_samples_split"`
	Balanced        bool  `json:"balanced"`
	Seed            int64 `json:"seed"`

	Trees       []Tree    `json:"trees"`
	Importances []float64 `json:"importances"`

	// Workers caps concurrent tree growth; 0 means GOMAXPROCS.
	Workers int `json:"-"`
	// Progress is called once per finished tree.
	Progress func() `json:"-"`
}

// NewRandomForest returns the churn configuration: 200 trees, depth 15,
// at least 10 samples to split, balanced class weights.
func NewRandomForest(seed int64) *RandomForest {
	return &RandomForest{NTrees: 200, MaxDepth: 15, MinSamplesSplit: 10, Balanced: true, Seed: seed}
}

func (f *RandomForest) Fit(X [][]float64, y []int) error {
	if len(X) == 0 || len(X) != len(y) {
		return fmt.Errorf("random forest: %d rows, %d labels: %w", len(X), len(y), domain.ErrEmptyInput)
	}
	if !twoClasses(y) {
		return fmt.Errorf("random forest: %w", domain.ErrSingleClass)
	}
	n, p := len(X), len(X[0])
	target := make([]float64, n)
	weight := make([]float64, n)
	for i, c := range y {
		target[i] = float64(c)
		weight[i] = 1
	}
	if f.Balanced {
		weight = BalancedWeights(y)
	}
	cfg := treeConfig{
		criterion:       Gini,
		maxDepth:        f.MaxDepth,
		minSamplesSplit: f.MinSamplesSplit,
		maxFeatures:     max(1, int(math.Sqrt(float64(p)))),
	}

	trees := make([]Tree, f.NTrees)
	imps := make([][]float64, f.NTrees)
	workers := f.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	var g errgroup.Group
	g.SetLimit(workers)
	for t := 0; t < f.NTrees; t++ {
		g.Go(func() error {
			rng := rand.New(rand.NewSource(f.Seed*1_000_003 + int64(t)))
			boot := make([]int, n)
			for i := range boot {
				boot[i] = rng.Intn(n)
			}
			tree, imp := growTree(cfg, X, target, weight, boot, rng)
			normalize(imp)
			trees[t], imps[t] = tree, imp
			if f.Progress != nil {
				f.Progress()
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	f.Trees = trees
	f.Importances = make([]float64, p)
	for _, imp := range imps {
		for j, v := range imp {
			f.Importances[j] += v
		}
	}
	normalize(f.Importances)
	return nil
}

// PredictProba averages the leaf churn probability across trees.
func (f *RandomForest) PredictProba(X [][]float64) []float64 {
	out := make([]float64, len(X))
	if len(f.Trees) == 0 {
		return out
	}
	for i, x := range X {
		s := 0.0
		for t := range f.Trees {
			s += f.Trees[t].Predict(x)
		}
		out[i] = s / float64(len(f.Trees))
	}
	return out
}

func (f *RandomForest) Predict(X [][]float64) []int {
	return threshold(f.PredictProba(X))
}
