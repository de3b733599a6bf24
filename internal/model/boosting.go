package model

import (
	"fmt"
	"math"

	"hotel_churn/internal/domain"
)

// GradientBoosting fits shallow regression trees to the log-loss gradient,
// starting from the training log-odds. Leaf values take one Newton step.
type GradientBoosting struct {
	NEstimators     int     `json:"n_estimators"`
	MaxDepth        int     `json:"max_depth"`
	MinSamplesSplit int     `json:"min_samples_split"`
	LearningRate    float64 `json:"learning_rate"`

	Init  float64 `json:"init"`
	Trees []Tree  `json:"trees"`

	// Progress is called once per fitted stage.
	Progress func() `json:"-"`
}

// NewGradientBoosting returns the churn configuration: 150 stages of depth-5
// trees, learning rate 0.1, at least 10 samples to split.
func NewGradientBoosting() *GradientBoosting {
	return &GradientBoosting{NEstimators: 150, MaxDepth: 5, MinSamplesSplit: 10, LearningRate: 0.1}
}

func (g *GradientBoosting) Fit(X [][]float64, y []int) error {
	if len(X) == 0 || len(X) != len(y) {
		return fmt.Errorf("gradient boosting: %d rows, %d labels: %w", len(X), len(y), domain.ErrEmptyInput)
	}
	if !twoClasses(y) {
		return fmt.Errorf("gradient boosting: %w", domain.ErrSingleClass)
	}
	n := len(X)
	pos := 0
	for _, c := range y {
		pos += c
	}
	prior := float64(pos) / float64(n)
	g.Init = math.Log(prior / (1 - prior))

	raw := make([]float64, n)
	for i := range raw {
		raw[i] = g.Init
	}
	resid := make([]float64, n)
	unit := make([]float64, n)
	idx := make([]int, n)
	for i := range idx {
		unit[i] = 1
		idx[i] = i
	}
	cfg := treeConfig{criterion: SquaredError, maxDepth: g.MaxDepth, minSamplesSplit: g.MinSamplesSplit}

	g.Trees = make([]Tree, 0, g.NEstimators)
	for m := 0; m < g.NEstimators; m++ {
		prob := make([]float64, n)
		for i := range raw {
			prob[i] = sigmoid(raw[i])
			resid[i] = float64(y[i]) - prob[i]
		}
		tree, _ := growTree(cfg, X, resid, unit, idx, nil)

		leaves := make([]int, n)
		num := make(map[int]float64)
		den := make(map[int]float64)
		for i, x := range X {
			l := tree.Apply(x)
			leaves[i] = l
			num[l] += resid[i]
			den[l] += prob[i] * (1 - prob[i])
		}
		for l := range num {
			v := 0.0
			if math.Abs(den[l]) > 1e-150 {
				v = num[l] / den[l]
			}
			tree.Nodes[l].Value = v
		}
		for i := range raw {
			raw[i] += g.LearningRate * tree.Nodes[leaves[i]].Value
		}
		g.Trees = append(g.Trees, tree)
		if g.Progress != nil {
			g.Progress()
		}
	}
	return nil
}

// Decision returns the raw log-odds score of each row.
func (g *GradientBoosting) Decision(X [][]float64) []float64 {
	out := make([]float64, len(X))
	for i, x := range X {
		s := g.Init
		for t := range g.Trees {
			s += g.LearningRate * g.Trees[t].Predict(x)
		}
		out[i] = s
	}
	return out
}

func (g *GradientBoosting) PredictProba(X [][]float64) []float64 {
	out := g.Decision(X)
	for i, z := range out {
		out[i] = sigmoid(z)
	}
	return out
}

func (g *GradientBoosting) Predict(X [][]float64) []int {
	return threshold(g.PredictProba(X))
}
