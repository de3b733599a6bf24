package model_test

import (
	"errors"
	"math"
	"math/rand"
	"reflect"
	"sync/atomic"
	"testing"

	"hotel_churn/internal/domain"
	"hotel_churn/internal/model"
)

// threshold data: churn when the first feature exceeds 0.5, second feature is noise.
func synthetic(n int, seed int64) ([][]float64, []int) {
	rng := rand.New(rand.NewSource(seed))
	X := make([][]float64, n)
	y := make([]int, n)
	for i := range X {
		X[i] = []float64{rng.Float64(), rng.Float64()}
		if X[i][0] > 0.5 {
			y[i] = 1
		}
	}
	return X, y
}

func accuracy(pred, y []int) float64 {
	ok := 0
	for i := range y {
		if pred[i] == y[i] {
			ok++
		}
	}
	return float64(ok) / float64(len(y))
}

func TestLogisticRegression_SymmetricData(t *testing.T) {
	X := [][]float64{{-3}, {-2}, {-1}, {1}, {2}, {3}}
	y := []int{0, 0, 1, 0, 1, 1}
	m := model.NewLogisticRegression()
	if err := m.Fit(X, y); err != nil {
		t.Fatalf("fit: %v", err)
	}
	if math.Abs(m.Intercept) > 1e-6 {
		t.Fatalf("intercept should vanish on mirrored data: %v", m.Intercept)
	}
	if m.Coef[0] <= 0 {
		t.Fatalf("coefficient sign: %v", m.Coef)
	}
	p := m.PredictProba([][]float64{{0}, {5}, {-5}})
	if math.Abs(p[0]-0.5) > 1e-6 || p[1] <= 0.5 || p[2] >= 0.5 {
		t.Fatalf("probabilities: %v", p)
	}
	if got := m.Predict([][]float64{{5}, {-5}}); !reflect.DeepEqual(got, []int{1, 0}) {
		t.Fatalf("predict: %v", got)
	}
}

func TestLogisticRegression_SingleClass(t *testing.T) {
	err := model.NewLogisticRegression().Fit([][]float64{{1}, {2}}, []int{1, 1})
	if !errors.Is(err, domain.ErrSingleClass) {
		t.Fatalf("want ErrSingleClass, got %v", err)
	}
}

func TestRandomForest_FitsAndIsScheduleIndependent(t *testing.T) {
	X, y := synthetic(200, 1)

	var ticks atomic.Int64
	f1 := model.NewRandomForest(42)
	f1.NTrees = 20
	f1.Workers = 4
	f1.Progress = func() { ticks.Add(1) }
	if err := f1.Fit(X, y); err != nil {
		t.Fatalf("fit: %v", err)
	}
	if ticks.Load() != 20 {
		t.Fatalf("progress ticks: %d", ticks.Load())
	}
	if acc := accuracy(f1.Predict(X), y); acc < 0.95 {
		t.Fatalf("training accuracy %v", acc)
	}

	sum := f1.Importances[0] + f1.Importances[1]
	if math.Abs(sum-1) > 1e-9 || f1.Importances[0] <= f1.Importances[1] {
		t.Fatalf("importances: %v", f1.Importances)
	}

	f2 := model.NewRandomForest(42)
	f2.NTrees = 20
	f2.Workers = 1
	if err := f2.Fit(X, y); err != nil {
		t.Fatalf("fit: %v", err)
	}
	if !reflect.DeepEqual(f1.PredictProba(X), f2.PredictProba(X)) {
		t.Fatal("worker count changed the fitted forest")
	}
}

func TestGradientBoosting_Fits(t *testing.T) {
	X, y := synthetic(200, 2)
	g := model.NewGradientBoosting()
	g.NEstimators = 30
	stages := 0
	g.Progress = func() { stages++ }
	if err := g.Fit(X, y); err != nil {
		t.Fatalf("fit: %v", err)
	}
	if stages != 30 || len(g.Trees) != 30 {
		t.Fatalf("stages: %d trees: %d", stages, len(g.Trees))
	}
	pos := 0
	for _, c := range y {
		pos += c
	}
	prior := float64(pos) / float64(len(y))
	if math.Abs(g.Init-math.Log(prior/(1-prior))) > 1e-12 {
		t.Fatalf("init log-odds: %v", g.Init)
	}
	if acc := accuracy(g.Predict(X), y); acc < 0.95 {
		t.Fatalf("training accuracy %v", acc)
	}
	for _, p := range g.PredictProba(X) {
		if p < 0 || p > 1 {
			t.Fatalf("probability out of range: %v", p)
		}
	}
}
