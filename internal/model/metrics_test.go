package model_test

import (
	"errors"
	"math"
	"testing"

	"hotel_churn/internal/domain"
	"hotel_churn/internal/model"
)

func TestEvaluate(t *testing.T) {
	y := []int{1, 1, 0, 0}
	pred := []int{1, 0, 1, 0}
	prob := []float64{0.9, 0.4, 0.6, 0.1}
	e := model.Evaluate("m", y, pred, prob)
	if e.Accuracy != 0.5 || e.Precision != 0.5 || e.Recall != 0.5 || e.F1 != 0.5 {
		t.Fatalf("metrics: %+v", e)
	}
	if math.Abs(e.ROCAUC-0.75) > 1e-12 {
		t.Fatalf("roc auc: %v", e.ROCAUC)
	}
	if e.Confusion.TP() != 1 || e.Confusion.FP() != 1 || e.Confusion.FN() != 1 || e.Confusion.TN() != 1 {
		t.Fatalf("confusion: %v", e.Confusion)
	}
	if e.Report.Classes[0].Label != "Retained" || e.Report.Classes[1].Support != 2 || e.Report.Macro.F1 != 0.5 {
		t.Fatalf("report: %+v", e.Report)
	}
}

func TestEvaluate_ZeroDivision(t *testing.T) {
	e := model.Evaluate("m", []int{1, 0, 0}, []int{0, 0, 0}, []float64{0.2, 0.1, 0.3})
	if e.Precision != 0 || e.Recall != 0 || e.F1 != 0 {
		t.Fatalf("zero-division metrics: %+v", e)
	}
	if math.Abs(e.ROCAUC-0.5) > 1e-12 {
		t.Fatalf("roc auc: %v", e.ROCAUC)
	}
}

func TestROCAUC_SingleClass(t *testing.T) {
	if v := model.ROCAUC([]int{1, 1}, []float64{0.2, 0.9}); !math.IsNaN(v) {
		t.Fatalf("want NaN, got %v", v)
	}
}

func TestBest(t *testing.T) {
	best, ok := model.Best([]model.Evaluation{
		{Model: "a", ROCAUC: 0.7}, {Model: "b", ROCAUC: 0.8}, {Model: "c", ROCAUC: 0.8}, {Model: "d", ROCAUC: math.NaN()},
	})
	if !ok || best.Model != "b" {
		t.Fatalf("best: %+v", best)
	}
}

func TestOddsRatios(t *testing.T) {
	m := &model.LogisticRegression{Coef: []float64{0.5, -2, 1}}
	got, err := model.OddsRatios(m, []string{"a", "b", "c"})
	if err != nil {
		t.Fatalf("odds: %v", err)
	}
	if got[0].Feature != "b" || got[1].Feature != "c" || got[2].Feature != "a" {
		t.Fatalf("order: %+v", got)
	}
	if got[0].Direction != model.Decreases || math.Abs(got[0].OddsRatio-math.Exp(-2)) > 1e-12 {
		t.Fatalf("first: %+v", got[0])
	}
	if got[1].Direction != model.Increases {
		t.Fatalf("second: %+v", got[1])
	}

	if _, err := model.OddsRatios(m, []string{"a"}); !errors.Is(err, domain.ErrSchemaMismatch) {
		t.Fatalf("want ErrSchemaMismatch, got %v", err)
	}
}

func TestImportances(t *testing.T) {
	f := &model.RandomForest{Importances: []float64{0.2, 0.5, 0.3}}
	got, err := model.Importances(f, []string{"a", "b", "c"})
	if err != nil {
		t.Fatalf("importances: %v", err)
	}
	if got[0].Feature != "b" || got[2].Feature != "a" {
		t.Fatalf("order: %+v", got)
	}
}
