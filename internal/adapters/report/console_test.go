package report

import (
	"bytes"
	"errors"
	"math"
	"strings"
	"testing"
	"time"

	"hotel_churn/internal/app"
	"hotel_churn/internal/domain"
	"hotel_churn/internal/features"
	"hotel_churn/internal/model"
	"hotel_churn/internal/risk"
	"hotel_churn/internal/stats"
)

func sampleRun() *app.RunResult {
	scored := []domain.ScoredCustomer{
		{Customer: domain.Customer{Email: "a@x.com", TotalBookings: 3, Churned: true, CustomerType: "Leisure"}, ChurnProbability: 0.91, RiskCategory: domain.TierCritical},
		{Customer: domain.Customer{Email: "b@x.com", TotalBookings: 1}, ChurnProbability: 0.12, RiskCategory: domain.TierLow},
	}
	lr := model.Evaluate(model.NameLogistic, []int{1, 1, 0, 0}, []int{1, 0, 1, 0}, []float64{0.9, 0.4, 0.6, 0.1})
	rf := model.Evaluate(model.NameForest, []int{1, 1, 0, 0}, []int{1, 1, 0, 0}, []float64{0.9, 0.8, 0.2, 0.1})
	return &app.RunResult{
		RunID:     "run-1",
		StartedAt: time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC),
		Summary: features.Summary{
			Rows: 10, Churned: 3, Retained: 7, ChurnRate: 0.3,
			FirstDate: time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC),
			LastDate:  time.Date(2023, 12, 31, 0, 0, 0, 0, time.UTC),
			Missing:   map[string]int{domain.ColCancelDate: 7},
		},
		TTests: []stats.TTestResult{
			{Feature: domain.ColVisitMinutes, MeanRetained: 10, MeanChurned: 5, Difference: -5, DiffPercent: -50, Statistic: -2.5, PValue: 0.02, Significance: "*", Computable: true},
			{Feature: domain.ColBounceVisits, MeanRetained: math.NaN(), MeanChurned: 1, Note: "retained group has fewer than 2 values"},
		},
		ChiSquares: []stats.ChiSquareResult{
			{Feature: domain.ColPlatform, Table: stats.Contingency{Levels: []string{"App", "Web"}}, Statistic: 4.1, DF: 1, PValue: 0.04, CramersV: 0.2, Effect: stats.EffectSmall, Significance: "*", Computable: true},
		},
		Customers:         2,
		CustomerChurnRate: 0.5,
		FeatureColumns:    []string{"total_bookings"},
		TrainSize:         3,
		TestSize:          1,
		Evaluations:       []model.Evaluation{lr, rf},
		Best:              rf,
		OddsRatios:        []model.OddsRatio{{Feature: "total_bookings", Coefficient: 0.7, OddsRatio: math.Exp(0.7), Direction: model.Increases}},
		Importances:       []model.Importance{{Feature: "total_bookings", Importance: 1}},
		ScoringModel:      model.NameForest,
		Scored:            scored,
		Risk:              risk.Summarize(scored, 10),
		Persisted:         true,
	}
}

func TestConsoleWritesAllSections(t *testing.T) {
	var buf bytes.Buffer
	if err := NewConsole(&buf).Write(sampleRun()); err != nil {
		t.Fatalf("write: %v", err)
	}
	out := buf.String()
	for _, want := range []string{
		"Churn run run-1",
		"churn rate: 30.0%",
		"booking dates: 2023-01-01 to 2023-12-31",
		"cancel_date",
		"retained group has fewer than 2 values",
		"Categorical features vs churn",
		"Logistic Regression",
		"Random Forest",
		"Churn drivers",
		"Feature importance",
		"Critical Risk",
		"a@x.com",
		"high or critical: 1 of 2",
		"scores persisted as run run-1",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("report missing %q", want)
		}
	}
}

func TestConsoleFlagsBestModel(t *testing.T) {
	var buf bytes.Buffer
	if err := NewConsole(&buf).Write(sampleRun()); err != nil {
		t.Fatal(err)
	}
	for _, line := range strings.Split(buf.String(), "\n") {
		if strings.HasPrefix(line, "Random Forest ") && !strings.HasSuffix(strings.TrimSpace(line), "best") {
			t.Errorf("best model not flagged: %q", line)
		}
		if strings.HasPrefix(line, "Logistic Regression ") && strings.HasSuffix(strings.TrimSpace(line), "best") {
			t.Errorf("wrong model flagged: %q", line)
		}
	}
}

func TestConsoleUndefinedAUC(t *testing.T) {
	res := sampleRun()
	res.Evaluations = []model.Evaluation{model.Evaluate(model.NameBoosting, []int{0, 0}, []int{0, 0}, []float64{0.1, 0.2})}
	var buf bytes.Buffer
	if err := NewConsole(&buf).Write(res); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), "undefined") {
		t.Fatalf("expected undefined ROC-AUC in report")
	}
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) { return 0, errors.New("disk full") }

func TestConsoleReturnsWriteError(t *testing.T) {
	if err := NewConsole(failingWriter{}).Write(sampleRun()); err == nil {
		t.Fatal("expected write error")
	}
}
