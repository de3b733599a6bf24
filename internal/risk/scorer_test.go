package risk_test

import (
	"errors"
	"testing"

	"hotel_churn/internal/domain"
	"hotel_churn/internal/matrix"
	"hotel_churn/internal/risk"
)

func TestTier_Boundaries(t *testing.T) {
	cases := []struct {
		p    float64
		want domain.RiskTier
	}{
		{0, domain.TierLow},
		{0.2999, domain.TierLow},
		{0.3, domain.TierMedium},
		{0.4999, domain.TierMedium},
		{0.5, domain.TierHigh},
		{0.6999, domain.TierHigh},
		{0.7, domain.TierCritical},
		{1, domain.TierCritical},
	}
	for _, c := range cases {
		if got := risk.Tier(c.p); got != c.want {
			t.Fatalf("Tier(%v) = %q, want %q", c.p, got, c.want)
		}
	}
}

func TestTier_Monotonic(t *testing.T) {
	prev := -1
	for i := 0; i <= 100; i++ {
		r := risk.Tier(float64(i) / 100).Rank()
		if r < prev {
			t.Fatalf("rank dropped at p=%v", float64(i)/100)
		}
		prev = r
	}
}

type constProber []float64

func (c constProber) PredictProba(X [][]float64) []float64 { return c[:len(X)] }

func TestScore(t *testing.T) {
	customers := []domain.Customer{{Email: "a@x", Churned: true}, {Email: "b@x"}, {Email: "c@x"}}
	res := &matrix.Result{
		X:      &matrix.Frame{Columns: []string{"f"}, Rows: [][]float64{{1}, {2}, {3}}},
		Emails: []string{"a@x", "b@x", "c@x"},
	}
	scored, err := risk.Score(constProber{0.9, 0.1, 0.3}, res, customers)
	if err != nil {
		t.Fatalf("score: %v", err)
	}
	if scored[0].RiskCategory != domain.TierCritical || scored[1].RiskCategory != domain.TierLow || scored[2].RiskCategory != domain.TierMedium {
		t.Fatalf("tiers: %+v", scored)
	}

	s := risk.Summarize(scored, 2)
	if s.Total != 3 || s.Counts[domain.TierCritical] != 1 || s.Counts[domain.TierHigh] != 0 {
		t.Fatalf("summary counts: %+v", s.Counts)
	}
	if s.Tiers[3].ObservedRate != 1 || s.Tiers[0].Share != 1.0/3 {
		t.Fatalf("tier stats: %+v", s.Tiers)
	}
	if len(s.Highest) != 2 || s.Highest[0].Email != "a@x" || s.Highest[1].Email != "c@x" {
		t.Fatalf("highest: %+v", s.Highest)
	}
}

func TestScore_Misaligned(t *testing.T) {
	res := &matrix.Result{
		X:      &matrix.Frame{Rows: [][]float64{{1}}},
		Emails: []string{"a@x"},
	}
	_, err := risk.Score(constProber{0.5}, res, []domain.Customer{{Email: "z@x"}})
	if !errors.Is(err, domain.ErrSchemaMismatch) {
		t.Fatalf("want ErrSchemaMismatch, got %v", err)
	}
}
