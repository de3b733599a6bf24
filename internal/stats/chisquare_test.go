package stats_test

import (
	"math"
	"testing"

	"hotel_churn/internal/stats"
)

func TestChiSquare_StrongAssociation(t *testing.T) {
	r := stats.ChiSquare("customer_type", stats.Contingency{
		Levels: []string{"Existing", "New"},
		Counts: [][2]int{{50, 10}, {10, 50}},
	})
	if !r.Computable {
		t.Fatalf("expected computable result, note=%q", r.Note)
	}
	if r.DF != 1 {
		t.Fatalf("df: got %d", r.DF)
	}
	if r.PValue >= 0.05 || r.PValue > 1e-6 {
		t.Fatalf("p-value should be far below 0.05, got %g", r.PValue)
	}
	if r.Effect != stats.EffectLarge {
		t.Fatalf("effect: got %s (V=%.3f)", r.Effect, r.CramersV)
	}
	// Yates-corrected statistic: 4 * 19.5^2 / 30
	if math.Abs(r.Statistic-50.7) > 1e-9 {
		t.Fatalf("statistic: got %v", r.Statistic)
	}
	if r.Significance != "***" {
		t.Fatalf("significance: %q", r.Significance)
	}
}

func TestChiSquare_Independent(t *testing.T) {
	r := stats.ChiSquare("platform", stats.Contingency{
		Levels: []string{"App", "Mobile", "Web"},
		Counts: [][2]int{{40, 10}, {80, 20}, {120, 30}},
	})
	if !r.Computable || r.Statistic != 0 || math.Abs(r.PValue-1) > 1e-12 {
		t.Fatalf("independent table: %+v", r)
	}
	if r.Effect != stats.EffectSmall || r.DF != 2 {
		t.Fatalf("effect/df: %s %d", r.Effect, r.DF)
	}
}

func TestChiSquare_DegenerateTables(t *testing.T) {
	single := stats.ChiSquare("x", stats.Contingency{Levels: []string{"A"}, Counts: [][2]int{{3, 4}}})
	if single.Computable {
		t.Fatalf("one level must be non-computable")
	}
	oneOutcome := stats.ChiSquare("x", stats.Contingency{Levels: []string{"A", "B"}, Counts: [][2]int{{3, 0}, {5, 0}}})
	if oneOutcome.Computable || oneOutcome.Note == "" {
		t.Fatalf("single outcome must be non-computable with a note: %+v", oneOutcome)
	}
	sparse := stats.ChiSquare("x", stats.Contingency{Levels: []string{"A", "B"}, Counts: [][2]int{{30, 0}, {5, 25}}})
	if !sparse.Computable || sparse.Note == "" {
		t.Fatalf("empty cell should still compute but carry a note: %+v", sparse)
	}
}

func TestCrosstab_SkipsMissingAndSorts(t *testing.T) {
	ct := stats.Crosstab(
		[]string{"Web", "", "App", "Web", "App"},
		[]bool{true, true, false, false, true},
	)
	if len(ct.Levels) != 2 || ct.Levels[0] != "App" || ct.Levels[1] != "Web" {
		t.Fatalf("levels: %v", ct.Levels)
	}
	if ct.Counts[0] != [2]int{1, 1} || ct.Counts[1] != [2]int{1, 1} {
		t.Fatalf("counts: %v", ct.Counts)
	}
}

func TestEffectTier(t *testing.T) {
	if stats.EffectTier(0.05) != stats.EffectSmall || stats.EffectTier(0.1) != stats.EffectSmall ||
		stats.EffectTier(0.2) != stats.EffectMedium || stats.EffectTier(0.25) != stats.EffectMedium ||
		stats.EffectTier(0.3) != stats.EffectLarge {
		t.Fatalf("unexpected tiering")
	}
}
