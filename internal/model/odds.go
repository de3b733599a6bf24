package model

import (
	"fmt"
	"math"
	"sort"

	"hotel_churn/internal/domain"
)

// OddsRatio is the per-unit (standardised) effect of one feature on churn odds.
type OddsRatio struct {
	Feature     string  `json:"feature"`
	Coefficient float64 `json:"coefficient"`
	OddsRatio   float64 `json:"odds_ratio"`
	Direction   string  `json:"direction"`
}

const (
	Increases = "increases"
	Decreases = "decreases"
)

// OddsRatios pairs the fitted coefficients with their feature names and orders
// them by |coefficient|, largest first.
func OddsRatios(m *LogisticRegression, features []string) ([]OddsRatio, error) {
	if len(m.Coef) != len(features) {
		return nil, fmt.Errorf("odds ratios: %d coefficients for %d features: %w",
			len(m.Coef), len(features), domain.ErrSchemaMismatch)
	}
	out := make([]OddsRatio, len(features))
	for j, f := range features {
		c := m.Coef[j]
		dir := Decreases
		if c > 0 {
			dir = Increases
		}
		out[j] = OddsRatio{Feature: f, Coefficient: c, OddsRatio: math.Exp(c), Direction: dir}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return math.Abs(out[i].Coefficient) > math.Abs(out[j].Coefficient)
	})
	return out, nil
}

// Importance is one feature's share of a forest's impurity reduction.
type Importance struct {
	Feature    string  `json:"feature"`
	Importance float64 `json:"importance"`
}

// Importances ranks the forest's features, largest share first.
func Importances(f *RandomForest, features []string) ([]Importance, error) {
	if len(f.Importances) != len(features) {
		return nil, fmt.Errorf("feature importances: %d values for %d features: %w",
			len(f.Importances), len(features), domain.ErrSchemaMismatch)
	}
	out := make([]Importance, len(features))
	for j, name := range features {
		out[j] = Importance{Feature: name, Importance: f.Importances[j]}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Importance > out[j].Importance })
	return out, nil
}
