package stats

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat/distuv"

	"hotel_churn/internal/domain"
)

// Contingency is a levels x {retained, churned} count table.
type Contingency struct {
	Levels []string
	Counts [][2]int
}

// Crosstab counts outcomes per level; empty levels are treated as missing and skipped.
// Levels are sorted lexicographically.
func Crosstab(levels []string, churned []bool) Contingency {
	idx := map[string]int{}
	var names []string
	for _, l := range levels {
		if l == "" {
			continue
		}
		if _, ok := idx[l]; !ok {
			idx[l] = 0
			names = append(names, l)
		}
	}
	sort.Strings(names)
	for i, n := range names {
		idx[n] = i
	}
	t := Contingency{Levels: names, Counts: make([][2]int, len(names))}
	for i, l := range levels {
		if l == "" {
			continue
		}
		col := 0
		if churned[i] {
			col = 1
		}
		t.Counts[idx[l]][col]++
	}
	return t
}

// ChiSquareResult is the independence test of one categorical feature against churn.
type ChiSquareResult struct {
	Feature string
	Table   Contingency
	N       int

	Statistic    float64
	DF           int
	PValue       float64
	CramersV     float64
	Effect       string
	Significance string

	Computable bool
	Note       string
}

// Effect-size tiers for Cramér's V.
const (
	EffectSmall  = "Small"
	EffectMedium = "Medium"
	EffectLarge  = "Large"
)

// ChiSquare tests independence on t. A table with one degree of freedom gets
// the Yates continuity correction. Any zero expected frequency makes the
// result non-computable.
func ChiSquare(feature string, t Contingency) ChiSquareResult {
	r := ChiSquareResult{Feature: feature, Table: t, Statistic: math.NaN(), PValue: math.NaN(), CramersV: math.NaN()}

	rows := len(t.Counts)
	var colSum [2]float64
	rowSum := make([]float64, rows)
	zeroCell := false
	for i, c := range t.Counts {
		for j := 0; j < 2; j++ {
			rowSum[i] += float64(c[j])
			colSum[j] += float64(c[j])
			if c[j] == 0 {
				zeroCell = true
			}
		}
	}
	n := colSum[0] + colSum[1]
	r.N = int(n)

	if rows < 2 {
		r.Note = "fewer than two levels"
		return r
	}
	if colSum[0] == 0 || colSum[1] == 0 {
		r.Note = "only one outcome observed"
		return r
	}
	for i := range rowSum {
		if rowSum[i] == 0 {
			r.Note = "level without observations"
			return r
		}
	}

	r.DF = rows - 1
	chi2 := 0.0
	for i, c := range t.Counts {
		for j := 0; j < 2; j++ {
			exp := rowSum[i] * colSum[j] / n
			obs := float64(c[j])
			if r.DF == 1 {
				d := exp - obs
				obs += math.Copysign(math.Min(0.5, math.Abs(d)), d)
			}
			chi2 += (obs - exp) * (obs - exp) / exp
		}
	}
	r.Statistic = chi2
	r.PValue = distuv.ChiSquared{K: float64(r.DF)}.Survival(chi2)
	r.Significance = Significance(r.PValue)

	minDim := math.Min(float64(rows), 2) - 1
	r.CramersV = math.Sqrt(chi2 / (n * minDim))
	r.Effect = EffectTier(r.CramersV)
	r.Computable = true
	if zeroCell {
		r.Note = "table has an empty cell"
	}
	return r
}

// EffectTier buckets Cramér's V: Small up to 0.1, Medium up to 0.25, Large above.
// Both boundaries belong to the lower tier.
func EffectTier(v float64) string {
	switch {
	case v > 0.25:
		return EffectLarge
	case v > 0.1:
		return EffectMedium
	}
	return EffectSmall
}

// ChiSquareBookings runs ChiSquare for every categorical column.
func ChiSquareBookings(rows []domain.EngineeredBooking, cols []string) []ChiSquareResult {
	out := make([]ChiSquareResult, 0, len(cols))
	churned := make([]bool, len(rows))
	for i, r := range rows {
		churned[i] = r.Churned
	}
	for _, col := range cols {
		levels := make([]string, len(rows))
		for i, r := range rows {
			levels[i], _ = r.CategoryValue(col)
		}
		out = append(out, ChiSquare(col, Crosstab(levels, churned)))
	}
	return out
}
