package stats

import (
	"math"

	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"

	"hotel_churn/internal/domain"
)

// Variance selects how the two-sample t-test treats group variances.
type Variance int

const (
	// Welch does not assume equal variances (Welch–Satterthwaite degrees of freedom).
	Welch Variance = iota
	// Pooled assumes equal variances (Student's test).
	Pooled
)

func (v Variance) String() string {
	if v == Pooled {
		return "student"
	}
	return "welch"
}

// TTestResult compares one numeric feature between churned and retained bookings.
// Statistic is oriented churned minus retained.
type TTestResult struct {
	Feature string

	NRetained    int
	NChurned     int
	MeanRetained float64
	MeanChurned  float64
	Difference   float64
	DiffPercent  float64 // NaN when the retained mean is 0

	Statistic    float64
	DF           float64
	PValue       float64
	Significance string

	Computable bool
	Note       string
}

// TTest runs a two-sided independent two-sample t-test. NaN values are dropped first.
func TTest(feature string, churned, retained []float64, v Variance) TTestResult {
	churned, retained = dropNaN(churned), dropNaN(retained)
	r := TTestResult{
		Feature:   feature,
		NChurned:  len(churned),
		NRetained: len(retained),
		Statistic: math.NaN(), DF: math.NaN(), PValue: math.NaN(),
		MeanChurned: math.NaN(), MeanRetained: math.NaN(),
		Difference: math.NaN(), DiffPercent: math.NaN(),
	}
	if r.NChurned < 2 || r.NRetained < 2 {
		r.Note = "fewer than two observations in a group"
		return r
	}

	m1, v1 := stat.MeanVariance(churned, nil)
	m0, v0 := stat.MeanVariance(retained, nil)
	n1, n0 := float64(r.NChurned), float64(r.NRetained)
	r.MeanChurned, r.MeanRetained = m1, m0
	r.Difference = m1 - m0
	if m0 != 0 {
		r.DiffPercent = r.Difference / m0 * 100
	}

	var se, df float64
	switch v {
	case Pooled:
		sp := ((n1-1)*v1 + (n0-1)*v0) / (n1 + n0 - 2)
		se = math.Sqrt(sp * (1/n1 + 1/n0))
		df = n1 + n0 - 2
	default:
		a, b := v1/n1, v0/n0
		se = math.Sqrt(a + b)
		df = (a + b) * (a + b) / (a*a/(n1-1) + b*b/(n0-1))
	}
	if se == 0 || math.IsNaN(se) {
		r.Note = "zero variance in both groups"
		return r
	}
	switch {
	case v1 == 0:
		r.Note = "zero variance in churned group"
	case v0 == 0:
		r.Note = "zero variance in retained group"
	}

	r.Statistic = r.Difference / se
	r.DF = df
	r.PValue = 2 * distuv.StudentsT{Mu: 0, Sigma: 1, Nu: df}.Survival(math.Abs(r.Statistic))
	r.Significance = Significance(r.PValue)
	r.Computable = true
	return r
}

// TTestBookings runs TTest for every column, splitting rows by churn flag.
func TTestBookings(rows []domain.EngineeredBooking, cols []string, v Variance) []TTestResult {
	out := make([]TTestResult, 0, len(cols))
	for _, col := range cols {
		var churned, retained []float64
		for _, r := range rows {
			x, ok := r.NumericValue(col)
			if !ok {
				break
			}
			if r.Churned {
				churned = append(churned, x)
			} else {
				retained = append(retained, x)
			}
		}
		out = append(out, TTest(col, churned, retained, v))
	}
	return out
}

// Significance maps a p-value to "***" (<0.001), "**" (<0.01), "*" (<0.05) or "ns".
func Significance(p float64) string {
	switch {
	case math.IsNaN(p):
		return ""
	case p < 0.001:
		return "***"
	case p < 0.01:
		return "**"
	case p < 0.05:
		return "*"
	}
	return "ns"
}

func dropNaN(xs []float64) []float64 {
	out := make([]float64, 0, len(xs))
	for _, x := range xs {
		if !math.IsNaN(x) {
			out = append(out, x)
		}
	}
	return out
}
