package model

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat"
)

// StandardScaler centres each column on its training mean and divides by its
// population standard deviation. Constant columns keep a scale of 1.
type StandardScaler struct {
	Mean  []float64 `json:"mean"`
	Scale []float64 `json:"scale"`
}

func (s *StandardScaler) Fit(X [][]float64) error {
	if len(X) == 0 {
		return fmt.Errorf("scaler: no rows")
	}
	p := len(X[0])
	s.Mean = make([]float64, p)
	s.Scale = make([]float64, p)
	col := make([]float64, len(X))
	for j := 0; j < p; j++ {
		for i, r := range X {
			col[i] = r[j]
		}
		m, v := stat.PopMeanVariance(col, nil)
		s.Mean[j] = m
		s.Scale[j] = 1
		if v > 0 {
			s.Scale[j] = math.Sqrt(v)
		}
	}
	return nil
}

// Transform returns a scaled copy of X.
func (s *StandardScaler) Transform(X [][]float64) [][]float64 {
	out := make([][]float64, len(X))
	for i, r := range X {
		row := make([]float64, len(r))
		for j, v := range r {
			row[j] = (v - s.Mean[j]) / s.Scale[j]
		}
		out[i] = row
	}
	return out
}
