package model

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"hotel_churn/internal/domain"
)

// LogisticRegression is an L2-regularised logistic model fitted by Newton's
// method. The intercept is not penalised.
type LogisticRegression struct {
	C        float64 `json:"c"`
	MaxIter  int     `json:"max_iter"`
	Tol      float64 `json:"tol"`
	Balanced bool    `json:"balanced"`

	Coef      []float64 `json:"coef"`
	Intercept float64   `json:"intercept"`
	Iters     int       `json:"iters"`
}

// NewLogisticRegression returns the churn configuration: C=1, balanced class
// weights, up to 1000 Newton steps.
func NewLogisticRegression() *LogisticRegression {
	return &LogisticRegression{C: 1, MaxIter: 1000, Tol: 1e-8, Balanced: true}
}

func (m *LogisticRegression) Fit(X [][]float64, y []int) error {
	if len(X) == 0 || len(X) != len(y) {
		return fmt.Errorf("logistic regression: %d rows, %d labels: %w", len(X), len(y), domain.ErrEmptyInput)
	}
	if !twoClasses(y) {
		return fmt.Errorf("logistic regression: %w", domain.ErrSingleClass)
	}
	p := len(X[0])
	w := make([]float64, len(y))
	for i := range w {
		w[i] = 1
	}
	if m.Balanced {
		w = BalancedWeights(y)
	}

	theta := make([]float64, p+1) // coefficients, then intercept
	loss := m.objective(X, y, w, theta)
	m.Iters = 0
	for it := 0; it < m.MaxIter; it++ {
		m.Iters = it + 1
		grad, hess := m.derivatives(X, y, w, theta)

		var chol mat.Cholesky
		if ok := chol.Factorize(hess); !ok {
			return fmt.Errorf("logistic regression: hessian not positive definite at step %d", it)
		}
		var step mat.VecDense
		if err := chol.SolveVecTo(&step, mat.NewVecDense(p+1, grad)); err != nil {
			return fmt.Errorf("logistic regression: newton step: %w", err)
		}

		// Backtrack until the objective does not increase.
		t := 1.0
		next := make([]float64, p+1)
		var nextLoss float64
		for k := 0; k < 30; k++ {
			for j := range theta {
				next[j] = theta[j] - t*step.AtVec(j)
			}
			nextLoss = m.objective(X, y, w, next)
			if nextLoss <= loss {
				break
			}
			t /= 2
		}
		maxStep := 0.0
		for j := range theta {
			maxStep = math.Max(maxStep, math.Abs(next[j]-theta[j]))
		}
		copy(theta, next)
		loss = nextLoss
		if maxStep < m.Tol {
			break
		}
	}
	m.Coef = append([]float64(nil), theta[:p]...)
	m.Intercept = theta[p]
	return nil
}

// objective is 0.5*|w|^2 + C * sum_i s_i * logloss_i.
func (m *LogisticRegression) objective(X [][]float64, y []int, s, theta []float64) float64 {
	p := len(theta) - 1
	reg := 0.0
	for j := 0; j < p; j++ {
		reg += theta[j] * theta[j]
	}
	sum := 0.0
	for i, x := range X {
		z := linear(theta, x)
		sum += s[i] * (softplus(z) - float64(y[i])*z)
	}
	return 0.5*reg + m.C*sum
}

func (m *LogisticRegression) derivatives(X [][]float64, y []int, s, theta []float64) ([]float64, *mat.SymDense) {
	p := len(theta) - 1
	grad := make([]float64, p+1)
	hess := mat.NewSymDense(p+1, nil)
	xt := make([]float64, p+1)
	for i, x := range X {
		copy(xt, x)
		xt[p] = 1
		pr := sigmoid(linear(theta, x))
		g := m.C * s[i] * (pr - float64(y[i]))
		h := m.C * s[i] * pr * (1 - pr)
		for a := 0; a <= p; a++ {
			grad[a] += g * xt[a]
			for b := a; b <= p; b++ {
				hess.SetSym(a, b, hess.At(a, b)+h*xt[a]*xt[b])
			}
		}
	}
	for j := 0; j < p; j++ {
		grad[j] += theta[j]
		hess.SetSym(j, j, hess.At(j, j)+1)
	}
	// Keep the intercept row invertible when probabilities saturate.
	hess.SetSym(p, p, hess.At(p, p)+1e-12)
	return grad, hess
}

// Decision returns the linear score w.x + b of each row.
func (m *LogisticRegression) Decision(X [][]float64) []float64 {
	out := make([]float64, len(X))
	for i, x := range X {
		out[i] = m.Intercept + floats.Dot(m.Coef, x)
	}
	return out
}

func (m *LogisticRegression) PredictProba(X [][]float64) []float64 {
	out := m.Decision(X)
	for i, z := range out {
		out[i] = sigmoid(z)
	}
	return out
}

func (m *LogisticRegression) Predict(X [][]float64) []int {
	return threshold(m.PredictProba(X))
}

func linear(theta, x []float64) float64 {
	p := len(theta) - 1
	z := theta[p]
	for j := 0; j < p; j++ {
		z += theta[j] * x[j]
	}
	return z
}

func sigmoid(z float64) float64 {
	if z >= 0 {
		return 1 / (1 + math.Exp(-z))
	}
	e := math.Exp(z)
	return e / (1 + e)
}

// softplus is log(1+exp(z)) without overflow.
func softplus(z float64) float64 {
	return math.Max(z, 0) + math.Log1p(math.Exp(-math.Abs(z)))
}

func twoClasses(y []int) bool {
	var seen [2]bool
	for _, c := range y {
		if c == 0 || c == 1 {
			seen[c] = true
		}
	}
	return seen[0] && seen[1]
}
