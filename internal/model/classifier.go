// Package model holds the churn classifiers, their shared training and
// evaluation path, and the preprocessing they depend on.
package model

// Classifier is the capability set every churn model exposes.
// Rows of X are samples in FeatureColumns order; y holds 0/1 labels.
type Classifier interface {
	Fit(X [][]float64, y []int) error
	Predict(X [][]float64) []int
	PredictProba(X [][]float64) []float64
}

// Artifact names, also used as model identifiers in reports and metrics.
const (
	NameLogistic = "logistic_regression"
	NameForest   = "random_forest"
	NameBoosting = "gradient_boosting"
	NameScaler   = "scaler"
	NameFeatures = "feature_cols"
)

// DisplayName is the human label of a model identifier.
func DisplayName(name string) string {
	switch name {
	case NameLogistic:
		return "Logistic Regression"
	case NameForest:
		return "Random Forest"
	case NameBoosting:
		return "Gradient Boosting"
	}
	return name
}

// threshold turns probabilities into labels; exactly 0.5 stays negative.
func threshold(p []float64) []int {
	out := make([]int, len(p))
	for i, v := range p {
		if v > 0.5 {
			out[i] = 1
		}
	}
	return out
}
