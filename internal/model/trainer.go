package model

import (
	"context"
	"fmt"
	"sync"
)

// Strategy is one model family the trainer runs through the shared path.
type Strategy struct {
	Name string
	// Scaled models see standardised features, the others raw values.
	Scaled bool
	New    func() Classifier
}

// Options configure the default strategies.
type Options struct {
	Seed    int64
	Workers int
	// Progress, when set, returns a tick function for a model with total steps.
	Progress func(model string, total int) func()
}

// DefaultStrategies returns logistic regression, random forest and gradient
// boosting with their fixed churn hyperparameters.
func DefaultStrategies(opts Options) []Strategy {
	return []Strategy{
		{Name: NameLogistic, Scaled: true, New: func() Classifier { return NewLogisticRegression() }},
		{Name: NameForest, New: func() Classifier {
			f := NewRandomForest(opts.Seed)
			f.Workers = opts.Workers
			f.Progress = lazyProgress(opts.Progress, NameForest, f.NTrees)
			return f
		}},
		{Name: NameBoosting, New: func() Classifier {
			g := NewGradientBoosting()
			g.Progress = lazyProgress(opts.Progress, NameBoosting, g.NEstimators)
			return g
		}},
	}
}

// lazyProgress defers creating the tick function until the first step, so
// models built only to decode stored artifacts never open a progress display.
func lazyProgress(progress func(string, int) func(), name string, total int) func() {
	if progress == nil {
		return nil
	}
	var (
		once sync.Once
		tick func()
	)
	return func() {
		once.Do(func() { tick = progress(name, total) })
		tick()
	}
}

// Sink receives every fitted artifact. Saving is all-or-nothing from the
// caller's view: Commit is only called after every Save succeeded.
type Sink interface {
	Save(ctx context.Context, name string, v any) error
	Commit(ctx context.Context, features []string) error
}

// Trained is a fitted model bound to the preprocessing it expects.
type Trained struct {
	Name       string
	Model      Classifier
	Scaler     *StandardScaler // nil for unscaled models
	Evaluation Evaluation
}

func (t Trained) input(X [][]float64) [][]float64 {
	if t.Scaler != nil {
		return t.Scaler.Transform(X)
	}
	return X
}

// PredictProba takes raw feature rows.
func (t Trained) PredictProba(X [][]float64) []float64 {
	return t.Model.PredictProba(t.input(X))
}

func (t Trained) Predict(X [][]float64) []int {
	return t.Model.Predict(t.input(X))
}

// Result is the outcome of one training run.
type Result struct {
	Split  Split
	Scaler *StandardScaler
	Models []Trained
}

// Model returns the trained model called name.
func (r *Result) Model(name string) (Trained, bool) {
	for _, m := range r.Models {
		if m.Name == name {
			return m, true
		}
	}
	return Trained{}, false
}

// Evaluations lists every model's held-out evaluation in strategy order.
func (r *Result) Evaluations() []Evaluation {
	out := make([]Evaluation, len(r.Models))
	for i, m := range r.Models {
		out[i] = m.Evaluation
	}
	return out
}

type Trainer struct {
	strategies []Strategy
	testFrac   float64
	seed       int64
	sink       Sink
}

func NewTrainer(strategies []Strategy, testFrac float64, seed int64) *Trainer {
	return &Trainer{strategies: strategies, testFrac: testFrac, seed: seed}
}

// WithSink persists every fitted artifact after training.
func (t *Trainer) WithSink(s Sink) *Trainer {
	t.sink = s
	return t
}

// Strategies exposes the configured strategies, e.g. to decode stored models.
func (t *Trainer) Strategies() []Strategy { return t.strategies }

// Split partitions X and y the same way Train does.
func (t *Trainer) Split(X [][]float64, y []int) (Split, error) {
	train, test, err := StratifiedSplit(y, t.testFrac, t.seed)
	if err != nil {
		return Split{}, err
	}
	return Apply(X, y, train, test), nil
}

// Train splits the matrix, fits the scaler on the training rows, then fits and
// evaluates every strategy on the same split.
func (t *Trainer) Train(ctx context.Context, X [][]float64, y []int, features []string) (*Result, error) {
	s, err := t.Split(X, y)
	if err != nil {
		return nil, err
	}
	scaler := &StandardScaler{}
	if err := scaler.Fit(s.XTrain); err != nil {
		return nil, err
	}
	res := &Result{Split: s, Scaler: scaler}
	xScaled := scaler.Transform(s.XTrain)

	for _, st := range t.strategies {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		m := st.New()
		xTrain := s.XTrain
		tr := Trained{Name: st.Name, Model: m}
		if st.Scaled {
			xTrain = xScaled
			tr.Scaler = scaler
		}
		if err := m.Fit(xTrain, s.YTrain); err != nil {
			return nil, fmt.Errorf("train %s: %w", st.Name, err)
		}
		tr.Evaluation = evaluate(tr, s)
		res.Models = append(res.Models, tr)
	}

	if t.sink != nil {
		if err := t.persist(ctx, res, features); err != nil {
			return nil, err
		}
	}
	return res, nil
}

// Evaluate binds already fitted models to a split and scores them, for runs
// that reuse stored artifacts.
func (t *Trainer) Evaluate(s Split, scaler *StandardScaler, models map[string]Classifier) (*Result, error) {
	res := &Result{Split: s, Scaler: scaler}
	for _, st := range t.strategies {
		m, ok := models[st.Name]
		if !ok {
			return nil, fmt.Errorf("evaluate: no model %q", st.Name)
		}
		tr := Trained{Name: st.Name, Model: m}
		if st.Scaled {
			tr.Scaler = scaler
		}
		tr.Evaluation = evaluate(tr, s)
		res.Models = append(res.Models, tr)
	}
	return res, nil
}

func (t *Trainer) persist(ctx context.Context, res *Result, features []string) error {
	for _, m := range res.Models {
		if err := t.sink.Save(ctx, m.Name, m.Model); err != nil {
			return fmt.Errorf("save %s: %w", m.Name, err)
		}
	}
	if err := t.sink.Save(ctx, NameScaler, res.Scaler); err != nil {
		return fmt.Errorf("save %s: %w", NameScaler, err)
	}
	if err := t.sink.Save(ctx, NameFeatures, features); err != nil {
		return fmt.Errorf("save %s: %w", NameFeatures, err)
	}
	return t.sink.Commit(ctx, features)
}

func evaluate(tr Trained, s Split) Evaluation {
	prob := tr.PredictProba(s.XTest)
	return Evaluate(tr.Name, s.YTest, threshold(prob), prob)
}
