package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"hotel_churn/internal/adapters/observability"
	"hotel_churn/internal/artifacts"
	"hotel_churn/internal/domain"
	"hotel_churn/internal/features"
	"hotel_churn/internal/matrix"
	"hotel_churn/internal/model"
	"hotel_churn/internal/risk"
	"hotel_churn/internal/stats"
)

type PipelineConfig struct {
	Order         features.Order
	Variance      stats.Variance
	ScoringModel  string
	ReuseModels   bool
	PersistScores bool
	TopN          int
}

// RunResult is everything one batch run produced, for reporting.
type RunResult struct {
	RunID      string
	StartedAt  time.Time
	Summary    features.Summary
	TTests     []stats.TTestResult
	ChiSquares []stats.ChiSquareResult

	Customers         int
	CustomerChurnRate float64
	FeatureColumns    []string
	TrainSize         int
	TestSize          int

	Reused      bool
	Evaluations []model.Evaluation
	Best        model.Evaluation
	OddsRatios  []model.OddsRatio
	Importances []model.Importance

	ScoringModel string
	Scored       []domain.ScoredCustomer
	Risk         risk.Summary
	Persisted    bool
}

// PipelineService runs booking ingestion through risk scoring once per call.
type PipelineService struct {
	src     domain.BookingSource
	trainer *model.Trainer
	cfg     PipelineConfig

	registry *artifacts.Registry
	scores   domain.ScoreRepository
	cache    domain.Cache
	now      func() time.Time
}

func NewPipelineService(src domain.BookingSource, trainer *model.Trainer, cfg PipelineConfig) *PipelineService {
	if cfg.ScoringModel == "" {
		cfg.ScoringModel = model.NameForest
	}
	return &PipelineService{src: src, trainer: trainer, cfg: cfg, now: time.Now}
}

// WithArtifacts persists fitted models to reg and, with ReuseModels, loads them back.
func (s *PipelineService) WithArtifacts(reg *artifacts.Registry) *PipelineService {
	s.registry = reg
	return s
}

// WithScores persists scored customers when PersistScores is set. cache may
// be nil; otherwise the cached latest run is dropped after each save.
func (s *PipelineService) WithScores(repo domain.ScoreRepository, cache domain.Cache) *PipelineService {
	s.scores, s.cache = repo, cache
	return s
}

func stage(name string, fn func() error) error {
	start := time.Now()
	err := fn()
	dur := time.Since(start)
	observability.ObserveStage(name, dur)
	ev := log.Info()
	if err != nil {
		ev = log.Error().Err(err)
	}
	ev.Str("stage", name).Dur("took", dur).Msg("pipeline stage")
	return err
}

func (s *PipelineService) Run(ctx context.Context) (res *RunResult, err error) {
	defer func() { observability.ObserveRun(err) }()
	res = &RunResult{RunID: uuid.NewString(), StartedAt: s.now().UTC(), ScoringModel: s.cfg.ScoringModel}

	var bookings []domain.Booking
	if err := stage("load", func() (err error) {
		bookings, err = s.src.LoadBookings(ctx)
		if err == nil && len(bookings) == 0 {
			err = fmt.Errorf("load bookings: %w", domain.ErrEmptyInput)
		}
		return err
	}); err != nil {
		return nil, err
	}
	res.Summary = features.Summarize(bookings)

	var engineered []domain.EngineeredBooking
	_ = stage("derive", func() error {
		engineered = features.DeriveAll(bookings)
		return nil
	})

	_ = stage("statistics", func() error {
		res.TTests = stats.TTestBookings(engineered, features.NumericColumns, s.cfg.Variance)
		res.ChiSquares = stats.ChiSquareBookings(engineered, features.CategoricalColumns)
		for _, r := range res.TTests {
			if !r.Computable {
				log.Warn().Str("feature", r.Feature).Str("test", "t").Msg(r.Note)
			}
		}
		for _, r := range res.ChiSquares {
			if !r.Computable {
				log.Warn().Str("feature", r.Feature).Str("test", "chi2").Msg(r.Note)
			}
		}
		return nil
	})

	var customers []domain.Customer
	if err := stage("aggregate", func() (err error) {
		customers, err = features.NewAggregator(s.cfg.Order).Aggregate(engineered)
		return err
	}); err != nil {
		return nil, err
	}
	res.Customers = len(customers)
	churned := 0
	for _, c := range customers {
		if c.Churned {
			churned++
		}
	}
	res.CustomerChurnRate = float64(churned) / float64(len(customers))

	var built *matrix.Result
	if err := stage("matrix", func() (err error) {
		built, err = matrix.NewBuilder().Build(customers)
		return err
	}); err != nil {
		return nil, err
	}
	res.FeatureColumns = built.FeatureColumns

	var trained *model.Result
	if err := stage("models", func() (err error) {
		trained, res.Reused, err = s.models(ctx, built)
		return err
	}); err != nil {
		return nil, err
	}
	res.TrainSize, res.TestSize = len(trained.Split.TrainIdx), len(trained.Split.TestIdx)
	res.Evaluations = trained.Evaluations()
	res.Best, _ = model.Best(res.Evaluations)
	for _, e := range res.Evaluations {
		observability.SetModelScore(e.Model, "accuracy", e.Accuracy)
		observability.SetModelScore(e.Model, "f1", e.F1)
		observability.SetModelScore(e.Model, "roc_auc", e.ROCAUC)
	}

	if lr, ok := trained.Model(model.NameLogistic); ok {
		if m, ok := lr.Model.(*model.LogisticRegression); ok {
			if res.OddsRatios, err = model.OddsRatios(m, built.FeatureColumns); err != nil {
				return nil, err
			}
		}
	}
	if rf, ok := trained.Model(model.NameForest); ok {
		if f, ok := rf.Model.(*model.RandomForest); ok {
			if res.Importances, err = model.Importances(f, built.FeatureColumns); err != nil {
				return nil, err
			}
		}
	}

	scorer, ok := trained.Model(s.cfg.ScoringModel)
	if !ok {
		return nil, fmt.Errorf("scoring model %q was not trained", s.cfg.ScoringModel)
	}
	if err := stage("score", func() (err error) {
		res.Scored, err = risk.Score(scorer, built, customers)
		return err
	}); err != nil {
		return nil, err
	}
	res.Risk = risk.Summarize(res.Scored, s.cfg.TopN)
	for tier, n := range res.Risk.Counts {
		observability.ObserveScored(string(tier), n)
	}

	if s.cfg.PersistScores {
		if err := stage("persist", func() error { return s.persist(ctx, res) }); err != nil {
			return nil, err
		}
	}
	return res, nil
}

var requiredArtifacts = []string{
	model.NameLogistic, model.NameForest, model.NameBoosting, model.NameScaler, model.NameFeatures,
}

// models reuses a complete stored artifact set with matching feature columns,
// and trains from scratch otherwise.
func (s *PipelineService) models(ctx context.Context, built *matrix.Result) (*model.Result, bool, error) {
	X, y := built.X.Rows, built.Y
	if s.cfg.ReuseModels && s.registry != nil {
		res, err := s.reuse(ctx, X, y, built.FeatureColumns)
		switch {
		case err == nil:
			return res, true, nil
		case errors.Is(err, domain.ErrArtifactMissing), errors.Is(err, domain.ErrSchemaMismatch):
			log.Warn().Err(err).Msg("stored models unusable, retraining")
		default:
			return nil, false, err
		}
	}

	tr := s.trainer
	if s.registry != nil {
		tr = tr.WithSink(s.registry)
	}
	res, err := tr.Train(ctx, X, y, built.FeatureColumns)
	return res, false, err
}

func (s *PipelineService) reuse(ctx context.Context, X [][]float64, y []int, features []string) (*model.Result, error) {
	ok, err := s.registry.Complete(ctx, requiredArtifacts)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("incomplete artifact set: %w", domain.ErrArtifactMissing)
	}
	loaded, err := s.registry.Load(ctx, s.trainer.Strategies())
	if err != nil {
		return nil, err
	}
	if err := matrix.SameColumns(features, loaded.Features); err != nil {
		return nil, fmt.Errorf("stored feature columns: %w", err)
	}
	split, err := s.trainer.Split(X, y)
	if err != nil {
		return nil, err
	}
	log.Info().Str("artifact_run", loaded.Manifest.RunID).Msg("reusing stored models")
	return s.trainer.Evaluate(split, loaded.Scaler, loaded.Models)
}

func (s *PipelineService) persist(ctx context.Context, res *RunResult) error {
	if s.scores == nil {
		return fmt.Errorf("persist scores: no score repository configured")
	}
	run := domain.ScoringRun{
		ID:         res.RunID,
		Model:      res.ScoringModel,
		CreatedAt:  res.StartedAt,
		Customers:  len(res.Scored),
		TierCounts: res.Risk.Counts,
	}
	if err := s.scores.SaveRun(ctx, run, res.Scored); err != nil {
		return fmt.Errorf("persist scores: %w", err)
	}
	res.Persisted = true
	if s.cache != nil {
		if err := s.cache.Del(ctx, LatestRunKey); err != nil {
			log.Warn().Err(err).Msg("drop cached latest run")
		}
	}
	return nil
}
