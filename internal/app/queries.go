package app

import (
	"context"
	"fmt"
	"strings"
	"time"

	"hotel_churn/internal/domain"
)

// LatestRunKey caches the id of the most recent persisted scoring run.
// Per-customer keys embed the run id, so dropping this key retires them all.
const LatestRunKey = "risk:latest"

type QueryService struct {
	repo     domain.ScoreRepository
	cache    domain.Cache
	cacheTTL time.Duration
}

func NewQueryService(r domain.ScoreRepository, c domain.Cache, ttl time.Duration) *QueryService {
	return &QueryService{repo: r, cache: c, cacheTTL: ttl}
}

func (s *QueryService) LatestRun(ctx context.Context) (domain.ScoringRun, error) {
	var run domain.ScoringRun
	if ok, _ := s.cache.Get(ctx, LatestRunKey, &run); ok {
		return run, nil
	}
	run, err := s.repo.LatestRun(ctx)
	if err != nil {
		return domain.ScoringRun{}, err
	}
	_ = s.cache.Set(ctx, LatestRunKey, run, int(s.cacheTTL.Seconds()))
	return run, nil
}

func (s *QueryService) GetCustomerRisk(ctx context.Context, email string) (domain.CustomerRisk, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	run, err := s.LatestRun(ctx)
	if err != nil {
		return domain.CustomerRisk{}, err
	}
	key := fmt.Sprintf("risk:%s:customer:%s", run.ID, email)
	var cr domain.CustomerRisk
	if ok, _ := s.cache.Get(ctx, key, &cr); ok {
		return cr, nil
	}
	cr, err = s.repo.GetCustomerRisk(ctx, email)
	if err != nil {
		return domain.CustomerRisk{}, err
	}
	_ = s.cache.Set(ctx, key, cr, int(s.cacheTTL.Seconds()))
	return cr, nil
}

func (s *QueryService) ListRisk(ctx context.Context, q domain.RiskQuery) (domain.RiskPage, error) {
	run, err := s.LatestRun(ctx)
	if err != nil {
		return domain.RiskPage{}, err
	}
	tier := "all"
	if q.Tier != nil {
		tier = string(*q.Tier)
	}
	key := fmt.Sprintf("risk:%s:list:%s:%d", run.ID, tier, q.Limit)
	var out domain.RiskPage
	if ok, _ := s.cache.Get(ctx, key, &out); ok {
		return out, nil
	}

	page, err := s.repo.ListRisk(ctx, q)
	if err != nil {
		return domain.RiskPage{}, err
	}
	// copy slice to avoid aliasing the repo's backing array
	out = domain.RiskPage{RunID: page.RunID, Items: append([]domain.CustomerRisk(nil), page.Items...)}
	_ = s.cache.Set(ctx, key, out, int(s.cacheTTL.Seconds()))
	return out, nil
}
