// Package risk turns fitted churn probabilities into ordinal risk tiers.
package risk

import (
	"fmt"
	"sort"

	"hotel_churn/internal/domain"
	"hotel_churn/internal/matrix"
)

// Tier bounds, lower-inclusive.
const (
	MediumFrom   = 0.3
	HighFrom     = 0.5
	CriticalFrom = 0.7
)

// Prober is any fitted model that yields P(churn) for raw feature rows.
type Prober interface {
	PredictProba(X [][]float64) []float64
}

// Tier buckets a churn probability: [0,0.3) Low, [0.3,0.5) Medium,
// [0.5,0.7) High, [0.7,1] Critical.
func Tier(p float64) domain.RiskTier {
	switch {
	case p >= CriticalFrom:
		return domain.TierCritical
	case p >= HighFrom:
		return domain.TierHigh
	case p >= MediumFrom:
		return domain.TierMedium
	}
	return domain.TierLow
}

// Score applies m to every customer in the built matrix.
//
// This scores the whole population, training rows included. The result ranks
// customers descriptively; it is not a held-out measure of model quality.
func Score(m Prober, res *matrix.Result, customers []domain.Customer) ([]domain.ScoredCustomer, error) {
	if len(customers) != len(res.Emails) {
		return nil, fmt.Errorf("score: %d customers for %d matrix rows: %w",
			len(customers), len(res.Emails), domain.ErrSchemaMismatch)
	}
	for i, c := range customers {
		if c.Email != res.Emails[i] {
			return nil, fmt.Errorf("score: row %d is %q, matrix has %q: %w",
				i, c.Email, res.Emails[i], domain.ErrSchemaMismatch)
		}
	}
	probs := m.PredictProba(res.X.Rows)
	out := make([]domain.ScoredCustomer, len(customers))
	for i, c := range customers {
		out[i] = domain.ScoredCustomer{Customer: c, ChurnProbability: probs[i], RiskCategory: Tier(probs[i])}
	}
	return out, nil
}

// Summary counts customers per tier and their observed churn.
type Summary struct {
	Total   int
	Tiers   []TierStats
	Counts  map[domain.RiskTier]int
	Highest []domain.ScoredCustomer
}

type TierStats struct {
	Tier           domain.RiskTier
	Customers      int
	Share          float64
	Churned        int
	ObservedRate   float64
	AvgProbability float64
}

// Summarize groups scored customers by tier and keeps the top customers by probability.
func Summarize(scored []domain.ScoredCustomer, top int) Summary {
	s := Summary{Total: len(scored), Counts: map[domain.RiskTier]int{}}
	byTier := make([]TierStats, len(domain.RiskTiers))
	for i, t := range domain.RiskTiers {
		byTier[i].Tier = t
	}
	for _, c := range scored {
		r := c.RiskCategory.Rank()
		if r < 0 {
			continue
		}
		byTier[r].Customers++
		byTier[r].AvgProbability += c.ChurnProbability
		if c.Churned {
			byTier[r].Churned++
		}
	}
	for i := range byTier {
		ts := &byTier[i]
		s.Counts[ts.Tier] = ts.Customers
		if ts.Customers > 0 {
			ts.AvgProbability /= float64(ts.Customers)
			ts.ObservedRate = float64(ts.Churned) / float64(ts.Customers)
		}
		if s.Total > 0 {
			ts.Share = float64(ts.Customers) / float64(s.Total)
		}
	}
	s.Tiers = byTier
	s.Highest = Ranked(scored)
	if top >= 0 && top < len(s.Highest) {
		s.Highest = s.Highest[:top]
	}
	return s
}

// Ranked returns a copy ordered by probability descending, email ascending on ties.
func Ranked(scored []domain.ScoredCustomer) []domain.ScoredCustomer {
	out := append([]domain.ScoredCustomer(nil), scored...)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].ChurnProbability != out[j].ChurnProbability {
			return out[i].ChurnProbability > out[j].ChurnProbability
		}
		return out[i].Email < out[j].Email
	})
	return out
}
