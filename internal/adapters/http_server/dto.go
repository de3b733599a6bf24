package httpserver

import (
	"time"

	"hotel_churn/internal/domain"
)

type runJSON struct {
	ID        string         `json:"id"`
	Model     string         `json:"model"`
	CreatedAt time.Time      `json:"created_at"`
	Customers int            `json:"customers"`
	Tiers     map[string]int `json:"tiers"`
}

type riskJSON struct {
	RunID            string  `json:"run_id"`
	Email            string  `json:"email"`
	ChurnProbability float64 `json:"churn_probability"`
	RiskCategory     string  `json:"risk_category"`
	TotalBookings    int     `json:"total_bookings"`
	Churned          bool    `json:"churned"`
	CustomerType     string  `json:"customer_type"`
	PrimaryPlatform  string  `json:"primary_platform"`
	PrimaryChannel   string  `json:"primary_channel"`
	TenureDays       int     `json:"tenure_days"`
}

type riskPageJSON struct {
	RunID string     `json:"run_id"`
	Items []riskJSON `json:"items"`
}

func toRunJSON(r domain.ScoringRun) runJSON {
	out := runJSON{ID: r.ID, Model: r.Model, CreatedAt: r.CreatedAt, Customers: r.Customers, Tiers: map[string]int{}}
	for _, t := range domain.RiskTiers {
		out.Tiers[string(t)] = r.TierCounts[t]
	}
	return out
}

func toRiskJSON(c domain.CustomerRisk) riskJSON {
	return riskJSON{
		RunID:            c.RunID,
		Email:            c.Email,
		ChurnProbability: c.ChurnProbability,
		RiskCategory:     string(c.RiskCategory),
		TotalBookings:    c.TotalBookings,
		Churned:          c.Churned,
		CustomerType:     c.CustomerType,
		PrimaryPlatform:  c.PrimaryPlatform,
		PrimaryChannel:   c.PrimaryChannel,
		TenureDays:       c.TenureDays,
	}
}
