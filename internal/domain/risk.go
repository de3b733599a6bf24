package domain

import (
	"strings"
	"time"
)

// RiskTier is an ordinal churn-risk bucket.
type RiskTier string

const (
	TierLow      RiskTier = "Low Risk"
	TierMedium   RiskTier = "Medium Risk"
	TierHigh     RiskTier = "High Risk"
	TierCritical RiskTier = "Critical Risk"
)

// RiskTiers lists the tiers from lowest to highest.
var RiskTiers = []RiskTier{TierLow, TierMedium, TierHigh, TierCritical}

// Rank returns the ordinal position of t (0 = Low), or -1 for an unknown tier.
func (t RiskTier) Rank() int {
	for i, v := range RiskTiers {
		if v == t {
			return i
		}
	}
	return -1
}

// ParseRiskTier accepts either the full label ("High Risk") or its first word ("high").
func ParseRiskTier(s string) (RiskTier, bool) {
	for _, t := range RiskTiers {
		if strings.EqualFold(s, string(t)) || strings.EqualFold(s+" risk", string(t)) {
			return t, true
		}
	}
	return "", false
}

// ScoredCustomer is a customer record extended with the model's churn probability.
type ScoredCustomer struct {
	Customer
	ChurnProbability float64
	RiskCategory     RiskTier
}

// ScoringRun describes one persisted batch scoring run.
type ScoringRun struct {
	ID         string
	Model      string
	CreatedAt  time.Time
	Customers  int
	TierCounts map[RiskTier]int
}

// CustomerRisk is the persisted, read-side view of one scored customer.
type CustomerRisk struct {
	RunID            string
	Email            string
	ChurnProbability float64
	RiskCategory     RiskTier
	TotalBookings    int
	Churned          bool
	CustomerType     string
	PrimaryPlatform  string
	PrimaryChannel   string
	TenureDays       int
}

// RiskQuery filters the persisted scores of the latest run.
type RiskQuery struct {
	Tier  *RiskTier
	Limit int
}

type RiskPage struct {
	RunID string
	Items []CustomerRisk
}
