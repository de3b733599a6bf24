package domain

import (
	"math"
	"time"
)

// Customer is the per-identity aggregate of all bookings sharing an email.
// Averages are NaN when every contributing booking left the field empty.
type Customer struct {
	Email string

	TotalBookings     int
	Churned           bool
	CouponBookings    int
	CouponRate        float64
	PayNowBookings    int
	PayNowRate        float64
	CancelledBookings int
	CancellationRate  float64
	MaxLoyaltyTier    int

	PrimaryPlatform string
	PrimaryChannel  string
	CustomerType    string

	AvgVisitMinutes         float64
	AvgVisitPages           float64
	AvgSearchPages          float64
	AvgPropertyPages        float64
	AvgBounceVisits         float64
	AvgDestinationsSearched float64
	AvgStarRating           float64
	AvgPagesPerMinute       float64
	AvgPropertyRatio        float64

	FirstBooking time.Time
	LastBooking  time.Time
	TenureDays   int
}

// Customer table column names.
const (
	ColTotalBookings      = "total_bookings"
	ColChurned            = "churned"
	ColCouponBookings     = "coupon_bookings"
	ColCouponRate         = "coupon_rate"
	ColPayNowBookings     = "pay_now_bookings"
	ColPayNowRate         = "pay_now_rate"
	ColCancelledBookings  = "cancelled_bookings"
	ColCancellationRate   = "cancellation_rate"
	ColMaxLoyaltyTier     = "max_loyalty_tier"
	ColPrimaryPlatform    = "primary_platform"
	ColPrimaryChannel     = "primary_channel"
	ColAvgVisitMinutes    = "avg_visit_minutes"
	ColAvgVisitPages      = "avg_visit_pages"
	ColAvgSearchPages     = "avg_search_pages"
	ColAvgPropertyPages   = "avg_property_pages"
	ColAvgBounceVisits    = "avg_bounce_visits"
	ColAvgDestinations    = "avg_destinations_searched"
	ColAvgStarRating      = "avg_star_rating"
	ColAvgPagesPerMinute  = "avg_pages_per_minute"
	ColAvgPropertyRatio   = "avg_property_ratio"
	ColTenureDays         = "tenure_days"
	ColFirstBooking       = "first_booking"
	ColLastBooking        = "last_booking"
	ColCustomerTypeLatest = ColCustomerType
)

// CustomerNumericColumns is the numeric part of the customer table in table order.
var CustomerNumericColumns = []string{
	ColTotalBookings, ColChurned,
	ColCouponBookings, ColCouponRate,
	ColPayNowBookings, ColPayNowRate,
	ColCancelledBookings, ColCancellationRate,
	ColMaxLoyaltyTier,
	ColAvgVisitMinutes, ColAvgVisitPages, ColAvgSearchPages, ColAvgPropertyPages,
	ColAvgBounceVisits, ColAvgDestinations, ColAvgStarRating,
	ColAvgPagesPerMinute, ColAvgPropertyRatio,
	ColTenureDays,
}

// CustomerCategoricalColumns are the text columns of the customer table.
var CustomerCategoricalColumns = []string{ColPrimaryPlatform, ColPrimaryChannel, ColCustomerTypeLatest}

// Numeric returns the value of a numeric customer column, NaN for unknown names.
func (c Customer) Numeric(col string) float64 {
	switch col {
	case ColTotalBookings:
		return float64(c.TotalBookings)
	case ColChurned:
		return boolf(c.Churned)
	case ColCouponBookings:
		return float64(c.CouponBookings)
	case ColCouponRate:
		return c.CouponRate
	case ColPayNowBookings:
		return float64(c.PayNowBookings)
	case ColPayNowRate:
		return c.PayNowRate
	case ColCancelledBookings:
		return float64(c.CancelledBookings)
	case ColCancellationRate:
		return c.CancellationRate
	case ColMaxLoyaltyTier:
		return float64(c.MaxLoyaltyTier)
	case ColAvgVisitMinutes:
		return c.AvgVisitMinutes
	case ColAvgVisitPages:
		return c.AvgVisitPages
	case ColAvgSearchPages:
		return c.AvgSearchPages
	case ColAvgPropertyPages:
		return c.AvgPropertyPages
	case ColAvgBounceVisits:
		return c.AvgBounceVisits
	case ColAvgDestinations:
		return c.AvgDestinationsSearched
	case ColAvgStarRating:
		return c.AvgStarRating
	case ColAvgPagesPerMinute:
		return c.AvgPagesPerMinute
	case ColAvgPropertyRatio:
		return c.AvgPropertyRatio
	case ColTenureDays:
		return float64(c.TenureDays)
	}
	return math.NaN()
}

// Categorical returns the level of a text customer column.
func (c Customer) Categorical(col string) string {
	switch col {
	case ColPrimaryPlatform:
		return c.PrimaryPlatform
	case ColPrimaryChannel:
		return c.PrimaryChannel
	case ColCustomerTypeLatest:
		return c.CustomerType
	}
	return ""
}

func boolf(v bool) float64 {
	if v {
		return 1
	}
	return 0
}
