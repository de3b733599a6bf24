package features

import (
	"math"
	"time"

	"hotel_churn/internal/domain"
)

// Summary is the dataset overview printed before feature engineering.
type Summary struct {
	Rows      int
	Churned   int
	Retained  int
	ChurnRate float64
	FirstDate time.Time
	LastDate  time.Time
	Missing   map[string]int // column -> empty/NaN count, only columns with gaps
}

func Summarize(bookings []domain.Booking) Summary {
	s := Summary{Rows: len(bookings), Missing: map[string]int{}}
	for i, b := range bookings {
		if b.Churned {
			s.Churned++
		} else {
			s.Retained++
		}
		if i == 0 || b.BookedAt.Before(s.FirstDate) {
			s.FirstDate = b.BookedAt
		}
		if i == 0 || b.BookedAt.After(s.LastDate) {
			s.LastDate = b.BookedAt
		}
		if b.CancelledAt == nil {
			s.Missing[domain.ColCancelDate]++
		}
		for _, col := range []string{domain.ColCustomerType, domain.ColPlatform, domain.ColMarketingChannel} {
			if v, _ := b.CategoryValue(col); v == "" {
				s.Missing[col]++
			}
		}
		for _, col := range NumericColumns {
			if v, _ := b.NumericValue(col); math.IsNaN(v) {
				s.Missing[col]++
			}
		}
	}
	if s.Rows > 0 {
		s.ChurnRate = float64(s.Churned) / float64(s.Rows)
	}
	return s
}

// NumericColumns are the booking-level engagement columns analysed against churn.
var NumericColumns = []string{
	domain.ColVisitMinutes, domain.ColVisitPages, domain.ColLandingPages,
	domain.ColSearchPages, domain.ColPropertyPages, domain.ColConfirmationPages,
	domain.ColBounceVisits, domain.ColDestinationsSearched, domain.ColHotelStarRating,
}

// CategoricalColumns are the booking-level columns tested for independence from churn.
var CategoricalColumns = []string{
	domain.ColCustomerType, domain.ColLoyaltyTier, domain.ColPlatform, domain.ColMarketingChannel,
	domain.ColCouponFlag, domain.ColPayNowFlag, domain.ColCancelFlag,
}
