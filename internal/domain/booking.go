package domain

import (
	"strconv"
	"time"
)

// Booking is one transaction row as read from the booking source.
// Optional numeric fields hold NaN when the source left them empty.
type Booking struct {
	BookingID        string
	Email            string // customer identity
	BookedAt         time.Time
	CancelledAt      *time.Time
	CustomerType     string
	LoyaltyTier      int // 0 none, 1 base, 2 silver/gold
	Platform         string
	MarketingChannel string

	CouponUsed bool
	PayNow     bool
	Cancelled  bool

	VisitMinutes         float64
	VisitPages           float64
	LandingPages         float64
	SearchPages          float64
	PropertyPages        float64
	ConfirmationPages    float64
	BounceVisits         float64
	DestinationsSearched float64
	HotelStarRating      float64

	Churned bool
}

// EngineeredBooking is a booking plus the derived behavioural fields.
type EngineeredBooking struct {
	Booking

	PagesPerMinute    float64
	PropertyPageRatio float64
	SearchEfficiency  float64
	BookingMonth      int
	BookingWeekday    int  // Monday=0 .. Sunday=6
	DaysToCancel      *int // nil when never cancelled
}

// Column names of the tabular input. The ingestion layer requires every one of them.
const (
	ColBookingID            = "booking_id"
	ColEmail                = "email_address"
	ColBookingDate          = "bk_date"
	ColCancelDate           = "cancel_date"
	ColCustomerType         = "customer_type"
	ColLoyaltyTier          = "loyalty_tier"
	ColPlatform             = "platform"
	ColMarketingChannel     = "marketing_channel"
	ColCouponFlag           = "coupon_flag"
	ColPayNowFlag           = "pay_now_flag"
	ColCancelFlag           = "cancel_flag"
	ColVisitMinutes         = "total_visit_minutes"
	ColVisitPages           = "total_visit_pages"
	ColLandingPages         = "landing_pages_count"
	ColSearchPages          = "search_pages_count"
	ColPropertyPages        = "property_pages_count"
	ColConfirmationPages    = "bkg_confirmation_pages_count"
	ColBounceVisits         = "bounce_visits_count"
	ColDestinationsSearched = "searched_destinations_count"
	ColHotelStarRating      = "hotel_star_rating"
	ColChurnFlag            = "churn_flag"
)

// BookingColumns lists the required input columns in documented order.
var BookingColumns = []string{
	ColBookingID, ColEmail, ColBookingDate, ColCancelDate, ColCustomerType, ColLoyaltyTier,
	ColPlatform, ColMarketingChannel, ColCouponFlag, ColPayNowFlag, ColCancelFlag,
	ColVisitMinutes, ColVisitPages, ColLandingPages, ColSearchPages, ColPropertyPages,
	ColConfirmationPages, ColBounceVisits, ColDestinationsSearched, ColHotelStarRating,
	ColChurnFlag,
}

// NumericValue returns the engagement counter stored under col.
func (b Booking) NumericValue(col string) (float64, bool) {
	switch col {
	case ColVisitMinutes:
		return b.VisitMinutes, true
	case ColVisitPages:
		return b.VisitPages, true
	case ColLandingPages:
		return b.LandingPages, true
	case ColSearchPages:
		return b.SearchPages, true
	case ColPropertyPages:
		return b.PropertyPages, true
	case ColConfirmationPages:
		return b.ConfirmationPages, true
	case ColBounceVisits:
		return b.BounceVisits, true
	case ColDestinationsSearched:
		return b.DestinationsSearched, true
	case ColHotelStarRating:
		return b.HotelStarRating, true
	}
	return 0, false
}

// CategoryValue returns the categorical level of col as text; "" means missing.
func (b Booking) CategoryValue(col string) (string, bool) {
	switch col {
	case ColCustomerType:
		return b.CustomerType, true
	case ColLoyaltyTier:
		return strconv.Itoa(b.LoyaltyTier), true
	case ColPlatform:
		return b.Platform, true
	case ColMarketingChannel:
		return b.MarketingChannel, true
	case ColCouponFlag:
		return flag(b.CouponUsed), true
	case ColPayNowFlag:
		return flag(b.PayNow), true
	case ColCancelFlag:
		return flag(b.Cancelled), true
	}
	return "", false
}

func flag(v bool) string {
	if v {
		return "1"
	}
	return "0"
}
