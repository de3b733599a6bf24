package features

import (
	"math"

	"hotel_churn/internal/domain"
)

// UnknownLevel replaces absent categorical levels.
const UnknownLevel = "Unknown"

// Derive computes the behavioural ratios and calendar fields of one booking.
//
// A ratio whose denominator is zero is 0, never NaN or an error. That makes a
// zero-duration visit indistinguishable from a visit with no engagement at all;
// downstream consumers see the same 0 for both.
func Derive(b domain.Booking) domain.EngineeredBooking {
	e := domain.EngineeredBooking{Booking: b}
	if e.MarketingChannel == "" {
		e.MarketingChannel = UnknownLevel
	}

	e.PagesPerMinute = ratio(b.VisitPages, b.VisitMinutes)
	e.PropertyPageRatio = ratio(b.PropertyPages, b.VisitPages)
	e.SearchEfficiency = ratio(b.DestinationsSearched, b.VisitMinutes)

	e.BookingMonth = int(b.BookedAt.Month())
	e.BookingWeekday = (int(b.BookedAt.Weekday()) + 6) % 7

	if b.CancelledAt != nil {
		d := int(math.Floor(b.CancelledAt.Sub(b.BookedAt).Hours() / 24))
		e.DaysToCancel = &d
	}
	return e
}

// DeriveAll applies Derive to every booking, preserving input order.
func DeriveAll(bookings []domain.Booking) []domain.EngineeredBooking {
	out := make([]domain.EngineeredBooking, len(bookings))
	for i, b := range bookings {
		out[i] = Derive(b)
	}
	return out
}

// ratio divides num by den, yielding 0 unless den is strictly positive.
// A NaN numerator over a positive denominator stays NaN.
func ratio(num, den float64) float64 {
	if den > 0 {
		return num / den
	}
	return 0
}
