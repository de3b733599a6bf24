package features_test

import (
	"math"
	"testing"
	"time"

	"hotel_churn/internal/domain"
	"hotel_churn/internal/features"
)

func TestDerive_ZeroMinutesYieldsZeroRatios(t *testing.T) {
	for _, pages := range []float64{0, 3, 250} {
		e := features.Derive(domain.Booking{
			BookedAt:             time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC),
			VisitMinutes:         0,
			VisitPages:           pages,
			DestinationsSearched: pages,
		})
		if e.PagesPerMinute != 0 || e.SearchEfficiency != 0 {
			t.Fatalf("pages=%v: want zero ratios, got ppm=%v eff=%v", pages, e.PagesPerMinute, e.SearchEfficiency)
		}
	}
}

func TestDerive_Ratios(t *testing.T) {
	cancel := time.Date(2024, 3, 9, 12, 0, 0, 0, time.UTC)
	e := features.Derive(domain.Booking{
		BookedAt:             time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC), // Monday
		CancelledAt:          &cancel,
		VisitMinutes:         10,
		VisitPages:           20,
		PropertyPages:        5,
		DestinationsSearched: 4,
	})
	if e.PagesPerMinute != 2 {
		t.Fatalf("pages per minute: got %v", e.PagesPerMinute)
	}
	if e.PropertyPageRatio != 0.25 {
		t.Fatalf("property ratio: got %v", e.PropertyPageRatio)
	}
	if math.Abs(e.SearchEfficiency-0.4) > 1e-12 {
		t.Fatalf("search efficiency: got %v", e.SearchEfficiency)
	}
	if e.BookingMonth != 3 || e.BookingWeekday != 0 {
		t.Fatalf("calendar fields: month=%d weekday=%d", e.BookingMonth, e.BookingWeekday)
	}
	if e.DaysToCancel == nil || *e.DaysToCancel != 5 {
		t.Fatalf("days to cancel: got %v", e.DaysToCancel)
	}
	if e.MarketingChannel != features.UnknownLevel {
		t.Fatalf("empty channel should become %q, got %q", features.UnknownLevel, e.MarketingChannel)
	}
}

func TestDerive_ZeroPagesYieldsZeroPropertyRatio(t *testing.T) {
	e := features.Derive(domain.Booking{VisitMinutes: 3, VisitPages: 0, PropertyPages: 2})
	if e.PropertyPageRatio != 0 {
		t.Fatalf("want 0, got %v", e.PropertyPageRatio)
	}
	if e.DaysToCancel != nil {
		t.Fatalf("never cancelled booking must have nil days to cancel")
	}
}
