// Package storage holds what the SQL backends share: the booking query and
// its row decoding.
package storage

import (
	"database/sql"
	"fmt"
	"math"

	"hotel_churn/internal/domain"
)

// SelectBookingsSQL is portable across MySQL and PostgreSQL.
const SelectBookingsSQL = `
SELECT
  booking_id, email_address, bk_date, cancel_date,
  customer_type, loyalty_tier, platform, marketing_channel,
  coupon_flag, pay_now_flag, cancel_flag,
  total_visit_minutes, total_visit_pages, landing_pages_count, search_pages_count,
  property_pages_count, bkg_confirmation_pages_count, bounce_visits_count,
  searched_destinations_count, hotel_star_rating, churn_flag
FROM bookings
ORDER BY bk_date, booking_id
`

// ScanBookings drains rows produced by SelectBookingsSQL.
// NULL numerics become NaN, NULL text becomes "". Flags must be 0 or 1 and
// loyalty_tier 0..2; anything else fails with ErrInvalidValue.
func ScanBookings(rows *sql.Rows) ([]domain.Booking, error) {
	defer rows.Close()
	var out []domain.Booking
	for rows.Next() {
		var (
			b                         domain.Booking
			cancel                    sql.NullTime
			ctype, platform, channel  sql.NullString
			loyalty                   int
			coupon, payNow, cancelled int
			churn                     int
			nums                      [9]sql.NullFloat64
		)
		if err := rows.Scan(
			&b.BookingID, &b.Email, &b.BookedAt, &cancel,
			&ctype, &loyalty, &platform, &channel,
			&coupon, &payNow, &cancelled,
			&nums[0], &nums[1], &nums[2], &nums[3], &nums[4], &nums[5], &nums[6], &nums[7], &nums[8],
			&churn,
		); err != nil {
			return nil, err
		}
		if loyalty < 0 || loyalty > 2 {
			return nil, fmt.Errorf("booking %s: %s %d: %w", b.BookingID, domain.ColLoyaltyTier, loyalty, domain.ErrInvalidValue)
		}
		flags := []struct {
			col string
			v   int
			dst *bool
		}{
			{domain.ColCouponFlag, coupon, &b.CouponUsed},
			{domain.ColPayNowFlag, payNow, &b.PayNow},
			{domain.ColCancelFlag, cancelled, &b.Cancelled},
			{domain.ColChurnFlag, churn, &b.Churned},
		}
		for _, f := range flags {
			if f.v != 0 && f.v != 1 {
				return nil, fmt.Errorf("booking %s: %s %d: %w", b.BookingID, f.col, f.v, domain.ErrInvalidValue)
			}
			*f.dst = f.v == 1
		}
		if cancel.Valid {
			t := cancel.Time
			b.CancelledAt = &t
		}
		b.CustomerType = ctype.String
		b.Platform = platform.String
		b.MarketingChannel = channel.String
		b.LoyaltyTier = loyalty

		dst := []*float64{
			&b.VisitMinutes, &b.VisitPages, &b.LandingPages, &b.SearchPages,
			&b.PropertyPages, &b.ConfirmationPages, &b.BounceVisits,
			&b.DestinationsSearched, &b.HotelStarRating,
		}
		for i, n := range nums {
			*dst[i] = math.NaN()
			if n.Valid {
				*dst[i] = n.Float64
			}
		}
		out = append(out, b)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("bookings table: %w", domain.ErrEmptyInput)
	}
	return out, nil
}
