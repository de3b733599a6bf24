package features

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"

	"hotel_churn/internal/domain"
)

// Order decides which booking is "last" in a customer's group and which level
// wins a mode tie.
type Order int

const (
	// Chronological orders each group by booking date, keeping input order on equal dates.
	Chronological Order = iota
	// InputOrder keeps the rows exactly as the source delivered them.
	InputOrder
)

func (o Order) String() string {
	if o == InputOrder {
		return "input"
	}
	return "chronological"
}

// ParseOrder maps "chronological" / "input" to an Order.
func ParseOrder(s string) (Order, error) {
	switch s {
	case "", "chronological", "date":
		return Chronological, nil
	case "input":
		return InputOrder, nil
	}
	return Chronological, fmt.Errorf("unknown aggregation order %q", s)
}

type Aggregator struct {
	order Order
}

func NewAggregator(order Order) *Aggregator {
	return &Aggregator{order: order}
}

// Aggregate collapses bookings into one Customer per distinct email, sorted by email.
//
//	booking count                 count
//	churn outcome                 max
//	coupon / pay-now / cancel     sum and mean
//	loyalty tier                  max
//	platform, marketing channel   mode, first-seen level wins ties, "Unknown" when empty
//	customer type                 last non-empty level in group order
//	engagement, star rating       mean over non-missing values
//	booking date                  min and max, tenure = max - min in whole days
func (a *Aggregator) Aggregate(rows []domain.EngineeredBooking) ([]domain.Customer, error) {
	if len(rows) == 0 {
		return nil, fmt.Errorf("aggregate customers: %w", domain.ErrEmptyInput)
	}

	groups := make(map[string][]int)
	for i, r := range rows {
		groups[r.Email] = append(groups[r.Email], i)
	}
	emails := make([]string, 0, len(groups))
	for e := range groups {
		emails = append(emails, e)
	}
	sort.Strings(emails)

	out := make([]domain.Customer, 0, len(emails))
	for _, email := range emails {
		idx := groups[email]
		if a.order == Chronological {
			sort.SliceStable(idx, func(i, j int) bool {
				return rows[idx[i]].BookedAt.Before(rows[idx[j]].BookedAt)
			})
		}
		out = append(out, a.reduce(email, rows, idx))
	}
	return out, nil
}

func (a *Aggregator) reduce(email string, rows []domain.EngineeredBooking, idx []int) domain.Customer {
	n := len(idx)
	c := domain.Customer{Email: email, TotalBookings: n}

	platforms := make([]string, 0, n)
	channels := make([]string, 0, n)
	var (
		minutes, pages, search, property, bounce, dest, stars, ppm, pratio []float64
	)

	for k, i := range idx {
		r := rows[i]
		if r.Churned {
			c.Churned = true
		}
		if r.CouponUsed {
			c.CouponBookings++
		}
		if r.PayNow {
			c.PayNowBookings++
		}
		if r.Cancelled {
			c.CancelledBookings++
		}
		if r.LoyaltyTier > c.MaxLoyaltyTier {
			c.MaxLoyaltyTier = r.LoyaltyTier
		}
		platforms = append(platforms, r.Platform)
		channels = append(channels, r.MarketingChannel)
		if r.CustomerType != "" {
			c.CustomerType = r.CustomerType
		}

		minutes = append(minutes, r.VisitMinutes)
		pages = append(pages, r.VisitPages)
		search = append(search, r.SearchPages)
		property = append(property, r.PropertyPages)
		bounce = append(bounce, r.BounceVisits)
		dest = append(dest, r.DestinationsSearched)
		stars = append(stars, r.HotelStarRating)
		ppm = append(ppm, r.PagesPerMinute)
		pratio = append(pratio, r.PropertyPageRatio)

		if k == 0 || r.BookedAt.Before(c.FirstBooking) {
			c.FirstBooking = r.BookedAt
		}
		if k == 0 || r.BookedAt.After(c.LastBooking) {
			c.LastBooking = r.BookedAt
		}
	}

	c.CouponRate = float64(c.CouponBookings) / float64(n)
	c.PayNowRate = float64(c.PayNowBookings) / float64(n)
	c.CancellationRate = float64(c.CancelledBookings) / float64(n)

	c.PrimaryPlatform = Mode(platforms)
	c.PrimaryChannel = Mode(channels)
	if c.CustomerType == "" {
		c.CustomerType = UnknownLevel
	}

	c.AvgVisitMinutes = MeanSkipNaN(minutes)
	c.AvgVisitPages = MeanSkipNaN(pages)
	c.AvgSearchPages = MeanSkipNaN(search)
	c.AvgPropertyPages = MeanSkipNaN(property)
	c.AvgBounceVisits = MeanSkipNaN(bounce)
	c.AvgDestinationsSearched = MeanSkipNaN(dest)
	c.AvgStarRating = MeanSkipNaN(stars)
	c.AvgPagesPerMinute = MeanSkipNaN(ppm)
	c.AvgPropertyRatio = MeanSkipNaN(pratio)

	c.TenureDays = int(c.LastBooking.Sub(c.FirstBooking).Hours() / 24)
	return c
}

// Mode returns the most frequent non-empty level; the level seen first wins a tie.
// With no non-empty level it returns UnknownLevel.
func Mode(levels []string) string {
	counts := make(map[string]int, len(levels))
	top := 0
	for _, l := range levels {
		if l == "" {
			continue
		}
		counts[l]++
		if counts[l] > top {
			top = counts[l]
		}
	}
	if top == 0 {
		return UnknownLevel
	}
	for _, l := range levels {
		if l != "" && counts[l] == top {
			return l
		}
	}
	return UnknownLevel
}

// MeanSkipNaN averages the non-NaN values, NaN when there are none.
func MeanSkipNaN(xs []float64) float64 {
	kept := xs[:0:0]
	for _, x := range xs {
		if !math.IsNaN(x) {
			kept = append(kept, x)
		}
	}
	if len(kept) == 0 {
		return math.NaN()
	}
	return stat.Mean(kept, nil)
}
