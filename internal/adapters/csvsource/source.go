// Package csvsource reads booking rows from a delimited text file.
package csvsource

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"hotel_churn/internal/domain"
)

// Source implements domain.BookingSource over a CSV file with a header row.
type Source struct {
	path string
}

func New(path string) *Source {
	return &Source{path: path}
}

func (s *Source) LoadBookings(ctx context.Context) ([]domain.Booking, error) {
	f, err := os.Open(s.path)
	if err != nil {
		return nil, fmt.Errorf("open bookings: %w", err)
	}
	defer f.Close()
	rows, err := Parse(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", s.path, err)
	}
	log.Info().Str("path", s.path).Int("rows", len(rows)).Msg("bookings loaded")
	return rows, nil
}

var dateLayouts = []string{
	"2006-01-02",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	time.RFC3339,
	"01/02/2006",
	"1/2/2006",
	"1/2/2006 15:04",
}

// Parse reads every row, failing on the first missing column or invalid value.
// Empty numeric cells become NaN; an unparseable cancel date becomes nil.
func Parse(ctx context.Context, r io.Reader) ([]domain.Booking, error) {
	cr := csv.NewReader(r)
	cr.ReuseRecord = true
	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("no header: %w", domain.ErrEmptyInput)
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	idx, err := columnIndex(header)
	if err != nil {
		return nil, err
	}

	var out []domain.Booking
	for line := 2; ; line++ {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		if line%10000 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		p := rowParser{rec: rec, idx: idx, line: line}
		b := p.booking()
		if p.err != nil {
			return nil, p.err
		}
		out = append(out, b)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("no booking rows: %w", domain.ErrEmptyInput)
	}
	return out, nil
}

func columnIndex(header []string) (map[string]int, error) {
	idx := make(map[string]int, len(header))
	for i, h := range header {
		h = strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
		idx[h] = i
	}
	var missing []string
	for _, c := range domain.BookingColumns {
		if _, ok := idx[c]; !ok {
			missing = append(missing, c)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%s: %w", strings.Join(missing, ", "), domain.ErrMissingColumn)
	}
	return idx, nil
}

// rowParser keeps the first error so a row parses in straight-line code.
type rowParser struct {
	rec  []string
	idx  map[string]int
	line int
	err  error
}

func (p *rowParser) raw(col string) string {
	return strings.TrimSpace(p.rec[p.idx[col]])
}

func (p *rowParser) fail(col, v, why string) {
	if p.err == nil {
		p.err = fmt.Errorf("line %d column %s: %q %s: %w", p.line, col, v, why, domain.ErrInvalidValue)
	}
}

func missing(v string) bool {
	switch strings.ToLower(v) {
	case "", "na", "nan", "null", "none", "nat":
		return true
	}
	return false
}

func (p *rowParser) text(col string) string {
	v := p.raw(col)
	if missing(v) {
		return ""
	}
	return v
}

func (p *rowParser) number(col string) float64 {
	v := p.raw(col)
	if missing(v) {
		return math.NaN()
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		p.fail(col, v, "is not a number")
		return math.NaN()
	}
	return f
}

func (p *rowParser) integer(col string, lo, hi int) int {
	v := p.raw(col)
	f, err := strconv.ParseFloat(v, 64)
	if err != nil || f != math.Trunc(f) || f < float64(lo) || f > float64(hi) {
		p.fail(col, v, fmt.Sprintf("is not an integer in %d..%d", lo, hi))
		return 0
	}
	return int(f)
}

func (p *rowParser) flag(col string) bool {
	return p.integer(col, 0, 1) == 1
}

func parseDate(v string) (time.Time, bool) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, v); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

func (p *rowParser) booking() domain.Booking {
	b := domain.Booking{
		BookingID:        p.raw(domain.ColBookingID),
		Email:            p.raw(domain.ColEmail),
		CustomerType:     p.text(domain.ColCustomerType),
		LoyaltyTier:      p.integer(domain.ColLoyaltyTier, 0, 2),
		Platform:         p.text(domain.ColPlatform),
		MarketingChannel: p.text(domain.ColMarketingChannel),
		CouponUsed:       p.flag(domain.ColCouponFlag),
		PayNow:           p.flag(domain.ColPayNowFlag),
		Cancelled:        p.flag(domain.ColCancelFlag),

		VisitMinutes:         p.number(domain.ColVisitMinutes),
		VisitPages:           p.number(domain.ColVisitPages),
		LandingPages:         p.number(domain.ColLandingPages),
		SearchPages:          p.number(domain.ColSearchPages),
		PropertyPages:        p.number(domain.ColPropertyPages),
		ConfirmationPages:    p.number(domain.ColConfirmationPages),
		BounceVisits:         p.number(domain.ColBounceVisits),
		DestinationsSearched: p.number(domain.ColDestinationsSearched),
		HotelStarRating:      p.number(domain.ColHotelStarRating),

		Churned: p.flag(domain.ColChurnFlag),
	}
	if b.Email == "" {
		p.fail(domain.ColEmail, "", "is empty")
	}

	bk := p.raw(domain.ColBookingDate)
	if t, ok := parseDate(bk); ok {
		b.BookedAt = t
	} else {
		p.fail(domain.ColBookingDate, bk, "is not a date")
	}
	if t, ok := parseDate(p.raw(domain.ColCancelDate)); ok {
		b.CancelledAt = &t
	}
	return b
}
