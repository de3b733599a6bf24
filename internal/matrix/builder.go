package matrix

import (
	"fmt"
	"math"

	"hotel_churn/internal/domain"
	"hotel_churn/internal/features"
)

// DefaultExclusions are the count columns left out of the model input because
// their rate counterparts carry the same information.
var DefaultExclusions = []string{
	domain.ColTotalBookings,
	domain.ColCouponBookings,
	domain.ColPayNowBookings,
	domain.ColCancelledBookings,
}

// Builder turns customer records into the numeric model input.
type Builder struct {
	exclude     []string
	categorical []string
}

func NewBuilder() *Builder {
	return &Builder{exclude: DefaultExclusions, categorical: domain.CustomerCategoricalColumns}
}

// WithExclusions replaces the declared exclusion list. Every name must be a
// numeric customer column; Build fails otherwise.
func (b *Builder) WithExclusions(cols ...string) *Builder {
	b.exclude = cols
	return b
}

// Result is everything downstream stages need from one Build.
type Result struct {
	X              *Frame   // model input, columns == FeatureColumns
	Y              []int    // churn outcome, row-aligned with X
	FeatureColumns []string // the column order every model and artifact honours
	Encoded        *Frame   // full dummy-encoded table for population scoring
	Emails         []string // row identity for Encoded and X
	Labels         []LabelEncoding
	Dummies        []DummyGroup
}

// Build drops identity and date columns, fills missing numerics with 0,
// label-encodes and one-hot encodes the categorical columns and selects the
// feature columns.
func (b *Builder) Build(customers []domain.Customer) (*Result, error) {
	if len(customers) == 0 {
		return nil, fmt.Errorf("build feature matrix: %w", domain.ErrEmptyInput)
	}
	if err := b.validate(); err != nil {
		return nil, err
	}

	res := &Result{Emails: make([]string, len(customers)), Y: make([]int, len(customers))}
	levels := make(map[string][]string, len(b.categorical))
	for _, col := range b.categorical {
		vals := make([]string, len(customers))
		for i, c := range customers {
			v := c.Categorical(col)
			if v == "" {
				v = features.UnknownLevel
			}
			vals[i] = v
		}
		levels[col] = vals
		res.Labels = append(res.Labels, FitLabelEncoding(col, vals))
		res.Dummies = append(res.Dummies, NewDummyGroup(col, vals))
	}

	cols := append([]string(nil), domain.CustomerNumericColumns...)
	for _, le := range res.Labels {
		cols = append(cols, le.EncodedColumn())
	}
	for _, g := range res.Dummies {
		cols = append(cols, g.Columns...)
	}

	enc := &Frame{Columns: cols, Rows: make([][]float64, len(customers))}
	for i, c := range customers {
		row := make([]float64, 0, len(cols))
		for _, col := range domain.CustomerNumericColumns {
			v := c.Numeric(col)
			if math.IsNaN(v) {
				v = 0
			}
			row = append(row, v)
		}
		for _, le := range res.Labels {
			row = append(row, float64(le.Encode(levels[le.Column][i])))
		}
		for _, g := range res.Dummies {
			row = append(row, g.Indicators(levels[g.Source][i])...)
		}
		enc.Rows[i] = row
		res.Emails[i] = c.Email
		if c.Churned {
			res.Y[i] = 1
		}
	}
	res.Encoded = enc
	res.FeatureColumns = b.featureColumns(res)

	x, err := enc.Select(res.FeatureColumns)
	if err != nil {
		return nil, err
	}
	res.X = x
	return res, nil
}

func (b *Builder) validate() error {
	known := make(map[string]bool, len(domain.CustomerNumericColumns))
	for _, c := range domain.CustomerNumericColumns {
		known[c] = true
	}
	for _, c := range b.exclude {
		if !known[c] {
			return fmt.Errorf("exclusion %q is not a customer column: %w", c, domain.ErrSchemaMismatch)
		}
	}
	return nil
}

func (b *Builder) featureColumns(res *Result) []string {
	drop := map[string]bool{domain.ColChurned: true}
	for _, c := range b.exclude {
		drop[c] = true
	}
	for _, le := range res.Labels {
		drop[le.EncodedColumn()] = true
	}
	var out []string
	for _, c := range res.Encoded.Columns {
		if !drop[c] {
			out = append(out, c)
		}
	}
	return out
}

// DecodeRow reconstructs the categorical levels of one encoded row from its
// indicator columns.
func (r *Result) DecodeRow(i int) (map[string]string, error) {
	out := make(map[string]string, len(r.Dummies))
	for _, g := range r.Dummies {
		ind := make([]float64, len(g.Columns))
		for k, col := range g.Columns {
			j := r.Encoded.Index(col)
			if j < 0 {
				return nil, fmt.Errorf("decode row %d: column %q: %w", i, col, domain.ErrMissingColumn)
			}
			ind[k] = r.Encoded.Rows[i][j]
		}
		lvl, err := g.Decode(ind)
		if err != nil {
			return nil, fmt.Errorf("decode row %d: %w", i, err)
		}
		out[g.Source] = lvl
	}
	return out, nil
}

// SameColumns reports whether two feature column lists are identical, naming
// the first difference otherwise.
func SameColumns(want, got []string) error {
	if len(want) != len(got) {
		return fmt.Errorf("%d columns, want %d: %w", len(got), len(want), domain.ErrSchemaMismatch)
	}
	for i := range want {
		if want[i] != got[i] {
			return fmt.Errorf("column %d is %q, want %q: %w", i, got[i], want[i], domain.ErrSchemaMismatch)
		}
	}
	return nil
}
