package mysql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"hotel_churn/internal/adapters/observability"
	"hotel_churn/internal/domain"
	"hotel_churn/internal/storage"
)

const riskBatch = 500

type Repo struct{ db *sql.DB }

func New(db *sql.DB) *Repo { return &Repo{db: db} }

func observe(op string, start time.Time, err error) {
	observability.ObserveStorage("mysql", op, err, time.Since(start))
}

// LoadBookings implements domain.BookingSource over the bookings table.
func (r *Repo) LoadBookings(ctx context.Context) (out []domain.Booking, err error) {
	defer func(start time.Time) { observe("load_bookings", start, err) }(time.Now())
	rows, err := r.db.QueryContext(ctx, storage.SelectBookingsSQL)
	if err != nil {
		return nil, err
	}
	return storage.ScanBookings(rows)
}

// SaveRun writes the run header and every scored customer in one transaction.
func (r *Repo) SaveRun(ctx context.Context, run domain.ScoringRun, scored []domain.ScoredCustomer) (err error) {
	defer func(start time.Time) { observe("save_run", start, err) }(time.Now())

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, insertRunSQL,
		run.ID, run.Model, run.CreatedAt.UTC(), run.Customers,
		run.TierCounts[domain.TierLow], run.TierCounts[domain.TierMedium],
		run.TierCounts[domain.TierHigh], run.TierCounts[domain.TierCritical],
	); err != nil {
		return fmt.Errorf("insert run: %w", err)
	}

	for start := 0; start < len(scored); start += riskBatch {
		end := min(start+riskBatch, len(scored))
		batch := scored[start:end]
		values := make([]string, 0, len(batch))
		args := make([]any, 0, len(batch)*10)
		for _, s := range batch {
			values = append(values, "(?,?,?,?,?,?,?,?,?,?)")
			args = append(args,
				run.ID,
				s.Email,
				s.ChurnProbability,
				string(s.RiskCategory),
				s.TotalBookings,
				s.Churned,
				s.CustomerType,
				s.PrimaryPlatform,
				s.PrimaryChannel,
				s.TenureDays,
			)
		}
		if _, err = tx.ExecContext(ctx, insertRiskPrefix+strings.Join(values, ","), args...); err != nil {
			return fmt.Errorf("insert customer risk rows %d-%d: %w", start, end, err)
		}
	}
	return tx.Commit()
}

func (r *Repo) LatestRun(ctx context.Context) (run domain.ScoringRun, err error) {
	defer func(start time.Time) { observe("latest_run", start, err) }(time.Now())

	var low, medium, high, critical int
	err = r.db.QueryRowContext(ctx, latestRunSQL).Scan(
		&run.ID, &run.Model, &run.CreatedAt, &run.Customers, &low, &medium, &high, &critical,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.ScoringRun{}, domain.ErrNotFound
	}
	if err != nil {
		return domain.ScoringRun{}, err
	}
	run.TierCounts = map[domain.RiskTier]int{
		domain.TierLow: low, domain.TierMedium: medium, domain.TierHigh: high, domain.TierCritical: critical,
	}
	return run, nil
}

func (r *Repo) GetCustomerRisk(ctx context.Context, email string) (domain.CustomerRisk, error) {
	run, err := r.LatestRun(ctx)
	if err != nil {
		return domain.CustomerRisk{}, err
	}
	start := time.Now()
	cr, err := scanRisk(r.db.QueryRowContext(ctx, getRiskSQL, run.ID, email))
	observe("get_risk", start, err)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.CustomerRisk{}, domain.ErrNotFound
	}
	return cr, err
}

func (r *Repo) ListRisk(ctx context.Context, q domain.RiskQuery) (domain.RiskPage, error) {
	run, err := r.LatestRun(ctx)
	if err != nil {
		return domain.RiskPage{}, err
	}
	var tier any
	if q.Tier != nil {
		tier = string(*q.Tier)
	}
	limit := q.Limit
	if limit <= 0 {
		limit = 50
	}

	start := time.Now()
	rows, err := r.db.QueryContext(ctx, listRiskSQL, run.ID, tier, tier, limit)
	if err != nil {
		observe("list_risk", start, err)
		return domain.RiskPage{}, err
	}
	defer rows.Close()

	page := domain.RiskPage{RunID: run.ID}
	for rows.Next() {
		cr, err := scanRisk(rows)
		if err != nil {
			return domain.RiskPage{}, err
		}
		page.Items = append(page.Items, cr)
	}
	err = rows.Err()
	observe("list_risk", start, err)
	return page, err
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRisk(s scanner) (domain.CustomerRisk, error) {
	var cr domain.CustomerRisk
	var tier string
	err := s.Scan(
		&cr.RunID, &cr.Email, &cr.ChurnProbability, &tier, &cr.TotalBookings, &cr.Churned,
		&cr.CustomerType, &cr.PrimaryPlatform, &cr.PrimaryChannel, &cr.TenureDays,
	)
	cr.RiskCategory = domain.RiskTier(tier)
	return cr, err
}
