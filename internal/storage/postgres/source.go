// Package postgres reads booking rows from a PostgreSQL warehouse.
package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"

	"hotel_churn/internal/adapters/observability"
	"hotel_churn/internal/domain"
	"hotel_churn/internal/storage"
)

// Source implements domain.BookingSource over the bookings table.
type Source struct {
	db *sql.DB
}

// Open connects with lib/pq and waits for the server to answer a ping.
func Open(ctx context.Context, dsn string) (*Source, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres: open: %w", err)
	}
	for i := 0; i < 10; i++ {
		if err = db.PingContext(ctx); err == nil {
			break
		}
		select {
		case <-ctx.Done():
			db.Close()
			return nil, ctx.Err()
		case <-time.After(2 * time.Second):
		}
	}
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("postgres: ping failed after retries: %w", err)
	}
	return &Source{db: db}, nil
}

func New(db *sql.DB) *Source { return &Source{db: db} }

func (s *Source) Close() error { return s.db.Close() }

// DB exposes the pool for schema setup.
func (s *Source) DB() *sql.DB { return s.db }

func (s *Source) LoadBookings(ctx context.Context) (out []domain.Booking, err error) {
	defer func(start time.Time) {
		observability.ObserveStorage("postgres", "load_bookings", err, time.Since(start))
	}(time.Now())
	rows, err := s.db.QueryContext(ctx, storage.SelectBookingsSQL)
	if err != nil {
		return nil, fmt.Errorf("postgres: query bookings: %w", err)
	}
	return storage.ScanBookings(rows)
}
