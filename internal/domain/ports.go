package domain

import "context"

// BookingSource yields every booking row of one run, read once.
type BookingSource interface {
	LoadBookings(ctx context.Context) ([]Booking, error)
}

type ScoreRepository interface {
	// Write path (batch run, explicit request only)
	SaveRun(ctx context.Context, run ScoringRun, scored []ScoredCustomer) error

	// Read paths (report API)
	LatestRun(ctx context.Context) (ScoringRun, error)
	GetCustomerRisk(ctx context.Context, email string) (CustomerRisk, error)
	ListRisk(ctx context.Context, q RiskQuery) (RiskPage, error)
}

type Cache interface {
	Get(ctx context.Context, key string, dst any) (bool, error)
	Set(ctx context.Context, key string, v any, ttlSec int) error
	Del(ctx context.Context, key string) error
}

// ArtifactStore holds independently addressable serialized objects.
// Put must never leave a partially written object visible under name.
type ArtifactStore interface {
	Put(ctx context.Context, name string, data []byte) error
	Get(ctx context.Context, name string) ([]byte, error)
	Exists(ctx context.Context, name string) (bool, error)
}
