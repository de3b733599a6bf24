//go:build integration

package postgres_test

import (
	"context"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/ory/dockertest/v3"
	"github.com/ory/dockertest/v3/docker"

	"hotel_churn/internal/storage/postgres"
)

func TestSource_Postgres_LoadBookings(t *testing.T) {
	pool, err := dockertest.NewPool("")
	if err != nil {
		t.Fatalf("dockertest: %v", err)
	}
	resource, err := pool.RunWithOptions(&dockertest.RunOptions{
		Repository: "postgres",
		Tag:        "16-alpine",
		Env:        []string{"POSTGRES_USER=churn", "POSTGRES_PASSWORD=churn", "POSTGRES_DB=churn"},
	}, func(hc *docker.HostConfig) {
		hc.AutoRemove = true
		hc.RestartPolicy = docker.RestartPolicy{Name: "no"}
	})
	if err != nil {
		t.Fatalf("run postgres: %v", err)
	}
	t.Cleanup(func() { _ = pool.Purge(resource) })

	dsn := fmt.Sprintf("host=127.0.0.1 port=%s user=churn password=churn dbname=churn sslmode=disable",
		resource.GetPort("5432/tcp"))
	ctx := context.Background()

	var src *postgres.Source
	if err := pool.Retry(func() error {
		var e error
		src, e = postgres.Open(ctx, dsn)
		return e
	}); err != nil {
		t.Fatalf("connect postgres: %v", err)
	}
	t.Cleanup(func() { _ = src.Close() })

	schema, err := os.ReadFile(filepath.Join("..", "..", "..", "migrations", "postgres", "001_bookings.sql"))
	if err != nil {
		t.Fatalf("read schema: %v", err)
	}
	db := src.DB()
	if _, err := db.Exec(string(schema)); err != nil {
		t.Fatalf("apply schema: %v", err)
	}
	if _, err := db.Exec(`INSERT INTO bookings VALUES
		('B1','x@mail.com','2023-01-01',NULL,'New',1,'App','Email',1,0,0,10,20,1,5,8,1,0,3,NULL,1)`); err != nil {
		t.Fatalf("seed: %v", err)
	}

	rows, err := src.LoadBookings(ctx)
	if err != nil {
		t.Fatalf("LoadBookings: %v", err)
	}
	if len(rows) != 1 || rows[0].Email != "x@mail.com" || rows[0].LoyaltyTier != 1 || !rows[0].CouponUsed {
		t.Fatalf("rows: %+v", rows)
	}
	if rows[0].CancelledAt != nil || !math.IsNaN(rows[0].HotelStarRating) || rows[0].VisitPages != 20 {
		t.Fatalf("nullable fields: %+v", rows[0])
	}
}
