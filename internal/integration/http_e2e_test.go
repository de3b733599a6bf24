//go:build integration

package integration

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sort"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	_ "github.com/go-sql-driver/mysql"
	"github.com/ory/dockertest/v3"
	"github.com/ory/dockertest/v3/docker"

	server "hotel_churn/internal/adapters/http_server"
	redisad "hotel_churn/internal/adapters/redis"
	"hotel_churn/internal/app"
	"hotel_churn/internal/model"
	mysqlrepo "hotel_churn/internal/storage/mysql"
)

// ---------- helpers ----------

func migrationsDir() string {
	if v := os.Getenv("MIGRATIONS_DIR"); v != "" {
		return v
	}
	return filepath.Join("..", "..", "migrations")
}

func applyMigrations(t *testing.T, db *sql.DB) {
	t.Helper()
	files, err := filepath.Glob(filepath.Join(migrationsDir(), "*.sql"))
	if err != nil || len(files) == 0 {
		t.Fatalf("no .sql files in %s (%v)", migrationsDir(), err)
	}
	sort.Strings(files)
	for _, f := range files {
		b, err := os.ReadFile(f)
		if err != nil {
			t.Fatalf("read %s: %v", f, err)
		}
		if _, err := db.Exec(string(b)); err != nil {
			t.Fatalf("exec %s: %v", f, err)
		}
	}
}

// seedBookings inserts n customers; every fourth one churns after short visits.
func seedBookings(t *testing.T, db *sql.DB, n int) {
	t.Helper()
	const q = `INSERT INTO bookings VALUES (?,?,?,NULL,?,?,?,?,?,?,0,?,?,1,3,?,1,?,2,NULL,?)`
	base := time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < n; i++ {
		churned := i%4 == 0
		for k := 0; k <= i%2; k++ {
			minutes := 25 + float64((i*3+k)%15)
			if churned {
				minutes = 3 + float64(k)
			}
			if _, err := db.Exec(q,
				fmt.Sprintf("B%d-%d", i, k), fmt.Sprintf("c%03d@x.com", i), base.AddDate(0, 0, i+k*7),
				[]string{"New", "Existing"}[k], i%3, []string{"App", "Web"}[i%2], []string{"Email", "SEO"}[k],
				churned, k == 0, minutes, minutes/2, minutes/4, i%2, churned,
			); err != nil {
				t.Fatalf("seed booking %d: %v", i, err)
			}
		}
	}
}

// ---------- the test ----------

func TestHTTP_EndToEnd_ScoredRisk(t *testing.T) {
	pool, err := dockertest.NewPool("")
	if err != nil {
		t.Fatalf("dockertest: %v", err)
	}
	resource, err := pool.RunWithOptions(&dockertest.RunOptions{
		Repository: "mysql",
		Tag:        "8.0.36",
		Env:        []string{"MYSQL_ROOT_PASSWORD=root", "MYSQL_DATABASE=churn"},
	}, func(hc *docker.HostConfig) {
		hc.AutoRemove = true
		hc.RestartPolicy = docker.RestartPolicy{Name: "no"}
	})
	if err != nil {
		t.Fatalf("run mysql: %v", err)
	}
	t.Cleanup(func() { _ = pool.Purge(resource) })

	dsn := fmt.Sprintf("root:root@tcp(127.0.0.1:%s)/churn?parseTime=true&multiStatements=true&charset=utf8mb4,utf8&loc=UTC",
		resource.GetPort("3306/tcp"))
	var db *sql.DB
	if err := pool.Retry(func() error {
		var e error
		db, e = sql.Open("mysql", dsn)
		if e != nil {
			return e
		}
		return db.Ping()
	}); err != nil {
		t.Fatalf("connect mysql: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	applyMigrations(t, db)
	seedBookings(t, db, 120)

	mr := miniredis.RunT(t)
	cache := redisad.New(mr.Addr(), "", 0)
	t.Cleanup(func() { _ = cache.Close() })

	repo := mysqlrepo.New(db)
	ctx := context.Background()

	trainer := model.NewTrainer(model.DefaultStrategies(model.Options{Seed: 42}), 0.25, 42)
	svc := app.NewPipelineService(repo, trainer, app.PipelineConfig{PersistScores: true, TopN: 5}).
		WithScores(repo, cache)
	run, err := svc.Run(ctx)
	if err != nil {
		t.Fatalf("pipeline: %v", err)
	}
	if run.Customers != 120 || !run.Persisted {
		t.Fatalf("run: customers=%d persisted=%v", run.Customers, run.Persisted)
	}

	srv := server.New(1000)
	srv.MountHandlers(&server.Handlers{Q: app.NewQueryService(repo, cache, time.Minute)})
	ts := httptest.NewServer(srv.Mux())
	defer ts.Close()

	var latest struct {
		ID        string `json:"id"`
		Customers int    `json:"customers"`
	}
	getJSON(t, ts.URL+"/v1/runs/latest", &latest)
	if latest.ID != run.RunID || latest.Customers != 120 {
		t.Fatalf("latest run: %+v, want %s", latest, run.RunID)
	}

	top := run.Risk.Highest[0]
	var cr struct {
		Email            string  `json:"email"`
		ChurnProbability float64 `json:"churn_probability"`
		RiskCategory     string  `json:"risk_category"`
	}
	getJSON(t, ts.URL+"/v1/customers/"+top.Email+"/risk", &cr)
	if cr.Email != top.Email || cr.RiskCategory != string(top.RiskCategory) {
		t.Fatalf("customer risk: %+v, want %s %s", cr, top.Email, top.RiskCategory)
	}

	var page struct {
		RunID string `json:"run_id"`
		Items []struct {
			Email            string  `json:"email"`
			ChurnProbability float64 `json:"churn_probability"`
		} `json:"items"`
	}
	getJSON(t, ts.URL+"/v1/risk?limit=10", &page)
	if page.RunID != run.RunID || len(page.Items) != 10 {
		t.Fatalf("risk page: run=%s items=%d", page.RunID, len(page.Items))
	}
	for i := 1; i < len(page.Items); i++ {
		if page.Items[i].ChurnProbability > page.Items[i-1].ChurnProbability {
			t.Fatalf("risk page not ordered by probability at %d", i)
		}
	}
	if !mr.Exists("churn:risk:latest") {
		t.Fatalf("latest run not cached after API read")
	}
}

func getJSON(t *testing.T, url string, dst any) {
	t.Helper()
	res, err := http.Get(url)
	if err != nil {
		t.Fatalf("GET %s: %v", url, err)
	}
	defer res.Body.Close()
	if res.StatusCode != http.StatusOK {
		t.Fatalf("GET %s: status %d", url, res.StatusCode)
	}
	if err := json.NewDecoder(res.Body).Decode(dst); err != nil {
		t.Fatalf("decode %s: %v", url, err)
	}
}
