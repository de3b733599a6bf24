package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	_ "github.com/go-sql-driver/mysql"
	"github.com/rs/zerolog/log"
	"github.com/schollz/progressbar/v3"

	"hotel_churn/internal/adapters/csvsource"
	"hotel_churn/internal/adapters/observability"
	redisad "hotel_churn/internal/adapters/redis"
	"hotel_churn/internal/adapters/report"
	"hotel_churn/internal/app"
	"hotel_churn/internal/artifacts"
	"hotel_churn/internal/domain"
	"hotel_churn/internal/features"
	"hotel_churn/internal/model"
	"hotel_churn/internal/shared"
	"hotel_churn/internal/stats"
	mysqlrepo "hotel_churn/internal/storage/mysql"
	"hotel_churn/internal/storage/postgres"
)

func main() {
	cfg := shared.Load()

	flag.StringVar(&cfg.InputSource, "source", cfg.InputSource, "booking source: csv, mysql or postgres")
	flag.StringVar(&cfg.InputPath, "input", cfg.InputPath, "booking CSV path (source=csv)")
	flag.StringVar(&cfg.ResultsDir, "results", cfg.ResultsDir, "directory for the report and filesystem artifacts")
	flag.StringVar(&cfg.ArtifactStore, "store", cfg.ArtifactStore, "artifact store: fs, gcs or none")
	flag.BoolVar(&cfg.ReuseModels, "reuse", cfg.ReuseModels, "reuse stored models instead of retraining")
	flag.BoolVar(&cfg.PersistScores, "persist", cfg.PersistScores, "write scored customers to MySQL")
	flag.StringVar(&cfg.ScoringModel, "scoring-model", cfg.ScoringModel, "model used for risk scoring")
	top := flag.Int("top", 20, "highest-risk customers to print")
	quiet := flag.Bool("quiet", false, "hide fitting progress bars")
	flag.Parse()

	// logs go to stderr so the report owns stdout
	log.Logger = observability.NewLogger(cfg.AppEnv, os.Stderr)
	observability.Serve(cfg.MetricsAddr, observability.InitRegistry())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, *top, !*quiet); err != nil {
		log.Fatal().Err(err).Msg("churn run failed")
	}
}

func run(ctx context.Context, cfg shared.Config, top int, progress bool) error {
	order, err := features.ParseOrder(cfg.AggregateOrder)
	if err != nil {
		return err
	}
	variance := stats.Welch
	if cfg.EqualVariance {
		variance = stats.Pooled
	}

	src, closeSrc, err := openSource(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeSrc()

	opts := model.Options{Seed: cfg.SplitSeed}
	if progress {
		opts.Progress = progressBar
	}
	trainer := model.NewTrainer(model.DefaultStrategies(opts), cfg.TestFraction, cfg.SplitSeed)

	svc := app.NewPipelineService(src, trainer, app.PipelineConfig{
		Order:         order,
		Variance:      variance,
		ScoringModel:  cfg.ScoringModel,
		ReuseModels:   cfg.ReuseModels,
		PersistScores: cfg.PersistScores,
		TopN:          top,
	})

	store, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeStore()
	if store != nil {
		svc.WithArtifacts(artifacts.NewRegistry(store))
	}

	if cfg.PersistScores {
		db, err := openMySQL(ctx, cfg.MySQLDSN)
		if err != nil {
			return err
		}
		defer db.Close()
		cache := redisad.New(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)
		defer cache.Close()
		if err := cache.Ping(ctx); err != nil {
			log.Warn().Err(err).Msg("redis unavailable, cached API reads may be stale until expiry")
		}
		svc.WithScores(mysqlrepo.New(db), cache)
	}

	res, err := svc.Run(ctx)
	if err != nil {
		return err
	}

	out := io.Writer(os.Stdout)
	if cfg.ResultsDir != "" {
		if err := os.MkdirAll(cfg.ResultsDir, 0o755); err != nil {
			return fmt.Errorf("results dir: %w", err)
		}
		path := filepath.Join(cfg.ResultsDir, "report_"+res.RunID+".txt")
		f, err := os.Create(path)
		if err != nil {
			return fmt.Errorf("create report: %w", err)
		}
		defer f.Close()
		out = io.MultiWriter(os.Stdout, f)
		log.Info().Str("path", path).Msg("writing report")
	}
	return report.NewConsole(out).Write(res)
}

func openSource(ctx context.Context, cfg shared.Config) (domain.BookingSource, func(), error) {
	switch cfg.InputSource {
	case "csv":
		return csvsource.New(cfg.InputPath), func() {}, nil
	case "mysql":
		db, err := openMySQL(ctx, cfg.MySQLDSN)
		if err != nil {
			return nil, nil, err
		}
		return mysqlrepo.New(db), func() { db.Close() }, nil
	case "postgres":
		src, err := postgres.Open(ctx, cfg.PostgresDSN)
		if err != nil {
			return nil, nil, err
		}
		return src, func() { src.Close() }, nil
	}
	return nil, nil, fmt.Errorf("unknown input source %q", cfg.InputSource)
}

func openStore(ctx context.Context, cfg shared.Config) (domain.ArtifactStore, func(), error) {
	switch cfg.ArtifactStore {
	case "fs":
		return artifacts.NewFSStore(filepath.Join(cfg.ResultsDir, "models")), func() {}, nil
	case "gcs":
		s, err := artifacts.NewGCSStore(ctx, cfg.GCSBucket, cfg.GCSPrefix)
		if err != nil {
			return nil, nil, err
		}
		return s, func() { s.Close() }, nil
	case "none", "":
		return nil, func() {}, nil
	}
	return nil, nil, fmt.Errorf("unknown artifact store %q", cfg.ArtifactStore)
}

func openMySQL(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("sql.Open: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("mysql ping: %w", err)
	}
	return db, nil
}

// progressBar draws one bar per ensemble fit on stderr. Ticks may come from
// several goroutines; the bar serialises them.
func progressBar(name string, total int) func() {
	bar := progressbar.NewOptions(total,
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionSetDescription(model.DisplayName(name)),
		progressbar.OptionShowCount(),
		progressbar.OptionClearOnFinish(),
	)
	return func() { _ = bar.Add(1) }
}
