package shared

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

type Config struct {
	AppEnv      string
	HTTPAddr    string
	MetricsAddr string
	MySQLDSN    string
	PostgresDSN string
	RedisAddr   string
	RedisDB     int
	RedisPass   string
	CacheTTL    time.Duration
	APIRPS      float64

	InputSource   string // csv | mysql | postgres
	InputPath     string
	ResultsDir    string
	ArtifactStore string // fs | gcs | none
	GCSBucket     string
	GCSPrefix     string

	ReuseModels    bool
	PersistScores  bool
	ScoringModel   string
	AggregateOrder string
	EqualVariance  bool
	SplitSeed      int64
	TestFraction   float64
}

// Load reads a .env file when present, then the process environment.
func Load() Config {
	if err := godotenv.Load(); err == nil {
		log.Debug().Msg("loaded .env")
	}
	c := Config{
		AppEnv:      env("APP_ENV", "prod"),
		HTTPAddr:    env("HTTP_ADDR", ":8080"),
		MetricsAddr: env("METRICS_ADDR", ""),
		MySQLDSN:    env("MYSQL_DSN", "root:root@tcp(localhost:3306)/churn?parseTime=true&charset=utf8mb4,utf8&loc=UTC"),
		PostgresDSN: env("POSTGRES_DSN", "host=localhost port=5432 user=churn password=churn dbname=churn sslmode=disable"),
		RedisAddr:   env("REDIS_ADDR", "localhost:6379"),
		RedisPass:   env("REDIS_PASSWORD", ""),
		RedisDB:     atoi("REDIS_DB", 0),
		CacheTTL:    time.Duration(atoi("CACHE_TTL_SECONDS", 300)) * time.Second,
		APIRPS:      atof("API_RPS", 20),

		InputSource:   env("INPUT_SOURCE", "csv"),
		InputPath:     env("INPUT_PATH", "data/hotel_bookings.csv"),
		ResultsDir:    env("RESULTS_DIR", "results"),
		ArtifactStore: env("ARTIFACT_STORE", "fs"),
		GCSBucket:     env("GCS_BUCKET", ""),
		GCSPrefix:     env("GCS_PREFIX", "churn-models"),

		ReuseModels:    boolean("REUSE_MODELS", false),
		PersistScores:  boolean("PERSIST_SCORES", false),
		ScoringModel:   env("SCORING_MODEL", "random_forest"),
		AggregateOrder: env("AGGREGATE_ORDER", "chronological"),
		EqualVariance:  boolean("TTEST_EQUAL_VARIANCE", false),
		SplitSeed:      int64(atoi("SPLIT_SEED", 42)),
		TestFraction:   atof("TEST_FRACTION", 0.25),
	}
	if c.ArtifactStore == "gcs" && c.GCSBucket == "" {
		log.Warn().Msg("ARTIFACT_STORE=gcs but GCS_BUCKET is empty")
	}
	return c
}

func env(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func atoi(k string, def int) int {
	if v := os.Getenv(k); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func atof(k string, def float64) float64 {
	if v := os.Getenv(k); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}

func boolean(k string, def bool) bool {
	if v := os.Getenv(k); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return def
}
