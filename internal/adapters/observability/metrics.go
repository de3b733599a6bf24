package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	HTTPRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "churn", Name: "http_requests_total", Help: "HTTP requests."},
		[]string{"route", "method", "status"},
	)
	HTTPLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "churn", Name: "http_request_duration_seconds",
			Help:    "HTTP request duration seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"route", "method"},
	)
	StorageRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "churn", Name: "storage_requests_total", Help: "Database and object store calls."},
		[]string{"backend", "op", "result"},
	)
	StorageLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "churn", Name: "storage_request_duration_seconds",
			Help:    "Database and object store call duration seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"backend", "op"},
	)
	CacheEvents = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "churn", Name: "cache_events_total", Help: "Cache hits/misses/sets/dels."},
		[]string{"cache", "event"}, // event: hit|miss|set|del
	)

	StageDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "churn", Name: "pipeline_stage_duration_seconds",
			Help:    "Duration of each pipeline stage.",
			Buckets: prometheus.ExponentialBuckets(0.01, 4, 10),
		},
		[]string{"stage"},
	)
	PipelineRuns = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "churn", Name: "pipeline_runs_total", Help: "Pipeline runs by outcome."},
		[]string{"status"},
	)
	CustomersScored = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "churn", Name: "customers_scored_total", Help: "Scored customers by risk tier."},
		[]string{"tier"},
	)
	ModelScore = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{Namespace: "churn", Name: "model_score", Help: "Held-out evaluation metrics of the last run."},
		[]string{"model", "metric"},
	)
)

// Serve exposes reg on addr in the background; an empty addr disables it.
func Serve(addr string, reg *prometheus.Registry) {
	if addr == "" {
		return
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", MetricsHandler(reg))

	go func() {
		srv := &http.Server{
			Addr:              addr,
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		}
		log.Info().Str("addr", addr).Msg("metrics server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("metrics server failed")
		}
	}()
}

func InitRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		HTTPRequests, HTTPLatency, StorageRequests, StorageLatency, CacheEvents,
		StageDuration, PipelineRuns, CustomersScored, ModelScore,
	)
	return reg
}

func MetricsHandler(reg *prometheus.Registry) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{})
}

func ObserveHTTP(route, method string, status int, dur time.Duration) {
	HTTPRequests.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
	HTTPLatency.WithLabelValues(route, method).Observe(dur.Seconds())
}

func ObserveStorage(backend, op string, err error, dur time.Duration) {
	StorageRequests.WithLabelValues(backend, op, result(err)).Inc()
	StorageLatency.WithLabelValues(backend, op).Observe(dur.Seconds())
}

func ObserveCache(cache, event string) { // event: hit|miss|set|del
	CacheEvents.WithLabelValues(cache, event).Inc()
}

func ObserveStage(stage string, dur time.Duration) {
	StageDuration.WithLabelValues(stage).Observe(dur.Seconds())
}

func ObserveRun(err error) {
	PipelineRuns.WithLabelValues(result(err)).Inc()
}

func ObserveScored(tier string, n int) {
	CustomersScored.WithLabelValues(tier).Add(float64(n))
}

func SetModelScore(model, metric string, v float64) {
	ModelScore.WithLabelValues(model, metric).Set(v)
}

func result(err error) string {
	if err == nil {
		return "ok"
	}
	return "error"
}
