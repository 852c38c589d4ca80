package observability

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	ArticlesIngestedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "articles_ingested_total",
			Help: "Total number of new articles ingested from daily indexes",
		},
	)
	DaysIngestedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "days_ingested_total",
			Help: "Total number of daily indexes ingested",
		},
		[]string{"kind"}, // current | gap
	)
	GapsOpenedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "gaps_opened_total",
			Help: "Total number of coverage gaps opened",
		},
	)
	ArticlesProcessedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "articles_processed_total",
			Help: "Total number of articles processed by the downloader",
		},
		[]string{"outcome"}, // downloaded | skipped | failed
	)
	AnalysesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "analyses_total",
			Help: "Total number of LLM analyses by outcome",
		},
		[]string{"outcome"}, // ok | skipped | failed
	)
	LLMRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "llm_requests_total",
			Help: "Total number of LLM engine requests by model and status",
		},
		[]string{"model", "status"},
	)
	LLMRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "llm_request_duration_seconds",
			Help:    "LLM engine request duration in seconds",
			Buckets: []float64{0.25, 0.5, 1, 2, 5, 10, 30, 60},
		},
		[]string{"model"},
	)
	RateLimiterWaits = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rate_limiter_waits_total",
			Help: "Total number of requests delayed by the per-model rate limiter",
		},
		[]string{"model"},
	)
	MessagesSentTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "messages_sent_total",
			Help: "Total number of channel messages by status",
		},
		[]string{"status"}, // sent | failed
	)
)

var metricsRegistered = false

// InitMetrics registers all metrics with the default registry. Safe to call once
// per process before serving /metrics.
func InitMetrics() {
	if metricsRegistered {
		return
	}
	prometheus.MustRegister(
		ArticlesIngestedTotal,
		DaysIngestedTotal,
		GapsOpenedTotal,
		ArticlesProcessedTotal,
		AnalysesTotal,
		LLMRequestsTotal,
		LLMRequestDuration,
		RateLimiterWaits,
		MessagesSentTotal,
	)
	metricsRegistered = true
}

// OpsRouter returns the chi router serving /metrics and /healthz for a service.
func OpsRouter() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Handle("/metrics", promhttp.Handler())
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = fmt.Fprintln(w, "ok")
	})
	return r
}
