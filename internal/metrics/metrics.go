// Package metrics exposes Prometheus collectors for the ops service.
package metrics

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	ingestVideosTotal          *prometheus.CounterVec
	publishCommitsTotal        prometheus.Counter
	publishFilesTotal          prometheus.Counter
	httpRequestsTotal          *prometheus.CounterVec
	httpRequestDurationSeconds *prometheus.HistogramVec

	once sync.Once
)

// Ingest outcome labels.
const (
	OutcomeUpserted      = "upserted"
	OutcomeNoMetadata    = "no_metadata"
	OutcomeInvalid       = "invalid"
	OutcomeUnknownDriver = "unknown_driver"
	OutcomeUnhandled     = "unhandled_category"
	OutcomeIgnored       = "ignored"
)

// Init registers the collectors. Safe to call more than once.
func Init() {
	once.Do(func() {
		ingestVideosTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tsrops_ingest_videos_total",
				Help: "Videos seen by the ingestion pipeline, labeled by category and outcome.",
			},
			[]string{"category", "outcome"},
		)

		publishCommitsTotal = promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "tsrops_publish_commits_total",
				Help: "Commits pushed to the content repository.",
			},
		)

		publishFilesTotal = promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "tsrops_publish_files_total",
				Help: "Changed files included in content repository commits.",
			},
		)

		httpRequestsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tsrops_http_requests_total",
				Help: "HTTP requests handled, labeled by method and status code.",
			},
			[]string{"method", "code"},
		)

		httpRequestDurationSeconds = promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "tsrops_http_request_duration_seconds",
				Help:    "Histogram of HTTP request latencies, labeled by method and route.",
				Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 15, 60},
			},
			[]string{"method", "route"},
		)
	})
}

// Handler returns the Prometheus scrape handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

// ObserveIngestVideo counts one video by category and outcome.
func ObserveIngestVideo(category, outcome string) {
	ingestVideosTotal.WithLabelValues(category, outcome).Inc()
}

// ObserveCommit counts one commit and the files it carried.
func ObserveCommit(files int) {
	publishCommitsTotal.Inc()
	publishFilesTotal.Add(float64(files))
}

// ObserveHTTPRequest records one handled request.
func ObserveHTTPRequest(method, route string, code int, duration time.Duration) {
	httpRequestsTotal.WithLabelValues(method, strconv.Itoa(code)).Inc()
	httpRequestDurationSeconds.WithLabelValues(method, route).Observe(duration.Seconds())
}
