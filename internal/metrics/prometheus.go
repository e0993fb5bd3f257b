package metrics

import (
	"net/http"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Default histogram buckets for use case duration, in seconds.
var defaultBuckets = []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5}

// Metrics holds the collectors for cache, paging and use case activity.
// One value implements the observer interfaces of repositorycache, paging and
// usecase so it can be handed to all three.
type Metrics struct {
	registry *prometheus.Registry

	cacheLookups  *prometheus.CounterVec
	fetchFailures *prometheus.CounterVec

	pageLoads *prometheus.CounterVec
	pageRows  *prometheus.CounterVec

	usecaseRuns     *prometheus.CounterVec
	usecaseDuration *prometheus.HistogramVec
}

// New registers every collector on a fresh registry. withRuntime adds the Go
// and process collectors.
func New(namespace string, withRuntime bool) *Metrics {
	registry := prometheus.NewRegistry()
	if withRuntime {
		registry.MustRegister(prometheus.NewGoCollector())
		registry.MustRegister(prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}))
	}

	m := &Metrics{
		registry: registry,

		cacheLookups: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "cache",
				Name:      "lookups_total",
				Help:      "Repository lookups by entity namespace and result",
			},
			[]string{"namespace", "result"},
		),

		fetchFailures: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "cache",
				Name:      "fetch_failures_total",
				Help:      "Failed remote fetches behind the cache by error category",
			},
			[]string{"namespace", "category"},
		),

		pageLoads: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "paging",
				Name:      "loads_total",
				Help:      "Page loads by source and status",
			},
			[]string{"source", "status"},
		),

		pageRows: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "paging",
				Name:      "rows_total",
				Help:      "Rows returned by page loads",
			},
			[]string{"source"},
		),

		usecaseRuns: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "usecase",
				Name:      "runs_total",
				Help:      "Use case runs by name and status",
			},
			[]string{"usecase", "status"},
		),

		usecaseDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "usecase",
				Name:      "duration_seconds",
				Help:      "Use case duration in seconds",
				Buckets:   defaultBuckets,
			},
			[]string{"usecase"},
		),
	}

	registry.MustRegister(
		m.cacheLookups,
		m.fetchFailures,
		m.pageLoads,
		m.pageRows,
		m.usecaseRuns,
		m.usecaseDuration,
	)
	return m
}

// Registry exposes the underlying registry, mostly for tests.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) CacheHit(namespace string) {
	m.cacheLookups.WithLabelValues(namespace, "hit").Inc()
}

func (m *Metrics) CacheMiss(namespace string) {
	m.cacheLookups.WithLabelValues(namespace, "miss").Inc()
}

func (m *Metrics) FetchFailed(namespace string, err error) {
	m.fetchFailures.WithLabelValues(namespace, categoryOf(err)).Inc()
}

func (m *Metrics) PageLoaded(source string, rows int) {
	m.pageLoads.WithLabelValues(source, "success").Inc()
	m.pageRows.WithLabelValues(source).Add(float64(rows))
}

func (m *Metrics) PageFailed(source string, _ error) {
	m.pageLoads.WithLabelValues(source, "error").Inc()
}

func (m *Metrics) UsecaseCompleted(name string, elapsed time.Duration, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	m.usecaseRuns.WithLabelValues(name, status).Inc()
	m.usecaseDuration.WithLabelValues(name).Observe(elapsed.Seconds())
}

func categoryOf(err error) string {
	var rich *goerrors.Error
	if goerrors.As(err, &rich) {
		return rich.Category.String()
	}
	var retryable *goerrors.RetryableError
	if goerrors.As(err, &retryable) && retryable.BaseError != nil {
		return retryable.BaseError.Category.String()
	}
	return "unknown"
}
