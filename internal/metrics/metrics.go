package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "unfollow_watch"

// Recorder is implemented by the prometheus collectors and by a no-op used
// when metrics are disabled.
type Recorder interface {
	IncCycles(result string)
	AddUnfollowers(n int)
	IncSkippedTicks(task string)
	IncGatewayRequests(endpoint string, status int)
	ObserveGatewayDuration(endpoint string, duration time.Duration)
	IncCacheHits()
	IncCacheMisses()
	IncNotifications(provider, result string)
	SetGrowthSample(series string, count int)
	Handler() http.Handler
}

type Metrics struct {
	registry *prometheus.Registry

	cycles          *prometheus.CounterVec
	unfollowers     prometheus.Counter
	skippedTicks    *prometheus.CounterVec
	gatewayRequests *prometheus.CounterVec
	gatewayDuration *prometheus.HistogramVec
	cacheHits       prometheus.Counter
	cacheMisses     prometheus.Counter
	notifications   *prometheus.CounterVec
	growthSamples   *prometheus.GaugeVec
}

// New registers every collector on a private registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,

		cycles: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "detection_cycles_total",
			Help:      "Detection cycles by result",
		}, []string{"result"}),

		unfollowers: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "unfollowers_detected_total",
			Help:      "Total number of unfollowers detected",
		}),

		skippedTicks: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "scheduler_skipped_ticks_total",
			Help:      "Ticks skipped because the previous run was still in flight",
		}, []string{"task"}),

		gatewayRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "github_requests_total",
			Help:      "GitHub API requests by endpoint and status class",
		}, []string{"endpoint", "status"}),

		gatewayDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "github_request_duration_seconds",
			Help:      "GitHub API request duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"endpoint"}),

		cacheHits: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "github_cache_hits_total",
			Help:      "Total number of response cache hits",
		}),

		cacheMisses: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "github_cache_misses_total",
			Help:      "Total number of response cache misses",
		}),

		notifications: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "notifications_total",
			Help:      "Notifications by provider and result",
		}, []string{"provider", "result"}),

		growthSamples: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "growth_last_sample",
			Help:      "Last recorded value of each growth series",
		}, []string{"series"}),
	}
}

func (m *Metrics) IncCycles(result string) {
	m.cycles.WithLabelValues(result).Inc()
}

func (m *Metrics) AddUnfollowers(n int) {
	if n > 0 {
		m.unfollowers.Add(float64(n))
	}
}

func (m *Metrics) IncSkippedTicks(task string) {
	m.skippedTicks.WithLabelValues(task).Inc()
}

func (m *Metrics) IncGatewayRequests(endpoint string, status int) {
	m.gatewayRequests.WithLabelValues(endpoint, httpStatusBucket(status)).Inc()
}

func (m *Metrics) ObserveGatewayDuration(endpoint string, duration time.Duration) {
	m.gatewayDuration.WithLabelValues(endpoint).Observe(duration.Seconds())
}

func (m *Metrics) IncCacheHits() {
	m.cacheHits.Inc()
}

func (m *Metrics) IncCacheMisses() {
	m.cacheMisses.Inc()
}

func (m *Metrics) IncNotifications(provider, result string) {
	m.notifications.WithLabelValues(provider, result).Inc()
}

func (m *Metrics) SetGrowthSample(series string, count int) {
	m.growthSamples.WithLabelValues(series).Set(float64(count))
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry exposes the underlying registry for tests.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// httpStatusBucket maps a status code to its class; 0 means a transport error.
func httpStatusBucket(code int) string {
	switch {
	case code == 0:
		return "error"
	case code < 200:
		return "1xx"
	case code < 300:
		return "2xx"
	case code < 400:
		return "3xx"
	case code < 500:
		return "4xx"
	default:
		return "5xx"
	}
}

// Noop returns a Recorder that discards everything.
func Noop() Recorder {
	return noopMetrics{}
}

type noopMetrics struct{}

func (noopMetrics) IncCycles(_ string)                                {}
func (noopMetrics) AddUnfollowers(_ int)                              {}
func (noopMetrics) IncSkippedTicks(_ string)                          {}
func (noopMetrics) IncGatewayRequests(_ string, _ int)                {}
func (noopMetrics) ObserveGatewayDuration(_ string, _ time.Duration) {}
func (noopMetrics) IncCacheHits()                                     {}
func (noopMetrics) IncCacheMisses()                                   {}
func (noopMetrics) IncNotifications(_, _ string)                      {}
func (noopMetrics) SetGrowthSample(_ string, _ int)                   {}
func (noopMetrics) Handler() http.Handler                             { return http.NotFoundHandler() }
