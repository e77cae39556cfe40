package service

import (
	"fmt"
	"net/http"
	"runtime"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/06wuuntt/NTUT-Coursesystem/internal/simulation"
)

// MetricsService encapsulates Prometheus instrumentation for the HTTP
// surface, the upstream cache and the simulation stores.
type MetricsService struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec
	upstreamTotal   *prometheus.CounterVec
	selectedCourses *prometheus.GaugeVec
	totalCredits    *prometheus.GaugeVec
}

// NewMetricsService registers core Prometheus collectors.
func NewMetricsService() *MetricsService {
	registry := prometheus.NewRegistry()

	requestDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "Duration of HTTP requests in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	requestTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})

	upstreamTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "upstream_fetch_total",
		Help: "Total upstream dataset lookups by outcome (hit, fetched, error)",
	}, []string{"outcome"})

	selectedCourses := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "simulation_selected_courses",
		Help: "Number of selected courses per simulation profile",
	}, []string{"profile"})

	totalCredits := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "simulation_total_credits",
		Help: "Total credits per simulation profile",
	}, []string{"profile"})

	goroutines := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "goroutines_total",
		Help: "Total number of goroutines",
	}, func() float64 {
		return float64(runtime.NumGoroutine())
	})

	registry.MustRegister(requestDuration, requestTotal, upstreamTotal, selectedCourses, totalCredits, goroutines)

	return &MetricsService{
		registry:        registry,
		handler:         promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestDuration: requestDuration,
		requestTotal:    requestTotal,
		upstreamTotal:   upstreamTotal,
		selectedCourses: selectedCourses,
		totalCredits:    totalCredits,
	}
}

// Handler exposes the Prometheus HTTP handler.
func (m *MetricsService) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		})
	}
	return m.handler
}

// ObserveHTTPRequest records request metrics.
func (m *MetricsService) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	labelStatus := fmt.Sprintf("%d", status)
	m.requestDuration.WithLabelValues(method, path, labelStatus).Observe(duration.Seconds())
	m.requestTotal.WithLabelValues(method, path, labelStatus).Inc()
}

// Outcome labels for upstream dataset lookups.
const (
	FetchOutcomeHit     = "hit"
	FetchOutcomeFetched = "fetched"
	FetchOutcomeError   = "error"
)

// ObserveUpstreamFetch counts one upstream dataset lookup by outcome: served
// from cache, fetched from origin, or failed.
func (m *MetricsService) ObserveUpstreamFetch(outcome string) {
	if m == nil {
		return
	}
	m.upstreamTotal.WithLabelValues(outcome).Inc()
}

// ObserveSimulation updates per-profile gauges; wire it to
// Registry.Subscribe so every mutation is reflected.
func (m *MetricsService) ObserveSimulation(profile string, snapshot simulation.Snapshot) {
	if m == nil {
		return
	}
	m.selectedCourses.WithLabelValues(profile).Set(float64(len(snapshot.SelectedCourseIDs)))
	m.totalCredits.WithLabelValues(profile).Set(snapshot.Credits.Total)
}
