package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics bundles the Prometheus collectors of the service.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	Registry            *prometheus.Registry
	FetchesTotal        *prometheus.CounterVec
	FetchDuration       *prometheus.HistogramVec
	TranslationsTotal   *prometheus.CounterVec
	ProductsSavedTotal  prometheus.Counter
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
}

// New constructs and registers all metrics on a dedicated registry.
func New() *Metrics {
	registry := prometheus.NewRegistry()

	fetches := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "listing_fetches_total",
			Help: "Total listing page fetches by mode and outcome.",
		},
		[]string{"mode", "status"},
	)
	fetchDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "listing_fetch_duration_seconds",
			Help:    "Listing page fetch latency by mode.",
			Buckets: []float64{0.25, 0.5, 1, 2, 3, 5, 10, 30},
		},
		[]string{"mode"},
	)
	translations := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "title_translations_total",
			Help: "Title translation attempts by outcome.",
		},
		[]string{"outcome"},
	)
	saved := prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "products_saved_total",
			Help: "Total number of product records persisted from listings.",
		},
	)
	requests := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests.",
		},
		[]string{"method", "route", "status"},
	)
	requestDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Histogram of HTTP request durations.",
			Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30},
		},
		[]string{"method", "route"},
	)

	registry.MustRegister(fetches, fetchDuration, translations, saved, requests, requestDuration)

	return &Metrics{
		Registry:            registry,
		FetchesTotal:        fetches,
		FetchDuration:       fetchDuration,
		TranslationsTotal:   translations,
		ProductsSavedTotal:  saved,
		HTTPRequestsTotal:   requests,
		HTTPRequestDuration: requestDuration,
	}
}

// ObserveFetch records the outcome and latency of a page fetch.
func (m *Metrics) ObserveFetch(mode string, err error, d time.Duration) {
	if m == nil {
		return
	}
	status := "success"
	if err != nil {
		status = "error"
	}
	m.FetchesTotal.WithLabelValues(mode, status).Inc()
	m.FetchDuration.WithLabelValues(mode).Observe(d.Seconds())
}

// IncTranslation increments the translation counter for an outcome label.
func (m *Metrics) IncTranslation(outcome string) {
	if m == nil {
		return
	}
	m.TranslationsTotal.WithLabelValues(outcome).Inc()
}

// IncSaved increments the saved products counter.
func (m *Metrics) IncSaved() {
	if m == nil {
		return
	}
	m.ProductsSavedTotal.Inc()
}

// RecordRequest records an HTTP request against its route template.
func (m *Metrics) RecordRequest(method, route string, statusCode int, d time.Duration) {
	if m == nil {
		return
	}
	m.HTTPRequestsTotal.WithLabelValues(method, route, strconv.Itoa(statusCode)).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, route).Observe(d.Seconds())
}

// Handler exposes the registry for scraping.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{})
}
