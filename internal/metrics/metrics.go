// Package metrics turns the structured event stream into Prometheus
// series served on the loopback /metrics endpoint.
package metrics

import (
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/infblueocean/realstream/internal/otel"
)

// Metrics owns a private registry so tests and multiple instances never
// collide on the default one.
type Metrics struct {
	reg *prometheus.Registry

	Events        *prometheus.CounterVec
	APIRequests   *prometheus.CounterVec
	APIDuration   prometheus.Histogram
	PagesLoaded   prometheus.Counter
	ItemsLoaded   prometheus.Counter
	FeedErrors    prometheus.Counter
	PageDuration  prometheus.Histogram
	PlayerStates  *prometheus.CounterVec
	PlayerLoads   prometheus.Counter
	PlayerStartup prometheus.Histogram
	ActiveIndex   prometheus.Gauge
	Searches      *prometheus.CounterVec
}

// New registers all collectors plus the Go runtime collector.
func New() *Metrics {
	m := &Metrics{
		reg: prometheus.NewRegistry(),
		Events: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "realstream_events_total",
			Help: "Structured events by kind",
		}, []string{"kind"}),
		APIRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "realstream_api_requests_total",
			Help: "Backend requests by status class",
		}, []string{"class"}),
		APIDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "realstream_api_request_duration_seconds",
			Help:    "Backend request latency including retries",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}),
		PagesLoaded: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "realstream_feed_pages_loaded_total",
			Help: "Feed pages loaded",
		}),
		ItemsLoaded: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "realstream_feed_items_loaded_total",
			Help: "Feed items received across all pages",
		}),
		FeedErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "realstream_feed_errors_total",
			Help: "Failed page loads",
		}),
		PageDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "realstream_feed_page_duration_seconds",
			Help:    "Time to load one feed page",
			Buckets: prometheus.DefBuckets,
		}),
		PlayerStates: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "realstream_player_state_changes_total",
			Help: "Player state notifications by state",
		}, []string{"state"}),
		PlayerLoads: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "realstream_player_loads_total",
			Help: "Media swaps on the persistent player",
		}),
		PlayerStartup: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "realstream_player_startup_seconds",
			Help:    "Time from initialize to a ready player",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2, 5, 10},
		}),
		ActiveIndex: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "realstream_feed_active_index",
			Help: "Index of the item on screen",
		}),
		Searches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "realstream_searches_total",
			Help: "Submitted searches by outcome",
		}, []string{"outcome"}),
	}
	m.reg.MustRegister(
		collectors.NewGoCollector(),
		m.Events, m.APIRequests, m.APIDuration,
		m.PagesLoaded, m.ItemsLoaded, m.FeedErrors, m.PageDuration,
		m.PlayerStates, m.PlayerLoads, m.PlayerStartup,
		m.ActiveIndex, m.Searches,
	)
	return m
}

// Registry exposes the registry for tests and extra collectors.
func (m *Metrics) Registry() *prometheus.Registry { return m.reg }

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.reg, promhttp.HandlerOpts{Registry: m.reg})
}

// Observe updates series from one event. Install with
// otel.Logger.SetObserver.
func (m *Metrics) Observe(e otel.Event) {
	m.Events.WithLabelValues(string(e.Kind)).Inc()

	switch e.Kind {
	case otel.KindAPIRequest, otel.KindAPIError:
		m.APIRequests.WithLabelValues(statusClass(e.Status)).Inc()
		if e.Dur > 0 {
			m.APIDuration.Observe(e.Dur.Seconds())
		}
	case otel.KindPageLoaded:
		m.PagesLoaded.Inc()
		m.ItemsLoaded.Add(float64(e.Count))
		if e.Dur > 0 {
			m.PageDuration.Observe(e.Dur.Seconds())
		}
	case otel.KindFeedError:
		m.FeedErrors.Inc()
	case otel.KindPlayerState:
		m.PlayerStates.WithLabelValues(e.Msg).Inc()
	case otel.KindPlayerLoad:
		m.PlayerLoads.Inc()
	case otel.KindPlayerReady:
		if e.Dur > 0 {
			m.PlayerStartup.Observe(e.Dur.Seconds())
		}
	case otel.KindActiveIndex:
		m.ActiveIndex.Set(float64(e.Index))
	case otel.KindSearch:
		m.Searches.WithLabelValues("ok").Inc()
	case otel.KindSearchFailed:
		m.Searches.WithLabelValues("failed").Inc()
	}
}

// statusClass maps 404 to "4xx" and 0 (transport failure) to "error".
func statusClass(code int) string {
	if code <= 0 {
		return "error"
	}
	return strconv.Itoa(code/100) + "xx"
}
