package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the view pipeline collectors.
// A nil *Metrics is valid and records nothing.
// ⭐ SSOT: 메트릭 정의는 여기서만
type Metrics struct {
	registry *prometheus.Registry

	ArticlesScored   *prometheus.CounterVec
	TitleFallbacks   *prometheus.CounterVec
	UniformFallbacks *prometheus.CounterVec
	ViewsEmitted     *prometheus.CounterVec
	InstrumentErrors *prometheus.CounterVec
	RunDuration      prometheus.Histogram
	LastRun          prometheus.Gauge
}

// New creates collectors registered on a fresh registry
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),

		ArticlesScored: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "newsviews_articles_scored_total",
				Help: "Articles classified, by scored field",
			},
			[]string{"field"}, // text|title
		),
		TitleFallbacks: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "newsviews_title_fallbacks_total",
				Help: "Articles scored on title because body text was missing",
			},
			[]string{"instrument"},
		),
		UniformFallbacks: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "newsviews_uniform_fallbacks_total",
				Help: "Aggregations that returned the no-information distribution",
			},
			[]string{"instrument"},
		),
		ViewsEmitted: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "newsviews_views_emitted_total",
				Help: "Non-neutral views emitted, by direction",
			},
			[]string{"direction"}, // bullish|bearish
		),
		InstrumentErrors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "newsviews_instrument_errors_total",
				Help: "Instruments skipped because a collaborator failed",
			},
			[]string{"stage"}, // fetch|classify|aggregate
		),
		RunDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "newsviews_run_duration_seconds",
				Help:    "Pipeline run duration in seconds",
				Buckets: []float64{0.5, 1, 2, 5, 10, 30, 60, 120, 300},
			},
		),
		LastRun: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "newsviews_last_run_timestamp",
				Help: "Unix timestamp of the last completed pipeline run",
			},
		),
	}

	m.registry.MustRegister(
		m.ArticlesScored,
		m.TitleFallbacks,
		m.UniformFallbacks,
		m.ViewsEmitted,
		m.InstrumentErrors,
		m.RunDuration,
		m.LastRun,
	)

	return m
}

// Registry exposes the underlying registry (tests, custom exporters)
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in Prometheus text format
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ObserveArticle records one classified article
func (m *Metrics) ObserveArticle(instrument string, titleFallback bool) {
	if m == nil {
		return
	}
	if titleFallback {
		m.ArticlesScored.WithLabelValues("title").Inc()
		m.TitleFallbacks.WithLabelValues(instrument).Inc()
		return
	}
	m.ArticlesScored.WithLabelValues("text").Inc()
}

// ObserveUniformFallback records an aggregation with no usable signal
func (m *Metrics) ObserveUniformFallback(instrument string) {
	if m == nil {
		return
	}
	m.UniformFallbacks.WithLabelValues(instrument).Inc()
}

// ObserveView records one emitted (non-neutral) view
func (m *Metrics) ObserveView(adjustment float64) {
	if m == nil || adjustment == 0 {
		return
	}
	direction := "bullish"
	if adjustment < 0 {
		direction = "bearish"
	}
	m.ViewsEmitted.WithLabelValues(direction).Inc()
}

// ObserveInstrumentError records a skipped instrument
func (m *Metrics) ObserveInstrumentError(stage string) {
	if m == nil {
		return
	}
	m.InstrumentErrors.WithLabelValues(stage).Inc()
}

// ObserveRun records a completed pipeline run
func (m *Metrics) ObserveRun(duration time.Duration, finishedAt time.Time) {
	if m == nil {
		return
	}
	m.RunDuration.Observe(duration.Seconds())
	m.LastRun.Set(float64(finishedAt.Unix()))
}
