// Package metrics exposes Prometheus counters for analyses and provider calls.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry holds all StockCheck metrics. A nil *Registry is valid and records nothing.
type Registry struct {
	reg *prometheus.Registry

	Analyses         *prometheus.CounterVec
	AnalysisDuration prometheus.Histogram
	TotalScore       *prometheus.GaugeVec
	SourceSelections *prometheus.CounterVec
	Fallbacks        *prometheus.CounterVec
	ProviderLatency  *prometheus.HistogramVec
	CacheLookups     *prometheus.CounterVec
}

// New creates a registry with process and Go collectors attached.
func New() *Registry {
	r := &Registry{
		reg: prometheus.NewRegistry(),
		Analyses: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "stockcheck_analyses_total",
				Help: "Completed analyses by result",
			},
			[]string{"result"},
		),
		AnalysisDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "stockcheck_analysis_duration_seconds",
				Help:    "Wall time of one analysis",
				Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
			},
		),
		TotalScore: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "stockcheck_total_score",
				Help: "Most recent composite score by ticker",
			},
			[]string{"ticker"},
		),
		SourceSelections: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "stockcheck_fundamentals_source_total",
				Help: "Fundamentals source chosen per analysis",
			},
			[]string{"source"},
		),
		Fallbacks: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "stockcheck_fundamentals_fallback_total",
				Help: "Fallbacks from the secondary provider by reason",
			},
			[]string{"reason"},
		),
		ProviderLatency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "stockcheck_provider_request_seconds",
				Help:    "Provider call latency",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"provider", "call", "result"},
		),
		CacheLookups: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "stockcheck_cache_lookups_total",
				Help: "Cache lookups by namespace and outcome",
			},
			[]string{"namespace", "outcome"},
		),
	}
	r.reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		r.Analyses, r.AnalysisDuration, r.TotalScore,
		r.SourceSelections, r.Fallbacks, r.ProviderLatency, r.CacheLookups,
	)
	return r
}

// Handler serves the registry in the Prometheus text format.
func (r *Registry) Handler() http.Handler {
	if r == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(r.reg, promhttp.HandlerOpts{})
}

func (r *Registry) ObserveAnalysis(ticker string, score float64, took time.Duration, err error) {
	if r == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	} else {
		r.TotalScore.WithLabelValues(ticker).Set(score)
	}
	r.Analyses.WithLabelValues(result).Inc()
	r.AnalysisDuration.Observe(took.Seconds())
}

func (r *Registry) ObserveSelection(source, fallbackReason string) {
	if r == nil {
		return
	}
	r.SourceSelections.WithLabelValues(source).Inc()
	if fallbackReason != "" {
		r.Fallbacks.WithLabelValues(fallbackReason).Inc()
	}
}

func (r *Registry) ObserveProvider(provider, call string, took time.Duration, err error) {
	if r == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	r.ProviderLatency.WithLabelValues(provider, call, result).Observe(took.Seconds())
}

func (r *Registry) ObserveCache(namespace string, hit bool) {
	if r == nil {
		return
	}
	outcome := "miss"
	if hit {
		outcome = "hit"
	}
	r.CacheLookups.WithLabelValues(namespace, outcome).Inc()
}
