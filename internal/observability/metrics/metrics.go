package metrics

import (
	"log"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	metricPrefix = "platform_decline_"

	resultSuccess = "success"
	resultError   = "error"

	wellOutcomeFitted    = "fitted"
	wellOutcomeSkipped   = "skipped"
	wellOutcomeMalformed = "malformed"
)

var (
	registerOnce sync.Once

	fitPassTotal   *prometheus.CounterVec
	fitPassLatency *prometheus.HistogramVec

	wellOutcomes     *prometheus.CounterVec
	searchCandidates prometheus.Counter

	singleWellTotal   *prometheus.CounterVec
	singleWellLatency *prometheus.HistogramVec

	exportTotal   *prometheus.CounterVec
	exportLatency *prometheus.HistogramVec
)

// Sizer reports how many wells a table holds.
type Sizer interface {
	Len() int
}

// Init registers decline engine metrics and table-size gauges.
func Init(rates, summaries Sizer, logger *log.Logger) {
	registerOnce.Do(func() {
		fitPassTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "fit_pass_total",
				Help: "Total population fit passes by result",
			},
			[]string{"result"},
		)
		fitPassLatency = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "fit_pass_latency_seconds",
				Help:    "Population fit pass latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"result"},
		)
		wellOutcomes = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "wells_total",
				Help: "Total wells processed by outcome",
			},
			[]string{"outcome"},
		)
		searchCandidates = prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: metricPrefix + "search_candidates_total",
				Help: "Total decline candidates evaluated by grid search",
			},
		)
		singleWellTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "single_well_updates_total",
				Help: "Total single-well updates by result",
			},
			[]string{"result"},
		)
		singleWellLatency = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "single_well_update_latency_seconds",
				Help:    "Single-well update latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"result"},
		)
		exportTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "export_total",
				Help: "Total exports by format and result",
			},
			[]string{"format", "result"},
		)
		exportLatency = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "export_latency_seconds",
				Help:    "Export latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"format", "result"},
		)

		prometheus.MustRegister(
			fitPassTotal,
			fitPassLatency,
			wellOutcomes,
			searchCandidates,
			singleWellTotal,
			singleWellLatency,
			exportTotal,
			exportLatency,
		)

		registerTableMetrics(rates, summaries, logger)
	})
}

// ObserveFitPass records population pass duration and result.
func ObserveFitPass(result string, duration time.Duration) {
	if result == "" {
		result = resultSuccess
	}
	if fitPassTotal != nil {
		fitPassTotal.WithLabelValues(result).Inc()
	}
	if fitPassLatency != nil {
		fitPassLatency.WithLabelValues(result).Observe(duration.Seconds())
	}
}

// IncWellOutcome increments the per-well outcome counter.
func IncWellOutcome(outcome string) {
	if outcome == "" {
		outcome = "unknown"
	}
	if wellOutcomes != nil {
		wellOutcomes.WithLabelValues(outcome).Inc()
	}
}

// AddSearchCandidates adds evaluated grid candidates.
func AddSearchCandidates(count int) {
	if count <= 0 {
		return
	}
	if searchCandidates != nil {
		searchCandidates.Add(float64(count))
	}
}

// ObserveSingleWellUpdate records single-well update duration and result.
func ObserveSingleWellUpdate(result string, duration time.Duration) {
	if result == "" {
		result = resultSuccess
	}
	if singleWellTotal != nil {
		singleWellTotal.WithLabelValues(result).Inc()
	}
	if singleWellLatency != nil {
		singleWellLatency.WithLabelValues(result).Observe(duration.Seconds())
	}
}

// ObserveExport records export latency and result.
func ObserveExport(format, result string, duration time.Duration) {
	if format == "" {
		format = "unknown"
	}
	if result == "" {
		result = resultSuccess
	}
	if exportTotal != nil {
		exportTotal.WithLabelValues(format, result).Inc()
	}
	if exportLatency != nil {
		exportLatency.WithLabelValues(format, result).Observe(duration.Seconds())
	}
}

// Exported constants for callers.
const (
	ResultSuccess = resultSuccess
	ResultError   = resultError

	WellFitted    = wellOutcomeFitted
	WellSkipped   = wellOutcomeSkipped
	WellMalformed = wellOutcomeMalformed
)
