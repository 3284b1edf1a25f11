package metrics

import (
	"io"
	"log"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

type fixedSizer int

func (s fixedSizer) Len() int { return int(s) }

func TestInitRegistersDeclineMetrics(t *testing.T) {
	Init(fixedSizer(3), fixedSizer(2), log.New(io.Discard, "", 0))
	ObserveFitPass(ResultSuccess, 250*time.Millisecond)
	IncWellOutcome(WellSkipped)
	AddSearchCandidates(11)

	families, err := prometheus.DefaultGatherer.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	values := make(map[string]float64)
	for _, mf := range families {
		for _, m := range mf.GetMetric() {
			switch {
			case m.GetGauge() != nil:
				values[mf.GetName()] = m.GetGauge().GetValue()
			case m.GetCounter() != nil:
				values[mf.GetName()] += m.GetCounter().GetValue()
			}
		}
	}

	checks := map[string]float64{
		metricPrefix + "rate_table_wells":        3,
		metricPrefix + "error_summary_wells":     2,
		metricPrefix + "fit_pass_total":          1,
		metricPrefix + "wells_total":             1,
		metricPrefix + "search_candidates_total": 11,
	}
	for name, want := range checks {
		if got := values[name]; got != want {
			t.Fatalf("%s: expected %v, got %v", name, want, got)
		}
	}
}
