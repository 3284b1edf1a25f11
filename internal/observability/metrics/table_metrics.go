package metrics

import (
	"log"

	"github.com/prometheus/client_golang/prometheus"
)

func registerTableMetrics(rates, summaries Sizer, logger *log.Logger) {
	prometheus.MustRegister(prometheus.NewGaugeFunc(
		prometheus.GaugeOpts{
			Name: metricPrefix + "rate_table_wells",
			Help: "Wells held in the production-rates table",
		},
		func() float64 {
			return tableSize(rates, logger, "rates")
		},
	))

	prometheus.MustRegister(prometheus.NewGaugeFunc(
		prometheus.GaugeOpts{
			Name: metricPrefix + "error_summary_wells",
			Help: "Wells held in the error-summary table",
		},
		func() float64 {
			return tableSize(summaries, logger, "summaries")
		},
	))
}

func tableSize(table Sizer, logger *log.Logger, name string) float64 {
	if table == nil {
		if logger != nil {
			logger.Printf("metrics table %s not configured", name)
		}
		return 0
	}
	n := table.Len()
	if n < 0 {
		return 0
	}
	return float64(n)
}
