package decline

import (
	"slices"
	"strings"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

const (
	PolicyMedian = "median"
	PolicySum    = "sum"

	// DefaultOutlierClampPct is the error above which the sum policy ignores a period.
	DefaultOutlierClampPct = 300.0
)

// ErrorPolicy reduces a well's per-period percent errors to one value.
type ErrorPolicy interface {
	Name() string
	Aggregate(errs []float64) float64
}

// MedianPolicy takes the median of all period errors.
type MedianPolicy struct{}

// Name returns the policy name.
func (MedianPolicy) Name() string { return PolicyMedian }

// Aggregate returns the median; an even count averages the middle pair.
func (MedianPolicy) Aggregate(errs []float64) float64 {
	if len(errs) == 0 {
		return 0
	}
	sorted := slices.Clone(errs)
	slices.Sort(sorted)
	mid := len(sorted) / 2
	if len(sorted)%2 == 1 {
		return sorted[mid]
	}
	return (sorted[mid-1] + sorted[mid]) / 2
}

// SumPolicy sums period errors, counting errors above the clamp as 0.
type SumPolicy struct {
	OutlierClampPct float64
}

// Name returns the policy name.
func (SumPolicy) Name() string { return PolicySum }

// Aggregate returns the clamped sum.
func (p SumPolicy) Aggregate(errs []float64) float64 {
	if len(errs) == 0 {
		return 0
	}
	kept := make([]float64, 0, len(errs))
	for _, e := range errs {
		if p.OutlierClampPct > 0 && e > p.OutlierClampPct {
			continue
		}
		kept = append(kept, e)
	}
	if len(kept) == 0 {
		return 0
	}
	return floats.Sum(kept)
}

// PolicyByName resolves a configured policy.
func PolicyByName(name string, outlierClampPct float64) (ErrorPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", PolicyMedian:
		return MedianPolicy{}, nil
	case PolicySum:
		if outlierClampPct <= 0 {
			outlierClampPct = DefaultOutlierClampPct
		}
		return SumPolicy{OutlierClampPct: outlierClampPct}, nil
	default:
		return nil, ErrUnknownPolicy
	}
}

// FluidError aggregates one fluid's period errors.
func FluidError(records []RateRecord, fluid Fluid, policy ErrorPolicy) float64 {
	if policy == nil {
		policy = MedianPolicy{}
	}
	errs := make([]float64, len(records))
	for i, rec := range records {
		errs[i] = rec.Error(fluid)
	}
	return policy.Aggregate(errs)
}

// ErrorSummary is a well's row in the error-summary table.
type ErrorSummary struct {
	WellID        string  `json:"well_id"`
	ErrorOil      float64 `json:"median_error_oil"`
	ErrorGas      float64 `json:"median_error_gas"`
	Policy        string  `json:"policy"`
	OilDi         float64 `json:"di_oil"`
	GasDi         float64 `json:"di_gas"`
	LatestOilRate float64 `json:"latest_q_oil"`
	LatestGasRate float64 `json:"latest_q_gas"`
	// Limit flags follow the model's projection, loaded or not.
	OilAboveLimit bool    `json:"oil_above_limit"`
	GasAboveLimit bool    `json:"gas_above_limit"`
}

// AboveLimit reports whether a fluid's latest rate is at or above its economic limit.
func (s ErrorSummary) AboveLimit(fluid Fluid) bool {
	if fluid == FluidGas {
		return s.GasAboveLimit
	}
	return s.OilAboveLimit
}

// Summarize builds the error-summary row for a well's simulated records.
func Summarize(model DeclineModel, records []RateRecord, policy ErrorPolicy) ErrorSummary {
	if policy == nil {
		policy = MedianPolicy{}
	}
	summary := ErrorSummary{
		WellID:   model.WellID,
		ErrorOil: FluidError(records, FluidOil, policy),
		ErrorGas: FluidError(records, FluidGas, policy),
		Policy:   policy.Name(),
		OilDi:    model.Oil.NominalDeclinePct,
		GasDi:    model.Gas.NominalDeclinePct,
	}
	summary.LatestOilRate = latestProjectedRate(records, FluidOil)
	summary.LatestGasRate = latestProjectedRate(records, FluidGas)
	summary.OilAboveLimit = summary.LatestOilRate >= OilEconomicLimit
	summary.GasAboveLimit = summary.LatestGasRate >= GasEconomicLimit
	return summary
}

func latestProjectedRate(records []RateRecord, fluid Fluid) float64 {
	for i := len(records) - 1; i >= 0; i-- {
		rec := records[i]
		if fluid == FluidGas && rec.GasProjected {
			return rec.QGas
		}
		if fluid == FluidOil && rec.OilProjected {
			return rec.QOil
		}
	}
	return 0
}

// FluidStats rolls up one fluid's well errors across the population.
type FluidStats struct {
	Mean       float64 `json:"mean"`
	StdDev     float64 `json:"std_dev"`
	Max        float64 `json:"max"`
	AboveLimit int     `json:"wells_above_limit"`
}

// PopulationStats rolls up the error-summary table.
type PopulationStats struct {
	Wells int        `json:"wells"`
	Oil   FluidStats `json:"oil"`
	Gas   FluidStats `json:"gas"`
}

// SummarizePopulation computes population statistics over well summaries.
func SummarizePopulation(summaries []ErrorSummary) PopulationStats {
	stats := PopulationStats{Wells: len(summaries)}
	if len(summaries) == 0 {
		return stats
	}
	oil := make([]float64, len(summaries))
	gas := make([]float64, len(summaries))
	for i, s := range summaries {
		oil[i] = s.ErrorOil
		gas[i] = s.ErrorGas
		if s.OilAboveLimit {
			stats.Oil.AboveLimit++
		}
		if s.GasAboveLimit {
			stats.Gas.AboveLimit++
		}
	}
	fillFluidStats(&stats.Oil, oil)
	fillFluidStats(&stats.Gas, gas)
	return stats
}

func fillFluidStats(out *FluidStats, values []float64) {
	if len(values) == 1 {
		out.Mean = values[0]
		out.Max = values[0]
		return
	}
	out.Mean, out.StdDev = stat.MeanStdDev(values, nil)
	out.Max = floats.Max(values)
}
