package decline

import (
	"math"
	"time"
)

// Sample is one observed production period of a well.
type Sample struct {
	WellID    string    `json:"well_id"`
	Date      time.Time `json:"date"`
	OilVolume float64   `json:"oil_volume"`
	GasVolume float64   `json:"gas_volume"`
}

// LoadFlags selects which fluids are projected.
type LoadFlags struct {
	Oil bool `json:"load_oil"`
	Gas bool `json:"load_gas"`
}

// AllFluids loads both oil and gas.
var AllFluids = LoadFlags{Oil: true, Gas: true}

// Loads reports whether a fluid is requested.
func (f LoadFlags) Loads(fluid Fluid) bool {
	if fluid == FluidGas {
		return f.Gas
	}
	return f.Oil
}

// RateRecord is one period of a well's production-rates table.
type RateRecord struct {
	WellID       string    `json:"well_id"`
	Date         time.Time `json:"date"`
	OilVolume    float64   `json:"oil_volume"`
	QOil         float64   `json:"q_oil"`
	ErrorOil     float64   `json:"error_oil"`
	OilProjected bool      `json:"oil_projected"`
	GasVolume    float64   `json:"gas_volume"`
	QGas         float64   `json:"q_gas"`
	ErrorGas     float64   `json:"error_gas"`
	GasProjected bool      `json:"gas_projected"`
}

// Rate returns the predicted rate for a fluid.
func (r RateRecord) Rate(fluid Fluid) float64 {
	if fluid == FluidGas {
		return r.QGas
	}
	return r.QOil
}

// Error returns the percent error for a fluid.
func (r RateRecord) Error(fluid Fluid) float64 {
	if fluid == FluidGas {
		return r.ErrorGas
	}
	return r.ErrorOil
}

// PercentError is |observed-predicted|/observed*100. Periods without positive
// volume or without a defined prediction contribute 0.
func PercentError(observed, predicted float64, defined bool) float64 {
	if !defined || observed <= 0 || math.IsNaN(predicted) {
		return 0
	}
	return math.Abs((observed-predicted)/observed) * 100
}

// SimulateWell projects a well's samples with its decline model, oil and gas
// independently. Samples must belong to the model's well and be ascending by
// date; records come back in input order. Unloaded fluids are reported as 0.
func SimulateWell(model DeclineModel, samples []Sample, flags LoadFlags) ([]RateRecord, error) {
	if model.WellID == "" {
		return nil, ErrEmptyWellID
	}
	if model.PeakDate.IsZero() {
		return nil, ErrInvalidPeakDate
	}
	for i, s := range samples {
		if s.WellID != model.WellID {
			return nil, ErrWellMismatch
		}
		if i > 0 && s.Date.Before(samples[i-1].Date) {
			return nil, ErrSamplesOutOfOrder
		}
	}

	oilCurve := NewCurve(model.Oil)
	gasCurve := NewCurve(model.Gas)
	var oilState, gasState SimulationState

	out := make([]RateRecord, 0, len(samples))
	for _, s := range samples {
		t := ElapsedYears(model.PeakDate, s.Date)
		rec := RateRecord{
			WellID:    s.WellID,
			Date:      s.Date,
			OilVolume: s.OilVolume,
			GasVolume: s.GasVolume,
		}
		if flags.Oil {
			var p Projection
			p, oilState = oilCurve.Project(t, oilState)
			rec.QOil = p.Rate
			rec.OilProjected = p.Defined
			rec.ErrorOil = PercentError(s.OilVolume, p.Rate, p.Defined)
		}
		if flags.Gas {
			var p Projection
			p, gasState = gasCurve.Project(t, gasState)
			rec.QGas = p.Rate
			rec.GasProjected = p.Defined
			rec.ErrorGas = PercentError(s.GasVolume, p.Rate, p.Defined)
		}
		out = append(out, rec)
	}
	return out, nil
}
