package decline

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// Fluid identifies the produced phase a decline model describes.
type Fluid string

const (
	FluidOil Fluid = "OIL"
	FluidGas Fluid = "GAS"
)

// Fluids lists the modeled fluids in output order.
var Fluids = []Fluid{FluidOil, FluidGas}

const (
	// OilEconomicLimit is the minimum viable oil rate.
	OilEconomicLimit = 250.0
	// GasEconomicLimit is the minimum viable gas rate.
	GasEconomicLimit = 1000.0

	maxNominalDeclinePct     = 100.0
	clampedNominalDeclinePct = 99.9
)

// EconomicLimit returns the fixed economic limit for a fluid.
func EconomicLimit(fluid Fluid) float64 {
	if fluid == FluidGas {
		return GasEconomicLimit
	}
	return OilEconomicLimit
}

// IsValid reports whether the fluid is supported.
func (f Fluid) IsValid() bool {
	return f == FluidOil || f == FluidGas
}

// FluidParams are the Arps parameters of one fluid.
type FluidParams struct {
	InitialRate       float64 `json:"initial_rate"`
	NominalDeclinePct float64 `json:"nominal_decline"`
	BFactor           float64 `json:"b_factor"`
	MinDeclinePct     float64 `json:"min_decline_floor"`
}

// Regime is the closed-form branch a hyperbolic exponent selects.
type Regime string

const (
	RegimeExponential Regime = "EXPONENTIAL"
	RegimeHarmonic    Regime = "HARMONIC"
	RegimeHyperbolic  Regime = "HYPERBOLIC"
)

// Regime returns the decline regime selected by the b-factor.
func (p FluidParams) Regime() Regime {
	switch {
	case p.BFactor == 0:
		return RegimeExponential
	case p.BFactor == 1:
		return RegimeHarmonic
	default:
		return RegimeHyperbolic
	}
}

// NominalDi converts the percentage decline into the Arps nominal decline (1/year).
func (p FluidParams) NominalDi() float64 {
	di := PercentToFraction(p.NominalDeclinePct)
	if p.BFactor == 0 {
		return di
	}
	return (math.Pow(1-di, -p.BFactor) - 1) / p.BFactor
}

func (p FluidParams) validate(wellID string, fluid Fluid) (FluidParams, error) {
	prefix := strings.ToLower(string(fluid))
	if !isFinite(p.InitialRate) || p.InitialRate <= 0 {
		return p, malformed(wellID, "qi_"+prefix, formatFloat(p.InitialRate), "initial rate must be > 0")
	}
	if !isFinite(p.NominalDeclinePct) || p.NominalDeclinePct < 0 || p.NominalDeclinePct > maxNominalDeclinePct {
		return p, malformed(wellID, "di_"+prefix, formatFloat(p.NominalDeclinePct), "nominal decline must be within 0-100")
	}
	if !isFinite(p.BFactor) || p.BFactor < 0 {
		return p, malformed(wellID, "b_"+prefix, formatFloat(p.BFactor), "b-factor must be >= 0")
	}
	if !isFinite(p.MinDeclinePct) || p.MinDeclinePct < 0 {
		return p, malformed(wellID, "min_decline_"+prefix, formatFloat(p.MinDeclinePct), "min decline floor must be >= 0")
	}
	if p.NominalDeclinePct == maxNominalDeclinePct {
		p.NominalDeclinePct = clampedNominalDeclinePct
	}
	return p, nil
}

// DeclineModel is the per-well decline parameter record for oil and gas.
type DeclineModel struct {
	WellID   string
	PeakDate time.Time
	Oil      FluidParams
	Gas      FluidParams
}

// NewDeclineModel validates the parameters and builds a model.
// A nominal decline of exactly 100 is clamped to 99.9.
func NewDeclineModel(wellID string, peakDate time.Time, oil, gas FluidParams) (DeclineModel, error) {
	wellID = strings.TrimSpace(wellID)
	if wellID == "" {
		return DeclineModel{}, ErrEmptyWellID
	}
	if peakDate.IsZero() {
		return DeclineModel{}, ErrInvalidPeakDate
	}
	oil, err := oil.validate(wellID, FluidOil)
	if err != nil {
		return DeclineModel{}, err
	}
	gas, err = gas.validate(wellID, FluidGas)
	if err != nil {
		return DeclineModel{}, err
	}
	return DeclineModel{
		WellID:   wellID,
		PeakDate: truncateToDay(peakDate),
		Oil:      oil,
		Gas:      gas,
	}, nil
}

// Params returns the parameters for a fluid.
func (m DeclineModel) Params(fluid Fluid) FluidParams {
	if fluid == FluidGas {
		return m.Gas
	}
	return m.Oil
}

// WithNominalDecline returns a copy with the given decline percentages substituted.
func (m DeclineModel) WithNominalDecline(oilPct, gasPct float64) DeclineModel {
	out := m
	out.Oil.NominalDeclinePct = clampDecline(oilPct)
	out.Gas.NominalDeclinePct = clampDecline(gasPct)
	return out
}

// Record renders the model back to its raw record form.
func (m DeclineModel) Record() ModelRecord {
	return ModelRecord{
		WellID:        m.WellID,
		PeakDate:      m.PeakDate.Format(peakDateLayouts[0]),
		QiOil:         formatFloat(m.Oil.InitialRate),
		DiOil:         formatFloat(m.Oil.NominalDeclinePct),
		BOil:          formatFloat(m.Oil.BFactor),
		MinDeclineOil: formatFloat(m.Oil.MinDeclinePct),
		QiGas:         formatFloat(m.Gas.InitialRate),
		DiGas:         formatFloat(m.Gas.NominalDeclinePct),
		BGas:          formatFloat(m.Gas.BFactor),
		MinDeclineGas: formatFloat(m.Gas.MinDeclinePct),
	}
}

// ModelRecord is the untyped decline record as stored or entered by users.
type ModelRecord struct {
	WellID        string `json:"well_id"`
	PeakDate      string `json:"peak_date"`
	QiOil         string `json:"qi_oil"`
	DiOil         string `json:"di_oil"`
	BOil          string `json:"b_oil"`
	MinDeclineOil string `json:"min_decline_oil"`
	QiGas         string `json:"qi_gas"`
	DiGas         string `json:"di_gas"`
	BGas          string `json:"b_gas"`
	MinDeclineGas string `json:"min_decline_gas"`
}

var peakDateLayouts = []string{
	"2006-01-02",
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"01/02/2006",
}

// ParsePeakDate parses a peak production date in any supported layout.
func ParsePeakDate(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, ErrInvalidPeakDate
	}
	for _, layout := range peakDateLayouts {
		if parsed, err := time.Parse(layout, value); err == nil {
			return truncateToDay(parsed), nil
		}
	}
	return time.Time{}, fmt.Errorf("%w %q: accepted layouts are %s", ErrInvalidPeakDate, value, strings.Join(peakDateLayouts, ", "))
}

// ParseModelRecord converts a raw record into a validated DeclineModel.
func ParseModelRecord(rec ModelRecord) (DeclineModel, error) {
	wellID := strings.TrimSpace(rec.WellID)
	if wellID == "" {
		return DeclineModel{}, ErrEmptyWellID
	}
	peak, err := ParsePeakDate(rec.PeakDate)
	if err != nil {
		return DeclineModel{}, err
	}

	var oil, gas FluidParams
	fields := []struct {
		name  string
		raw   string
		value *float64
	}{
		{"qi_oil", rec.QiOil, &oil.InitialRate},
		{"di_oil", rec.DiOil, &oil.NominalDeclinePct},
		{"b_oil", rec.BOil, &oil.BFactor},
		{"min_decline_oil", rec.MinDeclineOil, &oil.MinDeclinePct},
		{"qi_gas", rec.QiGas, &gas.InitialRate},
		{"di_gas", rec.DiGas, &gas.NominalDeclinePct},
		{"b_gas", rec.BGas, &gas.BFactor},
		{"min_decline_gas", rec.MinDeclineGas, &gas.MinDeclinePct},
	}
	for _, f := range fields {
		raw := strings.TrimSpace(f.raw)
		if raw == "" {
			return DeclineModel{}, malformed(wellID, f.name, "", "required")
		}
		parsed, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return DeclineModel{}, malformed(wellID, f.name, raw, "not a number")
		}
		*f.value = parsed
	}
	return NewDeclineModel(wellID, peak, oil, gas)
}

func clampDecline(pct float64) float64 {
	if pct >= maxNominalDeclinePct {
		return clampedNominalDeclinePct
	}
	return pct
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
