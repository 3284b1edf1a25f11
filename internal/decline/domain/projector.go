package decline

import "math"

// Curve is one fluid's decline model prepared for projection.
// The nominal decline transform is applied once, at construction.
type Curve struct {
	initialRate float64
	nominalDi   float64
	bFactor     float64
	floor       float64
}

// NewCurve prepares a fluid's parameters for projection.
func NewCurve(p FluidParams) Curve {
	return Curve{
		initialRate: p.InitialRate,
		nominalDi:   p.NominalDi(),
		bFactor:     p.BFactor,
		floor:       PercentToFraction(p.MinDeclinePct),
	}
}

// NominalDi returns the instantaneous nominal decline at t=0 (1/year).
func (c Curve) NominalDi() float64 { return c.nominalDi }

// InstantaneousDi returns the nominal decline in effect at t years.
// It is NaN when the curve has no decline.
func (c Curve) InstantaneousDi(t float64) float64 {
	if c.nominalDi == 0 {
		return math.NaN()
	}
	return c.nominalDi / (1 + c.bFactor*c.nominalDi*t)
}

// SimulationState carries the exponential-tail switch through a well's
// time-ordered periods. The zero value is the state before the first period.
type SimulationState struct {
	Switched     bool
	SwitchTime   float64
	RateAtSwitch float64

	prevRate float64
	hasPrev  bool
}

// Projection is the outcome of projecting one period.
type Projection struct {
	Rate    float64
	Defined bool
	Tail    bool
}

// Project returns the rate at t years after peak and the state to carry into
// the next period. Periods before peak are undefined and leave the state as is.
// The first projected period that falls under the decline floor anchors the
// exponential tail at the previous period's rate, or at 0 when none exists.
func (c Curve) Project(t float64, state SimulationState) (Projection, SimulationState) {
	if t < 0 || math.IsNaN(t) {
		return Projection{}, state
	}

	var rate float64
	tail := state.Switched || c.InstantaneousDi(t) < c.floor
	if tail {
		if !state.Switched {
			state.Switched = true
			state.SwitchTime = t
			state.RateAtSwitch = 0
			if state.hasPrev {
				state.RateAtSwitch = state.prevRate
			}
		}
		rate = state.RateAtSwitch * math.Exp(-c.floor*(t-state.SwitchTime))
	} else {
		rate = c.rate(t)
	}

	state.prevRate = rate
	state.hasPrev = true
	return Projection{Rate: rate, Defined: true, Tail: tail}, state
}

func (c Curve) rate(t float64) float64 {
	switch {
	case c.bFactor == 0:
		return c.initialRate * math.Exp(-c.nominalDi*t)
	case c.bFactor == 1:
		return c.initialRate / (1 + c.nominalDi*t)
	default:
		return c.initialRate / math.Pow(1+c.bFactor*c.nominalDi*t, 1/c.bFactor)
	}
}
