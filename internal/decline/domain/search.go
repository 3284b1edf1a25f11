package decline

// SearchGrid is the candidate set of nominal decline percentages, stop exclusive.
type SearchGrid struct {
	StartPct float64 `yaml:"start_pct" json:"start_pct"`
	StopPct  float64 `yaml:"stop_pct" json:"stop_pct"`
	StepPct  float64 `yaml:"step_pct" json:"step_pct"`
}

// DefaultSearchGrid is {40, 45, ..., 90}.
var DefaultSearchGrid = SearchGrid{StartPct: 40, StopPct: 95, StepPct: 5}

// Candidates lists the grid values in ascending order.
func (g SearchGrid) Candidates() []float64 {
	if g.StepPct <= 0 || g.StopPct <= g.StartPct {
		return nil
	}
	var out []float64
	for i := 0; ; i++ {
		v := g.StartPct + float64(i)*g.StepPct
		if v >= g.StopPct {
			break
		}
		out = append(out, v)
	}
	return out
}

// FitOptions controls a single-well fit.
type FitOptions struct {
	Flags     LoadFlags
	IterateDi bool
	Policy    ErrorPolicy
	Grid      SearchGrid
}

// FitResult is a well's simulated output and summary.
type FitResult struct {
	Model     DeclineModel
	Records   []RateRecord
	Summary   ErrorSummary
	Searched  bool
	Evaluated int
}

// FitWell simulates a well, first grid-searching the nominal decline per fluid
// when IterateDi is set. Oil and gas keep independent best candidates; ties go
// to the first candidate in ascending order.
func FitWell(model DeclineModel, samples []Sample, opts FitOptions) (FitResult, error) {
	if opts.Policy == nil {
		opts.Policy = MedianPolicy{}
	}
	if !opts.IterateDi {
		return simulateFit(model, samples, opts)
	}

	grid := opts.Grid
	if grid == (SearchGrid{}) {
		grid = DefaultSearchGrid
	}
	candidates := grid.Candidates()
	if len(candidates) == 0 {
		return FitResult{}, ErrEmptyGrid
	}

	var bestOilDi, bestGasDi, bestOilErr, bestGasErr float64
	for i, di := range candidates {
		records, err := SimulateWell(model.WithNominalDecline(di, di), samples, opts.Flags)
		if err != nil {
			return FitResult{}, err
		}
		oilErr := FluidError(records, FluidOil, opts.Policy)
		gasErr := FluidError(records, FluidGas, opts.Policy)
		if i == 0 || oilErr < bestOilErr {
			bestOilDi, bestOilErr = di, oilErr
		}
		if i == 0 || gasErr < bestGasErr {
			bestGasDi, bestGasErr = di, gasErr
		}
	}

	oilDi, gasDi := model.Oil.NominalDeclinePct, model.Gas.NominalDeclinePct
	if opts.Flags.Oil {
		oilDi = bestOilDi
	}
	if opts.Flags.Gas {
		gasDi = bestGasDi
	}
	result, err := simulateFit(model.WithNominalDecline(oilDi, gasDi), samples, opts)
	if err != nil {
		return FitResult{}, err
	}
	result.Searched = true
	result.Evaluated = len(candidates)
	return result, nil
}

func simulateFit(model DeclineModel, samples []Sample, opts FitOptions) (FitResult, error) {
	records, err := SimulateWell(model, samples, opts.Flags)
	if err != nil {
		return FitResult{}, err
	}
	summary := Summarize(model, records, opts.Policy)
	if !opts.Flags.Oil || !opts.Flags.Gas {
		projected, err := SimulateWell(model, samples, AllFluids)
		if err != nil {
			return FitResult{}, err
		}
		summary.OilAboveLimit = latestProjectedRate(projected, FluidOil) >= OilEconomicLimit
		summary.GasAboveLimit = latestProjectedRate(projected, FluidGas) >= GasEconomicLimit
	}
	return FitResult{
		Model:   model,
		Records: records,
		Summary: summary,
	}, nil
}
