package memory

import (
	"fmt"
	"math/rand"
	"time"

	decline "decline-cloud/internal/decline/domain"
)

// SyntheticPopulation describes a generated demo population.
type SyntheticPopulation struct {
	Samples []decline.Sample
	Models  []decline.ModelRecord
}

// SyntheticOptions configures GenerateSyntheticPopulation.
type SyntheticOptions struct {
	Wells    int
	Months   int
	Start    time.Time
	Seed     int64
	Prefix   string
	NoisePct float64
}

// GenerateSyntheticPopulation builds Arps-shaped monthly production with
// multiplicative noise. Models are seeded with a 50% decline guess so a
// search pass has something to improve.
func GenerateSyntheticPopulation(opts SyntheticOptions) (SyntheticPopulation, error) {
	if opts.Wells <= 0 || opts.Months <= 0 {
		return SyntheticPopulation{}, fmt.Errorf("synthetic population: wells and months must be > 0")
	}
	if opts.Start.IsZero() {
		opts.Start = time.Date(2020, time.January, 1, 0, 0, 0, 0, time.UTC)
	}
	if opts.Prefix == "" {
		opts.Prefix = "well-"
	}
	rng := rand.New(rand.NewSource(opts.Seed))
	candidates := decline.DefaultSearchGrid.Candidates()
	bFactors := []float64{0, 0.5, 1}

	var out SyntheticPopulation
	for i := 0; i < opts.Wells; i++ {
		wellID := fmt.Sprintf("%s%04d", opts.Prefix, i+1)
		peak := opts.Start.AddDate(0, rng.Intn(12), 0)
		oil := decline.FluidParams{
			InitialRate:       500 + rng.Float64()*1500,
			NominalDeclinePct: candidates[rng.Intn(len(candidates))],
			BFactor:           bFactors[rng.Intn(len(bFactors))],
			MinDeclinePct:     5,
		}
		gas := decline.FluidParams{
			InitialRate:       2000 + rng.Float64()*8000,
			NominalDeclinePct: candidates[rng.Intn(len(candidates))],
			BFactor:           bFactors[rng.Intn(len(bFactors))],
			MinDeclinePct:     5,
		}
		truth, err := decline.NewDeclineModel(wellID, peak, oil, gas)
		if err != nil {
			return SyntheticPopulation{}, err
		}

		samples := make([]decline.Sample, opts.Months)
		for m := range samples {
			samples[m] = decline.Sample{WellID: wellID, Date: peak.AddDate(0, m, 0)}
		}
		projected, err := decline.SimulateWell(truth, samples, decline.AllFluids)
		if err != nil {
			return SyntheticPopulation{}, err
		}
		for m, rec := range projected {
			samples[m].OilVolume = rec.QOil * noise(rng, opts.NoisePct)
			samples[m].GasVolume = rec.QGas * noise(rng, opts.NoisePct)
		}
		out.Samples = append(out.Samples, samples...)
		out.Models = append(out.Models, truth.WithNominalDecline(50, 50).Record())
	}
	return out, nil
}

func noise(rng *rand.Rand, pct float64) float64 {
	if pct <= 0 {
		return 1
	}
	return 1 + (rng.Float64()*2-1)*pct/100
}
