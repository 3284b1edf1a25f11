package application

import (
	"context"
	"io"
	"log"
	"testing"
	"time"

	"decline-cloud/internal/decline/application/eventbus"
	decline "decline-cloud/internal/decline/domain"
	"decline-cloud/internal/decline/infrastructure/memory"
)

type recordingSink struct {
	saved   map[string]int
	deleted []string
}

func (s *recordingSink) SaveWell(_ context.Context, wellID string, rows []decline.RateRecord, _ decline.ErrorSummary) error {
	if s.saved == nil {
		s.saved = make(map[string]int)
	}
	s.saved[wellID] = len(rows)
	return nil
}

func (s *recordingSink) DeleteWell(_ context.Context, wellID string) error {
	s.deleted = append(s.deleted, wellID)
	return nil
}

func TestWireDeclineEventBusPersistsMergedWells(t *testing.T) {
	peak := time.Date(2022, time.January, 1, 0, 0, 0, 0, time.UTC)
	var samples []decline.Sample
	for i := 0; i < 4; i++ {
		for _, id := range []string{"W1", "W2"} {
			samples = append(samples, decline.Sample{WellID: id, Date: peak.AddDate(0, i, 0), OilVolume: 900, GasVolume: 4000})
		}
	}
	model, err := decline.NewDeclineModel("W1", peak,
		decline.FluidParams{InitialRate: 1000, NominalDeclinePct: 50},
		decline.FluidParams{InitialRate: 5000, NominalDeclinePct: 50},
	)
	if err != nil {
		t.Fatalf("new model: %v", err)
	}

	bus := eventbus.NewInMemoryBus()
	logger := log.New(io.Discard, "", 0)
	service, err := NewPopulationService(
		memory.NewProductionRepository(samples...),
		memory.NewModelRepository(model.Record()),
		memory.NewRateStore(),
		memory.NewSummaryStore(),
		DefaultConfig(),
		WithEventBus(bus),
		WithLogger(logger),
	)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	sink := &recordingSink{}
	WireDeclineEventBus(bus, service, sink, logger)

	if _, err := service.RunFullPopulation(context.Background(), RunOptions{Flags: decline.AllFluids}); err != nil {
		t.Fatalf("run full population: %v", err)
	}
	if sink.saved["W1"] != 4 {
		t.Fatalf("expected 4 rows persisted for W1, got %v", sink.saved)
	}
	if len(sink.deleted) != 1 || sink.deleted[0] != "W2" {
		t.Fatalf("expected W2 deleted, got %v", sink.deleted)
	}
}

// listedSource narrows the well list of a production repository.
type listedSource struct {
	*memory.ProductionRepository
	ids []string
}

func (s *listedSource) WellIDs(context.Context) ([]string, error) {
	return s.ids, nil
}

func TestWireDeclineEventBusDeletesWellsThatLeftProduction(t *testing.T) {
	peak := time.Date(2022, time.January, 1, 0, 0, 0, 0, time.UTC)
	var samples []decline.Sample
	var records []decline.ModelRecord
	for _, id := range []string{"W1", "W2"} {
		for i := 0; i < 4; i++ {
			samples = append(samples, decline.Sample{WellID: id, Date: peak.AddDate(0, i, 0), OilVolume: 900, GasVolume: 4000})
		}
		model, err := decline.NewDeclineModel(id, peak,
			decline.FluidParams{InitialRate: 1000, NominalDeclinePct: 50},
			decline.FluidParams{InitialRate: 5000, NominalDeclinePct: 50},
		)
		if err != nil {
			t.Fatalf("new model: %v", err)
		}
		records = append(records, model.Record())
	}

	source := &listedSource{ProductionRepository: memory.NewProductionRepository(samples...), ids: []string{"W1", "W2"}}
	summaries := memory.NewSummaryStore()
	bus := eventbus.NewInMemoryBus()
	logger := log.New(io.Discard, "", 0)
	service, err := NewPopulationService(
		source,
		memory.NewModelRepository(records...),
		memory.NewRateStore(),
		summaries,
		DefaultConfig(),
		WithEventBus(bus),
		WithLogger(logger),
	)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	sink := &recordingSink{}
	WireDeclineEventBus(bus, service, sink, logger)

	ctx := context.Background()
	if _, err := service.RunFullPopulation(ctx, RunOptions{Flags: decline.AllFluids}); err != nil {
		t.Fatalf("first pass: %v", err)
	}
	if sink.saved["W2"] != 4 || len(sink.deleted) != 0 {
		t.Fatalf("expected W2 persisted and nothing deleted, got saved=%v deleted=%v", sink.saved, sink.deleted)
	}

	source.ids = []string{"W1"}
	report, err := service.RunFullPopulation(ctx, RunOptions{Flags: decline.AllFluids})
	if err != nil {
		t.Fatalf("second pass: %v", err)
	}
	if len(report.Removed) != 1 || report.Removed[0] != "W2" {
		t.Fatalf("expected W2 reported removed, got %v", report.Removed)
	}
	if _, ok := summaries.Get("W2"); ok {
		t.Fatalf("expected W2 summary dropped from memory")
	}
	if len(sink.deleted) != 1 || sink.deleted[0] != "W2" {
		t.Fatalf("expected W2 deleted from the sink, got %v", sink.deleted)
	}
}
