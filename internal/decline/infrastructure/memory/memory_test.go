package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	decline "decline-cloud/internal/decline/domain"
)

func TestRateStoreReplaceAndSnapshot(t *testing.T) {
	store := NewRateStore()
	day := time.Date(2023, time.May, 1, 0, 0, 0, 0, time.UTC)
	rows := []decline.RateRecord{
		{WellID: "B", Date: day.AddDate(0, 1, 0)},
		{WellID: "B", Date: day},
	}
	if err := store.Replace("B", rows); err != nil {
		t.Fatalf("replace B: %v", err)
	}
	if err := store.Replace("A", []decline.RateRecord{{WellID: "A", Date: day}}); err != nil {
		t.Fatalf("replace A: %v", err)
	}

	rows[0].QOil = 42
	got, ok := store.Get("B")
	if !ok || got[0].QOil != 0 {
		t.Fatalf("expected store to own a copy, got %+v", got)
	}

	snap := store.Snapshot()
	if len(snap) != 3 {
		t.Fatalf("expected 3 rows, got %d", len(snap))
	}
	if snap[0].WellID != "A" || !snap[1].Date.Equal(day) || !snap[2].Date.After(day) {
		t.Fatalf("unexpected snapshot order %+v", snap)
	}

	if err := store.Replace("A", []decline.RateRecord{{WellID: "B"}}); !errors.Is(err, decline.ErrWellMismatch) {
		t.Fatalf("expected ErrWellMismatch, got %v", err)
	}
	if err := store.Replace("", nil); !errors.Is(err, decline.ErrEmptyWellID) {
		t.Fatalf("expected ErrEmptyWellID, got %v", err)
	}

	store.Delete("A")
	if ids := store.WellIDs(); len(ids) != 1 || ids[0] != "B" {
		t.Fatalf("unexpected well ids %v", ids)
	}
}

func TestSummaryStoreReplace(t *testing.T) {
	store := NewSummaryStore()
	if err := store.Replace("W2", decline.ErrorSummary{WellID: "W2", ErrorOil: 3}); err != nil {
		t.Fatalf("replace: %v", err)
	}
	if err := store.Replace("W1", decline.ErrorSummary{WellID: "W1", ErrorOil: 1}); err != nil {
		t.Fatalf("replace: %v", err)
	}
	if err := store.Replace("W1", decline.ErrorSummary{WellID: "W1", ErrorOil: 2}); err != nil {
		t.Fatalf("replace: %v", err)
	}
	snap := store.Snapshot()
	if len(snap) != 2 || snap[0].WellID != "W1" || snap[0].ErrorOil != 2 {
		t.Fatalf("unexpected snapshot %+v", snap)
	}
	if store.Len() != 2 {
		t.Fatalf("expected 2 rows, got %d", store.Len())
	}
}

func TestProductionRepositoryOrdersSamples(t *testing.T) {
	day := time.Date(2023, time.May, 1, 0, 0, 0, 0, time.UTC)
	repo := NewProductionRepository(
		decline.Sample{WellID: "W2", Date: day},
		decline.Sample{WellID: "W1", Date: day.AddDate(0, 2, 0)},
		decline.Sample{WellID: "W1", Date: day},
	)
	ctx := context.Background()
	ids, err := repo.WellIDs(ctx)
	if err != nil || len(ids) != 2 || ids[0] != "W1" {
		t.Fatalf("unexpected well ids %v err=%v", ids, err)
	}
	samples, err := repo.Samples(ctx, "W1")
	if err != nil {
		t.Fatalf("samples: %v", err)
	}
	if len(samples) != 2 || !samples[0].Date.Equal(day) {
		t.Fatalf("expected ascending samples, got %+v", samples)
	}
}

func TestModelRepositoryMissingModel(t *testing.T) {
	repo := NewModelRepository(decline.ModelRecord{WellID: "W1", QiOil: "1000"})
	ctx := context.Background()
	if _, err := repo.Get(ctx, "W9"); !errors.Is(err, decline.ErrModelNotFound) {
		t.Fatalf("expected ErrModelNotFound, got %v", err)
	}
	if err := repo.Save(ctx, decline.ModelRecord{WellID: "W0"}); err != nil {
		t.Fatalf("save: %v", err)
	}
	list, err := repo.List(ctx)
	if err != nil || len(list) != 2 || list[0].WellID != "W0" {
		t.Fatalf("unexpected list %+v err=%v", list, err)
	}
}

func TestGenerateSyntheticPopulation(t *testing.T) {
	pop, err := GenerateSyntheticPopulation(SyntheticOptions{Wells: 3, Months: 12, Seed: 7})
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if len(pop.Models) != 3 || len(pop.Samples) != 36 {
		t.Fatalf("unexpected sizes models=%d samples=%d", len(pop.Models), len(pop.Samples))
	}
	for _, rec := range pop.Models {
		if _, err := decline.ParseModelRecord(rec); err != nil {
			t.Fatalf("generated model does not parse: %v", err)
		}
	}
	again, err := GenerateSyntheticPopulation(SyntheticOptions{Wells: 3, Months: 12, Seed: 7})
	if err != nil {
		t.Fatalf("generate again: %v", err)
	}
	if again.Samples[5] != pop.Samples[5] {
		t.Fatalf("expected deterministic output for a fixed seed")
	}
	if _, err := GenerateSyntheticPopulation(SyntheticOptions{}); err == nil {
		t.Fatalf("expected error for empty options")
	}
}
