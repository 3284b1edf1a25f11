package application

import (
	"context"
	"log"

	"decline-cloud/internal/decline/application/eventbus"
	"decline-cloud/internal/decline/application/events"
	decline "decline-cloud/internal/decline/domain"
)

// ResultSink persists merged well results outside the process.
type ResultSink interface {
	SaveWell(ctx context.Context, wellID string, rows []decline.RateRecord, summary decline.ErrorSummary) error
	DeleteWell(ctx context.Context, wellID string) error
}

// WireDeclineEventBus registers result persistence and event logging on the bus.
// Handlers read merged rows from the service tables, so they observe the same
// state callers do.
func WireDeclineEventBus(bus eventbus.EventBus, service *PopulationService, sink ResultSink, logger *log.Logger) {
	if bus == nil {
		return
	}
	if logger == nil {
		logger = log.Default()
	}

	if sink != nil && service != nil {
		eventbus.SubscribeTyped(bus, func(ctx context.Context, evt events.WellFitted) error {
			rows, _ := service.rates.Get(evt.WellID)
			summary, ok := service.summaries.Get(evt.WellID)
			if !ok {
				return nil
			}
			return sink.SaveWell(ctx, evt.WellID, rows, summary)
		})
		eventbus.SubscribeTyped(bus, func(ctx context.Context, evt events.WellSkipped) error {
			return sink.DeleteWell(ctx, evt.WellID)
		})
		eventbus.SubscribeTyped(bus, func(ctx context.Context, evt events.WellRemoved) error {
			return sink.DeleteWell(ctx, evt.WellID)
		})
	}

	eventbus.SubscribeTyped(bus, func(ctx context.Context, evt events.PopulationFitCompleted) error {
		_ = ctx
		logger.Printf("decline event: pass run=%s fitted=%d skipped=%d malformed=%d removed=%d iterate_di=%t",
			evt.RunID, len(evt.Fitted), len(evt.Skipped), len(evt.Malformed), len(evt.Removed), evt.IterateDi)
		return nil
	})
}
