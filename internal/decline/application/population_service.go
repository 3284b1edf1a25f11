package application

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"decline-cloud/internal/decline/application/eventbus"
	"decline-cloud/internal/decline/application/events"
	decline "decline-cloud/internal/decline/domain"
	"decline-cloud/internal/observability/metrics"
)

// ErrPassAborted is returned when a population pass stops before merging.
var ErrPassAborted = errors.New("decline: population pass aborted")

// ProductionSource provides the population production table.
type ProductionSource interface {
	WellIDs(ctx context.Context) ([]string, error)
	Samples(ctx context.Context, wellID string) ([]decline.Sample, error)
}

// ModelRepository loads and stores raw decline model records.
type ModelRepository interface {
	Get(ctx context.Context, wellID string) (decline.ModelRecord, error)
	Save(ctx context.Context, rec decline.ModelRecord) error
}

// RateTable is the shared production-rates table.
type RateTable interface {
	Get(wellID string) ([]decline.RateRecord, bool)
	Replace(wellID string, rows []decline.RateRecord) error
	Delete(wellID string)
	WellIDs() []string
	Snapshot() []decline.RateRecord
}

// SummaryTable is the shared error-summary table.
type SummaryTable interface {
	Get(wellID string) (decline.ErrorSummary, bool)
	Replace(wellID string, row decline.ErrorSummary) error
	Delete(wellID string)
	WellIDs() []string
	Snapshot() []decline.ErrorSummary
}

// Clock provides time.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now().UTC() }

// RunOptions are the caller flags of a population pass.
type RunOptions struct {
	Flags     decline.LoadFlags
	IterateDi bool
}

// RunReport describes a finished population pass.
type RunReport struct {
	RunID     string        `json:"run_id"`
	Fitted    []string      `json:"fitted"`
	Skipped   []string      `json:"skipped"`
	Malformed []string      `json:"malformed"`
	Removed   []string      `json:"removed"`
	IterateDi bool          `json:"iterate_di"`
	Duration  time.Duration `json:"duration_ns"`
}

// WellResult is one well's merged output.
type WellResult struct {
	Model   decline.DeclineModel `json:"-"`
	Records []decline.RateRecord `json:"records"`
	Summary decline.ErrorSummary `json:"summary"`
}

// Option configures the PopulationService.
type Option func(*PopulationService)

// WithEventBus publishes fit events on bus.
func WithEventBus(bus eventbus.EventBus) Option {
	return func(s *PopulationService) {
		s.bus = bus
	}
}

// WithLogger overrides the default logger.
func WithLogger(logger *log.Logger) Option {
	return func(s *PopulationService) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithClock overrides the system clock.
func WithClock(clock Clock) Option {
	return func(s *PopulationService) {
		if clock != nil {
			s.clock = clock
		}
	}
}

// WithRunIDFactory overrides run id generation.
func WithRunIDFactory(factory func() string) Option {
	return func(s *PopulationService) {
		if factory != nil {
			s.newRunID = factory
		}
	}
}

// PopulationService fits every well of a population and owns the shared
// rates and error-summary tables. Calls are serialized.
type PopulationService struct {
	mu sync.Mutex

	production ProductionSource
	models     ModelRepository
	rates      RateTable
	summaries  SummaryTable
	cfg        Config
	policy     decline.ErrorPolicy

	bus      eventbus.EventBus
	logger   *log.Logger
	clock    Clock
	newRunID func() string
}

// NewPopulationService constructs a PopulationService.
func NewPopulationService(production ProductionSource, models ModelRepository, rates RateTable, summaries SummaryTable, cfg Config, opts ...Option) (*PopulationService, error) {
	if production == nil {
		return nil, errors.New("decline service: nil production source")
	}
	if models == nil {
		return nil, errors.New("decline service: nil model repository")
	}
	if rates == nil || summaries == nil {
		return nil, errors.New("decline service: nil result tables")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	policy, err := cfg.Policy()
	if err != nil {
		return nil, err
	}

	s := &PopulationService{
		production: production,
		models:     models,
		rates:      rates,
		summaries:  summaries,
		cfg:        cfg,
		policy:     policy,
		logger:     log.Default(),
		clock:      systemClock{},
		newRunID:   func() string { return uuid.NewString() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

type outcomeKind int

const (
	outcomeFitted outcomeKind = iota + 1
	outcomeSkipped
	outcomeMalformed
)

type wellOutcome struct {
	wellID string
	kind   outcomeKind
	reason string
	err    error
	fit    decline.FitResult
}

// RunFullPopulation fits every well of the production table and merges the
// results. Wells without a usable model are skipped and drop out of both tables;
// wells that left production are removed and announced as events.WellRemoved.
// Under the abort policy any malformed model fails the pass before merging.
func (s *PopulationService) RunFullPopulation(ctx context.Context, opts RunOptions) (RunReport, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	start := time.Now()
	report, err := s.runFullPopulation(ctx, opts)
	report.Duration = time.Since(start)
	result := metrics.ResultSuccess
	if err != nil {
		result = metrics.ResultError
	}
	metrics.ObserveFitPass(result, report.Duration)
	if err != nil {
		s.logger.Printf("decline: pass failed run=%s: %v", report.RunID, err)
		return report, err
	}

	s.logger.Printf("decline: pass completed run=%s fitted=%d skipped=%d malformed=%d removed=%d duration=%s",
		report.RunID, len(report.Fitted), len(report.Skipped), len(report.Malformed), len(report.Removed), report.Duration)
	s.publish(ctx, events.PopulationFitCompleted{
		RunID:      report.RunID,
		Fitted:     report.Fitted,
		Skipped:    report.Skipped,
		Malformed:  report.Malformed,
		Removed:    report.Removed,
		IterateDi:  report.IterateDi,
		Duration:   report.Duration,
		OccurredAt: s.clock.Now(),
	})
	return report, nil
}

func (s *PopulationService) runFullPopulation(ctx context.Context, opts RunOptions) (RunReport, error) {
	report := RunReport{RunID: s.newRunID(), IterateDi: opts.IterateDi}

	ids, err := s.production.WellIDs(ctx)
	if err != nil {
		return report, fmt.Errorf("decline: list wells: %w", err)
	}
	ids = dedupeSorted(ids)

	fitOpts := make([]decline.FitOptions, len(ids))
	for i, id := range ids {
		fitOpts[i] = s.fitOptionsFor(id, opts)
	}

	outcomes := make([]wellOutcome, len(ids))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.cfg.Workers)
	for i, id := range ids {
		g.Go(func() error {
			out, err := s.fitWell(gctx, id, fitOpts[i])
			if err != nil {
				return err
			}
			outcomes[i] = out
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return report, fmt.Errorf("%w: %w", ErrPassAborted, err)
	}

	if s.cfg.AbortOnMalformed() {
		var errs []error
		for _, out := range outcomes {
			if out.kind == outcomeMalformed {
				errs = append(errs, out.err)
			}
		}
		if len(errs) > 0 {
			return report, fmt.Errorf("%w: %d malformed models: %w", ErrPassAborted, len(errs), errors.Join(errs...))
		}
	}

	present := make(map[string]struct{}, len(ids))
	for _, out := range outcomes {
		present[out.wellID] = struct{}{}
		switch out.kind {
		case outcomeFitted:
			if err := s.merge(out.fit); err != nil {
				return report, err
			}
			report.Fitted = append(report.Fitted, out.wellID)
			metrics.IncWellOutcome(metrics.WellFitted)
			s.publish(ctx, events.WellFitted{
				RunID:      report.RunID,
				WellID:     out.wellID,
				Searched:   out.fit.Searched,
				OilDi:      out.fit.Model.Oil.NominalDeclinePct,
				GasDi:      out.fit.Model.Gas.NominalDeclinePct,
				ErrorOil:   out.fit.Summary.ErrorOil,
				ErrorGas:   out.fit.Summary.ErrorGas,
				Rows:       len(out.fit.Records),
				OccurredAt: s.clock.Now(),
			})
		case outcomeSkipped, outcomeMalformed:
			s.rates.Delete(out.wellID)
			s.summaries.Delete(out.wellID)
			if out.kind == outcomeMalformed {
				report.Malformed = append(report.Malformed, out.wellID)
				metrics.IncWellOutcome(metrics.WellMalformed)
				s.logger.Printf("decline: skip well=%s reason=%s: %v", out.wellID, out.reason, out.err)
			} else {
				report.Skipped = append(report.Skipped, out.wellID)
				metrics.IncWellOutcome(metrics.WellSkipped)
				s.logger.Printf("decline: skip well=%s reason=%s", out.wellID, out.reason)
			}
			s.publish(ctx, events.WellSkipped{
				RunID:      report.RunID,
				WellID:     out.wellID,
				Reason:     out.reason,
				OccurredAt: s.clock.Now(),
			})
		}
	}

	for _, id := range dedupeSorted(append(s.rates.WellIDs(), s.summaries.WellIDs()...)) {
		if _, ok := present[id]; ok {
			continue
		}
		s.rates.Delete(id)
		s.summaries.Delete(id)
		report.Removed = append(report.Removed, id)
		s.logger.Printf("decline: remove well=%s: no longer in production", id)
		s.publish(ctx, events.WellRemoved{
			RunID:      report.RunID,
			WellID:     id,
			OccurredAt: s.clock.Now(),
		})
	}
	return report, nil
}

// fitOptionsFor resolves per-well flags before workers start, so workers never
// read the shared tables.
func (s *PopulationService) fitOptionsFor(wellID string, opts RunOptions) decline.FitOptions {
	flags := opts.Flags
	override := s.cfg.OverrideForWell(wellID)
	if override.SkipOil {
		flags.Oil = false
	}
	if override.SkipGas {
		flags.Gas = false
	}
	if s.cfg.GateOnEconomicLimit {
		if prev, ok := s.summaries.Get(wellID); ok {
			if !prev.OilAboveLimit {
				flags.Oil = false
			}
			if !prev.GasAboveLimit {
				flags.Gas = false
			}
		}
	}
	return decline.FitOptions{
		Flags:     flags,
		IterateDi: opts.IterateDi && !override.DisableSearch,
		Policy:    s.policy,
		Grid:      s.cfg.SearchGrid,
	}
}

func (s *PopulationService) fitWell(ctx context.Context, wellID string, opts decline.FitOptions) (wellOutcome, error) {
	if err := ctx.Err(); err != nil {
		return wellOutcome{}, err
	}

	rec, err := s.models.Get(ctx, wellID)
	if errors.Is(err, decline.ErrModelNotFound) {
		return wellOutcome{wellID: wellID, kind: outcomeSkipped, reason: "missing model"}, nil
	}
	if err != nil {
		return wellOutcome{}, fmt.Errorf("decline: load model well=%s: %w", wellID, err)
	}

	model, err := decline.ParseModelRecord(rec)
	switch {
	case errors.Is(err, decline.ErrInvalidPeakDate):
		return wellOutcome{wellID: wellID, kind: outcomeSkipped, reason: "invalid peak date"}, nil
	case err != nil:
		return wellOutcome{wellID: wellID, kind: outcomeMalformed, reason: "malformed model", err: err}, nil
	}
	if model.WellID != wellID {
		return wellOutcome{wellID: wellID, kind: outcomeMalformed, reason: "malformed model", err: decline.ErrWellMismatch}, nil
	}

	samples, err := s.loadSamples(ctx, wellID)
	if err != nil {
		return wellOutcome{}, err
	}

	fit, err := decline.FitWell(model, samples, opts)
	if err != nil {
		return wellOutcome{}, fmt.Errorf("decline: fit well=%s: %w", wellID, err)
	}
	metrics.AddSearchCandidates(fit.Evaluated)
	return wellOutcome{wellID: wellID, kind: outcomeFitted, fit: fit}, nil
}

// UpdateSingleWell re-simulates one well with caller-tuned parameters, search
// off, stores the model and patches only that well's rows. Wells without
// production fail with decline.ErrWellNotFound and nothing is stored.
func (s *PopulationService) UpdateSingleWell(ctx context.Context, model decline.DeclineModel, flags decline.LoadFlags) (WellResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	start := time.Now()
	result, err := s.updateSingleWell(ctx, model, flags)
	outcome := metrics.ResultSuccess
	if err != nil {
		outcome = metrics.ResultError
	}
	metrics.ObserveSingleWellUpdate(outcome, time.Since(start))
	return result, err
}

func (s *PopulationService) updateSingleWell(ctx context.Context, model decline.DeclineModel, flags decline.LoadFlags) (WellResult, error) {
	model, err := decline.NewDeclineModel(model.WellID, model.PeakDate, model.Oil, model.Gas)
	if err != nil {
		return WellResult{}, err
	}

	samples, err := s.loadSamples(ctx, model.WellID)
	if err != nil {
		return WellResult{}, err
	}
	if len(samples) == 0 {
		return WellResult{}, fmt.Errorf("%w: %s", decline.ErrWellNotFound, model.WellID)
	}
	fit, err := decline.FitWell(model, samples, decline.FitOptions{Flags: flags, Policy: s.policy})
	if err != nil {
		return WellResult{}, fmt.Errorf("decline: fit well=%s: %w", model.WellID, err)
	}

	if err := s.models.Save(ctx, model.Record()); err != nil {
		return WellResult{}, fmt.Errorf("decline: save model well=%s: %w", model.WellID, err)
	}
	if err := s.merge(fit); err != nil {
		return WellResult{}, err
	}

	s.publish(ctx, events.WellFitted{
		RunID:      s.newRunID(),
		WellID:     model.WellID,
		OilDi:      model.Oil.NominalDeclinePct,
		GasDi:      model.Gas.NominalDeclinePct,
		ErrorOil:   fit.Summary.ErrorOil,
		ErrorGas:   fit.Summary.ErrorGas,
		Rows:       len(fit.Records),
		OccurredAt: s.clock.Now(),
	})
	return WellResult{Model: fit.Model, Records: fit.Records, Summary: fit.Summary}, nil
}

// Model returns a well's stored model record.
func (s *PopulationService) Model(ctx context.Context, wellID string) (decline.ModelRecord, error) {
	return s.models.Get(ctx, wellID)
}

// Config returns the engine configuration in use.
func (s *PopulationService) Config() Config {
	return s.cfg
}

// Rates returns the production-rates table, or one well's rows when wellID is set.
func (s *PopulationService) Rates(wellID string) []decline.RateRecord {
	if wellID == "" {
		return s.rates.Snapshot()
	}
	rows, _ := s.rates.Get(wellID)
	return rows
}

// Summaries returns the error-summary table.
func (s *PopulationService) Summaries() []decline.ErrorSummary {
	return s.summaries.Snapshot()
}

// PopulationStats rolls up the error-summary table.
func (s *PopulationService) PopulationStats() decline.PopulationStats {
	return decline.SummarizePopulation(s.summaries.Snapshot())
}

func (s *PopulationService) loadSamples(ctx context.Context, wellID string) ([]decline.Sample, error) {
	samples, err := s.production.Samples(ctx, wellID)
	if err != nil {
		return nil, fmt.Errorf("decline: load samples well=%s: %w", wellID, err)
	}
	copied := make([]decline.Sample, len(samples))
	copy(copied, samples)
	sort.SliceStable(copied, func(i, j int) bool { return copied[i].Date.Before(copied[j].Date) })
	return copied, nil
}

func (s *PopulationService) merge(fit decline.FitResult) error {
	wellID := fit.Model.WellID
	if err := s.rates.Replace(wellID, fit.Records); err != nil {
		return fmt.Errorf("decline: replace rates well=%s: %w", wellID, err)
	}
	if err := s.summaries.Replace(wellID, fit.Summary); err != nil {
		return fmt.Errorf("decline: replace summary well=%s: %w", wellID, err)
	}
	return nil
}

func (s *PopulationService) publish(ctx context.Context, event events.Event) {
	if s.bus == nil {
		return
	}
	if err := s.bus.Publish(ctx, event); err != nil {
		s.logger.Printf("decline: publish %s: %v", eventbus.EventType(event), err)
	}
}

func dedupeSorted(ids []string) []string {
	out := make([]string, 0, len(ids))
	seen := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}
