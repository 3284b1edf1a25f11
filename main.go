package main

import (
	"context"
	"database/sql"
	"log"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"decline-cloud/internal/audit"
	"decline-cloud/internal/auth"
	declineapp "decline-cloud/internal/decline/application"
	"decline-cloud/internal/decline/application/eventbus"
	"decline-cloud/internal/decline/application/events"
	decline "decline-cloud/internal/decline/domain"
	"decline-cloud/internal/decline/infrastructure/memory"
	declinepostgres "decline-cloud/internal/decline/infrastructure/postgres"
	declinehttp "decline-cloud/internal/decline/interfaces/http"
	"decline-cloud/internal/observability/metrics"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	cfg := loadConfig()
	logger := log.New(os.Stdout, "", log.LstdFlags)

	engineCfg, err := declineapp.LoadConfig()
	if err != nil {
		logger.Fatalf("decline config error: %v", err)
	}

	rates := memory.NewRateStore()
	summaries := memory.NewSummaryStore()
	metrics.Init(rates, summaries, logger)

	var (
		production  declineapp.ProductionSource
		models      declineapp.ModelRepository
		sink        declineapp.ResultSink
		auditLogger audit.Logger = audit.NewStdLogger(logger)
	)

	if cfg.DatabaseURL != "" {
		db, err := sql.Open("pgx", cfg.DatabaseURL)
		if err != nil {
			logger.Fatalf("db open error: %v", err)
		}
		defer db.Close()
		if err := db.Ping(); err != nil {
			logger.Fatalf("db ping error: %v", err)
		}

		production = declinepostgres.NewProductionRepository(db)
		models = declinepostgres.NewModelRepository(db)
		results := declinepostgres.NewResultRepository(db)
		sink = results
		auditLogger = audit.NewRepository(db)
		if err := warmStores(context.Background(), results, rates, summaries); err != nil {
			logger.Printf("decline: warm stores skipped: %v", err)
		}
	} else {
		memProduction := memory.NewProductionRepository()
		memModels := memory.NewModelRepository()
		if cfg.DemoWells > 0 {
			pop, err := memory.GenerateSyntheticPopulation(memory.SyntheticOptions{
				Wells:    cfg.DemoWells,
				Months:   cfg.DemoMonths,
				Seed:     1,
				NoisePct: 5,
			})
			if err != nil {
				logger.Fatalf("demo population error: %v", err)
			}
			memProduction.Append(pop.Samples...)
			for _, rec := range pop.Models {
				_ = memModels.Save(context.Background(), rec)
			}
			logger.Printf("decline: demo population wells=%d months=%d", cfg.DemoWells, cfg.DemoMonths)
		}
		production = memProduction
		models = memModels
		logger.Printf("decline: no DATABASE_URL, using in-memory sources")
	}

	bus := eventbus.NewInMemoryBus()
	service, err := declineapp.NewPopulationService(
		production,
		models,
		rates,
		summaries,
		engineCfg,
		declineapp.WithEventBus(bus),
		declineapp.WithLogger(logger),
		declineapp.WithClock(systemClock{}),
	)
	if err != nil {
		logger.Fatalf("decline service error: %v", err)
	}
	declineapp.WireDeclineEventBus(bus, service, sink, logger)
	eventbus.SubscribeTyped(bus, func(ctx context.Context, evt events.WellSkipped) error {
		_ = ctx
		logger.Printf("decline event: well skipped run=%s well=%s reason=%s", evt.RunID, evt.WellID, evt.Reason)
		return nil
	})

	if cfg.FitOnStart {
		report, err := service.RunFullPopulation(context.Background(), declineapp.RunOptions{
			Flags:     declineLoadFlags(cfg),
			IterateDi: cfg.IterateOnStart,
		})
		if err != nil {
			logger.Printf("decline: startup pass failed: %v", err)
		} else {
			logger.Printf("decline: startup pass run=%s fitted=%d", report.RunID, len(report.Fitted))
		}
	}

	declineHandler, err := declinehttp.NewHandler(service, auditLogger, logger)
	if err != nil {
		logger.Fatalf("decline handler error: %v", err)
	}

	authPolicy := auth.NewDefaultPolicy("/metrics", "/healthz")
	var authMiddleware *auth.Middleware
	if cfg.JWTSecret != "" {
		authMiddleware = auth.NewMiddleware([]byte(cfg.JWTSecret), authPolicy)
	} else {
		logger.Printf("auth: AUTH_JWT_SECRET not set, API is unauthenticated")
	}

	mux := http.NewServeMux()
	mux.Handle("/api/v1/decline/", declineHandler)
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	server := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           loggingMiddleware(authMiddleware.Wrap(mux), logger),
		ReadHeaderTimeout: 10 * time.Second,
	}
	logger.Printf("http listening on %s", cfg.HTTPAddr)
	logger.Fatal(server.ListenAndServe())
}

type config struct {
	DatabaseURL    string
	HTTPAddr       string
	JWTSecret      string
	DemoWells      int
	DemoMonths     int
	FitOnStart     bool
	IterateOnStart bool
	LoadFluids     string
}

func loadConfig() config {
	return config{
		DatabaseURL:    getenvDefault("DATABASE_URL", getenvDefault("PG_DSN", "")),
		HTTPAddr:       getenvDefault("HTTP_ADDR", ":8080"),
		JWTSecret:      getenvDefault("AUTH_JWT_SECRET", getenvDefault("JWT_SECRET", "")),
		DemoWells:      getenvIntDefault("DECLINE_DEMO_WELLS", 0),
		DemoMonths:     getenvIntDefault("DECLINE_DEMO_MONTHS", 36),
		FitOnStart:     getenvBoolDefault("DECLINE_FIT_ON_START", false),
		IterateOnStart: getenvBoolDefault("DECLINE_ITERATE_ON_START", true),
		LoadFluids:     getenvDefault("DECLINE_LOAD_FLUIDS", "oil,gas"),
	}
}

func warmStores(ctx context.Context, results *declinepostgres.ResultRepository, rates *memory.RateStore, summaries *memory.SummaryStore) error {
	rows, err := results.LoadRates(ctx)
	if err != nil {
		return err
	}
	byWell := make(map[string][]decline.RateRecord)
	for _, row := range rows {
		byWell[row.WellID] = append(byWell[row.WellID], row)
	}
	for wellID, wellRows := range byWell {
		if err := rates.Replace(wellID, wellRows); err != nil {
			return err
		}
	}
	rowsSummary, err := results.LoadSummaries(ctx)
	if err != nil {
		return err
	}
	for _, s := range rowsSummary {
		if err := summaries.Replace(s.WellID, s); err != nil {
			return err
		}
	}
	return nil
}

func declineLoadFlags(cfg config) decline.LoadFlags {
	var flags decline.LoadFlags
	for _, fluid := range strings.Split(cfg.LoadFluids, ",") {
		switch strings.ToUpper(strings.TrimSpace(fluid)) {
		case string(decline.FluidOil):
			flags.Oil = true
		case string(decline.FluidGas):
			flags.Gas = true
		}
	}
	return flags
}

func getenvDefault(key, fallback string) string {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	return value
}

func getenvIntDefault(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getenvBoolDefault(key string, fallback bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func loggingMiddleware(next http.Handler, logger *log.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		resp := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(resp, r)
		logger.Printf("http %s %s %d %s", r.Method, r.URL.Path, resp.status, time.Since(start))
	})
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}

// ---- Adapters ----

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now().UTC() }
