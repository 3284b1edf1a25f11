package main

import (
	"context"
	"database/sql"
	"flag"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	decline "decline-cloud/internal/decline/domain"
	"decline-cloud/internal/decline/infrastructure/memory"
	declinepostgres "decline-cloud/internal/decline/infrastructure/postgres"

	_ "github.com/jackc/pgx/v5/stdlib"
)

type config struct {
	dsn        string
	wellPrefix string
	wellCount  int
	months     int
	startDate  string
	seed       int64
	noisePct   float64
	seedModels bool
}

func main() {
	cfg := parseConfig()
	if cfg.dsn == "" {
		log.Fatal("PG_DSN or DATABASE_URL is required")
	}
	if cfg.wellCount <= 0 {
		log.Fatal("well-count must be > 0")
	}
	if cfg.months <= 0 {
		log.Fatal("months must be > 0")
	}

	start, err := decline.ParsePeakDate(cfg.startDate)
	if err != nil {
		log.Fatalf("invalid start-date: %v", err)
	}

	pop, err := memory.GenerateSyntheticPopulation(memory.SyntheticOptions{
		Wells:    cfg.wellCount,
		Months:   cfg.months,
		Start:    start,
		Seed:     cfg.seed,
		Prefix:   cfg.wellPrefix,
		NoisePct: cfg.noisePct,
	})
	if err != nil {
		log.Fatalf("generate population: %v", err)
	}

	db, err := sql.Open("pgx", cfg.dsn)
	if err != nil {
		log.Fatalf("open db: %v", err)
	}
	defer db.Close()

	ctx := context.Background()
	started := time.Now()

	log.Printf("seeding decline_production: wells=%d months=%d rows=%d", cfg.wellCount, cfg.months, len(pop.Samples))
	production := declinepostgres.NewProductionRepository(db)
	if err := production.UpsertSamples(ctx, pop.Samples); err != nil {
		log.Fatalf("seed production: %v", err)
	}

	if cfg.seedModels {
		log.Printf("seeding decline_models: wells=%d", len(pop.Models))
		models := declinepostgres.NewModelRepository(db)
		for _, rec := range pop.Models {
			if err := models.Save(ctx, rec); err != nil {
				log.Fatalf("seed model %s: %v", rec.WellID, err)
			}
		}
	}

	log.Printf("production seed completed in %s", time.Since(started))
}

func parseConfig() config {
	cfg := config{}
	flag.StringVar(&cfg.dsn, "pg-dsn", envOrDefault("PG_DSN", envOrDefault("DATABASE_URL", "")), "Postgres DSN")
	flag.StringVar(&cfg.wellPrefix, "well-prefix", envOrDefault("WELL_PREFIX", "well-"), "well id prefix")
	flag.IntVar(&cfg.wellCount, "well-count", envOrInt("WELL_COUNT", 25), "number of wells to seed")
	flag.IntVar(&cfg.months, "months", envOrInt("MONTHS", 36), "monthly periods per well")
	flag.StringVar(&cfg.startDate, "start-date", envOrDefault("START_DATE", "2020-01-01"), "earliest peak date (YYYY-MM-DD)")
	flag.Int64Var(&cfg.seed, "seed", int64(envOrInt("SEED", 1)), "random seed")
	flag.Float64Var(&cfg.noisePct, "noise-pct", envOrFloat("NOISE_PCT", 5), "multiplicative noise on volumes, percent")
	flag.BoolVar(&cfg.seedModels, "seed-models", envOrBool("SEED_MODELS", true), "seed starting decline models")
	flag.Parse()
	return cfg
}

func envOrDefault(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func envOrInt(key string, fallback int) int {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return value
}

func envOrFloat(key string, fallback float64) float64 {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	value, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return fallback
	}
	return value
}

func envOrBool(key string, fallback bool) bool {
	raw := strings.TrimSpace(strings.ToLower(os.Getenv(key)))
	if raw == "" {
		return fallback
	}
	switch raw {
	case "1", "true", "yes", "y", "on":
		return true
	case "0", "false", "no", "n", "off":
		return false
	default:
		return fallback
	}
}
