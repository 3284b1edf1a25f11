package postgres

import (
	"context"
	"database/sql"
	"errors"

	decline "decline-cloud/internal/decline/domain"
)

// ProductionRepository reads the population production table.
type ProductionRepository struct {
	db *sql.DB
}

// NewProductionRepository constructs a repository.
func NewProductionRepository(db *sql.DB) *ProductionRepository {
	return &ProductionRepository{db: db}
}

// WellIDs lists distinct wells, ascending.
func (r *ProductionRepository) WellIDs(ctx context.Context) ([]string, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("production repo: nil db")
	}
	rows, err := r.db.QueryContext(ctx, `
SELECT DISTINCT well_id
FROM decline_production
ORDER BY well_id ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// Samples returns a well's production ascending by date.
func (r *ProductionRepository) Samples(ctx context.Context, wellID string) ([]decline.Sample, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("production repo: nil db")
	}
	if wellID == "" {
		return nil, decline.ErrEmptyWellID
	}
	rows, err := r.db.QueryContext(ctx, `
SELECT well_id, period_date, oil_volume, gas_volume
FROM decline_production
WHERE well_id = $1
ORDER BY period_date ASC`, wellID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var samples []decline.Sample
	for rows.Next() {
		var s decline.Sample
		if err := rows.Scan(&s.WellID, &s.Date, &s.OilVolume, &s.GasVolume); err != nil {
			return nil, err
		}
		s.Date = s.Date.UTC()
		samples = append(samples, s)
	}
	return samples, rows.Err()
}

// UpsertSamples writes production periods, replacing volumes for existing dates.
func (r *ProductionRepository) UpsertSamples(ctx context.Context, samples []decline.Sample) error {
	if r == nil || r.db == nil {
		return errors.New("production repo: nil db")
	}
	if len(samples) == 0 {
		return nil
	}
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	for _, s := range samples {
		if s.WellID == "" {
			_ = tx.Rollback()
			return decline.ErrEmptyWellID
		}
		_, err := tx.ExecContext(ctx, `
INSERT INTO decline_production (well_id, period_date, oil_volume, gas_volume)
VALUES ($1,$2,$3,$4)
ON CONFLICT (well_id, period_date) DO UPDATE SET
	oil_volume = EXCLUDED.oil_volume,
	gas_volume = EXCLUDED.gas_volume`,
			s.WellID, s.Date.UTC(), s.OilVolume, s.GasVolume)
		if err != nil {
			_ = tx.Rollback()
			return err
		}
	}
	return tx.Commit()
}
