package postgres

import (
	"context"
	"database/sql"
	"errors"

	decline "decline-cloud/internal/decline/domain"
)

// ModelRepository persists raw decline model records.
type ModelRepository struct {
	db *sql.DB
}

// NewModelRepository constructs a repository.
func NewModelRepository(db *sql.DB) *ModelRepository {
	return &ModelRepository{db: db}
}

// Get loads a well's model record.
func (r *ModelRepository) Get(ctx context.Context, wellID string) (decline.ModelRecord, error) {
	if r == nil || r.db == nil {
		return decline.ModelRecord{}, errors.New("model repo: nil db")
	}
	if wellID == "" {
		return decline.ModelRecord{}, decline.ErrEmptyWellID
	}
	row := r.db.QueryRowContext(ctx, `
SELECT well_id, peak_date,
	qi_oil, di_oil, b_oil, min_decline_oil,
	qi_gas, di_gas, b_gas, min_decline_gas
FROM decline_models
WHERE well_id = $1`, wellID)

	var rec decline.ModelRecord
	err := row.Scan(
		&rec.WellID, &rec.PeakDate,
		&rec.QiOil, &rec.DiOil, &rec.BOil, &rec.MinDeclineOil,
		&rec.QiGas, &rec.DiGas, &rec.BGas, &rec.MinDeclineGas,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return decline.ModelRecord{}, decline.ErrModelNotFound
	}
	if err != nil {
		return decline.ModelRecord{}, err
	}
	return rec, nil
}

// Save upserts a well's model record.
func (r *ModelRepository) Save(ctx context.Context, rec decline.ModelRecord) error {
	if r == nil || r.db == nil {
		return errors.New("model repo: nil db")
	}
	if rec.WellID == "" {
		return decline.ErrEmptyWellID
	}
	_, err := r.db.ExecContext(ctx, `
INSERT INTO decline_models (
	well_id, peak_date,
	qi_oil, di_oil, b_oil, min_decline_oil,
	qi_gas, di_gas, b_gas, min_decline_gas, updated_at
) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,now())
ON CONFLICT (well_id) DO UPDATE SET
	peak_date = EXCLUDED.peak_date,
	qi_oil = EXCLUDED.qi_oil,
	di_oil = EXCLUDED.di_oil,
	b_oil = EXCLUDED.b_oil,
	min_decline_oil = EXCLUDED.min_decline_oil,
	qi_gas = EXCLUDED.qi_gas,
	di_gas = EXCLUDED.di_gas,
	b_gas = EXCLUDED.b_gas,
	min_decline_gas = EXCLUDED.min_decline_gas,
	updated_at = now()`,
		rec.WellID, rec.PeakDate,
		rec.QiOil, rec.DiOil, rec.BOil, rec.MinDeclineOil,
		rec.QiGas, rec.DiGas, rec.BGas, rec.MinDeclineGas,
	)
	return err
}
