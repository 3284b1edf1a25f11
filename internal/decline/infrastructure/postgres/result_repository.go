package postgres

import (
	"context"
	"database/sql"
	"errors"

	decline "decline-cloud/internal/decline/domain"
)

// ResultRepository persists merged rates and error-summary rows.
type ResultRepository struct {
	db *sql.DB
}

// NewResultRepository constructs a repository.
func NewResultRepository(db *sql.DB) *ResultRepository {
	return &ResultRepository{db: db}
}

// SaveWell replaces a well's rate rows and upserts its summary row.
func (r *ResultRepository) SaveWell(ctx context.Context, wellID string, rows []decline.RateRecord, summary decline.ErrorSummary) error {
	if r == nil || r.db == nil {
		return errors.New("result repo: nil db")
	}
	if wellID == "" {
		return decline.ErrEmptyWellID
	}
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM decline_rates WHERE well_id = $1`, wellID); err != nil {
		_ = tx.Rollback()
		return err
	}
	for _, row := range rows {
		_, err := tx.ExecContext(ctx, `
INSERT INTO decline_rates (
	well_id, period_date,
	oil_volume, q_oil, error_oil, oil_projected,
	gas_volume, q_gas, error_gas, gas_projected
) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
ON CONFLICT (well_id, period_date) DO UPDATE SET
	oil_volume = EXCLUDED.oil_volume,
	q_oil = EXCLUDED.q_oil,
	error_oil = EXCLUDED.error_oil,
	oil_projected = EXCLUDED.oil_projected,
	gas_volume = EXCLUDED.gas_volume,
	q_gas = EXCLUDED.q_gas,
	error_gas = EXCLUDED.error_gas,
	gas_projected = EXCLUDED.gas_projected`,
			wellID, row.Date.UTC(),
			row.OilVolume, row.QOil, row.ErrorOil, row.OilProjected,
			row.GasVolume, row.QGas, row.ErrorGas, row.GasProjected,
		)
		if err != nil {
			_ = tx.Rollback()
			return err
		}
	}
	_, err = tx.ExecContext(ctx, `
INSERT INTO decline_error_summary (
	well_id, error_oil, error_gas, policy, di_oil, di_gas,
	latest_q_oil, latest_q_gas, oil_above_limit, gas_above_limit, updated_at
) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,now())
ON CONFLICT (well_id) DO UPDATE SET
	error_oil = EXCLUDED.error_oil,
	error_gas = EXCLUDED.error_gas,
	policy = EXCLUDED.policy,
	di_oil = EXCLUDED.di_oil,
	di_gas = EXCLUDED.di_gas,
	latest_q_oil = EXCLUDED.latest_q_oil,
	latest_q_gas = EXCLUDED.latest_q_gas,
	oil_above_limit = EXCLUDED.oil_above_limit,
	gas_above_limit = EXCLUDED.gas_above_limit,
	updated_at = now()`,
		wellID, summary.ErrorOil, summary.ErrorGas, summary.Policy, summary.OilDi, summary.GasDi,
		summary.LatestOilRate, summary.LatestGasRate, summary.OilAboveLimit, summary.GasAboveLimit,
	)
	if err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

// DeleteWell drops a well's persisted results.
func (r *ResultRepository) DeleteWell(ctx context.Context, wellID string) error {
	if r == nil || r.db == nil {
		return errors.New("result repo: nil db")
	}
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM decline_rates WHERE well_id = $1`, wellID); err != nil {
		_ = tx.Rollback()
		return err
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM decline_error_summary WHERE well_id = $1`, wellID); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

// LoadSummaries reads the persisted error-summary table ordered by well id.
func (r *ResultRepository) LoadSummaries(ctx context.Context) ([]decline.ErrorSummary, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("result repo: nil db")
	}
	rows, err := r.db.QueryContext(ctx, `
SELECT well_id, error_oil, error_gas, policy, di_oil, di_gas,
	latest_q_oil, latest_q_gas, oil_above_limit, gas_above_limit
FROM decline_error_summary
ORDER BY well_id ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []decline.ErrorSummary
	for rows.Next() {
		var s decline.ErrorSummary
		if err := rows.Scan(&s.WellID, &s.ErrorOil, &s.ErrorGas, &s.Policy, &s.OilDi, &s.GasDi,
			&s.LatestOilRate, &s.LatestGasRate, &s.OilAboveLimit, &s.GasAboveLimit); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// LoadRates reads the persisted production-rates table ordered by well then date.
func (r *ResultRepository) LoadRates(ctx context.Context) ([]decline.RateRecord, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("result repo: nil db")
	}
	rows, err := r.db.QueryContext(ctx, `
SELECT well_id, period_date,
	oil_volume, q_oil, error_oil, oil_projected,
	gas_volume, q_gas, error_gas, gas_projected
FROM decline_rates
ORDER BY well_id ASC, period_date ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []decline.RateRecord
	for rows.Next() {
		var rec decline.RateRecord
		if err := rows.Scan(&rec.WellID, &rec.Date,
			&rec.OilVolume, &rec.QOil, &rec.ErrorOil, &rec.OilProjected,
			&rec.GasVolume, &rec.QGas, &rec.ErrorGas, &rec.GasProjected); err != nil {
			return nil, err
		}
		rec.Date = rec.Date.UTC()
		out = append(out, rec)
	}
	return out, rows.Err()
}
