package weather

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// DB is the subset of *pgxpool.Pool the PostgreSQL store needs.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults
}

// PGStore keeps forecasts in weather_forecasts and observations in
// weather_observations.
type PGStore struct {
	db DB
}

var _ ForecastStore = (*PGStore)(nil)

// NewPGStore creates a PostgreSQL-backed ForecastStore.
func NewPGStore(db DB) *PGStore {
	return &PGStore{db: db}
}

const upsertForecast = `
	INSERT INTO weather_forecasts (latitude, longitude, forecast_date, location, temperature_min,
		temperature_max, humidity, rainfall_probability, wind_speed, conditions, updated_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	ON CONFLICT (latitude, longitude, forecast_date) DO UPDATE SET
		location = EXCLUDED.location,
		temperature_min = EXCLUDED.temperature_min,
		temperature_max = EXCLUDED.temperature_max,
		humidity = EXCLUDED.humidity,
		rainfall_probability = EXCLUDED.rainfall_probability,
		wind_speed = EXCLUDED.wind_speed,
		conditions = EXCLUDED.conditions,
		updated_at = EXCLUDED.updated_at`

// UpsertForecasts writes all days in one batch.
func (s *PGStore) UpsertForecasts(ctx context.Context, days []ForecastDay) error {
	if len(days) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	for _, d := range days {
		d = d.Normalize()
		batch.Queue(upsertForecast, d.Latitude, d.Longitude, d.ForecastDate, d.Location, d.TempMin,
			d.TempMax, d.Humidity, d.RainfallProbability, d.WindSpeed, d.Conditions, d.UpdatedAt)
	}

	if err := s.db.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("upsert forecasts: %w", err)
	}
	return nil
}

func (s *PGStore) RecordObservation(ctx context.Context, snap Snapshot) error {
	const q = `INSERT INTO weather_observations
		(location, latitude, longitude, temperature, humidity, rainfall, wind_speed, pressure, recorded_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	_, err := s.db.Exec(ctx, q, snap.Location, NormalizeCoordinate(snap.Latitude), NormalizeCoordinate(snap.Longitude),
		snap.Temperature, snap.Humidity, snap.Rainfall, snap.WindSpeed, snap.Pressure, snap.RecordedAt)
	if err != nil {
		return fmt.Errorf("record observation: %w", err)
	}
	return nil
}

func (s *PGStore) Forecasts(ctx context.Context, lat, lon float64) ([]ForecastDay, error) {
	const q = `SELECT location, latitude, longitude, forecast_date, temperature_min, temperature_max,
			humidity, rainfall_probability, wind_speed, conditions, updated_at
		FROM weather_forecasts
		WHERE latitude = $1 AND longitude = $2
		ORDER BY forecast_date`

	rows, err := s.db.Query(ctx, q, NormalizeCoordinate(lat), NormalizeCoordinate(lon))
	if err != nil {
		return nil, fmt.Errorf("list forecasts: %w", err)
	}
	defer rows.Close()

	days := make([]ForecastDay, 0)
	for rows.Next() {
		var d ForecastDay
		if err := rows.Scan(&d.Location, &d.Latitude, &d.Longitude, &d.ForecastDate, &d.TempMin, &d.TempMax,
			&d.Humidity, &d.RainfallProbability, &d.WindSpeed, &d.Conditions, &d.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan forecast: %w", err)
		}
		days = append(days, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list forecasts: %w", err)
	}
	return days, nil
}
