package implementation

import (
	"context"
	"database/sql"

	sbnmodels "gitlab.com/binsense1/sbn.bin_server/src/production/SBN.Models"
)

type PostgresReadingRepository struct {
	db *sql.DB
}

func NewPostgresReadingRepository(db *sql.DB) *PostgresReadingRepository {
	return &PostgresReadingRepository{db: db}
}

func (r *PostgresReadingRepository) InsertReading(ctx context.Context, reading sbnmodels.Reading) error {
	query := `
		INSERT INTO readings (device_id, fill_level, battery_percentage, voltage, is_tilted, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	_, err := r.db.ExecContext(ctx, query,
		reading.DeviceID, reading.FillLevel, reading.BatteryPercentage,
		reading.Voltage, reading.IsTilted, reading.CreatedAt)
	return err
}

func (r *PostgresReadingRepository) GetLatestReading(ctx context.Context, deviceID string) (*sbnmodels.Reading, error) {
	query := `
		SELECT id, device_id, fill_level, battery_percentage, voltage, is_tilted, created_at
		FROM readings
		WHERE device_id = $1
		ORDER BY created_at DESC
		LIMIT 1
	`

	var reading sbnmodels.Reading
	err := r.db.QueryRowContext(ctx, query, deviceID).Scan(
		&reading.ID, &reading.DeviceID, &reading.FillLevel, &reading.BatteryPercentage,
		&reading.Voltage, &reading.IsTilted, &reading.CreatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}

	return &reading, nil
}

func (r *PostgresReadingRepository) GetReadingHistory(ctx context.Context, deviceID string, limit int) ([]sbnmodels.Reading, error) {
	query := `
		SELECT id, device_id, fill_level, battery_percentage, voltage, is_tilted, created_at
		FROM readings
		WHERE device_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`

	rows, err := r.db.QueryContext(ctx, query, deviceID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var readings []sbnmodels.Reading
	for rows.Next() {
		var reading sbnmodels.Reading
		if err := rows.Scan(
			&reading.ID, &reading.DeviceID, &reading.FillLevel, &reading.BatteryPercentage,
			&reading.Voltage, &reading.IsTilted, &reading.CreatedAt,
		); err != nil {
			return nil, err
		}
		readings = append(readings, reading)
	}

	return readings, rows.Err()
}

func (r *PostgresReadingRepository) DeleteReadingsByDevice(ctx context.Context, deviceID string) error {
	query := `DELETE FROM readings WHERE device_id = $1`

	_, err := r.db.ExecContext(ctx, query, deviceID)
	return err
}
