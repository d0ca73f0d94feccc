package implementation

import (
	"context"
	"database/sql"
	"time"

	sbnmodels "gitlab.com/binsense1/sbn.bin_server/src/production/SBN.Models"
	interfaces "gitlab.com/binsense1/sbn.bin_server/src/production/SBN.Repository/Interfaces"
)

type PostgresDeviceRepository struct {
	db *sql.DB
}

func NewPostgresDeviceRepository(db *sql.DB) *PostgresDeviceRepository {
	return &PostgresDeviceRepository{db: db}
}

// EnsureDevice auto-registers an unknown identifier and refreshes
// last_seen on every message. An existing row keeps its deployment flag
// and threshold; only last_seen moves.
func (r *PostgresDeviceRepository) EnsureDevice(ctx context.Context, deviceID string, deployed bool, threshold int, seenAt time.Time) error {
	query := `
		INSERT INTO devices (id, deployed, threshold, last_seen)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (id)
		DO UPDATE SET last_seen = EXCLUDED.last_seen
	`

	_, err := r.db.ExecContext(ctx, query, deviceID, deployed, threshold, seenAt)
	return err
}

func (r *PostgresDeviceRepository) UpdateStatus(ctx context.Context, deviceID, status string) error {
	query := `UPDATE devices SET status = $1 WHERE id = $2`

	_, err := r.db.ExecContext(ctx, query, status, deviceID)
	return err
}

// RecordTelemetry marks the device online and refreshes the last-known
// physical state carried by a data message.
func (r *PostgresDeviceRepository) RecordTelemetry(ctx context.Context, deviceID string, battery, voltage float64, isTilted bool, seenAt time.Time) error {
	query := `
		UPDATE devices
		SET status = $1, last_seen = $2, battery_percentage = $3, voltage = $4, is_tilted = $5
		WHERE id = $6
	`

	_, err := r.db.ExecContext(ctx, query, sbnmodels.StatusOnline, seenAt, battery, voltage, isTilted, deviceID)
	return err
}

func (r *PostgresDeviceRepository) GetDevice(ctx context.Context, deviceID string) (*sbnmodels.Device, error) {
	query := `
		SELECT id, name, location, threshold, deployed, last_seen, status, battery_percentage, voltage, is_tilted
		FROM devices WHERE id = $1
	`

	var device sbnmodels.Device
	err := r.db.QueryRowContext(ctx, query, deviceID).Scan(
		&device.ID, &device.Name, &device.Location, &device.Threshold, &device.Deployed,
		&device.LastSeen, &device.Status, &device.BatteryPercentage, &device.Voltage, &device.IsTilted,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}

	return &device, nil
}

func (r *PostgresDeviceRepository) ListDevices(ctx context.Context) ([]sbnmodels.Device, error) {
	query := `
		SELECT id, name, location, threshold, deployed, last_seen, status, battery_percentage, voltage, is_tilted
		FROM devices ORDER BY id
	`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return r.scanDevices(rows)
}

func (r *PostgresDeviceRepository) ListDeployedDevices(ctx context.Context) ([]sbnmodels.Device, error) {
	query := `
		SELECT id, name, location, threshold, deployed, last_seen, status, battery_percentage, voltage, is_tilted
		FROM devices WHERE deployed = true ORDER BY id
	`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return r.scanDevices(rows)
}

func (r *PostgresDeviceRepository) UpdateDeviceSettings(ctx context.Context, deviceID string, patch sbnmodels.DeviceSettingsPatch) error {
	query := `
		UPDATE devices
		SET location  = COALESCE($1, location),
		    threshold = COALESCE($2, threshold),
		    deployed  = COALESCE($3, deployed)
		WHERE id = $4
	`

	result, err := r.db.ExecContext(ctx, query, patch.Location, patch.Threshold, patch.Deployed, deviceID)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rowsAffected == 0 {
		return interfaces.ErrDeviceNotFound
	}

	return nil
}

func (r *PostgresDeviceRepository) scanDevices(rows *sql.Rows) ([]sbnmodels.Device, error) {
	var devices []sbnmodels.Device

	for rows.Next() {
		var device sbnmodels.Device
		if err := rows.Scan(
			&device.ID, &device.Name, &device.Location, &device.Threshold, &device.Deployed,
			&device.LastSeen, &device.Status, &device.BatteryPercentage, &device.Voltage, &device.IsTilted,
		); err != nil {
			return nil, err
		}
		devices = append(devices, device)
	}

	return devices, rows.Err()
}
