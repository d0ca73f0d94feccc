package interfaces

import (
	"context"
	"errors"
	"time"

	sbnmodels "gitlab.com/binsense1/sbn.bin_server/src/production/SBN.Models"
)

// ErrDeviceNotFound is returned by operations that target an identifier
// with no device row.
var ErrDeviceNotFound = errors.New("device not found")

type DeviceRepository interface {
	// Ensure device row exists (idempotent upsert); always refreshes
	// last_seen, never changes deployment of an existing row
	EnsureDevice(ctx context.Context, deviceID string, deployed bool, threshold int, seenAt time.Time) error

	// Ingestion-side updates
	UpdateStatus(ctx context.Context, deviceID, status string) error
	RecordTelemetry(ctx context.Context, deviceID string, battery, voltage float64, isTilted bool, seenAt time.Time) error

	// Read devices; GetDevice returns (nil, nil) for an unknown identifier
	GetDevice(ctx context.Context, deviceID string) (*sbnmodels.Device, error)
	ListDevices(ctx context.Context) ([]sbnmodels.Device, error)
	ListDeployedDevices(ctx context.Context) ([]sbnmodels.Device, error)

	// Operator edits
	UpdateDeviceSettings(ctx context.Context, deviceID string, patch sbnmodels.DeviceSettingsPatch) error
}
