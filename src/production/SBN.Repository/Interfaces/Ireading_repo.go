package interfaces

import (
	"context"

	sbnmodels "gitlab.com/binsense1/sbn.bin_server/src/production/SBN.Models"
)

type ReadingRepository interface {
	// Append one accepted telemetry sample
	InsertReading(ctx context.Context, reading sbnmodels.Reading) error

	// GetLatestReading returns (nil, nil) when the device has no readings
	GetLatestReading(ctx context.Context, deviceID string) (*sbnmodels.Reading, error)

	// GetReadingHistory returns up to limit readings, newest first
	GetReadingHistory(ctx context.Context, deviceID string, limit int) ([]sbnmodels.Reading, error)

	// Bulk delete for administrative reset
	DeleteReadingsByDevice(ctx context.Context, deviceID string) error
}
