package ingestor

import (
	"context"
	"time"

	logger "gitlab.com/binsense1/sbn.bin_server/src/production/SBN.Logger"
	sbnmodels "gitlab.com/binsense1/sbn.bin_server/src/production/SBN.Models"
	interfaces "gitlab.com/binsense1/sbn.bin_server/src/production/SBN.Repository/Interfaces"
)

// Synchronizer applies the durable side effects of accepted ingestion.
// Durability is best-effort relative to the live cache: every failure
// here is logged and swallowed, the cache update that already happened
// stands, and the dashboard stays responsive during storage outages.
type Synchronizer struct {
	devices          interfaces.DeviceRepository
	readings         interfaces.ReadingRepository
	autoDeploy       bool
	defaultThreshold int
	logger           *logger.Logger
}

func NewSynchronizer(devices interfaces.DeviceRepository, readings interfaces.ReadingRepository, autoDeploy bool, defaultThreshold int, log *logger.Logger) *Synchronizer {
	return &Synchronizer{
		devices:          devices,
		readings:         readings,
		autoDeploy:       autoDeploy,
		defaultThreshold: defaultThreshold,
		logger:           log.WithComponent("persistence"),
	}
}

// OnStatus stores a status transition.
func (s *Synchronizer) OnStatus(ctx context.Context, deviceID, status string, seenAt time.Time) {
	s.ensureDevice(ctx, deviceID, seenAt)

	if err := s.devices.UpdateStatus(ctx, deviceID, status); err != nil {
		s.logger.WithDevice(deviceID).ErrorWithError(err, "Failed to store device status")
	}
}

// OnData refreshes the device row and appends one reading.
func (s *Synchronizer) OnData(ctx context.Context, data *sbnmodels.BinData, seenAt time.Time) {
	s.ensureDevice(ctx, data.DeviceID, seenAt)

	if err := s.devices.RecordTelemetry(ctx, data.DeviceID, data.BatteryPercentage, data.Voltage, data.IsTilted, seenAt); err != nil {
		s.logger.WithDevice(data.DeviceID).ErrorWithError(err, "Failed to store device telemetry")
	}

	reading := sbnmodels.Reading{
		DeviceID:          data.DeviceID,
		FillLevel:         data.FillLevel,
		BatteryPercentage: data.BatteryPercentage,
		Voltage:           data.Voltage,
		IsTilted:          data.IsTilted,
		CreatedAt:         seenAt,
	}
	if err := s.readings.InsertReading(ctx, reading); err != nil {
		s.logger.WithDevice(data.DeviceID).ErrorWithError(err, "Failed to append reading")
	}
}

// OnConfigRequest only refreshes device existence and last-seen; the
// reply itself is the dispatcher's job.
func (s *Synchronizer) OnConfigRequest(ctx context.Context, deviceID string, seenAt time.Time) {
	s.ensureDevice(ctx, deviceID, seenAt)
}

func (s *Synchronizer) ensureDevice(ctx context.Context, deviceID string, seenAt time.Time) {
	if err := s.devices.EnsureDevice(ctx, deviceID, s.autoDeploy, s.defaultThreshold, seenAt); err != nil {
		s.logger.WithDevice(deviceID).ErrorWithError(err, "Failed to upsert device")
	}
}
