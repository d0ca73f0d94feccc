package sbnmodels

import "time"

// Reading is one accepted telemetry sample, append-only. Rows are
// immutable once written; bulk deletion per device is an administrative
// action exposed by the reading repository.
type Reading struct {
	ID                int64     `json:"id" db:"id"`
	DeviceID          string    `json:"deviceId" db:"device_id"`
	FillLevel         float64   `json:"fillLevel" db:"fill_level"`
	BatteryPercentage float64   `json:"batteryPercentage" db:"battery_percentage"`
	Voltage           float64   `json:"voltage" db:"voltage"`
	IsTilted          bool      `json:"isTilted" db:"is_tilted"`
	CreatedAt         time.Time `json:"createdAt" db:"created_at"`
}
