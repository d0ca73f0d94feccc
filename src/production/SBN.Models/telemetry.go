package sbnmodels

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"
)

// BinData is the decoded payload of a bins/{id}/data message.
type BinData struct {
	DeviceID          string  `json:"deviceId"`
	FillLevel         float64 `json:"fillLevel"`
	BatteryPercentage float64 `json:"batteryPercentage"`
	Voltage           float64 `json:"voltage"`
	IsTilted          bool    `json:"isTilted"`
}

// ParseBinData decodes and validates a raw data payload. Every field
// must be present with the right JSON type; a payload that fails any
// check is rejected as a whole so no partially-trusted value ever
// reaches the cache or the store.
func ParseBinData(payload []byte) (*BinData, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(payload, &raw); err != nil {
		return nil, fmt.Errorf("malformed JSON: %w", err)
	}

	var data BinData
	if err := decodeField(raw, "deviceId", &data.DeviceID); err != nil {
		return nil, err
	}
	if data.DeviceID == "" {
		return nil, fmt.Errorf("field deviceId: must not be empty")
	}
	if err := decodeField(raw, "fillLevel", &data.FillLevel); err != nil {
		return nil, err
	}
	if err := decodeField(raw, "batteryPercentage", &data.BatteryPercentage); err != nil {
		return nil, err
	}
	if err := decodeField(raw, "voltage", &data.Voltage); err != nil {
		return nil, err
	}
	if err := decodeField(raw, "isTilted", &data.IsTilted); err != nil {
		return nil, err
	}
	return &data, nil
}

func decodeField(raw map[string]json.RawMessage, name string, dst interface{}) error {
	val, ok := raw[name]
	if !ok {
		return fmt.Errorf("field %s: missing", name)
	}
	// Unmarshaling null into a non-pointer target is a silent no-op, so
	// it would slip through as the zero value.
	if bytes.Equal(val, []byte("null")) {
		return fmt.Errorf("field %s: wrong type", name)
	}
	if err := json.Unmarshal(val, dst); err != nil {
		return fmt.Errorf("field %s: wrong type", name)
	}
	return nil
}

// LiveSnapshot is the most recent in-memory telemetry record for a
// device. It exists only for the lifetime of the process; the dashboard
// falls back to persisted data when it is absent.
type LiveSnapshot struct {
	FillLevel         float64   `json:"fillLevel"`
	BatteryPercentage float64   `json:"batteryPercentage"`
	Voltage           float64   `json:"voltage"`
	IsTilted          bool      `json:"isTilted"`
	LastSeen          time.Time `json:"lastSeen"`
	Status            string    `json:"status"`
}

// Hard-coded fallbacks used when neither live nor persisted data
// carries a value for a field.
const (
	DefaultFillLevel         = 0.0
	DefaultBatteryPercentage = 100.0
	DefaultVoltage           = 5.0
)
