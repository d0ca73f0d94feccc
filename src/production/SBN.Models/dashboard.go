package sbnmodels

import "time"

// DeviceView is the composed per-device record the dashboard consumes.
// Every field is resolved: live snapshot first, then the latest
// persisted reading, then the device row, then hard-coded defaults.
type DeviceView struct {
	ID                string    `json:"id"`
	Name              string    `json:"name"`
	Location          string    `json:"location"`
	Threshold         int       `json:"threshold"`
	FillLevel         float64   `json:"fillLevel"`
	BatteryPercentage float64   `json:"batteryPercentage"`
	Voltage           float64   `json:"voltage"`
	IsTilted          bool      `json:"isTilted"`
	LastSeen          time.Time `json:"lastSeen"`
	Status            string    `json:"status"`
	IsOnline          bool      `json:"isOnline"`
	Deployed          bool      `json:"deployed"`
}

// DashboardData is the full read-side payload for the dashboard poller.
type DashboardData struct {
	BrokerStatus string       `json:"brokerStatus"`
	Devices      []DeviceView `json:"devices"`
}
