package sbnmodels

import "time"

// Device statuses as reported over the bus and stored durably.
const (
	StatusOnline  = "online"
	StatusOffline = "offline"
)

// Device represents one physical bin sensor unit. The identifier is
// assigned externally (printed on the unit) and used as the topic path
// segment on the bus. Rows are created automatically on the first
// message observed from an unknown identifier.
type Device struct {
	ID                string     `json:"id" db:"id"`
	Name              *string    `json:"name" db:"name"`
	Location          *string    `json:"location" db:"location"`
	Threshold         int        `json:"threshold" db:"threshold"`
	Deployed          bool       `json:"deployed" db:"deployed"`
	LastSeen          *time.Time `json:"lastSeen" db:"last_seen"`
	Status            string     `json:"status" db:"status"`
	BatteryPercentage *float64   `json:"batteryPercentage" db:"battery_percentage"`
	Voltage           *float64   `json:"voltage" db:"voltage"`
	IsTilted          *bool      `json:"isTilted" db:"is_tilted"`
}

// DeviceSettingsPatch carries an operator edit to a device row. Nil
// fields are left untouched.
type DeviceSettingsPatch struct {
	Location  *string `json:"location,omitempty"`
	Threshold *int    `json:"threshold,omitempty"`
	Deployed  *bool   `json:"deployed,omitempty"`
}
