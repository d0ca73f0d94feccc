package sbnmodels

import "time"

// System settings keys for the dual-timeout liveness policy.
const (
	SettingStandardTimeout = "TIMEOUT_STANDARD_MS"
	SettingTiltedTimeout   = "TIMEOUT_TILTED_MS"
)

// Timeout defaults and floor. A tilted bin is typically mid-emptying
// and expected to go quiet longer than an upright one, so it gets the
// longer grace period.
const (
	DefaultStandardTimeout = 15 * time.Minute
	DefaultTiltedTimeout   = 5 * time.Minute
	MinTimeout             = 1000 * time.Millisecond
)

// SystemSetting is one durable key/value configuration row. Values are
// stored in milliseconds for the timeout keys.
type SystemSetting struct {
	Key         string `json:"key" db:"key"`
	Value       int64  `json:"value" db:"value"`
	Description string `json:"description" db:"description"`
}

// SystemSettings is the caller-facing view of the liveness policy.
type SystemSettings struct {
	StandardTimeout int64 `json:"standardTimeout"`
	TiltedTimeout   int64 `json:"tiltedTimeout"`
}
