package dashboard

import (
	"time"

	sbnmodels "gitlab.com/binsense1/sbn.bin_server/src/production/SBN.Models"
)

// TimeoutPolicy is the dual-timeout liveness policy. A tilted device is
// usually mid-emptying and allowed a longer silence window before being
// marked offline, which avoids false alarms during routine servicing.
type TimeoutPolicy struct {
	Standard time.Duration
	Tilted   time.Duration
}

// DefaultTimeoutPolicy returns the documented policy defaults.
func DefaultTimeoutPolicy() TimeoutPolicy {
	return TimeoutPolicy{
		Standard: sbnmodels.DefaultStandardTimeout,
		Tilted:   sbnmodels.DefaultTiltedTimeout,
	}
}

// IsOnline classifies a device as reachable. It is a pure function of
// the live snapshot (may be nil), the persisted device row (may be
// nil), the resolved tilt flag, the current time and the policy.
//
// A device is online iff either view last reported "online" AND the
// time since it was last seen is within the applicable timeout. A
// device never seen by either view has a zero last-seen and is always
// offline.
func IsOnline(live *sbnmodels.LiveSnapshot, device *sbnmodels.Device, isTilted bool, now time.Time, policy TimeoutPolicy) bool {
	statusOnline := (live != nil && live.Status == sbnmodels.StatusOnline) ||
		(device != nil && device.Status == sbnmodels.StatusOnline)
	if !statusOnline {
		return false
	}

	timeout := policy.Standard
	if isTilted {
		timeout = policy.Tilted
	}

	var lastSeen time.Time
	if live != nil {
		lastSeen = live.LastSeen
	} else if device != nil && device.LastSeen != nil {
		lastSeen = *device.LastSeen
	}

	return now.Sub(lastSeen) <= timeout
}
