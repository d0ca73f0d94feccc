package broker

import (
	"context"
	"encoding/json"
	"fmt"

	logger "gitlab.com/binsense1/sbn.bin_server/src/production/SBN.Logger"
	interfaces "gitlab.com/binsense1/sbn.bin_server/src/production/SBN.Repository/Interfaces"
)

// ConfigPayload is the wire format of a bins/{id}/config message.
type ConfigPayload struct {
	Threshold int `json:"threshold"`
}

// Dispatcher publishes outbound device commands. Command faults are the
// one fault class surfaced synchronously to callers, since a human is
// usually waiting on the outcome.
type Dispatcher struct {
	pub              Publisher
	devices          interfaces.DeviceRepository
	defaultThreshold int
	logger           *logger.Logger
}

func NewDispatcher(pub Publisher, devices interfaces.DeviceRepository, defaultThreshold int, log *logger.Logger) *Dispatcher {
	return &Dispatcher{
		pub:              pub,
		devices:          devices,
		defaultThreshold: defaultThreshold,
		logger:           log.WithComponent("dispatcher"),
	}
}

// Ping fires a PING at the device command topic. It fails immediately,
// without retrying, when the broker is not connected.
func (d *Dispatcher) Ping(deviceID string) error {
	if d.pub.Status() != StatusConnected {
		return ErrNotConnected
	}
	d.logger.WithDevice(deviceID).Info("Pinging device")
	return d.pub.Publish(pingTopic(deviceID), 0, false, []byte("PING"))
}

// PushConfig publishes the device's threshold as a retained message so
// the broker re-delivers it when the device reconnects. It waits for
// broker acknowledgment; the caller decides what a failure means (a
// threshold update treats it as advisory and keeps the persisted value).
func (d *Dispatcher) PushConfig(deviceID string, threshold int) error {
	payload, err := json.Marshal(ConfigPayload{Threshold: threshold})
	if err != nil {
		return fmt.Errorf("marshal config payload: %w", err)
	}
	return d.pub.Publish(configTopic(deviceID), 1, true, payload)
}

// RespondToConfigRequest answers a bins/{id}/get-config message with
// the device's current threshold, published once and not retained. An
// unknown device gets the fleet default.
func (d *Dispatcher) RespondToConfigRequest(ctx context.Context, deviceID string) error {
	threshold := d.defaultThreshold

	device, err := d.devices.GetDevice(ctx, deviceID)
	if err != nil {
		d.logger.WithDevice(deviceID).ErrorWithError(err, "Threshold lookup failed, answering with default")
	} else if device != nil {
		threshold = device.Threshold
	}

	payload, err := json.Marshal(ConfigPayload{Threshold: threshold})
	if err != nil {
		return fmt.Errorf("marshal config payload: %w", err)
	}
	return d.pub.Publish(configTopic(deviceID), 0, false, payload)
}

func configTopic(deviceID string) string {
	return fmt.Sprintf("bins/%s/config", deviceID)
}

func pingTopic(deviceID string) string {
	return fmt.Sprintf("cmd/ping/%s", deviceID)
}
