package dashboard

import (
	"context"
	"time"

	broker "gitlab.com/binsense1/sbn.bin_server/src/production/SBN.Broker"
	livestore "gitlab.com/binsense1/sbn.bin_server/src/production/SBN.LiveStore"
	logger "gitlab.com/binsense1/sbn.bin_server/src/production/SBN.Logger"
	sbnmodels "gitlab.com/binsense1/sbn.bin_server/src/production/SBN.Models"
	interfaces "gitlab.com/binsense1/sbn.bin_server/src/production/SBN.Repository/Interfaces"
)

// StatusSource exposes the broker connection state to the read side.
type StatusSource interface {
	Status() broker.Status
}

// Aggregator composes the per-device dashboard view: live snapshot
// merged over persisted fallback, classified by the liveness evaluator.
// It is a read-time projection; it performs no writes, never blocks on
// device I/O, and degrades to documented defaults on partial data.
type Aggregator struct {
	live     *livestore.Store
	devices  interfaces.DeviceRepository
	readings interfaces.ReadingRepository
	settings interfaces.SettingsRepository
	broker   StatusSource
	logger   *logger.Logger
}

func NewAggregator(live *livestore.Store, devices interfaces.DeviceRepository, readings interfaces.ReadingRepository, settings interfaces.SettingsRepository, broker StatusSource, log *logger.Logger) *Aggregator {
	return &Aggregator{
		live:     live,
		devices:  devices,
		readings: readings,
		settings: settings,
		broker:   broker,
		logger:   log.WithComponent("aggregator"),
	}
}

// DashboardData builds the full view for every deployed device.
func (a *Aggregator) DashboardData(ctx context.Context) (*sbnmodels.DashboardData, error) {
	policy := a.TimeoutPolicy(ctx)

	devices, err := a.devices.ListDeployedDevices(ctx)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	views := make([]sbnmodels.DeviceView, 0, len(devices))
	for _, device := range devices {
		views = append(views, a.mergeDevice(ctx, device, now, policy))
	}

	return &sbnmodels.DashboardData{
		BrokerStatus: string(a.broker.Status()),
		Devices:      views,
	}, nil
}

// TimeoutPolicy resolves the configured dual timeouts, falling back to
// the documented defaults on missing rows, read failures or
// non-positive values. The policy is never zero.
func (a *Aggregator) TimeoutPolicy(ctx context.Context) TimeoutPolicy {
	policy := DefaultTimeoutPolicy()
	if v, ok := a.settingValue(ctx, sbnmodels.SettingStandardTimeout); ok {
		policy.Standard = time.Duration(v) * time.Millisecond
	}
	if v, ok := a.settingValue(ctx, sbnmodels.SettingTiltedTimeout); ok {
		policy.Tilted = time.Duration(v) * time.Millisecond
	}
	return policy
}

func (a *Aggregator) settingValue(ctx context.Context, key string) (int64, bool) {
	setting, err := a.settings.GetSetting(ctx, key)
	if err != nil {
		a.logger.WithField("key", key).ErrorWithError(err, "Failed to read setting, using default")
		return 0, false
	}
	if setting == nil || setting.Value <= 0 {
		return 0, false
	}
	return setting.Value, true
}

// mergeDevice resolves each field live-first, then latest persisted
// reading, then the device row, then hard-coded defaults.
func (a *Aggregator) mergeDevice(ctx context.Context, device sbnmodels.Device, now time.Time, policy TimeoutPolicy) sbnmodels.DeviceView {
	var live *sbnmodels.LiveSnapshot
	if snapshot, ok := a.live.Get(device.ID); ok {
		live = &snapshot
	}

	var fillLevel, battery, voltage *float64
	var isTilted *bool
	if live != nil {
		fillLevel = &live.FillLevel
		battery = &live.BatteryPercentage
		voltage = &live.Voltage
		isTilted = &live.IsTilted
	}

	// Live data is lost on restart; recover what we can from the most
	// recent persisted reading.
	if fillLevel == nil {
		reading, err := a.readings.GetLatestReading(ctx, device.ID)
		if err != nil {
			a.logger.WithDevice(device.ID).ErrorWithError(err, "Failed to fetch last reading")
		} else if reading != nil {
			fillLevel = &reading.FillLevel
			if battery == nil {
				battery = &reading.BatteryPercentage
			}
			if voltage == nil {
				voltage = &reading.Voltage
			}
			if isTilted == nil {
				isTilted = &reading.IsTilted
			}
		}
	}

	view := sbnmodels.DeviceView{
		ID:                device.ID,
		Name:              device.ID,
		Location:          "Unknown",
		Threshold:         device.Threshold,
		FillLevel:         sbnmodels.DefaultFillLevel,
		BatteryPercentage: resolveFloat(battery, device.BatteryPercentage, sbnmodels.DefaultBatteryPercentage),
		Voltage:           resolveFloat(voltage, device.Voltage, sbnmodels.DefaultVoltage),
		IsTilted:          resolveBool(isTilted, device.IsTilted),
		Deployed:          device.Deployed,
	}
	if device.Name != nil && *device.Name != "" {
		view.Name = *device.Name
	}
	if device.Location != nil && *device.Location != "" {
		view.Location = *device.Location
	}
	if fillLevel != nil {
		view.FillLevel = *fillLevel
	}

	if live != nil {
		view.LastSeen = live.LastSeen
	} else if device.LastSeen != nil {
		view.LastSeen = *device.LastSeen
	}

	view.IsOnline = IsOnline(live, &device, view.IsTilted, now, policy)
	view.Status = sbnmodels.StatusOffline
	if view.IsOnline {
		view.Status = sbnmodels.StatusOnline
	}

	return view
}

func resolveFloat(resolved, persisted *float64, fallback float64) float64 {
	if resolved != nil {
		return *resolved
	}
	if persisted != nil {
		return *persisted
	}
	return fallback
}

func resolveBool(resolved, persisted *bool) bool {
	if resolved != nil {
		return *resolved
	}
	if persisted != nil {
		return *persisted
	}
	return false
}
