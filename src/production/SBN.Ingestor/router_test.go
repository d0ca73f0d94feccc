package ingestor

import (
	"context"
	"testing"
	"time"

	broker "gitlab.com/binsense1/sbn.bin_server/src/production/SBN.Broker"
	config "gitlab.com/binsense1/sbn.bin_server/src/production/SBN.Config"
	livestore "gitlab.com/binsense1/sbn.bin_server/src/production/SBN.LiveStore"
	logger "gitlab.com/binsense1/sbn.bin_server/src/production/SBN.Logger"
	sbnmodels "gitlab.com/binsense1/sbn.bin_server/src/production/SBN.Models"
)

type recordingDeviceRepo struct {
	ensured      []string
	statuses     map[string]string
	telemetry    int
	knownDevices map[string]*sbnmodels.Device
}

func newRecordingDeviceRepo() *recordingDeviceRepo {
	return &recordingDeviceRepo{
		statuses:     map[string]string{},
		knownDevices: map[string]*sbnmodels.Device{},
	}
}

func (r *recordingDeviceRepo) EnsureDevice(ctx context.Context, deviceID string, deployed bool, threshold int, seenAt time.Time) error {
	r.ensured = append(r.ensured, deviceID)
	return nil
}
func (r *recordingDeviceRepo) UpdateStatus(ctx context.Context, deviceID, status string) error {
	r.statuses[deviceID] = status
	return nil
}
func (r *recordingDeviceRepo) RecordTelemetry(ctx context.Context, deviceID string, battery, voltage float64, isTilted bool, seenAt time.Time) error {
	r.telemetry++
	return nil
}
func (r *recordingDeviceRepo) GetDevice(ctx context.Context, deviceID string) (*sbnmodels.Device, error) {
	return r.knownDevices[deviceID], nil
}
func (r *recordingDeviceRepo) ListDevices(ctx context.Context) ([]sbnmodels.Device, error) {
	return nil, nil
}
func (r *recordingDeviceRepo) ListDeployedDevices(ctx context.Context) ([]sbnmodels.Device, error) {
	return nil, nil
}
func (r *recordingDeviceRepo) UpdateDeviceSettings(ctx context.Context, deviceID string, patch sbnmodels.DeviceSettingsPatch) error {
	return nil
}

type recordingReadingRepo struct {
	inserted []sbnmodels.Reading
}

func (r *recordingReadingRepo) InsertReading(ctx context.Context, reading sbnmodels.Reading) error {
	r.inserted = append(r.inserted, reading)
	return nil
}
func (r *recordingReadingRepo) GetLatestReading(ctx context.Context, deviceID string) (*sbnmodels.Reading, error) {
	return nil, nil
}
func (r *recordingReadingRepo) GetReadingHistory(ctx context.Context, deviceID string, limit int) ([]sbnmodels.Reading, error) {
	return nil, nil
}
func (r *recordingReadingRepo) DeleteReadingsByDevice(ctx context.Context, deviceID string) error {
	return nil
}

type recordingPublisher struct {
	topics []string
}

func (p *recordingPublisher) Status() broker.Status { return broker.StatusConnected }

func (p *recordingPublisher) Publish(topic string, qos byte, retained bool, payload []byte) error {
	p.topics = append(p.topics, topic)
	return nil
}

type routerFixture struct {
	router   *Router
	live     *livestore.Store
	devices  *recordingDeviceRepo
	readings *recordingReadingRepo
	pub      *recordingPublisher
}

func newRouterFixture(t *testing.T) *routerFixture {
	t.Helper()

	log := logger.NewLogger(&config.LoggingConfig{Level: "error", Format: "json", Output: "stderr"})
	live := livestore.New()
	devices := newRecordingDeviceRepo()
	readings := &recordingReadingRepo{}
	pub := &recordingPublisher{}

	dispatcher := broker.NewDispatcher(pub, devices, 85, log)
	synchronizer := NewSynchronizer(devices, readings, false, 85, log)

	return &routerFixture{
		router:   NewRouter(live, synchronizer, dispatcher, log),
		live:     live,
		devices:  devices,
		readings: readings,
		pub:      pub,
	}
}

func TestHandleDataUpdatesCacheAndPersists(t *testing.T) {
	f := newRouterFixture(t)
	payload := []byte(`{"deviceId":"BIN_01","fillLevel":42,"batteryPercentage":80,"voltage":4.7,"isTilted":false}`)

	f.router.HandleMessage(context.Background(), "bins/BIN_01/data", payload)

	snapshot, ok := f.live.Get("BIN_01")
	if !ok {
		t.Fatal("live cache has no snapshot after valid data")
	}
	if snapshot.FillLevel != 42 || snapshot.Status != sbnmodels.StatusOnline {
		t.Errorf("snapshot = %+v, want fill 42 and online", snapshot)
	}
	if snapshot.LastSeen.IsZero() {
		t.Error("snapshot LastSeen not set")
	}

	if len(f.devices.ensured) != 1 || f.devices.ensured[0] != "BIN_01" {
		t.Errorf("ensured devices = %v, want [BIN_01]", f.devices.ensured)
	}
	if f.devices.telemetry != 1 {
		t.Errorf("telemetry writes = %d, want 1", f.devices.telemetry)
	}
	if len(f.readings.inserted) != 1 {
		t.Fatalf("inserted readings = %d, want 1", len(f.readings.inserted))
	}
	if f.readings.inserted[0].FillLevel != 42 {
		t.Errorf("reading fill = %v, want 42", f.readings.inserted[0].FillLevel)
	}
}

func TestHandleDataRejectsMalformedPayloadWholesale(t *testing.T) {
	f := newRouterFixture(t)

	payloads := [][]byte{
		[]byte(`not json`),
		[]byte(`{"deviceId":"BIN_01","fillLevel":"high","batteryPercentage":80,"voltage":4.7,"isTilted":false}`),
		[]byte(`{"deviceId":"BIN_01","fillLevel":42,"batteryPercentage":80,"voltage":4.7}`),
	}
	for _, payload := range payloads {
		f.router.HandleMessage(context.Background(), "bins/BIN_01/data", payload)
	}

	if f.live.Len() != 0 {
		t.Error("rejected payload reached the live cache")
	}
	if len(f.devices.ensured) != 0 || f.devices.telemetry != 0 || len(f.readings.inserted) != 0 {
		t.Error("rejected payload reached the durable store")
	}
}

func TestHandleStatusNormalizesAndMerges(t *testing.T) {
	f := newRouterFixture(t)

	// Unknown device, non-"online" payload normalizes to offline and
	// fills the snapshot with defaults.
	f.router.HandleMessage(context.Background(), "bins/BIN_02/status", []byte("rebooting"))

	snapshot, ok := f.live.Get("BIN_02")
	if !ok {
		t.Fatal("status message did not create a snapshot")
	}
	if snapshot.Status != sbnmodels.StatusOffline {
		t.Errorf("Status = %q, want %q", snapshot.Status, sbnmodels.StatusOffline)
	}
	if snapshot.BatteryPercentage != sbnmodels.DefaultBatteryPercentage || snapshot.Voltage != sbnmodels.DefaultVoltage {
		t.Errorf("snapshot defaults not applied: %+v", snapshot)
	}
	if f.devices.statuses["BIN_02"] != sbnmodels.StatusOffline {
		t.Errorf("persisted status = %q, want offline", f.devices.statuses["BIN_02"])
	}

	// A later "online" flips status but keeps prior measurements.
	f.router.HandleMessage(context.Background(), "bins/BIN_01/data",
		[]byte(`{"deviceId":"BIN_01","fillLevel":42,"batteryPercentage":80,"voltage":4.7,"isTilted":false}`))
	f.router.HandleMessage(context.Background(), "bins/BIN_01/status", []byte("online"))

	snapshot, _ = f.live.Get("BIN_01")
	if snapshot.Status != sbnmodels.StatusOnline {
		t.Errorf("Status = %q, want %q", snapshot.Status, sbnmodels.StatusOnline)
	}
	if snapshot.FillLevel != 42 {
		t.Errorf("status update clobbered fill level: %v", snapshot.FillLevel)
	}
}

func TestHandleGetConfigAnswersOnConfigTopic(t *testing.T) {
	f := newRouterFixture(t)
	f.devices.knownDevices["BIN_03"] = &sbnmodels.Device{ID: "BIN_03", Threshold: 70}

	f.router.HandleMessage(context.Background(), "bins/BIN_03/get-config", nil)

	if len(f.pub.topics) != 1 || f.pub.topics[0] != "bins/BIN_03/config" {
		t.Errorf("published topics = %v, want [bins/BIN_03/config]", f.pub.topics)
	}
	if len(f.devices.ensured) != 1 {
		t.Errorf("config request should refresh device row, ensured = %v", f.devices.ensured)
	}
}

func TestHandleMessageDropsUnroutableTopics(t *testing.T) {
	f := newRouterFixture(t)

	topics := []string{
		"bins",
		"bins/BIN_01",
		"bins//data",
		"bins/BIN_01/selftest",
	}
	for _, topic := range topics {
		f.router.HandleMessage(context.Background(), topic, []byte("{}"))
	}

	if f.live.Len() != 0 || len(f.devices.ensured) != 0 || len(f.pub.topics) != 0 {
		t.Error("unroutable topic produced a side effect")
	}
}

func TestRunDrainsUntilChannelCloses(t *testing.T) {
	f := newRouterFixture(t)

	messages := make(chan broker.Message, 2)
	messages <- broker.Message{
		Topic:   "bins/BIN_01/data",
		Payload: []byte(`{"deviceId":"BIN_01","fillLevel":10,"batteryPercentage":80,"voltage":4.7,"isTilted":false}`),
	}
	messages <- broker.Message{Topic: "bins/BIN_01/status", Payload: []byte("online")}
	close(messages)

	done := make(chan struct{})
	go func() {
		defer close(done)
		f.router.Run(context.Background(), messages)
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after channel close")
	}

	snapshot, ok := f.live.Get("BIN_01")
	if !ok || snapshot.Status != sbnmodels.StatusOnline {
		t.Errorf("messages not applied in order before exit: %+v", snapshot)
	}
}
