package controllers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	broker "gitlab.com/binsense1/sbn.bin_server/src/production/SBN.Broker"
	config "gitlab.com/binsense1/sbn.bin_server/src/production/SBN.Config"
	logger "gitlab.com/binsense1/sbn.bin_server/src/production/SBN.Logger"
	sbnmodels "gitlab.com/binsense1/sbn.bin_server/src/production/SBN.Models"
)

func testLogger() *logger.Logger {
	return logger.NewLogger(&config.LoggingConfig{Level: "error", Format: "json", Output: "stderr"})
}

func newTestEngine(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	return gin.New()
}

func doRequest(t *testing.T, engine *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()

	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}

	recorder := httptest.NewRecorder()
	engine.ServeHTTP(recorder, req)
	return recorder
}

type publishRecord struct {
	topic    string
	qos      byte
	retained bool
	payload  string
}

type stubPublisher struct {
	status  broker.Status
	err     error
	records []publishRecord
}

func (s *stubPublisher) Status() broker.Status { return s.status }

func (s *stubPublisher) Publish(topic string, qos byte, retained bool, payload []byte) error {
	if s.err != nil {
		return s.err
	}
	s.records = append(s.records, publishRecord{topic: topic, qos: qos, retained: retained, payload: string(payload)})
	return nil
}

type stubDeviceRepo struct {
	devices   []sbnmodels.Device
	patches   map[string]sbnmodels.DeviceSettingsPatch
	patchErr  error
	listErr   error
	deviceErr error
}

func newStubDeviceRepo() *stubDeviceRepo {
	return &stubDeviceRepo{patches: map[string]sbnmodels.DeviceSettingsPatch{}}
}

func (s *stubDeviceRepo) EnsureDevice(ctx context.Context, deviceID string, deployed bool, threshold int, seenAt time.Time) error {
	return nil
}
func (s *stubDeviceRepo) UpdateStatus(ctx context.Context, deviceID, status string) error { return nil }
func (s *stubDeviceRepo) RecordTelemetry(ctx context.Context, deviceID string, battery, voltage float64, isTilted bool, seenAt time.Time) error {
	return nil
}
func (s *stubDeviceRepo) GetDevice(ctx context.Context, deviceID string) (*sbnmodels.Device, error) {
	if s.deviceErr != nil {
		return nil, s.deviceErr
	}
	for i := range s.devices {
		if s.devices[i].ID == deviceID {
			return &s.devices[i], nil
		}
	}
	return nil, nil
}
func (s *stubDeviceRepo) ListDevices(ctx context.Context) ([]sbnmodels.Device, error) {
	return s.devices, s.listErr
}
func (s *stubDeviceRepo) ListDeployedDevices(ctx context.Context) ([]sbnmodels.Device, error) {
	return s.devices, s.listErr
}
func (s *stubDeviceRepo) UpdateDeviceSettings(ctx context.Context, deviceID string, patch sbnmodels.DeviceSettingsPatch) error {
	if s.patchErr != nil {
		return s.patchErr
	}
	s.patches[deviceID] = patch
	return nil
}

type stubReadingRepo struct {
	history map[string][]sbnmodels.Reading
	cleared []string
}

func newStubReadingRepo() *stubReadingRepo {
	return &stubReadingRepo{history: map[string][]sbnmodels.Reading{}}
}

func (s *stubReadingRepo) InsertReading(ctx context.Context, reading sbnmodels.Reading) error {
	return nil
}
func (s *stubReadingRepo) GetLatestReading(ctx context.Context, deviceID string) (*sbnmodels.Reading, error) {
	return nil, nil
}
func (s *stubReadingRepo) GetReadingHistory(ctx context.Context, deviceID string, limit int) ([]sbnmodels.Reading, error) {
	readings := s.history[deviceID]
	if len(readings) > limit {
		readings = readings[:limit]
	}
	return readings, nil
}
func (s *stubReadingRepo) DeleteReadingsByDevice(ctx context.Context, deviceID string) error {
	s.cleared = append(s.cleared, deviceID)
	return nil
}

type stubSettingsRepo struct {
	rows     map[string]int64
	getErr   error
	upserted []sbnmodels.SystemSetting
}

func newStubSettingsRepo() *stubSettingsRepo {
	return &stubSettingsRepo{rows: map[string]int64{}}
}

func (s *stubSettingsRepo) GetSetting(ctx context.Context, key string) (*sbnmodels.SystemSetting, error) {
	if s.getErr != nil {
		return nil, s.getErr
	}
	value, ok := s.rows[key]
	if !ok {
		return nil, nil
	}
	return &sbnmodels.SystemSetting{Key: key, Value: value}, nil
}
func (s *stubSettingsRepo) UpsertSetting(ctx context.Context, setting sbnmodels.SystemSetting) error {
	s.upserted = append(s.upserted, setting)
	return nil
}
