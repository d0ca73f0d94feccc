package config

import (
	"reflect"
	"testing"
	"time"
)

func setRequiredEnv(t *testing.T) {
	t.Helper()
	t.Setenv("POSTGRES_USER", "smartbins")
	t.Setenv("POSTGRES_PASSWORD", "secret")
}

func TestLoadDefaults(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if cfg.Server.Port != "9010" {
		t.Errorf("Server.Port = %q, want 9010", cfg.Server.Port)
	}
	if cfg.MQTT.ClientID != "smart-bin-server" {
		t.Errorf("MQTT.ClientID = %q, want smart-bin-server", cfg.MQTT.ClientID)
	}
	if cfg.MQTT.ReconnectInterval != time.Second {
		t.Errorf("MQTT.ReconnectInterval = %v, want 1s", cfg.MQTT.ReconnectInterval)
	}
	if cfg.Bins.AutoDeploy {
		t.Error("Bins.AutoDeploy = true, want false default")
	}
	if cfg.Bins.DefaultThreshold != 85 {
		t.Errorf("Bins.DefaultThreshold = %d, want 85", cfg.Bins.DefaultThreshold)
	}
}

func TestLoadOverrides(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("BROKER_HOST", "mqtt.internal")
	t.Setenv("BROKER_PORT", "8883")
	t.Setenv("BROKER_TLS", "true")
	t.Setenv("BIN_AUTO_DEPLOY", "1")
	t.Setenv("BIN_DEFAULT_THRESHOLD", "70")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example, https://b.example")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if got := cfg.GetMQTTBrokerURL(); got != "tcps://mqtt.internal:8883" {
		t.Errorf("GetMQTTBrokerURL() = %q, want tcps://mqtt.internal:8883", got)
	}
	if !cfg.Bins.AutoDeploy || cfg.Bins.DefaultThreshold != 70 {
		t.Errorf("Bins = %+v, want auto-deploy with threshold 70", cfg.Bins)
	}
	want := []string{"https://a.example", "https://b.example"}
	if !reflect.DeepEqual(cfg.CORS.AllowedOrigins, want) {
		t.Errorf("AllowedOrigins = %v, want %v", cfg.CORS.AllowedOrigins, want)
	}
}

func TestValidateRejectsBadThreshold(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("BIN_DEFAULT_THRESHOLD", "101")

	if _, err := Load(); err == nil {
		t.Error("Load() accepted out-of-range default threshold")
	}
}

func TestGetDatabaseDSN(t *testing.T) {
	cfg := &Config{Database: DatabaseConfig{
		Host:     "db.internal",
		Port:     5433,
		User:     "smartbins",
		Password: "secret",
		DBName:   "smartbins",
		SSLMode:  "require",
	}}

	want := "host=db.internal port=5433 user=smartbins password=secret dbname=smartbins sslmode=require"
	if got := cfg.GetDatabaseDSN(); got != want {
		t.Errorf("GetDatabaseDSN() = %q, want %q", got, want)
	}
}
