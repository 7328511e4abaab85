package config

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/Temutjin2k/vendor-location-sync/internal/domain/types"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if cfg.Bus.Path != "/ws/locations" {
		t.Errorf("Bus.Path = %q", cfg.Bus.Path)
	}
	if cfg.Bus.ReconnectDelay != 3*time.Second {
		t.Errorf("Bus.ReconnectDelay = %v, want 3s", cfg.Bus.ReconnectDelay)
	}
	if cfg.Roster.ReseedInterval != time.Minute {
		t.Errorf("Roster.ReseedInterval = %v, want 1m", cfg.Roster.ReseedInterval)
	}
	if cfg.Proximity.DistanceInterval != 50 {
		t.Errorf("Proximity.DistanceInterval = %v, want 50", cfg.Proximity.DistanceInterval)
	}
	if cfg.Storage.Driver != StorageBadger {
		t.Errorf("Storage.Driver = %q", cfg.Storage.Driver)
	}
	if len(cfg.Location.Waypoints) != 2 {
		t.Errorf("expected default route with 2 waypoints, got %d", len(cfg.Location.Waypoints))
	}
}

func TestLoad_FileAndEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	yaml := `
backend:
  base_url: https://api.example.com
publisher:
  vendor_id: 12
location:
  waypoints:
    - lat: 40
      lng: -8
bus:
  reconnect_strategy: exponential
`
	if err := os.WriteFile(path, []byte(yaml), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("VENDORSYNC_STORAGE__DRIVER", "postgres")
	t.Setenv("VENDORSYNC_RABBITMQ__ENABLED", "true")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if cfg.Backend.BaseURL != "https://api.example.com" {
		t.Errorf("Backend.BaseURL = %q", cfg.Backend.BaseURL)
	}
	if cfg.Publisher.VendorID != 12 {
		t.Errorf("Publisher.VendorID = %d", cfg.Publisher.VendorID)
	}
	if len(cfg.Location.Waypoints) != 1 || cfg.Location.Waypoints[0].Lat != 40 {
		t.Errorf("waypoints from file must replace the default route, got %+v", cfg.Location.Waypoints)
	}
	if cfg.Bus.ReconnectStrategy != "exponential" {
		t.Errorf("Bus.ReconnectStrategy = %q", cfg.Bus.ReconnectStrategy)
	}
	if cfg.Storage.Driver != StoragePostgres {
		t.Errorf("Storage.Driver = %q, want postgres from env", cfg.Storage.Driver)
	}
	if !cfg.RabbitMQ.Enabled {
		t.Errorf("RabbitMQ.Enabled should come from env")
	}
	// untouched keys keep their defaults
	if cfg.Bus.ReconnectDelay != 3*time.Second {
		t.Errorf("Bus.ReconnectDelay = %v", cfg.Bus.ReconnectDelay)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr error
	}{
		{name: "viewer ok", mutate: func(c *Config) { c.Mode = types.ViewerMode }},
		{name: "vendor ok", mutate: func(c *Config) { c.Mode = types.VendorMode; c.Publisher.VendorID = 3 }},
		{name: "unknown mode", mutate: func(c *Config) { c.Mode = "courier" }, wantErr: ErrInvalidMode},
		{name: "vendor without id", mutate: func(c *Config) { c.Mode = types.VendorMode }, wantErr: ErrInvalidConfig},
		{name: "bad base url", mutate: func(c *Config) { c.Mode = types.ViewerMode; c.Backend.BaseURL = "not a url" }, wantErr: ErrInvalidConfig},
		{name: "bad storage", mutate: func(c *Config) { c.Mode = types.ViewerMode; c.Storage.Driver = "sqlite" }, wantErr: ErrInvalidConfig},
		{name: "bad strategy", mutate: func(c *Config) { c.Mode = types.ViewerMode; c.Bus.ReconnectStrategy = "linear" }, wantErr: ErrInvalidConfig},
		{name: "bad log level", mutate: func(c *Config) { c.Mode = types.ViewerMode; c.Log.Level = "trace" }, wantErr: ErrInvalidConfig},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)

			err := cfg.Validate()
			if tt.wantErr == nil {
				if err != nil {
					t.Fatalf("Validate() error: %v", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("Validate() = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestWriteConfig_MasksSecrets(t *testing.T) {
	cfg := Default()
	cfg.Auth.Token = "secret-token"
	cfg.RabbitMQ.Password = "rabbit-pass"

	var buf bytes.Buffer
	if err := WriteConfig(&buf, cfg); err != nil {
		t.Fatalf("WriteConfig() error: %v", err)
	}

	out := buf.String()
	for _, secret := range []string{"secret-token", "rabbit-pass"} {
		if strings.Contains(out, secret) {
			t.Errorf("output leaks %q", secret)
		}
	}
	if !strings.Contains(out, "/ws/locations") {
		t.Errorf("output misses bus path:\n%s", out)
	}
}
