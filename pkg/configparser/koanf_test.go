package configparser

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

type testSection struct {
	Delay time.Duration `koanf:"delay"`
	Name  string        `koanf:"name"`
}

type testConfig struct {
	Port    int         `koanf:"port"`
	Enabled bool        `koanf:"enabled"`
	Section testSection `koanf:"section"`
}

func defaults() testConfig {
	return testConfig{Port: 8080, Section: testSection{Delay: 3 * time.Second, Name: "default"}}
}

func TestLoad_Defaults(t *testing.T) {
	var cfg testConfig
	if err := Load("", "", defaults(), &cfg); err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Port != 8080 || cfg.Section.Delay != 3*time.Second || cfg.Section.Name != "default" {
		t.Fatalf("unexpected config %+v", cfg)
	}
}

func TestLoad_FileThenEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	yaml := "port: 9000\nsection:\n  delay: 5s\n  name: from-file\n"
	if err := os.WriteFile(path, []byte(yaml), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("CPTEST_SECTION__NAME", "from-env")
	t.Setenv("CPTEST_ENABLED", "true")

	var cfg testConfig
	if err := Load(path, "CPTEST_", defaults(), &cfg); err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if cfg.Port != 9000 {
		t.Errorf("Port = %d, want 9000", cfg.Port)
	}
	if cfg.Section.Delay != 5*time.Second {
		t.Errorf("Delay = %v, want 5s", cfg.Section.Delay)
	}
	if cfg.Section.Name != "from-env" {
		t.Errorf("Name = %q, want from-env", cfg.Section.Name)
	}
	if !cfg.Enabled {
		t.Errorf("Enabled should be set from env")
	}
}

func TestLoad_MissingFile(t *testing.T) {
	var cfg testConfig
	if err := Load(filepath.Join(t.TempDir(), "nope.yaml"), "", defaults(), &cfg); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestEnvKey(t *testing.T) {
	f := EnvKey("VENDORSYNC_")
	if got := f("VENDORSYNC_BUS__RECONNECT_DELAY"); got != "bus.reconnect_delay" {
		t.Fatalf("got %q", got)
	}
	if got := f("VENDORSYNC_LOG__LEVEL"); got != "log.level" {
		t.Fatalf("got %q", got)
	}
}
