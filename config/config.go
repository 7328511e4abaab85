package config

import (
	"errors"
	"flag"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/Temutjin2k/vendor-location-sync/internal/domain/types"
	"github.com/Temutjin2k/vendor-location-sync/pkg/configparser"
	"github.com/Temutjin2k/vendor-location-sync/pkg/logger"
)

// EnvPrefix of every environment override, e.g. VENDORSYNC_BACKEND__BASE_URL.
const EnvPrefix = "VENDORSYNC_"

// Flags
var (
	modeFlag       = flag.String("mode", "", "application mode: vendor, viewer or both")
	configPathFlag = flag.String("config-path", "", "path to the YAML config file")
)

// Errors
var (
	ErrModeNotProvided = errors.New("mode flag not provided")
	ErrInvalidMode     = errors.New("invalid mode")
	ErrInvalidConfig   = errors.New("invalid config")
)

// Storage drivers
const (
	StorageBadger   = "badger"
	StoragePostgres = "postgres"
)

// Config contains all configuration variables of the application
type (
	Config struct {
		Mode types.ServiceMode `koanf:"-"`

		Backend   BackendConfig   `koanf:"backend"`
		Bus       BusConfig       `koanf:"bus"`
		Roster    RosterConfig    `koanf:"roster"`
		Publisher PublisherConfig `koanf:"publisher"`
		Proximity ProximityConfig `koanf:"proximity"`
		Storage   StorageConfig   `koanf:"storage"`
		RabbitMQ  RabbitMQConfig  `koanf:"rabbitmq"`
		Location  LocationConfig  `koanf:"location"`
		HTTP      HTTPConfig      `koanf:"http"`
		Auth      AuthConfig      `koanf:"auth"`
		Log       LogConfig       `koanf:"log"`
	}

	BackendConfig struct {
		BaseURL        string        `koanf:"base_url"`
		RequestTimeout time.Duration `koanf:"request_timeout"`
		Breaker        BreakerConfig `koanf:"breaker"`
	}

	BreakerConfig struct {
		MaxFailures uint32        `koanf:"max_failures"`
		OpenTimeout time.Duration `koanf:"open_timeout"`
	}

	BusConfig struct {
		Path              string        `koanf:"path"`
		ReconnectDelay    time.Duration `koanf:"reconnect_delay"`
		ReconnectStrategy string        `koanf:"reconnect_strategy"`
		MaxReconnectDelay time.Duration `koanf:"max_reconnect_delay"`
		HandshakeTimeout  time.Duration `koanf:"handshake_timeout"`
	}

	RosterConfig struct {
		ReseedInterval time.Duration `koanf:"reseed_interval"`
	}

	PublisherConfig struct {
		VendorID         int64         `koanf:"vendor_id"`
		Accuracy         string        `koanf:"accuracy"`
		Interval         time.Duration `koanf:"interval"`
		DistanceInterval float64       `koanf:"distance_interval"`
		CallTimeout      time.Duration `koanf:"call_timeout"`
	}

	ProximityConfig struct {
		Accuracy         string  `koanf:"accuracy"`
		DistanceInterval float64 `koanf:"distance_interval"`
	}

	StorageConfig struct {
		Driver   string         `koanf:"driver"`
		DeviceID string         `koanf:"device_id"`
		Badger   BadgerConfig   `koanf:"badger"`
		Postgres PostgresConfig `koanf:"postgres"`
	}

	BadgerConfig struct {
		Path     string `koanf:"path"`
		InMemory bool   `koanf:"in_memory"`
	}

	PostgresConfig struct {
		Host     string `koanf:"host"`
		Port     string `koanf:"port"`
		User     string `koanf:"user"`
		Password string `koanf:"password"`
		Database string `koanf:"database"`
		MaxConns int32  `koanf:"max_conns"`
	}

	RabbitMQConfig struct {
		Enabled  bool   `koanf:"enabled"`
		Host     string `koanf:"host"`
		Port     string `koanf:"port"`
		User     string `koanf:"user"`
		Password string `koanf:"password"`
		Exchange string `koanf:"exchange"`
	}

	LocationConfig struct {
		Waypoints          []Waypoint    `koanf:"waypoints"`
		Speed              float64       `koanf:"speed"`
		Tick               time.Duration `koanf:"tick"`
		Loop               bool          `koanf:"loop"`
		Accuracy           float64       `koanf:"accuracy"`
		GrantLocation      bool          `koanf:"grant_location"`
		GrantNotifications bool          `koanf:"grant_notifications"`
	}

	Waypoint struct {
		Lat float64 `koanf:"lat"`
		Lng float64 `koanf:"lng"`
	}

	HTTPConfig struct {
		Port            string        `koanf:"port"`
		ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
	}

	AuthConfig struct {
		// Token is written to the device store at boot when non-empty
		Token  string        `koanf:"token"`
		Leeway time.Duration `koanf:"leeway"`
	}

	LogConfig struct {
		Level string `koanf:"level"`
	}
)

func Default() Config {
	return Config{
		Backend: BackendConfig{
			BaseURL:        "http://localhost:8000",
			RequestTimeout: 10 * time.Second,
			Breaker:        BreakerConfig{MaxFailures: 5, OpenTimeout: 30 * time.Second},
		},
		Bus: BusConfig{
			Path:              "/ws/locations",
			ReconnectDelay:    3 * time.Second,
			ReconnectStrategy: "constant",
			MaxReconnectDelay: time.Minute,
			HandshakeTimeout:  10 * time.Second,
		},
		Roster: RosterConfig{ReseedInterval: time.Minute},
		Publisher: PublisherConfig{
			Accuracy:         "best_for_navigation",
			Interval:         time.Second,
			DistanceInterval: 1,
			CallTimeout:      10 * time.Second,
		},
		Proximity: ProximityConfig{
			Accuracy:         "highest",
			DistanceInterval: 50,
		},
		Storage: StorageConfig{
			Driver:   StorageBadger,
			DeviceID: "local",
			Badger:   BadgerConfig{Path: "./data/device"},
			Postgres: PostgresConfig{
				Host:     "localhost",
				Port:     "5432",
				User:     "vendorsync",
				Password: "vendorsync",
				Database: "vendorsync",
				MaxConns: 4,
			},
		},
		RabbitMQ: RabbitMQConfig{
			Host:     "localhost",
			Port:     "5672",
			User:     "guest",
			Password: "guest",
			Exchange: "vendorsync.notifications",
		},
		Location: LocationConfig{
			Waypoints:          []Waypoint{{Lat: 38.7223, Lng: -9.1393}, {Lat: 38.7169, Lng: -9.1399}},
			Speed:              1.4,
			Tick:               time.Second,
			Loop:               true,
			Accuracy:           5,
			GrantLocation:      true,
			GrantNotifications: true,
		},
		HTTP: HTTPConfig{Port: "8080", ShutdownTimeout: 10 * time.Second},
		Auth: AuthConfig{Leeway: 30 * time.Second},
		Log:  LogConfig{Level: logger.LevelInfo},
	}
}

func (c PostgresConfig) GetDSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=disable",
		c.User,
		c.Password,
		c.Host,
		c.Port,
		c.Database,
	)
}

func (c RabbitMQConfig) GetDSN() string {
	return fmt.Sprintf("amqp://%s:%s@%s:%s/",
		c.User,
		c.Password,
		c.Host,
		c.Port,
	)
}

// NewConfig parses the command line flags and loads the config from
// defaults, the file given by --config-path and VENDORSYNC_* variables.
func NewConfig() (*Config, error) {
	if !flag.Parsed() {
		flag.Parse()
	}

	cfg, err := Load(*configPathFlag)
	if err != nil {
		return nil, err
	}

	// Parsing flags
	if err := parseFlags(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse flags: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Load reads the config without touching the command line.
func Load(path string) (*Config, error) {
	var cfg Config

	// Loading defaults, the YAML file and env overrides into the config struct.
	if err := configparser.Load(path, EnvPrefix, Default(), &cfg); err != nil {
		return nil, fmt.Errorf("failed to load and parse config: %w", err)
	}

	return &cfg, nil
}

func parseFlags(cfg *Config) error {
	if modeFlag == nil || *modeFlag == "" {
		return ErrModeNotProvided
	}

	cfg.Mode = types.ServiceMode(*modeFlag)

	return nil
}

// Validate checks the values that the components cannot default themselves.
func (c *Config) Validate() error {
	var errs []error

	switch c.Mode {
	case types.VendorMode, types.ViewerMode, types.BothMode:
	default:
		errs = append(errs, fmt.Errorf("%w %q", ErrInvalidMode, c.Mode))
	}

	u, err := url.Parse(c.Backend.BaseURL)
	if err != nil || u.Host == "" {
		errs = append(errs, fmt.Errorf("%w: backend.base_url %q", ErrInvalidConfig, c.Backend.BaseURL))
	}

	if c.Mode.RunsVendor() && c.Publisher.VendorID <= 0 {
		errs = append(errs, fmt.Errorf("%w: publisher.vendor_id is required in %s mode", ErrInvalidConfig, c.Mode))
	}

	switch strings.ToLower(c.Bus.ReconnectStrategy) {
	case "constant", "exponential":
	default:
		errs = append(errs, fmt.Errorf("%w: bus.reconnect_strategy %q", ErrInvalidConfig, c.Bus.ReconnectStrategy))
	}

	switch c.Storage.Driver {
	case StorageBadger, StoragePostgres:
	default:
		errs = append(errs, fmt.Errorf("%w: storage.driver %q", ErrInvalidConfig, c.Storage.Driver))
	}

	if !logger.ValidateLogLevel(strings.ToUpper(c.Log.Level)) {
		errs = append(errs, fmt.Errorf("%w: log.level %q", ErrInvalidConfig, c.Log.Level))
	}

	return errors.Join(errs...)
}
