package config

import (
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/goccy/go-json"
)

const HelpMessage = `
Usage:
  vendorsync --mode=<vendor|viewer|both> [--config-path=config.yaml]

Modes:
  vendor   share this device's position while the vendor is on a route
  viewer   keep the live vendor roster and raise proximity alerts
  both     run both roles in one process

Configuration is read from built-in defaults, then the YAML file, then
environment variables. Env names use the VENDORSYNC_ prefix and a double
underscore between section and key:

  VENDORSYNC_BACKEND__BASE_URL=https://api.example.com
  VENDORSYNC_PUBLISHER__VENDOR_ID=12
  VENDORSYNC_STORAGE__DRIVER=postgres
  VENDORSYNC_LOG__LEVEL=DEBUG
`

func PrintHelp() {
	if HelpMessage != "" {
		fmt.Printf("%s", HelpMessage)
	} else {
		flag.Usage()
	}
}

// PrintConfig writes the effective config as indented JSON with secrets masked.
func PrintConfig(cfg Config) {
	_ = WriteConfig(os.Stdout, cfg)
}

func WriteConfig(w io.Writer, cfg Config) error {
	cfg.Auth.Token = mask(cfg.Auth.Token)
	cfg.Storage.Postgres.Password = mask(cfg.Storage.Postgres.Password)
	cfg.RabbitMQ.Password = mask(cfg.RabbitMQ.Password)

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	_, err = fmt.Fprintf(w, "%s\n", data)
	return err
}

func mask(s string) string {
	if s == "" {
		return ""
	}
	return "****"
}
