package configparser

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

var ErrNoFilePath = errors.New("no file path provided")

// Load fills out in three layers, each overriding the previous one:
// struct defaults, the YAML file at path (skipped when path is empty) and
// environment variables starting with envPrefix.
//
// Env keys map to config keys by dropping the prefix, lowering the case and
// turning a double underscore into a section separator, so
// VENDORSYNC_BUS__RECONNECT_DELAY sets bus.reconnect_delay.
func Load(path, envPrefix string, defaults, out any) error {
	k := koanf.New(".")

	if defaults != nil {
		if err := k.Load(structs.Provider(defaults, "koanf"), nil); err != nil {
			return fmt.Errorf("failed to load defaults: %w", err)
		}
	}

	if path != "" {
		if _, err := os.Stat(path); err != nil {
			return fmt.Errorf("could not open YAML file: %w", err)
		}
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return fmt.Errorf("failed to load config file %s: %w", path, err)
		}
	}

	if envPrefix != "" {
		if err := k.Load(env.Provider(envPrefix, ".", EnvKey(envPrefix)), nil); err != nil {
			return fmt.Errorf("failed to load environment variables: %w", err)
		}
	}

	if err := k.Unmarshal("", out); err != nil {
		return fmt.Errorf("failed to unmarshal configuration: %w", err)
	}
	return nil
}

// EnvKey returns the env-name to config-key transform used by Load.
func EnvKey(prefix string) func(string) string {
	return func(s string) string {
		s = strings.TrimPrefix(s, prefix)
		return strings.ReplaceAll(strings.ToLower(s), "__", ".")
	}
}
