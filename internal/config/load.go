// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package config

import (
	"os"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/samber/oops"
	"github.com/spf13/pflag"

	"github.com/holomush/hybridid/internal/xdg"
)

// Environment variables consulted when the value is not otherwise set.
const (
	EnvDatabaseURL       = "DATABASE_URL"
	EnvDirectoryPassword = "HYBRIDID_DIRECTORY_BIND_PASSWORD"
)

// FlagKeys maps command-line flag names to configuration keys.
var FlagKeys = map[string]string{
	"log-format":    "log.format",
	"log-level":     "log.level",
	"database-url":  "database.url",
	"directory-url": "directory.url",
	"metrics-addr":  "metrics.addr",
	"api-addr":      "api.addr",
}

// Loader reads configuration. Getenv defaults to os.Getenv.
type Loader struct {
	Getenv func(string) string
}

// Load reads path, then flags in FlagKeys, then the environment, on top of
// Default. An empty path selects the XDG config file when one exists.
// The result is validated.
func (l Loader) Load(path string, flags *pflag.FlagSet) (*Config, error) {
	getenv := l.Getenv
	if getenv == nil {
		getenv = os.Getenv
	}
	if path == "" {
		path = xdg.ConfigFile(getenv)
	}

	k := koanf.New(".")
	if path != "" {
		data, err := os.ReadFile(path) //nolint:gosec // operator-supplied path
		if err != nil {
			return nil, oops.Code("CONFIG_READ_FAILED").With("path", path).Wrap(err)
		}
		if err := ValidateYAML(data); err != nil {
			return nil, oops.Code("CONFIG_SCHEMA_INVALID").With("path", path).Wrap(err)
		}
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, oops.Code("CONFIG_PARSE_FAILED").With("path", path).Wrap(err)
		}
	}

	if flags != nil {
		provider := posflag.ProviderWithValue(flags, ".", k, func(name, value string) (string, any) {
			return FlagKeys[name], value
		})
		if err := k.Load(provider, nil); err != nil {
			return nil, oops.Code("CONFIG_PARSE_FAILED").With("source", "flags").Wrap(err)
		}
	}

	cfg := Default()
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, oops.Code("CONFIG_PARSE_FAILED").Wrap(err)
	}

	if cfg.Database.URL == "" {
		cfg.Database.URL = getenv(EnvDatabaseURL)
	}
	if cfg.Directory.BindPassword == "" {
		cfg.Directory.BindPassword = getenv(EnvDirectoryPassword)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Load is Loader{}.Load.
func Load(path string, flags *pflag.FlagSet) (*Config, error) {
	return Loader{}.Load(path, flags)
}
