// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

// Package config loads hybridid settings from a YAML file, command-line
// flags and the environment, in increasing order of precedence for flags.
package config

import (
	"slices"
	"time"

	"github.com/samber/oops"

	"github.com/holomush/hybridid/internal/identity/ldap"
	"github.com/holomush/hybridid/internal/store"
)

// Config is the root of the configuration file.
type Config struct {
	Log       LogConfig       `koanf:"log" json:"log,omitempty" yaml:"log,omitempty"`
	Database  DatabaseConfig  `koanf:"database" json:"database,omitempty" yaml:"database,omitempty"`
	Directory DirectoryConfig `koanf:"directory" json:"directory,omitempty" yaml:"directory,omitempty"`
	Metrics   MetricsConfig   `koanf:"metrics" json:"metrics,omitempty" yaml:"metrics,omitempty"`
	API       APIConfig       `koanf:"api" json:"api,omitempty" yaml:"api,omitempty"`
}

// LogConfig selects the log output.
type LogConfig struct {
	Format string `koanf:"format" json:"format,omitempty" yaml:"format,omitempty" jsonschema:"enum=json,enum=text"`
	Level  string `koanf:"level" json:"level,omitempty" yaml:"level,omitempty" jsonschema:"enum=debug,enum=info,enum=warn,enum=error"`
}

// DatabaseConfig configures the relational store.
type DatabaseConfig struct {
	// URL falls back to the DATABASE_URL environment variable.
	URL             string `koanf:"url" json:"url,omitempty" yaml:"url,omitempty"`
	MaxConns        int32  `koanf:"max_conns" json:"max_conns,omitempty" yaml:"max_conns,omitempty" jsonschema:"minimum=0"`
	MinConns        int32  `koanf:"min_conns" json:"min_conns,omitempty" yaml:"min_conns,omitempty" jsonschema:"minimum=0"`
	ConnectTimeout  string `koanf:"connect_timeout" json:"connect_timeout,omitempty" yaml:"connect_timeout,omitempty" jsonschema:"description=Go duration such as 5s"`
	MaxConnLifetime string `koanf:"max_conn_lifetime" json:"max_conn_lifetime,omitempty" yaml:"max_conn_lifetime,omitempty" jsonschema:"description=Go duration such as 1h"`
}

// DirectoryConfig configures the LDAP fallback.
type DirectoryConfig struct {
	URL                string   `koanf:"url" json:"url,omitempty" yaml:"url,omitempty"`
	UserTreeDN         string   `koanf:"user_tree_dn" json:"user_tree_dn,omitempty" yaml:"user_tree_dn,omitempty"`
	Scope              string   `koanf:"scope" json:"scope,omitempty" yaml:"scope,omitempty" jsonschema:"enum=one,enum=sub"`
	UserObjectClass    string   `koanf:"user_object_class" json:"user_object_class,omitempty" yaml:"user_object_class,omitempty"`
	IDAttribute        string   `koanf:"id_attribute" json:"id_attribute,omitempty" yaml:"id_attribute,omitempty"`
	NameAttribute      string   `koanf:"name_attribute" json:"name_attribute,omitempty" yaml:"name_attribute,omitempty"`
	MailAttribute      string   `koanf:"mail_attribute" json:"mail_attribute,omitempty" yaml:"mail_attribute,omitempty"`
	EnabledAttribute   string   `koanf:"enabled_attribute" json:"enabled_attribute,omitempty" yaml:"enabled_attribute,omitempty"`
	EnabledMask        int      `koanf:"enabled_mask" json:"enabled_mask,omitempty" yaml:"enabled_mask,omitempty" jsonschema:"minimum=0"`
	EnabledInvert      bool     `koanf:"enabled_invert" json:"enabled_invert,omitempty" yaml:"enabled_invert,omitempty"`
	EnabledDefault     string   `koanf:"enabled_default" json:"enabled_default,omitempty" yaml:"enabled_default,omitempty"`
	DefaultDomainID    string   `koanf:"default_domain_id" json:"default_domain_id,omitempty" yaml:"default_domain_id,omitempty"`
	BindDN             string   `koanf:"bind_dn" json:"bind_dn,omitempty" yaml:"bind_dn,omitempty"`
	BindPassword       string   `koanf:"bind_password" json:"bind_password,omitempty" yaml:"bind_password,omitempty"`
	StartTLS           bool     `koanf:"start_tls" json:"start_tls,omitempty" yaml:"start_tls,omitempty"`
	InsecureSkipVerify bool     `koanf:"insecure_skip_verify" json:"insecure_skip_verify,omitempty" yaml:"insecure_skip_verify,omitempty"`
	Timeout            string   `koanf:"timeout" json:"timeout,omitempty" yaml:"timeout,omitempty" jsonschema:"description=Go duration such as 5s"`
	DialAttempts       uint64   `koanf:"dial_attempts" json:"dial_attempts,omitempty" yaml:"dial_attempts,omitempty" jsonschema:"minimum=1"`
	AllowedNames       []string `koanf:"allowed_names" json:"allowed_names,omitempty" yaml:"allowed_names,omitempty"`
}

// MetricsConfig configures the metrics and health endpoint.
type MetricsConfig struct {
	// Addr is the listen address. Empty disables the endpoint.
	Addr string `koanf:"addr" json:"addr,omitempty" yaml:"addr,omitempty"`
}

// APIConfig configures the identity HTTP API served by serve.
type APIConfig struct {
	// Addr is the listen address. Empty disables the API.
	Addr string `koanf:"addr" json:"addr,omitempty" yaml:"addr,omitempty"`
}

// Default returns the built-in configuration.
func Default() Config {
	d := ldap.DefaultConfig()
	return Config{
		Log: LogConfig{Format: "json", Level: "info"},
		Directory: DirectoryConfig{
			Scope:           string(d.Scope),
			UserObjectClass: d.UserObjectClass,
			IDAttribute:     d.IDAttribute,
			NameAttribute:   d.NameAttribute,
			MailAttribute:   d.MailAttribute,
			EnabledDefault:  d.EnabledDefault,
			DefaultDomainID: d.DefaultDomainID,
			Timeout:         d.Timeout.String(),
			DialAttempts:    d.DialAttempts,
		},
		Metrics: MetricsConfig{Addr: "127.0.0.1:9100"},
		API:     APIConfig{Addr: "127.0.0.1:8400"},
	}
}

var (
	logFormats = []string{"json", "text"}
	logLevels  = []string{"debug", "info", "warn", "error"}
)

// Validate checks values the schema cannot express. It does not require a
// database or directory, since not every command uses them.
func (c *Config) Validate() error {
	if !slices.Contains(logFormats, c.Log.Format) {
		return oops.Code("INVALID_CONFIG").With("log.format", c.Log.Format).Errorf("log format must be json or text, got %q", c.Log.Format)
	}
	if !slices.Contains(logLevels, c.Log.Level) {
		return oops.Code("INVALID_CONFIG").With("log.level", c.Log.Level).Errorf("unknown log level %q", c.Log.Level)
	}
	if _, err := c.Database.PoolOptions(); err != nil {
		return err
	}
	if c.Directory.URL != "" {
		if _, err := c.Directory.LDAP(); err != nil {
			return err
		}
	}
	return nil
}

// PoolOptions converts the database settings for store.OpenPool.
func (d DatabaseConfig) PoolOptions() (store.PoolOptions, error) {
	connectTimeout, err := parseDuration("database.connect_timeout", d.ConnectTimeout)
	if err != nil {
		return store.PoolOptions{}, err
	}
	lifetime, err := parseDuration("database.max_conn_lifetime", d.MaxConnLifetime)
	if err != nil {
		return store.PoolOptions{}, err
	}
	return store.PoolOptions{
		MaxConns:        d.MaxConns,
		MinConns:        d.MinConns,
		MaxConnLifetime: lifetime,
		ConnectTimeout:  connectTimeout,
	}, nil
}

// LDAP converts the directory settings and validates them.
func (d DirectoryConfig) LDAP() (ldap.Config, error) {
	timeout, err := parseDuration("directory.timeout", d.Timeout)
	if err != nil {
		return ldap.Config{}, err
	}
	cfg := ldap.Config{
		URL:                d.URL,
		UserTreeDN:         d.UserTreeDN,
		Scope:              ldap.Scope(d.Scope),
		UserObjectClass:    d.UserObjectClass,
		IDAttribute:        d.IDAttribute,
		NameAttribute:      d.NameAttribute,
		MailAttribute:      d.MailAttribute,
		EnabledAttribute:   d.EnabledAttribute,
		EnabledMask:        d.EnabledMask,
		EnabledInvert:      d.EnabledInvert,
		EnabledDefault:     d.EnabledDefault,
		DefaultDomainID:    d.DefaultDomainID,
		BindDN:             d.BindDN,
		BindPassword:       d.BindPassword,
		StartTLS:           d.StartTLS,
		InsecureSkipVerify: d.InsecureSkipVerify,
		Timeout:            timeout,
		DialAttempts:       d.DialAttempts,
		AllowedNames:       d.AllowedNames,
	}
	if err := cfg.Validate(); err != nil {
		return ldap.Config{}, err
	}
	return cfg, nil
}

func parseDuration(key, value string) (time.Duration, error) {
	if value == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, oops.Code("INVALID_CONFIG").With(key, value).Wrap(err)
	}
	if d < 0 {
		return 0, oops.Code("INVALID_CONFIG").With(key, value).Errorf("%s must not be negative", key)
	}
	return d, nil
}
