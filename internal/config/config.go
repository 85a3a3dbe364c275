// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

// Package config loads pgcreds settings from defaults, a YAML file, and
// command-line flags, in that order of precedence (flags win).
package config

import (
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/samber/oops"
	"github.com/spf13/pflag"

	"github.com/holomush/pgcreds/internal/database"
	"github.com/holomush/pgcreds/internal/logging"
)

// Error codes returned by Load.
const (
	CodeConfigInvalid = "CONFIG_INVALID"
	CodeConfigRead    = "CONFIG_READ_FAILED"
)

// Config is the full pgcreds configuration.
type Config struct {
	ServiceFile string        `koanf:"service_file" json:"service_file,omitempty" jsonschema:"description=Path to the service file (default ~/.pg_service.conf)"`
	PassFile    string        `koanf:"pass_file" json:"pass_file,omitempty" jsonschema:"description=Path to the password file (default ~/.pgpass)"`
	LogFormat   string        `koanf:"log_format" json:"log_format,omitempty" jsonschema:"enum=json,enum=text"`
	LogLevel    string        `koanf:"log_level" json:"log_level,omitempty" jsonschema:"enum=debug,enum=info,enum=warn,enum=error"`
	Scheme      string        `koanf:"scheme" json:"scheme,omitempty" jsonschema:"enum=postgres,enum=postgresql"`
	Connect     ConnectConfig `koanf:"connect" json:"connect,omitempty"`
	Probe       ProbeConfig   `koanf:"probe" json:"probe,omitempty"`
}

// ConnectConfig tunes database connections.
type ConnectConfig struct {
	Attempts         uint64 `koanf:"attempts" json:"attempts,omitempty" jsonschema:"minimum=1,maximum=100"`
	Backoff          string `koanf:"backoff" json:"backoff,omitempty" jsonschema:"pattern=^[0-9]+(ns|us|ms|s|m)$"`
	MinServerVersion string `koanf:"min_server_version" json:"min_server_version,omitempty" jsonschema:"description=Semver constraint the server version must satisfy (e.g. >= 14)"`
}

// ProbeConfig configures the probe server.
type ProbeConfig struct {
	Addr     string `koanf:"addr" json:"addr,omitempty"`
	Interval string `koanf:"interval" json:"interval,omitempty" jsonschema:"pattern=^[0-9]+(ms|s|m|h)$"`
}

// Default values.
const (
	DefaultLogFormat     = "json"
	DefaultLogLevel      = "info"
	DefaultProbeAddr     = "127.0.0.1:9187"
	DefaultProbeInterval = "15s"
)

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		LogFormat: DefaultLogFormat,
		LogLevel:  DefaultLogLevel,
		Scheme:    database.DefaultScheme,
		Connect: ConnectConfig{
			Attempts: database.DefaultAttempts,
			Backoff:  database.DefaultBackoff.String(),
		},
		Probe: ProbeConfig{
			Addr:     DefaultProbeAddr,
			Interval: DefaultProbeInterval,
		},
	}
}

func defaultMap() map[string]any {
	d := Default()
	return map[string]any{
		"service_file":               d.ServiceFile,
		"pass_file":                  d.PassFile,
		"log_format":                 d.LogFormat,
		"log_level":                  d.LogLevel,
		"scheme":                     d.Scheme,
		"connect.attempts":           d.Connect.Attempts,
		"connect.backoff":            d.Connect.Backoff,
		"connect.min_server_version": d.Connect.MinServerVersion,
		"probe.addr":                 d.Probe.Addr,
		"probe.interval":             d.Probe.Interval,
	}
}

// FlagKeys maps command-line flag names to config keys. Flags not listed
// here are not configuration.
var FlagKeys = map[string]string{
	"service-file":       "service_file",
	"pass-file":          "pass_file",
	"log-format":         "log_format",
	"log-level":          "log_level",
	"scheme":             "scheme",
	"attempts":           "connect.attempts",
	"backoff":            "connect.backoff",
	"min-server-version": "connect.min_server_version",
	"addr":               "probe.addr",
	"interval":           "probe.interval",
}

// Load builds a Config. path may be empty; a missing file at path is an
// error only when required is true. flags may be nil. Only flags the user
// set override file values.
func Load(path string, required bool, flags *pflag.FlagSet) (*Config, error) {
	k := koanf.New(".")

	for key, val := range defaultMap() {
		if err := k.Set(key, val); err != nil {
			return nil, oops.Code(CodeConfigInvalid).With("key", key).Wrap(err)
		}
	}

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, fs.ErrNotExist) && !required:
		case err != nil:
			return nil, oops.Code(CodeConfigRead).With("path", path).Wrap(err)
		default:
			if err := ValidateSchema(data); err != nil {
				return nil, oops.Code(CodeConfigInvalid).With("path", path).Wrap(err)
			}
			if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
				return nil, oops.Code(CodeConfigInvalid).With("path", path).Wrap(err)
			}
		}
	}

	if flags != nil {
		provider := posflag.ProviderWithFlag(flags, ".", k, func(f *pflag.Flag) (string, any) {
			key, ok := FlagKeys[f.Name]
			if !ok {
				return "", nil
			}
			return key, posflag.FlagVal(flags, f)
		})
		if err := k.Load(provider, nil); err != nil {
			return nil, oops.Code(CodeConfigInvalid).With("operation", "load flags").Wrap(err)
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, oops.Code(CodeConfigInvalid).With("operation", "unmarshal").Wrap(err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks values the schema cannot express.
func (c *Config) Validate() error {
	if c.LogFormat != "json" && c.LogFormat != "text" {
		return oops.Code(CodeConfigInvalid).Errorf("log_format must be 'json' or 'text', got %q", c.LogFormat)
	}
	if _, err := c.Level(); err != nil {
		return err
	}
	if c.Scheme != "postgres" && c.Scheme != "postgresql" {
		return oops.Code(CodeConfigInvalid).Errorf("scheme must be 'postgres' or 'postgresql', got %q", c.Scheme)
	}
	if c.Connect.Attempts == 0 {
		return oops.Code(CodeConfigInvalid).Errorf("connect.attempts must be at least 1")
	}
	if _, err := c.Backoff(); err != nil {
		return err
	}
	if _, err := c.ProbeInterval(); err != nil {
		return err
	}
	return nil
}

// Level returns log_level as a slog level.
func (c *Config) Level() (slog.Level, error) {
	level, err := logging.ParseLevel(c.LogLevel)
	if err != nil {
		return 0, oops.Code(CodeConfigInvalid).
			With("key", "log_level").
			Errorf("log_level must be debug, info, warn or error, got %q", c.LogLevel)
	}
	return level, nil
}

// Backoff returns connect.backoff as a duration.
func (c *Config) Backoff() (time.Duration, error) {
	return parseDuration("connect.backoff", c.Connect.Backoff)
}

// ProbeInterval returns probe.interval as a duration.
func (c *Config) ProbeInterval() (time.Duration, error) {
	return parseDuration("probe.interval", c.Probe.Interval)
}

// ConnectOptions converts the connect settings for database.Connect.
func (c *Config) ConnectOptions() (database.Options, error) {
	backoff, err := c.Backoff()
	if err != nil {
		return database.Options{}, err
	}
	return database.Options{
		Scheme:   c.Scheme,
		Attempts: c.Connect.Attempts,
		Backoff:  backoff,
	}, nil
}

func parseDuration(key, raw string) (time.Duration, error) {
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, oops.Code(CodeConfigInvalid).With("key", key).Wrap(err)
	}
	if d <= 0 {
		return 0, oops.Code(CodeConfigInvalid).With("key", key).Errorf("%s must be positive, got %s", key, raw)
	}
	return d, nil
}
