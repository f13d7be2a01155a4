package cliconfig

import (
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// EnvPrefix is the prefix of every environment variable read by aq2rdb.
const EnvPrefix = "AQ2RDB"

// EnvConfig is the environment-settable part of Config, decoded from
// AQ2RDB_* variables.
type EnvConfig struct {
	TimeZone           string        `envconfig:"TIME_ZONE"`
	Transport          string        `envconfig:"TRANSPORT"`
	CatalogDriver      string        `envconfig:"CATALOG_DRIVER"`
	CatalogDSN         string        `envconfig:"CATALOG_DSN"`
	LogLevel           string        `envconfig:"LOG_LEVEL"`
	LogFormat          string        `envconfig:"LOG_FORMAT"`
	SummaryPath        string        `envconfig:"SUMMARY_PATH"`
	ListenAddr         string        `envconfig:"LISTEN_ADDR"`
	RequestsPerSecond  float64       `envconfig:"REQUESTS_PER_SECOND"`
	Burst              int           `envconfig:"BURST"`
	Debounce           time.Duration `envconfig:"DEBOUNCE"`
	RoundingSuppressed *bool         `envconfig:"ROUNDING_SUPPRESSED"`
	Verbose            *bool         `envconfig:"VERBOSE"`
}

// LoadDotEnv loads variables from the .env file at path when it exists.
// Variables already present in the environment are kept.
func LoadDotEnv(path string) error {
	if !FileExists(path) {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("load %s: %w", path, err)
	}
	return nil
}

// ApplyEnvConfig applies configuration from environment variables (AQ2RDB_*).
// It respects flags that have been explicitly set (changed map).
// Returns error if any environment variable has an invalid format.
func ApplyEnvConfig(cfg *Config, changed map[string]bool) error {
	var ec EnvConfig
	if err := envconfig.Process(EnvPrefix, &ec); err != nil {
		return fmt.Errorf("environment: %w", err)
	}

	s := newConfigSetter(changed)

	s.setString("time-zone", ec.TimeZone, &cfg.TimeZone)
	s.setString("transport", ec.Transport, &cfg.Transport)
	s.setString("catalog-driver", ec.CatalogDriver, &cfg.CatalogDriver)
	s.setString("catalog-dsn", ec.CatalogDSN, &cfg.CatalogDSN)
	s.setString("log-level", ec.LogLevel, &cfg.LogLevel)
	s.setString("log-format", ec.LogFormat, &cfg.LogFormat)
	s.setString("summary", ec.SummaryPath, &cfg.SummaryPath)
	s.setString("listen", ec.ListenAddr, &cfg.ListenAddr)

	s.setFloat("rps", ec.RequestsPerSecond, &cfg.RequestsPerSecond)
	s.setInt("burst", ec.Burst, &cfg.Burst)
	s.setDuration("debounce", ec.Debounce, &cfg.DebounceDelay)

	s.setBool("rounding-suppressed", ec.RoundingSuppressed, &cfg.RoundingSuppressed)
	s.setBool("verbose", ec.Verbose, &cfg.Verbose)

	return nil
}
