package cliconfig

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	toml "github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v2"
)

// FileConfig mirrors the file-settable part of Config. Durations are
// strings so files stay readable.
type FileConfig struct {
	TimeZone           string  `toml:"time_zone" yaml:"time_zone"`
	Transport          string  `toml:"transport" yaml:"transport"`
	CatalogDriver      string  `toml:"catalog_driver" yaml:"catalog_driver"`
	CatalogDSN         string  `toml:"catalog_dsn" yaml:"catalog_dsn"`
	LogLevel           string  `toml:"log_level" yaml:"log_level"`
	LogFormat          string  `toml:"log_format" yaml:"log_format"`
	SummaryPath        string  `toml:"summary_path" yaml:"summary_path"`
	ListenAddr         string  `toml:"listen_addr" yaml:"listen_addr"`
	RequestsPerSecond  float64 `toml:"requests_per_second" yaml:"requests_per_second"`
	Burst              int     `toml:"burst" yaml:"burst"`
	Debounce           string  `toml:"debounce" yaml:"debounce"`
	RoundingSuppressed *bool   `toml:"rounding_suppressed" yaml:"rounding_suppressed"`
	Verbose            *bool   `toml:"verbose" yaml:"verbose"`
}

// LoadFileConfig reads and parses a config file. Files ending in .yaml or
// .yml are YAML, anything else is TOML.
func LoadFileConfig(path string) (FileConfig, error) {
	var fc FileConfig
	b, err := os.ReadFile(path)
	if err != nil {
		return fc, err
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.UnmarshalStrict(b, &fc)
	default:
		err = toml.Unmarshal(b, &fc)
	}
	if err != nil {
		return fc, fmt.Errorf("parse %s: %w", path, err)
	}
	return fc, nil
}

// DefaultConfigPath returns the default configuration file path.
// Returns ~/.aq2rdb/config.toml if user home directory is accessible.
func DefaultConfigPath() string {
	if h, err := os.UserHomeDir(); err == nil {
		return filepath.Join(h, ".aq2rdb", "config.toml")
	}
	return ""
}

// ApplyFileConfig applies configuration from a file to the Config struct.
// It respects flags that have been explicitly set (changed map).
func ApplyFileConfig(cfg *Config, fc FileConfig, changed map[string]bool) error {
	s := newConfigSetter(changed)

	s.setString("time-zone", fc.TimeZone, &cfg.TimeZone)
	s.setString("transport", fc.Transport, &cfg.Transport)
	s.setString("catalog-driver", fc.CatalogDriver, &cfg.CatalogDriver)
	s.setString("catalog-dsn", fc.CatalogDSN, &cfg.CatalogDSN)
	s.setString("log-level", fc.LogLevel, &cfg.LogLevel)
	s.setString("log-format", fc.LogFormat, &cfg.LogFormat)
	s.setString("summary", fc.SummaryPath, &cfg.SummaryPath)
	s.setString("listen", fc.ListenAddr, &cfg.ListenAddr)

	s.setFloat("rps", fc.RequestsPerSecond, &cfg.RequestsPerSecond)
	s.setInt("burst", fc.Burst, &cfg.Burst)

	if err := s.parseDuration("debounce", fc.Debounce, &cfg.DebounceDelay); err != nil {
		return err
	}

	s.setBool("rounding-suppressed", fc.RoundingSuppressed, &cfg.RoundingSuppressed)
	s.setBool("verbose", fc.Verbose, &cfg.Verbose)

	return nil
}

// FileExists checks if a file exists at the given path.
func FileExists(p string) bool {
	_, err := os.Stat(p)
	return err == nil
}
