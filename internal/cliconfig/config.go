package cliconfig

import (
	"fmt"
	"net"
	"strings"
	"time"

	logadapter "github.com/bft-labs/aq2rdb/internal/adapters/log"
	"github.com/bft-labs/aq2rdb/internal/domain"
	"github.com/bft-labs/aq2rdb/internal/resolve"
)

// Catalog drivers.
const (
	DriverSQLite   = "sqlite3"
	DriverPostgres = "pgx"
)

// Log formats.
const (
	LogFormatConsole = "console"
	LogFormatJSON    = "json"
)

// DefaultListenAddr is the default address of the HTTP front end.
const DefaultListenAddr = "127.0.0.1:8081"

// Config holds CLI configuration for aq2rdb.
type Config struct {
	// Request fields, set from flags only.
	Datatype  string
	Agency    string
	Station   string
	DDID      string
	Parameter string
	Location  string
	Stat      string
	Begin     string
	End       string
	Title     string

	ControlFile string
	OutputPath  string
	TimeZone    string
	Transport   string

	WaterYear          bool
	RoundingSuppressed bool
	Verbose            bool
	CombineDateTime    bool
	MultiFile          bool
	Hydra              bool

	CatalogDriver string
	CatalogDSN    string

	LogLevel    string
	LogFormat   string
	SummaryPath string

	ListenAddr        string
	RequestsPerSecond float64
	Burst             int
	DebounceDelay     time.Duration
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() Config {
	return Config{
		TimeZone:          domain.DefaultTimeZone,
		CatalogDriver:     DriverSQLite,
		LogLevel:          "info",
		LogFormat:         LogFormatConsole,
		ListenAddr:        DefaultListenAddr,
		RequestsPerSecond: 10,
		Burst:             20,
		DebounceDelay:     500 * time.Millisecond,
	}
}

// Validate checks the configuration for errors and normalizes values.
func (c *Config) Validate() error {
	c.LogLevel = strings.ToLower(strings.TrimSpace(c.LogLevel))
	if _, err := logadapter.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("%w: log-level: %v", domain.ErrConfiguration, err)
	}

	c.LogFormat = strings.ToLower(strings.TrimSpace(c.LogFormat))
	if c.LogFormat != LogFormatConsole && c.LogFormat != LogFormatJSON {
		return fmt.Errorf("%w: log-format must be %s or %s, got %q",
			domain.ErrConfiguration, LogFormatConsole, LogFormatJSON, c.LogFormat)
	}

	if c.CatalogDriver != DriverSQLite && c.CatalogDriver != DriverPostgres {
		return fmt.Errorf("%w: catalog-driver must be %s or %s, got %q",
			domain.ErrConfiguration, DriverSQLite, DriverPostgres, c.CatalogDriver)
	}

	if _, _, err := net.SplitHostPort(c.ListenAddr); err != nil {
		return fmt.Errorf("%w: listen address %q: %v", domain.ErrConfiguration, c.ListenAddr, err)
	}
	if c.RequestsPerSecond <= 0 {
		return fmt.Errorf("%w: requests-per-second must be positive", domain.ErrConfiguration)
	}
	if c.Burst <= 0 {
		return fmt.Errorf("%w: burst must be positive", domain.ErrConfiguration)
	}
	if c.DebounceDelay <= 0 {
		return fmt.Errorf("%w: debounce must be positive", domain.ErrConfiguration)
	}

	if c.TimeZone == "" {
		c.TimeZone = domain.DefaultTimeZone
	}
	return nil
}

// RawRequest returns the single request given on the command line.
func (c Config) RawRequest() domain.RawRequest {
	return domain.RawRequest{
		Datatype:  c.Datatype,
		Agency:    c.Agency,
		Station:   c.Station,
		DDID:      c.DDID,
		Parameter: c.Parameter,
		Location:  c.Location,
		Stat:      c.Stat,
		Begin:     c.Begin,
		End:       c.End,
		Transport: c.Transport,
		Title:     c.Title,
	}
}

// Flags returns the retrieval flags.
func (c Config) Flags() domain.Flags {
	return domain.Flags{
		WaterYear:          c.WaterYear,
		RoundingSuppressed: c.RoundingSuppressed,
		Verbose:            c.Verbose,
		CombineDateTime:    c.CombineDateTime,
		Hydra:              c.Hydra,
		MultiFile:          c.MultiFile,
	}
}

// ResolveOptions returns the run-wide resolution options.
func (c Config) ResolveOptions() resolve.Options {
	return resolve.Options{
		OutputPath: c.OutputPath,
		Flags:      c.Flags(),
		TimeZone:   c.TimeZone,
	}
}

// configSetter helps apply configuration values while respecting flag precedence.
// It only applies values if the corresponding flag hasn't been explicitly set.
type configSetter struct {
	changed map[string]bool
}

// newConfigSetter creates a new setter with the given changed flags map.
func newConfigSetter(changed map[string]bool) *configSetter {
	return &configSetter{changed: changed}
}

// setString sets a string value if not empty and flag not changed.
func (s *configSetter) setString(flag, value string, dst *string) {
	if value == "" || s.changed[flag] {
		return
	}
	*dst = value
}

// setInt sets an int value if positive and flag not changed.
func (s *configSetter) setInt(flag string, value int, dst *int) {
	if value <= 0 || s.changed[flag] {
		return
	}
	*dst = value
}

// setFloat sets a float64 value if positive and flag not changed.
func (s *configSetter) setFloat(flag string, value float64, dst *float64) {
	if value <= 0 || s.changed[flag] {
		return
	}
	*dst = value
}

// setDuration sets a positive duration if flag not changed.
func (s *configSetter) setDuration(flag string, value time.Duration, dst *time.Duration) {
	if value <= 0 || s.changed[flag] {
		return
	}
	*dst = value
}

// parseDuration parses and sets a duration from string if valid and flag not changed.
func (s *configSetter) parseDuration(flag, value string, dst *time.Duration) error {
	if value == "" || s.changed[flag] {
		return nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return fmt.Errorf("parse %s: %w", flag, err)
	}
	*dst = d
	return nil
}

// setBool sets a bool value from a pointer if not nil and flag not changed.
func (s *configSetter) setBool(flag string, value *bool, dst *bool) {
	if value == nil || s.changed[flag] {
		return
	}
	*dst = *value
}
