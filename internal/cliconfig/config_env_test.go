package cliconfig

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestApplyEnvConfig(t *testing.T) {
	tests := []struct {
		name     string
		envVars  map[string]string
		changed  map[string]bool
		initial  Config
		expected Config
		wantErr  bool
	}{
		{
			name: "applies all valid env vars",
			envVars: map[string]string{
				"AQ2RDB_TIME_ZONE":           "EST",
				"AQ2RDB_CATALOG_DSN":         "/var/lib/aq2rdb/catalog.db",
				"AQ2RDB_REQUESTS_PER_SECOND": "2.5",
				"AQ2RDB_BURST":               "7",
				"AQ2RDB_DEBOUNCE":            "2s",
				"AQ2RDB_VERBOSE":             "true",
			},
			changed: map[string]bool{},
			initial: Config{},
			expected: Config{
				TimeZone:          "EST",
				CatalogDSN:        "/var/lib/aq2rdb/catalog.db",
				RequestsPerSecond: 2.5,
				Burst:             7,
				DebounceDelay:     2 * time.Second,
				Verbose:           true,
			},
		},
		{
			name: "respects changed flags",
			envVars: map[string]string{
				"AQ2RDB_TIME_ZONE": "EST",
				"AQ2RDB_LOG_LEVEL": "debug",
			},
			changed:  map[string]bool{"time-zone": true},
			initial:  Config{TimeZone: "UTC"},
			expected: Config{TimeZone: "UTC", LogLevel: "debug"},
		},
		{
			name:    "returns error for invalid duration",
			envVars: map[string]string{"AQ2RDB_DEBOUNCE": "not-a-duration"},
			changed: map[string]bool{},
			wantErr: true,
		},
		{
			name:    "returns error for invalid int",
			envVars: map[string]string{"AQ2RDB_BURST": "not-a-number"},
			changed: map[string]bool{},
			wantErr: true,
		},
		{
			name:    "returns error for invalid float",
			envVars: map[string]string{"AQ2RDB_REQUESTS_PER_SECOND": "fast"},
			changed: map[string]bool{},
			wantErr: true,
		},
		{
			name:     "handles bool '1' as true",
			envVars:  map[string]string{"AQ2RDB_ROUNDING_SUPPRESSED": "1"},
			changed:  map[string]bool{},
			expected: Config{RoundingSuppressed: true},
		},
		{
			name:     "handles bool 'false' as false",
			envVars:  map[string]string{"AQ2RDB_VERBOSE": "false"},
			changed:  map[string]bool{},
			initial:  Config{Verbose: true},
			expected: Config{Verbose: false},
		},
		{
			name:     "unset bools keep their value",
			envVars:  map[string]string{},
			changed:  map[string]bool{},
			initial:  Config{Verbose: true},
			expected: Config{Verbose: true},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.envVars {
				t.Setenv(k, v)
			}

			cfg := tt.initial
			err := ApplyEnvConfig(&cfg, tt.changed)

			if tt.wantErr {
				if err == nil {
					t.Error("ApplyEnvConfig() expected error but got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("ApplyEnvConfig() unexpected error: %v", err)
			}
			if cfg != tt.expected {
				t.Errorf("ApplyEnvConfig() = %+v, want %+v", cfg, tt.expected)
			}
		})
	}
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	if err := os.WriteFile(path, []byte("AQ2RDB_TEST_DOTENV=from-file\nAQ2RDB_TEST_DOTENV_KEPT=from-file\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("AQ2RDB_TEST_DOTENV_KEPT", "from-env")
	t.Cleanup(func() { os.Unsetenv("AQ2RDB_TEST_DOTENV") })

	if err := LoadDotEnv(path); err != nil {
		t.Fatalf("LoadDotEnv() error = %v", err)
	}
	if got := os.Getenv("AQ2RDB_TEST_DOTENV"); got != "from-file" {
		t.Errorf("AQ2RDB_TEST_DOTENV = %q, want from-file", got)
	}
	if got := os.Getenv("AQ2RDB_TEST_DOTENV_KEPT"); got != "from-env" {
		t.Errorf("AQ2RDB_TEST_DOTENV_KEPT = %q, want from-env", got)
	}

	if err := LoadDotEnv(filepath.Join(dir, "missing.env")); err != nil {
		t.Errorf("LoadDotEnv(missing) error = %v, want nil", err)
	}
}

// Integration test: precedence order (CLI > Env > File)
func TestConfigPrecedence(t *testing.T) {
	trueVal := true

	fileConf := FileConfig{
		TimeZone:    "CST",
		LogLevel:    "warn",
		SummaryPath: "/file/summary.json",
		Verbose:     &trueVal,
	}

	t.Setenv("AQ2RDB_TIME_ZONE", "EST")
	t.Setenv("AQ2RDB_LOG_LEVEL", "debug")

	changed := map[string]bool{"time-zone": true}
	cfg := Config{TimeZone: "UTC"}

	if err := ApplyFileConfig(&cfg, fileConf, changed); err != nil {
		t.Fatalf("ApplyFileConfig failed: %v", err)
	}
	if err := ApplyEnvConfig(&cfg, changed); err != nil {
		t.Fatalf("ApplyEnvConfig failed: %v", err)
	}

	if cfg.TimeZone != "UTC" {
		t.Errorf("TimeZone = %v, want UTC (CLI)", cfg.TimeZone)
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("LogLevel = %v, want debug (env)", cfg.LogLevel)
	}
	if cfg.SummaryPath != "/file/summary.json" {
		t.Errorf("SummaryPath = %v, want /file/summary.json (file)", cfg.SummaryPath)
	}
	if !cfg.Verbose {
		t.Error("Verbose = false, want true (file)")
	}
}
