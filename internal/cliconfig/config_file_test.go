package cliconfig

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestApplyFileConfig(t *testing.T) {
	trueVal := true
	falseVal := false

	tests := []struct {
		name       string
		fileConfig FileConfig
		changed    map[string]bool
		initial    Config
		expected   Config
		wantErr    bool
	}{
		{
			name: "applies all valid config values",
			fileConfig: FileConfig{
				TimeZone:           "EST",
				Transport:          "E",
				CatalogDriver:      "pgx",
				CatalogDSN:         "postgres://nwis@localhost/catalog",
				LogLevel:           "debug",
				LogFormat:          "json",
				SummaryPath:        "/var/run/aq2rdb.json",
				ListenAddr:         ":9090",
				RequestsPerSecond:  5,
				Burst:              9,
				Debounce:           "1s",
				RoundingSuppressed: &trueVal,
				Verbose:            &trueVal,
			},
			changed: map[string]bool{},
			expected: Config{
				TimeZone:           "EST",
				Transport:          "E",
				CatalogDriver:      "pgx",
				CatalogDSN:         "postgres://nwis@localhost/catalog",
				LogLevel:           "debug",
				LogFormat:          "json",
				SummaryPath:        "/var/run/aq2rdb.json",
				ListenAddr:         ":9090",
				RequestsPerSecond:  5,
				Burst:              9,
				DebounceDelay:      time.Second,
				RoundingSuppressed: true,
				Verbose:            true,
			},
		},
		{
			name: "respects changed flags",
			fileConfig: FileConfig{
				TimeZone: "EST",
				LogLevel: "warn",
			},
			changed: map[string]bool{"time-zone": true},
			initial: Config{
				TimeZone: "UTC",
				LogLevel: "info",
			},
			expected: Config{
				TimeZone: "UTC", // unchanged because flag was set
				LogLevel: "warn",
			},
		},
		{
			name:       "false bools override",
			fileConfig: FileConfig{Verbose: &falseVal},
			changed:    map[string]bool{},
			initial:    Config{Verbose: true},
			expected:   Config{Verbose: false},
		},
		{
			name:       "ignores non-positive numbers",
			fileConfig: FileConfig{RequestsPerSecond: -1, Burst: 0},
			changed:    map[string]bool{},
			initial:    Config{RequestsPerSecond: 10, Burst: 20},
			expected:   Config{RequestsPerSecond: 10, Burst: 20},
		},
		{
			name:       "returns error for invalid duration",
			fileConfig: FileConfig{Debounce: "soon"},
			changed:    map[string]bool{},
			wantErr:    true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := tt.initial
			err := ApplyFileConfig(&cfg, tt.fileConfig, tt.changed)

			if tt.wantErr {
				if err == nil {
					t.Error("ApplyFileConfig() expected error but got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("ApplyFileConfig() unexpected error: %v", err)
			}
			if cfg != tt.expected {
				t.Errorf("ApplyFileConfig() = %+v, want %+v", cfg, tt.expected)
			}
		})
	}
}

func TestLoadFileConfig(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.toml")

	tomlContent := `
time_zone = "EST"
catalog_dsn = "/tmp/catalog.db"
requests_per_second = 2.5
burst = 4
debounce = "250ms"
verbose = true
`

	if err := os.WriteFile(configPath, []byte(tomlContent), 0644); err != nil {
		t.Fatalf("Failed to create test config file: %v", err)
	}

	fc, err := LoadFileConfig(configPath)
	if err != nil {
		t.Fatalf("LoadFileConfig() error = %v", err)
	}

	if fc.TimeZone != "EST" {
		t.Errorf("TimeZone = %v, want EST", fc.TimeZone)
	}
	if fc.CatalogDSN != "/tmp/catalog.db" {
		t.Errorf("CatalogDSN = %v, want /tmp/catalog.db", fc.CatalogDSN)
	}
	if fc.RequestsPerSecond != 2.5 {
		t.Errorf("RequestsPerSecond = %v, want 2.5", fc.RequestsPerSecond)
	}
	if fc.Burst != 4 {
		t.Errorf("Burst = %v, want 4", fc.Burst)
	}
	if fc.Debounce != "250ms" {
		t.Errorf("Debounce = %v, want 250ms", fc.Debounce)
	}
	if fc.Verbose == nil || !*fc.Verbose {
		t.Errorf("Verbose = %v, want true", fc.Verbose)
	}
	if fc.RoundingSuppressed != nil {
		t.Errorf("RoundingSuppressed = %v, want nil", fc.RoundingSuppressed)
	}
}

func TestLoadFileConfig_YAML(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	yamlContent := `
time_zone: CST
catalog_driver: pgx
log_format: json
rounding_suppressed: true
`

	if err := os.WriteFile(configPath, []byte(yamlContent), 0644); err != nil {
		t.Fatalf("Failed to create test config file: %v", err)
	}

	fc, err := LoadFileConfig(configPath)
	if err != nil {
		t.Fatalf("LoadFileConfig() error = %v", err)
	}
	if fc.TimeZone != "CST" || fc.CatalogDriver != "pgx" || fc.LogFormat != "json" {
		t.Errorf("LoadFileConfig() = %+v", fc)
	}
	if fc.RoundingSuppressed == nil || !*fc.RoundingSuppressed {
		t.Errorf("RoundingSuppressed = %v, want true", fc.RoundingSuppressed)
	}
}

func TestLoadFileConfig_UnknownYAMLKey(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config.yml")
	if err := os.WriteFile(configPath, []byte("time_zone: EST\nnode_home: /tmp\n"), 0644); err != nil {
		t.Fatalf("Failed to create test config file: %v", err)
	}

	if _, err := LoadFileConfig(configPath); err == nil {
		t.Error("LoadFileConfig() expected error for unknown key")
	}
}

func TestLoadFileConfig_InvalidFile(t *testing.T) {
	_, err := LoadFileConfig("/nonexistent/path/config.toml")
	if err == nil {
		t.Error("LoadFileConfig() expected error for nonexistent file")
	}
}

func TestLoadFileConfig_InvalidTOML(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "invalid.toml")

	invalidContent := `
time_zone = "EST"
this is not valid toml
`

	if err := os.WriteFile(configPath, []byte(invalidContent), 0644); err != nil {
		t.Fatalf("Failed to create test config file: %v", err)
	}

	_, err := LoadFileConfig(configPath)
	if err == nil {
		t.Error("LoadFileConfig() expected error for invalid TOML")
	}
}

func TestDefaultConfigPath(t *testing.T) {
	path := DefaultConfigPath()

	if path != "" && !strings.Contains(path, ".aq2rdb") {
		t.Errorf("DefaultConfigPath() = %v, should contain .aq2rdb", path)
	}
}

func TestFileExists(t *testing.T) {
	tmpDir := t.TempDir()
	existingFile := filepath.Join(tmpDir, "exists.txt")

	if err := os.WriteFile(existingFile, []byte("test"), 0644); err != nil {
		t.Fatalf("Failed to create test file: %v", err)
	}

	if !FileExists(existingFile) {
		t.Error("FileExists() = false, want true for existing file")
	}

	if FileExists(filepath.Join(tmpDir, "nonexistent.txt")) {
		t.Error("FileExists() = true, want false for nonexistent file")
	}
}
