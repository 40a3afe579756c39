package config

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

func newTestLoader() *Loader { return NewLoaderWith(viper.New()) }

// TestNewLoader tests loader creation.
func TestNewLoader(t *testing.T) {
	loader := NewLoader()
	if loader == nil || loader.v == nil {
		t.Fatal("NewLoader() returned an unusable loader")
	}
	if loader.GetViper() != viper.GetViper() {
		t.Error("NewLoader should use the global viper instance")
	}
}

// TestLoadWithNoConfigFile tests loading with no config file present.
func TestLoadWithNoConfigFile(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	cfg, err := newTestLoader().Load()
	if err != nil {
		t.Fatalf("Load() unexpected error: %v", err)
	}
	if cfg.LogLevel != infoLevel {
		t.Errorf("Expected default log level %q, got %q", infoLevel, cfg.LogLevel)
	}
	if cfg.Pipeline.MinFields != 6 {
		t.Errorf("Expected default min fields 6, got %d", cfg.Pipeline.MinFields)
	}
}

// TestLoadWithValidYAMLFile tests loading from a valid YAML file.
func TestLoadWithValidYAMLFile(t *testing.T) {
	configFile := filepath.Join(t.TempDir(), "scontrino.yaml")
	yamlContent := `
log_level: debug
pipeline:
  min_fields: 4
  department_policy: keep
recognizer:
  backend: sidecar
  sidecar_path: scan.tokens
server:
  port: 9090
batch:
  include: ["*.jpg", "*.heic"]
`
	if err := os.WriteFile(configFile, []byte(yamlContent), 0o644); err != nil {
		t.Fatal(err)
	}

	loader := newTestLoader()
	cfg, err := loader.LoadWithFile(configFile)
	if err != nil {
		t.Fatalf("LoadWithFile() unexpected error: %v", err)
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("Expected log level debug, got %q", cfg.LogLevel)
	}
	if cfg.Pipeline.MinFields != 4 || cfg.Pipeline.DepartmentPolicy != "keep" {
		t.Errorf("Unexpected pipeline config: %+v", cfg.Pipeline)
	}
	if cfg.Pipeline.WorkingSize != 500 {
		t.Errorf("Unset keys should keep defaults, got working size %d", cfg.Pipeline.WorkingSize)
	}
	if cfg.Recognizer.Backend != "sidecar" || cfg.Server.Port != 9090 {
		t.Errorf("Unexpected recognizer/server config: %+v %+v", cfg.Recognizer, cfg.Server)
	}
	if len(cfg.Batch.Include) != 2 {
		t.Errorf("Expected two include patterns, got %v", cfg.Batch.Include)
	}
	if loader.GetConfigFileUsed() != configFile {
		t.Errorf("Expected config file %q, got %q", configFile, loader.GetConfigFileUsed())
	}
}

// TestLoadWithSearchPath finds scontrino.yaml in the working directory.
func TestLoadWithSearchPath(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	if err := os.WriteFile(filepath.Join(dir, "scontrino.yaml"), []byte("output:\n  format: json\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err := newTestLoader().Load()
	if err != nil {
		t.Fatalf("Load() unexpected error: %v", err)
	}
	if cfg.Output.Format != "json" {
		t.Errorf("Expected json format, got %q", cfg.Output.Format)
	}
}

// TestLoadWithInvalidYAMLFile tests loading a malformed file.
func TestLoadWithInvalidYAMLFile(t *testing.T) {
	configFile := filepath.Join(t.TempDir(), "scontrino.yaml")
	if err := os.WriteFile(configFile, []byte("pipeline: [unclosed"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := newTestLoader().LoadWithFile(configFile); err == nil {
		t.Error("Expected error for invalid YAML")
	}
}

// TestLoadWithNonExistentFile tests loading a missing explicit file.
func TestLoadWithNonExistentFile(t *testing.T) {
	_, err := newTestLoader().LoadWithFile(filepath.Join(t.TempDir(), "missing.yaml"))
	if err == nil || !strings.Contains(err.Error(), "does not exist") {
		t.Errorf("Expected missing file error, got %v", err)
	}
}

// TestLoadWithValidationFailure tests that invalid values are rejected
// by Load but accepted by the non-validating variant.
func TestLoadWithValidationFailure(t *testing.T) {
	configFile := filepath.Join(t.TempDir(), "scontrino.yaml")
	if err := os.WriteFile(configFile, []byte("log_level: chatty\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := newTestLoader().LoadWithFile(configFile); err == nil {
		t.Error("Expected validation error")
	}
	cfg, err := newTestLoader().LoadWithFileWithoutValidation(configFile)
	if err != nil {
		t.Fatalf("LoadWithFileWithoutValidation() unexpected error: %v", err)
	}
	if cfg.LogLevel != "chatty" {
		t.Errorf("Expected raw log level, got %q", cfg.LogLevel)
	}
}

// TestEnvironmentVariableOverride tests SCONTRINO_ variables.
func TestEnvironmentVariableOverride(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("SCONTRINO_LOG_LEVEL", "warn")
	t.Setenv("SCONTRINO_PIPELINE_MIN_FIELDS", "3")
	t.Setenv("SCONTRINO_RECOGNIZER_TOKEN_MODE", "word")
	t.Setenv("SCONTRINO_CACHE_ENABLED", "true")

	cfg, err := newTestLoader().Load()
	if err != nil {
		t.Fatalf("Load() unexpected error: %v", err)
	}
	if cfg.LogLevel != "warn" {
		t.Errorf("Expected warn, got %q", cfg.LogLevel)
	}
	if cfg.Pipeline.MinFields != 3 {
		t.Errorf("Expected min fields 3, got %d", cfg.Pipeline.MinFields)
	}
	if cfg.Recognizer.TokenMode != "word" {
		t.Errorf("Expected word token mode, got %q", cfg.Recognizer.TokenMode)
	}
	if !cfg.Cache.Enabled {
		t.Error("Expected cache enabled from environment")
	}
}

// TestGetSetConfigValues tests direct access to values.
func TestGetSetConfigValues(t *testing.T) {
	loader := newTestLoader()
	loader.Set("output.format", "csv")
	if got := loader.Get("output.format"); got != "csv" {
		t.Errorf("Expected csv, got %v", got)
	}
	cfg, err := loader.LoadWithFileWithoutValidation("")
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Output.Format != "csv" {
		t.Errorf("Set value should override defaults, got %q", cfg.Output.Format)
	}
	if len(loader.GetResolvedConfig()) == 0 {
		t.Error("Resolved config should not be empty")
	}
}

// TestGenerateDefaultConfigFile writes and re-reads the default file.
func TestGenerateDefaultConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scontrino.yaml")
	if err := GenerateDefaultConfigFile(path); err != nil {
		t.Fatalf("GenerateDefaultConfigFile() unexpected error: %v", err)
	}
	if err := GenerateDefaultConfigFile(path); err == nil {
		t.Error("Existing config file should not be overwritten")
	}

	cfg, err := newTestLoader().LoadWithFile(path)
	if err != nil {
		t.Fatalf("Generated file should load: %v", err)
	}
	def := DefaultConfig()
	if cfg.Fingerprint() != def.Fingerprint() {
		t.Error("Generated file should round-trip the defaults")
	}
}

// TestWriteYAML checks the YAML keys follow the struct tags.
func TestWriteYAML(t *testing.T) {
	var buf bytes.Buffer
	cfg := DefaultConfig()
	if err := WriteYAML(&buf, &cfg); err != nil {
		t.Fatal(err)
	}
	var raw map[string]any
	if err := yaml.Unmarshal(buf.Bytes(), &raw); err != nil {
		t.Fatal(err)
	}
	for _, key := range []string{"log_level", "pipeline", "recognizer", "output", "server", "cache", "batch"} {
		if _, ok := raw[key]; !ok {
			t.Errorf("YAML output is missing %q", key)
		}
	}
}

// TestGetConfigSearchPaths checks the XDG location is searched.
func TestGetConfigSearchPaths(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/xdg")
	paths := GetConfigSearchPaths()
	if paths[0] != "." {
		t.Errorf("Expected current directory first, got %v", paths)
	}
	if !contains(paths, filepath.Join("/xdg", "scontrino")) {
		t.Errorf("Expected XDG path in %v", paths)
	}
	if paths[len(paths)-1] != "/etc/scontrino" {
		t.Errorf("Expected /etc/scontrino last, got %v", paths)
	}
}
