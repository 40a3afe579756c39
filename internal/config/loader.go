package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

const (
	// ConfigFileName is the base name for configuration files (without extension).
	ConfigFileName = "scontrino"

	// EnvPrefix is the prefix for environment variables.
	EnvPrefix = "SCONTRINO"
)

// Loader handles loading configuration from various sources.
type Loader struct {
	v *viper.Viper
}

// NewLoader creates a loader on the global viper instance, which is the
// one cobra flags are bound to.
func NewLoader() *Loader {
	return &Loader{v: viper.GetViper()}
}

// NewLoaderWith creates a loader on a private viper instance.
func NewLoaderWith(v *viper.Viper) *Loader {
	return &Loader{v: v}
}

// Load reads defaults, the config file (if any) and the environment, and
// validates the result.
func (l *Loader) Load() (*Config, error) {
	return l.LoadWithFile("")
}

// LoadWithFile is Load with an explicit configuration file. An empty
// path searches the standard locations.
func (l *Loader) LoadWithFile(configFile string) (*Config, error) {
	cfg, err := l.LoadWithFileWithoutValidation(configFile)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

// LoadWithFileWithoutValidation loads the configuration without validating it.
func (l *Loader) LoadWithFileWithoutValidation(configFile string) (*Config, error) {
	l.setupEnvironmentVariables()
	l.setDefaults()

	if configFile != "" {
		if _, err := os.Stat(configFile); os.IsNotExist(err) {
			return nil, fmt.Errorf("config file does not exist: %s", configFile)
		}
		l.v.SetConfigFile(configFile)
		if err := l.v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("error reading config file %s: %w", configFile, err)
		}
	} else {
		l.v.SetConfigName(ConfigFileName)
		l.v.SetConfigType("yaml")
		l.addConfigPaths()
		if err := l.v.ReadInConfig(); err != nil {
			// a missing config file is fine, defaults and env vars apply
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("error reading config file: %w", err)
			}
		}
	}

	var config Config
	if err := l.v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	return &config, nil
}

// Get returns a value from the configuration.
func (l *Loader) Get(key string) any {
	return l.v.Get(key)
}

// Set sets a value in the configuration.
func (l *Loader) Set(key string, value any) {
	l.v.Set(key, value)
}

// GetConfigFileUsed returns the path of the config file used.
func (l *Loader) GetConfigFileUsed() string {
	return l.v.ConfigFileUsed()
}

// GetViper returns the underlying viper instance for advanced usage.
func (l *Loader) GetViper() *viper.Viper {
	return l.v
}

// addConfigPaths adds the standard configuration search paths.
func (l *Loader) addConfigPaths() {
	for _, p := range GetConfigSearchPaths() {
		l.v.AddConfigPath(p)
	}
}

// setupEnvironmentVariables configures environment variable handling.
func (l *Loader) setupEnvironmentVariables() {
	l.v.SetEnvPrefix(EnvPrefix)
	l.v.AutomaticEnv()
	// pipeline.min_fields -> SCONTRINO_PIPELINE_MIN_FIELDS
	l.v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
}

// setDefaults sets default values for all configuration options. Every key
// needs a default so that AutomaticEnv can resolve it during Unmarshal.
func (l *Loader) setDefaults() {
	d := DefaultConfig()

	l.v.SetDefault("log_level", d.LogLevel)
	l.v.SetDefault("verbose", d.Verbose)

	l.v.SetDefault("pipeline.clip_percent", d.Pipeline.ClipPercent)
	l.v.SetDefault("pipeline.working_size", d.Pipeline.WorkingSize)
	l.v.SetDefault("pipeline.blur_sigma", d.Pipeline.BlurSigma)
	l.v.SetDefault("pipeline.approx_epsilon", d.Pipeline.ApproxEpsilon)
	l.v.SetDefault("pipeline.corner_separation", d.Pipeline.CornerSeparation)
	l.v.SetDefault("pipeline.min_area_ratio", d.Pipeline.MinAreaRatio)
	l.v.SetDefault("pipeline.min_fields", d.Pipeline.MinFields)
	l.v.SetDefault("pipeline.fuzzy_threshold", d.Pipeline.FuzzyThreshold)
	l.v.SetDefault("pipeline.department_policy", d.Pipeline.DepartmentPolicy)
	l.v.SetDefault("pipeline.debug_dir", d.Pipeline.DebugDir)

	l.v.SetDefault("recognizer.backend", d.Recognizer.Backend)
	l.v.SetDefault("recognizer.language", d.Recognizer.Language)
	l.v.SetDefault("recognizer.token_mode", d.Recognizer.TokenMode)
	l.v.SetDefault("recognizer.max_concurrent", d.Recognizer.MaxConcurrent)
	l.v.SetDefault("recognizer.max_pixels", d.Recognizer.MaxPixels)
	l.v.SetDefault("recognizer.whitelist", d.Recognizer.Whitelist)
	l.v.SetDefault("recognizer.tessdata_prefix", d.Recognizer.TessdataPrefix)
	l.v.SetDefault("recognizer.sidecar_path", d.Recognizer.SidecarPath)
	l.v.SetDefault("recognizer.retry_after_sec", d.Recognizer.RetryAfterSec)

	l.v.SetDefault("output.format", d.Output.Format)
	l.v.SetDefault("output.file", d.Output.File)

	l.v.SetDefault("server.host", d.Server.Host)
	l.v.SetDefault("server.port", d.Server.Port)
	l.v.SetDefault("server.cors_origin", d.Server.CORSOrigin)
	l.v.SetDefault("server.max_upload_mb", d.Server.MaxUploadMB)
	l.v.SetDefault("server.timeout_sec", d.Server.TimeoutSec)
	l.v.SetDefault("server.shutdown_timeout", d.Server.ShutdownTimeout)
	l.v.SetDefault("server.rate_limit_per_minute", d.Server.RateLimitPerMinute)
	l.v.SetDefault("server.rate_limit_per_day", d.Server.RateLimitPerDay)

	l.v.SetDefault("cache.enabled", d.Cache.Enabled)
	l.v.SetDefault("cache.path", d.Cache.Path)

	l.v.SetDefault("batch.workers", d.Batch.Workers)
	l.v.SetDefault("batch.recursive", d.Batch.Recursive)
	l.v.SetDefault("batch.include", d.Batch.Include)
	l.v.SetDefault("batch.exclude", d.Batch.Exclude)
	l.v.SetDefault("batch.continue_on_error", d.Batch.ContinueOnError)
	l.v.SetDefault("batch.debounce_ms", d.Batch.DebounceMs)
}

// GetResolvedConfig returns the current resolved configuration for debugging.
func (l *Loader) GetResolvedConfig() map[string]any {
	return l.v.AllSettings()
}

// WriteYAML writes cfg as YAML.
func WriteYAML(w io.Writer, cfg *Config) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(cfg); err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	return enc.Close()
}

// GenerateDefaultConfigFile writes the default configuration to filename
// (scontrino.yaml when empty). An existing file is not overwritten.
func GenerateDefaultConfigFile(filename string) error {
	if filename == "" {
		filename = ConfigFileName + ".yaml"
	}
	f, err := os.OpenFile(filename, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return fmt.Errorf("create config file: %w", err)
	}
	cfg := DefaultConfig()
	if err := WriteYAML(f, &cfg); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

// GetConfigSearchPaths returns the paths where configuration files are searched.
func GetConfigSearchPaths() []string {
	paths := []string{"."}

	if configDir, exists := os.LookupEnv("XDG_CONFIG_HOME"); exists {
		paths = append(paths, filepath.Join(configDir, "scontrino"))
	} else if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".config", "scontrino"))
	}

	paths = append(paths, "/etc/scontrino")
	return paths
}
