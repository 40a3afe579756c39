//nolint:lll
package config

// Config represents the complete configuration for scontrino. It covers
// every command (scan, parse, batch, watch, serve) and is loaded from
// configuration files, environment variables and command-line flags.
type Config struct {
	// Global settings
	LogLevel string `mapstructure:"log_level" yaml:"log_level" json:"log_level"`
	Verbose  bool   `mapstructure:"verbose" yaml:"verbose" json:"verbose"`

	Pipeline   PipelineConfig   `mapstructure:"pipeline" yaml:"pipeline" json:"pipeline"`
	Recognizer RecognizerConfig `mapstructure:"recognizer" yaml:"recognizer" json:"recognizer"`
	Output     OutputConfig     `mapstructure:"output" yaml:"output" json:"output"`

	// Server configuration (for serve command)
	Server ServerConfig `mapstructure:"server" yaml:"server" json:"server"`

	Cache CacheConfig `mapstructure:"cache" yaml:"cache" json:"cache"`

	// Batch and watch configuration
	Batch BatchConfig `mapstructure:"batch" yaml:"batch" json:"batch"`
}

// PipelineConfig contains image processing and parsing settings.
type PipelineConfig struct {
	ClipPercent      float64 `mapstructure:"clip_percent" yaml:"clip_percent" json:"clip_percent"`
	WorkingSize      int     `mapstructure:"working_size" yaml:"working_size" json:"working_size"`
	BlurSigma        float64 `mapstructure:"blur_sigma" yaml:"blur_sigma" json:"blur_sigma"`
	ApproxEpsilon    float64 `mapstructure:"approx_epsilon" yaml:"approx_epsilon" json:"approx_epsilon"`
	CornerSeparation float64 `mapstructure:"corner_separation" yaml:"corner_separation" json:"corner_separation"`
	MinAreaRatio     float64 `mapstructure:"min_area_ratio" yaml:"min_area_ratio" json:"min_area_ratio"`
	MinFields        int     `mapstructure:"min_fields" yaml:"min_fields" json:"min_fields"`
	FuzzyThreshold   float64 `mapstructure:"fuzzy_threshold" yaml:"fuzzy_threshold" json:"fuzzy_threshold"`
	DepartmentPolicy string  `mapstructure:"department_policy" yaml:"department_policy" json:"department_policy"`
	DebugDir         string  `mapstructure:"debug_dir" yaml:"debug_dir" json:"debug_dir"`
}

// RecognizerConfig contains text recognition settings.
type RecognizerConfig struct {
	Backend        string `mapstructure:"backend" yaml:"backend" json:"backend"`
	Language       string `mapstructure:"language" yaml:"language" json:"language"`
	TokenMode      string `mapstructure:"token_mode" yaml:"token_mode" json:"token_mode"`
	MaxConcurrent  int    `mapstructure:"max_concurrent" yaml:"max_concurrent" json:"max_concurrent"`
	MaxPixels      int    `mapstructure:"max_pixels" yaml:"max_pixels" json:"max_pixels"`
	Whitelist      string `mapstructure:"whitelist" yaml:"whitelist" json:"whitelist"`
	TessdataPrefix string `mapstructure:"tessdata_prefix" yaml:"tessdata_prefix" json:"tessdata_prefix"`
	SidecarPath    string `mapstructure:"sidecar_path" yaml:"sidecar_path" json:"sidecar_path"`
	RetryAfterSec  int    `mapstructure:"retry_after_sec" yaml:"retry_after_sec" json:"retry_after_sec"`
}

// OutputConfig contains output formatting settings.
type OutputConfig struct {
	Format string `mapstructure:"format" yaml:"format" json:"format"`
	File   string `mapstructure:"file" yaml:"file" json:"file"`
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Host            string `mapstructure:"host" yaml:"host" json:"host"`
	Port            int    `mapstructure:"port" yaml:"port" json:"port"`
	CORSOrigin      string `mapstructure:"cors_origin" yaml:"cors_origin" json:"cors_origin"`
	MaxUploadMB     int    `mapstructure:"max_upload_mb" yaml:"max_upload_mb" json:"max_upload_mb"`
	TimeoutSec      int    `mapstructure:"timeout_sec" yaml:"timeout_sec" json:"timeout_sec"`
	ShutdownTimeout int    `mapstructure:"shutdown_timeout" yaml:"shutdown_timeout" json:"shutdown_timeout"`

	// Per-client limits on the receipt endpoints; zero disables a limit.
	RateLimitPerMinute int `mapstructure:"rate_limit_per_minute" yaml:"rate_limit_per_minute" json:"rate_limit_per_minute"`
	RateLimitPerDay    int `mapstructure:"rate_limit_per_day" yaml:"rate_limit_per_day" json:"rate_limit_per_day"`
}

// CacheConfig contains the record cache settings.
type CacheConfig struct {
	Enabled bool   `mapstructure:"enabled" yaml:"enabled" json:"enabled"`
	Path    string `mapstructure:"path" yaml:"path" json:"path"`
}

// BatchConfig contains batch and watch settings.
type BatchConfig struct {
	Workers         int      `mapstructure:"workers" yaml:"workers" json:"workers"`
	Recursive       bool     `mapstructure:"recursive" yaml:"recursive" json:"recursive"`
	Include         []string `mapstructure:"include" yaml:"include" json:"include"`
	Exclude         []string `mapstructure:"exclude" yaml:"exclude" json:"exclude"`
	ContinueOnError bool     `mapstructure:"continue_on_error" yaml:"continue_on_error" json:"continue_on_error"`
	DebounceMs      int      `mapstructure:"debounce_ms" yaml:"debounce_ms" json:"debounce_ms"`
}
