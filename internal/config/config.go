package config

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/MeKo-Tech/scontrino/internal/pipeline"
	"github.com/MeKo-Tech/scontrino/internal/preprocess"
	"github.com/MeKo-Tech/scontrino/internal/receipt"
	"github.com/MeKo-Tech/scontrino/internal/recognizer"
	"github.com/MeKo-Tech/scontrino/internal/rectify"
)

// DefaultConfig returns a configuration with sensible defaults.
func DefaultConfig() Config {
	rect := rectify.DefaultConfig()
	rec := recognizer.DefaultConfig()
	return Config{
		LogLevel: "info",
		Verbose:  false,
		Pipeline: PipelineConfig{
			ClipPercent:      preprocess.DefaultClipPercent,
			WorkingSize:      rect.WorkingSize,
			BlurSigma:        rect.BlurSigma,
			ApproxEpsilon:    rect.EpsilonRatio,
			CornerSeparation: rect.CornerSeparation,
			MinAreaRatio:     rect.MinAreaRatio,
			MinFields:        pipeline.DefaultMinFields,
			FuzzyThreshold:   receipt.DefaultFuzzyThreshold,
			DepartmentPolicy: receipt.ClearAfterTotal.String(),
		},
		Recognizer: RecognizerConfig{
			Backend:       string(rec.Backend),
			Language:      rec.Language,
			TokenMode:     string(rec.TokenMode),
			MaxConcurrent: 0,
			MaxPixels:     rec.MaxPixels,
			RetryAfterSec: 30,
		},
		Output: OutputConfig{
			Format: "text",
		},
		Server: ServerConfig{
			Host:            "localhost",
			Port:            8080,
			CORSOrigin:      "*",
			MaxUploadMB:     20,
			TimeoutSec:      60,
			ShutdownTimeout: 10,
		},
		Cache: CacheConfig{
			Enabled: false,
		},
		Batch: BatchConfig{
			Workers:         4,
			Recursive:       false,
			ContinueOnError: true,
			DebounceMs:      500,
		},
	}
}

// Validate validates the configuration and returns the first problem found.
func (c *Config) Validate() error {
	validLogLevels := []string{"debug", "info", "warn", "error"}
	if !contains(validLogLevels, c.LogLevel) {
		return fmt.Errorf("invalid log level: %s (must be one of: %s)", c.LogLevel, strings.Join(validLogLevels, ", "))
	}

	validFormats := []string{"text", "json", "yaml", "csv"}
	if c.Output.Format != "" && !contains(validFormats, c.Output.Format) {
		return fmt.Errorf("invalid output format: %s (must be one of: %s)", c.Output.Format, strings.Join(validFormats, ", "))
	}

	if c.Pipeline.ClipPercent < 0 || c.Pipeline.ClipPercent >= 100 {
		return fmt.Errorf("invalid pipeline.clip_percent: %.2f (must be in [0, 100))", c.Pipeline.ClipPercent)
	}
	if err := validateThreshold(c.Pipeline.FuzzyThreshold, "pipeline.fuzzy_threshold"); err != nil {
		return err
	}
	if err := validateThreshold(c.Pipeline.ApproxEpsilon, "pipeline.approx_epsilon"); err != nil {
		return err
	}
	if err := validateThreshold(c.Pipeline.CornerSeparation, "pipeline.corner_separation"); err != nil {
		return err
	}
	if err := validateThreshold(c.Pipeline.MinAreaRatio, "pipeline.min_area_ratio"); err != nil {
		return err
	}
	if _, err := receipt.ParseDepartmentPolicy(c.Pipeline.DepartmentPolicy); err != nil {
		return fmt.Errorf("invalid pipeline.department_policy: %w", err)
	}
	if c.Pipeline.WorkingSize <= 0 {
		return fmt.Errorf("invalid pipeline.working_size: %d (must be positive)", c.Pipeline.WorkingSize)
	}
	if c.Pipeline.MinFields < 0 {
		return fmt.Errorf("invalid pipeline.min_fields: %d (must not be negative)", c.Pipeline.MinFields)
	}

	if _, err := recognizer.ParseBackend(c.Recognizer.Backend); err != nil {
		return fmt.Errorf("invalid recognizer.backend: %w", err)
	}
	if _, err := recognizer.ParseTokenMode(c.Recognizer.TokenMode); err != nil {
		return fmt.Errorf("invalid recognizer.token_mode: %w", err)
	}
	if c.Recognizer.MaxConcurrent < 0 {
		return fmt.Errorf("invalid recognizer.max_concurrent: %d (must not be negative)", c.Recognizer.MaxConcurrent)
	}
	if c.Recognizer.MaxPixels < 0 {
		return fmt.Errorf("invalid recognizer.max_pixels: %d (must not be negative)", c.Recognizer.MaxPixels)
	}

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d (must be between 1 and 65535)", c.Server.Port)
	}
	if c.Server.MaxUploadMB <= 0 {
		return fmt.Errorf("invalid max upload size: %d (must be positive)", c.Server.MaxUploadMB)
	}
	if c.Server.TimeoutSec <= 0 {
		return fmt.Errorf("invalid timeout: %d (must be positive)", c.Server.TimeoutSec)
	}
	if c.Server.RateLimitPerMinute < 0 || c.Server.RateLimitPerDay < 0 {
		return errors.New("rate limits must not be negative")
	}
	if c.Batch.Workers <= 0 {
		return fmt.Errorf("invalid batch workers: %d (must be positive)", c.Batch.Workers)
	}
	if c.Batch.DebounceMs < 0 {
		return fmt.Errorf("invalid batch debounce: %d (must not be negative)", c.Batch.DebounceMs)
	}
	return nil
}

// ToPipelineConfig converts to the pipeline configuration.
func (c *Config) ToPipelineConfig() pipeline.Config {
	cfg := pipeline.DefaultConfig()
	cfg.ClipPercent = c.Pipeline.ClipPercent
	cfg.MinFields = c.Pipeline.MinFields
	cfg.RetryAfter = time.Duration(c.Recognizer.RetryAfterSec) * time.Second
	cfg.Rectification = c.toRectificationConfig()
	cfg.Parser.FuzzyThreshold = c.Pipeline.FuzzyThreshold
	if policy, err := receipt.ParseDepartmentPolicy(c.Pipeline.DepartmentPolicy); err == nil {
		cfg.Parser.Policy = policy
	}
	return cfg
}

// toRectificationConfig converts to rectify.Config.
func (c *Config) toRectificationConfig() rectify.Config {
	cfg := rectify.DefaultConfig()
	cfg.WorkingSize = c.Pipeline.WorkingSize
	cfg.BlurSigma = c.Pipeline.BlurSigma
	cfg.EpsilonRatio = c.Pipeline.ApproxEpsilon
	cfg.CornerSeparation = c.Pipeline.CornerSeparation
	cfg.MinAreaRatio = c.Pipeline.MinAreaRatio
	cfg.DebugDir = c.Pipeline.DebugDir
	return cfg
}

// ToRecognizerConfig converts to recognizer.Config.
func (c *Config) ToRecognizerConfig() recognizer.Config {
	cfg := recognizer.DefaultConfig()
	if b, err := recognizer.ParseBackend(c.Recognizer.Backend); err == nil {
		cfg.Backend = b
	}
	if m, err := recognizer.ParseTokenMode(c.Recognizer.TokenMode); err == nil {
		cfg.TokenMode = m
	}
	cfg.Language = c.Recognizer.Language
	cfg.MaxConcurrent = c.Recognizer.MaxConcurrent
	cfg.MaxPixels = c.Recognizer.MaxPixels
	cfg.Whitelist = c.Recognizer.Whitelist
	cfg.TessdataPrefix = c.Recognizer.TessdataPrefix
	cfg.SidecarPath = c.Recognizer.SidecarPath
	return cfg
}

// CachePath returns the configured cache file, or the default location
// under the user cache directory.
func (c *Config) CachePath() string {
	if c.Cache.Path != "" {
		return c.Cache.Path
	}
	if dir, err := os.UserCacheDir(); err == nil {
		return filepath.Join(dir, "scontrino", "records.db")
	}
	return filepath.Join(os.TempDir(), "scontrino-records.db")
}

// Fingerprint identifies the settings that change what a given image
// parses to. Records cached under one fingerprint are not valid under
// another.
func (c *Config) Fingerprint() string {
	p := c.Pipeline
	p.DebugDir = ""
	r := c.Recognizer
	r.MaxConcurrent, r.RetryAfterSec = 0, 0
	data, _ := json.Marshal(struct {
		P PipelineConfig
		R RecognizerConfig
	}{p, r})
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:8])
}

// Helper functions

// contains checks if a slice contains a string.
func contains(slice []string, item string) bool {
	for _, s := range slice {
		if s == item {
			return true
		}
	}
	return false
}

// validateThreshold validates that a value is between 0.0 and 1.0.
func validateThreshold(value float64, name string) error {
	if value < 0.0 || value > 1.0 {
		return fmt.Errorf("invalid %s: %.2f (must be between 0.0 and 1.0)", name, value)
	}
	return nil
}
