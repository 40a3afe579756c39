package support

import (
	"fmt"
	"os"
	"time"
)

// TestContext holds the state of one scenario.
type TestContext struct {
	// Command execution state
	LastCommand  string
	LastOutput   string
	LastStderr   string
	LastError    error
	LastDuration time.Duration

	// Test environment
	OriginalDir string
	TempDir     string
	envVars     []string

	// HTTP state
	HTTPTestServer     *HTTPTestServerWrapper
	LastHTTPStatusCode int
	LastHTTPResponse   string
	LastHTTPHeaders    map[string]string
}

// NewTestContext creates a scenario context and moves into a fresh
// temporary directory, so relative paths in steps resolve there.
func NewTestContext() (*TestContext, error) {
	originalDir, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("failed to get working directory: %w", err)
	}
	tempDir, err := os.MkdirTemp("", "scontrino-test-*")
	if err != nil {
		return nil, fmt.Errorf("failed to create temp directory: %w", err)
	}
	if err := os.Chdir(tempDir); err != nil {
		return nil, fmt.Errorf("failed to enter temp directory: %w", err)
	}
	return &TestContext{
		OriginalDir:     originalDir,
		TempDir:         tempDir,
		LastHTTPHeaders: map[string]string{},
	}, nil
}

// Cleanup stops the test server, restores the environment and removes the
// temporary directory.
func (testCtx *TestContext) Cleanup() error {
	var errs []error

	testCtx.stopTestHTTPServer()
	for _, name := range testCtx.envVars {
		_ = os.Unsetenv(name)
	}
	if err := os.Chdir(testCtx.OriginalDir); err != nil {
		errs = append(errs, fmt.Errorf("failed to restore working directory: %w", err))
	}
	if err := os.RemoveAll(testCtx.TempDir); err != nil && !os.IsNotExist(err) {
		errs = append(errs, fmt.Errorf("failed to remove temp directory %s: %w", testCtx.TempDir, err))
	}

	if len(errs) > 0 {
		return fmt.Errorf("cleanup errors: %v", errs)
	}
	return nil
}

// SetEnvVar sets an environment variable until the scenario ends.
func (testCtx *TestContext) SetEnvVar(name, value string) error {
	testCtx.envVars = append(testCtx.envVars, name)
	return os.Setenv(name, value)
}
