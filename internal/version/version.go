// Package version carries build information injected with -ldflags, e.g.
//
//	-X github.com/MeKo-Tech/scontrino/internal/version.Version=v1.2.0
package version

import "fmt"

// Build-time variables set by ldflags
var (
	Version   = "dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// Info returns version, commit and build date.
func Info() (string, string, string) {
	return Version, GitCommit, BuildDate
}

// String formats the build information on one line.
func String() string {
	return fmt.Sprintf("%s (commit: %s, built: %s)", Version, GitCommit, BuildDate)
}
