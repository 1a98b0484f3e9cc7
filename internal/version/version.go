// Package version carries build metadata injected at link time.
package version

import "fmt"

// Set via -ldflags "-X llamero/internal/version.Version=..." at build time.
var (
	Version = "dev"
	Commit  = "unknown"
	Date    = "unknown"
)

// Info returns a one-line human-readable version string.
func Info() string {
	return fmt.Sprintf("llameroctl %s (commit %s, built %s)", Version, Commit, Date)
}
