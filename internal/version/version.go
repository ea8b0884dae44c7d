// Package version holds askdex build metadata injected via ldflags.
package version

import "fmt"

//nolint:revive // Set via ldflags at build time.
var (
	Version = "dev"
	Commit  = "unknown"
	Date    = "unknown"
)

// String renders the build identity for startup logs and diagnostics,
// e.g. "askdex dev (unknown, built unknown)".
func String() string {
	return fmt.Sprintf("askdex %s (%s, built %s)", Version, Commit, Date)
}
