// Package version identifies the comboer build. The variables are set with
// -ldflags "-X" at build time.
package version

import "fmt"

var (
	// Version is the current application version
	Version = "dev"
	// GitSHA is the git commit SHA
	GitSHA = "unknown"
	// BuildTime is the build timestamp
	BuildTime = "unknown"
)

// String formats the build identification for -version output and run records.
func String() string {
	return fmt.Sprintf("comboer %s (%s, built %s)", Version, GitSHA, BuildTime)
}
