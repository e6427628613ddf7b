// Package version holds build information set through -ldflags.
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

// String returns a one-line summary of the build.
func String() string {
	return fmt.Sprintf("doorcheck %s (git %s, built %s)", Version, GitSHA, BuildTime)
}
