// Package version provides build-time version information.
package version

import "fmt"

// These variables are set at build time using -ldflags
var (
	// Version is the semantic version
	Version = "0.1.0"

	// BuildTime is the UTC time when the binary was built
	BuildTime = "unknown"

	// GitCommit is the git commit hash
	GitCommit = "unknown"
)

// AppName is the user-visible application name.
const AppName = "Voro Editor"

// String returns a one-line description of the build.
func String() string {
	return fmt.Sprintf("%s %s (%s, built %s)", AppName, Version, GitCommit, BuildTime)
}
