// Package version carries the build metadata stamped into the binary with
// -ldflags at release time. Local builds keep the dev defaults.
package version

import "fmt"

var (
	// Version is the release tag.
	Version = "v0.0.0-dev"

	// GitCommit is the commit the binary was built from.
	GitCommit = "unknown"

	// BuildTime is when the binary was built.
	BuildTime = "unknown"
)

// Banner renders the startup banner printed by cmd/murshid.
func Banner() string {
	return fmt.Sprintf("Murshid\nVersion: %s\nCommit: %s\nBuild Time: %s\n", Version, GitCommit, BuildTime)
}
