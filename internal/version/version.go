package version

import "fmt"

var (
	// Version is the packager's own semantic version. It can be overridden via ldflags.
	// It is unrelated to the kamiya version read from the manifest.
	Version = "0.1.0"
	// Commit is the short git SHA embedded at build time (or "none").
	Commit = "none"
	// BuildTime is the UTC build timestamp embedded at build time.
	BuildTime = "unknown"
)

// Short returns only the semantic version string.
func Short() string {
	return Version
}

// Full returns a human-readable version string with commit and build time.
func Full() string {
	return fmt.Sprintf("kamiya-packager %s (commit %s, built %s)", Version, Commit, BuildTime)
}
