package version

import (
	"fmt"
	"runtime"
)

var (
	// Version is the release of the build.
	Version = "0.1.0"
	// Commit is the short git SHA, or "none" for local builds.
	Commit = "none"
	// BuildTime is the UTC build timestamp.
	BuildTime = "unknown"
)

// Short returns only the release string.
func Short() string {
	return Version
}

// Full describes the build of the named program.
func Full(program string) string {
	return fmt.Sprintf("%s %s (commit %s, built %s, %s %s/%s)",
		program, Version, Commit, BuildTime, runtime.Version(), runtime.GOOS, runtime.GOARCH)
}
