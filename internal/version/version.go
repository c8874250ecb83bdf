package version

import (
	"fmt"
	"runtime"
)

// Set at build time with -ldflags "-X github.com/jamezpolley/stashboard/internal/version.Version=v1.2.0".
var (
	Version   = "dev"
	Commit    = "none"
	BuildDate = "unknown"
	GoVersion = runtime.Version()
)

// String renders the build information on one line.
func String() string {
	return fmt.Sprintf("stashboard %s (commit=%s, built=%s, %s)", Version, Commit, BuildDate, GoVersion)
}
