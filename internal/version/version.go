package version

import "fmt"

// Set at build time via -ldflags.
var (
	Version   = "dev"
	GitSHA    = "unknown"
	BuildTime = "unknown"
)

// String returns the one-line build description printed by the version
// subcommand.
func String() string {
	return fmt.Sprintf("linkage %s (%s, built %s)", Version, GitSHA, BuildTime)
}
