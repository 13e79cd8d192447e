// Package version holds build information set with -ldflags.
package version

import "fmt"

// Set at build time, e.g.
//
//	go build -ldflags "-X chatstream/internal/version.Version=v1.2.0 -X chatstream/internal/version.Commit=$(git rev-parse --short HEAD)"
var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

// Info returns a one-line summary of the build.
func Info() string {
	return fmt.Sprintf("chatstream %s (commit %s, built %s)", Version, Commit, Date)
}
