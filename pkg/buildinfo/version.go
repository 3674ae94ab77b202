// Package buildinfo provides build-time version information.
//
// Variables are set via ldflags during build:
//
//	go build -ldflags "-X github.com/matzehuels/towerpath/pkg/buildinfo.Version=v1.0.0 \
//	    -X github.com/matzehuels/towerpath/pkg/buildinfo.Commit=$(git rev-parse HEAD) \
//	    -X github.com/matzehuels/towerpath/pkg/buildinfo.Date=$(date -u +%Y-%m-%dT%H:%M:%SZ)"
package buildinfo

import "fmt"

var (
	// Version is the release tag, or "dev" for local builds.
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

// String returns the formatted build information.
func String() string {
	return fmt.Sprintf("%s (commit %s, built %s)", Version, Commit, Date)
}

// Template returns the version template for cobra.
func Template() string {
	return "{{.Name}} " + String() + "\n"
}

// UserAgent returns the identifier sent by the API server in response headers.
func UserAgent() string {
	return "towerpath/" + Version
}
