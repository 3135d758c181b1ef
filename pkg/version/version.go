package version

import "fmt"

// Version, GitCommit, and BuildDate are set at build time via ldflags:
//
//	go build -ldflags "-X netval/pkg/version.Version=v1.0.0 \
//	  -X netval/pkg/version.GitCommit=abc1234 -X netval/pkg/version.BuildDate=2026-01-01"
var (
	Version   = "dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// Info returns a single-line human-readable version string, used by the
// version command and the service's startup log line.
func Info() string {
	return fmt.Sprintf("netval %s (commit %s, built %s)", Version, GitCommit, BuildDate)
}
