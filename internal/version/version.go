// Package version reports the fluxled build version.
package version

import (
	"fmt"
	"runtime"
	"runtime/debug"
	"time"
)

// Set at build time:
//
//	go build -ldflags="-X github.com/muurk/fluxled/internal/version.Version=v0.3.0 \
//	                   -X github.com/muurk/fluxled/internal/version.Commit=abc1234"
//
// Unset values come from the VCS stamp in the build info, then fall back
// to "dev".
var (
	// Version is the semantic version of the application
	Version = ""
	// Commit is the short git commit hash
	Commit = ""
	// BuiltAt is the commit time when known
	BuiltAt time.Time
)

func init() {
	if info, ok := debug.ReadBuildInfo(); ok {
		apply(info.Settings)
	}
	if Version == "" {
		Version = "dev"
	}
	if Commit == "" {
		Commit = "unknown"
	}
}

// apply fills unset values from build settings
func apply(settings []debug.BuildSetting) {
	vcs := make(map[string]string, len(settings))
	for _, s := range settings {
		vcs[s.Key] = s.Value
	}

	if t, err := time.Parse(time.RFC3339, vcs["vcs.time"]); err == nil {
		BuiltAt = t
		if Version == "" {
			Version = "dev-" + t.Format("20060102")
		}
	}

	if rev := vcs["vcs.revision"]; Commit == "" && rev != "" {
		if len(rev) > 7 {
			rev = rev[:7]
		}
		if vcs["vcs.modified"] == "true" {
			rev += "-dirty"
		}
		Commit = rev
	}
}

// Full returns the version, commit and Go runtime on one line
func Full() string {
	return fmt.Sprintf("%s (commit: %s, %s %s/%s)", Version, Commit, runtime.Version(), runtime.GOOS, runtime.GOARCH)
}
