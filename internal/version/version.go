// Package version exposes the compiler's build information. Version is the
// value stamped into install manifests for drift detection.
package version

import (
	"fmt"
	"runtime"
	"runtime/debug"
)

// These variables are set at build time using -ldflags
var (
	// Version is the semantic version of the application
	Version = "2.1.0"

	// GitCommit is the git commit hash when the binary was built
	GitCommit = "unknown"
)

// BuildInfo contains version and build information
type BuildInfo struct {
	Version   string `json:"version"`
	GitCommit string `json:"git_commit"`
	GoVersion string `json:"go_version"`
	Platform  string `json:"platform"`
}

// GetBuildInfo returns comprehensive build information
func GetBuildInfo() *BuildInfo {
	return &BuildInfo{
		Version:   GetVersion(),
		GitCommit: GetGitCommit(),
		GoVersion: runtime.Version(),
		Platform:  fmt.Sprintf("%s/%s", runtime.GOOS, runtime.GOARCH),
	}
}

// GetVersion returns the application version
func GetVersion() string {
	return Version
}

// GetGitCommit returns the git commit hash
func GetGitCommit() string {
	if GitCommit != "" && GitCommit != "unknown" {
		return GitCommit
	}

	if info, ok := debug.ReadBuildInfo(); ok {
		for _, setting := range info.Settings {
			if setting.Key == "vcs.revision" && len(setting.Value) >= 7 {
				return setting.Value[:7]
			}
		}
	}

	return "unknown"
}
