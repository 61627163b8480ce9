package version

import (
	"fmt"
	"runtime"
	"time"
)

var (
	// Version is the semantic version, injected at build time via -ldflags
	Version = "dev"
	// GitCommit is the git commit hash, injected at build time
	GitCommit = "unknown"
	// BuildDate is the build timestamp, injected at build time
	BuildDate = "unknown"
	// GoVersion is the toolchain the binary was compiled with
	GoVersion = runtime.Version()
	// Platform is the target OS/architecture pair, e.g. linux/amd64
	Platform = runtime.GOOS + "/" + runtime.GOARCH
)

// BuildInfo contains metadata about the build, as printed by `notifier version`
// and reported by the service banner.
type BuildInfo struct {
	// Version is the release tag, "dev" for local builds
	Version string `json:"version" yaml:"version"`
	// GitCommit is the commit the binary was built from
	GitCommit string `json:"gitCommit" yaml:"gitCommit"`
	// BuildDate is the raw build timestamp as injected
	BuildDate string `json:"buildDate" yaml:"buildDate"`
	// GoVersion is the Go toolchain version
	GoVersion string `json:"goVersion" yaml:"goVersion"`
	// Platform is GOOS/GOARCH
	Platform string `json:"platform" yaml:"platform"`
	// BuildTime is BuildDate parsed as RFC3339, zero when it does not parse
	BuildTime time.Time `json:"buildTime,omitempty" yaml:"buildTime,omitempty"`
}

// GetBuildInfo returns build metadata
func GetBuildInfo() BuildInfo {
	info := BuildInfo{
		Version:   Version,
		GitCommit: GitCommit,
		BuildDate: BuildDate,
		GoVersion: GoVersion,
		Platform:  Platform,
	}

	if t, err := time.Parse(time.RFC3339, BuildDate); err == nil {
		info.BuildTime = t
	}

	return info
}

// String renders the one-line form used by the CLI and the service banner.
func (b BuildInfo) String() string {
	return fmt.Sprintf("%s (commit: %s, built: %s)", b.Version, b.GitCommit, b.BuildDate)
}
