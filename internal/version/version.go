// Package version provides version information for the binary.
package version

import (
	"fmt"
	"runtime"
	"runtime/debug"
)

// Version is the current version of the application.
// This is set at build time using -ldflags.
var Version = "dev"

// BuildTime is when the binary was built.
// This is set at build time using -ldflags.
var BuildTime = "unknown"

// Info is the build metadata served on /version.
type Info struct {
	Version   string `json:"version"`
	Built     string `json:"built"`
	Commit    string `json:"commit,omitempty"`
	GoVersion string `json:"go"`
}

// Get returns the build metadata. Commit comes from the VCS stamp of the
// Go toolchain and is empty for builds outside a repository.
func Get() Info {
	info := Info{Version: Version, Built: BuildTime, GoVersion: runtime.Version()}
	if bi, ok := debug.ReadBuildInfo(); ok {
		for _, s := range bi.Settings {
			if s.Key == "vcs.revision" {
				info.Commit = s.Value
			}
		}
	}
	return info
}

// String returns the formatted version information.
func String() string {
	return fmt.Sprintf("nutrisense version %s (built %s)", Version, BuildTime)
}
