package version

import (
	"fmt"
	"strconv"
	"strings"
)

var (
	// Version is the semver of the dump-migrate build (set at build time)
	Version = "0.0.0"

	// GitCommit is the git commit hash (set at build time)
	GitCommit = "unknown"

	// BuildDate is the build timestamp (set at build time)
	BuildDate = "unknown"
)

// component returns the i-th numeric part of Version, ignoring any
// pre-release or build suffix ("1.2.3-7-gabc1234", "3.0.0+build1").
func component(i int) int {
	core := Version
	if idx := strings.IndexAny(core, "-+"); idx >= 0 {
		core = core[:idx]
	}
	parts := strings.Split(core, ".")
	if i >= len(parts) {
		return 0
	}
	n, err := strconv.Atoi(parts[i])
	if err != nil {
		return 0
	}
	return n
}

func MajorVersion() int { return component(0) }

func MinorVersion() int { return component(1) }

func PatchVersion() int { return component(2) }

// VersionInfo contains structured version information
type VersionInfo struct {
	Version   string `json:"version"`
	Major     int    `json:"major"`
	Minor     int    `json:"minor"`
	Patch     int    `json:"patch"`
	GitCommit string `json:"gitCommit"`
	BuildDate string `json:"buildDate"`
}

// Info returns structured version information
func Info() VersionInfo {
	return VersionInfo{
		Version:   Version,
		Major:     MajorVersion(),
		Minor:     MinorVersion(),
		Patch:     PatchVersion(),
		GitCommit: GitCommit,
		BuildDate: BuildDate,
	}
}

// String renders the one-line banner printed by `dump-migrate version`.
func (v VersionInfo) String() string {
	return fmt.Sprintf("%s (commit %s, built %s)", v.Version, v.GitCommit, v.BuildDate)
}
