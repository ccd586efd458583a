package version

import (
	"github.com/Masterminds/semver"
)

var (
	// Version contains the current version of pathmond
	Version = "dev"

	// CommitHash contains the current git commit hash
	CommitHash = "unknown"

	// BuildTime contains the time of build
	BuildTime = "unknown"
)

// Info describes the running build.
type Info struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	BuildTime string `json:"buildTime"`
	Major     int64  `json:"major"`
	Minor     int64  `json:"minor"`
	Patch     int64  `json:"patch"`
}

// Get returns the build info. Versions that are not valid semver (such as
// "dev") report zero components.
func Get() Info {
	info := Info{
		Version:   Version,
		Commit:    CommitHash,
		BuildTime: BuildTime,
	}
	if v, err := Semver(); err == nil {
		info.Major = v.Major()
		info.Minor = v.Minor()
		info.Patch = v.Patch()
	}
	return info
}

// Semver parses Version.
func Semver() (*semver.Version, error) {
	return semver.NewVersion(Version)
}
