// Package version reports the hcredact build version.
package version

import (
	"fmt"
	"runtime/debug"
)

const slug = "hcredact v"

var (
	// version must be of the format <MAJOR>.<MINOR>.<PATCH>, as described in the semantic versioning specification.
	version = "0.1.0"

	// prerelease is a pre-release marker such as "dev", "beta" or "rc1". Empty for final releases.
	prerelease = "dev"

	// metadata is optional build metadata, as described by the semantic versioning specification.
	metadata string

	// gitCommit and buildDate are set by the build process through -ldflags.
	gitCommit string
	buildDate string
)

// Version is a container for version information.
type Version struct {
	Version    string `json:"version,omitempty"`
	Prerelease string `json:"prerelease,omitempty"`
	Metadata   string `json:"build_metadata,omitempty"`
	Revision   string `json:"revision,omitempty"`
	BuildDate  string `json:"build_date,omitempty"`
}

// GetVersion produces a Version from the package variables. When the build process did not set a revision, the VCS
// information recorded by the Go toolchain is used instead.
func GetVersion() Version {
	v := Version{
		Version:    version,
		Prerelease: prerelease,
		Metadata:   metadata,
		Revision:   gitCommit,
		BuildDate:  buildDate,
	}
	if v.Revision == "" {
		v.Revision, v.BuildDate = fromBuildInfo(v.BuildDate)
	}
	return v
}

func fromBuildInfo(date string) (revision, buildDate string) {
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return "", date
	}
	buildDate = date
	for _, s := range info.Settings {
		switch s.Key {
		case "vcs.revision":
			revision = s.Value
		case "vcs.time":
			if buildDate == "" {
				buildDate = s.Value
			}
		}
	}
	return revision, buildDate
}

// SemanticVersion produces a semantic version number from a Version object.
func (v Version) SemanticVersion() string {
	sv := v.Version

	if v.Prerelease != "" {
		sv = fmt.Sprintf("%s-%s", sv, v.Prerelease)
	}

	if v.Metadata != "" {
		sv = fmt.Sprintf("%s+%s", sv, v.Metadata)
	}

	return sv
}

// FullVersionNumber produces a human-readable version string, e.g. "hcredact v0.1.0-dev (abc123), built 2024-01-01".
// The revision is only included when rev is true.
func (v Version) FullVersionNumber(rev bool) string {
	versionString := slug + v.SemanticVersion()

	if rev && v.Revision != "" {
		versionString += fmt.Sprintf(" (%s)", v.Revision)
	}

	if v.BuildDate != "" {
		versionString += fmt.Sprintf(", built %s", v.BuildDate)
	}

	return versionString
}
