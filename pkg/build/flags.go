// SPDX-License-Identifier: MIT
//
// Package build exposes metadata embedded at link time:
//
//	go build -ldflags "-X spectralyzer/pkg/build.buildVersion=v0.3.0 \
//	    -X spectralyzer/pkg/build.buildCommit=$(git rev-parse --short HEAD) \
//	    -X spectralyzer/pkg/build.buildTime=$(date -u +%FT%TZ)"
//
// Development builds run with the defaults below.
package build

import (
	"errors"
	"fmt"
)

const (
	DefaultName        = "spectralyzer"
	DefaultDescription = "Real-time audio spectrum visualizer"
	unknown            = "unknown"
	devVersion         = "dev"
)

// Info describes the running binary.
type Info struct {
	Name        string
	Description string
	Time        string
	Commit      string
	Version     string
}

// String is the one-line version banner.
func (i *Info) String() string {
	return fmt.Sprintf("%s %s (commit %s, built %s)", i.Name, i.Version, i.Commit, i.Time)
}

// Set by -ldflags.
var (
	buildName    string
	buildTime    string
	buildCommit  string
	buildVersion string
	buildFlags   = defaultInfo()
)

func defaultInfo() *Info {
	return &Info{
		Name:        DefaultName,
		Description: DefaultDescription,
		Time:        unknown,
		Commit:      unknown,
		Version:     devVersion,
	}
}

// Initialize copies the ldflags values that were provided. Missing values
// keep their defaults and are reported together in the returned error, so
// callers can warn and continue.
func Initialize() error {
	var missing []error
	copyFlag := func(name, value string, dst *string) {
		if value == "" {
			missing = append(missing, fmt.Errorf("%s is required", name))
			return
		}
		*dst = value
	}

	copyFlag("BuildName", buildName, &buildFlags.Name)
	copyFlag("BuildTime", buildTime, &buildFlags.Time)
	copyFlag("BuildCommit", buildCommit, &buildFlags.Commit)
	copyFlag("BuildVersion", buildVersion, &buildFlags.Version)

	return errors.Join(missing...)
}

// GetBuildFlags returns the current build information.
func GetBuildFlags() *Info {
	return buildFlags
}
