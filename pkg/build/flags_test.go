// SPDX-License-Identifier: MIT
package build

import (
	"os"
	"strings"
	"testing"
)

var (
	origName    string
	origTime    string
	origCommit  string
	origVersion string
	origFlags   Info
)

func TestMain(m *testing.M) {
	origName = buildName
	origTime = buildTime
	origCommit = buildCommit
	origVersion = buildVersion
	origFlags = *buildFlags

	exitCode := m.Run()

	buildName = origName
	buildTime = origTime
	buildCommit = origCommit
	buildVersion = origVersion
	*buildFlags = origFlags

	os.Exit(exitCode)
}

func TestInitialize(t *testing.T) {
	tests := []struct {
		name        string
		buildName   string
		buildTime   string
		buildCommit string
		buildVer    string
		wantErrMsgs []string
		want        Info
	}{
		{
			"Missing BuildName",
			"",
			"2025-04-13",
			"abcdef123",
			"v1.0.0",
			[]string{"BuildName is required"},
			Info{DefaultName, DefaultDescription, "2025-04-13", "abcdef123", "v1.0.0"},
		},
		{
			"Missing BuildTime and BuildCommit",
			"testapp",
			"",
			"",
			"v1.0.0",
			[]string{"BuildTime is required", "BuildCommit is required"},
			Info{"testapp", DefaultDescription, unknown, unknown, "v1.0.0"},
		},
		{
			"Development Build",
			"",
			"",
			"",
			"",
			[]string{"BuildName", "BuildTime", "BuildCommit", "BuildVersion"},
			Info{DefaultName, DefaultDescription, unknown, unknown, devVersion},
		},
		{
			"Success Case",
			"testapp",
			"2025-04-13",
			"abcdef123",
			"v1.0.0",
			nil,
			Info{"testapp", DefaultDescription, "2025-04-13", "abcdef123", "v1.0.0"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buildFlags = defaultInfo()

			buildName = tt.buildName
			buildTime = tt.buildTime
			buildCommit = tt.buildCommit
			buildVersion = tt.buildVer

			err := Initialize()

			if len(tt.wantErrMsgs) == 0 && err != nil {
				t.Errorf("Initialize() unexpected error: %v", err)
			}
			if len(tt.wantErrMsgs) > 0 && err == nil {
				t.Error("Initialize() expected error, got nil")
			}
			for _, msg := range tt.wantErrMsgs {
				if err != nil && !strings.Contains(err.Error(), msg) {
					t.Errorf("Initialize() error = %v, want it to mention %q", err, msg)
				}
			}

			if got := *GetBuildFlags(); got != tt.want {
				t.Errorf("GetBuildFlags() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestInfoString(t *testing.T) {
	info := Info{Name: "spectralyzer", Version: "v1.2.0", Commit: "abc123", Time: "2025-04-13"}
	want := "spectralyzer v1.2.0 (commit abc123, built 2025-04-13)"
	if got := info.String(); got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
}
