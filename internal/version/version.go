// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package version

import (
	"fmt"
	"runtime"
	"runtime/debug"
	"sync"
)

// Release builds set these with
//
//	-ldflags "-X cyber-survey/internal/version.Version=1.2.0 -X ..."
//
// Other builds fall back to the VCS stamp the go tool embeds.
var (
	Version   = "0.0.0-development"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// BuildInfo describes the running binary
type BuildInfo struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	BuildDate string `json:"buildDate"`
	GoVersion string `json:"goVersion"`
	Platform  string `json:"platform"`
}

var (
	resolveOnce sync.Once
	resolved    BuildInfo
)

// Current returns the build information, filling commit and date from the
// embedded VCS settings when ldflags did not set them.
func Current() BuildInfo {
	resolveOnce.Do(func() {
		resolved = BuildInfo{
			Version:   Version,
			Commit:    GitCommit,
			BuildDate: BuildDate,
			GoVersion: runtime.Version(),
			Platform:  fmt.Sprintf("%s/%s", runtime.GOOS, runtime.GOARCH),
		}
		info, ok := debug.ReadBuildInfo()
		if !ok {
			return
		}
		dirty := false
		for _, setting := range info.Settings {
			switch setting.Key {
			case "vcs.revision":
				if resolved.Commit == "unknown" && len(setting.Value) >= 12 {
					resolved.Commit = setting.Value[:12]
				}
			case "vcs.time":
				if resolved.BuildDate == "unknown" {
					resolved.BuildDate = setting.Value
				}
			case "vcs.modified":
				dirty = setting.Value == "true"
			}
		}
		if dirty && GitCommit == "unknown" && resolved.Commit != "unknown" {
			resolved.Commit += "-dirty"
		}
	})
	return resolved
}

// Info returns formatted version information
func Info() string {
	b := Current()
	return fmt.Sprintf("cyber-survey %s (commit: %s, built: %s, go: %s, platform: %s)",
		b.Version, b.Commit, b.BuildDate, b.GoVersion, b.Platform)
}

// Short returns just the version number
func Short() string {
	return Version
}

// Full returns the build information keyed as the health endpoint reports it
func Full() map[string]string {
	b := Current()
	return map[string]string{
		"version":   b.Version,
		"commit":    b.Commit,
		"buildDate": b.BuildDate,
		"goVersion": b.GoVersion,
		"platform":  b.Platform,
	}
}
