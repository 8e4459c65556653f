// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package version

import (
	"fmt"
	"runtime"
	"runtime/debug"
)

// These variables are set via -ldflags at build time:
//
//	go build -ldflags "-X github.com/bureau-foundation/agentcmd/lib/version.GitCommit=$(git rev-parse --short HEAD)"
var (
	GitCommit = "unknown"
	BuildTime = "unknown"
	Version   = "0.1.0-dev"
)

// Info returns a formatted version string suitable for --version output.
func Info() string {
	commit, buildTime := GitCommit, BuildTime
	if commit == "unknown" {
		commit, buildTime = vcsInfo(buildTime)
	}
	return fmt.Sprintf("%s (%s, %s)", Version, commit, buildTime)
}

// Full returns Info plus the Go version and platform.
func Full() string {
	return fmt.Sprintf("%s\n  Go: %s\n  Platform: %s/%s",
		Info(), runtime.Version(), runtime.GOOS, runtime.GOARCH)
}

// vcsInfo reads the revision and commit time the toolchain stamps into
// binaries built inside a repository.
func vcsInfo(buildTime string) (string, string) {
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return "unknown", buildTime
	}
	revision, modified := "unknown", false
	for _, setting := range info.Settings {
		switch setting.Key {
		case "vcs.revision":
			revision = setting.Value
			if len(revision) > 12 {
				revision = revision[:12]
			}
		case "vcs.time":
			if buildTime == "unknown" {
				buildTime = setting.Value
			}
		case "vcs.modified":
			modified = setting.Value == "true"
		}
	}
	if modified {
		revision += "-dirty"
	}
	return revision, buildTime
}
