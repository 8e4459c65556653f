// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package config provides YAML configuration loading for agentcmd.
//
// Configuration is loaded from a single file named by either the
// AGENTCMD_CONFIG environment variable (via [Load]) or a --config flag
// (via [LoadFile]). Load performs no file search.
//
// The file may contain environment-specific sections (development,
// staging, production) that override base values when
// [Config].Environment matches. Production defaults are stricter: the
// log buffer captures warnings and above only.
//
// Variable expansion is performed on path fields after loading:
// ${HOME}, ${AGENTCMD_ROOT}, and ${VAR:-default} patterns are
// expanded. No other environment variables override config values.
//
// Key exports:
//
//   - [Config] -- master struct with Paths, Log, Batch, Plugins, Graph
//   - [Default] -- returns a Config with development defaults
//   - [Load] and [LoadFile] -- the two entry points for loading
//
// This package depends on no other agentcmd packages.
package config
