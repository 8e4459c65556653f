// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package plugin discovers command plugins, loads them in priority
// order, and binds the handlers they register into a
// [command.Registry].
//
// A plugin registers its handlers through a [Registrar] during
// [Plugin.RegisterHandlers]. Registrations are staged: they reach the
// registry only after the plugin's Initialize succeeds, so a plugin
// that fails part way never leaves half its commands behind. The
// first plugin to claim a command type owns it; later claims are
// recorded as [PluginConflictError] values and loading continues.
//
// Lower priority values load first. Priority 0 is reserved for the
// core plugin that provides log.query; if it fails, loading stops and
// the result reports a critical failure.
package plugin
