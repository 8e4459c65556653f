// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package codec holds the shared CBOR configuration.
//
// CBOR carries the socket protocol between the CLI and a running agent
// command server, and is the canonical byte form used when comparing
// property values and fingerprinting hierarchies. The encoder uses
// Core Deterministic Encoding (RFC 8949 §4.2), so equal logical values
// always produce identical bytes. Decoding into an any-typed target
// yields map[string]any for maps, matching what encoding/json produces
// for the JSON surfaces (batch files, CLI output).
//
// Types that appear on both the JSON and CBOR surfaces carry only
// `json` tags; fxamacker/cbor falls back to them.
package codec
