// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package service exposes an agent command dispatcher on a Unix socket.
//
// The protocol is CBOR request-response, one request per connection.
// The client writes a single value:
//
//	{command: "prefab.queryHierarchy", params: {prefabPath: "ui/main.yaml"}}
//
// and the server answers with one envelope before closing:
//
//	{ok: true, data: <result document>}
//	{ok: false, error: {code: "NOT_FOUND", message: "...", detail: "..."}}
//
// CBOR is self-delimiting, so no framing is needed. The server applies
// a 30 second read deadline, a 10 second write deadline, and a 1 MiB
// request cap.
//
// Serialization of command execution is the dispatcher's concern:
// connections are handled concurrently, and agentcmd.System holds the
// lock that keeps one command running at a time.
package service
