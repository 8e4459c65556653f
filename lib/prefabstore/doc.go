// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package prefabstore is a file-backed implementation of the
// scenegraph host interfaces.
//
// Each prefab is one document under the store directory, written in
// YAML (.yaml, .yml) or JSON with comments (.json, .jsonc, .prefab):
//
//	name: Dialog
//	components:
//	  - type: Panel
//	    properties: {ID: 100, title: Settings}
//	children:
//	  - name: OkButton
//	    layer: 5
//	    components:
//	      - type: Button
//	        properties: {ID: 101, label: OK}
//
// Nodes expose the built-in properties name, tag, layer, isActive,
// isStatic, and hideFlags; components expose whatever properties their
// document declares, and a write must keep the property's JSON kind.
// Instance IDs are assigned in pre-order at load time and are stable
// only within one loaded graph.
package prefabstore
