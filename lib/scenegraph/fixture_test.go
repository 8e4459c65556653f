// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package scenegraph_test

import (
	"testing"

	"github.com/bureau-foundation/agentcmd/lib/prefabstore"
	"github.com/bureau-foundation/agentcmd/lib/scenegraph"
)

// dialogPrefab has duplicate sibling names, an inactive subtree, and
// four components keyed ID=7 spread across two containers.
const dialogPrefab = `
name: Dialog
components:
  - type: Panel
    properties: {ID: 100, title: Settings}
children:
  - name: Header
    components:
      - type: Label
        properties: {ID: 7, text: Title}
  - name: Body
    active: false
    children:
      - name: Item
        components:
          - type: Button
            properties: {ID: 7, label: First}
      - name: Item
        components:
          - type: Label
            properties: {ID: 7, text: Second}
  - name: Footer
    components:
      - type: Dialog
        properties: {ID: 200}
    children:
      - name: Ok
        components:
          - type: Button
            properties: {ID: 7, label: OK, speed: 1.5, count: 3}
`

var containerTypes = []string{"Panel", "Dialog"}

func loadDialog(t *testing.T) scenegraph.Node {
	t.Helper()
	root, err := prefabstore.Parse([]byte(dialogPrefab), prefabstore.FormatYAML)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	return root
}

func mustFind(t *testing.T, root scenegraph.Node, path string, occurrence int) scenegraph.Node {
	t.Helper()
	node, err := scenegraph.FindByPath(root, path, occurrence)
	if err != nil {
		t.Fatalf("FindByPath(%q, %d): %v", path, occurrence, err)
	}
	return node
}
