// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package prefab_test

import (
	"context"
	"testing"
	"time"

	"github.com/bureau-foundation/agentcmd/lib/clock"
	"github.com/bureau-foundation/agentcmd/lib/codec"
	"github.com/bureau-foundation/agentcmd/lib/command"
	"github.com/bureau-foundation/agentcmd/lib/plugin"
	"github.com/bureau-foundation/agentcmd/lib/prefabstore"
	"github.com/bureau-foundation/agentcmd/lib/scenegraph"
	"github.com/bureau-foundation/agentcmd/lib/testutil"
	"github.com/bureau-foundation/agentcmd/plugins/prefab"
)

const windowPrefab = `
name: Window
components:
  - type: Panel
    properties: {ID: 1, title: Main}
children:
  - name: Toolbar
    children:
      - name: Button
        components:
          - type: Button
            properties: {ID: 2, label: Save}
      - name: Button
        components:
          - type: Button
            properties: {ID: 3, label: Load}
  - name: Hidden
    active: false
    children:
      - name: Secret
  - name: Content
`

type fixture struct {
	dispatcher *command.Dispatcher
	store      *prefabstore.Store
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	directory := t.TempDir()
	testutil.WriteFile(t, directory, "ui/window.yaml", windowPrefab)
	store := prefabstore.New(directory, testutil.Logger(t))

	registry := command.NewRegistry()
	clk := clock.Fake(time.Unix(0, 0))
	loader := plugin.NewLoader(registry, clk, testutil.Logger(t))
	if _, err := loader.Load(context.Background(), plugin.Catalog{prefab.Entry(store, testutil.Logger(t))}); err != nil {
		t.Fatalf("Load: %v", err)
	}
	return &fixture{dispatcher: command.NewDispatcher(registry, clk, testutil.Logger(t)), store: store}
}

func (f *fixture) call(t *testing.T, commandType string, params command.Document) command.Document {
	t.Helper()
	outcome := f.dispatcher.Dispatch(context.Background(), commandType, params)
	if !outcome.OK() {
		t.Fatalf("%s: %s: %s", commandType, outcome.Error.Code, outcome.Error.Message)
	}
	return outcome.Result
}

func (f *fixture) fail(t *testing.T, commandType string, params command.Document, want command.Code) {
	t.Helper()
	outcome := f.dispatcher.Dispatch(context.Background(), commandType, params)
	if outcome.OK() {
		t.Fatalf("%s succeeded, want %s", commandType, want)
	}
	if outcome.Error.Code != string(want) {
		t.Errorf("%s: got %s (%s), want %s", commandType, outcome.Error.Code, outcome.Error.Message, want)
	}
}

func (f *fixture) reload(t *testing.T) scenegraph.Node {
	t.Helper()
	root, err := f.store.LoadRoot("ui/window.yaml")
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	return root
}

func TestQueryHierarchy(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	result := f.call(t, prefab.QueryHierarchy, command.Document{"prefabPath": "ui/window.yaml"})
	if result["rootName"] != "Window" || result["totalGameObjects"] != 7 {
		t.Errorf("rootName=%v totalGameObjects=%v, want Window/7", result["rootName"], result["totalGameObjects"])
	}
	if revision, _ := result["revision"].(string); len(revision) != 64 {
		t.Errorf("revision: got %q, want 64 hex characters", revision)
	}
	hierarchy := result["hierarchy"].([]*scenegraph.HierarchyNode)
	second := hierarchy[0].Children[0].Children[1]
	if second.Path != "Window/Toolbar/Button" || second.SiblingIndex != 1 || second.Depth != 2 {
		t.Errorf("second button: got %+v", second)
	}

	result = f.call(t, prefab.QueryHierarchy, command.Document{
		"prefabPath": "ui/window.yaml", "includeInactive": false, "maxDepth": 1,
	})
	if result["totalGameObjects"] != 3 {
		t.Errorf("active, depth 1: got %v nodes, want 3", result["totalGameObjects"])
	}

	f.fail(t, prefab.QueryHierarchy, command.Document{"prefabPath": "ui/missing.yaml"}, command.CodeNotFound)
	f.fail(t, prefab.QueryHierarchy, command.Document{}, command.CodeInvalidFields)
}

// countDocumentNodes counts a decoded hierarchy node and everything
// reachable through its children lists.
func countDocumentNodes(t *testing.T, value any) int {
	t.Helper()
	node, ok := value.(map[string]any)
	if !ok {
		t.Fatalf("hierarchy node: got %T, want map", value)
	}
	children, ok := node["children"].([]any)
	if !ok {
		t.Fatalf("node %v: children is %T, want array", node["path"], node["children"])
	}
	total := 1
	for _, child := range children {
		total += countDocumentNodes(t, child)
	}
	return total
}

// walkCount counts live nodes in pre-order, applying the same
// inactive and depth rules as queryHierarchy.
func walkCount(node scenegraph.Node, depth int, includeInactive bool, maxDepth int) int {
	total := 1
	if maxDepth >= 0 && depth >= maxDepth {
		return total
	}
	for _, child := range node.Children() {
		if !includeInactive && !child.Active() {
			continue
		}
		total += walkCount(child, depth+1, includeInactive, maxDepth)
	}
	return total
}

func TestQueryHierarchyDocumentCount(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	root := f.reload(t)

	tests := []struct {
		name            string
		includeInactive bool
		maxDepth        int
	}{
		{name: "everything", includeInactive: true, maxDepth: -1},
		{name: "active only", includeInactive: false, maxDepth: -1},
		{name: "root only", includeInactive: true, maxDepth: 0},
		{name: "depth 1", includeInactive: true, maxDepth: 1},
		{name: "active depth 1", includeInactive: false, maxDepth: 1},
		{name: "depth 2", includeInactive: true, maxDepth: 2},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			result := f.call(t, prefab.QueryHierarchy, command.Document{
				"prefabPath":      "ui/window.yaml",
				"includeInactive": test.includeInactive,
				"maxDepth":        test.maxDepth,
			})
			encoded, err := codec.Marshal(result)
			if err != nil {
				t.Fatalf("Marshal: %v", err)
			}
			var document map[string]any
			if err := codec.Unmarshal(encoded, &document); err != nil {
				t.Fatalf("Unmarshal: %v", err)
			}

			hierarchy, ok := document["hierarchy"].([]any)
			if !ok || len(hierarchy) != 1 {
				t.Fatalf("hierarchy: got %#v, want one root node", document["hierarchy"])
			}
			counted := countDocumentNodes(t, hierarchy[0])
			total, ok := command.ToInt(document["totalGameObjects"])
			if !ok {
				t.Fatalf("totalGameObjects: got %#v", document["totalGameObjects"])
			}
			if counted != total {
				t.Errorf("document count: got %d, totalGameObjects %d", counted, total)
			}
			if walked := walkCount(root, 0, test.includeInactive, test.maxDepth); walked != total {
				t.Errorf("pre-order walk: got %d, totalGameObjects %d", walked, total)
			}
		})
	}
}

func TestQueryComponents(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	result := f.call(t, prefab.QueryComponents, command.Document{
		"prefabPath": "ui/window.yaml", "objectPath": "Window/Toolbar/Button", "siblingIndex": 1,
	})
	if result["totalComponents"] != 1 {
		t.Errorf("totalComponents: got %v", result["totalComponents"])
	}
	components := result["components"]
	if fmtComponents(components) != "Button:Load" {
		t.Errorf("components: got %s, want Button:Load", fmtComponents(components))
	}

	result = f.call(t, prefab.QueryComponents, command.Document{
		"prefabPath": "ui/window.yaml", "objectPath": "Window", "componentFilter": []any{"Label"},
	})
	if result["totalComponents"] != 1 || fmtComponents(result["components"]) != "" {
		t.Errorf("filtered: total=%v components=%s", result["totalComponents"], fmtComponents(result["components"]))
	}

	f.fail(t, prefab.QueryComponents, command.Document{
		"prefabPath": "ui/window.yaml", "objectPath": "Window/Toolbar/Button", "siblingIndex": 2,
	}, command.CodeNotFound)
}

// fmtComponents renders a components result as "Type:label" pairs.
func fmtComponents(value any) string {
	encoded, err := codec.Marshal(value)
	if err != nil {
		return err.Error()
	}
	var views []struct {
		Type       string         `json:"type"`
		Properties map[string]any `json:"properties"`
	}
	if err := codec.Unmarshal(encoded, &views); err != nil {
		return err.Error()
	}
	text := ""
	for index, view := range views {
		if index > 0 {
			text += ","
		}
		label, _ := view.Properties["label"].(string)
		text += view.Type + ":" + label
	}
	return text
}

func TestSetGameObjectProperties(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	result := f.call(t, prefab.SetGameObjectProperties, command.Document{
		"prefabPath": "ui/window.yaml",
		"objectPath": "Window/Content",
		"modifications": []any{
			map[string]any{"property": "name", "oldValue": "Content", "newValue": "Body"},
			map[string]any{"property": "layer", "oldValue": 3, "newValue": 5},
			map[string]any{"property": "tag", "newValue": "Main"},
		},
	})
	summary := result["summary"].(scenegraph.Summary)
	if summary != (scenegraph.Summary{Total: 3, Success: 2, Skipped: 1}) {
		t.Errorf("summary: got %+v", summary)
	}
	if result["saved"] != true || result["newObjectPath"] != "Window/Body" {
		t.Errorf("saved=%v newObjectPath=%v", result["saved"], result["newObjectPath"])
	}
	results := result["results"].([]scenegraph.ModificationResult)
	if results[1].Code != string(command.CodeStaleValue) || results[1].CurrentValue != int64(0) {
		t.Errorf("stale layer result: got %+v", results[1])
	}

	body, err := scenegraph.FindByPath(f.reload(t), "Window/Body", 0)
	if err != nil {
		t.Fatalf("renamed node not saved: %v", err)
	}
	if tag, _ := body.GetProperty("tag"); tag != "Main" {
		t.Errorf("tag after reload: got %v", tag)
	}
	if layer, _ := body.GetProperty("layer"); layer != int64(0) {
		t.Errorf("stale write reached disk: layer=%v", layer)
	}
}

func TestSetGameObjectPropertiesNothingAppliedIsNotSaved(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	result := f.call(t, prefab.SetGameObjectProperties, command.Document{
		"prefabPath": "ui/window.yaml",
		"objectPath": "Window",
		"properties": map[string]any{"layer": 99},
	})
	if result["saved"] != false {
		t.Errorf("saved: got %v, want false", result["saved"])
	}
	f.fail(t, prefab.SetGameObjectProperties, command.Document{
		"prefabPath": "ui/window.yaml", "objectPath": "Window", "properties": map[string]any{},
	}, command.CodeInvalidFields)
	f.fail(t, prefab.SetGameObjectProperties, command.Document{
		"prefabPath": "ui/window.yaml", "objectPath": "Window",
	}, command.CodeInvalidFields)
}

func TestDeleteGameObject(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	result := f.call(t, prefab.DeleteGameObject, command.Document{
		"prefabPath": "ui/window.yaml", "objectPath": "Window/Toolbar",
	})
	if result["totalDeletedCount"] != 3 || result["deletedObjectPath"] != "Window/Toolbar" {
		t.Errorf("delete result: got %v", result)
	}
	if _, err := scenegraph.FindByPath(f.reload(t), "Window/Toolbar", 0); command.CodeOf(err) != command.CodeNotFound {
		t.Errorf("Toolbar still present after delete: %v", err)
	}

	f.fail(t, prefab.DeleteGameObject, command.Document{
		"prefabPath": "ui/window.yaml", "objectPath": "Window",
	}, command.CodeCannotDeleteRoot)
}

func TestMoveOrCopyGameObject(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	moved := f.call(t, prefab.MoveOrCopyGameObject, command.Document{
		"prefabPath":         "ui/window.yaml",
		"sourcePath":         "Window/Toolbar/Button",
		"sourceSiblingIndex": 1,
		"targetParentPath":   "Window/Content",
	})
	if moved["newPath"] != "Window/Content/Button" || moved["oldSiblingIndex"] != 1 || moved["newSiblingIndex"] != 0 {
		t.Errorf("move result: got %v", moved)
	}

	copied := f.call(t, prefab.MoveOrCopyGameObject, command.Document{
		"prefabPath":         "ui/window.yaml",
		"sourcePath":         "Window/Content",
		"targetParentPath":   "Window/Toolbar",
		"targetSiblingIndex": 0,
		"isCopy":             true,
	})
	if copied["copiedPath"] != "Window/Toolbar/Content" || copied["targetSiblingIndex"] != 0 {
		t.Errorf("copy result: got %v", copied)
	}

	root := f.reload(t)
	if _, err := scenegraph.FindByPath(root, "Window/Toolbar/Content/Button", 0); err != nil {
		t.Errorf("copied subtree not saved: %v", err)
	}
	if _, err := scenegraph.FindByPath(root, "Window/Content/Button", 0); err != nil {
		t.Errorf("original subtree lost: %v", err)
	}

	f.fail(t, prefab.MoveOrCopyGameObject, command.Document{
		"prefabPath": "ui/window.yaml", "sourcePath": "Window/Toolbar", "targetParentPath": "Window/Toolbar/Content",
	}, command.CodeInvalidMove)
	f.fail(t, prefab.MoveOrCopyGameObject, command.Document{
		"prefabPath": "ui/window.yaml", "sourcePath": "Window/Toolbar", "targetParentPath": "Window", "isCopy": true,
	}, command.CodeInvalidMove)
}
