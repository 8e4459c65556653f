// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package keyed_test

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
	"github.com/bureau-foundation/agentcmd/plugins/keyed"
)

// Four components share ID 7. The root carries a Panel and Footer a
// Dialog, so matches resolve to two different containers.
const dialogPrefab = `
name: Dialog
components:
  - type: Panel
    properties: {ID: 100}
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
            properties: {ID: 7, label: OK, speed: 1.5}
`

// mixedPrefab keys a Label on a node that also carries a Button.
const mixedPrefab = `
name: Root
children:
  - name: Row
    components:
      - type: Label
        properties: {ID: 7}
      - type: Button
        properties: {ID: 9}
`

type match struct {
	Index         int    `json:"index"`
	ComponentType string `json:"componentType"`
	GameObject    struct {
		Path string `json:"path"`
	} `json:"gameObject"`
	Container struct {
		Path string `json:"path"`
	} `json:"container"`
	ContainerType string `json:"containerType"`
}

func setup(t *testing.T) (*command.Dispatcher, *prefabstore.Store) {
	t.Helper()
	directory := t.TempDir()
	testutil.WriteFile(t, directory, "dialog.yaml", dialogPrefab)
	testutil.WriteFile(t, directory, "mixed.yaml", mixedPrefab)
	store := prefabstore.New(directory, testutil.Logger(t))

	registry := command.NewRegistry()
	clk := clock.Fake(time.Unix(0, 0))
	loader := plugin.NewLoader(registry, clk, testutil.Logger(t))
	entry := keyed.Entry(store, keyed.Options{}, testutil.Logger(t))
	if _, err := loader.Load(context.Background(), plugin.Catalog{entry}); err != nil {
		t.Fatalf("Load: %v", err)
	}
	return command.NewDispatcher(registry, clk, testutil.Logger(t)), store
}

func decodeMatches(t *testing.T, value any) []match {
	t.Helper()
	encoded, err := codec.Marshal(value)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	var matches []match
	if err := codec.Unmarshal(encoded, &matches); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	return matches
}

func TestQueryByKey(t *testing.T) {
	t.Parallel()
	dispatcher, _ := setup(t)

	outcome := dispatcher.Dispatch(context.Background(), keyed.QueryByKey, command.Document{
		"prefabPath": "dialog.yaml", "key": 7,
	})
	if !outcome.OK() {
		t.Fatalf("queryByKey: %+v", outcome.Error)
	}
	matches := decodeMatches(t, outcome.Result["matches"])
	if len(matches) != 4 {
		t.Fatalf("matches: got %d, want 4", len(matches))
	}
	last := matches[3]
	if last.GameObject.Path != "Dialog/Footer/Ok" || last.Container.Path != "Dialog/Footer" || last.ContainerType != "Dialog" {
		t.Errorf("Ok match: got %+v", last)
	}
	if matches[0].Container.Path != "Dialog" || matches[0].ContainerType != "Panel" {
		t.Errorf("Header match falls back to root: got %+v", matches[0])
	}
}

func TestQueryByKeyFilterKeepsIndices(t *testing.T) {
	t.Parallel()
	dispatcher, _ := setup(t)

	outcome := dispatcher.Dispatch(context.Background(), keyed.QueryByKey, command.Document{
		"prefabPath": "dialog.yaml", "key": 7, "componentFilter": []any{"Button"},
	})
	if !outcome.OK() {
		t.Fatalf("queryByKey: %+v", outcome.Error)
	}
	matches := decodeMatches(t, outcome.Result["matches"])
	if len(matches) != 2 || matches[0].Index != 1 || matches[1].Index != 3 {
		t.Errorf("filtered matches: got %+v, want indices 1 and 3", matches)
	}
}

func TestQueryByKeyFilterUsesMatchedComponentType(t *testing.T) {
	t.Parallel()
	dispatcher, _ := setup(t)

	outcome := dispatcher.Dispatch(context.Background(), keyed.QueryByKey, command.Document{
		"prefabPath": "mixed.yaml", "key": 7, "componentFilter": []any{"Button"},
	})
	if !outcome.OK() {
		t.Fatalf("queryByKey: %+v", outcome.Error)
	}
	if matches := decodeMatches(t, outcome.Result["matches"]); len(matches) != 0 {
		t.Errorf("Button filter on a keyed Label: got %+v, want no matches", matches)
	}

	outcome = dispatcher.Dispatch(context.Background(), keyed.QueryByKey, command.Document{
		"prefabPath": "mixed.yaml", "key": 7, "componentFilter": []any{"Label"},
	})
	matches := decodeMatches(t, outcome.Result["matches"])
	if len(matches) != 1 || matches[0].ComponentType != "Label" || matches[0].Index != 0 {
		t.Errorf("Label filter: got %+v, want the Row label at index 0", matches)
	}
}

func TestQueryByKeyEmptyFilterVersusAbsentKey(t *testing.T) {
	t.Parallel()
	dispatcher, _ := setup(t)

	outcome := dispatcher.Dispatch(context.Background(), keyed.QueryByKey, command.Document{
		"prefabPath": "dialog.yaml", "key": 7, "componentFilter": []any{"Slider"},
	})
	if !outcome.OK() || outcome.Result["totalMatches"] != 0 {
		t.Errorf("filtered to nothing: got %+v, want success with totalMatches 0", outcome)
	}

	outcome = dispatcher.Dispatch(context.Background(), keyed.QueryByKey, command.Document{
		"prefabPath": "dialog.yaml", "key": 999,
	})
	if outcome.OK() || outcome.Error.Code != string(command.CodeNotFound) {
		t.Errorf("absent key: got %+v, want NOT_FOUND", outcome)
	}
}

func TestSetComponentProperties(t *testing.T) {
	t.Parallel()
	dispatcher, store := setup(t)

	outcome := dispatcher.Dispatch(context.Background(), keyed.SetComponentProperties, command.Document{
		"prefabPath": "dialog.yaml",
		"key":        7,
		"index":      3,
		"modifications": []any{
			map[string]any{"property": "speed", "oldValue": 1.5, "newValue": 2},
			map[string]any{"property": "label", "oldValue": "Cancel", "newValue": "Close"},
			map[string]any{"property": "missing", "newValue": 1},
		},
	})
	if !outcome.OK() {
		t.Fatalf("setComponentProperties: %+v", outcome.Error)
	}
	summary := outcome.Result["summary"].(scenegraph.Summary)
	if summary != (scenegraph.Summary{Total: 3, Success: 1, Skipped: 1, Failed: 1}) {
		t.Errorf("summary: got %+v", summary)
	}

	root, err := store.LoadRoot("dialog.yaml")
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	ok, _ := scenegraph.FindByPath(root, "Dialog/Footer/Ok", 0)
	button := ok.Components()[0]
	if speed, _ := button.GetProperty("speed"); speed != int64(2) {
		t.Errorf("speed: got %#v, want 2", speed)
	}
	if label, _ := button.GetProperty("label"); label != "OK" {
		t.Errorf("stale label write applied: got %v", label)
	}
}

func TestSetComponentPropertiesIndexOutOfRange(t *testing.T) {
	t.Parallel()
	dispatcher, _ := setup(t)
	for _, index := range []int{4, -1} {
		outcome := dispatcher.Dispatch(context.Background(), keyed.SetComponentProperties, command.Document{
			"prefabPath":    "dialog.yaml",
			"key":           7,
			"index":         index,
			"modifications": []any{map[string]any{"property": "label", "newValue": "x"}},
		})
		if outcome.OK() || outcome.Error.Code != string(command.CodeIndexOutOfRange) {
			t.Errorf("index %d: got %+v, want INDEX_OUT_OF_RANGE", index, outcome)
		}
	}
}
