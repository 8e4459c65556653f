// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package prefabstore

import (
	"errors"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/bureau-foundation/agentcmd/lib/command"
	"github.com/bureau-foundation/agentcmd/lib/scenegraph"
	"github.com/bureau-foundation/agentcmd/lib/testutil"
)

const menuYAML = `
name: Menu
components:
  - type: Panel
    properties: {ID: 1, title: Main}
children:
  - name: Play
    layer: 5
    components:
      - type: Button
        properties: {ID: 2, label: Play, scale: 1.25}
  - name: Quit
    active: false
    tag: Exit
`

const menuJSONC = `{
  // Same menu in JSON with comments.
  "name": "Menu",
  "components": [{"type": "Panel", "properties": {"ID": 1, "title": "Main"}}],
  "children": [
    {"name": "Play", "layer": 5, "components": [{"type": "Button", "properties": {"ID": 2, "label": "Play", "scale": 1.25}}]},
    {"name": "Quit", "active": false, "tag": "Exit"}, // trailing comma tolerated
  ]
}`

func parseMenu(t *testing.T) *Node {
	t.Helper()
	root, err := Parse([]byte(menuYAML), FormatYAML)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	return root
}

func TestParseFormatsAgree(t *testing.T) {
	t.Parallel()
	fromYAML := parseMenu(t)
	fromJSON, err := Parse([]byte(menuJSONC), FormatJSON)
	if err != nil {
		t.Fatalf("Parse JSONC: %v", err)
	}
	yamlRevision, _ := scenegraph.Fingerprint(fromYAML)
	jsonRevision, _ := scenegraph.Fingerprint(fromJSON)
	if yamlRevision != jsonRevision {
		t.Errorf("YAML and JSONC documents fingerprint differently")
	}
}

func TestParseAssignsPreorderIDs(t *testing.T) {
	t.Parallel()
	root := parseMenu(t)
	// Menu=1, Panel=2, Play=3, Button=4, Quit=5.
	play := root.children[0]
	if root.ID() != 1 || root.components[0].ID() != 2 || play.ID() != 3 || play.components[0].ID() != 4 || root.children[1].ID() != 5 {
		t.Errorf("IDs: menu=%d panel=%d play=%d button=%d quit=%d",
			root.ID(), root.components[0].ID(), play.ID(), play.components[0].ID(), root.children[1].ID())
	}
}

func TestParseDefaultsAndNormalization(t *testing.T) {
	t.Parallel()
	root := parseMenu(t)
	if tag, _ := root.GetProperty(PropertyTag); tag != DefaultTag {
		t.Errorf("root tag: got %v, want %s", tag, DefaultTag)
	}
	if active, _ := root.children[1].GetProperty(PropertyIsActive); active != false {
		t.Errorf("Quit isActive: got %v, want false", active)
	}
	button := root.children[0].components[0]
	if id, _ := button.GetProperty("ID"); id != int64(2) {
		t.Errorf("ID: got %#v, want int64(2)", id)
	}
	if scale, _ := button.GetProperty("scale"); scale != 1.25 {
		t.Errorf("scale: got %#v, want 1.25", scale)
	}
}

func TestParseRejectsInvalidDocuments(t *testing.T) {
	t.Parallel()
	for name, document := range map[string]string{
		"unnamed child":   "name: Root\nchildren:\n  - layer: 1\n",
		"slash in name":   "name: A/B\n",
		"layer too large": "name: Root\nlayer: 40\n",
		"untyped":         "name: Root\ncomponents:\n  - properties: {a: 1}\n",
		"malformed":       "name: [unterminated\n",
	} {
		if _, err := Parse([]byte(document), FormatYAML); err == nil {
			t.Errorf("%s: Parse succeeded", name)
		}
	}
}

func TestNodeSetProperty(t *testing.T) {
	t.Parallel()
	play := parseMenu(t).children[0]

	valid := map[string]any{
		PropertyName:      "Start",
		PropertyTag:       "Primary",
		PropertyLayer:     "Water",
		PropertyIsActive:  false,
		PropertyIsStatic:  true,
		PropertyHideFlags: 2.0,
	}
	for name, value := range valid {
		if err := play.SetProperty(name, value); err != nil {
			t.Errorf("SetProperty(%s, %v): %v", name, value, err)
		}
	}
	if layer, _ := play.GetProperty(PropertyLayer); layer != int64(4) {
		t.Errorf("layer after naming Water: got %v, want 4", layer)
	}

	invalid := []struct {
		name  string
		value any
		code  command.Code
	}{
		{PropertyName, "", command.CodeInvalidFields},
		{PropertyLayer, 32, command.CodeInvalidFields},
		{PropertyLayer, "Sky", command.CodeInvalidFields},
		{PropertyIsActive, "yes", command.CodeInvalidFields},
		{PropertyHideFlags, -1, command.CodeInvalidFields},
		{"position", 1, command.CodePropertyNotFound},
	}
	for _, test := range invalid {
		err := play.SetProperty(test.name, test.value)
		if command.CodeOf(err) != test.code {
			t.Errorf("SetProperty(%s, %v): got %v, want %s", test.name, test.value, err, test.code)
		}
	}
}

func TestComponentSetPropertyKeepsKind(t *testing.T) {
	t.Parallel()
	button := parseMenu(t).children[0].components[0]
	if err := button.SetProperty("ID", 9.0); err != nil {
		t.Fatalf("SetProperty(ID): %v", err)
	}
	if id, _ := button.GetProperty("ID"); id != int64(9) {
		t.Errorf("ID: got %#v, want int64(9)", id)
	}
	if err := button.SetProperty("label", true); command.CodeOf(err) != command.CodeInvalidFields {
		t.Errorf("SetProperty(label, true): got %v, want INVALID_FIELDS", err)
	}
}

func TestStructuralEdits(t *testing.T) {
	t.Parallel()
	root := parseMenu(t)
	play, quit := root.children[0], root.children[1]

	if _, err := root.Remove(); command.CodeOf(err) != command.CodeCannotDeleteRoot {
		t.Errorf("Remove(root): got %v, want CANNOT_DELETE_ROOT", err)
	}

	if err := play.MoveTo(quit, -1); err != nil {
		t.Fatalf("MoveTo: %v", err)
	}
	if scenegraph.PathOf(play) != "Menu/Quit/Play" {
		t.Errorf("moved path: got %s", scenegraph.PathOf(play))
	}
	if err := quit.MoveTo(play, 0); command.CodeOf(err) != command.CodeInvalidMove {
		t.Errorf("MoveTo(descendant): got %v, want INVALID_MOVE", err)
	}

	duplicate, err := quit.CopyTo(root, 0)
	if err != nil {
		t.Fatalf("CopyTo: %v", err)
	}
	if duplicate.ID() == quit.ID() || duplicate.Children()[0].ID() == play.ID() {
		t.Error("copy reused instance IDs")
	}
	if scenegraph.IndexOf(duplicate) != 0 || len(root.children) != 2 {
		t.Errorf("copy position: index %d, root children %d", scenegraph.IndexOf(duplicate), len(root.children))
	}

	removed, err := quit.Remove()
	if err != nil || removed != 2 {
		t.Errorf("Remove(Quit): got (%d, %v), want (2, nil)", removed, err)
	}
	if quit.Parent() != nil {
		t.Error("removed node still has a parent")
	}
}

func TestStoreRoundTrip(t *testing.T) {
	t.Parallel()
	for _, name := range []string{"ui/menu.yaml", "ui/menu.jsonc"} {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			directory := t.TempDir()
			content := menuYAML
			if filepath.Ext(name) == ".jsonc" {
				content = menuJSONC
			}
			testutil.WriteFile(t, directory, name, content)
			store := New(directory, testutil.Logger(t))

			loaded, err := store.LoadRoot(name)
			if err != nil {
				t.Fatalf("LoadRoot: %v", err)
			}
			if err := loaded.(*Node).children[0].components[0].SetProperty("label", "Start"); err != nil {
				t.Fatalf("SetProperty: %v", err)
			}
			if err := store.Save(name, loaded); err != nil {
				t.Fatalf("Save: %v", err)
			}

			reloaded, err := store.LoadRoot(name)
			if err != nil {
				t.Fatalf("reload: %v", err)
			}
			before, _ := scenegraph.Fingerprint(loaded)
			after, _ := scenegraph.Fingerprint(reloaded)
			if before != after {
				t.Error("saved document does not reload to the same content")
			}
		})
	}
}

func TestStoreErrors(t *testing.T) {
	t.Parallel()
	directory := t.TempDir()
	store := New(directory, testutil.Logger(t))

	_, err := store.LoadRoot("missing.yaml")
	if !errors.Is(err, scenegraph.ErrRootNotFound) {
		t.Errorf("LoadRoot(missing): got %v, want ErrRootNotFound", err)
	}
	for _, path := range []string{"../escape.yaml", "/etc/passwd.yaml", "notes.txt", ""} {
		if _, err := store.LoadRoot(path); command.CodeOf(err) != command.CodeInvalidFields {
			t.Errorf("LoadRoot(%q): got %v, want INVALID_FIELDS", path, err)
		}
	}
}

func TestStoreList(t *testing.T) {
	t.Parallel()
	directory := t.TempDir()
	testutil.WriteFile(t, directory, "b.yaml", menuYAML)
	testutil.WriteFile(t, directory, "ui/a.jsonc", menuJSONC)
	testutil.WriteFile(t, directory, "README.md", "not a prefab")

	paths, err := New(directory, testutil.Logger(t)).List()
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if fmt.Sprint(paths) != "[b.yaml ui/a.jsonc]" {
		t.Errorf("List: got %v", paths)
	}
}
