// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package scenegraph_test

import (
	"testing"

	"github.com/bureau-foundation/agentcmd/lib/scenegraph"
)

func okButton(t *testing.T) scenegraph.Component {
	t.Helper()
	return mustFind(t, loadDialog(t), "Dialog/Footer/Ok", 0).Components()[0]
}

func TestReadProperty(t *testing.T) {
	t.Parallel()
	button := okButton(t)
	value, err := scenegraph.ReadProperty(button, "label")
	if err != nil || value != "OK" {
		t.Errorf("ReadProperty(label): got (%v, %v)", value, err)
	}
	_, err = scenegraph.ReadProperty(button, "color")
	requireCode(t, err, "PROPERTY_NOT_FOUND")
}

func TestPropertyBag(t *testing.T) {
	t.Parallel()
	bag := scenegraph.PropertyBag(okButton(t))
	if len(bag) != 4 || bag["label"] != "OK" || bag["speed"] != 1.5 {
		t.Errorf("PropertyBag: got %v", bag)
	}
}

func TestApplyModificationsStaleLeavesLiveValue(t *testing.T) {
	t.Parallel()
	button := okButton(t)
	results, summary := scenegraph.ApplyModifications(button, []scenegraph.Modification{
		{Property: "label", OldValue: "Cancel", HasOldValue: true, NewValue: "Apply"},
	})

	if results[0].Status != scenegraph.StatusSkipped || results[0].Code != "STALE_VALUE" {
		t.Errorf("result: got status=%s code=%s, want skipped STALE_VALUE", results[0].Status, results[0].Code)
	}
	if results[0].CurrentValue != "OK" || results[0].ExpectedValue != "Cancel" {
		t.Errorf("result values: current=%v expected=%v", results[0].CurrentValue, results[0].ExpectedValue)
	}
	if value, _ := button.GetProperty("label"); value != "OK" {
		t.Errorf("live value after stale write: got %v, want OK", value)
	}
	if summary != (scenegraph.Summary{Total: 1, Skipped: 1}) {
		t.Errorf("summary: got %+v", summary)
	}
}

func TestApplyModificationsWithoutOldValueApplies(t *testing.T) {
	t.Parallel()
	button := okButton(t)
	results, _ := scenegraph.ApplyModifications(button, []scenegraph.Modification{
		{Property: "label", NewValue: "Apply"},
	})
	if results[0].Status != scenegraph.StatusSuccess {
		t.Fatalf("status: got %s (%s)", results[0].Status, results[0].Message)
	}
	if results[0].OldValue != "OK" || results[0].CurrentValue != "Apply" {
		t.Errorf("values: old=%v current=%v", results[0].OldValue, results[0].CurrentValue)
	}
	if value, _ := button.GetProperty("label"); value != "Apply" {
		t.Errorf("live value: got %v, want Apply", value)
	}
}

func TestApplyModificationsIsPerProperty(t *testing.T) {
	t.Parallel()
	button := okButton(t)
	results, summary := scenegraph.ApplyModifications(button, []scenegraph.Modification{
		{Property: "count", OldValue: 3.0, HasOldValue: true, NewValue: 4},
		{Property: "speed", OldValue: 9, HasOldValue: true, NewValue: 2.5},
		{Property: "color", NewValue: "red"},
		{Property: "label", NewValue: 12},
	})

	wantCodes := []string{"", "STALE_VALUE", "PROPERTY_NOT_FOUND", "INVALID_FIELDS"}
	for index, result := range results {
		if result.Code != wantCodes[index] {
			t.Errorf("result %d (%s): code %q, want %q", index, result.Property, result.Code, wantCodes[index])
		}
	}
	if summary != (scenegraph.Summary{Total: 4, Success: 1, Skipped: 1, Failed: 2}) {
		t.Errorf("summary: got %+v", summary)
	}
	if value, _ := button.GetProperty("count"); !scenegraph.Equal(value, 4) {
		t.Errorf("count: got %v, want 4", value)
	}
	if value, _ := button.GetProperty("speed"); value != 1.5 {
		t.Errorf("speed after stale write: got %v, want 1.5", value)
	}
}

func TestParseModifications(t *testing.T) {
	t.Parallel()
	modifications, err := scenegraph.ParseModifications("modifications", []any{
		map[string]any{"property": "label", "newValue": "A"},
		map[string]any{"property": "count", "oldValue": nil, "newValue": 1.0},
	})
	if err != nil {
		t.Fatalf("ParseModifications: %v", err)
	}
	if modifications[0].HasOldValue || !modifications[1].HasOldValue {
		t.Errorf("HasOldValue: got %v, %v; want false, true", modifications[0].HasOldValue, modifications[1].HasOldValue)
	}

	for _, invalid := range [][]any{
		nil,
		{"label"},
		{map[string]any{"newValue": 1.0}},
		{map[string]any{"property": "label"}},
	} {
		_, err := scenegraph.ParseModifications("modifications", invalid)
		requireCode(t, err, "INVALID_FIELDS")
	}
}
