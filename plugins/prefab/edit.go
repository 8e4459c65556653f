// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package prefab

import (
	"context"
	"maps"
	"slices"

	"github.com/bureau-foundation/agentcmd/lib/command"
	"github.com/bureau-foundation/agentcmd/lib/scenegraph"
)

// setGameObjectProperties accepts either a properties object of
// unconditional writes or a modifications list whose entries may carry
// an oldValue check.
func (p *Plugin) setGameObjectProperties(_ context.Context, params *command.Params) (command.Document, error) {
	modifications, err := modificationsFrom(params)
	if err != nil {
		return nil, err
	}
	located, err := p.locate(params, "objectPath", "siblingIndex")
	if err != nil {
		return nil, err
	}
	objectPath := scenegraph.PathOf(located.node)

	results, summary := scenegraph.ApplyModifications(located.node, modifications)
	saved := false
	if summary.Success > 0 {
		if err := p.save(located); err != nil {
			return nil, err
		}
		saved = true
	}
	return command.Document{
		"prefabPath":        located.prefabPath,
		"objectPath":        objectPath,
		"newObjectPath":     scenegraph.PathOf(located.node),
		"instanceID":        located.node.ID(),
		"results":           results,
		"summary":           summary,
		"currentProperties": scenegraph.PropertyBag(located.node),
		"saved":             saved,
	}, nil
}

func modificationsFrom(params *command.Params) ([]scenegraph.Modification, error) {
	hasProperties, hasModifications := params.Has("properties"), params.Has("modifications")
	switch {
	case hasProperties && hasModifications:
		return nil, command.InvalidFields("give either %q or %q, not both", "properties", "modifications")
	case hasModifications:
		list, err := params.GetList("modifications")
		if err != nil {
			return nil, err
		}
		return scenegraph.ParseModifications("modifications", list)
	case hasProperties:
		properties, err := params.GetObject("properties")
		if err != nil {
			return nil, err
		}
		if len(properties) == 0 {
			return nil, command.InvalidFields("field %q must name at least one property", "properties")
		}
		modifications := make([]scenegraph.Modification, 0, len(properties))
		for _, name := range slices.Sorted(maps.Keys(properties)) {
			modifications = append(modifications, scenegraph.Modification{Property: name, NewValue: properties[name]})
		}
		return modifications, nil
	default:
		return nil, command.MissingField("properties")
	}
}

func (p *Plugin) deleteGameObject(_ context.Context, params *command.Params) (command.Document, error) {
	located, err := p.locate(params, "objectPath", "siblingIndex")
	if err != nil {
		return nil, err
	}
	structural, err := scenegraph.Structural(located.node)
	if err != nil {
		return nil, err
	}
	deletedPath := scenegraph.PathOf(located.node)
	removed, err := structural.Remove()
	if err != nil {
		return nil, err
	}
	if err := p.save(located); err != nil {
		return nil, err
	}
	return command.Document{
		"prefabPath":         located.prefabPath,
		"deletedObjectPath":  deletedPath,
		"deletedInstanceID":  located.node.ID(),
		"deletedObjectCount": 1,
		"totalDeletedCount":  removed,
		"saved":              true,
	}, nil
}

// moveOrCopyGameObject reparents (or duplicates) sourcePath under
// targetParentPath. A targetSiblingIndex outside the parent's child
// range appends.
func (p *Plugin) moveOrCopyGameObject(_ context.Context, params *command.Params) (command.Document, error) {
	located, err := p.locate(params, "sourcePath", "sourceSiblingIndex")
	if err != nil {
		return nil, err
	}
	targetParentPath, err := params.RequireString("targetParentPath")
	if err != nil {
		return nil, err
	}
	targetSiblingIndex, err := params.GetInt("targetSiblingIndex", -1)
	if err != nil {
		return nil, err
	}
	isCopy, err := params.GetBool("isCopy", false)
	if err != nil {
		return nil, err
	}
	targetParent, err := scenegraph.FindByPath(located.root, targetParentPath, 0)
	if err != nil {
		return nil, err
	}
	source, err := scenegraph.Structural(located.node)
	if err != nil {
		return nil, err
	}

	sourcePath := scenegraph.PathOf(source)
	sourceSiblingIndex := scenegraph.IndexOf(source)

	if isCopy {
		if parent := source.Parent(); parent != nil && parent.ID() == targetParent.ID() {
			return nil, command.Errorf(command.CodeInvalidMove,
				"cannot copy %q into its own parent %q", sourcePath, targetParentPath)
		}
		duplicate, err := source.CopyTo(targetParent, targetSiblingIndex)
		if err != nil {
			return nil, err
		}
		if err := p.save(located); err != nil {
			return nil, err
		}
		return command.Document{
			"prefabPath":         located.prefabPath,
			"operationType":      "copy",
			"sourcePath":         sourcePath,
			"copiedPath":         scenegraph.PathOf(duplicate),
			"sourceSiblingIndex": sourceSiblingIndex,
			"targetSiblingIndex": scenegraph.IndexOf(duplicate),
			"originalInstanceID": source.ID(),
			"copiedInstanceID":   duplicate.ID(),
			"saved":              true,
		}, nil
	}

	if err := source.MoveTo(targetParent, targetSiblingIndex); err != nil {
		return nil, err
	}
	if err := p.save(located); err != nil {
		return nil, err
	}
	return command.Document{
		"prefabPath":         located.prefabPath,
		"operationType":      "move",
		"sourcePath":         sourcePath,
		"oldPath":            sourcePath,
		"newPath":            scenegraph.PathOf(source),
		"oldSiblingIndex":    sourceSiblingIndex,
		"newSiblingIndex":    scenegraph.IndexOf(source),
		"operatedInstanceID": source.ID(),
		"saved":              true,
	}, nil
}
