// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package prefab

import (
	"context"
	"slices"

	"github.com/bureau-foundation/agentcmd/lib/command"
	"github.com/bureau-foundation/agentcmd/lib/scenegraph"
)

func (p *Plugin) queryHierarchy(_ context.Context, params *command.Params) (command.Document, error) {
	prefabPath, err := params.RequireString("prefabPath")
	if err != nil {
		return nil, err
	}
	includeInactive, err := params.GetBool("includeInactive", true)
	if err != nil {
		return nil, err
	}
	maxDepth, err := params.GetInt("maxDepth", -1)
	if err != nil {
		return nil, err
	}

	root, err := scenegraph.Load(p.host, prefabPath)
	if err != nil {
		return nil, err
	}
	hierarchy := scenegraph.Traverse(root, scenegraph.TraverseOptions{
		IncludeInactive: includeInactive,
		MaxDepth:        maxDepth,
	})
	revision, err := scenegraph.Fingerprint(root)
	if err != nil {
		return nil, command.RuntimeError(err)
	}
	return command.Document{
		"prefabPath":       prefabPath,
		"rootName":         root.Name(),
		"totalGameObjects": scenegraph.Count(hierarchy),
		"revision":         revision,
		"hierarchy":        []*scenegraph.HierarchyNode{hierarchy},
	}, nil
}

// componentView is one component in a query result.
type componentView struct {
	Type       string         `json:"type"`
	InstanceID int64          `json:"instanceID"`
	Properties map[string]any `json:"properties"`
}

func (p *Plugin) queryComponents(_ context.Context, params *command.Params) (command.Document, error) {
	located, err := p.locate(params, "objectPath", "siblingIndex")
	if err != nil {
		return nil, err
	}
	filter, err := params.GetStringList("componentFilter")
	if err != nil {
		return nil, err
	}

	all := located.node.Components()
	components := make([]componentView, 0, len(all))
	for _, component := range all {
		if len(filter) > 0 && !slices.Contains(filter, component.Type()) {
			continue
		}
		components = append(components, componentView{
			Type:       component.Type(),
			InstanceID: component.ID(),
			Properties: scenegraph.PropertyBag(component),
		})
	}
	return command.Document{
		"prefabPath":           located.prefabPath,
		"objectPath":           scenegraph.PathOf(located.node),
		"instanceID":           located.node.ID(),
		"gameObjectProperties": scenegraph.PropertyBag(located.node),
		"totalComponents":      len(all),
		"components":           components,
	}, nil
}
