// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package prefab provides the prefab.* commands: hierarchy and
// component queries plus property, delete, and move/copy edits on a
// graph loaded through a [scenegraph.Host]. Every edit loads the root
// fresh, applies the change, and saves before returning.
package prefab

import (
	"context"
	"errors"
	"log/slog"

	"github.com/bureau-foundation/agentcmd/lib/command"
	"github.com/bureau-foundation/agentcmd/lib/plugin"
	"github.com/bureau-foundation/agentcmd/lib/scenegraph"
)

const (
	Name     = "prefab"
	Priority = 100
)

// Command types.
const (
	QueryHierarchy          = "prefab.queryHierarchy"
	QueryComponents         = "prefab.queryComponents"
	SetGameObjectProperties = "prefab.setGameObjectProperties"
	DeleteGameObject        = "prefab.deleteGameObject"
	MoveOrCopyGameObject    = "prefab.moveOrCopyGameObject"
)

// Plugin serves the prefab commands over a host.
type Plugin struct {
	host   scenegraph.Host
	logger *slog.Logger
}

var _ plugin.Plugin = (*Plugin)(nil)

func New(host scenegraph.Host, logger *slog.Logger) *Plugin {
	return &Plugin{host: host, logger: logger}
}

// Entry returns the catalog entry for the prefab plugin.
func Entry(host scenegraph.Host, logger *slog.Logger) plugin.Entry {
	return plugin.Entry{
		Descriptor: plugin.Descriptor{Name: Name, Priority: Priority},
		Factory:    func() (plugin.Plugin, error) { return New(host, logger), nil },
	}
}

func (p *Plugin) Name() string  { return Name }
func (p *Plugin) Priority() int { return Priority }

func (p *Plugin) RegisterHandlers(registrar plugin.Registrar) error {
	var errs []error
	for _, binding := range []struct {
		commandType string
		handler     command.HandlerFunc
	}{
		{QueryHierarchy, p.queryHierarchy},
		{QueryComponents, p.queryComponents},
		{SetGameObjectProperties, p.setGameObjectProperties},
		{DeleteGameObject, p.deleteGameObject},
		{MoveOrCopyGameObject, p.moveOrCopyGameObject},
	} {
		errs = append(errs, registrar.Register(binding.commandType, binding.handler))
	}
	return errors.Join(errs...)
}

func (p *Plugin) Initialize(context.Context) error {
	if p.host == nil {
		return errors.New("prefab plugin has no host")
	}
	return nil
}

func (p *Plugin) Shutdown(context.Context) error { return nil }

// target is a loaded root plus one node resolved inside it.
type target struct {
	prefabPath string
	root       scenegraph.Node
	node       scenegraph.Node
}

// locate loads prefabPath and resolves the node named by pathField
// and siblingField.
func (p *Plugin) locate(params *command.Params, pathField, siblingField string) (*target, error) {
	prefabPath, err := params.RequireString("prefabPath")
	if err != nil {
		return nil, err
	}
	objectPath, err := params.RequireString(pathField)
	if err != nil {
		return nil, err
	}
	siblingIndex, err := params.GetInt(siblingField, 0)
	if err != nil {
		return nil, err
	}
	root, err := scenegraph.Load(p.host, prefabPath)
	if err != nil {
		return nil, err
	}
	node, err := scenegraph.FindByPath(root, objectPath, siblingIndex)
	if err != nil {
		return nil, err
	}
	return &target{prefabPath: prefabPath, root: root, node: node}, nil
}

func (p *Plugin) save(located *target) error {
	if err := scenegraph.Persist(p.host, located.prefabPath, located.root); err != nil {
		return err
	}
	p.logger.Debug("prefab edited", "prefab", located.prefabPath)
	return nil
}
