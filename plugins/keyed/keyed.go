// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package keyed provides commands that address components by the value
// of a key property rather than by path. Several components may share
// a key; matches are numbered in pre-order and callers pick one by
// index.
package keyed

import (
	"context"
	"errors"
	"log/slog"

	"github.com/bureau-foundation/agentcmd/lib/command"
	"github.com/bureau-foundation/agentcmd/lib/plugin"
	"github.com/bureau-foundation/agentcmd/lib/scenegraph"
)

const (
	Name     = "keyed"
	Priority = 200

	QueryByKey             = "keyed.queryByKey"
	SetComponentProperties = "keyed.setComponentProperties"
)

// DefaultKeyProperty is the component property matched against a key.
const DefaultKeyProperty = "ID"

// DefaultContainerTypes are the component types that mark a node as
// the container reported for each match.
var DefaultContainerTypes = []string{"Panel", "Dialog"}

// Options configures key matching.
type Options struct {
	KeyProperty    string
	ContainerTypes []string
}

type Plugin struct {
	host    scenegraph.Host
	options Options
	logger  *slog.Logger
}

var _ plugin.Plugin = (*Plugin)(nil)

// New creates the keyed plugin. Empty options fall back to the
// defaults.
func New(host scenegraph.Host, options Options, logger *slog.Logger) *Plugin {
	if options.KeyProperty == "" {
		options.KeyProperty = DefaultKeyProperty
	}
	if options.ContainerTypes == nil {
		options.ContainerTypes = DefaultContainerTypes
	}
	return &Plugin{host: host, options: options, logger: logger}
}

// Entry returns the catalog entry for the keyed plugin.
func Entry(host scenegraph.Host, options Options, logger *slog.Logger) plugin.Entry {
	return plugin.Entry{
		Descriptor: plugin.Descriptor{Name: Name, Priority: Priority},
		Factory:    func() (plugin.Plugin, error) { return New(host, options, logger), nil },
	}
}

func (p *Plugin) Name() string  { return Name }
func (p *Plugin) Priority() int { return Priority }

func (p *Plugin) RegisterHandlers(registrar plugin.Registrar) error {
	return errors.Join(
		registrar.Register(QueryByKey, p.queryByKey),
		registrar.Register(SetComponentProperties, p.setComponentProperties),
	)
}

func (p *Plugin) Initialize(context.Context) error {
	if p.host == nil {
		return errors.New("keyed plugin has no host")
	}
	return nil
}

func (p *Plugin) Shutdown(context.Context) error { return nil }

// nodeView identifies a node in a match.
type nodeView struct {
	Name       string `json:"name"`
	Path       string `json:"path"`
	InstanceID int64  `json:"instanceID"`
}

// matchView is one keyed match in a query result.
type matchView struct {
	Index         int            `json:"index"`
	ComponentType string         `json:"componentType"`
	InstanceID    int64          `json:"instanceID"`
	GameObject    nodeView       `json:"gameObject"`
	Container     nodeView       `json:"container"`
	ContainerType string         `json:"containerType"`
	Properties    map[string]any `json:"properties"`
}

func viewOf(node scenegraph.Node) nodeView {
	return nodeView{Name: node.Name(), Path: scenegraph.PathOf(node), InstanceID: node.ID()}
}

// keyedMatches loads the root and finds every component whose key
// property equals the key parameter. Zero matches is NOT_FOUND.
func (p *Plugin) keyedMatches(params *command.Params) (string, any, scenegraph.Node, []scenegraph.Match, error) {
	prefabPath, err := params.RequireString("prefabPath")
	if err != nil {
		return "", nil, nil, nil, err
	}
	key, ok := params.Raw("key")
	if !ok {
		return "", nil, nil, nil, command.MissingField("key")
	}
	switch key.(type) {
	case []any, map[string]any:
		return "", nil, nil, nil, command.InvalidFields("field %q must be a scalar", "key")
	}
	root, err := scenegraph.Load(p.host, prefabPath)
	if err != nil {
		return "", nil, nil, nil, err
	}
	matches := scenegraph.FindComponents(root,
		scenegraph.KeyPredicate(p.options.KeyProperty, key), p.options.ContainerTypes)
	if len(matches) == 0 {
		return "", nil, nil, nil, command.NotFound("no component has %s=%v", p.options.KeyProperty, key).
			WithDetail("prefab %s", prefabPath)
	}
	return prefabPath, key, root, matches, nil
}

func (p *Plugin) queryByKey(_ context.Context, params *command.Params) (command.Document, error) {
	filter, err := params.GetStringList("componentFilter")
	if err != nil {
		return nil, err
	}
	prefabPath, key, _, matches, err := p.keyedMatches(params)
	if err != nil {
		return nil, err
	}

	filtered := scenegraph.FilterByType(matches, filter)
	views := make([]matchView, len(filtered))
	for position, match := range filtered {
		views[position] = matchView{
			Index:         match.Index,
			ComponentType: match.Component.Type(),
			InstanceID:    match.Component.ID(),
			GameObject:    viewOf(match.Node),
			Container:     viewOf(match.Container),
			ContainerType: match.ContainerType,
			Properties:    scenegraph.PropertyBag(match.Component),
		}
	}
	return command.Document{
		"prefabPath":        prefabPath,
		"keyProperty":       p.options.KeyProperty,
		"key":               key,
		"unfilteredMatches": len(matches),
		"totalMatches":      len(views),
		"matches":           views,
	}, nil
}

func (p *Plugin) setComponentProperties(_ context.Context, params *command.Params) (command.Document, error) {
	index, err := params.GetInt("index", 0)
	if err != nil {
		return nil, err
	}
	list, err := params.GetList("modifications")
	if err != nil {
		return nil, err
	}
	modifications, err := scenegraph.ParseModifications("modifications", list)
	if err != nil {
		return nil, err
	}
	prefabPath, key, root, matches, err := p.keyedMatches(params)
	if err != nil {
		return nil, err
	}
	if index < 0 || index >= len(matches) {
		return nil, command.Errorf(command.CodeIndexOutOfRange,
			"index %d out of range: %d component(s) have %s=%v", index, len(matches), p.options.KeyProperty, key)
	}

	match := matches[index]
	results, summary := scenegraph.ApplyModifications(match.Component, modifications)
	saved := false
	if summary.Success > 0 {
		if err := scenegraph.Persist(p.host, prefabPath, root); err != nil {
			return nil, err
		}
		saved = true
		p.logger.Debug("keyed component edited",
			"prefab", prefabPath,
			"key", key,
			"index", index,
			"applied", summary.Success,
		)
	}
	return command.Document{
		"prefabPath":        prefabPath,
		"key":               key,
		"index":             index,
		"componentType":     match.Component.Type(),
		"instanceID":        match.Component.ID(),
		"gameObjectPath":    scenegraph.PathOf(match.Node),
		"results":           results,
		"summary":           summary,
		"currentProperties": scenegraph.PropertyBag(match.Component),
		"saved":             saved,
	}, nil
}
