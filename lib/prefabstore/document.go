// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package prefabstore

import (
	"bytes"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/tidwall/jsonc"
	"gopkg.in/yaml.v3"
)

// Format is the on-disk encoding of a prefab document.
type Format int

const (
	FormatYAML Format = iota
	FormatJSON
)

func (f Format) String() string {
	switch f {
	case FormatYAML:
		return "yaml"
	case FormatJSON:
		return "json"
	default:
		return fmt.Sprintf("Format(%d)", int(f))
	}
}

// FormatForPath picks the format from the file extension.
func FormatForPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".json", ".jsonc", ".prefab":
		return FormatJSON, nil
	default:
		return 0, fmt.Errorf("unsupported prefab extension %q (want .yaml, .yml, .json, .jsonc, or .prefab)", filepath.Ext(path))
	}
}

// nodeDocument is the serialized form of a Node.
type nodeDocument struct {
	Name       string              `yaml:"name" json:"name"`
	Active     *bool               `yaml:"active,omitempty" json:"active,omitempty"`
	Tag        string              `yaml:"tag,omitempty" json:"tag,omitempty"`
	Layer      int                 `yaml:"layer,omitempty" json:"layer,omitempty"`
	Static     bool                `yaml:"static,omitempty" json:"static,omitempty"`
	HideFlags  int                 `yaml:"hideFlags,omitempty" json:"hideFlags,omitempty"`
	Components []componentDocument `yaml:"components,omitempty" json:"components,omitempty"`
	Children   []nodeDocument      `yaml:"children,omitempty" json:"children,omitempty"`
}

type componentDocument struct {
	Type       string         `yaml:"type" json:"type"`
	Properties map[string]any `yaml:"properties,omitempty" json:"properties,omitempty"`
}

// Parse decodes a prefab document and assigns instance IDs in
// pre-order (each node, then its components, then its children).
func Parse(data []byte, format Format) (*Node, error) {
	var document nodeDocument
	switch format {
	case FormatYAML:
		if err := yaml.Unmarshal(data, &document); err != nil {
			return nil, fmt.Errorf("parsing prefab YAML: %w", err)
		}
	case FormatJSON:
		decoder := json.NewDecoder(bytes.NewReader(jsonc.ToJSON(data)))
		decoder.UseNumber()
		if err := decoder.Decode(&document); err != nil {
			return nil, fmt.Errorf("parsing prefab JSON: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported format %s", format)
	}

	owner := &graph{}
	root, err := build(owner, document, nil, "")
	if err != nil {
		return nil, err
	}
	return root, nil
}

func build(owner *graph, document nodeDocument, parent *Node, parentPath string) (*Node, error) {
	path := document.Name
	if parentPath != "" {
		path = parentPath + "/" + document.Name
	}
	if document.Name == "" {
		return nil, fmt.Errorf("prefab node under %q has no name", parentPath)
	}
	if strings.Contains(document.Name, "/") {
		return nil, fmt.Errorf("prefab node %q: names cannot contain '/'", path)
	}
	if document.Layer < 0 || document.Layer > maxLayer {
		return nil, fmt.Errorf("prefab node %q: layer %d outside [0, %d]", path, document.Layer, maxLayer)
	}

	node := &Node{
		graph:     owner,
		id:        owner.allocate(),
		name:      document.Name,
		active:    document.Active == nil || *document.Active,
		tag:       document.Tag,
		layer:     document.Layer,
		static:    document.Static,
		hideFlags: document.HideFlags,
		parent:    parent,
	}
	if node.tag == "" {
		node.tag = DefaultTag
	}
	for index, component := range document.Components {
		if component.Type == "" {
			return nil, fmt.Errorf("prefab node %q: component %d has no type", path, index)
		}
		properties := make(map[string]any, len(component.Properties))
		for key, value := range component.Properties {
			properties[key] = normalizeValue(value)
		}
		node.components = append(node.components, &Component{
			id:            owner.allocate(),
			componentType: component.Type,
			properties:    properties,
		})
	}
	for _, childDocument := range document.Children {
		child, err := build(owner, childDocument, node, path)
		if err != nil {
			return nil, err
		}
		node.children = append(node.children, child)
	}
	return node, nil
}

// Encode serializes root in format.
func Encode(root *Node, format Format) ([]byte, error) {
	document := unbuild(root)
	switch format {
	case FormatYAML:
		var buffer bytes.Buffer
		encoder := yaml.NewEncoder(&buffer)
		encoder.SetIndent(2)
		if err := encoder.Encode(document); err != nil {
			return nil, fmt.Errorf("encoding prefab YAML: %w", err)
		}
		if err := encoder.Close(); err != nil {
			return nil, fmt.Errorf("encoding prefab YAML: %w", err)
		}
		return buffer.Bytes(), nil
	case FormatJSON:
		data, err := json.MarshalIndent(document, "", "  ")
		if err != nil {
			return nil, fmt.Errorf("encoding prefab JSON: %w", err)
		}
		return append(data, '\n'), nil
	default:
		return nil, fmt.Errorf("unsupported format %s", format)
	}
}

func unbuild(node *Node) nodeDocument {
	document := nodeDocument{
		Name:      node.name,
		Layer:     node.layer,
		Static:    node.static,
		HideFlags: node.hideFlags,
	}
	if !node.active {
		inactive := false
		document.Active = &inactive
	}
	if node.tag != DefaultTag {
		document.Tag = node.tag
	}
	for _, component := range node.components {
		document.Components = append(document.Components, componentDocument{
			Type:       component.componentType,
			Properties: component.properties,
		})
	}
	for _, child := range node.children {
		document.Children = append(document.Children, unbuild(child))
	}
	return document
}
