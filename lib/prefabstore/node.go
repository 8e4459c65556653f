// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package prefabstore

import (
	"fmt"
	"slices"

	"github.com/bureau-foundation/agentcmd/lib/command"
	"github.com/bureau-foundation/agentcmd/lib/scenegraph"
)

// Node property names.
const (
	PropertyName      = "name"
	PropertyTag       = "tag"
	PropertyLayer     = "layer"
	PropertyIsActive  = "isActive"
	PropertyIsStatic  = "isStatic"
	PropertyHideFlags = "hideFlags"
)

var nodePropertyNames = []string{
	PropertyName, PropertyTag, PropertyLayer, PropertyIsActive, PropertyIsStatic, PropertyHideFlags,
}

// DefaultTag is the tag of a node whose document sets none.
const DefaultTag = "Untagged"

// maxLayer is the highest valid layer number.
const maxLayer = 31

// builtinLayers maps layer names to numbers for writes that name a
// layer instead of numbering it.
var builtinLayers = map[string]int{
	"Default":        0,
	"TransparentFX":  1,
	"Ignore Raycast": 2,
	"Water":          4,
	"UI":             5,
}

// graph owns the instance ID sequence of one loaded document.
type graph struct {
	nextID int64
}

func (g *graph) allocate() int64 {
	g.nextID++
	return g.nextID
}

// Node is one object of a loaded prefab. It implements
// scenegraph.StructuralNode.
type Node struct {
	graph      *graph
	id         int64
	name       string
	active     bool
	tag        string
	layer      int
	static     bool
	hideFlags  int
	parent     *Node
	children   []*Node
	components []*Component
}

var _ scenegraph.StructuralNode = (*Node)(nil)

func (n *Node) ID() int64    { return n.id }
func (n *Node) Name() string { return n.name }
func (n *Node) Active() bool { return n.active }

// Parent returns nil for the root.
func (n *Node) Parent() scenegraph.Node {
	if n.parent == nil {
		return nil
	}
	return n.parent
}

func (n *Node) Children() []scenegraph.Node {
	children := make([]scenegraph.Node, len(n.children))
	for index, child := range n.children {
		children[index] = child
	}
	return children
}

func (n *Node) Components() []scenegraph.Component {
	components := make([]scenegraph.Component, len(n.components))
	for index, component := range n.components {
		components[index] = component
	}
	return components
}

func (n *Node) PropertyNames() []string { return slices.Clone(nodePropertyNames) }

func (n *Node) GetProperty(name string) (any, bool) {
	switch name {
	case PropertyName:
		return n.name, true
	case PropertyTag:
		return n.tag, true
	case PropertyLayer:
		return int64(n.layer), true
	case PropertyIsActive:
		return n.active, true
	case PropertyIsStatic:
		return n.static, true
	case PropertyHideFlags:
		return int64(n.hideFlags), true
	}
	return nil, false
}

// SetProperty validates and writes a built-in node property.
func (n *Node) SetProperty(name string, value any) error {
	switch name {
	case PropertyName:
		text, ok := value.(string)
		if !ok || text == "" {
			return command.InvalidFields("name must be a non-empty string")
		}
		n.name = text
	case PropertyTag:
		text, ok := value.(string)
		if !ok {
			return command.InvalidFields("tag must be a string")
		}
		n.tag = text
	case PropertyLayer:
		layer, err := parseLayer(value)
		if err != nil {
			return err
		}
		n.layer = layer
	case PropertyIsActive:
		flag, ok := value.(bool)
		if !ok {
			return command.InvalidFields("isActive must be a boolean")
		}
		n.active = flag
	case PropertyIsStatic:
		flag, ok := value.(bool)
		if !ok {
			return command.InvalidFields("isStatic must be a boolean")
		}
		n.static = flag
	case PropertyHideFlags:
		flags, ok := command.ToInt(value)
		if !ok || flags < 0 {
			return command.InvalidFields("hideFlags must be a non-negative integer")
		}
		n.hideFlags = flags
	default:
		return command.PropertyNotFound(name)
	}
	return nil
}

func parseLayer(value any) (int, error) {
	if name, ok := value.(string); ok {
		if layer, known := builtinLayers[name]; known {
			return layer, nil
		}
		return 0, command.InvalidFields("unknown layer name %q", name)
	}
	layer, ok := command.ToInt(value)
	if !ok || layer < 0 || layer > maxLayer {
		return 0, command.InvalidFields("layer must be an integer in [0, %d] or a layer name", maxLayer)
	}
	return layer, nil
}

// Remove detaches n from its parent and returns the size of the
// removed subtree.
func (n *Node) Remove() (int, error) {
	if n.parent == nil {
		return 0, command.Errorf(command.CodeCannotDeleteRoot, "cannot delete the root object %q", n.name)
	}
	n.parent.detach(n)
	return n.subtreeSize(), nil
}

// MoveTo reparents n under parent at index.
func (n *Node) MoveTo(parent scenegraph.Node, index int) error {
	target, err := n.sameGraph(parent)
	if err != nil {
		return err
	}
	if n.parent == nil {
		return command.Errorf(command.CodeInvalidMove, "cannot move the root object %q", n.name)
	}
	if scenegraph.IsAncestor(n, target) {
		return command.Errorf(command.CodeInvalidMove, "cannot move %q into itself or its own descendant", n.name)
	}
	n.parent.detach(n)
	target.insert(n, index)
	return nil
}

// CopyTo inserts a deep copy of n under parent at index. The copy and
// its subtree receive fresh instance IDs.
func (n *Node) CopyTo(parent scenegraph.Node, index int) (scenegraph.Node, error) {
	target, err := n.sameGraph(parent)
	if err != nil {
		return nil, err
	}
	duplicate := n.clone()
	target.insert(duplicate, index)
	return duplicate, nil
}

func (n *Node) sameGraph(other scenegraph.Node) (*Node, error) {
	target, ok := other.(*Node)
	if !ok || target.graph != n.graph {
		return nil, command.Errorf(command.CodeInvalidMove, "target parent does not belong to the same prefab")
	}
	return target, nil
}

func (n *Node) detach(child *Node) {
	n.children = slices.DeleteFunc(n.children, func(candidate *Node) bool { return candidate == child })
	child.parent = nil
}

func (n *Node) insert(child *Node, index int) {
	if index < 0 || index > len(n.children) {
		index = len(n.children)
	}
	n.children = slices.Insert(n.children, index, child)
	child.parent = n
}

func (n *Node) clone() *Node {
	duplicate := &Node{
		graph:     n.graph,
		id:        n.graph.allocate(),
		name:      n.name,
		active:    n.active,
		tag:       n.tag,
		layer:     n.layer,
		static:    n.static,
		hideFlags: n.hideFlags,
	}
	for _, component := range n.components {
		duplicate.components = append(duplicate.components, component.clone(n.graph.allocate()))
	}
	for _, child := range n.children {
		copied := child.clone()
		copied.parent = duplicate
		duplicate.children = append(duplicate.children, copied)
	}
	return duplicate
}

func (n *Node) subtreeSize() int {
	size := 1
	for _, child := range n.children {
		size += child.subtreeSize()
	}
	return size
}

func (n *Node) String() string {
	return fmt.Sprintf("%s#%d", n.name, n.id)
}
