// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package scenegraph

import "errors"

// ErrRootNotFound is returned (possibly wrapped) by Host.LoadRoot when
// no graph exists at the requested path.
var ErrRootNotFound = errors.New("root not found")

// PropertySet is anything with named, readable, writable properties.
type PropertySet interface {
	// PropertyNames lists the readable properties in a stable order.
	PropertyNames() []string

	// GetProperty returns the current value of name and whether the
	// property exists.
	GetProperty(name string) (any, bool)

	// SetProperty writes value to name. The host may reject the value
	// (wrong type, out of range, read-only) with an error.
	SetProperty(name string, value any) error
}

// Component is a typed unit of data attached to a node.
type Component interface {
	PropertySet
	ID() int64
	Type() string
}

// Node is one object in the graph. Parent returns nil for the root of
// a loaded graph.
type Node interface {
	PropertySet
	ID() int64
	Name() string
	Active() bool
	Parent() Node
	Children() []Node
	Components() []Component
}

// StructuralNode is implemented by hosts that support reparenting,
// duplicating, and removing nodes.
type StructuralNode interface {
	Node

	// Remove detaches the node and its subtree from its parent and
	// returns the number of nodes removed.
	Remove() (int, error)

	// MoveTo reparents the node under parent at index. An index outside
	// [0, len(children)] appends.
	MoveTo(parent Node, index int) error

	// CopyTo inserts a deep copy of the node under parent at index and
	// returns the copy.
	CopyTo(parent Node, index int) (Node, error)
}

// Host loads and persists graph roots.
type Host interface {
	LoadRoot(path string) (Node, error)
	Save(path string, root Node) error
}
