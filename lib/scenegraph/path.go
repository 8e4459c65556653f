// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package scenegraph

import (
	"strings"

	"github.com/bureau-foundation/agentcmd/lib/command"
)

// PathOf returns the slash-joined names from the graph root down to
// node.
func PathOf(node Node) string {
	names := []string{node.Name()}
	for parent := node.Parent(); parent != nil; parent = parent.Parent() {
		names = append(names, parent.Name())
	}
	for left, right := 0, len(names)-1; left < right; left, right = left+1, right-1 {
		names[left], names[right] = names[right], names[left]
	}
	return strings.Join(names, "/")
}

// FindByPath resolves a slash-joined path that starts with the root's
// name. Intermediate segments take the first child with a matching
// name; the final segment takes the occurrence-th same-named child
// (0 is the first), which disambiguates duplicate siblings. Returns a
// NOT_FOUND error when the path does not resolve.
func FindByPath(root Node, path string, occurrence int) (Node, error) {
	if path == "" {
		return nil, command.MissingField("path")
	}
	if occurrence < 0 {
		return nil, command.InvalidFields("sibling index must be >= 0, got %d", occurrence)
	}
	if path == root.Name() {
		return root, nil
	}

	segments := strings.Split(path, "/")
	if segments[0] != root.Name() {
		return nil, command.NotFound("object %q not found", path).
			WithDetail("path must start with the root name %q", root.Name())
	}

	current := root
	for position, segment := range segments[1:] {
		last := position == len(segments)-2
		current = childNamed(current, segment, last, occurrence)
		if current == nil {
			return nil, command.NotFound("object %q not found", path)
		}
	}
	return current, nil
}

func childNamed(parent Node, name string, last bool, occurrence int) Node {
	seen := 0
	for _, child := range parent.Children() {
		if child.Name() != name {
			continue
		}
		if !last {
			return child
		}
		if seen == occurrence {
			return child
		}
		seen++
	}
	return nil
}

// IsAncestor reports whether ancestor is node or one of node's
// ancestors.
func IsAncestor(ancestor, node Node) bool {
	for current := node; current != nil; current = current.Parent() {
		if current.ID() == ancestor.ID() {
			return true
		}
	}
	return false
}

// IndexOf returns node's position in its parent's child order, or 0
// for a root.
func IndexOf(node Node) int {
	parent := node.Parent()
	if parent == nil {
		return 0
	}
	for index, child := range parent.Children() {
		if child.ID() == node.ID() {
			return index
		}
	}
	return 0
}
