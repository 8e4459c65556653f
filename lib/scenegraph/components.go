// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package scenegraph

import "slices"

// UnknownContainerType is reported when neither the component's
// ancestry nor the root carries a container component.
const UnknownContainerType = "Unknown"

// Match is one component found by [FindComponents].
type Match struct {
	// Index is the match's position in the unfiltered result: pre-order
	// over nodes, declaration order within a node. Filtering never
	// renumbers it.
	Index         int
	Node          Node
	Component     Component
	Container     Node
	ContainerType string
}

// Predicate selects components during [FindComponents].
type Predicate func(node Node, component Component) bool

// FindComponents walks root in pre-order and returns every component
// accepted by predicate. Each match's container is resolved against
// containerTypes with [ResolveContainer].
func FindComponents(root Node, predicate Predicate, containerTypes []string) []Match {
	var matches []Match
	Walk(root, func(node Node) bool {
		for _, component := range node.Components() {
			if !predicate(node, component) {
				continue
			}
			container, containerType := ResolveContainer(root, node, containerTypes)
			matches = append(matches, Match{
				Index:         len(matches),
				Node:          node,
				Component:     component,
				Container:     container,
				ContainerType: containerType,
			})
		}
		return true
	})
	return matches
}

// FilterByType keeps matches whose own component type is one of
// types. An empty types list keeps everything. Indices are preserved.
func FilterByType(matches []Match, types []string) []Match {
	if len(types) == 0 {
		return matches
	}
	accept := TypePredicate(types)
	filtered := make([]Match, 0, len(matches))
	for _, match := range matches {
		if accept(match.Node, match.Component) {
			filtered = append(filtered, match)
		}
	}
	return filtered
}

// ResolveContainer finds the nearest node, starting at node itself and
// walking up but stopping before root, that carries a component whose
// type is in containerTypes. Falls back to root; the container type is
// then root's own container type or UnknownContainerType.
func ResolveContainer(root, node Node, containerTypes []string) (Node, string) {
	for current := node; current != nil && current.ID() != root.ID(); current = current.Parent() {
		if containerType := hasComponentType(current, containerTypes); containerType != "" {
			return current, containerType
		}
	}
	if containerType := hasComponentType(root, containerTypes); containerType != "" {
		return root, containerType
	}
	return root, UnknownContainerType
}

// hasComponentType returns the type of node's first component listed
// in types, or "".
func hasComponentType(node Node, types []string) string {
	for _, component := range node.Components() {
		if slices.Contains(types, component.Type()) {
			return component.Type()
		}
	}
	return ""
}

// KeyPredicate selects components whose property keyProperty is
// [Equal] to key.
func KeyPredicate(keyProperty string, key any) Predicate {
	return func(_ Node, component Component) bool {
		value, ok := component.GetProperty(keyProperty)
		return ok && Equal(value, key)
	}
}

// TypePredicate selects components whose type is one of types. An
// empty list selects every component.
func TypePredicate(types []string) Predicate {
	return func(_ Node, component Component) bool {
		return len(types) == 0 || slices.Contains(types, component.Type())
	}
}
