// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package scenegraph

// HierarchyNode is the serializable view of one node built by
// [Traverse].
type HierarchyNode struct {
	Name       string `json:"name"`
	InstanceID int64  `json:"instanceID"`
	Path       string `json:"path"`
	// SiblingIndex is the node's position in its parent's child order,
	// counting every child the host reports (inactive ones included).
	SiblingIndex int              `json:"siblingIndex"`
	Depth        int              `json:"depth"`
	IsActive     bool             `json:"isActive"`
	Children     []*HierarchyNode `json:"children"`
}

// TraverseOptions controls [Traverse].
type TraverseOptions struct {
	// IncludeInactive keeps inactive nodes and their subtrees. The
	// queried root is always included.
	IncludeInactive bool

	// MaxDepth stops descent below this depth; 0 yields the root alone.
	// Negative means unlimited.
	MaxDepth int
}

// Traverse builds the hierarchy rooted at root in pre-order. The root
// has depth 0, sibling index 0, and its own name as path.
func Traverse(root Node, options TraverseOptions) *HierarchyNode {
	return traverse(root, root.Name(), 0, 0, options)
}

func traverse(node Node, path string, siblingIndex, depth int, options TraverseOptions) *HierarchyNode {
	view := &HierarchyNode{
		Name:         node.Name(),
		InstanceID:   node.ID(),
		Path:         path,
		SiblingIndex: siblingIndex,
		Depth:        depth,
		IsActive:     node.Active(),
		Children:     []*HierarchyNode{},
	}
	if options.MaxDepth >= 0 && depth >= options.MaxDepth {
		return view
	}
	for index, child := range node.Children() {
		if !options.IncludeInactive && !child.Active() {
			continue
		}
		view.Children = append(view.Children,
			traverse(child, path+"/"+child.Name(), index, depth+1, options))
	}
	return view
}

// Count returns the number of nodes in the hierarchy.
func Count(root *HierarchyNode) int {
	if root == nil {
		return 0
	}
	total := 1
	for _, child := range root.Children {
		total += Count(child)
	}
	return total
}

// Flatten returns the hierarchy's nodes in pre-order.
func Flatten(root *HierarchyNode) []*HierarchyNode {
	var flat []*HierarchyNode
	var walk func(*HierarchyNode)
	walk = func(node *HierarchyNode) {
		flat = append(flat, node)
		for _, child := range node.Children {
			walk(child)
		}
	}
	if root != nil {
		walk(root)
	}
	return flat
}

// Walk visits node and its descendants in pre-order, stopping early if
// visit returns false.
func Walk(node Node, visit func(Node) bool) bool {
	if !visit(node) {
		return false
	}
	for _, child := range node.Children() {
		if !Walk(child, visit) {
			return false
		}
	}
	return true
}
