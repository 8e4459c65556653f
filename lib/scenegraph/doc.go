// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package scenegraph is the structured query and mutation protocol
// over a host's object graph.
//
// The host exposes its graph through narrow interfaces: a [Host] loads
// and saves roots by path, a [Node] enumerates its children and
// components, and every node and component is a [PropertySet]. This
// package never reaches past those interfaces.
//
// Reads build fresh, serializable views: [Traverse] produces a
// [HierarchyNode] tree with depth, sibling index, and slash-joined
// path; [FindComponents] returns [Match]es whose Index is stable under
// [FilterByType]; [PropertyBag] snapshots every property of a set.
//
// Writes go through [ApplyModifications], which applies each
// [Modification] independently. A modification that carries an
// expected old value is applied only if the live value is [Equal] to
// it; otherwise it is reported STALE_VALUE and the live value is left
// untouched.
package scenegraph
