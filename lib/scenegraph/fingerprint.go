// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package scenegraph

import (
	"encoding/hex"
	"fmt"

	"github.com/bureau-foundation/agentcmd/lib/codec"
	"github.com/zeebo/blake3"
)

// revisionDomainKey is the BLAKE3 key for graph fingerprints: the
// ASCII domain name zero-padded to 32 bytes. Changing it changes every
// revision string.
var revisionDomainKey = [32]byte{
	'a', 'g', 'e', 'n', 't', 'c', 'm', 'd', '.', 's', 'c', 'e', 'n', 'e', 'g', 'r',
	'a', 'p', 'h', '.', 'r', 'e', 'v', 'i', 's', 'i', 'o', 'n', 0, 0, 0, 0,
}

// snapshotNode is the canonical content hashed by Fingerprint. Instance
// IDs are excluded: they are assigned at load time and say nothing
// about content.
type snapshotNode struct {
	Name       string              `json:"name"`
	Active     bool                `json:"active"`
	Properties map[string]any      `json:"properties"`
	Components []snapshotComponent `json:"components"`
	Children   []snapshotNode      `json:"children"`
}

type snapshotComponent struct {
	Type       string         `json:"type"`
	Properties map[string]any `json:"properties"`
}

// Fingerprint returns the hex BLAKE3 keyed hash of root's canonical
// content. Two graphs with identical structure, names, components, and
// normalized property values have the same fingerprint.
func Fingerprint(root Node) (string, error) {
	encoded, err := codec.Marshal(snapshot(root))
	if err != nil {
		return "", fmt.Errorf("encoding graph snapshot: %w", err)
	}
	hasher, err := blake3.NewKeyed(revisionDomainKey[:])
	if err != nil {
		return "", fmt.Errorf("creating keyed hasher: %w", err)
	}
	hasher.Write(encoded)
	return hex.EncodeToString(hasher.Sum(nil)), nil
}

func snapshot(node Node) snapshotNode {
	result := snapshotNode{
		Name:       node.Name(),
		Active:     node.Active(),
		Properties: normalizedBag(node),
		Components: []snapshotComponent{},
		Children:   []snapshotNode{},
	}
	for _, component := range node.Components() {
		result.Components = append(result.Components, snapshotComponent{
			Type:       component.Type(),
			Properties: normalizedBag(component),
		})
	}
	for _, child := range node.Children() {
		result.Children = append(result.Children, snapshot(child))
	}
	return result
}

func normalizedBag(set PropertySet) map[string]any {
	bag := PropertyBag(set)
	for key, value := range bag {
		bag[key] = Normalize(value)
	}
	return bag
}
