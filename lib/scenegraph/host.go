// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package scenegraph

import (
	"errors"
	"fmt"

	"github.com/bureau-foundation/agentcmd/lib/command"
)

// Load calls host.LoadRoot and folds its failure into a command error:
// a missing root is NOT_FOUND, a coded host error keeps its code, and
// anything else is RUNTIME_ERROR.
func Load(host Host, path string) (Node, error) {
	if path == "" {
		return nil, command.MissingField("prefabPath")
	}
	root, err := host.LoadRoot(path)
	if err == nil {
		return root, nil
	}
	if errors.Is(err, ErrRootNotFound) {
		return nil, command.Errorf(command.CodeNotFound, "root %q not found: %w", path, err)
	}
	var coded command.Coded
	if errors.As(err, &coded) {
		return nil, err
	}
	return nil, command.RuntimeError(fmt.Errorf("loading root %q: %w", path, err))
}

// Persist saves root through host, reporting failure as RUNTIME_ERROR.
func Persist(host Host, path string, root Node) error {
	if err := host.Save(path, root); err != nil {
		return command.RuntimeError(fmt.Errorf("saving root %q: %w", path, err))
	}
	return nil
}

// Structural asserts that node supports structural edits.
func Structural(node Node) (StructuralNode, error) {
	structural, ok := node.(StructuralNode)
	if !ok {
		return nil, command.RuntimeError(fmt.Errorf("host node %T does not support structural edits", node))
	}
	return structural, nil
}
