// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package prefabstore

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/bureau-foundation/agentcmd/lib/atomicfile"
	"github.com/bureau-foundation/agentcmd/lib/command"
	"github.com/bureau-foundation/agentcmd/lib/scenegraph"
)

// Store serves prefab documents from a directory. It implements
// scenegraph.Host.
type Store struct {
	directory string
	logger    *slog.Logger
}

var _ scenegraph.Host = (*Store)(nil)

// New creates a store rooted at directory.
func New(directory string, logger *slog.Logger) *Store {
	return &Store{directory: directory, logger: logger}
}

// Directory returns the store's root directory.
func (s *Store) Directory() string { return s.directory }

// LoadRoot reads and parses the prefab at path, which is relative to
// the store directory. A missing file yields an error wrapping
// scenegraph.ErrRootNotFound.
func (s *Store) LoadRoot(path string) (scenegraph.Node, error) {
	fullPath, format, err := s.resolve(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(fullPath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("prefab %q: %w", path, scenegraph.ErrRootNotFound)
		}
		return nil, fmt.Errorf("reading prefab %q: %w", path, err)
	}
	root, err := Parse(data, format)
	if err != nil {
		return nil, fmt.Errorf("prefab %q: %w", path, err)
	}
	return root, nil
}

// Save writes root back to path atomically. root must have been loaded
// by this package.
func (s *Store) Save(path string, root scenegraph.Node) error {
	node, ok := root.(*Node)
	if !ok {
		return fmt.Errorf("saving prefab %q: root is %T, not a prefabstore node", path, root)
	}
	fullPath, format, err := s.resolve(path)
	if err != nil {
		return err
	}
	data, err := Encode(node, format)
	if err != nil {
		return fmt.Errorf("saving prefab %q: %w", path, err)
	}
	if err := atomicfile.WriteFile(fullPath, data); err != nil {
		return fmt.Errorf("saving prefab %q: %w", path, err)
	}
	s.logger.Info("prefab saved", "path", path, "bytes", len(data))
	return nil
}

// List returns the relative paths of every prefab document under the
// store directory, in lexical order.
func (s *Store) List() ([]string, error) {
	var paths []string
	err := filepath.WalkDir(s.directory, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if entry.IsDir() {
			return nil
		}
		if _, formatErr := FormatForPath(path); formatErr != nil {
			return nil
		}
		relative, err := filepath.Rel(s.directory, path)
		if err != nil {
			return err
		}
		paths = append(paths, filepath.ToSlash(relative))
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("listing prefabs in %s: %w", s.directory, err)
	}
	return paths, nil
}

// resolve maps a relative prefab path to a file inside the store
// directory. Paths that would escape the directory are rejected.
func (s *Store) resolve(path string) (string, Format, error) {
	if path == "" {
		return "", 0, command.MissingField("prefabPath")
	}
	cleaned := filepath.Clean(filepath.FromSlash(path))
	if filepath.IsAbs(cleaned) || cleaned == ".." || strings.HasPrefix(cleaned, ".."+string(filepath.Separator)) {
		return "", 0, command.InvalidFields("prefab path %q must be relative to the prefab directory", path)
	}
	format, err := FormatForPath(cleaned)
	if err != nil {
		return "", 0, command.InvalidFields("prefab path %q: %v", path, err)
	}
	return filepath.Join(s.directory, cleaned), format, nil
}
