// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package prefabstore

import (
	"maps"
	"slices"

	"github.com/bureau-foundation/agentcmd/lib/command"
	"github.com/bureau-foundation/agentcmd/lib/scenegraph"
)

// Component is a typed property bag attached to a Node.
type Component struct {
	id            int64
	componentType string
	properties    map[string]any
}

var _ scenegraph.Component = (*Component)(nil)

func (c *Component) ID() int64    { return c.id }
func (c *Component) Type() string { return c.componentType }

// PropertyNames returns the declared property names in sorted order.
func (c *Component) PropertyNames() []string {
	return slices.Sorted(maps.Keys(c.properties))
}

func (c *Component) GetProperty(name string) (any, bool) {
	value, ok := c.properties[name]
	return value, ok
}

// SetProperty writes a declared property. The new value must have the
// same JSON kind as the current one, except that a null property
// accepts anything. Integral numbers written to an integer property
// stay integers.
func (c *Component) SetProperty(name string, value any) error {
	current, ok := c.properties[name]
	if !ok {
		return command.PropertyNotFound(name)
	}
	normalized := normalizeValue(value)
	if current != nil && kindOf(current) != kindOf(normalized) {
		return command.InvalidFields("property %q holds a %s, cannot assign a %s",
			name, kindOf(current), kindOf(normalized))
	}
	c.properties[name] = normalized
	return nil
}

func (c *Component) clone(id int64) *Component {
	return &Component{
		id:            id,
		componentType: c.componentType,
		properties:    cloneValue(c.properties).(map[string]any),
	}
}

func cloneValue(value any) any {
	switch typed := value.(type) {
	case map[string]any:
		copied := make(map[string]any, len(typed))
		for key, element := range typed {
			copied[key] = cloneValue(element)
		}
		return copied
	case []any:
		copied := make([]any, len(typed))
		for index, element := range typed {
			copied[index] = cloneValue(element)
		}
		return copied
	}
	return value
}
