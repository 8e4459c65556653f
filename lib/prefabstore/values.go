// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package prefabstore

import (
	"encoding/json"
	"math"

	"github.com/bureau-foundation/agentcmd/lib/scenegraph"
)

// normalizeValue converts decoded document values to the shapes stored
// in a graph: integral numbers become int64, other numbers float64,
// and nested containers are normalized recursively.
func normalizeValue(value any) any {
	switch typed := value.(type) {
	case json.Number:
		if integer, err := typed.Int64(); err == nil {
			return integer
		}
		if number, err := typed.Float64(); err == nil {
			return number
		}
		return typed.String()
	case map[string]any:
		normalized := make(map[string]any, len(typed))
		for key, element := range typed {
			normalized[key] = normalizeValue(element)
		}
		return normalized
	case []any:
		normalized := make([]any, len(typed))
		for index, element := range typed {
			normalized[index] = normalizeValue(element)
		}
		return normalized
	}
	if number, ok := scenegraph.Normalize(value).(float64); ok {
		if number == math.Trunc(number) && math.Abs(number) < 1<<53 {
			return int64(number)
		}
		return number
	}
	return value
}

// kindOf names the JSON kind of a normalized value.
func kindOf(value any) string {
	switch value.(type) {
	case nil:
		return "null"
	case string:
		return "string"
	case bool:
		return "boolean"
	case int64, float64:
		return "number"
	case []any:
		return "array"
	case map[string]any:
		return "object"
	}
	return "value"
}
