// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package scenegraph

import (
	"bytes"
	"encoding/json"
	"reflect"

	"github.com/bureau-foundation/agentcmd/lib/codec"
)

// Equal decides whether a live property value matches a caller-supplied
// one. Both are normalized (every numeric kind becomes float64, nested
// lists and maps are normalized recursively) and then compared by
// their deterministic CBOR encoding. Numbers therefore compare by
// value across integer and float kinds, a string never equals a
// number, and nil equals only nil.
func Equal(left, right any) bool {
	leftBytes, err := codec.Marshal(Normalize(left))
	if err != nil {
		return false
	}
	rightBytes, err := codec.Marshal(Normalize(right))
	if err != nil {
		return false
	}
	return bytes.Equal(leftBytes, rightBytes)
}

// Normalize converts value into the canonical shape Equal compares.
func Normalize(value any) any {
	switch typed := value.(type) {
	case nil:
		return nil
	case json.Number:
		if number, err := typed.Float64(); err == nil {
			return number
		}
		return typed.String()
	case []any:
		normalized := make([]any, len(typed))
		for index, element := range typed {
			normalized[index] = Normalize(element)
		}
		return normalized
	case map[string]any:
		normalized := make(map[string]any, len(typed))
		for key, element := range typed {
			normalized[key] = Normalize(element)
		}
		return normalized
	}

	reflected := reflect.ValueOf(value)
	switch reflected.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return float64(reflected.Int())
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return float64(reflected.Uint())
	case reflect.Float32, reflect.Float64:
		return reflected.Float()
	case reflect.Slice, reflect.Array:
		if reflected.Type().Elem().Kind() == reflect.Uint8 {
			return value
		}
		normalized := make([]any, reflected.Len())
		for index := range reflected.Len() {
			normalized[index] = Normalize(reflected.Index(index).Interface())
		}
		return normalized
	}
	return value
}
