// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package command

import (
	"encoding/json"
	"math"
	"sort"
	"strconv"
	"strings"
)

// Document is a decoded parameter or result object. Values are the
// shapes produced by encoding/json and the CBOR codec: strings,
// booleans, numbers of any Go numeric kind or json.Number, []any, and
// nested Documents or map[string]any.
type Document = map[string]any

// Params is a read-only typed view over a command's parameter
// document. Optional fields that are absent (or explicitly null)
// yield the caller's default. A field that is present but cannot be
// converted to the requested type yields an INVALID_FIELDS error
// naming the field and the expected type.
//
// Params never reports a field as missing; handlers that require a
// field check [Params.Has] or use [Params.RequireString] and
// [Params.RequireInt].
type Params struct {
	fields Document
}

// NewParams wraps fields. A nil map behaves as an empty document.
func NewParams(fields Document) *Params {
	if fields == nil {
		fields = Document{}
	}
	return &Params{fields: fields}
}

// Has reports whether key is present with a non-null value.
func (p *Params) Has(key string) bool {
	value, ok := p.fields[key]
	return ok && value != nil
}

// Raw returns the undecoded value for key and whether it was present.
func (p *Params) Raw(key string) (any, bool) {
	value, ok := p.fields[key]
	if !ok || value == nil {
		return nil, false
	}
	return value, true
}

// Keys returns the parameter names in sorted order.
func (p *Params) Keys() []string {
	keys := make([]string, 0, len(p.fields))
	for key := range p.fields {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

// Document returns the underlying parameter document. Callers must not
// modify it.
func (p *Params) Document() Document { return p.fields }

// GetString returns the string value of key. Numbers and booleans are
// rendered in their canonical text form.
func (p *Params) GetString(key, defaultValue string) (string, error) {
	value, ok := p.Raw(key)
	if !ok {
		return defaultValue, nil
	}
	switch typed := value.(type) {
	case string:
		return typed, nil
	case bool:
		return strconv.FormatBool(typed), nil
	case json.Number:
		return typed.String(), nil
	}
	if number, ok := toFloat(value); ok {
		return strconv.FormatFloat(number, 'f', -1, 64), nil
	}
	return "", typeMismatch(key, "string", value)
}

// GetInt returns the integer value of key. Integral floats and decimal
// strings are accepted; fractional numbers are rejected.
func (p *Params) GetInt(key string, defaultValue int) (int, error) {
	value, ok := p.Raw(key)
	if !ok {
		return defaultValue, nil
	}
	if text, ok := value.(string); ok {
		parsed, err := strconv.Atoi(strings.TrimSpace(text))
		if err != nil {
			return 0, typeMismatch(key, "integer", value)
		}
		return parsed, nil
	}
	integer, ok := ToInt(value)
	if !ok {
		return 0, typeMismatch(key, "integer", value)
	}
	return integer, nil
}

// GetBool returns the boolean value of key. The strings "true" and
// "false" are accepted in any letter case.
func (p *Params) GetBool(key string, defaultValue bool) (bool, error) {
	value, ok := p.Raw(key)
	if !ok {
		return defaultValue, nil
	}
	switch typed := value.(type) {
	case bool:
		return typed, nil
	case string:
		switch {
		case strings.EqualFold(strings.TrimSpace(typed), "true"):
			return true, nil
		case strings.EqualFold(strings.TrimSpace(typed), "false"):
			return false, nil
		}
	}
	return false, typeMismatch(key, "boolean", value)
}

// GetStringList returns an array of strings. A missing key yields nil.
func (p *Params) GetStringList(key string) ([]string, error) {
	value, ok := p.Raw(key)
	if !ok {
		return nil, nil
	}
	switch typed := value.(type) {
	case []string:
		return typed, nil
	case []any:
		result := make([]string, 0, len(typed))
		for index, element := range typed {
			text, ok := element.(string)
			if !ok {
				return nil, InvalidFields("field %q: element %d must be a string, got %s",
					key, index, describeType(element))
			}
			result = append(result, text)
		}
		return result, nil
	}
	return nil, typeMismatch(key, "array of strings", value)
}

// GetList returns an array value. A missing key yields nil.
func (p *Params) GetList(key string) ([]any, error) {
	value, ok := p.Raw(key)
	if !ok {
		return nil, nil
	}
	list, ok := value.([]any)
	if !ok {
		return nil, typeMismatch(key, "array", value)
	}
	return list, nil
}

// GetObject returns a nested object. A missing key yields nil.
func (p *Params) GetObject(key string) (Document, error) {
	value, ok := p.Raw(key)
	if !ok {
		return nil, nil
	}
	object, ok := value.(map[string]any)
	if !ok {
		return nil, typeMismatch(key, "object", value)
	}
	return object, nil
}

// RequireString returns the string value of key, failing with
// INVALID_FIELDS when the key is absent or empty.
func (p *Params) RequireString(key string) (string, error) {
	if !p.Has(key) {
		return "", MissingField(key)
	}
	value, err := p.GetString(key, "")
	if err != nil {
		return "", err
	}
	if value == "" {
		return "", MissingField(key)
	}
	return value, nil
}

// RequireInt returns the integer value of key, failing with
// INVALID_FIELDS when the key is absent.
func (p *Params) RequireInt(key string) (int, error) {
	if !p.Has(key) {
		return 0, MissingField(key)
	}
	return p.GetInt(key, 0)
}

// ToInt converts any numeric value with no fractional part to int.
func ToInt(value any) (int, bool) {
	switch typed := value.(type) {
	case int:
		return typed, true
	case int8:
		return int(typed), true
	case int16:
		return int(typed), true
	case int32:
		return int(typed), true
	case int64:
		return int(typed), true
	case uint:
		return int(typed), true
	case uint8:
		return int(typed), true
	case uint16:
		return int(typed), true
	case uint32:
		return int(typed), true
	case uint64:
		if typed > math.MaxInt64 {
			return 0, false
		}
		return int(typed), true
	case json.Number:
		parsed, err := typed.Int64()
		if err != nil {
			return 0, false
		}
		return int(parsed), true
	}
	number, ok := toFloat(value)
	if !ok || number != math.Trunc(number) || math.IsInf(number, 0) {
		return 0, false
	}
	return int(number), true
}

// NormalizeNumbers replaces every json.Number inside value with an
// int64 when it is integral and a float64 otherwise, so documents
// decoded with UseNumber can be re-encoded as CBOR numbers. Maps and
// slices are rewritten in place.
func NormalizeNumbers(value any) any {
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
		for key, element := range typed {
			typed[key] = NormalizeNumbers(element)
		}
	case []any:
		for index, element := range typed {
			typed[index] = NormalizeNumbers(element)
		}
	}
	return value
}

func toFloat(value any) (float64, bool) {
	switch typed := value.(type) {
	case float64:
		return typed, true
	case float32:
		return float64(typed), true
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		integer, _ := ToInt(typed)
		return float64(integer), true
	case json.Number:
		parsed, err := typed.Float64()
		return parsed, err == nil
	}
	return 0, false
}

func typeMismatch(key, expected string, value any) *Error {
	return InvalidFields("field %q must be %s, got %s", key, expected, describeType(value))
}

// describeType names the JSON kind of a decoded value for error
// messages.
func describeType(value any) string {
	switch value.(type) {
	case nil:
		return "null"
	case string:
		return "string"
	case bool:
		return "boolean"
	case []any, []string:
		return "array"
	case map[string]any:
		return "object"
	}
	if _, ok := toFloat(value); ok {
		return "number"
	}
	return "unsupported value"
}
