// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package scenegraph

import (
	"fmt"

	"github.com/bureau-foundation/agentcmd/lib/command"
)

// Modification statuses.
const (
	StatusSuccess = "success"
	StatusSkipped = "skipped"
	StatusFailed  = "failed"
)

// ReadProperty returns the value of name or a PROPERTY_NOT_FOUND error.
func ReadProperty(set PropertySet, name string) (any, error) {
	value, ok := set.GetProperty(name)
	if !ok {
		return nil, command.PropertyNotFound(name)
	}
	return value, nil
}

// PropertyBag snapshots every property of set.
func PropertyBag(set PropertySet) map[string]any {
	bag := make(map[string]any)
	for _, name := range set.PropertyNames() {
		if value, ok := set.GetProperty(name); ok {
			bag[name] = value
		}
	}
	return bag
}

// Modification is one requested property write. When HasOldValue is
// set, the write is applied only if the live value equals OldValue.
type Modification struct {
	Property    string
	OldValue    any
	HasOldValue bool
	NewValue    any
}

// ParseModifications decodes a list of {property, oldValue?, newValue}
// objects. A present oldValue key (even null) arms the staleness check.
func ParseModifications(field string, list []any) ([]Modification, error) {
	if len(list) == 0 {
		return nil, command.InvalidFields("field %q must be a non-empty array", field)
	}
	modifications := make([]Modification, 0, len(list))
	for index, element := range list {
		object, ok := element.(map[string]any)
		if !ok {
			return nil, command.InvalidFields("%s[%d] must be an object", field, index)
		}
		property, _ := object["property"].(string)
		if property == "" {
			return nil, command.InvalidFields("%s[%d].property must be a non-empty string", field, index)
		}
		newValue, ok := object["newValue"]
		if !ok {
			return nil, command.InvalidFields("%s[%d].newValue is required", field, index)
		}
		oldValue, hasOldValue := object["oldValue"]
		modifications = append(modifications, Modification{
			Property:    property,
			OldValue:    oldValue,
			HasOldValue: hasOldValue,
			NewValue:    newValue,
		})
	}
	return modifications, nil
}

// ModificationResult reports what happened to one Modification.
type ModificationResult struct {
	Property string `json:"property"`
	Status   string `json:"status"`
	// Code is empty on success, otherwise STALE_VALUE,
	// PROPERTY_NOT_FOUND, or INVALID_FIELDS.
	Code    string `json:"code,omitempty"`
	Message string `json:"message,omitempty"`
	// OldValue is the live value before the write was attempted.
	OldValue any `json:"oldValue"`
	// ExpectedValue echoes the caller's oldValue when one was given.
	ExpectedValue any `json:"expectedValue,omitempty"`
	// CurrentValue is the live value after processing: the post-write
	// value on success, the untouched value otherwise.
	CurrentValue any `json:"currentValue"`
	NewValue     any `json:"newValue"`
}

// Summary counts modification outcomes.
type Summary struct {
	Total   int `json:"total"`
	Success int `json:"success"`
	Skipped int `json:"skipped"`
	Failed  int `json:"failed"`
}

// ApplyModifications applies each modification to set independently:
// a stale or failed modification does not prevent the others.
func ApplyModifications(set PropertySet, modifications []Modification) ([]ModificationResult, Summary) {
	results := make([]ModificationResult, 0, len(modifications))
	summary := Summary{Total: len(modifications)}

	for _, modification := range modifications {
		result := apply(set, modification)
		switch result.Status {
		case StatusSuccess:
			summary.Success++
		case StatusSkipped:
			summary.Skipped++
		default:
			summary.Failed++
		}
		results = append(results, result)
	}
	return results, summary
}

func apply(set PropertySet, modification Modification) ModificationResult {
	result := ModificationResult{
		Property: modification.Property,
		NewValue: modification.NewValue,
	}
	if modification.HasOldValue {
		result.ExpectedValue = modification.OldValue
	}

	live, ok := set.GetProperty(modification.Property)
	if !ok {
		result.Status = StatusFailed
		result.Code = string(command.CodePropertyNotFound)
		result.Message = fmt.Sprintf("property %q not found", modification.Property)
		return result
	}
	result.OldValue = live
	result.CurrentValue = live

	if modification.HasOldValue && !Equal(live, modification.OldValue) {
		result.Status = StatusSkipped
		result.Code = string(command.CodeStaleValue)
		result.Message = fmt.Sprintf("property %q changed: expected %v, found %v",
			modification.Property, modification.OldValue, live)
		return result
	}

	if err := set.SetProperty(modification.Property, modification.NewValue); err != nil {
		result.Status = StatusFailed
		result.Code = string(command.CodeOf(err))
		if result.Code == string(command.CodeRuntimeError) {
			result.Code = string(command.CodeInvalidFields)
		}
		result.Message = err.Error()
		if current, ok := set.GetProperty(modification.Property); ok {
			result.CurrentValue = current
		}
		return result
	}

	if current, ok := set.GetProperty(modification.Property); ok {
		result.CurrentValue = current
	}
	result.Status = StatusSuccess
	return result
}
