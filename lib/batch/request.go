// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package batch

import (
	"bytes"
	"encoding/json"
	"fmt"
	"regexp"

	"github.com/tidwall/jsonc"

	"github.com/bureau-foundation/agentcmd/lib/command"
)

// DefaultTimeout bounds a batch that declares no timeout of its own.
const DefaultTimeout = 30000

// Request is one pending batch document.
type Request struct {
	BatchID string `json:"batchId"`

	// Timeout is the whole-batch allowance in milliseconds. Nil
	// selects the executor's default.
	Timeout *int `json:"timeout,omitempty"`

	Commands []Command `json:"commands"`
}

// Command is one entry of a batch request.
type Command struct {
	ID     string           `json:"id"`
	Type   string           `json:"type"`
	Params command.Document `json:"params"`

	// Timeout is this command's allowance in milliseconds. Nil means
	// the batch timeout applies.
	Timeout *int `json:"timeout,omitempty"`
}

var batchIDPattern = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)

// Parse decodes a batch request. Comments and trailing commas are
// accepted. Numbers inside params decode as [json.Number] so integers
// keep their exact value. The returned error carries INVALID_JSON.
func Parse(data []byte) (*Request, error) {
	decoder := json.NewDecoder(bytes.NewReader(jsonc.ToJSON(data)))
	decoder.UseNumber()

	var request Request
	if err := decoder.Decode(&request); err != nil {
		return nil, command.Errorf(command.CodeInvalidJSON, "parsing batch request: %w", err)
	}
	if decoder.More() {
		return nil, command.Errorf(command.CodeInvalidJSON, "parsing batch request: trailing data after document")
	}
	return &request, nil
}

// Validate checks the fields a request must carry before it runs. The
// returned error carries INVALID_FIELDS.
func (r *Request) Validate() error {
	if r.BatchID == "" {
		return command.MissingField("batchId")
	}
	if !ValidBatchID(r.BatchID) {
		return command.InvalidFields("batchId may contain only letters, digits, underscore, and hyphen").
			WithDetail("batchId=%s", r.BatchID)
	}
	if r.Timeout != nil && *r.Timeout <= 0 {
		return command.InvalidFields("timeout must be positive, got %d", *r.Timeout)
	}
	if len(r.Commands) == 0 {
		return command.InvalidFields("commands must contain at least one command")
	}
	for index, entry := range r.Commands {
		if entry.ID == "" {
			return command.InvalidFields("command %d: missing required field %q", index+1, "id")
		}
		if entry.Type == "" {
			return command.InvalidFields("command id=%s: missing required field %q", entry.ID, "type")
		}
		if entry.Params == nil {
			return command.InvalidFields("command id=%s: missing required field %q", entry.ID, "params")
		}
		if entry.Timeout != nil && *entry.Timeout <= 0 {
			return command.InvalidFields("command id=%s: timeout must be positive, got %d", entry.ID, *entry.Timeout)
		}
	}
	return nil
}

// ValidBatchID reports whether id is safe to use as a file name.
func ValidBatchID(id string) bool {
	return batchIDPattern.MatchString(id)
}

// ParseAndValidate is [Parse] followed by [Request.Validate].
func ParseAndValidate(data []byte) (*Request, error) {
	request, err := Parse(data)
	if err != nil {
		return nil, err
	}
	if err := request.Validate(); err != nil {
		return nil, err
	}
	return request, nil
}

// Marshal encodes a request as indented JSON, the form [Queue.Submit]
// writes to pending/.
func (r *Request) Marshal() ([]byte, error) {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encoding batch %s: %w", r.BatchID, err)
	}
	return append(data, '\n'), nil
}
