// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package codec

import (
	"bytes"
	"testing"
)

type request struct {
	Command string         `json:"command"`
	Params  map[string]any `json:"params,omitempty"`
}

func TestMarshalDeterministicKeyOrder(t *testing.T) {
	t.Parallel()
	// Map iteration order is random; the encoding must not be.
	document := map[string]any{"zeta": 1, "alpha": 2, "mid": 3, "beta": []any{"x", "y"}}

	first, err := Marshal(document)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	for range 20 {
		again, err := Marshal(document)
		if err != nil {
			t.Fatalf("Marshal: %v", err)
		}
		if !bytes.Equal(first, again) {
			t.Fatalf("deterministic encoding violated: %x != %x", first, again)
		}
	}
}

func TestUnmarshalAnyYieldsStringKeyedMaps(t *testing.T) {
	t.Parallel()
	data, err := Marshal(request{
		Command: "log.query",
		Params:  map[string]any{"n": 5, "filter": map[string]any{"level": "Error"}},
	})
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}

	var decoded any
	if err := Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	top, ok := decoded.(map[string]any)
	if !ok {
		t.Fatalf("decoded type: got %T, want map[string]any", decoded)
	}
	params, ok := top["params"].(map[string]any)
	if !ok {
		t.Fatalf("params type: got %T, want map[string]any", top["params"])
	}
	if _, ok := params["filter"].(map[string]any); !ok {
		t.Errorf("nested filter type: got %T, want map[string]any", params["filter"])
	}
}

func TestEncoderDecoderStream(t *testing.T) {
	t.Parallel()
	var buffer bytes.Buffer
	encoder := NewEncoder(&buffer)
	for _, command := range []string{"log.query", "prefab.queryHierarchy"} {
		if err := encoder.Encode(request{Command: command}); err != nil {
			t.Fatalf("Encode(%s): %v", command, err)
		}
	}

	decoder := NewDecoder(&buffer)
	for _, want := range []string{"log.query", "prefab.queryHierarchy"} {
		var got request
		if err := decoder.Decode(&got); err != nil {
			t.Fatalf("Decode: %v", err)
		}
		if got.Command != want {
			t.Errorf("Command: got %q, want %q", got.Command, want)
		}
	}
}

func TestRawMessageDefersDecoding(t *testing.T) {
	t.Parallel()
	inner, err := Marshal(map[string]any{"returned": 3})
	if err != nil {
		t.Fatalf("Marshal inner: %v", err)
	}
	envelope := struct {
		OK   bool       `json:"ok"`
		Data RawMessage `json:"data"`
	}{OK: true, Data: inner}

	data, err := Marshal(envelope)
	if err != nil {
		t.Fatalf("Marshal envelope: %v", err)
	}

	var decoded struct {
		OK   bool       `json:"ok"`
		Data RawMessage `json:"data"`
	}
	if err := Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Unmarshal envelope: %v", err)
	}
	if !bytes.Equal(decoded.Data, inner) {
		t.Errorf("Data: got %x, want %x", decoded.Data, inner)
	}
}
