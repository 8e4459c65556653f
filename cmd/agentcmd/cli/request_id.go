// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"crypto/rand"
	"encoding/hex"
)

// GenerateBatchID creates a batch identifier from eight random bytes,
// for requests submitted without one. The result always satisfies the
// batch ID alphabet.
func GenerateBatchID() (string, error) {
	var buffer [8]byte
	if _, err := rand.Read(buffer[:]); err != nil {
		return "", err
	}
	return "batch-" + hex.EncodeToString(buffer[:]), nil
}
