// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package atomicfile replaces files in one step. [WriteFile] writes to
// a temporary file in the target's directory, fsyncs it, and renames it
// over the target, so concurrent readers see either the old content or
// the new content and never a partial write.
//
// The batch queue writes result files and archives through it; the
// prefab store saves edited documents through it.
package atomicfile
