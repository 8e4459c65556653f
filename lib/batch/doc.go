// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package batch runs agent commands submitted as files.
//
// A data directory holds three subdirectories:
//
//	pending/   batch requests waiting to run (*.json, comments allowed)
//	results/   one <batchId>.json per batch, rewritten as it progresses
//	done/      processed requests, compressed with the archive codec
//
// A [Queue] scans pending/ oldest first and hands each request to an
// [Executor], which runs the commands sequentially through a
// [Dispatcher]. The result file is written with status "processing"
// before the first command runs, after each command, and finally with
// status "completed" (or "error" for a request that could not be
// parsed). Every write is atomic: readers never observe a partial
// result document.
//
// A request that fails to parse is retried after 1s, 2s, and 4s, since
// writers may still be producing it. Later files wait behind it so
// batches always run in submission order.
//
// Only the newest MaxResults final results are kept. Pruning a result
// also removes its archived request.
package batch
