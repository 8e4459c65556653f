// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package logbuffer

import (
	"sync"
	"time"
)

// DefaultCapacity is the number of entries retained when the
// configuration does not say otherwise.
const DefaultCapacity = 10000

// TimeFormat renders entry timestamps: millisecond precision, no zone.
const TimeFormat = "2006-01-02 15:04:05.000"

// Entry levels. Every captured record is folded into one of these.
const (
	LevelLog     = "Log"
	LevelWarning = "Warning"
	LevelError   = "Error"
)

// Entry is one captured log record.
type Entry struct {
	Time    time.Time
	Level   string
	Message string
	// Stack is empty when the record carried no stack trace.
	Stack string
}

// Buffer is a fixed-capacity FIFO of log entries. All methods are safe
// for concurrent use; appends and queries are serialized by one mutex.
type Buffer struct {
	mutex    sync.Mutex
	entries  []Entry
	capacity int
	// start is the index of the oldest entry; count is the number of
	// stored entries (saturates at capacity).
	start int
	count int
	// totalAppended counts every entry ever appended, evicted or not.
	totalAppended uint64
	// scanned counts entries examined by queries.
	scanned uint64
}

// New creates a buffer holding at most capacity entries. A
// non-positive capacity selects DefaultCapacity.
func New(capacity int) *Buffer {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Buffer{
		entries:  make([]Entry, capacity),
		capacity: capacity,
	}
}

// Append stores entry, evicting the oldest entry when full.
func (b *Buffer) Append(entry Entry) {
	b.mutex.Lock()
	defer b.mutex.Unlock()

	if b.count < b.capacity {
		b.entries[(b.start+b.count)%b.capacity] = entry
		b.count++
	} else {
		b.entries[b.start] = entry
		b.start = (b.start + 1) % b.capacity
	}
	b.totalAppended++
}

// Count returns the number of stored entries, at most Capacity.
func (b *Buffer) Count() int {
	b.mutex.Lock()
	defer b.mutex.Unlock()
	return b.count
}

// Capacity returns the maximum number of stored entries.
func (b *Buffer) Capacity() int { return b.capacity }

// TotalAppended returns the number of entries ever appended, including
// those since evicted.
func (b *Buffer) TotalAppended() uint64 {
	b.mutex.Lock()
	defer b.mutex.Unlock()
	return b.totalAppended
}

// Levels returns the number of stored entries per level.
func (b *Buffer) Levels() map[string]int {
	b.mutex.Lock()
	defer b.mutex.Unlock()

	levels := map[string]int{LevelLog: 0, LevelWarning: 0, LevelError: 0}
	for offset := range b.count {
		levels[b.at(offset).Level]++
	}
	return levels
}

// Snapshot returns the stored entries oldest first.
func (b *Buffer) Snapshot() []Entry {
	b.mutex.Lock()
	defer b.mutex.Unlock()

	snapshot := make([]Entry, b.count)
	for offset := range b.count {
		snapshot[offset] = b.at(offset)
	}
	return snapshot
}

// at returns the entry offset positions after the oldest. Callers hold
// the mutex.
func (b *Buffer) at(offset int) Entry {
	return b.entries[(b.start+offset)%b.capacity]
}

func (b *Buffer) scanCount() uint64 {
	b.mutex.Lock()
	defer b.mutex.Unlock()
	return b.scanned
}
