// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package logbuffer

import (
	"fmt"
	"regexp"
	"strings"
)

// MatchMode selects how a query keyword is matched against messages.
type MatchMode int

const (
	// MatchFuzzy is a case-insensitive substring match. It is the zero
	// value, so a query that gives only a keyword is fuzzy.
	MatchFuzzy MatchMode = iota

	// MatchExact is a case-sensitive substring match.
	MatchExact

	// MatchRegex is an RE2 regular-expression search.
	MatchRegex
)

var matchModeNames = [...]string{"fuzzy", "exact", "regex"}

func (m MatchMode) String() string {
	if m < 0 || int(m) >= len(matchModeNames) {
		return fmt.Sprintf("MatchMode(%d)", int(m))
	}
	return matchModeNames[m]
}

// ParseMatchMode parses a mode name in any letter case. The empty
// string selects MatchFuzzy.
func ParseMatchMode(name string) (MatchMode, error) {
	if name == "" {
		return MatchFuzzy, nil
	}
	for index, candidate := range matchModeNames {
		if strings.EqualFold(name, candidate) {
			return MatchMode(index), nil
		}
	}
	return 0, fmt.Errorf("unknown match mode %q (valid: %s)", name, strings.Join(matchModeNames[:], ", "))
}

// RegexError reports a regex-mode keyword that does not compile.
type RegexError struct {
	Pattern string
	Err     error
}

func (e *RegexError) Error() string {
	return fmt.Sprintf("invalid regex %q: %v", e.Pattern, e.Err)
}

func (e *RegexError) Unwrap() error { return e.Err }

// ErrorCode reports INVALID_REGEX to the command dispatcher.
func (e *RegexError) ErrorCode() string { return "INVALID_REGEX" }

// Query selects entries from a Buffer.
type Query struct {
	// Limit bounds the result to the most recent Limit matches. Zero or
	// negative returns every match.
	Limit int

	// Level, when non-empty, must equal the entry level exactly.
	Level string

	// Keyword, when non-empty, is matched against the message under
	// Mode.
	Keyword string
	Mode    MatchMode

	// IncludeStack keeps stack traces in the returned entries. It never
	// affects which entries match.
	IncludeStack bool
}

// Query returns matching entries in chronological order. An invalid
// regex fails before any entry is examined.
func (b *Buffer) Query(query Query) ([]Entry, error) {
	matches, err := compileMatcher(query.Keyword, query.Mode)
	if err != nil {
		return nil, err
	}

	b.mutex.Lock()
	defer b.mutex.Unlock()

	// Walk newest to oldest so that a limit stops the scan early, then
	// reverse into chronological order.
	var selected []Entry
	for offset := b.count - 1; offset >= 0; offset-- {
		if query.Limit > 0 && len(selected) == query.Limit {
			break
		}
		entry := b.at(offset)
		b.scanned++
		if query.Level != "" && entry.Level != query.Level {
			continue
		}
		if !matches(entry.Message) {
			continue
		}
		if !query.IncludeStack {
			entry.Stack = ""
		}
		selected = append(selected, entry)
	}

	for left, right := 0, len(selected)-1; left < right; left, right = left+1, right-1 {
		selected[left], selected[right] = selected[right], selected[left]
	}
	if selected == nil {
		selected = []Entry{}
	}
	return selected, nil
}

// compileMatcher builds the keyword predicate. An empty keyword
// matches everything.
func compileMatcher(keyword string, mode MatchMode) (func(string) bool, error) {
	if keyword == "" {
		return func(string) bool { return true }, nil
	}
	switch mode {
	case MatchExact:
		return func(message string) bool {
			return strings.Contains(message, keyword)
		}, nil
	case MatchRegex:
		pattern, err := regexp.Compile(keyword)
		if err != nil {
			return nil, &RegexError{Pattern: keyword, Err: err}
		}
		return pattern.MatchString, nil
	case MatchFuzzy:
		lowered := strings.ToLower(keyword)
		return func(message string) bool {
			return strings.Contains(strings.ToLower(message), lowered)
		}, nil
	default:
		return nil, fmt.Errorf("unknown match mode %d", int(mode))
	}
}
