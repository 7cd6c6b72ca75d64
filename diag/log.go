// Package diag provides the diagnostic log shared by every matcher in a
// compiled pattern.
//
// A Log is an ordered, growable list of human-readable messages. Matchers
// append to it when they fail; a union rolls it back to a checkpoint when a
// later alternative succeeds, so a successful match leaves no residue from
// abandoned alternatives.
//
// A Log is not safe for concurrent use. Each top-level validation owns one.
package diag

import (
	"fmt"
	"strings"
)

// Mark is a position in a Log returned by Checkpoint.
type Mark int

// Log accumulates diagnostics.
type Log struct {
	entries []string
}

// defaultCapacity covers the depth of a typical failure trail.
const defaultCapacity = 16

// New returns an empty log.
func New() *Log {
	return &Log{entries: make([]string, 0, defaultCapacity)}
}

// Add appends a message.
func (l *Log) Add(msg string) {
	l.entries = append(l.entries, msg)
}

// Addf appends a formatted message.
func (l *Log) Addf(format string, args ...any) {
	l.entries = append(l.entries, fmt.Sprintf(format, args...))
}

// Len returns the number of messages.
func (l *Log) Len() int {
	return len(l.entries)
}

// Checkpoint records the current length of the log.
func (l *Log) Checkpoint() Mark {
	return Mark(len(l.entries))
}

// Rollback discards every message added since m. Marks beyond the current
// length are ignored.
func (l *Log) Rollback(m Mark) {
	if int(m) < 0 || int(m) >= len(l.entries) {
		return
	}
	for i := int(m); i < len(l.entries); i++ {
		l.entries[i] = ""
	}
	l.entries = l.entries[:m]
}

// Clear empties the log, keeping its capacity.
func (l *Log) Clear() {
	l.Rollback(0)
}

// Entries returns a copy of the messages in order.
func (l *Log) Entries() []string {
	out := make([]string, len(l.entries))
	copy(out, l.entries)
	return out
}

// Join returns the messages separated by newlines.
func (l *Log) Join() string {
	return strings.Join(l.entries, "\n")
}

// Empty reports whether the log has no messages.
func (l *Log) Empty() bool {
	return len(l.entries) == 0
}
