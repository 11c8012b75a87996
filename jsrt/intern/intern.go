// Package intern deduplicates immutable JavaScript strings behind cheap-clone
// handles, the way eventloop/registry.go deduplicates promise bookkeeping
// behind a single map: one allocation per distinct string content, O(1)
// clones thereafter.
package intern

import "sync/atomic"

// String is an immutable, reference-counted handle to interned content.
// Two Strings with equal Content are the same handle (pointer-equal),
// which lets PropertyKey comparison and strict-equals be pointer compares.
type String struct {
	content string
	refs    atomic.Int64
}

// Content returns the underlying UTF-8 content.
func (s *String) Content() string {
	if s == nil {
		return ""
	}
	return s.content
}

// CheapClone increments the reference count and returns the same handle.
// This mirrors the "cheap clone" glossary entry: O(1), no new allocation.
func (s *String) CheapClone() *String {
	if s != nil {
		s.refs.Add(1)
	}
	return s
}

// Table is a process-wide (per-Runtime) interner. It is not safe for
// concurrent use: runtimes are single-threaded per the spec's concurrency
// model.
type Table struct {
	strings map[string]*String
}

// New creates a Table pre-loaded with the common property names every
// runtime touches on its hot path (own-property lookups, iterator
// protocol, prototype chain names).
func New() *Table {
	t := &Table{strings: make(map[string]*String, 128)}
	for _, s := range commonStrings {
		t.GetOrInsert(s)
	}
	return t
}

// GetOrInsert returns the canonical handle for s, allocating one if this
// is the first time s has been seen by this table.
func (t *Table) GetOrInsert(s string) *String {
	if existing, ok := t.strings[s]; ok {
		return existing.CheapClone()
	}
	h := &String{content: s}
	h.refs.Store(1)
	t.strings[s] = h
	return h
}

// Lookup returns the existing handle for s without inserting, or nil.
func (t *Table) Lookup(s string) *String {
	return t.strings[s]
}

// Len reports the number of distinct interned strings.
func (t *Table) Len() int { return len(t.strings) }

// commonStrings are pre-loaded at startup so these names already have a
// canonical handle before first use; lookups still go through the map.
var commonStrings = []string{
	"length", "prototype", "constructor", "name", "message", "stack",
	"next", "done", "value", "return", "throw",
	"this", "arguments", "undefined", "null",
	"true", "false", "NaN", "Infinity",
	"toString", "valueOf", "toPrimitive", "iterator", "asyncIterator",
	"get", "set", "enumerable", "configurable", "writable",
	"default", "__proto__",
}
