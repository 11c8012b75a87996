package value

import (
	"strconv"

	"github.com/joeycumines/jsrt/intern"
)

// KeyKind distinguishes the three PropertyKey shapes. Canonicalization
// happens once, at construction (NewStringKey), implementing "single
// choke-point for key creation".
type KeyKind uint8

const (
	KeyString KeyKind = iota
	KeyIndex
	KeySymbol
)

// PropertyKey is one of: an interned string, a canonical 32-bit integer
// index, or a Symbol. "10" and 10 are the same key; "10.0" and 10 are not
//.
type PropertyKey struct {
	kind KeyKind
	str *intern.String
	idx uint32
	sym *Symbol
}

// NewStringKey canonicalizes s: if it is the canonical decimal form of a
// non-negative uint32, it becomes an Index key; otherwise an interned
// String key.
func NewStringKey(t *intern.Table, s string) PropertyKey {
	if n, ok := canonicalIndex(s); ok {
		return PropertyKey{kind: KeyIndex, idx: n}
	}
	return PropertyKey{kind: KeyString, str: t.GetOrInsert(s)}
}

// NewIndexKey builds an Index key directly, e.g. from array element
// access with an already-numeric subscript.
func NewIndexKey(n uint32) PropertyKey { return PropertyKey{kind: KeyIndex, idx: n} }

// NewSymbolKey builds a Symbol key.
func NewSymbolKey(s *Symbol) PropertyKey { return PropertyKey{kind: KeySymbol, sym: s} }

// canonicalIndex reports whether s is the canonical string form of a
// uint32 (no leading zeros except "0" itself, no sign, fits in uint32).
func canonicalIndex(s string) (uint32, bool) {
	if s == "" {
		return 0, false
	}
	if s == "0" {
		return 0, true
	}
	if s[0] < '1' || s[0] > '9' {
		return 0, false
	}
	n, err := strconv.ParseUint(s, 10, 32)
	if err != nil {
		return 0, false
	}
	if strconv.FormatUint(n, 10) != s {
		return 0, false
	}
	return uint32(n), true
}

// Kind reports which PropertyKey shape k is.
func (k PropertyKey) Kind() KeyKind { return k.kind }

// Index returns the numeric index for a KeyIndex key (undefined otherwise).
func (k PropertyKey) Index() uint32 { return k.idx }

// StringValue returns the interned string for a KeyString key.
func (k PropertyKey) StringValue() *intern.String { return k.str }

// Symbol returns the symbol for a KeySymbol key.
func (k PropertyKey) Symbol() *Symbol { return k.sym }

// IsPrivate reports whether this key backs a class private name, per
// Symbol.IsPrivate.
func (k PropertyKey) IsPrivate() bool { return k.kind == KeySymbol && k.sym != nil && k.sym.private }

// String renders the key the way ECMAScript would stringify it (used for
// enumeration order comparisons, debug output, and by to_string on an
// object whose key came from a computed property).
func (k PropertyKey) String() string {
	switch k.kind {
	case KeyIndex:
		return strconv.FormatUint(uint64(k.idx), 10)
	case KeySymbol:
		return k.sym.String()
	default:
		return k.str.Content()
	}
}

// Equal reports structural equality, per this module's "keys compare by
// structural equality; integer keys hash independently of their string
// form".
func (k PropertyKey) Equal(o PropertyKey) bool {
	if k.kind != o.kind {
		return false
	}
	switch k.kind {
	case KeyIndex:
		return k.idx == o.idx
	case KeySymbol:
		return k.sym == o.sym
	default:
		return k.str.Content() == o.str.Content()
	}
}
