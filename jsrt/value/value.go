// Package value implements the tagged Value union, Object shape, property
// descriptors and exotic object kinds described in /§4.3. It
// shares the gc.Handle identity model from jsrt/gc: an Object Value is
// just a Handle plus the owning Heap.
package value

import (
	"fmt"
	"math"

	"github.com/joeycumines/jsrt/gc"
	"github.com/joeycumines/jsrt/intern"
)

// Kind is the Value tag.
type Kind uint8

const (
	Undefined Kind = iota
	Null
	Boolean
	Number
	String
	SymbolKind
	ObjectKind
)

func (k Kind) String() string {
	switch k {
	case Undefined:
		return "undefined"
	case Null:
		return "null"
	case Boolean:
		return "boolean"
	case Number:
		return "number"
	case String:
		return "string"
	case SymbolKind:
		return "symbol"
	default:
		return "object"
	}
}

// Symbol is a unique identity with an optional description. Two symbols
// with the same description are never equal (this module invariant).
type Symbol struct {
	id uint64
	desc string
	private bool
}

// IsPrivate reports whether this symbol backs a class private name
// (#x) rather than a user-visible Symbol, so jsrt/interp's property
// get/set can enforce brand-checked, own-property-only access for it.
func (s *Symbol) IsPrivate() bool { return s.private }

func (s *Symbol) String() string {
	if s.desc == "" {
		return "Symbol"
	}
	return fmt.Sprintf("Symbol(%s)", s.desc)
}

// Description returns the symbol's optional description.
func (s *Symbol) Description() (string, bool) { return s.desc, s.desc != "" }

var nextSymbolID uint64

// NewSymbol allocates a fresh Symbol with the given description.
func NewSymbol(desc string) *Symbol {
	nextSymbolID++
	return &Symbol{id: nextSymbolID, desc: desc}
}

// NewPrivateSymbol allocates a fresh Symbol backing one class's private
// name declaration (#name) — a distinct brand per class per name, never
// equal to any other symbol including one built from the same name by a
// different class.
func NewPrivateSymbol(name string) *Symbol {
	nextSymbolID++
	return &Symbol{id: nextSymbolID, desc: "#" + name, private: true}
}

// Value is the tagged union described in. It is a plain Go
// value type: cheap to copy, pass by value throughout the interpreter.
type Value struct {
	kind Kind
	num float64
	b bool
	str *intern.String
	sym *Symbol
	obj gc.Handle
}

// Undef, Nul and the boolean singletons avoid repeated construction on
// the hottest paths (identifier lookups, comparisons).
var (
	Undef = Value{kind: Undefined}
	Nul = Value{kind: Null}
	True = Value{kind: Boolean, b: true}
	False = Value{kind: Boolean, b: false}
	PosZero = Value{kind: Number, num: 0}
	NegZero = Value{kind: Number, num: math.Copysign(0, -1)}
	NaNValue = Value{kind: Number, num: math.NaN()}
)

// NewNumber builds a Number Value.
func NewNumber(n float64) Value { return Value{kind: Number, num: n} }

// NewBool builds a Boolean Value.
func NewBool(b bool) Value {
	if b {
		return True
	}
	return False
}

// NewString builds a String Value from an already-interned handle.
func NewString(s *intern.String) Value { return Value{kind: String, str: s} }

// NewSymbolValue wraps a Symbol as a Value.
func NewSymbolValue(s *Symbol) Value { return Value{kind: SymbolKind, sym: s} }

// NewObject wraps an Object's heap Handle as a Value.
func NewObject(h gc.Handle) Value { return Value{kind: ObjectKind, obj: h} }

// Kind reports the Value's tag.
func (v Value) Kind() Kind { return v.kind }

// IsUndefined, IsNull, IsObject, IsString, IsNumber, IsSymbol, IsBoolean
// are discriminator helpers used throughout the interpreter in place of
// repeated Kind switches.
func (v Value) IsUndefined() bool { return v.kind == Undefined }
func (v Value) IsNull() bool { return v.kind == Null }
func (v Value) IsNullish() bool { return v.kind == Undefined || v.kind == Null }
func (v Value) IsObject() bool { return v.kind == ObjectKind }
func (v Value) IsString() bool { return v.kind == String }
func (v Value) IsNumber() bool { return v.kind == Number }
func (v Value) IsSymbol() bool { return v.kind == SymbolKind }
func (v Value) IsBoolean() bool { return v.kind == Boolean }

// AsNumber, AsBool, AsString, AsSymbol, AsObject are unchecked accessors;
// callers must have checked Kind (or used the Is* helpers) first.
func (v Value) AsNumber() float64 { return v.num }
func (v Value) AsBool() bool { return v.b }
func (v Value) AsString() *intern.String { return v.str }
func (v Value) AsSymbol() *Symbol { return v.sym }
func (v Value) AsObject() gc.Handle { return v.obj }

// SameValue implements SameValue (used by Object.is), distinguishing +0
// from -0 and treating NaN as equal to itself — stricter than
// StrictEquals.
func SameValue(a, b Value) bool {
	if a.kind != b.kind {
		return false
	}
	switch a.kind {
	case Number:
		if math.IsNaN(a.num) && math.IsNaN(b.num) {
			return true
		}
		if a.num == 0 && b.num == 0 {
			return math.Signbit(a.num) == math.Signbit(b.num)
		}
		return a.num == b.num
	case String:
		return a.str.Content() == b.str.Content()
	case Boolean:
		return a.b == b.b
	case SymbolKind:
		return a.sym == b.sym
	case ObjectKind:
		return a.obj == b.obj
	default:
		return true // Undefined, Null: single inhabitant
	}
}

// StrictEquals implements ===: numbers compare by IEEE-754 equality (so
// NaN !== NaN and +0 === -0), strings by content, objects by identity.
func StrictEquals(a, b Value) bool {
	if a.kind != b.kind {
		return false
	}
	switch a.kind {
	case Number:
		return a.num == b.num
	case String:
		return a.str.Content() == b.str.Content()
	case Boolean:
		return a.b == b.b
	case SymbolKind:
		return a.sym == b.sym
	case ObjectKind:
		return a.obj == b.obj
	default:
		return true
	}
}
