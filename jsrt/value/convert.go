package value

import (
	"math"
	"strconv"
	"strings"

	"github.com/joeycumines/jsrt/intern"
	"github.com/joeycumines/jsrt/jserr"
)

// TypeOf implements the typeof, including the historical
// Null→"object" quirk.
func TypeOf(v Value) string {
	switch v.Kind() {
	case Undefined:
		return "undefined"
	case Null:
		return "object"
	case Boolean:
		return "boolean"
	case Number:
		return "number"
	case String:
		return "string"
	case SymbolKind:
		return "symbol"
	default:
		return "object" // refined to "function" by callers when Exotic==FunctionKind
	}
}

// TypeOfObject refines TypeOf for an ObjectKind Value, reporting
// "function" iff the object is callable (Exotic == FunctionKind), per
// the "dynamic dispatch of typeof function" design note.
func TypeOfObject(o *Object) string {
	if o.Exotic == FunctionKind {
		return "function"
	}
	return "object"
}

// ToBoolean converts v to a boolean: falsy are undefined, null, false,
// ±0, NaN, and the empty string.
func ToBoolean(v Value) bool {
	switch v.Kind() {
	case Undefined, Null:
		return false
	case Boolean:
		return v.AsBool()
	case Number:
		n := v.AsNumber()
		return n != 0 && !math.IsNaN(n)
	case String:
		return v.AsString().Content() != ""
	default:
		return true // Symbol and Object are always truthy
	}
}

// ToNumber implements the numeric coercion. Objects require a
// Host to invoke ToPrimitive; pass nil when the caller already knows v is
// not an object (an object reaching ToNumber without a host panics on
// the nil Host).
func ToNumber(h Host, v Value) (float64, error) {
	switch v.Kind() {
	case Undefined:
		return math.NaN(), nil
	case Null:
		return 0, nil
	case Boolean:
		if v.AsBool() {
			return 1, nil
		}
		return 0, nil
	case Number:
		return v.AsNumber(), nil
	case String:
		return stringToNumber(v.AsString().Content()), nil
	case SymbolKind:
		return 0, jserr.TypeError("cannot convert a Symbol value to a number")
	default:
		prim, err := ToPrimitive(h, v, "number")
		if err != nil {
			return 0, err
		}
		if prim.IsObject() {
			return 0, jserr.Internal("to_primitive did not strip object-ness")
		}
		return ToNumber(h, prim)
	}
}

func stringToNumber(s string) float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0
	}
	if s == "Infinity" || s == "+Infinity" {
		return math.Inf(1)
	}
	if s == "-Infinity" {
		return math.Inf(-1)
	}
	if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
		n, err := strconv.ParseUint(s[2:], 16, 64)
		if err != nil {
			return math.NaN()
		}
		return float64(n)
	}
	n, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return math.NaN()
	}
	return n
}

// ToStringValue implements the ToString, including the -0,
// NaN, and Infinity special cases.
func ToStringValue(t *intern.Table, h Host, v Value) (*intern.String, error) {
	switch v.Kind() {
	case Undefined:
		return t.GetOrInsert("undefined"), nil
	case Null:
		return t.GetOrInsert("null"), nil
	case Boolean:
		if v.AsBool() {
			return t.GetOrInsert("true"), nil
		}
		return t.GetOrInsert("false"), nil
	case Number:
		return t.GetOrInsert(NumberToString(v.AsNumber())), nil
	case String:
		return v.AsString(), nil
	case SymbolKind:
		return nil, jserr.TypeError("cannot convert a Symbol value to a string")
	default:
		prim, err := ToPrimitive(h, v, "string")
		if err != nil {
			return nil, err
		}
		return ToStringValue(t, h, prim)
	}
}

// NumberToString implements the ECMAScript Number::toString algorithm's
// special cases; the general case delegates to Go's shortest round-trip
// formatter, which matches ECMAScript's "shortest string that round-trips"
// requirement for the vast majority of values.
func NumberToString(n float64) string {
	if math.IsNaN(n) {
		return "NaN"
	}
	if math.IsInf(n, 1) {
		return "Infinity"
	}
	if math.IsInf(n, -1) {
		return "-Infinity"
	}
	if n == 0 {
		return "0" // +0 and -0 both stringify to "0"
	}
	return strconv.FormatFloat(n, 'g', -1, 64)
}

// ToPrimitive coerces an object to a primitive: consult Symbol.toPrimitive
// if present, else valueOf/toString in hint order.
func ToPrimitive(h Host, v Value, hint string) (Value, error) {
	if !v.IsObject() {
		return v, nil
	}
	obj := objectOf(h, v)
	if obj == nil {
		return Undef, jserr.Internal("dangling object handle in to_primitive")
	}

	if sym := lookupSymbolMethod(h, obj, "toPrimitive"); sym.IsObject() {
		result, err := h.Call(sym, v, []Value{stringVal(h, hint)})
		if err != nil {
			return Undef, err
		}
		if result.IsObject() {
			return Undef, jserr.TypeError("Symbol.toPrimitive must return a primitive")
		}
		return result, nil
	}

	order := []string{"valueOf", "toString"}
	if hint == "string" {
		order = []string{"toString", "valueOf"}
	}
	for _, name := range order {
		m := lookupMethod(h, obj, name)
		if !m.IsObject() {
			continue
		}
		result, err := h.Call(m, v, nil)
		if err != nil {
			return Undef, err
		}
		if !result.IsObject() {
			return result, nil
		}
	}
	return Undef, jserr.TypeError("cannot convert object to primitive value")
}

func objectOf(h Host, v Value) *Object {
	obj, _ := h.Heap().Get(v.AsObject()).(*Object)
	return obj
}

func stringVal(h Host, s string) Value {
	return NewString(h.Intern().GetOrInsert(s))
}

// lookupMethod / lookupSymbolMethod walk the prototype chain for a named
// (or well-known-symbol) property and return it if callable. These are
// deliberately small, dependency-free helpers so jsrt/value does not need
// to import jsrt/interp for property lookup.
func lookupMethod(h Host, obj *Object, name string) Value {
	cur := obj
	for cur != nil {
		if p, ok := cur.GetOwn(NewStringKey(h.Intern(), name)); ok && !p.IsAccessor() {
			return p.Val
		}
		if !cur.HasProto {
			break
		}
		cur, _ = h.Heap().Get(cur.Proto).(*Object)
	}
	return Undef
}

func lookupSymbolMethod(h Host, obj *Object, wellKnown string) Value {
	// Well-known symbols are identified by description in this
	// implementation's symbol registry (see jsrt/interp's Intrinsics, whose
	// well-known symbols carry descriptions like "Symbol.toPrimitive").
	cur := obj
	for cur != nil {
		for _, k := range cur.keys {
			if k.Kind() == KeySymbol {
				if d, ok := k.Symbol().Description(); ok && d == "Symbol."+wellKnown {
					if p, ok := cur.GetOwn(k); ok {
						return p.Val
					}
				}
			}
		}
		if !cur.HasProto {
			break
		}
		cur, _ = h.Heap().Get(cur.Proto).(*Object)
	}
	return Undef
}

// AbstractEquals implements the == with numeric coercion and
// object-to-primitive conversion.
func AbstractEquals(h Host, a, b Value) (bool, error) {
	if a.Kind() == b.Kind() {
		return StrictEquals(a, b), nil
	}
	if a.IsNullish() && b.IsNullish() {
		return true, nil
	}
	if a.IsNullish() || b.IsNullish() {
		return false, nil
	}
	if a.IsNumber() && b.IsString() {
		bn, err := ToNumber(h, b)
		if err != nil {
			return false, err
		}
		return a.AsNumber() == bn, nil
	}
	if a.IsString() && b.IsNumber() {
		return AbstractEquals(h, b, a)
	}
	if a.IsBoolean() {
		an, _ := ToNumber(h, a)
		return AbstractEquals(h, NewNumber(an), b)
	}
	if b.IsBoolean() {
		bn, _ := ToNumber(h, b)
		return AbstractEquals(h, a, NewNumber(bn))
	}
	if (a.IsNumber() || a.IsString() || a.IsSymbol()) && b.IsObject() {
		bp, err := ToPrimitive(h, b, "default")
		if err != nil {
			return false, err
		}
		return AbstractEquals(h, a, bp)
	}
	if a.IsObject() && (b.IsNumber() || b.IsString() || b.IsSymbol()) {
		return AbstractEquals(h, b, a)
	}
	return false, nil
}

// PropertyKeyFromValue implements the
// property_key_from_value: numbers canonicalize to Index when they are a
// non-negative integer that round-trips through ToString; strings
// canonicalize the same way; everything else is String or Symbol.
func PropertyKeyFromValue(t *intern.Table, h Host, v Value) (PropertyKey, error) {
	switch v.Kind() {
	case SymbolKind:
		return NewSymbolKey(v.AsSymbol()), nil
	case Number:
		n := v.AsNumber()
		if n >= 0 && n == math.Trunc(n) && n < math.MaxUint32 {
			s := NumberToString(n)
			if s == strconv.FormatUint(uint64(n), 10) {
				return NewIndexKey(uint32(n)), nil
			}
		}
		return NewStringKey(t, NumberToString(n)), nil
	case String:
		return NewStringKey(t, v.AsString().Content()), nil
	default:
		s, err := ToStringValue(t, h, v)
		if err != nil {
			return PropertyKey{}, err
		}
		return NewStringKey(t, s.Content()), nil
	}
}
