package builtins

import (
	"fmt"

	"github.com/joeycumines/jsrt/gc"
	"github.com/joeycumines/jsrt/interp"
	"github.com/joeycumines/jsrt/value"
)

// argAt returns args[i], or Undefined if i is out of range — every native
// method below reads its arguments this way rather than bounds-checking
// inline at each call site.
func argAt(args []value.Value, i int) value.Value {
	if i < 0 || i >= len(args) {
		return value.Undef
	}
	return args[i]
}

func str(it *interp.Interpreter, s string) value.Value {
	return value.NewString(it.Intern_.GetOrInsert(s))
}

func key(it *interp.Interpreter, name string) value.PropertyKey {
	return value.NewStringKey(it.Intern_, name)
}

// newPlainObject allocates an Ordinary object with the given prototype,
// rooted permanently — every builtin prototype/constructor object is
// process-lifetime, like the interpreter's own Intrinsics.
func newPlainObject(it *interp.Interpreter, proto gc.Handle) (*value.Object, gc.Handle) {
	obj := value.NewOrdinary()
	obj.SetProto(proto)
	h := it.Heap_.Alloc(it.Heap_.RootGuard(), obj)
	return obj, h
}

// method installs a non-enumerable, writable, configurable native method —
// the standard attribute set for a prototype method in every example repo
// that hand-rolls one (following the usual defineDataProp convention in
// jsrt/interp/call.go, mirrored here since builtins cannot reach that
// unexported helper).
func method(it *interp.Interpreter, obj *value.Object, name string, arity int, fn value.NativeFunc) {
	fnVal := it.NewNativeFunction(name, arity, fn)
	obj.DefineOwn(key(it, name), value.Property{Val: fnVal, Writable: true, Enumerable: false, Configurable: true})
}

func methodSymbol(it *interp.Interpreter, obj *value.Object, sym *value.Symbol, name string, arity int, fn value.NativeFunc) {
	fnVal := it.NewNativeFunction(name, arity, fn)
	obj.DefineOwn(value.NewSymbolKey(sym), value.Property{Val: fnVal, Writable: true, Enumerable: false, Configurable: true})
}

func dataProp(obj *value.Object, k value.PropertyKey, v value.Value, writable, enumerable, configurable bool) {
	obj.DefineOwn(k, value.Property{Val: v, Writable: writable, Enumerable: enumerable, Configurable: configurable})
}

func accessor(obj *value.Object, k value.PropertyKey, getter gc.Handle, enumerable, configurable bool) {
	obj.DefineOwn(k, value.Property{HasGet: true, Get: getter, Enumerable: enumerable, Configurable: configurable})
}

// numArg/strArg coerce a single argument the way the corresponding JS
// built-in would (ToNumber/ToString), surfacing a thrown
// TypeError (e.g. Symbol-to-number) as a Go error.
func numArg(it *interp.Interpreter, v value.Value) (float64, error) {
	n, err := value.ToNumber(it, v)
	if err != nil {
		return 0, it.ThrowValue(errorObj(it, "TypeError", err.Error()))
	}
	return n, nil
}

func strArg(it *interp.Interpreter, v value.Value) (string, error) {
	s, err := value.ToStringValue(it.Intern_, it, v)
	if err != nil {
		return "", it.ThrowValue(errorObj(it, "TypeError", err.Error()))
	}
	return s.Content(), nil
}

// errorObj builds a plain {name, message} object on Intrinsics.ErrorProto,
// with the same prototype and name/message attributes as
// jsrt/interp/call.go's errorValue. Unlike errorValue it attaches no
// `stack` property.
func errorObj(it *interp.Interpreter, name, message string) value.Value {
	obj, h := newPlainObject(it, it.Intrinsics.ErrorProto)
	dataProp(obj, key(it, "name"), str(it, name), true, false, true)
	dataProp(obj, key(it, "message"), str(it, message), true, false, true)
	return value.NewObject(h)
}

func throwType(it *interp.Interpreter, format string, args...any) error {
	return it.ThrowValue(errorObj(it, "TypeError", fmt.Sprintf(format, args...)))
}

func throwRange(it *interp.Interpreter, format string, args...any) error {
	return it.ThrowValue(errorObj(it, "RangeError", fmt.Sprintf(format, args...)))
}

// sameValueZero implements the Array.prototype.includes comparison:
// SameValue but +0 equals -0 (unlike Object.is/SameValue).
func sameValueZero(a, b value.Value) bool {
	if a.IsNumber() && b.IsNumber() {
		an, bn := a.AsNumber(), b.AsNumber()
		if an != an && bn != bn { // both NaN
			return true
		}
		return an == bn
	}
	return value.SameValue(a, b)
}

// toNumberOrZero returns v's number when v is a Number and 0 for every
// other kind; it performs no ToNumber coercion (a numeric string also
// yields 0). slice passes its raw index arguments through it.
func toNumberOrZero(v value.Value) float64 {
	if v.IsNumber() {
		return v.AsNumber()
	}
	return 0
}

func arrayOf(it *interp.Interpreter, items []value.Value) value.Value {
	obj := value.NewOrdinary()
	obj.Exotic = value.ArrayKind
	obj.Array = &value.ArrayData{}
	obj.SetProto(it.Intrinsics.ArrayProto)
	for i, v := range items {
		dataProp(obj, value.NewIndexKey(uint32(i)), v, true, true, true)
	}
	h := it.Heap_.Alloc(it.Guard(), obj)
	return value.NewObject(h)
}

// arrayElements reads back an Array-exotic object's dense elements
// (0..length), per this module's simplified Array model (no holes tracked
// separately from "absent property").
func arrayElements(it *interp.Interpreter, v value.Value) ([]value.Value, bool) {
	if !v.IsObject() {
		return nil, false
	}
	obj := it.Object(v.AsObject())
	if obj == nil || obj.Exotic != value.ArrayKind {
		return nil, false
	}
	out := make([]value.Value, obj.Array.Length)
	for i := range out {
		out[i], _ = it.GetProperty(v.AsObject(), value.NewIndexKey(uint32(i)))
	}
	return out, true
}
