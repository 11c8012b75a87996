package builtins

import (
	"github.com/joeycumines/jsrt/gc"
	"github.com/joeycumines/jsrt/interp"
	"github.com/joeycumines/jsrt/value"
)

// setupSymbolProto installs Symbol.prototype.toString/valueOf/description,
// the members a boxed-primitive symbol access (`sym.toString()`) needs —
// grounded on original_source/src/interpreter/builtins's symbol
// handling, which likewise keeps the prototype minimal since most Symbol
// behavior is identity, not methods.
func setupSymbolProto(it *interp.Interpreter) {
	proto := it.Object(it.Intrinsics.SymbolProto)

	method(it, proto, "toString", 0, func(host value.Host, guard *gc.Guard, this value.Value, args []value.Value) (value.Value, error) {
		if !this.IsSymbol() {
			return value.Undef, throwType(it, "Symbol.prototype.toString called on non-symbol")
		}
		return str(it, this.AsSymbol().String()), nil
	})

	method(it, proto, "valueOf", 0, func(host value.Host, guard *gc.Guard, this value.Value, args []value.Value) (value.Value, error) {
		return this, nil
	})

	descKey := key(it, "description")
	getter := it.NewNativeFunction("get description", 0, func(host value.Host, guard *gc.Guard, this value.Value, args []value.Value) (value.Value, error) {
		if !this.IsSymbol() {
			return value.Undef, nil
		}
		desc, ok := this.AsSymbol().Description()
		if !ok {
			return value.Undef, nil
		}
		return str(it, desc), nil
	})
	accessor(proto, descKey, getter.AsObject(), false, true)
}

// setupSymbolConstructor builds the global `Symbol` function: callable
// (never constructable — `new Symbol()` is a TypeError, per the spec) with
// the well-known symbols and the for/keyFor global registry as static
// properties.
func setupSymbolConstructor(it *interp.Interpreter) value.Value {
	ctor := it.NewNativeFunction("Symbol", 0, func(host value.Host, guard *gc.Guard, this value.Value, args []value.Value) (value.Value, error) {
		if this.IsObject() {
			if o := it.Object(this.AsObject()); o != nil && o.HasProto && o.Proto == it.Intrinsics.SymbolProto {
				return value.Undef, throwType(it, "Symbol is not a constructor")
			}
		}
		desc := ""
		if v := argAt(args, 0); !v.IsUndefined() {
			s, err := strArg(it, v)
			if err != nil {
				return value.Undef, err
			}
			desc = s
		}
		return value.NewSymbolValue(value.NewSymbol(desc)), nil
	})
	ctorObj := it.Object(ctor.AsObject())
	dataProp(ctorObj, key(it, "prototype"), value.NewObject(it.Intrinsics.SymbolProto), false, false, false)
	dataProp(ctorObj, key(it, "iterator"), value.NewSymbolValue(it.Intrinsics.SymbolIterator), false, false, false)
	dataProp(ctorObj, key(it, "asyncIterator"), value.NewSymbolValue(it.Intrinsics.SymbolAsyncIterator), false, false, false)
	dataProp(ctorObj, key(it, "toPrimitive"), value.NewSymbolValue(it.Intrinsics.SymbolToPrimitive), false, false, false)

	method(it, ctorObj, "for", 1, func(host value.Host, guard *gc.Guard, this value.Value, args []value.Value) (value.Value, error) {
		s, err := strArg(it, argAt(args, 0))
		if err != nil {
			return value.Undef, err
		}
		return value.NewSymbolValue(it.SymbolFor(s)), nil
	})

	method(it, ctorObj, "keyFor", 1, func(host value.Host, guard *gc.Guard, this value.Value, args []value.Value) (value.Value, error) {
		v := argAt(args, 0)
		if !v.IsSymbol() {
			return value.Undef, throwType(it, "Symbol.keyFor called on a non-symbol")
		}
		k, ok := it.SymbolKeyFor(v.AsSymbol())
		if !ok {
			return value.Undef, nil
		}
		return str(it, k), nil
	})

	return ctor
}
