package builtins

import (
	"github.com/joeycumines/jsrt/gc"
	"github.com/joeycumines/jsrt/interp"
	"github.com/joeycumines/jsrt/value"
)

func thisSet(it *interp.Interpreter, this value.Value) (*value.Object, error) {
	if !this.IsObject() {
		return nil, throwType(it, "Set method called on non-object")
	}
	obj := it.Object(this.AsObject())
	if obj == nil || obj.Exotic != value.SetKind {
		return nil, throwType(it, "Set method called on incompatible receiver")
	}
	return obj, nil
}

// setupSetProto mirrors setupMapProto's shape, wrapping value.SetData
// (itself a MapData with discarded values) per exotic.go.
func setupSetProto(it *interp.Interpreter) {
	proto := it.Object(it.Intrinsics.SetProto)

	method(it, proto, "add", 1, func(host value.Host, guard *gc.Guard, this value.Value, args []value.Value) (value.Value, error) {
		obj, err := thisSet(it, this)
		if err != nil {
			return value.Undef, err
		}
		obj.SetData.Add(argAt(args, 0))
		return this, nil
	})

	method(it, proto, "has", 1, func(host value.Host, guard *gc.Guard, this value.Value, args []value.Value) (value.Value, error) {
		obj, err := thisSet(it, this)
		if err != nil {
			return value.Undef, err
		}
		return value.NewBool(obj.SetData.Has(argAt(args, 0))), nil
	})

	method(it, proto, "delete", 1, func(host value.Host, guard *gc.Guard, this value.Value, args []value.Value) (value.Value, error) {
		obj, err := thisSet(it, this)
		if err != nil {
			return value.Undef, err
		}
		return value.NewBool(obj.SetData.Delete(argAt(args, 0))), nil
	})

	method(it, proto, "clear", 0, func(host value.Host, guard *gc.Guard, this value.Value, args []value.Value) (value.Value, error) {
		obj, err := thisSet(it, this)
		if err != nil {
			return value.Undef, err
		}
		obj.SetData = value.NewSetData()
		return value.Undef, nil
	})

	method(it, proto, "forEach", 1, func(host value.Host, guard *gc.Guard, this value.Value, args []value.Value) (value.Value, error) {
		obj, err := thisSet(it, this)
		if err != nil {
			return value.Undef, err
		}
		cb := argAt(args, 0)
		for _, v := range obj.SetData.Values() {
			if _, err := it.Call(cb, argAt(args, 1), []value.Value{v, v, this}); err != nil {
				return value.Undef, err
			}
		}
		return value.Undef, nil
	})

	sizeGetter := it.NewNativeFunction("get size", 0, func(host value.Host, guard *gc.Guard, this value.Value, args []value.Value) (value.Value, error) {
		obj, err := thisSet(it, this)
		if err != nil {
			return value.Undef, err
		}
		return value.NewNumber(float64(obj.SetData.Size())), nil
	})
	accessor(proto, key(it, "size"), sizeGetter.AsObject(), false, true)

	valuesFn := func(host value.Host, guard *gc.Guard, this value.Value, args []value.Value) (value.Value, error) {
		obj, err := thisSet(it, this)
		if err != nil {
			return value.Undef, err
		}
		return it.ArrayIterator(arrayOf(it, append([]value.Value{}, obj.SetData.Values()...))), nil
	}
	entriesFn := func(host value.Host, guard *gc.Guard, this value.Value, args []value.Value) (value.Value, error) {
		obj, err := thisSet(it, this)
		if err != nil {
			return value.Undef, err
		}
		values := obj.SetData.Values()
		pairs := make([]value.Value, len(values))
		for i, v := range values {
			pairs[i] = arrayOf(it, []value.Value{v, v})
		}
		return it.ArrayIterator(arrayOf(it, pairs)), nil
	}

	method(it, proto, "values", 0, valuesFn)
	method(it, proto, "keys", 0, valuesFn)
	method(it, proto, "entries", 0, entriesFn)
	methodSymbol(it, proto, it.Intrinsics.SymbolIterator, "[Symbol.iterator]", 0, valuesFn)
}

// setupSetConstructor builds the global `Set` function: `new Set(iterable)`
// adds each iterated value once, per SameValueZero de-duplication.
func setupSetConstructor(it *interp.Interpreter) value.Value {
	ctor := it.NewNativeFunction("Set", 0, func(host value.Host, guard *gc.Guard, this value.Value, args []value.Value) (value.Value, error) {
		obj := value.NewOrdinary()
		obj.SetProto(it.Intrinsics.SetProto)
		obj.Exotic = value.SetKind
		obj.SetData = value.NewSetData()
		h := it.Heap_.Alloc(guard, obj)
		result := value.NewObject(h)
		if init := argAt(args, 0); !init.IsUndefined() && !init.IsNull() {
			entries, err := it.IterableToSlice(init)
			if err != nil {
				return value.Undef, err
			}
			for _, e := range entries {
				obj.SetData.Add(e)
			}
		}
		return result, nil
	})
	ctorObj := it.Object(ctor.AsObject())
	dataProp(ctorObj, key(it, "prototype"), value.NewObject(it.Intrinsics.SetProto), false, false, false)
	return ctor
}
