package builtins

import (
	"github.com/joeycumines/jsrt/gc"
	"github.com/joeycumines/jsrt/interp"
	"github.com/joeycumines/jsrt/value"
)

func thisMap(it *interp.Interpreter, this value.Value) (*value.Object, error) {
	if !this.IsObject() {
		return nil, throwType(it, "Map method called on non-object")
	}
	obj := it.Object(this.AsObject())
	if obj == nil || obj.Exotic != value.MapKind {
		return nil, throwType(it, "Map method called on incompatible receiver")
	}
	return obj, nil
}

// setupMapProto installs Map.prototype's get/set/has/delete/clear/size,
// forEach, and the three iterator accessors, grounded on
// original_source/src/interpreter/builtins's map handling, reusing
// value.MapData's insertion-order bucketing for iteration.
func setupMapProto(it *interp.Interpreter) {
	proto := it.Object(it.Intrinsics.MapProto)

	method(it, proto, "get", 1, func(host value.Host, guard *gc.Guard, this value.Value, args []value.Value) (value.Value, error) {
		obj, err := thisMap(it, this)
		if err != nil {
			return value.Undef, err
		}
		v, ok := obj.MapData.Get(argAt(args, 0))
		if !ok {
			return value.Undef, nil
		}
		return v, nil
	})

	method(it, proto, "set", 2, func(host value.Host, guard *gc.Guard, this value.Value, args []value.Value) (value.Value, error) {
		obj, err := thisMap(it, this)
		if err != nil {
			return value.Undef, err
		}
		obj.MapData.Set(argAt(args, 0), argAt(args, 1))
		return this, nil
	})

	method(it, proto, "has", 1, func(host value.Host, guard *gc.Guard, this value.Value, args []value.Value) (value.Value, error) {
		obj, err := thisMap(it, this)
		if err != nil {
			return value.Undef, err
		}
		_, ok := obj.MapData.Get(argAt(args, 0))
		return value.NewBool(ok), nil
	})

	method(it, proto, "delete", 1, func(host value.Host, guard *gc.Guard, this value.Value, args []value.Value) (value.Value, error) {
		obj, err := thisMap(it, this)
		if err != nil {
			return value.Undef, err
		}
		return value.NewBool(obj.MapData.Delete(argAt(args, 0))), nil
	})

	method(it, proto, "clear", 0, func(host value.Host, guard *gc.Guard, this value.Value, args []value.Value) (value.Value, error) {
		obj, err := thisMap(it, this)
		if err != nil {
			return value.Undef, err
		}
		obj.MapData = value.NewMapData()
		return value.Undef, nil
	})

	method(it, proto, "forEach", 1, func(host value.Host, guard *gc.Guard, this value.Value, args []value.Value) (value.Value, error) {
		obj, err := thisMap(it, this)
		if err != nil {
			return value.Undef, err
		}
		cb := argAt(args, 0)
		keys, values := obj.MapData.Entries()
		for i := range keys {
			if _, err := it.Call(cb, argAt(args, 1), []value.Value{values[i], keys[i], this}); err != nil {
				return value.Undef, err
			}
		}
		return value.Undef, nil
	})

	sizeGetter := it.NewNativeFunction("get size", 0, func(host value.Host, guard *gc.Guard, this value.Value, args []value.Value) (value.Value, error) {
		obj, err := thisMap(it, this)
		if err != nil {
			return value.Undef, err
		}
		return value.NewNumber(float64(obj.MapData.Size())), nil
	})
	accessor(proto, key(it, "size"), sizeGetter.AsObject(), false, true)

	keysFn := func(host value.Host, guard *gc.Guard, this value.Value, args []value.Value) (value.Value, error) {
		obj, err := thisMap(it, this)
		if err != nil {
			return value.Undef, err
		}
		keys, _ := obj.MapData.Entries()
		return it.ArrayIterator(arrayOf(it, append([]value.Value{}, keys...))), nil
	}
	valuesFn := func(host value.Host, guard *gc.Guard, this value.Value, args []value.Value) (value.Value, error) {
		obj, err := thisMap(it, this)
		if err != nil {
			return value.Undef, err
		}
		_, values := obj.MapData.Entries()
		return it.ArrayIterator(arrayOf(it, append([]value.Value{}, values...))), nil
	}
	entriesFn := func(host value.Host, guard *gc.Guard, this value.Value, args []value.Value) (value.Value, error) {
		obj, err := thisMap(it, this)
		if err != nil {
			return value.Undef, err
		}
		keys, values := obj.MapData.Entries()
		pairs := make([]value.Value, len(keys))
		for i := range keys {
			pairs[i] = arrayOf(it, []value.Value{keys[i], values[i]})
		}
		return it.ArrayIterator(arrayOf(it, pairs)), nil
	}

	method(it, proto, "keys", 0, keysFn)
	method(it, proto, "values", 0, valuesFn)
	method(it, proto, "entries", 0, entriesFn)
	methodSymbol(it, proto, it.Intrinsics.SymbolIterator, "[Symbol.iterator]", 0, entriesFn)
}

// setupMapConstructor builds the global `Map` function: `new Map(iterable)`
// seeds entries from an iterable of [key, value] pairs, per the spec.
func setupMapConstructor(it *interp.Interpreter) value.Value {
	ctor := it.NewNativeFunction("Map", 0, func(host value.Host, guard *gc.Guard, this value.Value, args []value.Value) (value.Value, error) {
		obj := value.NewOrdinary()
		obj.SetProto(it.Intrinsics.MapProto)
		obj.Exotic = value.MapKind
		obj.MapData = value.NewMapData()
		h := it.Heap_.Alloc(guard, obj)
		result := value.NewObject(h)
		if init := argAt(args, 0); !init.IsUndefined() && !init.IsNull() {
			entries, err := it.IterableToSlice(init)
			if err != nil {
				return value.Undef, err
			}
			for _, e := range entries {
				pair, ok := arrayElements(it, e)
				if !ok || len(pair) < 2 {
					return value.Undef, throwType(it, "Iterator value is not an entry object")
				}
				obj.MapData.Set(pair[0], pair[1])
			}
		}
		return result, nil
	})
	ctorObj := it.Object(ctor.AsObject())
	dataProp(ctorObj, key(it, "prototype"), value.NewObject(it.Intrinsics.MapProto), false, false, false)
	return ctor
}
