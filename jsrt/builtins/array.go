package builtins

import (
	"github.com/joeycumines/jsrt/gc"
	"github.com/joeycumines/jsrt/interp"
	"github.com/joeycumines/jsrt/value"
)

// setupArrayProto installs the minimal-but-real Array.prototype surface
// the worked examples need: push/pop/shift/unshift, map/filter/
// forEach/reduce, slice/concat/join, indexOf/includes, find/findIndex,
// and a Symbol.iterator that replaces interp/iterate.go's bootstrap
// fallback (array.rs has ~1981 lines registering every ECMA-262 Array
// method; only the subset this module's scenarios exercise is built here).
func setupArrayProto(it *interp.Interpreter) {
	proto := it.Object(it.Intrinsics.ArrayProto)
	proto.Exotic = value.ArrayKind
	proto.Array = &value.ArrayData{}

	method(it, proto, "push", 1, func(host value.Host, guard *gc.Guard, this value.Value, args []value.Value) (value.Value, error) {
		obj, err := thisArray(it, this)
		if err != nil {
			return value.Undef, err
		}
		for _, a := range args {
			dataProp(obj, value.NewIndexKey(obj.Array.Length), a, true, true, true)
		}
		return value.NewNumber(float64(obj.Array.Length)), nil
	})

	method(it, proto, "pop", 0, func(host value.Host, guard *gc.Guard, this value.Value, args []value.Value) (value.Value, error) {
		obj, err := thisArray(it, this)
		if err != nil {
			return value.Undef, err
		}
		if obj.Array.Length == 0 {
			return value.Undef, nil
		}
		lastIdx := obj.Array.Length - 1
		k := value.NewIndexKey(lastIdx)
		v, _ := it.GetProperty(this.AsObject(), k)
		obj.DeleteOwn(k)
		obj.Array.Length = lastIdx
		return v, nil
	})

	method(it, proto, "shift", 0, func(host value.Host, guard *gc.Guard, this value.Value, args []value.Value) (value.Value, error) {
		els, ok := arrayElements(it, this)
		if !ok || len(els) == 0 {
			return value.Undef, nil
		}
		first := els[0]
		rewriteArray(it, this, els[1:])
		return first, nil
	})

	method(it, proto, "unshift", 1, func(host value.Host, guard *gc.Guard, this value.Value, args []value.Value) (value.Value, error) {
		els, ok := arrayElements(it, this)
		if !ok {
			return value.Undef, nil
		}
		merged := append(append([]value.Value{}, args...), els...)
		rewriteArray(it, this, merged)
		return value.NewNumber(float64(len(merged))), nil
	})

	method(it, proto, "slice", 2, func(host value.Host, guard *gc.Guard, this value.Value, args []value.Value) (value.Value, error) {
		els, _ := arrayElements(it, this)
		start, end := sliceBounds(len(els), argAt(args, 0), argAt(args, 1))
		return arrayOf(it, append([]value.Value{}, els[start:end]...)), nil
	})

	method(it, proto, "concat", 1, func(host value.Host, guard *gc.Guard, this value.Value, args []value.Value) (value.Value, error) {
		els, _ := arrayElements(it, this)
		out := append([]value.Value{}, els...)
		for _, a := range args {
			if other, ok := arrayElements(it, a); ok {
				out = append(out, other...)
			} else {
				out = append(out, a)
			}
		}
		return arrayOf(it, out), nil
	})

	method(it, proto, "join", 1, func(host value.Host, guard *gc.Guard, this value.Value, args []value.Value) (value.Value, error) {
		els, _ := arrayElements(it, this)
		sep := ","
		if s := argAt(args, 0); !s.IsUndefined() {
			var err error
			sep, err = strArg(it, s)
			if err != nil {
				return value.Undef, err
			}
		}
		out := ""
		for i, v := range els {
			if i > 0 {
				out += sep
			}
			if v.IsUndefined() || v.IsNull() {
				continue
			}
			s, err := strArg(it, v)
			if err != nil {
				return value.Undef, err
			}
			out += s
		}
		return str(it, out), nil
	})

	method(it, proto, "indexOf", 1, func(host value.Host, guard *gc.Guard, this value.Value, args []value.Value) (value.Value, error) {
		els, _ := arrayElements(it, this)
		target := argAt(args, 0)
		for i, v := range els {
			if value.StrictEquals(v, target) {
				return value.NewNumber(float64(i)), nil
			}
		}
		return value.NewNumber(-1), nil
	})

	method(it, proto, "includes", 1, func(host value.Host, guard *gc.Guard, this value.Value, args []value.Value) (value.Value, error) {
		els, _ := arrayElements(it, this)
		target := argAt(args, 0)
		for _, v := range els {
			if sameValueZero(v, target) {
				return value.True, nil
			}
		}
		return value.False, nil
	})

	method(it, proto, "forEach", 1, func(host value.Host, guard *gc.Guard, this value.Value, args []value.Value) (value.Value, error) {
		els, _ := arrayElements(it, this)
		cb := argAt(args, 0)
		for i, v := range els {
			if _, err := it.Call(cb, argAt(args, 1), []value.Value{v, value.NewNumber(float64(i)), this}); err != nil {
				return value.Undef, err
			}
		}
		return value.Undef, nil
	})

	method(it, proto, "map", 1, func(host value.Host, guard *gc.Guard, this value.Value, args []value.Value) (value.Value, error) {
		els, _ := arrayElements(it, this)
		cb := argAt(args, 0)
		out := make([]value.Value, len(els))
		for i, v := range els {
			r, err := it.Call(cb, argAt(args, 1), []value.Value{v, value.NewNumber(float64(i)), this})
			if err != nil {
				return value.Undef, err
			}
			out[i] = r
		}
		return arrayOf(it, out), nil
	})

	method(it, proto, "filter", 1, func(host value.Host, guard *gc.Guard, this value.Value, args []value.Value) (value.Value, error) {
		els, _ := arrayElements(it, this)
		cb := argAt(args, 0)
		var out []value.Value
		for i, v := range els {
			r, err := it.Call(cb, argAt(args, 1), []value.Value{v, value.NewNumber(float64(i)), this})
			if err != nil {
				return value.Undef, err
			}
			if value.ToBoolean(r) {
				out = append(out, v)
			}
		}
		return arrayOf(it, out), nil
	})

	method(it, proto, "find", 1, func(host value.Host, guard *gc.Guard, this value.Value, args []value.Value) (value.Value, error) {
		els, _ := arrayElements(it, this)
		cb := argAt(args, 0)
		for i, v := range els {
			r, err := it.Call(cb, argAt(args, 1), []value.Value{v, value.NewNumber(float64(i)), this})
			if err != nil {
				return value.Undef, err
			}
			if value.ToBoolean(r) {
				return v, nil
			}
		}
		return value.Undef, nil
	})

	method(it, proto, "findIndex", 1, func(host value.Host, guard *gc.Guard, this value.Value, args []value.Value) (value.Value, error) {
		els, _ := arrayElements(it, this)
		cb := argAt(args, 0)
		for i, v := range els {
			r, err := it.Call(cb, argAt(args, 1), []value.Value{v, value.NewNumber(float64(i)), this})
			if err != nil {
				return value.Undef, err
			}
			if value.ToBoolean(r) {
				return value.NewNumber(float64(i)), nil
			}
		}
		return value.NewNumber(-1), nil
	})

	method(it, proto, "reduce", 1, func(host value.Host, guard *gc.Guard, this value.Value, args []value.Value) (value.Value, error) {
		els, _ := arrayElements(it, this)
		cb := argAt(args, 0)
		start := 0
		var acc value.Value
		if len(args) > 1 {
			acc = args[1]
		} else {
			if len(els) == 0 {
				return value.Undef, throwType(it, "Reduce of empty array with no initial value")
			}
			acc = els[0]
			start = 1
		}
		for i := start; i < len(els); i++ {
			r, err := it.Call(cb, value.Undef, []value.Value{acc, els[i], value.NewNumber(float64(i)), this})
			if err != nil {
				return value.Undef, err
			}
			acc = r
		}
		return acc, nil
	})

	method(it, proto, "reverse", 0, func(host value.Host, guard *gc.Guard, this value.Value, args []value.Value) (value.Value, error) {
		els, _ := arrayElements(it, this)
		for i, j := 0, len(els)-1; i < j; i, j = i+1, j-1 {
			els[i], els[j] = els[j], els[i]
		}
		rewriteArray(it, this, els)
		return this, nil
	})

	method(it, proto, "toString", 0, func(host value.Host, guard *gc.Guard, this value.Value, args []value.Value) (value.Value, error) {
		els, _ := arrayElements(it, this)
		out := ""
		for i, v := range els {
			if i > 0 {
				out += ","
			}
			if v.IsUndefined() || v.IsNull() {
				continue
			}
			s, err := strArg(it, v)
			if err != nil {
				return value.Undef, err
			}
			out += s
		}
		return str(it, out), nil
	})

	methodSymbol(it, proto, it.Intrinsics.SymbolIterator, "[Symbol.iterator]", 0, func(host value.Host, guard *gc.Guard, this value.Value, args []value.Value) (value.Value, error) {
		return it.ArrayIterator(this), nil
	})
}

func thisArray(it *interp.Interpreter, this value.Value) (*value.Object, error) {
	if !this.IsObject() {
		return nil, throwType(it, "Array method called on non-object")
	}
	obj := it.Object(this.AsObject())
	if obj == nil || obj.Exotic != value.ArrayKind {
		return nil, throwType(it, "Array method called on non-array")
	}
	return obj, nil
}

func rewriteArray(it *interp.Interpreter, this value.Value, els []value.Value) {
	obj, err := thisArray(it, this)
	if err != nil {
		return
	}
	oldLen := obj.Array.Length
	for i := range int(oldLen) {
		obj.DeleteOwn(value.NewIndexKey(uint32(i)))
	}
	obj.Array.Length = 0
	for i, v := range els {
		dataProp(obj, value.NewIndexKey(uint32(i)), v, true, true, true)
	}
}

func sliceBounds(length int, startV, endV value.Value) (int, int) {
	norm := func(v value.Value, def int) int {
		if v.IsUndefined() {
			return def
		}
		n := int(toNumberOrZero(v))
		if n < 0 {
			n += length
		}
		if n < 0 {
			n = 0
		}
		if n > length {
			n = length
		}
		return n
	}
	start := norm(startV, 0)
	end := norm(endV, length)
	if end < start {
		end = start
	}
	return start, end
}

// setupArrayConstructor builds the Array constructor: Array(n) / Array(...)
// plus Array.isArray/Array.from/Array.of.
func setupArrayConstructor(it *interp.Interpreter) value.Value {
	ctor := it.NewNativeFunction("Array", 1, func(host value.Host, guard *gc.Guard, this value.Value, args []value.Value) (value.Value, error) {
		if len(args) == 1 && args[0].IsNumber() {
			n := uint32(args[0].AsNumber())
			items := make([]value.Value, n)
			for i := range items {
				items[i] = value.Undef
			}
			return arrayOf(it, items), nil
		}
		return arrayOf(it, append([]value.Value{}, args...)), nil
	})
	ctorObj := it.Object(ctor.AsObject())
	dataProp(ctorObj, key(it, "prototype"), value.NewObject(it.Intrinsics.ArrayProto), false, false, false)

	method(it, ctorObj, "isArray", 1, func(host value.Host, guard *gc.Guard, this value.Value, args []value.Value) (value.Value, error) {
		v := argAt(args, 0)
		if !v.IsObject() {
			return value.False, nil
		}
		obj := it.Object(v.AsObject())
		return value.NewBool(obj != nil && obj.Exotic == value.ArrayKind), nil
	})

	method(it, ctorObj, "of", 0, func(host value.Host, guard *gc.Guard, this value.Value, args []value.Value) (value.Value, error) {
		return arrayOf(it, append([]value.Value{}, args...)), nil
	})

	method(it, ctorObj, "from", 1, func(host value.Host, guard *gc.Guard, this value.Value, args []value.Value) (value.Value, error) {
		src := argAt(args, 0)
		var items []value.Value
		if els, ok := arrayElements(it, src); ok {
			items = els
		} else {
			sliced, err := it.IterableToSlice(src)
			if err != nil {
				return value.Undef, err
			}
			items = sliced
		}
		if mapFn := argAt(args, 1); mapFn.IsObject() {
			out := make([]value.Value, len(items))
			for i, v := range items {
				r, err := it.Call(mapFn, value.Undef, []value.Value{v, value.NewNumber(float64(i))})
				if err != nil {
					return value.Undef, err
				}
				out[i] = r
			}
			items = out
		}
		return arrayOf(it, items), nil
	})

	return ctor
}
