package interp

import (
	"github.com/joeycumines/jsrt/gc"
	"github.com/joeycumines/jsrt/value"
)

// getIterator implements the iterable protocol's first step: call
// [Symbol.iterator] (or [Symbol.asyncIterator] when await is true,
// falling back to the sync iterator per the for-await-of spec) and
// return the resulting iterator object.
func (it *Interpreter) getIterator(v value.Value, isAsync bool) (value.Value, error) {
	if !v.IsObject() {
		if v.IsString() {
			return it.stringIterator(v), nil
		}
		return value.Undef, it.ThrowValue(it.newTypeError("%s is not iterable", value.TypeOf(v)))
	}
	obj := it.Object(v.AsObject())
	if obj == nil {
		return value.Undef, internalBug("getIterator on dangling handle")
	}
	if isAsync {
		if m := it.lookupWellKnown(obj, it.Intrinsics.SymbolAsyncIterator); m.IsObject() {
			return it.Call(m, v, nil)
		}
	}
	m := it.lookupWellKnown(obj, it.Intrinsics.SymbolIterator)
	if !m.IsObject() {
		if obj.Exotic == value.ArrayKind {
			return it.arrayIterator(v), nil
		}
		return value.Undef, it.ThrowValue(it.newTypeError("value is not iterable"))
	}
	return it.Call(m, v, nil)
}

func (it *Interpreter) lookupWellKnown(obj *value.Object, sym *value.Symbol) value.Value {
	cur := obj
	for cur != nil {
		for _, k := range cur.OwnKeys() {
			if k.Kind() == value.KeySymbol && k.Symbol() == sym {
				p, _ := cur.GetOwn(k)
				if p.IsAccessor() {
					if !p.HasGet {
						return value.Undef
					}
					v, _ := it.Call(value.NewObject(p.Get), value.Undef, nil)
					return v
				}
				return p.Val
			}
		}
		if !cur.HasProto {
			return value.Undef
		}
		cur = it.Object(cur.Proto)
	}
	return value.Undef
}

// iteratorNext pulls one {value, done} pair. When isAsync, the result
// itself may be a promise (for-await-of); this implementation awaits it
// inline through awaitValue so callers see the unwrapped value.
func (it *Interpreter) iteratorNext(iterObj value.Value, arg value.Value, isAsync bool) (value.Value, bool, error) {
	obj := it.Object(iterObj.AsObject())
	if obj == nil {
		return value.Undef, true, internalBug("iteratorNext on dangling handle")
	}
	next := it.getProperty(obj, it.nameKey("next"))
	if !next.IsObject() {
		return value.Undef, true, it.ThrowValue(it.newTypeError("iterator.next is not a function"))
	}
	var args []value.Value
	if !arg.IsUndefined() {
		args = []value.Value{arg}
	}
	result, err := it.Call(next, iterObj, args)
	if err != nil {
		return value.Undef, true, err
	}
	if isAsync {
		resolved, aerr := it.awaitValue(result)
		if aerr != nil {
			return value.Undef, true, aerr
		}
		result = resolved
	}
	if !result.IsObject() {
		return value.Undef, true, it.ThrowValue(it.newTypeError("iterator result is not an object"))
	}
	resObj := it.Object(result.AsObject())
	done := value.ToBoolean(it.getProperty(resObj, it.nameKey("done")))
	val := it.getProperty(resObj, it.nameKey("value"))
	return val, done, nil
}

// iteratorClose implements the "iterator close" protocol (this module
// §4.5.4): call return if present, ignoring its result (and any
// error it raises, per the common relaxation used when closing on an
// already-abrupt path; every caller, abrupt or not, uses this
// error-discarding form).
func (it *Interpreter) iteratorClose(iterObj value.Value) {
	if !iterObj.IsObject() {
		return
	}
	obj := it.Object(iterObj.AsObject())
	if obj == nil {
		return
	}
	ret := it.getProperty(obj, it.nameKey("return"))
	if !ret.IsObject() {
		return
	}
	_, _ = it.Call(ret, iterObj, nil)
}

func (it *Interpreter) nameKey(s string) value.PropertyKey {
	return value.NewStringKey(it.Intern_, s)
}

// IterableToSlice is the exported form of iterableToSlice, used by
// jsrt/builtins (Array.from, Promise.all/allSettled/race/any on a
// non-array iterable).
func (it *Interpreter) IterableToSlice(v value.Value) ([]value.Value, error) {
	return it.iterableToSlice(v)
}

// iterableToSlice drains an iterable fully into a Go slice, used by
// array-literal spread and call-argument spread.
func (it *Interpreter) iterableToSlice(v value.Value) ([]value.Value, error) {
	iter, err := it.getIterator(v, false)
	if err != nil {
		return nil, err
	}
	var out []value.Value
	for {
		item, done, nerr := it.iteratorNext(iter, value.Undef, false)
		if nerr != nil {
			return nil, nerr
		}
		if done {
			return out, nil
		}
		out = append(out, item)
	}
}

// ArrayIterator is the exported form of arrayIterator, used by
// jsrt/builtins to implement Array.prototype[Symbol.iterator].
func (it *Interpreter) ArrayIterator(arr value.Value) value.Value { return it.arrayIterator(arr) }

// arrayIterator builds a minimal values-iterator over an Array-exotic
// object, used as a fallback when Array.prototype[Symbol.iterator] has
// not been installed yet (e.g. very early bootstrap); jsrt/builtins
// normally installs a full implementation that takes precedence.
func (it *Interpreter) arrayIterator(arr value.Value) value.Value {
	obj := it.Object(arr.AsObject())
	idx := 0
	nextFn := it.NewNativeFunction("next", 0, func(host value.Host, guard *gc.Guard, this value.Value, args []value.Value) (value.Value, error) {
		result := value.NewOrdinary()
		result.SetProto(it.Intrinsics.ObjectProto)
		rh := it.Heap_.Alloc(it.Guard(), result)
		length := int(obj.Array.Length)
		if idx >= length {
			it.defineDataProp(result, "done", value.True, true, true, true)
			it.defineDataProp(result, "value", value.Undef, true, true, true)
			return value.NewObject(rh), nil
		}
		v := it.getProperty(obj, value.NewIndexKey(uint32(idx)))
		idx++
		it.defineDataProp(result, "done", value.False, true, true, true)
		it.defineDataProp(result, "value", v, true, true, true)
		return value.NewObject(rh), nil
	})
	iterObj := value.NewOrdinary()
	iterObj.SetProto(it.Intrinsics.ObjectProto)
	ih := it.Heap_.Alloc(it.Guard(), iterObj)
	it.defineDataProp(iterObj, "next", nextFn, true, false, true)
	return value.NewObject(ih)
}

// StringIterator is the exported form of stringIterator, used by
// jsrt/builtins to implement String.prototype[Symbol.iterator].
func (it *Interpreter) StringIterator(s value.Value) value.Value { return it.stringIterator(s) }

func (it *Interpreter) stringIterator(s value.Value) value.Value {
	runes := []rune(s.AsString().Content())
	idx := 0
	nextFn := it.NewNativeFunction("next", 0, func(host value.Host, guard *gc.Guard, this value.Value, args []value.Value) (value.Value, error) {
		result := value.NewOrdinary()
		result.SetProto(it.Intrinsics.ObjectProto)
		rh := it.Heap_.Alloc(it.Guard(), result)
		if idx >= len(runes) {
			it.defineDataProp(result, "done", value.True, true, true, true)
			it.defineDataProp(result, "value", value.Undef, true, true, true)
			return value.NewObject(rh), nil
		}
		v := it.stringValue(string(runes[idx]))
		idx++
		it.defineDataProp(result, "done", value.False, true, true, true)
		it.defineDataProp(result, "value", v, true, true, true)
		return value.NewObject(rh), nil
	})
	iterObj := value.NewOrdinary()
	iterObj.SetProto(it.Intrinsics.ObjectProto)
	ih := it.Heap_.Alloc(it.Guard(), iterObj)
	it.defineDataProp(iterObj, "next", nextFn, true, false, true)
	return value.NewObject(ih)
}
