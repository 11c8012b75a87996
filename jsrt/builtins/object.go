package builtins

import (
	"github.com/joeycumines/jsrt/gc"
	"github.com/joeycumines/jsrt/interp"
	"github.com/joeycumines/jsrt/value"
)

// setupObjectProto installs Object.prototype's methods onto the already-
// allocated it.Intrinsics.ObjectProto object (see global.go's bootstrap
// order: the prototype handle must exist before any NewNativeFunction
// call, since NewNativeFunction protos every function it creates onto
// Intrinsics.FunctionProto).
func setupObjectProto(it *interp.Interpreter) {
	proto := it.Object(it.Intrinsics.ObjectProto)

	method(it, proto, "hasOwnProperty", 1, func(host value.Host, guard *gc.Guard, this value.Value, args []value.Value) (value.Value, error) {
		if !this.IsObject() {
			return value.False, nil
		}
		obj := it.Object(this.AsObject())
		k, err := propKeyArg(it, argAt(args, 0))
		if err != nil {
			return value.Undef, err
		}
		_, ok := obj.GetOwn(k)
		return value.NewBool(ok), nil
	})

	method(it, proto, "isPrototypeOf", 1, func(host value.Host, guard *gc.Guard, this value.Value, args []value.Value) (value.Value, error) {
		v := argAt(args, 0)
		if !v.IsObject() || !this.IsObject() {
			return value.False, nil
		}
		cur := it.Object(v.AsObject())
		for cur != nil && cur.HasProto {
			if cur.Proto == this.AsObject() {
				return value.True, nil
			}
			cur = it.Object(cur.Proto)
		}
		return value.False, nil
	})

	method(it, proto, "propertyIsEnumerable", 1, func(host value.Host, guard *gc.Guard, this value.Value, args []value.Value) (value.Value, error) {
		if !this.IsObject() {
			return value.False, nil
		}
		obj := it.Object(this.AsObject())
		k, err := propKeyArg(it, argAt(args, 0))
		if err != nil {
			return value.Undef, err
		}
		p, ok := obj.GetOwn(k)
		return value.NewBool(ok && p.Enumerable), nil
	})

	method(it, proto, "toString", 0, func(host value.Host, guard *gc.Guard, this value.Value, args []value.Value) (value.Value, error) {
		return str(it, "[object Object]"), nil
	})

	method(it, proto, "valueOf", 0, func(host value.Host, guard *gc.Guard, this value.Value, args []value.Value) (value.Value, error) {
		return this, nil
	})
}

func propKeyArg(it *interp.Interpreter, v value.Value) (value.PropertyKey, error) {
	s, err := strArg(it, v)
	if err != nil {
		return value.PropertyKey{}, err
	}
	return key(it, s), nil
}

// setupObjectConstructor builds the Object constructor and its static
// methods (Object.keys/values/entries/assign/freeze/isFrozen/create/
// getPrototypeOf/setPrototypeOf/defineProperty/fromEntries), grounded on
// original_source/src/interpreter/builtins/global.rs's registration style
// of attaching a flat list of native functions to a single global object.
func setupObjectConstructor(it *interp.Interpreter) value.Value {
	ctor := it.NewNativeFunction("Object", 1, func(host value.Host, guard *gc.Guard, this value.Value, args []value.Value) (value.Value, error) {
		v := argAt(args, 0)
		if v.IsUndefined() || v.IsNull() {
			obj, h := newPlainObject(it, it.Intrinsics.ObjectProto)
			_ = obj
			return value.NewObject(h), nil
		}
		if v.IsObject() {
			return v, nil
		}
		obj, h := newPlainObject(it, it.Intrinsics.ObjectProto)
		_ = obj
		return value.NewObject(h), nil
	})
	ctorObj := it.Object(ctor.AsObject())
	dataProp(ctorObj, key(it, "prototype"), value.NewObject(it.Intrinsics.ObjectProto), false, false, false)

	method(it, ctorObj, "keys", 1, func(host value.Host, guard *gc.Guard, this value.Value, args []value.Value) (value.Value, error) {
		names := ownEnumerableStringKeys(it, argAt(args, 0))
		items := make([]value.Value, len(names))
		for i, n := range names {
			items[i] = str(it, n)
		}
		return arrayOf(it, items), nil
	})

	method(it, ctorObj, "values", 1, func(host value.Host, guard *gc.Guard, this value.Value, args []value.Value) (value.Value, error) {
		v := argAt(args, 0)
		names := ownEnumerableStringKeys(it, v)
		items := make([]value.Value, len(names))
		for i, n := range names {
			val, err := it.GetProperty(v.AsObject(), key(it, n))
			if err != nil {
				return value.Undef, err
			}
			items[i] = val
		}
		return arrayOf(it, items), nil
	})

	method(it, ctorObj, "entries", 1, func(host value.Host, guard *gc.Guard, this value.Value, args []value.Value) (value.Value, error) {
		v := argAt(args, 0)
		names := ownEnumerableStringKeys(it, v)
		items := make([]value.Value, len(names))
		for i, n := range names {
			val, err := it.GetProperty(v.AsObject(), key(it, n))
			if err != nil {
				return value.Undef, err
			}
			items[i] = arrayOf(it, []value.Value{str(it, n), val})
		}
		return arrayOf(it, items), nil
	})

	method(it, ctorObj, "assign", 2, func(host value.Host, guard *gc.Guard, this value.Value, args []value.Value) (value.Value, error) {
		target := argAt(args, 0)
		if !target.IsObject() {
			return value.Undef, throwType(it, "Object.assign target must be an object")
		}
		for i := 1; i < len(args); i++ {
			src := args[i]
			if !src.IsObject() {
				continue
			}
			for _, n := range ownEnumerableStringKeys(it, src) {
				v, err := it.GetProperty(src.AsObject(), key(it, n))
				if err != nil {
					return value.Undef, err
				}
				if err := it.SetProperty(target.AsObject(), key(it, n), v); err != nil {
					return value.Undef, err
				}
			}
		}
		return target, nil
	})

	method(it, ctorObj, "freeze", 1, func(host value.Host, guard *gc.Guard, this value.Value, args []value.Value) (value.Value, error) {
		v := argAt(args, 0)
		if v.IsObject() {
			obj := it.Object(v.AsObject())
			obj.Extensible = false
			obj.Frozen = true
		}
		return v, nil
	})

	method(it, ctorObj, "isFrozen", 1, func(host value.Host, guard *gc.Guard, this value.Value, args []value.Value) (value.Value, error) {
		v := argAt(args, 0)
		if !v.IsObject() {
			return value.True, nil
		}
		return value.NewBool(it.Object(v.AsObject()).Frozen), nil
	})

	method(it, ctorObj, "getPrototypeOf", 1, func(host value.Host, guard *gc.Guard, this value.Value, args []value.Value) (value.Value, error) {
		v := argAt(args, 0)
		if !v.IsObject() {
			return value.Nul, nil
		}
		obj := it.Object(v.AsObject())
		if !obj.HasProto {
			return value.Nul, nil
		}
		return value.NewObject(obj.Proto), nil
	})

	method(it, ctorObj, "setPrototypeOf", 2, func(host value.Host, guard *gc.Guard, this value.Value, args []value.Value) (value.Value, error) {
		v := argAt(args, 0)
		p := argAt(args, 1)
		if v.IsObject() {
			obj := it.Object(v.AsObject())
			if p.IsNull() {
				obj.SetNullProto()
			} else if p.IsObject() {
				obj.SetProto(p.AsObject())
			}
		}
		return v, nil
	})

	method(it, ctorObj, "create", 2, func(host value.Host, guard *gc.Guard, this value.Value, args []value.Value) (value.Value, error) {
		p := argAt(args, 0)
		obj := value.NewOrdinary()
		if p.IsObject() {
			obj.SetProto(p.AsObject())
		} else {
			obj.SetNullProto()
		}
		h := it.Heap_.Alloc(it.Guard(), obj)
		return value.NewObject(h), nil
	})

	method(it, ctorObj, "defineProperty", 3, func(host value.Host, guard *gc.Guard, this value.Value, args []value.Value) (value.Value, error) {
		target := argAt(args, 0)
		if !target.IsObject() {
			return value.Undef, throwType(it, "Object.defineProperty called on non-object")
		}
		k, err := propKeyArg(it, argAt(args, 1))
		if err != nil {
			return value.Undef, err
		}
		desc := argAt(args, 2)
		if err := defineFromDescriptor(it, it.Object(target.AsObject()), k, desc); err != nil {
			return value.Undef, err
		}
		return target, nil
	})

	method(it, ctorObj, "fromEntries", 1, func(host value.Host, guard *gc.Guard, this value.Value, args []value.Value) (value.Value, error) {
		entries, err := it.IterableToSlice(argAt(args, 0))
		if err != nil {
			return value.Undef, err
		}
		obj, h := newPlainObject(it, it.Intrinsics.ObjectProto)
		for _, e := range entries {
			pair, ok := arrayElements(it, e)
			if !ok || len(pair) < 2 {
				continue
			}
			k, err := strArg(it, pair[0])
			if err != nil {
				return value.Undef, err
			}
			dataProp(obj, key(it, k), pair[1], true, true, true)
		}
		return value.NewObject(h), nil
	})

	return ctor
}

func defineFromDescriptor(it *interp.Interpreter, obj *value.Object, k value.PropertyKey, desc value.Value) error {
	if !desc.IsObject() {
		return throwType(it, "property descriptor must be an object")
	}
	get := func(name string) (value.Value, bool, error) {
		dk := key(it, name)
		descObj := it.Object(desc.AsObject())
		if p, ok := descObj.GetOwn(dk); ok {
			v, err := it.GetProperty(desc.AsObject(), dk)
			_ = p
			return v, true, err
		}
		return value.Undef, false, nil
	}
	var prop value.Property
	if v, ok, err := get("value"); err != nil {
		return err
	} else if ok {
		prop.Val = v
	}
	if v, ok, err := get("get"); err != nil {
		return err
	} else if ok && v.IsObject() {
		prop.HasGet = true
		prop.Get = v.AsObject()
	}
	if v, ok, err := get("set"); err != nil {
		return err
	} else if ok && v.IsObject() {
		prop.HasSet = true
		prop.Set = v.AsObject()
	}
	if v, ok, _ := get("writable"); ok {
		prop.Writable = value.ToBoolean(v)
	}
	if v, ok, _ := get("enumerable"); ok {
		prop.Enumerable = value.ToBoolean(v)
	}
	if v, ok, _ := get("configurable"); ok {
		prop.Configurable = value.ToBoolean(v)
	}
	obj.DefineOwn(k, prop)
	return nil
}

// ownEnumerableStringKeys lists v's own enumerable string-keyed
// properties in insertion order, matching Object.keys/values/entries'
// common shared enumeration.
func ownEnumerableStringKeys(it *interp.Interpreter, v value.Value) []string {
	if !v.IsObject() {
		return nil
	}
	obj := it.Object(v.AsObject())
	if obj == nil {
		return nil
	}
	var names []string
	for _, k := range obj.OwnKeys() {
		if k.Kind() == value.KeySymbol {
			continue
		}
		p, _ := obj.GetOwn(k)
		if p.Enumerable {
			names = append(names, k.String())
		}
	}
	return names
}
