package interp

import "github.com/joeycumines/jsrt/value"

// GetProperty implements the get_property, walking receiver's
// prototype chain starting at receiver itself. An accessor found partway
// up the chain is still invoked with receiver as `this`, per the ordinary
// [[Get]] semantics.
func (it *Interpreter) GetProperty(receiver gcHandle, key value.PropertyKey) (value.Value, error) {
	receiverVal := value.NewObject(receiver)
	if key.IsPrivate() {
		obj := it.Object(receiver)
		if obj == nil {
			return value.Undef, internalBug("GetProperty on dangling handle")
		}
		p, ok := obj.GetOwn(key)
		if !ok {
			return value.Undef, it.ThrowValue(it.newTypeError("Cannot read private member %s from an object whose class did not declare it", key.Symbol().String()))
		}
		if p.IsAccessor() {
			if !p.HasGet {
				return value.Undef, nil
			}
			getter := value.NewObject(p.Get)
			return it.Call(getter, receiverVal, nil)
		}
		return p.Val, nil
	}
	cur := it.Object(receiver)
	for cur != nil {
		if p, ok := cur.GetOwn(key); ok {
			if p.IsAccessor() {
				if !p.HasGet {
					return value.Undef, nil
				}
				getter := value.NewObject(p.Get)
				return it.Call(getter, receiverVal, nil)
			}
			return p.Val, nil
		}
		if !cur.HasProto {
			return value.Undef, nil
		}
		cur = it.Object(cur.Proto)
	}
	return value.Undef, nil
}

// getProperty is a receiver-less convenience used by call sites that only
// have a bare *value.Object in hand (intrinsic setup, reading a
// constructor's own "prototype") and don't expect to hit a user-defined
// accessor; an accessor found this way is invoked with Undefined `this`.
func (it *Interpreter) getProperty(obj *value.Object, key value.PropertyKey) value.Value {
	if key.IsPrivate() {
		if p, ok := obj.GetOwn(key); ok {
			return p.Val
		}
		return value.Undef
	}
	cur := obj
	for cur != nil {
		if p, ok := cur.GetOwn(key); ok {
			if p.IsAccessor() {
				if !p.HasGet {
					return value.Undef
				}
				getter := value.NewObject(p.Get)
				v, err := it.Call(getter, value.Undef, nil)
				if err != nil {
					return value.Undef
				}
				return v
			}
			return p.Val
		}
		if !cur.HasProto {
			return value.Undef
		}
		cur = it.Object(cur.Proto)
	}
	return value.Undef
}

// SetProperty implements the set_property against receiver,
// including the frozen/sealed-object write rules: a frozen object rejects
// all writes; a sealed object allows writes to writable existing own
// properties but rejects additions.
func (it *Interpreter) SetProperty(receiver gcHandle, key value.PropertyKey, v value.Value) error {
	receiverVal := value.NewObject(receiver)
	obj := it.Object(receiver)
	if obj == nil {
		return internalBug("SetProperty on dangling handle")
	}
	if key.IsPrivate() {
		p, ok := obj.GetOwn(key)
		if !ok {
			return it.ThrowValue(it.newTypeError("Cannot write private member %s to an object whose class did not declare it", key.Symbol().String()))
		}
		if p.IsAccessor() {
			if !p.HasSet {
				return it.ThrowValue(it.newTypeError("'%s' was defined without a setter", key.Symbol().String()))
			}
			setter := value.NewObject(p.Set)
			_, err := it.Call(setter, receiverVal, []value.Value{v})
			return err
		}
		obj.DefineOwn(key, value.Property{Val: v, Writable: p.Writable, Enumerable: p.Enumerable, Configurable: p.Configurable})
		return nil
	}
	cur := obj
	for cur != nil {
		if p, ok := cur.GetOwn(key); ok {
			if p.IsAccessor() {
				if !p.HasSet {
					return nil
				}
				setter := value.NewObject(p.Set)
				_, err := it.Call(setter, receiverVal, []value.Value{v})
				return err
			}
			if cur == obj {
				if obj.Frozen || !p.Writable {
					return nil
				}
				obj.DefineOwn(key, value.Property{Val: v, Writable: p.Writable, Enumerable: p.Enumerable, Configurable: p.Configurable})
				return nil
			}
			break
		}
		if !cur.HasProto {
			break
		}
		cur = it.Object(cur.Proto)
	}
	if obj.Frozen || obj.Sealed || !obj.Extensible {
		return nil
	}
	obj.DefineOwn(key, value.Property{Val: v, Writable: true, Enumerable: true, Configurable: true})
	return nil
}

// hasProperty implements the `in` operator: true if key is found anywhere
// on obj's prototype chain.
func (it *Interpreter) hasProperty(obj *value.Object, key value.PropertyKey) bool {
	if key.IsPrivate() {
		_, ok := obj.GetOwn(key)
		return ok
	}
	cur := obj
	for cur != nil {
		if _, ok := cur.GetOwn(key); ok {
			return true
		}
		if !cur.HasProto {
			return false
		}
		cur = it.Object(cur.Proto)
	}
	return false
}

// instanceOf implements the instanceof: walk the LHS's
// prototype chain looking for the RHS's `prototype` property.
func (it *Interpreter) instanceOf(lhs value.Value, rhsCtor *value.Object) (bool, error) {
	if !lhs.IsObject() {
		return false, nil
	}
	protoVal := it.getProperty(rhsCtor, value.NewStringKey(it.Intern_, "prototype"))
	if !protoVal.IsObject() {
		return false, it.ThrowValue(it.newTypeError("prototype is not an object"))
	}
	target := protoVal.AsObject()
	cur := it.Object(lhs.AsObject())
	for cur != nil {
		if !cur.HasProto {
			return false, nil
		}
		if cur.Proto == target {
			return true, nil
		}
		cur = it.Object(cur.Proto)
	}
	return false, nil
}
