package builtins

import (
	"github.com/joeycumines/jsrt/gc"
	"github.com/joeycumines/jsrt/interp"
	"github.com/joeycumines/jsrt/value"
)

// setupPromiseProto installs then/catch/finally, delegating every bit of
// state-machine logic to jsrt/interp/promise.go's exported PromiseThen —
// this file only adapts the native-function calling convention to it.
func setupPromiseProto(it *interp.Interpreter) {
	proto := it.Object(it.Intrinsics.PromiseProto)

	method(it, proto, "then", 2, func(host value.Host, guard *gc.Guard, this value.Value, args []value.Value) (value.Value, error) {
		if !this.IsObject() {
			return value.Undef, throwType(it, "Promise.prototype.then called on non-object")
		}
		return it.PromiseThen(this, argAt(args, 0), argAt(args, 1)), nil
	})

	method(it, proto, "catch", 1, func(host value.Host, guard *gc.Guard, this value.Value, args []value.Value) (value.Value, error) {
		if !this.IsObject() {
			return value.Undef, throwType(it, "Promise.prototype.catch called on non-object")
		}
		return it.PromiseThen(this, value.Undef, argAt(args, 0)), nil
	})

	method(it, proto, "finally", 1, func(host value.Host, guard *gc.Guard, this value.Value, args []value.Value) (value.Value, error) {
		if !this.IsObject() {
			return value.Undef, throwType(it, "Promise.prototype.finally called on non-object")
		}
		cb := argAt(args, 0)
		passthrough := it.NewNativeFunction("", 1, func(host value.Host, guard *gc.Guard, this value.Value, args []value.Value) (value.Value, error) {
			if _, err := it.Call(cb, value.Undef, nil); err != nil {
				return value.Undef, err
			}
			return argAt(args, 0), nil
		})
		rethrow := it.NewNativeFunction("", 1, func(host value.Host, guard *gc.Guard, this value.Value, args []value.Value) (value.Value, error) {
			if _, err := it.Call(cb, value.Undef, nil); err != nil {
				return value.Undef, err
			}
			return value.Undef, it.ThrowValue(argAt(args, 0))
		})
		return it.PromiseThen(this, passthrough, rethrow), nil
	})
}

// setupPromiseConstructor builds `new Promise(executor)` plus the
// resolve/reject/all/allSettled/race/any statics, each a thin wrapper
// around jsrt/interp/promise.go's combinator functions.
func setupPromiseConstructor(it *interp.Interpreter) value.Value {
	ctor := it.NewNativeFunction("Promise", 1, func(host value.Host, guard *gc.Guard, this value.Value, args []value.Value) (value.Value, error) {
		executor := argAt(args, 0)
		if !executor.IsObject() {
			return value.Undef, throwType(it, "Promise resolver is not a function")
		}
		promise, handle := it.NewPromise()
		resolve, reject := it.NewResolvingFunctions(handle)
		if _, err := it.Call(executor, value.Undef, []value.Value{resolve, reject}); err != nil {
			if _, callErr := it.Call(reject, value.Undef, []value.Value{it.ThrowableValue(err)}); callErr != nil {
				return value.Undef, callErr
			}
		}
		return promise, nil
	})
	ctorObj := it.Object(ctor.AsObject())
	dataProp(ctorObj, key(it, "prototype"), value.NewObject(it.Intrinsics.PromiseProto), false, false, false)

	method(it, ctorObj, "resolve", 1, func(host value.Host, guard *gc.Guard, this value.Value, args []value.Value) (value.Value, error) {
		return it.PromiseResolve(argAt(args, 0)), nil
	})

	method(it, ctorObj, "reject", 1, func(host value.Host, guard *gc.Guard, this value.Value, args []value.Value) (value.Value, error) {
		_, h := it.NewPromise()
		_, reject := it.NewResolvingFunctions(h)
		if _, err := it.Call(reject, value.Undef, []value.Value{argAt(args, 0)}); err != nil {
			return value.Undef, err
		}
		return value.NewObject(h), nil
	})

	method(it, ctorObj, "all", 1, func(host value.Host, guard *gc.Guard, this value.Value, args []value.Value) (value.Value, error) {
		inputs, err := it.IterableToSlice(argAt(args, 0))
		if err != nil {
			return value.Undef, err
		}
		return it.PromiseAll(inputs), nil
	})

	method(it, ctorObj, "allSettled", 1, func(host value.Host, guard *gc.Guard, this value.Value, args []value.Value) (value.Value, error) {
		inputs, err := it.IterableToSlice(argAt(args, 0))
		if err != nil {
			return value.Undef, err
		}
		return it.PromiseAllSettled(inputs), nil
	})

	method(it, ctorObj, "race", 1, func(host value.Host, guard *gc.Guard, this value.Value, args []value.Value) (value.Value, error) {
		inputs, err := it.IterableToSlice(argAt(args, 0))
		if err != nil {
			return value.Undef, err
		}
		return it.PromiseRace(inputs), nil
	})

	method(it, ctorObj, "any", 1, func(host value.Host, guard *gc.Guard, this value.Value, args []value.Value) (value.Value, error) {
		inputs, err := it.IterableToSlice(argAt(args, 0))
		if err != nil {
			return value.Undef, err
		}
		return it.PromiseAny(inputs), nil
	})

	return ctor
}
