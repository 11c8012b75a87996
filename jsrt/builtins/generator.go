package builtins

import (
	"github.com/joeycumines/jsrt/gc"
	"github.com/joeycumines/jsrt/interp"
	"github.com/joeycumines/jsrt/value"
)

func thisGenerator(it *interp.Interpreter, this value.Value) (*value.Object, error) {
	if !this.IsObject() {
		return nil, throwType(it, "Generator method called on non-object")
	}
	obj := it.Object(this.AsObject())
	if obj == nil || obj.Exotic != value.GeneratorKind {
		return nil, throwType(it, "Generator method called on incompatible receiver")
	}
	return obj, nil
}

// iterResult builds the {value, done} record every iterator protocol
// method returns.
func iterResult(it *interp.Interpreter, v value.Value, done bool) value.Value {
	o, h := newPlainObject(it, it.Intrinsics.ObjectProto)
	dataProp(o, key(it, "value"), v, true, true, true)
	dataProp(o, key(it, "done"), value.NewBool(done), true, true, true)
	return value.NewObject(h)
}

// setupGeneratorProto installs next/return/throw and the self-returning
// [Symbol.iterator], delegating the actual suspend/resume mechanics to the
// value.GeneratorDriver jsrt/interp/generator.go's coroutine driver
// implements — this file only adapts calling convention and wraps results.
func setupGeneratorProto(it *interp.Interpreter) {
	proto := it.Object(it.Intrinsics.GeneratorProto)

	method(it, proto, "next", 1, func(host value.Host, guard *gc.Guard, this value.Value, args []value.Value) (value.Value, error) {
		obj, err := thisGenerator(it, this)
		if err != nil {
			return value.Undef, err
		}
		v, done, err := obj.Generator.Driver.Next(argAt(args, 0))
		if err != nil {
			return value.Undef, err
		}
		return iterResult(it, v, done), nil
	})

	method(it, proto, "return", 1, func(host value.Host, guard *gc.Guard, this value.Value, args []value.Value) (value.Value, error) {
		obj, err := thisGenerator(it, this)
		if err != nil {
			return value.Undef, err
		}
		v, done, err := obj.Generator.Driver.Return(argAt(args, 0))
		if err != nil {
			return value.Undef, err
		}
		return iterResult(it, v, done), nil
	})

	method(it, proto, "throw", 1, func(host value.Host, guard *gc.Guard, this value.Value, args []value.Value) (value.Value, error) {
		obj, err := thisGenerator(it, this)
		if err != nil {
			return value.Undef, err
		}
		v, done, err := obj.Generator.Driver.Throw(argAt(args, 0))
		if err != nil {
			return value.Undef, err
		}
		return iterResult(it, v, done), nil
	})

	methodSymbol(it, proto, it.Intrinsics.SymbolIterator, "[Symbol.iterator]", 0, func(host value.Host, guard *gc.Guard, this value.Value, args []value.Value) (value.Value, error) {
		return this, nil
	})
}
