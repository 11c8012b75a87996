package builtins

import (
	"github.com/joeycumines/jsrt/gc"
	"github.com/joeycumines/jsrt/interp"
	"github.com/joeycumines/jsrt/value"
)

func setupBooleanProto(it *interp.Interpreter) {
	proto := it.Object(it.Intrinsics.BooleanProto)

	method(it, proto, "toString", 0, func(host value.Host, guard *gc.Guard, this value.Value, args []value.Value) (value.Value, error) {
		if value.ToBoolean(this) {
			return str(it, "true"), nil
		}
		return str(it, "false"), nil
	})

	method(it, proto, "valueOf", 0, func(host value.Host, guard *gc.Guard, this value.Value, args []value.Value) (value.Value, error) {
		return value.NewBool(value.ToBoolean(this)), nil
	})
}

func setupBooleanConstructor(it *interp.Interpreter) value.Value {
	ctor := it.NewNativeFunction("Boolean", 1, func(host value.Host, guard *gc.Guard, this value.Value, args []value.Value) (value.Value, error) {
		return value.NewBool(value.ToBoolean(argAt(args, 0))), nil
	})
	ctorObj := it.Object(ctor.AsObject())
	dataProp(ctorObj, key(it, "prototype"), value.NewObject(it.Intrinsics.BooleanProto), false, false, false)
	return ctor
}
