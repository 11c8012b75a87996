package builtins

import (
	"github.com/joeycumines/jsrt/gc"
	"github.com/joeycumines/jsrt/interp"
	"github.com/joeycumines/jsrt/value"
)

// setupFunctionProto installs Function.prototype's call/apply/bind, the
// three ways a function value can be invoked indirectly.
func setupFunctionProto(it *interp.Interpreter) {
	proto := it.Object(it.Intrinsics.FunctionProto)

	method(it, proto, "call", 1, func(host value.Host, guard *gc.Guard, this value.Value, args []value.Value) (value.Value, error) {
		thisArg := argAt(args, 0)
		var rest []value.Value
		if len(args) > 1 {
			rest = args[1:]
		}
		return it.Call(this, thisArg, rest)
	})

	method(it, proto, "apply", 2, func(host value.Host, guard *gc.Guard, this value.Value, args []value.Value) (value.Value, error) {
		thisArg := argAt(args, 0)
		argsArrayVal := argAt(args, 1)
		var rest []value.Value
		if argsArrayVal.IsObject() {
			if els, ok := arrayElements(it, argsArrayVal); ok {
				rest = els
			} else {
				sliced, err := it.IterableToSlice(argsArrayVal)
				if err != nil {
					return value.Undef, err
				}
				rest = sliced
			}
		}
		return it.Call(this, thisArg, rest)
	})

	method(it, proto, "bind", 1, func(host value.Host, guard *gc.Guard, this value.Value, args []value.Value) (value.Value, error) {
		if !this.IsObject() {
			return value.Undef, throwType(it, "Function.prototype.bind called on non-function")
		}
		thisArg := argAt(args, 0)
		var bound []value.Value
		if len(args) > 1 {
			bound = append(bound, args[1:]...)
		}
		target := it.Object(this.AsObject())
		name := ""
		if target.Function != nil {
			name = target.Function.Name
		}
		fnVal := it.NewNativeFunction("bound "+name, 0, func(host value.Host, guard *gc.Guard, _ value.Value, callArgs []value.Value) (value.Value, error) {
			full := append(append([]value.Value{}, bound...), callArgs...)
			return it.Call(this, thisArg, full)
		})
		return fnVal, nil
	})

	method(it, proto, "toString", 0, func(host value.Host, guard *gc.Guard, this value.Value, args []value.Value) (value.Value, error) {
		name := "anonymous"
		if this.IsObject() {
			obj := it.Object(this.AsObject())
			if obj != nil && obj.Function != nil && obj.Function.Name != "" {
				name = obj.Function.Name
			}
		}
		return str(it, "function "+name+"() { [native code] }"), nil
	})
}
