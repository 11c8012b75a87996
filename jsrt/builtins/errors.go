package builtins

import (
	"github.com/joeycumines/jsrt/gc"
	"github.com/joeycumines/jsrt/interp"
	"github.com/joeycumines/jsrt/value"
)

// errorNames enumerates every error constructor the global object carries.
// They all share a single Intrinsics.ErrorProto (jsrt/interp/call.go's
// errorValue already bakes this simplification in for internally-thrown
// errors); the distinct constructors exist only so `new RangeError(...)`
// sets an own "name" that shadows the shared prototype's default, and so
// `instanceof` checks against the right constructor still work via each
// constructor's own .prototype property pointing at the same object.
var errorNames = []string{"Error", "TypeError", "RangeError", "ReferenceError", "SyntaxError", "EvalError", "URIError", "AggregateError"}

// setupErrorProto installs Error.prototype.toString and the shared "name"/
// "message" defaults, grounded on jsrt/interp/call.go's errorValue shape:
// every error, regardless of which constructor built it, is a plain
// {name, message} object on this one prototype.
func setupErrorProto(it *interp.Interpreter) {
	proto := it.Object(it.Intrinsics.ErrorProto)
	dataProp(proto, key(it, "name"), str(it, "Error"), true, false, true)
	dataProp(proto, key(it, "message"), str(it, ""), true, false, true)

	method(it, proto, "toString", 0, func(host value.Host, guard *gc.Guard, this value.Value, args []value.Value) (value.Value, error) {
		if !this.IsObject() {
			return value.Undef, throwType(it, "Error.prototype.toString called on non-object")
		}
		name := "Error"
		if v, err := it.GetProperty(this.AsObject(), key(it, "name")); err == nil && !v.IsUndefined() {
			if s, err := strArg(it, v); err == nil {
				name = s
			}
		}
		message := ""
		if v, err := it.GetProperty(this.AsObject(), key(it, "message")); err == nil && !v.IsUndefined() {
			if s, err := strArg(it, v); err == nil {
				message = s
			}
		}
		switch {
		case name == "" && message == "":
			return str(it, "Error"), nil
		case message == "":
			return str(it, name), nil
		case name == "":
			return str(it, message), nil
		default:
			return str(it, name+": "+message), nil
		}
	})
}

// setupErrorConstructors builds Error plus its standard subclasses,
// including AggregateError since jsrt/interp/promise.go's PromiseAny
// already constructs one by name for Promise.any's all-rejected case.
func setupErrorConstructors(it *interp.Interpreter) map[string]value.Value {
	out := make(map[string]value.Value, len(errorNames))
	for _, name := range errorNames {
		name := name
		ctor := it.NewNativeFunction(name, 1, func(host value.Host, guard *gc.Guard, this value.Value, args []value.Value) (value.Value, error) {
			obj := value.NewOrdinary()
			obj.SetProto(it.Intrinsics.ErrorProto)
			dataProp(obj, key(it, "name"), str(it, name), true, false, true)
			message := ""
			if v := argAt(args, 0); !v.IsUndefined() {
				s, err := strArg(it, v)
				if err != nil {
					return value.Undef, err
				}
				message = s
			}
			dataProp(obj, key(it, "message"), str(it, message), true, false, true)
			dataProp(obj, key(it, "stack"), str(it, name+": "+message), true, false, true)
			h := it.Heap_.Alloc(guard, obj)
			return value.NewObject(h), nil
		})
		ctorObj := it.Object(ctor.AsObject())
		dataProp(ctorObj, key(it, "prototype"), value.NewObject(it.Intrinsics.ErrorProto), false, false, false)
		out[name] = ctor
	}
	return out
}
