package interp

import (
	"fmt"

	"github.com/joeycumines/jsrt/ast"
	"github.com/joeycumines/jsrt/env"
	"github.com/joeycumines/jsrt/gc"
	"github.com/joeycumines/jsrt/jserr"
	"github.com/joeycumines/jsrt/value"
)

func sprintf(format string, args...any) string { return fmt.Sprintf(format, args...) }

// makeFunction builds an interpreted Function object closing over e, per
// the "Function exotic carries... an interpreted body".
func (it *Interpreter) makeFunction(name string, params []ast.Pattern, body *ast.BlockStatement, e env.Env, isArrow, isGenerator, isAsync bool, homeObject gc.Handle) value.Value {
	obj := value.NewOrdinary()
	obj.SetProto(it.Intrinsics.FunctionProto)
	obj.Exotic = value.FunctionKind
	obj.Function = &value.FunctionData{
		Tag: value.FuncInterpreted,
		Params: paramSpecs(params),
		Body: body,
		ClosureEnv: e.Handle,
		IsArrow: isArrow,
		IsGenerator: isGenerator,
		IsAsync: isAsync,
		HomeObject: homeObject,
		Name: name,
	}
	if it.CompileFunction != nil && !isGenerator && !isAsync {
		if compiled := it.CompileFunction(name, params, body, e.Handle, isArrow); compiled != nil {
			obj.Function.Compiled = compiled
		}
	}

	h := it.Heap_.Alloc(it.Guard(), obj)
	fn := value.NewObject(h)
	if !isGenerator {
		arity := 0
		for _, p := range params {
			if _, ok := p.(*ast.IdentifierPattern); ok {
				arity++
				continue
			}
			break
		}
		it.defineDataProp(obj, "length", value.NewNumber(float64(arity)), false, false, true)
	}
	it.defineDataProp(obj, "name", it.stringValue(name), false, false, true)
	return fn
}

func paramSpecs(params []ast.Pattern) []value.ParamSpec {
	out := make([]value.ParamSpec, 0, len(params))
	for _, p := range params {
		switch pt := p.(type) {
		case *ast.IdentifierPattern:
			out = append(out, value.ParamSpec{Name: pt.Name, Pattern: pt})
		case *ast.RestPattern:
			out = append(out, value.ParamSpec{Pattern: pt.Argument, Rest: true})
		case *ast.AssignmentPattern:
			out = append(out, value.ParamSpec{Pattern: pt.Left, Default: pt.Default})
		default:
			out = append(out, value.ParamSpec{Pattern: pt})
		}
	}
	return out
}

// NewNativeFunction wraps a Go function as a callable Function object,
// implementing "native function pointer with name and declared arity".
func (it *Interpreter) NewNativeFunction(name string, arity int, fn value.NativeFunc) value.Value {
	obj := value.NewOrdinary()
	obj.SetProto(it.Intrinsics.FunctionProto)
	obj.Exotic = value.FunctionKind
	obj.Function = &value.FunctionData{Tag: value.FuncNative, Native: fn, Arity: arity, Name: name}
	h := it.Heap_.Alloc(it.Guard(), obj)
	it.defineDataProp(obj, "name", it.stringValue(name), false, false, true)
	it.defineDataProp(obj, "length", value.NewNumber(float64(arity)), false, false, true)
	return value.NewObject(h)
}

// Call implements the call dispatch in full: bound, native,
// interpreted non-generator/non-async, generator, async, and
// Promise-resolve/reject thunks.
func (it *Interpreter) Call(fn value.Value, this value.Value, args []value.Value) (value.Value, error) {
	if !fn.IsObject() {
		return value.Undef, it.ThrowValue(it.newTypeError("value is not a function"))
	}
	obj := it.Object(fn.AsObject())
	if obj == nil || obj.Exotic != value.FunctionKind {
		return value.Undef, it.ThrowValue(it.newTypeError("value is not a function"))
	}
	fd := obj.Function

	switch fd.Tag {
	case value.FuncBound:
		boundArgs := append(append([]value.Value{}, fd.BoundArgs...), args...)
		return it.Call(fd.BoundTarget, fd.BoundThis, boundArgs)

	case value.FuncNative:
		return fd.Native(it, it.Guard(), this, args)

	case value.FuncPromiseThunk:
		var v value.Value
		if len(args) > 0 {
			v = args[0]
		}
		if fd.ThunkReject {
			it.rejectPromise(fd.ThunkPromise, v)
		} else {
			it.resolvePromise(fd.ThunkPromise, v)
		}
		return value.Undef, nil

	case value.FuncInterpreted:
		if fd.IsGenerator {
			return it.startGenerator(obj, this, args)
		}
		if fd.IsAsync {
			return it.startAsync(obj, this, args)
		}
		if fd.Compiled != nil {
			if cb, ok := fd.Compiled.(compiledBody); ok {
				return cb.Run(it, this, args)
			}
		}
		return it.callInterpreted(obj, this, args)
	}
	return value.Undef, internalBug("unknown function tag %v", fd.Tag)
}

// compiledBody is satisfied by jsrt/bytecode's CompiledFunction. FunctionData
// carries it as an opaque `any` (same trick as Body) to avoid interp
// importing bytecode; bytecode imports interp instead, and this interface's
// method set is what lets Call re-enter a compiled chunk without either side
// needing a shared third package.
type compiledBody interface {
	Run(it *Interpreter, this value.Value, args []value.Value) (value.Value, error)
}

// ApplyBinary exposes evalBinary's operator dispatch to jsrt/bytecode's VM,
// which evaluates its two operands into registers itself and only needs the
// operator semantics, not expression tree walking.
func (it *Interpreter) ApplyBinary(op string, lv, rv value.Value) (value.Value, error) {
	return it.applyBinary(op, lv, rv)
}

// ApplyUnary mirrors ApplyBinary for the VM's unary opcodes: it covers !,
// +, -, ~, void and typeof applied to an already-computed operand value
// (typeof on a bare identifier goes through the VM's own OpTypeof, since
// it needs the un-evaluated operand).
func (it *Interpreter) ApplyUnary(op string, v value.Value) (value.Value, error) {
	switch op {
	case "!":
		return value.NewBool(!value.ToBoolean(v)), nil
	case "+":
		n, err := value.ToNumber(it, v)
		if err != nil {
			return value.Undef, it.jsErrToThrow(err)
		}
		return value.NewNumber(n), nil
	case "-":
		n, err := value.ToNumber(it, v)
		if err != nil {
			return value.Undef, it.jsErrToThrow(err)
		}
		return value.NewNumber(-n), nil
	case "~":
		n, err := value.ToNumber(it, v)
		if err != nil {
			return value.Undef, it.jsErrToThrow(err)
		}
		return value.NewNumber(float64(^toInt32(n))), nil
	case "void":
		return value.Undef, nil
	case "typeof":
		return it.typeOfValue(v), nil
	}
	return value.Undef, internalBug("unknown unary operator %q", op)
}

// TypeOfValue exposes typeOfValue for the VM's typeof opcode.
func (it *Interpreter) TypeOfValue(v value.Value) value.Value {
	return it.typeOfValue(v)
}

// StringValue interns s and wraps it as a String Value, for the VM's
// string-constant and template-concatenation opcodes.
func (it *Interpreter) StringValue(s string) value.Value {
	return it.stringValue(s)
}

// NewTypeErrorValue builds a TypeError value without throwing it, for the
// VM's property-access opcodes which need to hand the error to
// ThrowValue themselves.
func (it *Interpreter) NewTypeErrorValue(format string, args...any) value.Value {
	return it.newTypeError(format, args...)
}

// JSErrToThrow converts a jserr/*jserr.JSError (or any plain Go error)
// into the thrown-value control-signal error ThrowValue produces,
// exactly as internal evaluation call sites do via jsErrToThrow. The
// VM uses this for errors surfacing from env.Env's Get/Set/Define,
// which return bare jserr values rather than already-thrown signals.
func (it *Interpreter) JSErrToThrow(err error) error {
	return it.jsErrToThrow(err)
}

// callInterpreted is the "Interpreted non-generator
// non-async" case: bind parameters, install `arguments`, set `this`, run
// the body to completion.
func (it *Interpreter) callInterpreted(obj *value.Object, this value.Value, args []value.Value) (value.Value, error) {
	fd := obj.Function
	done, err := it.EnterCall(fd.Name)
	if err != nil {
		return value.Undef, it.jsErrToThrow(err)
	}
	defer done()

	g := it.PushGuard()
	defer func() { it.PopGuard() }()

	closure := env.Env{Handle: fd.ClosureEnv}
	callEnv := env.New(it.Heap_, g, closure)

	if err := it.bindParams(fd.Params, args, callEnv); err != nil {
		return value.Undef, err
	}

	if !fd.IsArrow {
		_ = callEnv.Define(it.Heap_, "this", this, false, true)
		argsObj := it.makeArguments(args)
		_ = callEnv.Define(it.Heap_, "arguments", argsObj, true, true)
	}
	if fd.HomeObject != (gc.Handle{}) {
		_ = callEnv.Define(it.Heap_, "%home%", value.NewObject(fd.HomeObject), false, true)
	}

	body, _ := fd.Body.(*ast.BlockStatement)
	if body == nil {
		return value.Undef, internalBug("interpreted function with no body")
	}
	it.hoist(body.Body, callEnv, true)

	for _, stmt := range body.Body {
		c, serr := it.execStmt(stmt, callEnv)
		if serr != nil {
			return value.Undef, serr
		}
		if c.Kind == Return {
			return c.Value, nil
		}
		if c.Kind == Throw {
			return value.Undef, it.ThrowValue(c.Value)
		}
		if c.Kind == Break || c.Kind == Continue {
			return value.Undef, internalBug("unbound break/continue reached function boundary")
		}
	}
	return value.Undef, nil
}

// Construct implements the `new`: allocate a fresh object
// whose prototype is callee.prototype, call with that object as `this`,
// and use the callee's return value if it is an object, else the
// constructed object.
func (it *Interpreter) Construct(callee value.Value, args []value.Value) (value.Value, error) {
	if !callee.IsObject() {
		return value.Undef, it.ThrowValue(it.newTypeError("not a constructor"))
	}
	obj := it.Object(callee.AsObject())
	if obj == nil || obj.Exotic != value.FunctionKind {
		return value.Undef, it.ThrowValue(it.newTypeError("not a constructor"))
	}

	protoVal := it.getProperty(obj, value.NewStringKey(it.Intern_, "prototype"))
	instance := value.NewOrdinary()
	if protoVal.IsObject() {
		instance.SetProto(protoVal.AsObject())
	} else {
		instance.SetProto(it.Intrinsics.ObjectProto)
	}
	h := it.Heap_.Alloc(it.Guard(), instance)
	thisVal := value.NewObject(h)

	if ferr := it.runInstanceFieldInits(callee.AsObject(), thisVal); ferr != nil {
		return value.Undef, ferr
	}

	result, err := it.Call(callee, thisVal, args)
	if err != nil {
		return value.Undef, err
	}
	if result.IsObject() {
		return result, nil
	}
	return thisVal, nil
}

func (it *Interpreter) makeArguments(args []value.Value) value.Value {
	obj := value.NewOrdinary()
	obj.Exotic = value.ArrayKind
	obj.Array = &value.ArrayData{}
	obj.SetProto(it.Intrinsics.ObjectProto)
	for i, a := range args {
		it.defineDataProp(obj, intToStr(i), a, true, true, true)
	}
	it.defineDataProp(obj, "length", value.NewNumber(float64(len(args))), true, false, false)
	h := it.Heap_.Alloc(it.Guard(), obj)
	return value.NewObject(h)
}

func (it *Interpreter) newTypeError(format string, args...any) value.Value {
	return it.errorValue("TypeError", format, args...)
}

func (it *Interpreter) newRangeError(format string, args...any) value.Value {
	return it.errorValue("RangeError", format, args...)
}

func (it *Interpreter) newReferenceError(format string, args...any) value.Value {
	return it.errorValue("ReferenceError", format, args...)
}

// errorValue builds an ordinary object on Intrinsics.ErrorProto carrying
// {name, message, stack} — sufficient for §8's `e.name` scenario. `stack`
// is attached from the call stack live at throw time (innermost first),
// the same "capture once, at the throw site" convention V8/most engines
// use for Error.prototype.stack.
func (it *Interpreter) errorValue(name, format string, args...any) value.Value {
	obj := value.NewOrdinary()
	obj.SetProto(it.Intrinsics.ErrorProto)
	msg := sprintf(format, args...)
	it.defineDataProp(obj, "name", it.stringValue(name), true, false, true)
	it.defineDataProp(obj, "message", it.stringValue(msg), true, false, true)
	it.defineDataProp(obj, "stack", it.stringValue(it.formatStack(name, msg)), true, false, true)
	h := it.Heap_.Alloc(it.Guard(), obj)
	return value.NewObject(h)
}

// formatStack renders name, message and the live call stack into the
// conventional "Name: message\n    at fn (file:line:col)" layout.
func (it *Interpreter) formatStack(name, msg string) string {
	s := name
	if msg != "" {
		s += ": " + msg
	}
	for _, f := range it.CaptureStack() {
		fn := f.FunctionName
		if fn == "" {
			fn = "<anonymous>"
		}
		loc := sprintf("%d:%d", f.Line, f.Column)
		if f.File != "" {
			loc = f.File + ":" + loc
		}
		s += sprintf("\n    at %s (%s)", fn, loc)
	}
	return s
}

func (it *Interpreter) stringValue(s string) value.Value {
	return value.NewString(it.Intern_.GetOrInsert(s))
}

func (it *Interpreter) defineDataProp(obj *value.Object, key string, v value.Value, writable, enumerable, configurable bool) {
	obj.DefineOwn(value.NewStringKey(it.Intern_, key), value.Property{Val: v, Writable: writable, Enumerable: enumerable, Configurable: configurable})
}

func intToStr(i int) string {
	return sprintf("%d", i)
}

func (it *Interpreter) jsErrToThrow(err error) error {
	je, ok := err.(*jserr.JSError)
	if !ok {
		return it.ThrowValue(it.errorValue("Error", "%s", err.Error()))
	}
	if je.Kind == jserr.KindThrownValue {
		if v, ok := je.Value.(value.Value); ok {
			return it.ThrowValue(v)
		}
	}
	return it.ThrowValue(it.errorValue(je.Kind.String(), "%s", je.Message))
}
