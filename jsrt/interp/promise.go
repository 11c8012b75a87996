package interp

import (
	"github.com/joeycumines/jsrt/gc"
	"github.com/joeycumines/jsrt/value"
)

// Package interp's Promise implementation is a plain state machine
// driven entirely by the interpreter's own call stack (there
// is no background thread — resolution/rejection only ever happens while
// some JS call is executing), with handler dispatch deferred to the host's
// microtask queue via EnqueueJob so ordering matches the Promise/A+ tests.

// NewPromise allocates a pending Promise object,.
func (it *Interpreter) NewPromise() (value.Value, gc.Handle) {
	obj := value.NewOrdinary()
	obj.SetProto(it.Intrinsics.PromiseProto)
	obj.Exotic = value.PromiseKind
	obj.Promise = &value.PromiseData{Status: value.Pending}
	h := it.Heap_.Alloc(it.Guard(), obj)
	return value.NewObject(h), h
}

// NewResolvingFunctions builds the {resolve, reject} pair passed to an
// executor or an async function driver, implementing "resolve/reject
// are each callable exactly once; subsequent calls are no-ops".
func (it *Interpreter) NewResolvingFunctions(promiseHandle gc.Handle) (resolve, reject value.Value) {
	resolve = it.newPromiseThunk(promiseHandle, false)
	reject = it.newPromiseThunk(promiseHandle, true)
	return
}

func (it *Interpreter) newPromiseThunk(promiseHandle gc.Handle, isReject bool) value.Value {
	obj := value.NewOrdinary()
	obj.SetProto(it.Intrinsics.FunctionProto)
	obj.Exotic = value.FunctionKind
	obj.Function = &value.FunctionData{Tag: value.FuncPromiseThunk, ThunkPromise: promiseHandle, ThunkReject: isReject}
	h := it.Heap_.Alloc(it.Guard(), obj)
	return value.NewObject(h)
}

// resolvePromise implements the resolution procedure: resolving
// with a thenable adopts that thenable's eventual state instead of settling
// immediately (the "assimilation" step), guarding against a promise
// resolving with itself.
func (it *Interpreter) resolvePromise(h gc.Handle, v value.Value) {
	p := it.promiseData(h)
	if p == nil || p.Status != value.Pending {
		return
	}
	if v.IsObject() && v.AsObject() == h {
		it.rejectPromise(h, it.newTypeError("Chaining cycle detected for promise"))
		return
	}
	if v.IsObject() {
		obj := it.Object(v.AsObject())
		if obj != nil {
			then := it.getProperty(obj, it.nameKey("then"))
			if then.IsObject() {
				if thenObj := it.Object(then.AsObject()); thenObj != nil && thenObj.Exotic == value.FunctionKind {
					it.assimilateThenable(h, v, then)
					return
				}
			}
		}
	}
	p.Status = value.Fulfilled
	p.Result = v
	it.schedulePromiseReactions(h)
}

// ThrowableValue extracts the thrown JS value carried by a ThrowValue
// error, for call sites (like self-resolution) that already hold one and
// need the bare value rather than the wrapped error.
func (it *Interpreter) ThrowableValue(err error) value.Value {
	if c, ok := asControlSignal(err); ok && c.Kind == Throw {
		return c.Value
	}
	return value.Undef
}

func (it *Interpreter) assimilateThenable(h gc.Handle, thenable value.Value, then value.Value) {
	resolve, reject := it.NewResolvingFunctions(h)
	it.EnqueueJob(func() {
		_, err := it.Call(then, thenable, []value.Value{resolve, reject})
		if err != nil {
			if c, ok := asControlSignal(err); ok && c.Kind == Throw {
				it.rejectPromise(h, c.Value)
			}
		}
	})
}

// rejectPromise implements the rejection: settle once, then
// schedule any already-attached handlers.
func (it *Interpreter) rejectPromise(h gc.Handle, reason value.Value) {
	p := it.promiseData(h)
	if p == nil || p.Status != value.Pending {
		return
	}
	p.Status = value.Rejected
	p.Result = reason
	it.schedulePromiseReactions(h)
	if !p.Handled {
		if it.unhandledRejections == nil {
			it.unhandledRejections = map[gc.Handle]bool{}
		}
		it.unhandledRejections[h] = true
	}
}

// UnhandledRejections returns every promise currently rejected with no
// handler ever attached, for a host polling between steps (see
// jsrt.WithUnhandledRejection).
func (it *Interpreter) UnhandledRejections() []gc.Handle {
	out := make([]gc.Handle, 0, len(it.unhandledRejections))
	for h := range it.unhandledRejections {
		out = append(out, h)
	}
	return out
}

// ClearUnhandledRejection stops tracking h, once the host has reported it.
func (it *Interpreter) ClearUnhandledRejection(h gc.Handle) {
	delete(it.unhandledRejections, h)
}

func (it *Interpreter) promiseData(h gc.Handle) *value.PromiseData {
	obj := it.Object(h)
	if obj == nil || obj.Exotic != value.PromiseKind {
		return nil
	}
	return obj.Promise
}

// schedulePromiseReactions enqueues a microtask per attached handler, per
// /§4.8's "handler invocation is always deferred, never
// synchronous, even against an already-settled promise".
func (it *Interpreter) schedulePromiseReactions(h gc.Handle) {
	p := it.promiseData(h)
	if p == nil {
		return
	}
	handlers := p.Handlers
	p.Handlers = nil
	for _, handler := range handlers {
		handler := handler
		it.EnqueueJob(func() { it.runPromiseReaction(p, handler) })
	}
}

func (it *Interpreter) runPromiseReaction(p *value.PromiseData, handler value.PromiseHandler) {
	var (
		cb gc.Handle
		hasCB bool
		isFulfilled = p.Status == value.Fulfilled
	)
	if isFulfilled {
		cb, hasCB = handler.OnFulfilled, handler.HasFulfilled
	} else {
		cb, hasCB = handler.OnRejected, handler.HasRejected
	}
	if !hasCB || cb == (gc.Handle{}) {
		// No handler of this kind: pass the value/reason through unchanged.
		if isFulfilled {
			it.resolvePromise(handler.ResultPromise, p.Result)
		} else {
			it.rejectPromise(handler.ResultPromise, p.Result)
		}
		return
	}
	result, err := it.Call(value.NewObject(cb), value.Undef, []value.Value{p.Result})
	if err != nil {
		if c, ok := asControlSignal(err); ok && c.Kind == Throw {
			it.rejectPromise(handler.ResultPromise, c.Value)
			return
		}
		it.rejectPromise(handler.ResultPromise, it.errorValue("Error", "%s", err.Error()))
		return
	}
	it.resolvePromise(handler.ResultPromise, result)
}

// PromiseThen implements Promise.prototype.then, used both by the
// builtins package when installing PromiseProto and internally by await.
func (it *Interpreter) PromiseThen(promise value.Value, onFulfilled, onRejected value.Value) value.Value {
	obj := it.Object(promise.AsObject())
	p := obj.Promise
	resultVal, resultHandle := it.NewPromise()

	handler := value.PromiseHandler{ResultPromise: resultHandle}
	if onFulfilled.IsObject() {
		handler.OnFulfilled = onFulfilled.AsObject()
		handler.HasFulfilled = true
	}
	if onRejected.IsObject() {
		handler.OnRejected = onRejected.AsObject()
		handler.HasRejected = true
	}
	p.Handled = true
	if promise.IsObject() {
		delete(it.unhandledRejections, promise.AsObject())
	}

	switch p.Status {
	case value.Pending:
		p.Handlers = append(p.Handlers, handler)
	default:
		it.EnqueueJob(func() { it.runPromiseReaction(p, handler) })
	}
	return resultVal
}

// PromiseAll implements Promise.all: fulfills with an array of results once
// every input settles, or rejects with the first rejection, per this module
// §4.8's combinator semantics.
func (it *Interpreter) PromiseAll(inputs []value.Value) value.Value {
	result, resultHandle := it.NewPromise()
	if len(inputs) == 0 {
		it.resolvePromise(resultHandle, it.newArray(nil))
		return result
	}
	results := make([]value.Value, len(inputs))
	remaining := len(inputs)
	settled := false
	for i, in := range inputs {
		i := i
		p := it.promiseResolve(in)
		it.PromiseThen(p,
			it.NewNativeFunction("", 1, func(host value.Host, guard *gc.Guard, this value.Value, args []value.Value) (value.Value, error) {
				if settled {
					return value.Undef, nil
				}
				if len(args) > 0 {
					results[i] = args[0]
				}
				remaining--
				if remaining == 0 {
					settled = true
					it.resolvePromise(resultHandle, it.newArray(results))
				}
				return value.Undef, nil
			}),
			it.NewNativeFunction("", 1, func(host value.Host, guard *gc.Guard, this value.Value, args []value.Value) (value.Value, error) {
				if settled {
					return value.Undef, nil
				}
				settled = true
				var reason value.Value
				if len(args) > 0 {
					reason = args[0]
				}
				it.rejectPromise(resultHandle, reason)
				return value.Undef, nil
			}))
	}
	return result
}

// PromiseAllSettled implements Promise.allSettled: always fulfills, with
// each slot an object of shape {status, value} or {status, reason}.
func (it *Interpreter) PromiseAllSettled(inputs []value.Value) value.Value {
	result, resultHandle := it.NewPromise()
	if len(inputs) == 0 {
		it.resolvePromise(resultHandle, it.newArray(nil))
		return result
	}
	results := make([]value.Value, len(inputs))
	remaining := len(inputs)
	for i, in := range inputs {
		i := i
		p := it.promiseResolve(in)
		it.PromiseThen(p,
			it.NewNativeFunction("", 1, func(host value.Host, guard *gc.Guard, this value.Value, args []value.Value) (value.Value, error) {
				var v value.Value
				if len(args) > 0 {
					v = args[0]
				}
				results[i] = it.settledRecord("fulfilled", "value", v)
				remaining--
				if remaining == 0 {
					it.resolvePromise(resultHandle, it.newArray(results))
				}
				return value.Undef, nil
			}),
			it.NewNativeFunction("", 1, func(host value.Host, guard *gc.Guard, this value.Value, args []value.Value) (value.Value, error) {
				var v value.Value
				if len(args) > 0 {
					v = args[0]
				}
				results[i] = it.settledRecord("rejected", "reason", v)
				remaining--
				if remaining == 0 {
					it.resolvePromise(resultHandle, it.newArray(results))
				}
				return value.Undef, nil
			}))
	}
	return result
}

func (it *Interpreter) settledRecord(status, key string, v value.Value) value.Value {
	obj := value.NewOrdinary()
	obj.SetProto(it.Intrinsics.ObjectProto)
	it.defineDataProp(obj, "status", it.stringValue(status), true, true, true)
	it.defineDataProp(obj, key, v, true, true, true)
	h := it.Heap_.Alloc(it.Guard(), obj)
	return value.NewObject(h)
}

// PromiseRace settles with the first input to settle, in either direction.
// Once it does, every other input that carries a scheduler order (see
// value.PromiseData.OrderID) has permanently lost the race: its order is
// reported via Interpreter.OrderCancelled so the host can stop waiting on
// it, implementing "losing a race marks the order cancelled".
func (it *Interpreter) PromiseRace(inputs []value.Value) value.Value {
	result, resultHandle := it.NewPromise()
	resolved := make([]value.Value, len(inputs))
	for i, in := range inputs {
		resolved[i] = it.promiseResolve(in)
	}
	settled := false
	cancelLosers := func(winner int) {
		if it.OrderCancelled == nil {
			return
		}
		for i, p := range resolved {
			if i == winner || !p.IsObject() {
				continue
			}
			obj := it.Object(p.AsObject())
			if obj != nil && obj.Exotic == value.PromiseKind && obj.Promise.HasOrder && obj.Promise.Status == value.Pending {
				it.OrderCancelled(obj.Promise.OrderID)
			}
		}
	}
	for i, p := range resolved {
		i := i
		it.PromiseThen(p,
			it.NewNativeFunction("", 1, func(host value.Host, guard *gc.Guard, this value.Value, args []value.Value) (value.Value, error) {
				if settled {
					return value.Undef, nil
				}
				settled = true
				cancelLosers(i)
				var v value.Value
				if len(args) > 0 {
					v = args[0]
				}
				it.resolvePromise(resultHandle, v)
				return value.Undef, nil
			}),
			it.NewNativeFunction("", 1, func(host value.Host, guard *gc.Guard, this value.Value, args []value.Value) (value.Value, error) {
				if settled {
					return value.Undef, nil
				}
				settled = true
				cancelLosers(i)
				var v value.Value
				if len(args) > 0 {
					v = args[0]
				}
				it.rejectPromise(resultHandle, v)
				return value.Undef, nil
			}))
	}
	return result
}

// PromiseAny fulfills with the first fulfillment, or rejects with an
// AggregateError once every input has rejected.
func (it *Interpreter) PromiseAny(inputs []value.Value) value.Value {
	result, resultHandle := it.NewPromise()
	if len(inputs) == 0 {
		it.rejectPromise(resultHandle, it.errorValue("AggregateError", "All promises were rejected"))
		return result
	}
	errs := make([]value.Value, len(inputs))
	remaining := len(inputs)
	settled := false
	for i, in := range inputs {
		i := i
		p := it.promiseResolve(in)
		it.PromiseThen(p,
			it.NewNativeFunction("", 1, func(host value.Host, guard *gc.Guard, this value.Value, args []value.Value) (value.Value, error) {
				if settled {
					return value.Undef, nil
				}
				settled = true
				var v value.Value
				if len(args) > 0 {
					v = args[0]
				}
				it.resolvePromise(resultHandle, v)
				return value.Undef, nil
			}),
			it.NewNativeFunction("", 1, func(host value.Host, guard *gc.Guard, this value.Value, args []value.Value) (value.Value, error) {
				if settled {
					return value.Undef, nil
				}
				if len(args) > 0 {
					errs[i] = args[0]
				}
				remaining--
				if remaining == 0 {
					settled = true
					agg := it.errorValue("AggregateError", "All promises were rejected")
					it.rejectPromise(resultHandle, agg)
				}
				return value.Undef, nil
			}))
	}
	return result
}

// promiseResolve coerces v into a Promise, per Promise.resolve's algorithm:
// pass existing promises through, wrap everything else.
// PromiseResolve is the exported form of promiseResolve, used by
// jsrt/builtins to implement Promise.resolve.
func (it *Interpreter) PromiseResolve(v value.Value) value.Value { return it.promiseResolve(v) }

func (it *Interpreter) promiseResolve(v value.Value) value.Value {
	if v.IsObject() {
		if obj := it.Object(v.AsObject()); obj != nil && obj.Exotic == value.PromiseKind {
			return v
		}
	}
	result, h := it.NewPromise()
	it.resolvePromise(h, v)
	return result
}
