package interp

import (
	"github.com/joeycumines/jsrt/gc"
	"github.com/joeycumines/jsrt/value"
)

// startAsync implements /§4.7's async function call: the body
// runs synchronously (on the shared coroutine handoff, reusing
// runCoroutineBody) up to its first await, then control returns to the
// caller immediately with a pending Promise that settles once the body
// finishes, driven entirely by microtask continuations (driveAsync).
func (it *Interpreter) startAsync(obj *value.Object, this value.Value, args []value.Value) (value.Value, error) {
	fd := obj.Function
	frame := &coroutineFrame{resumeCh: make(chan resumeMsg), yieldCh: make(chan yieldMsg)}
	driver := &coroutineDriver{it: it, frame: frame}

	resultVal, resultHandle := it.NewPromise()

	go it.runCoroutineBody(fd, this, args, frame)

	v, done, err := driver.Next(value.Undef)
	it.continueAsync(driver, resultHandle, v, done, err)

	return resultVal, nil
}

// continueAsync advances an async function's coroutine one step: either it
// finished (settling resultHandle) or it's awaiting a value, in which case
// resumption is scheduled as a microtask continuation off that value's
// eventual settlement.
func (it *Interpreter) continueAsync(driver *coroutineDriver, resultHandle gc.Handle, v value.Value, done bool, err error) {
	if err != nil {
		if c, ok := asControlSignal(err); ok && c.Kind == Throw {
			it.rejectPromise(resultHandle, c.Value)
			return
		}
		it.rejectPromise(resultHandle, it.errorValue("Error", "%s", err.Error()))
		return
	}
	if done {
		it.resolvePromise(resultHandle, v)
		return
	}

	awaited := it.promiseResolve(v)
	onFulfilled := it.NewNativeFunction("", 1, func(host value.Host, guard *gc.Guard, this value.Value, args []value.Value) (value.Value, error) {
		var arg value.Value
		if len(args) > 0 {
			arg = args[0]
		}
		v2, done2, err2 := driver.Next(arg)
		it.continueAsync(driver, resultHandle, v2, done2, err2)
		return value.Undef, nil
	})
	onRejected := it.NewNativeFunction("", 1, func(host value.Host, guard *gc.Guard, this value.Value, args []value.Value) (value.Value, error) {
		var arg value.Value
		if len(args) > 0 {
			arg = args[0]
		}
		v2, done2, err2 := driver.Throw(arg)
		it.continueAsync(driver, resultHandle, v2, done2, err2)
		return value.Undef, nil
	})
	it.PromiseThen(awaited, onFulfilled, onRejected)
}

// awaitValue implements `await`: suspend the current async coroutine,
// handing the awaited value back to continueAsync, and resume with
// whatever continueAsync's eventual Next/Throw call supplies.
func (it *Interpreter) awaitValue(v value.Value) (value.Value, error) {
	frame := it.coroutine
	if frame == nil {
		// Top-level await: no coroutine to suspend, so this engine only
		// supports awaiting an already-settled value synchronously.
		if v.IsObject() {
			if pobj := it.Object(v.AsObject()); pobj != nil && pobj.Exotic == value.PromiseKind {
				switch pobj.Promise.Status {
				case value.Fulfilled:
					return pobj.Promise.Result, nil
				case value.Rejected:
					return value.Undef, it.ThrowValue(pobj.Promise.Result)
				default:
					return value.Undef, it.ThrowValue(it.errorValue("Error", "top-level await of a pending promise is not supported"))
				}
			}
		}
		return v, nil
	}
	frame.yieldCh <- yieldMsg{kind: yieldAwait, value: v}
	msg := <-frame.resumeCh
	switch msg.kind {
	case resumeNext:
		return msg.value, nil
	case resumeReturn:
		return value.Undef, signal(Completion{Kind: Return, Value: msg.value})
	default:
		return value.Undef, it.ThrowValue(msg.value)
	}
}
