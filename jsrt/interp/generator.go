package interp

import (
	"github.com/joeycumines/jsrt/ast"
	"github.com/joeycumines/jsrt/env"
	"github.com/joeycumines/jsrt/value"
)

// coroutineFrame is the handoff baton a suspended generator/async body and
// its driver pass back and forth over two unbuffered channels: by
// construction exactly one side is ever running JS code at a time, which is
// what lets it.coroutine (and the shared guard stack) be read safely
// without further locking, implementing coroutine model.
type coroutineFrame struct {
	resumeCh chan resumeMsg
	yieldCh chan yieldMsg
	parent *coroutineFrame
}

type resumeKind uint8

const (
	resumeNext resumeKind = iota
	resumeThrow
	resumeReturn
)

type resumeMsg struct {
	kind resumeKind
	value value.Value
}

type yieldKind uint8

const (
	yieldValue yieldKind = iota
	yieldAwait
	yieldDone
	yieldError
)

type yieldMsg struct {
	kind yieldKind
	value value.Value
	err error
}

// coroutineDriver implements value.GeneratorDriver over a coroutineFrame.
// It is also reused, undecorated, as the internal engine behind async
// function execution (see async.go's driveAsync).
type coroutineDriver struct {
	it *Interpreter
	frame *coroutineFrame
	started bool
	done bool
}

func (d *coroutineDriver) Next(v value.Value) (value.Value, bool, error) {
	return d.resume(resumeMsg{kind: resumeNext, value: v})
}

func (d *coroutineDriver) Return(v value.Value) (value.Value, bool, error) {
	if !d.started || d.done {
		d.done = true
		return v, true, nil
	}
	return d.resume(resumeMsg{kind: resumeReturn, value: v})
}

func (d *coroutineDriver) Throw(v value.Value) (value.Value, bool, error) {
	if !d.started || d.done {
		d.done = true
		return value.Undef, true, d.it.ThrowValue(v)
	}
	return d.resume(resumeMsg{kind: resumeThrow, value: v})
}

func (d *coroutineDriver) resume(msg resumeMsg) (value.Value, bool, error) {
	if d.done {
		return value.Undef, true, nil
	}
	d.started = true
	prev := d.it.coroutine
	d.it.coroutine = d.frame
	d.frame.resumeCh <- msg
	out := <-d.frame.yieldCh
	d.it.coroutine = prev

	switch out.kind {
	case yieldValue, yieldAwait:
		return out.value, false, nil
	case yieldDone:
		d.done = true
		return out.value, true, nil
	default:
		d.done = true
		return value.Undef, true, out.err
	}
}

// Abandon unwinds a suspended body exactly as Return(undefined) would,
// discarding the outcome: there is no host call in progress to hand a
// result or error back to. A body that never started is marked done
// with no goroutine to wake. Safe to call from the GC's sweep, which
// runs single-threaded with respect to the rest of the interpreter: by
// the time resume's channel round-trip returns, the body's goroutine is
// either blocked again or has exited, so the single-driver invariant
// holds throughout.
func (d *coroutineDriver) Abandon() {
	_, _, _ = d.Return(value.Undef)
}

var _ value.GeneratorDriver = (*coroutineDriver)(nil)

// startGenerator implements the generator instantiation: the
// body does not begin executing until the first.next call, per the
// "SuspendedStart" initial status.
func (it *Interpreter) startGenerator(obj *value.Object, this value.Value, args []value.Value) (value.Value, error) {
	fd := obj.Function
	frame := &coroutineFrame{resumeCh: make(chan resumeMsg), yieldCh: make(chan yieldMsg)}
	driver := &coroutineDriver{it: it, frame: frame}

	genObj := value.NewOrdinary()
	genObj.SetProto(it.Intrinsics.GeneratorProto)
	genObj.Exotic = value.GeneratorKind
	genObj.Generator = &value.GeneratorData{Status: value.GenSuspendedStart, ClosureEnv: fd.ClosureEnv, Driver: driver}
	h := it.Heap_.Alloc(it.Guard(), genObj)

	go it.runCoroutineBody(fd, this, args, frame)

	return value.NewObject(h), nil
}

// runCoroutineBody is the goroutine entry point shared by generator and
// async function execution: it blocks until the driver sends the first
// resume message, then runs the function body to completion, reporting
// the outcome as a final yieldDone/yieldError message.
func (it *Interpreter) runCoroutineBody(fd *value.FunctionData, this value.Value, args []value.Value, frame *coroutineFrame) {
	first := <-frame.resumeCh
	if first.kind != resumeNext {
		if first.kind == resumeReturn {
			frame.yieldCh <- yieldMsg{kind: yieldDone, value: first.value}
		} else {
			frame.yieldCh <- yieldMsg{kind: yieldError, err: it.ThrowValue(first.value)}
		}
		return
	}

	g := it.PushGuard()
	defer it.PopGuard()
	closure := env.Env{Handle: fd.ClosureEnv}
	callEnv := env.New(it.Heap_, g, closure)
	_ = callEnv.Define(it.Heap_, "this", this, false, true)
	argsObj := it.makeArguments(args)
	_ = callEnv.Define(it.Heap_, "arguments", argsObj, true, true)
	if fd.HomeObject != (gcHandle{}) {
		_ = callEnv.Define(it.Heap_, "%home%", value.NewObject(fd.HomeObject), false, true)
	}

	if err := it.bindParams(fd.Params, args, callEnv); err != nil {
		frame.yieldCh <- yieldMsg{kind: yieldError, err: err}
		return
	}

	body, _ := fd.Body.(*ast.BlockStatement)
	if body == nil {
		frame.yieldCh <- yieldMsg{kind: yieldDone, value: value.Undef}
		return
	}
	it.hoist(body.Body, callEnv, true)

	var result value.Value
	var runErr error
	for _, stmt := range body.Body {
		c, serr := it.execStmt(stmt, callEnv)
		if serr != nil {
			runErr = serr
			break
		}
		if c.Kind == Return {
			result = c.Value
			break
		}
		if c.Kind == Throw {
			runErr = it.ThrowValue(c.Value)
			break
		}
	}
	if runErr != nil {
		frame.yieldCh <- yieldMsg{kind: yieldError, err: runErr}
		return
	}
	frame.yieldCh <- yieldMsg{kind: yieldDone, value: result}
}

// yieldOne implements a plain (non-delegating) `yield`, suspending the
// current generator body until its driver calls Next/Return/Throw again.
func (it *Interpreter) yieldOne(v value.Value) (value.Value, error) {
	frame := it.coroutine
	if frame == nil {
		return value.Undef, it.ThrowValue(it.newTypeError("yield used outside a generator"))
	}
	frame.yieldCh <- yieldMsg{kind: yieldValue, value: v}
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

// yieldDelegate implements `yield*`: drain the delegate's iterator,
// forwarding each item out as our own yield and each resumption in as the
// delegate's next argument, closing the delegate if our own generator is
// returned from mid-delegation.
func (it *Interpreter) yieldDelegate(v value.Value, scope env.Env) (value.Value, error) {
	iter, err := it.getIterator(v, false)
	if err != nil {
		return value.Undef, err
	}
	var sendVal value.Value
	for {
		item, done, nerr := it.iteratorNext(iter, sendVal, false)
		if nerr != nil {
			return value.Undef, nerr
		}
		if done {
			return item, nil
		}
		out, yerr := it.yieldOne(item)
		if yerr != nil {
			if c, ok := asControlSignal(yerr); ok && c.Kind == Return {
				it.iteratorClose(iter)
			}
			return value.Undef, yerr
		}
		sendVal = out
	}
}
