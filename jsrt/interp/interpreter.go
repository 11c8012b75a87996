package interp

import (
	"fmt"
	"io"
	"log"
	"os"

	"github.com/joeycumines/jsrt/ast"
	"github.com/joeycumines/jsrt/env"
	"github.com/joeycumines/jsrt/gc"
	"github.com/joeycumines/jsrt/intern"
	"github.com/joeycumines/jsrt/jserr"
	"github.com/joeycumines/jsrt/value"
)

// Interpreter is the tree-walking engine of. It owns the
// heap, the interner, and the global environment, and implements
// value.Host so jsrt/value's conversion helpers (ToPrimitive, etc.) can
// call back into user code.
type Interpreter struct {
	Heap_ *gc.Heap
	Intern_ *intern.Table

	Global env.Env
	GlobalObj gc.Handle

	guards []*gc.Guard

	callDepth int
	maxCallDepth int

	// Intrinsics: prototypes shared by every instance of a given kind,
	// anchored on the heap's permanent root guard so they outlive every
	// ordinary call frame.
	Intrinsics Intrinsics

	// coroutine, when non-nil, lets yield/await find
	// the coroutine channel pair they must communicate through without
	// threading it through every evalExpr call.
	coroutine *coroutineFrame

	// jobs is the microtask queue /§4.8 uses for Promise
	// reaction scheduling; the host drains it between macrotasks via
	// DrainJobs (see jsrt/scheduler).
	jobs []func()

	// classFieldInits/classFieldEnvs record each class constructor's
	// instance field declarations and the lexical environment they close
	// over, so Construct can run them against the new instance (see
	// class.go's runInstanceFieldInits). Keyed by the constructor's own
	// object handle since FunctionData carries no room for this today.
	classFieldInits map[gc.Handle][]ast.ClassMember
	classFieldEnvs map[gc.Handle]env.Env

	// modules is the module registry the provide_module/import
	// linking work against (see modules.go). currentModule, when non-nil,
	// is the module whose top level execExport is currently recording
	// exports into.
	modules map[string]*Module
	currentModule *Module

	// OrderCancelled, when set, is invoked by PromiseRace for every other
	// input promise that carries a scheduler order (the
	// "losing a race marks the order cancelled") at the moment one of the
	// race's inputs settles. jsrt/scheduler wires this to its own
	// cancellation bookkeeping; interp has no notion of orders otherwise.
	OrderCancelled func(orderID uint64)

	// callStack mirrors callDepth with enough detail (function name, and
	// the call-site position set by evalCall/evalNew before dispatch) to
	// build jserr.StackFrame entries for a thrown error's Stack field
	// without re-walking the AST after the fact.
	callStack []jserr.StackFrame
	// pendingCallPos is set by the call-expression evaluator immediately
	// before EnterCall, so EnterCall's pushed frame records a call-site
	// position rather than (0,0); EnterCall clears it after consuming it.
	pendingCallPos jserr.StackFrame
	// currentFile is stamped onto every CaptureStack frame; set by the
	// host via SetCurrentFile (jsrt.Runtime.Prepare/ProvideModule do this
	// with their file argument).
	currentFile string

	// unhandledRejections tracks every promise that settled to Rejected
	// with no.then/.catch ever attached, for the host's unhandled-
	// rejection reporting (see UnhandledRejections/ClearUnhandledRejection
	// and the root jsrt package's WithUnhandledRejection option).
	unhandledRejections map[gc.Handle]bool

	// CompileFunction, when set, lets makeFunction try lowering a freshly
	// built interpreted function to bytecode. It returns a value
	// satisfying compiledBody (opaque here as `any`, same reason Body is
	// opaque on FunctionData) on success, or nil to leave the function on
	// the tree walker. interp never imports jsrt/bytecode directly — that
	// would cycle back through this very hook — so jsrt/bytecode's own
	// setup wires this field instead.
	CompileFunction func(name string, params []ast.Pattern, body *ast.BlockStatement, closureEnv gc.Handle, isArrow bool) any
}

// EnqueueJob appends a job to the microtask queue (the "Promise
// reactions always run as a microtask, never synchronously").
func (it *Interpreter) EnqueueJob(job func()) {
	it.jobs = append(it.jobs, job)
}

// DrainJobs runs every currently-queued microtask to completion, including
// any jobs newly enqueued while draining (the "drain fully
// before yielding back to the host between macrotasks"). It returns the
// number of jobs run.
func (it *Interpreter) DrainJobs() int {
	ran := 0
	for len(it.jobs) > 0 {
		job := it.jobs[0]
		it.jobs = it.jobs[1:]
		job()
		ran++
	}
	return ran
}

// HasPendingJobs reports whether the microtask queue is non-empty.
func (it *Interpreter) HasPendingJobs() bool { return len(it.jobs) > 0 }

// Intrinsics holds the built-in prototype objects the interpreter installs
// at startup (jsrt/builtins populates these; interp only needs the
// handles to wire new instances to the right prototype).
type Intrinsics struct {
	ObjectProto gc.Handle
	FunctionProto gc.Handle
	ArrayProto gc.Handle
	StringProto gc.Handle
	NumberProto gc.Handle
	BooleanProto gc.Handle
	ErrorProto gc.Handle
	SymbolProto gc.Handle
	PromiseProto gc.Handle
	GeneratorProto gc.Handle
	MapProto gc.Handle
	SetProto gc.Handle
	RegExpProto gc.Handle
	DateProto gc.Handle

	SymbolIterator *value.Symbol
	SymbolAsyncIterator *value.Symbol
	SymbolToPrimitive *value.Symbol

	// symbolRegistry backs Symbol.for/Symbol.keyFor's global symbol
	// registry, implementing well-known-symbol treatment extended to
	// user-created shared symbols.
	symbolRegistry map[string]*value.Symbol

	// Console holds the per-runtime console.* timer/counter tables (see
	// jsrt/builtins/console.go), resolving the open question in
	// favor of per-runtime rather than process-wide state.
	Console ConsoleState
}

// ConsoleState is per-Runtime console.* bookkeeping: console.time/timeEnd
// labels and console.count labels, kept off the process-wide tables the
// a reference engine used ( flags that as a defect for a
// multi-runtime host).
type ConsoleState struct {
	Timers map[string]int64 // label -> start (nanoseconds, host-supplied clock)
	Counts map[string]int
	GroupDepth int
	Output io.Writer // defaults to os.Stdout; tests substitute a buffer
}

// SymbolFor implements Symbol.for's global registry: interning by
// description so repeated calls with the same key return the identical
// Symbol.
func (it *Interpreter) SymbolFor(desc string) *value.Symbol {
	if it.Intrinsics.symbolRegistry == nil {
		it.Intrinsics.symbolRegistry = map[string]*value.Symbol{}
	}
	if s, ok := it.Intrinsics.symbolRegistry[desc]; ok {
		return s
	}
	s := value.NewSymbol(desc)
	it.Intrinsics.symbolRegistry[desc] = s
	return s
}

// SymbolKeyFor is the reverse lookup for Symbol.keyFor.
func (it *Interpreter) SymbolKeyFor(s *value.Symbol) (string, bool) {
	for k, v := range it.Intrinsics.symbolRegistry {
		if v == s {
			return k, true
		}
	}
	return "", false
}

// New creates an Interpreter with a fresh heap, interner and global
// environment. maxCallDepth<=0 means "use this module's unspecified-but-finite
// default" of 2000.
func New(maxCallDepth int) *Interpreter {
	if maxCallDepth <= 0 {
		maxCallDepth = 2000
	}
	it := &Interpreter{
		Heap_: gc.New(),
		Intern_: intern.New(),
		maxCallDepth: maxCallDepth,
		classFieldInits: map[gc.Handle][]ast.ClassMember{},
		classFieldEnvs: map[gc.Handle]env.Env{},
	}
	it.Intrinsics.SymbolIterator = value.NewSymbol("Symbol.iterator")
	it.Intrinsics.SymbolAsyncIterator = value.NewSymbol("Symbol.asyncIterator")
	it.Intrinsics.SymbolToPrimitive = value.NewSymbol("Symbol.toPrimitive")
	it.Intrinsics.Console = ConsoleState{Timers: map[string]int64{}, Counts: map[string]int{}, Output: os.Stdout}

	root := it.Heap_.RootGuard()
	it.Global = env.New(it.Heap_, root, env.Env{})

	globalObj := value.NewOrdinary()
	globalHandle := it.Heap_.Alloc(root, globalObj)
	it.GlobalObj = globalHandle
	it.Heap_.AddRoot(func(visit func(gc.Handle)) {
		visit(it.Global.Handle)
		visit(it.GlobalObj)
	})

	return it
}

// --- value.Host ---

func (it *Interpreter) Heap() *gc.Heap { return it.Heap_ }
func (it *Interpreter) Intern() *intern.Table { return it.Intern_ }

// Guard returns the innermost live guard, or the heap's root guard if
// none has been opened yet (e.g. a NativeFunc called before any
// interpreted frame is active).
func (it *Interpreter) Guard() *gc.Guard {
	if len(it.guards) == 0 {
		return it.Heap_.RootGuard()
	}
	return it.guards[len(it.guards)-1]
}

// PushGuard opens a new guard scope, used at call/statement boundaries so
// temporaries die with the frame that created them.
func (it *Interpreter) PushGuard() *gc.Guard {
	g := it.Heap_.NewGuard()
	it.guards = append(it.guards, g)
	return g
}

// PopGuard closes the innermost guard scope.
func (it *Interpreter) PopGuard() {
	if len(it.guards) == 0 {
		return
	}
	g := it.guards[len(it.guards)-1]
	it.guards = it.guards[:len(it.guards)-1]
	g.Close()
}

// Throw wraps err as a Go error carrying a thrown JS value, used by
// NativeFunc implementations; it is a thin passthrough today but is the
// single choke-point where stack-frame annotation would be added.
func (it *Interpreter) Throw(err error) error { return err }

// ThrowValue raises v as a JS exception (this module's Throw completion),
// wrapped so it can propagate through Go's error-return path and be
// caught by a matching catch clause.
func (it *Interpreter) ThrowValue(v value.Value) error {
	return signal(Completion{Kind: Throw, Value: v})
}

// Object resolves h to its *value.Object, or nil if dangling.
func (it *Interpreter) Object(h gc.Handle) *value.Object {
	o, _ := it.Heap_.Get(h).(*value.Object)
	return o
}

// RunProgram evaluates prog's top-level statements in the global
// environment and returns the completion value (for eval/script mode;
// modules return Undef and rely on their namespace instead).
func (it *Interpreter) RunProgram(prog *ast.Program) (value.Value, error) {
	g := it.PushGuard()
	defer func() { it.PopGuard(); _ = g }()

	it.hoist(prog.Body, it.Global, true)

	var last value.Value
	for _, stmt := range prog.Body {
		c, err := it.execStmt(stmt, it.Global)
		if err != nil {
			return value.Undef, err
		}
		if cc, ok := asControlSignal(errFromCompletion(c)); ok {
			c = cc
		}
		if c.IsAbrupt() {
			if c.Kind == Throw {
				return value.Undef, it.ThrowValue(c.Value)
			}
			return value.Undef, jserr.Internal("unexpected %v completion at program top level", c.Kind)
		}
		last = c.Value
	}
	return last, nil
}

// errFromCompletion is a small adapter used while the
// statement executor is being composed from pieces that sometimes return
// (Completion, error) and sometimes communicate abrupt completions via
// controlSignal errors; see control.go.
func errFromCompletion(c Completion) error {
	if c.Kind == Normal {
		return nil
	}
	return signal(c)
}

// EnterCall increments the call-depth counter, returning a RangeError
// once the configured max is exceeded. name is the callee's declared name
// (empty for an anonymous function), pushed onto the stack-trace frame
// list the returned func() pops on return.
func (it *Interpreter) EnterCall(name string) (func(), error) {
	it.callDepth++
	if it.callDepth > it.maxCallDepth {
		it.callDepth--
		return func() {}, jserr.RangeError("Maximum call stack size exceeded")
	}
	frame := it.pendingCallPos
	frame.FunctionName = name
	it.pendingCallPos = jserr.StackFrame{}
	it.callStack = append(it.callStack, frame)
	return func() {
		it.callDepth--
		if len(it.callStack) > 0 {
			it.callStack = it.callStack[:len(it.callStack)-1]
		}
	}, nil
}

// CallDepth reports the current interpreted-call nesting (zero between
// program top-level statements, implementing testable property).
func (it *Interpreter) CallDepth() int { return it.callDepth }

// SetCallSite records the position of the call expression about to
// dispatch, consumed by the next EnterCall so the pushed frame carries a
// line:column rather than zero values. evalCall/evalNew call this
// immediately before Call/Construct; File is not tracked per-call here —
// CaptureStack stamps every frame with the file SetCurrentFile recorded.
func (it *Interpreter) SetCallSite(pos ast.Position) {
	it.pendingCallPos = jserr.StackFrame{Line: pos.Line, Column: pos.Column}
}

// SetCurrentFile records the file name (set by the scheduler/Runtime) that
// is stamped onto every frame CaptureStack returns.
func (it *Interpreter) SetCurrentFile(file string) { it.currentFile = file }

// CaptureStack snapshots the current call stack, innermost first, for
// attaching to a freshly-thrown JSError.
func (it *Interpreter) CaptureStack() []jserr.StackFrame {
	if len(it.callStack) == 0 {
		return nil
	}
	out := make([]jserr.StackFrame, len(it.callStack))
	for i := range it.callStack {
		f := it.callStack[i]
		f.File = it.currentFile
		out[len(it.callStack)-1-i] = f
	}
	return out
}

func internalBug(format string, args...any) error {
	log.Printf("[jsrt/interp] internal invariant violated: "+format, args...)
	return jserr.Internal(format, args...)
}

var _ = fmt.Sprintf
