// Package jsrt is the embeddable runtime's host-facing surface: a single
// Runtime type assembling jsrt/interp (the tree-walking engine),
// jsrt/builtins (the global object) and jsrt/scheduler (the
// prepare/step/provide_module/fulfill_order protocol) behind the small API
// a host embeds its own event loop around, the way eventloop.Loop is the
// one type a caller of that package ever constructs directly.
package jsrt

import (
	"fmt"

	"github.com/joeycumines/jsrt/ast"
	"github.com/joeycumines/jsrt/builtins"
	"github.com/joeycumines/jsrt/bytecode"
	"github.com/joeycumines/jsrt/interp"
	"github.com/joeycumines/jsrt/jserr"
	"github.com/joeycumines/jsrt/scheduler"
	"github.com/joeycumines/jsrt/value"
)

// Parser turns source text (plus an optional file name used only for error
// locations) into a Program. jsrt treats parsing as an external pluggable
// collaborator rather than owning a lexer/grammar itself — a host supplies
// whichever front end produces jsrt/ast nodes (see WithParser).
type Parser func(source, file string) (*ast.Program, error)

// StepResult, StepKind and its constants, and ImportRequest are the exact
// types jsrt/scheduler defines; re-exported here so a caller only ever
// needs to import this one package.
type (
	StepResult    = scheduler.StepResult
	StepKind      = scheduler.StepKind
	ImportRequest = scheduler.ImportRequest
)

const (
	Continue    = scheduler.Continue
	Complete    = scheduler.Complete
	Done        = scheduler.Done
	NeedImports = scheduler.NeedImports
	Suspended   = scheduler.Suspended
)

// OrderResult is one entry of a FulfillOrders batch.
type OrderResult struct {
	ID      uint64
	Value   value.Value
	IsError bool
}

// Runtime is one independent JS/TS execution context: its own heap,
// globals, module registry and order table. Nothing is shared between two
// Runtimes constructed with New.
type Runtime struct {
	it    *interp.Interpreter
	sched *scheduler.Scheduler

	parser             Parser
	unhandledRejection func(value.Value)
	sourceMap          *jserr.SourceMapResolver
}

// New constructs a Runtime, installing the global object and wiring the
// scheduler, per the supplied options.
func New(opts ...RuntimeOption) *Runtime {
	cfg := &runtimeOptions{}
	for _, opt := range opts {
		if opt != nil {
			opt.applyRuntime(cfg)
		}
	}

	it := interp.New(cfg.maxCallDepth)
	if cfg.gcThreshold > 0 {
		it.Heap_.SetThreshold(cfg.gcThreshold)
	}
	builtins.Setup(it)
	if cfg.bytecode {
		bytecode.Enable(it)
	}

	sched := scheduler.New(it)
	if cfg.timeout > 0 {
		sched.SetTimeout(cfg.timeout)
	}

	return &Runtime{
		it:                 it,
		sched:              sched,
		parser:             cfg.parser,
		unhandledRejection: cfg.unhandledRejection,
		sourceMap:          cfg.sourceMap,
	}
}

// Prepare parses source with the configured Parser and registers it as the
// entry program. No user code runs until the first Step call.
func (r *Runtime) Prepare(source, file string) (StepResult, error) {
	if r.parser == nil {
		return StepResult{}, fmt.Errorf("jsrt: Runtime has no Parser configured (see WithParser)")
	}
	prog, err := r.parser(source, file)
	if err != nil {
		return StepResult{}, err
	}
	return r.PrepareProgram(file, prog), nil
}

// PrepareProgram registers an already-parsed Program as the entry program,
// for a host that parses ahead of time or constructs a Program directly.
func (r *Runtime) PrepareProgram(name string, prog *ast.Program) StepResult {
	r.it.SetCurrentFile(name)
	return r.sched.Prepare(name, prog)
}

// ProvideModule parses source and registers it against path, in response
// to a NeedImports result naming path.
func (r *Runtime) ProvideModule(path, source string) error {
	if r.parser == nil {
		return fmt.Errorf("jsrt: Runtime has no Parser configured (see WithParser)")
	}
	prog, err := r.parser(source, path)
	if err != nil {
		return err
	}
	r.sched.ProvideModule(path, prog)
	return nil
}

// ProvideModuleProgram registers an already-parsed Program against path.
func (r *Runtime) ProvideModuleProgram(path string, prog *ast.Program) {
	r.sched.ProvideModule(path, prog)
}

// Step runs the next indivisible unit of work and reports unhandled
// rejections accumulated since the previous Step, per WithUnhandledRejection.
func (r *Runtime) Step() (StepResult, error) {
	res, err := r.sched.Step()
	if err != nil {
		return res, r.resolveError(err)
	}
	r.reportUnhandledRejections()
	return res, nil
}

// resolveError rewrites a *jserr.JSError's Location/Stack through the
// configured WithSourceMap resolver, if any; any other error (or no
// resolver configured) passes through unchanged.
func (r *Runtime) resolveError(err error) error {
	if r.sourceMap == nil {
		return err
	}
	je, ok := err.(*jserr.JSError)
	if !ok {
		return err
	}
	resolved := *je
	resolved.Location = r.sourceMap.ResolveLocation(je.Location)
	resolved.Stack = r.sourceMap.ResolveStack(je.Stack)
	return &resolved
}

func (r *Runtime) reportUnhandledRejections() {
	if r.unhandledRejection == nil {
		return
	}
	for _, h := range r.it.UnhandledRejections() {
		obj := r.it.Object(h)
		var reason value.Value
		if obj != nil && obj.Promise != nil {
			reason = obj.Promise.Result
		}
		r.unhandledRejection(reason)
		r.it.ClearUnhandledRejection(h)
	}
}

// FulfillOrders settles every order named in results (resolving or
// rejecting its promise), in order, stopping at the first error.
func (r *Runtime) FulfillOrders(results []OrderResult) error {
	for _, res := range results {
		if err := r.sched.FulfillOrder(res.ID, res.Value, res.IsError); err != nil {
			return err
		}
	}
	return nil
}

// NewOrder allocates a host-fulfillable promise and the id FulfillOrders
// later settles it by — for a native function the host installs via
// CallFunction's counterpart (a host-side global bound into the running
// program before Prepare) that needs to return a pending result.
func (r *Runtime) NewOrder() (value.Value, uint64) {
	return r.sched.NewOrder()
}

// CallFunction invokes an exported or otherwise-held function value with
// the given this/args.
func (r *Runtime) CallFunction(fn, this value.Value, args []value.Value) (value.Value, error) {
	return r.sched.CallFunction(fn, this, args)
}

// GetExport reads a single named export of a module Step has already run.
func (r *Runtime) GetExport(source, name string) (value.Value, error) {
	return r.sched.GetExport(source, name)
}

// GetExportNames lists every export name a module makes available.
func (r *Runtime) GetExportNames(source string) ([]string, error) {
	return r.sched.GetExportNames(source)
}

// State reports the scheduler's current coarse status.
func (r *Runtime) State() scheduler.State { return r.sched.State() }

// Global returns the runtime's global object, for a host installing its
// own native functions/values before Prepare.
func (r *Runtime) Global() value.Value { return value.NewObject(r.it.GlobalObj) }

// Intern interns s into this Runtime's string table, for building
// value.Value strings to pass into CallFunction/FulfillOrders.
func (r *Runtime) Intern(s string) value.Value {
	return value.NewString(r.it.Intern_.GetOrInsert(s))
}

// Host exposes the Runtime's interpreter through the value.Host interface,
// for a companion package (jsrt/hostjs's differential-testing shim) that
// needs to allocate objects or re-enter Call without importing jsrt/interp
// directly.
func (r *Runtime) Host() value.Host { return r.it }
