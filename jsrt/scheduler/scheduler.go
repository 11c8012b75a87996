// Package scheduler turns the tree-walking interpreter's synchronous
// RunProgram/ProvideModule calls and microtask queue into the indivisible
// prepare/step/provide_module/fulfill_order host protocol: a single-
// threaded, re-entrant Step that a host embeds inside its own event loop
// rather than a background goroutine of its own. It is grounded on
// eventloop/loop.go's tick/poll separation (Step folds "run one tick, then
// drain microtasks, then report what's left" into one call) and
// eventloop/state.go's FastState enum style, collapsed to the states that
// make sense without a second goroutine ever racing the stepper.
package scheduler

import (
	"fmt"
	"sort"
	"time"

	"github.com/joeycumines/jsrt/ast"
	"github.com/joeycumines/jsrt/gc"
	"github.com/joeycumines/jsrt/interp"
	"github.com/joeycumines/jsrt/jserr"
	"github.com/joeycumines/jsrt/value"
)

// State is the scheduler's own coarse status. Unlike eventloop's
// LoopState, there is no Sleeping/Running split observable from outside a
// Step call: Step runs to completion synchronously, so the only states a
// caller can observe between calls are Awake (nothing executed yet),
// Suspended (waiting on outstanding orders) and Done.
type State uint8

const (
	StateAwake State = iota
	StateSuspended
	StateDone
)

func (s State) String() string {
	switch s {
	case StateAwake:
		return "Awake"
	case StateSuspended:
		return "Suspended"
	case StateDone:
		return "Done"
	default:
		return "Unknown"
	}
}

// StepKind is the discriminant of a StepResult.
type StepKind uint8

const (
	// Continue means Step made progress (ran microtasks, linked a module)
	// but the program is neither finished nor blocked; call Step again.
	Continue StepKind = iota
	// Complete means a script-mode program ran to completion; Value holds
	// its final expression-statement value.
	Complete
	// Done means a module-mode program finished evaluating; its exports
	// are available via GetExport/GetExportNames.
	Done
	// NeedImports means the program (or one of its already-discovered
	// dependencies) statically imports a source not yet supplied; the
	// host must call ProvideModule for each entry in Imports, then call
	// Step again.
	NeedImports
	// Suspended means every microtask has drained but one or more
	// host-fulfillable orders are still outstanding; the host must call
	// FulfillOrder (directly, or by resolving whatever external I/O the
	// order represents) and then call Step again.
	Suspended
)

func (k StepKind) String() string {
	switch k {
	case Continue:
		return "Continue"
	case Complete:
		return "Complete"
	case Done:
		return "Done"
	case NeedImports:
		return "NeedImports"
	case Suspended:
		return "Suspended"
	default:
		return "Unknown"
	}
}

// ImportRequest names a statically-imported source the host has not yet
// supplied via ProvideModule, per §4.8's "Each entry in the list
// contains {specifier, importer?, resolved_path}".
type ImportRequest struct {
	Specifier string

	// Importer is the specifier (or the entry program's Prepare source
	// name) of whichever already-known program's import/export statement
	// referenced Specifier, or "" if Specifier came from the entry
	// program itself.
	Importer string

	// ResolvedPath mirrors Specifier: this module does no path
	// resolution of its own (Node-style package resolution is
	// out of scope, left entirely to the host), so there is
	// no distinct resolved form to report here. The field exists for API
	// completeness against a host that expects it.
	ResolvedPath string
}

// StepResult is the outcome of one Step call.
type StepResult struct {
	Kind StepKind

	// Value holds the completion value when Kind == Complete.
	Value value.Value

	// Imports holds the unresolved specifiers when Kind == NeedImports.
	Imports []ImportRequest

	// Pending holds every still-outstanding order id when Kind ==
	// Suspended.
	Pending []uint64

	// Cancelled holds orders that lost a Promise.race since the previous
	// Step call — the host may stop waiting on whatever external work
	// they represent; fulfilling them later is a harmless no-op.
	Cancelled []uint64
}

// order is a single host-fulfillable order: the {resolve, reject} pair
// bound to its promise, plus the promise object's own Handle so an order
// the program drops without ever awaiting it (no live root keeps the
// promise reachable) can be forgotten once the jsrt heap reclaims it,
// rather than pinned in this map forever. Liveness is checked against
// the jsrt heap itself (Interpreter.Object returns nil once the Handle's
// generation has been swept) rather than a Go-level weak pointer: jsrt's
// own GC is synchronous and handle-generation-checked, so this is exact
// the moment the heap has collected the object, instead of depending on
// Go's runtime GC getting around to running a cycle.
type order struct {
	resolve, reject value.Value
	handle gc.Handle
}

// Scheduler drives a single *interp.Interpreter through one top-level
// program (script or module) plus whatever modules it statically imports.
type Scheduler struct {
	it *interp.Interpreter

	entrySource string
	entryProg *ast.Program

	// programs holds every source the host has handed us, keyed by
	// specifier: the entry program plus every dependency ProvideModule
	// has registered, whether or not it has been run through
	// interp.ProvideModule yet.
	programs map[string]*ast.Program
	executed map[string]bool

	started bool
	finished bool
	finalValue StepResult
	completion value.Value

	orders map[uint64]*order
	nextOrderID uint64
	cancelled []uint64
	cancelledSet map[uint64]bool

	timeout time.Duration
	startedAt time.Time
}

// New wires a Scheduler onto it, including the Interpreter.OrderCancelled
// hook PromiseRace uses to report order losses.
func New(it *interp.Interpreter) *Scheduler {
	s := &Scheduler{
		it: it,
		programs: map[string]*ast.Program{},
		executed: map[string]bool{},
		orders: map[uint64]*order{},
	}
	it.OrderCancelled = s.handleCancelled
	return s
}

// SetTimeout bounds total wall-clock time across every Step call since
// Prepare; zero (the default) means no timeout. The deadline is checked at
// the start of each Step, not per-statement or per-call — an interpreted
// loop that never returns control to Step (e.g. a synchronous infinite
// loop with no await/yield) is not preemptible by this mechanism, only by
// the host's own process-level watchdog.
func (s *Scheduler) SetTimeout(d time.Duration) { s.timeout = d }

// State reports the scheduler's current coarse status.
func (s *Scheduler) State() State {
	switch {
	case s.finished:
		return StateDone
	case s.started && len(s.orders) > 0:
		return StateSuspended
	default:
		return StateAwake
	}
}

// Prepare registers the entry program without executing anything (no user
// code runs until the first Step call), and reports any import it already
// knows it needs.
func (s *Scheduler) Prepare(source string, prog *ast.Program) StepResult {
	s.entrySource = source
	s.entryProg = prog
	s.programs[source] = prog
	s.startedAt = time.Now()
	if imports := s.pendingImports(); len(imports) > 0 {
		return StepResult{Kind: NeedImports, Imports: imports}
	}
	return StepResult{Kind: Continue}
}

// ProvideModule registers a dependency's parsed source against its
// specifier. It does not execute the module — that happens lazily, in
// dependency order, the next time Step runs the program.
func (s *Scheduler) ProvideModule(source string, prog *ast.Program) {
	s.programs[source] = prog
}

// Step runs the next indivisible unit of work: if the entry program has
// not executed yet and every statically-known import is satisfied, it
// links and runs every pending dependency followed by the entry program
// itself, then always drains the microtask queue and reports whichever of
// NeedImports/Suspended/Complete/Done/Continue applies.
func (s *Scheduler) Step() (StepResult, error) {
	if s.finished {
		return s.finalValue, nil
	}
	if s.timeout > 0 && time.Since(s.startedAt) > s.timeout {
		return StepResult{}, jserr.TimeoutErr("execution exceeded %s", s.timeout)
	}

	if !s.started {
		if imports := s.pendingImports(); len(imports) > 0 {
			return StepResult{Kind: NeedImports, Imports: imports}, nil
		}
		s.started = true
		if err := s.executeDependencies(); err != nil {
			return StepResult{}, s.toHostError(err)
		}
		if s.entryProg.Module {
			if err := s.it.ProvideModule(s.entrySource, s.entryProg); err != nil {
				return StepResult{}, s.toHostError(err)
			}
		} else {
			v, err := s.it.RunProgram(s.entryProg)
			if err != nil {
				return StepResult{}, s.toHostError(err)
			}
			s.completion = v
		}
		s.executed[s.entrySource] = true
	}

	s.it.DrainJobs()
	cancelled := s.takeCancelled()
	if pending := s.pendingOrderIDs(); len(pending) > 0 {
		return StepResult{Kind: Suspended, Pending: pending, Cancelled: cancelled}, nil
	}

	s.finished = true
	if s.entryProg.Module {
		s.finalValue = StepResult{Kind: Done, Cancelled: cancelled}
	} else {
		s.finalValue = StepResult{Kind: Complete, Value: s.completion, Cancelled: cancelled}
	}
	return s.finalValue, nil
}

// executeDependencies runs every discovered-but-not-yet-executed program
// other than the entry program, in whatever order leaves each module's
// own static imports at least discovered first. A true dependency cycle
// (two modules statically importing each other) is tolerated exactly the
// way interp.ProvideModule tolerates it standalone: whichever module runs
// second sees the first's not-yet-fully-populated namespace, resolved
// under TDZ rules rather than recursing.
func (s *Scheduler) executeDependencies() error {
	for progress := true; progress; {
		progress = false
		for source, prog := range s.programs {
			if source == s.entrySource || s.executed[source] {
				continue
			}
			ready := true
			for _, dep := range scanImportSources(prog) {
				if _, ok := s.programs[dep]; !ok {
					ready = false
					break
				}
			}
			if !ready {
				continue
			}
			if err := s.it.ProvideModule(source, prog); err != nil {
				return err
			}
			s.executed[source] = true
			progress = true
		}
	}
	return nil
}

// pendingImports walks the entry program and every discovered-but-not-yet
// -provided dependency's static imports, collecting specifiers this
// scheduler has not been given a program for yet.
func (s *Scheduler) pendingImports() []ImportRequest {
	seen := map[string]bool{}
	visited := map[*ast.Program]bool{}
	var out []ImportRequest
	var visit func(prog *ast.Program, importer string)
	visit = func(prog *ast.Program, importer string) {
		if prog == nil || visited[prog] {
			return
		}
		visited[prog] = true
		for _, src := range scanImportSources(prog) {
			if dep, ok := s.programs[src]; ok {
				visit(dep, src)
				continue
			}
			if seen[src] {
				continue
			}
			seen[src] = true
			out = append(out, ImportRequest{Specifier: src, Importer: importer, ResolvedPath: src})
		}
	}
	visit(s.entryProg, s.entrySource)
	return out
}

// NewOrder allocates a host-fulfillable promise: a pending Promise whose
// resolve/reject the scheduler itself holds onto, returned to the caller
// as a plain value.Value to hand to the running program plus the id the
// host later passes to FulfillOrder.
func (s *Scheduler) NewOrder() (value.Value, uint64) {
	promise, h := s.it.NewPromise()
	id := s.nextOrderID
	s.nextOrderID++
	resolve, reject := s.it.NewResolvingFunctions(h)
	obj := s.it.Object(h)
	obj.Promise.HasOrder = true
	obj.Promise.OrderID = id
	s.orders[id] = &order{resolve: resolve, reject: reject, handle: h}
	return promise, id
}

// FulfillOrder settles the order's promise: rejects if isError, otherwise
// resolves with result. Fulfilling an id that has already been cancelled
// (lost a Promise.race) or was never issued by this scheduler is a no-op
// rather than an error, matching Promise's own "settle once" semantics.
func (s *Scheduler) FulfillOrder(id uint64, result value.Value, isError bool) error {
	if s.cancelledSet[id] {
		return nil
	}
	ord, ok := s.orders[id]
	if !ok {
		return fmt.Errorf("scheduler: order %d is not outstanding", id)
	}
	delete(s.orders, id)
	fn := ord.resolve
	if isError {
		fn = ord.reject
	}
	_, err := s.it.Call(fn, value.Undef, []value.Value{result})
	if err != nil {
		return s.toHostError(err)
	}
	return nil
}

// toHostError converts an error escaping the interpreter into the
// host-facing taxonomy (§7): an uncaught JS throw becomes a
// jserr.JSError built from the thrown value's name/message/stack, and
// anything already in that shape (a TimeoutErr/ModuleErr jserr
// constructed directly by this package) passes through unchanged.
func (s *Scheduler) toHostError(err error) error {
	if err == nil {
		return nil
	}
	if v, ok := s.it.ExtractThrown(err); ok {
		return s.it.ThrownToJSError(v)
	}
	return err
}

// handleCancelled is wired to Interpreter.OrderCancelled.
func (s *Scheduler) handleCancelled(id uint64) {
	if s.cancelledSet == nil {
		s.cancelledSet = map[uint64]bool{}
	}
	if s.cancelledSet[id] {
		return
	}
	s.cancelledSet[id] = true
	s.cancelled = append(s.cancelled, id)
	delete(s.orders, id)
}

func (s *Scheduler) takeCancelled() []uint64 {
	out := s.cancelled
	s.cancelled = nil
	return out
}

// pendingOrderIDs reports every order still outstanding, first dropping
// any whose promise the jsrt heap has already reclaimed (no live
// reference remains, so it can never be observed to settle and need not
// be reported as something the host must still service).
func (s *Scheduler) pendingOrderIDs() []uint64 {
	var out []uint64
	for id, ord := range s.orders {
		if s.it.Object(ord.handle) == nil {
			delete(s.orders, id)
			continue
		}
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// CallFunction invokes fn with the given this/args, for a host driving a
// previously exported function (the call_function).
func (s *Scheduler) CallFunction(fn, this value.Value, args []value.Value) (value.Value, error) {
	return s.it.Call(fn, this, args)
}

// GetExport reads a single named export of a module Step has already run.
func (s *Scheduler) GetExport(source, name string) (value.Value, error) {
	return s.it.GetExport(source, name)
}

// GetExportNames lists every export name a module makes available.
func (s *Scheduler) GetExportNames(source string) ([]string, error) {
	return s.it.GetExportNames(source)
}
