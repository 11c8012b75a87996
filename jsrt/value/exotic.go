package value

import (
	"time"

	"github.com/dlclark/regexp2"
	"github.com/joeycumines/jsrt/gc"
	"github.com/joeycumines/jsrt/intern"
)

// ArrayData is the Array exotic payload: this module requires length to be
// tracked separately from the property map and to be non-enumerable,
// non-configurable — DefineOwn (object.go) keeps it in sync whenever an
// integer-keyed own property is installed.
type ArrayData struct {
	Length uint32
}

// FunctionKindTag distinguishes the four Function payload shapes from
// the Function exotic: interpreted, native, bound, or a
// Promise-resolve/reject thunk.
type FunctionKindTag uint8

const (
	FuncInterpreted FunctionKindTag = iota
	FuncNative
	FuncBound
	FuncPromiseThunk
)

// NativeFunc is the Go-side implementation of a native function: it
// receives the current guard (for allocating results), the `this` value,
// and the argument list, and returns a result or a thrown error.
//
// The Host interface is declared here rather than in jsrt/interp to avoid
// an import cycle (interp depends on value, not vice versa);
// *interp.Interpreter satisfies it.
type NativeFunc func(host Host, guard *gc.Guard, this Value, args []Value) (Value, error)

// Host is the minimal surface a NativeFunc needs from the interpreter:
// enough to allocate objects and re-enter evaluation. jsrt/interp's
// Interpreter satisfies it.
type Host interface {
	Guard() *gc.Guard
	Heap() *gc.Heap
	Call(fn Value, this Value, args []Value) (Value, error)
	Throw(err error) error
	Intern() *intern.Table
}

// FunctionData is the Function exotic payload.
type FunctionData struct {
	Tag FunctionKindTag

	// FuncInterpreted
	Params []ParamSpec
	Body any // *ast.BlockStatement, opaque here to avoid an import cycle on jsrt/ast
	ClosureEnv gc.Handle
	IsArrow bool
	IsGenerator bool
	IsAsync bool
	HomeObject gc.Handle // for super lookups in methods
	Name string

	// Compiled, when non-nil, is a jsrt/bytecode CompiledFunction: Call
	// re-enters it instead of walking Body. Opaque here for the same
	// import-cycle reason as Body.
	Compiled any

	// FuncNative
	Native NativeFunc
	Arity int

	// FuncBound
	BoundTarget Value
	BoundThis Value
	BoundArgs []Value

	// FuncPromiseThunk
	ThunkPromise gc.Handle
	ThunkReject bool
}

// ParamSpec describes one formal parameter: a plain binding, a
// destructuring pattern, a default, or a rest element. Pattern/Default
// are opaque AST nodes (jsrt/ast), kept untyped here to avoid the import
// cycle; jsrt/interp type-asserts them back to *ast.Pattern/*ast.Expr.
type ParamSpec struct {
	Name string
	Pattern any
	Default any
	Rest bool
}

func (f *FunctionData) trace(visit func(gc.Handle)) {
	if f.ClosureEnv != (gc.Handle{}) {
		visit(f.ClosureEnv)
	}
	if f.HomeObject != (gc.Handle{}) {
		visit(f.HomeObject)
	}
	if f.BoundTarget.IsObject() {
		visit(f.BoundTarget.AsObject())
	}
	if f.BoundThis.IsObject() {
		visit(f.BoundThis.AsObject())
	}
	for _, a := range f.BoundArgs {
		if a.IsObject() {
			visit(a.AsObject())
		}
	}
	if f.ThunkPromise != (gc.Handle{}) {
		visit(f.ThunkPromise)
	}
}

// MapData backs the Map exotic kind. Insertion order is preserved, as
// required by the Map iteration protocol.
type MapData struct {
	keys []Value
	values []Value
	index map[string]int // SameValueZero key -> position in keys/values
}

func NewMapData() *MapData { return &MapData{index: map[string]int{}} }

func mapKeyString(v Value) string {
	// SameValueZero bucketing: numbers/strings/booleans/objects/symbols
	// each get a distinct, content-addressed bucket key.
	switch v.Kind() {
	case String:
		return "s:" + v.AsString().Content()
	case Number:
		n := v.AsNumber()
		if n != n { // NaN buckets together, per SameValueZero
			return "n:NaN"
		}
		if n == 0 { // +0 and -0 bucket together, per SameValueZero
			return "n:0"
		}
		return "n:" + formatFloat(n)
	case Boolean:
		if v.AsBool() {
			return "b:1"
		}
		return "b:0"
	case ObjectKind:
		return "o:" + formatHandle(v.AsObject())
	case SymbolKind:
		return "y:" + formatPtr(v.AsSymbol())
	default:
		return "u"
	}
}

func (m *MapData) Get(k Value) (Value, bool) {
	i, ok := m.index[mapKeyString(k)]
	if !ok {
		return Value{}, false
	}
	return m.values[i], true
}

func (m *MapData) Set(k, v Value) {
	ks := mapKeyString(k)
	if i, ok := m.index[ks]; ok {
		m.values[i] = v
		return
	}
	m.index[ks] = len(m.keys)
	m.keys = append(m.keys, k)
	m.values = append(m.values, v)
}

func (m *MapData) Delete(k Value) bool {
	ks := mapKeyString(k)
	i, ok := m.index[ks]
	if !ok {
		return false
	}
	m.keys = append(m.keys[:i], m.keys[i+1:]...)
	m.values = append(m.values[:i], m.values[i+1:]...)
	delete(m.index, ks)
	for kk, idx := range m.index {
		if idx > i {
			m.index[kk] = idx - 1
		}
	}
	return true
}

func (m *MapData) Size() int { return len(m.keys) }

func (m *MapData) Entries() ([]Value, []Value) { return m.keys, m.values }

func (m *MapData) trace(visit func(gc.Handle)) {
	for _, v := range m.keys {
		if v.IsObject() {
			visit(v.AsObject())
		}
	}
	for _, v := range m.values {
		if v.IsObject() {
			visit(v.AsObject())
		}
	}
}

// SetData backs the Set exotic kind, reusing MapData's bucketing with
// values discarded.
type SetData struct {
	m *MapData
}

func NewSetData() *SetData { return &SetData{m: NewMapData()} }
func (s *SetData) Add(v Value) {
	if _, ok := s.m.Get(v); !ok {
		s.m.Set(v, v)
	}
}
func (s *SetData) Has(v Value) bool { _, ok := s.m.Get(v); return ok }
func (s *SetData) Delete(v Value) bool { return s.m.Delete(v) }
func (s *SetData) Size() int { return s.m.Size() }
func (s *SetData) Values() []Value { k, _ := s.m.Entries(); return k }
func (s *SetData) trace(visit func(gc.Handle)) { s.m.trace(visit) }

// DateData backs the Date exotic kind as milliseconds since epoch, with
// NaN meaning Invalid Date.
type DateData struct {
	MillisSinceEpoch float64
}

func (d *DateData) Time() time.Time {
	return time.UnixMilli(int64(d.MillisSinceEpoch)).UTC()
}

// RegExpData backs the RegExp exotic kind, delegating pattern compilation
// to regexp2 for ECMAScript-compatible backreferences/lookaround (see
// this module's domain-stack wiring), rather than Go's RE2 engine.
type RegExpData struct {
	Source string
	Flags string
	Compiled *regexp2.Regexp
	LastIndex int
}

// GeneratorStatus mirrors the original's GeneratorStatus enum.
type GeneratorStatus uint8

const (
	GenSuspendedStart GeneratorStatus = iota
	GenSuspendedYield
	GenExecuting
	GenCompleted
)

// GeneratorData backs the Generator exotic kind. The actual suspended
// execution state lives behind a resumer channel pair set up by
// jsrt/interp's generator driver (see interp/generator.go); this struct
// only holds the handle-shaped state the GC must trace plus the status.
type GeneratorData struct {
	Status GeneratorStatus
	ClosureEnv gc.Handle
	Driver GeneratorDriver
}

// GeneratorDriver is the minimal interface jsrt/interp's coroutine-backed
// generator implementation exposes back to the exotic payload, kept
// opaque here to avoid an import cycle.
type GeneratorDriver interface {
	Next(v Value) (Value, bool, error)
	Return(v Value) (Value, bool, error)
	Throw(v Value) (Value, bool, error)
	// Abandon forces a suspended body to unwind as if Return(undefined)
	// had been called, with nowhere to report the outcome. Called by the
	// GC when a Generator object is swept while its body is still
	// parked mid-execution, so the goroutine backing it doesn't block
	// on its resume channel forever.
	Abandon()
}

func (g *GeneratorData) trace(visit func(gc.Handle)) {
	if g.ClosureEnv != (gc.Handle{}) {
		visit(g.ClosureEnv)
	}
}

// PromiseStatus mirrors the three states.
type PromiseStatus uint8

const (
	Pending PromiseStatus = iota
	Fulfilled
	Rejected
)

// PromiseHandler is one entry of a pending promise's handler list.
type PromiseHandler struct {
	OnFulfilled gc.Handle // Function, or nil handle meaning "pass through"
	HasFulfilled bool
	OnRejected gc.Handle
	HasRejected bool
	ResultPromise gc.Handle
}

// PromiseData backs the Promise exotic kind.
type PromiseData struct {
	Status PromiseStatus
	Result Value
	Handlers []PromiseHandler

	// OrderID, when HasOrder, ties this promise to a host-fulfillable
	// scheduler order ( "host-resolvable promises", §4.8).
	OrderID uint64
	HasOrder bool

	// Handled records whether at least one handler has ever been
	// attached, for unhandled-rejection reporting.
	Handled bool
}

func (p *PromiseData) trace(visit func(gc.Handle)) {
	if p.Result.IsObject() {
		visit(p.Result.AsObject())
	}
	for _, h := range p.Handlers {
		if h.HasFulfilled {
			visit(h.OnFulfilled)
		}
		if h.HasRejected {
			visit(h.OnRejected)
		}
		visit(h.ResultPromise)
	}
}

// Binding is one lexical binding inside an Environment,.
type Binding struct {
	Value Value
	Mutable bool
	Initialized bool
}

// EnvironmentData backs the Environment exotic kind: lexical scopes as
// GC-managed objects so closure cycles are collectable.
type EnvironmentData struct {
	Bindings map[string]*Binding
	Outer gc.Handle
	HasOuter bool
}

func NewEnvironmentData() *EnvironmentData {
	return &EnvironmentData{Bindings: map[string]*Binding{}}
}

func (e *EnvironmentData) trace(visit func(gc.Handle)) {
	if e.HasOuter {
		visit(e.Outer)
	}
	for _, b := range e.Bindings {
		if b.Value.IsObject() {
			visit(b.Value.AsObject())
		}
	}
}
