package bytecode

import (
	"github.com/joeycumines/jsrt/ast"
	"github.com/joeycumines/jsrt/env"
	"github.com/joeycumines/jsrt/gc"
	"github.com/joeycumines/jsrt/interp"
	"github.com/joeycumines/jsrt/value"
)

// CompiledFunction is the value a compiled FunctionData.Compiled field
// holds. It satisfies interp's unexported compiledBody interface purely
// structurally (same method set, no shared type): interp.Call type-
// asserts FunctionData.Compiled against that interface and re-enters
// Run instead of walking fd.Body.
type CompiledFunction struct {
	Chunk      *Chunk
	ParamNames []string
	ClosureEnv gc.Handle
	IsArrow    bool
}

// TryCompile attempts to compile an interpreted function's body. It
// returns (nil, *ErrUnsupported) for any function outside the compiled
// subset — destructured/defaulted/rest parameters, generators, async
// functions, or a body using an unsupported statement/expression shape
// — in which case the caller should simply not attach Compiled and let
// the function keep running on the tree walker.
//
// Compiled functions don't get an implicit `arguments` object (unlike
// callInterpreted): detecting whether a body actually references it
// would need a full free-variable scan, and the subset this compiles
// (arithmetic/control/property/call-heavy code) rarely needs it. A body
// that does reference `arguments` still runs correctly on the tree
// walker, since TryCompile only swaps a function over once compilation
// fully succeeds — this is a capability gap, not a silent miscompile.
func TryCompile(name string, params []ast.Pattern, body *ast.BlockStatement, closureEnv gc.Handle, isArrow bool) (*CompiledFunction, error) {
	names := make([]string, 0, len(params))
	for _, p := range params {
		id, ok := p.(*ast.IdentifierPattern)
		if !ok {
			return nil, unsupported("non-identifier parameter in %q", name)
		}
		names = append(names, id.Name)
	}
	chunk, err := Compile(name, names, body)
	if err != nil {
		return nil, err
	}
	return &CompiledFunction{Chunk: chunk, ParamNames: names, ClosureEnv: closureEnv, IsArrow: isArrow}, nil
}

// Run re-enters a compiled chunk, called back from interp.Interpreter.Call
// for a FunctionData whose Compiled field is this CompiledFunction.
func (cf *CompiledFunction) Run(it *interp.Interpreter, this value.Value, args []value.Value) (value.Value, error) {
	done, err := it.EnterCall(cf.Chunk.Func.Name)
	if err != nil {
		return value.Undef, it.JSErrToThrow(err)
	}
	defer done()

	g := it.PushGuard()
	defer it.PopGuard()

	closure := env.Env{Handle: cf.ClosureEnv}
	callEnv := env.New(it.Heap_, g, closure)

	for i, name := range cf.ParamNames {
		v := value.Undef
		if i < len(args) {
			v = args[i]
		}
		if derr := callEnv.Define(it.Heap_, name, v, true, true); derr != nil {
			return value.Undef, it.JSErrToThrow(derr)
		}
	}
	if !cf.IsArrow {
		if derr := callEnv.Define(it.Heap_, "this", this, false, true); derr != nil {
			return value.Undef, it.JSErrToThrow(derr)
		}
	}

	m := newVM(it, cf.Chunk, callEnv)
	return m.run()
}
