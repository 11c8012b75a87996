// Package hostjs is an optional embedding shim pairing a jsrt Runtime with a
// github.com/dop251/goja Runtime, so a host can run the same source through
// both engines and compare results — differential testing of builtin
// semantics (Math, JSON, Array) that jsrt/builtins implements by hand and
// goja implements independently. Nothing in the root jsrt package or
// jsrt/interp imports this package; a host opts in only when it wants the
// comparison.
//
// The wrapper shape and its nil-checked constructor follow
// goja-eventloop.Adapter: two already-constructed engines handed in, held
// alongside each other, with accessors rather than exposing the fields.
package hostjs

import (
	"fmt"
	"reflect"

	"github.com/dop251/goja"

	"github.com/joeycumines/jsrt"
	"github.com/joeycumines/jsrt/ast"
	"github.com/joeycumines/jsrt/value"
)

// Runtime pairs a jsrt Runtime with a goja Runtime for differential
// evaluation. It does not synchronize globals between the two engines;
// callers that want shared bindings install them on each engine themselves.
type Runtime struct {
	jsrt *jsrt.Runtime
	goja *goja.Runtime
}

// New pairs an already-constructed jsrt Runtime with an already-constructed
// goja Runtime. Both must be non-nil.
func New(jr *jsrt.Runtime, gr *goja.Runtime) (*Runtime, error) {
	if jr == nil {
		return nil, fmt.Errorf("hostjs: nil jsrt.Runtime")
	}
	if gr == nil {
		return nil, fmt.Errorf("hostjs: nil goja.Runtime")
	}
	return &Runtime{jsrt: jr, goja: gr}, nil
}

// Jsrt returns the wrapped jsrt Runtime.
func (r *Runtime) Jsrt() *jsrt.Runtime { return r.jsrt }

// Goja returns the wrapped goja Runtime.
func (r *Runtime) Goja() *goja.Runtime { return r.goja }

// ToGoja converts a jsrt value.Value produced by the wrapped jsrt Runtime
// into a goja.Value in the wrapped goja Runtime, via value.ToGoja.
func (r *Runtime) ToGoja(v value.Value) (goja.Value, error) {
	return value.ToGoja(r.jsrt.Host(), r.goja, v)
}

// FromGoja converts a goja.Value from the wrapped goja Runtime into a jsrt
// value.Value usable with the wrapped jsrt Runtime, via value.FromGoja.
func (r *Runtime) FromGoja(gv goja.Value) (value.Value, error) {
	return value.FromGoja(r.jsrt.Host(), gv)
}

// Diff runs source as a complete program through both engines and reports
// whether they agree. It requires the wrapped jsrt Runtime to have a Parser
// configured (jsrt.WithParser) and source to run to completion without
// suspending on an import or an outstanding order — Diff is for comparing
// synchronous builtin expressions/statements, not scheduling module graphs.
func (r *Runtime) Diff(source string) (*DiffResult, error) {
	res, err := r.jsrt.Prepare(source, "<hostjs-diff>")
	if err != nil {
		return nil, fmt.Errorf("hostjs: jsrt Prepare: %w", err)
	}
	for res.Kind == jsrt.Continue {
		res, err = r.jsrt.Step()
		if err != nil {
			return nil, fmt.Errorf("hostjs: jsrt Step: %w", err)
		}
	}
	if res.Kind != jsrt.Complete {
		return nil, fmt.Errorf("hostjs: jsrt evaluation did not complete (got %v)", res.Kind)
	}

	out := &DiffResult{Source: source, JsrtValue: res.Value}

	gv, gerr := r.goja.RunString(source)
	if gerr != nil {
		out.GojaError = gerr
		return out, nil
	}
	out.GojaValue = gv

	jsrtNative, err := r.ToGoja(res.Value)
	if err != nil {
		return nil, fmt.Errorf("hostjs: converting jsrt result for comparison: %w", err)
	}
	out.Match = reflect.DeepEqual(jsrtNative.Export(), gv.Export())
	return out, nil
}

// DiffProgram is Diff for a caller that already has a parsed jsrt Program
// (built by hand, or by a front end that only produces ast nodes rather
// than source text) plus the equivalent source text for goja, which has no
// such bypass. jsrtName is used only as the program's diagnostic name.
func (r *Runtime) DiffProgram(jsrtName string, prog *ast.Program, gojaSource string) (*DiffResult, error) {
	res := r.jsrt.PrepareProgram(jsrtName, prog)
	var err error
	for res.Kind == jsrt.Continue {
		res, err = r.jsrt.Step()
		if err != nil {
			return nil, fmt.Errorf("hostjs: jsrt Step: %w", err)
		}
	}
	if res.Kind != jsrt.Complete {
		return nil, fmt.Errorf("hostjs: jsrt evaluation did not complete (got %v)", res.Kind)
	}

	out := &DiffResult{Source: gojaSource, JsrtValue: res.Value}

	gv, gerr := r.goja.RunString(gojaSource)
	if gerr != nil {
		out.GojaError = gerr
		return out, nil
	}
	out.GojaValue = gv

	jsrtNative, err := r.ToGoja(res.Value)
	if err != nil {
		return nil, fmt.Errorf("hostjs: converting jsrt result for comparison: %w", err)
	}
	out.Match = reflect.DeepEqual(jsrtNative.Export(), gv.Export())
	return out, nil
}

// DiffResult is the outcome of running one source string through both
// engines. GojaError is set instead of GojaValue when goja rejected the
// source that jsrt accepted (or vice versa, surfaced by the caller's own
// earlier Prepare/Step error) — the two engines disagreeing on validity is
// itself a finding, not just a mismatched value.
type DiffResult struct {
	Source    string
	JsrtValue value.Value
	GojaValue goja.Value
	GojaError error
	Match     bool
}
