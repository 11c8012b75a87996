// Package interp implements /§4.6: the tree-walking
// interpreter, its Completion-based control model, and the call-dispatch
// rules of §4.5.1.
package interp

import "github.com/joeycumines/jsrt/value"

// CompletionKind tags a statement's result,.5/§GLOSSARY.
type CompletionKind uint8

const (
	Normal CompletionKind = iota
	Break
	Continue
	Return
	Throw
	YieldCompletion
)

// Completion is a statement's result. Label is set for labeled
// break/continue; Value carries the payload for Return/Throw/Yield.
type Completion struct {
	Kind CompletionKind
	Value value.Value
	Label string
}

func normal(v value.Value) Completion { return Completion{Kind: Normal, Value: v} }

// IsAbrupt reports whether c is anything other than Normal — the usual
// "unwind intervening statements" trigger.
func (c Completion) IsAbrupt() bool { return c.Kind != Normal }

// optionalChainShortCircuit is the "dedicated completion that
// short-circuits only the enclosing ?. chain". It is carried as a Go
// error so evalExpr's ordinary error-return plumbing transports it, and
// is converted back to Normal(Undefined) at the chain's exit — it must
// never escape further, per this module's "carefully policed invariant".
type optionalChainShortCircuit struct{}

func (optionalChainShortCircuit) Error() string { return "optional chain short-circuit" }

// controlSignal carries Break/Continue/Return/Throw/Yield through Go's
// error-return path when evaluating inside an expression context (e.g. a
// generator body's yield reaching up through nested expression
// evaluation). jsrt/interp's statement executor unwraps these at the
// right frame; they must never reach a NativeFunc as a Go error.
type controlSignal struct {
	c Completion
}

func (controlSignal) Error() string { return "control signal" }

func signal(c Completion) error { return controlSignal{c: c} }

// asControlSignal extracts a Completion from err if it is a control
// signal, for callers (loops, try/finally, call frames) that must
// intercept Break/Continue/Return/Yield before they unwind past their
// boundary.
func asControlSignal(err error) (Completion, bool) {
	if cs, ok := err.(controlSignal); ok {
		return cs.c, true
	}
	return Completion{}, false
}
