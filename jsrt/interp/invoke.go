package interp

import (
	"github.com/joeycumines/jsrt/ast"
	"github.com/joeycumines/jsrt/env"
	"github.com/joeycumines/jsrt/value"
)

// evalCallee resolves a call expression's callee and `this` binding:
// a MemberExpression call binds `this` to the object the member was read
// from (the "resolve callee, this, arguments"); any other
// callee form binds `this` to Undefined.
func (it *Interpreter) evalCallee(callee Expression, scope env.Env) (value.Value, value.Value, error) {
	if mem, ok := callee.(*ast.MemberExpression); ok {
		fn, recv, _, err := it.evalMember(mem, scope)
		if err != nil {
			return value.Undef, value.Undef, err
		}
		return fn, recv, nil
	}
	fn, err := it.evalExpr(callee, scope)
	if err != nil {
		return value.Undef, value.Undef, err
	}
	return fn, value.Undef, nil
}

// evalArgs resolves a call/new argument list, draining SpreadElement
// entries via the iterator protocol.
func (it *Interpreter) evalArgs(args []Expression, scope env.Env) ([]value.Value, error) {
	out := make([]value.Value, 0, len(args))
	for _, a := range args {
		if sp, ok := a.(*ast.SpreadElement); ok {
			v, err := it.evalExpr(sp.Argument, scope)
			if err != nil {
				return nil, err
			}
			items, ierr := it.iterableToSlice(v)
			if ierr != nil {
				return nil, ierr
			}
			out = append(out, items...)
			continue
		}
		v, err := it.evalExpr(a, scope)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

func (it *Interpreter) evalCall(ex *ast.CallExpression, scope env.Env) (value.Value, error) {
	if _, ok := ex.Callee.(*ast.SuperExpression); ok {
		return it.evalSuperCall(ex, scope)
	}

	fn, this, err := it.evalCallee(ex.Callee, scope)
	if err != nil {
		return value.Undef, err
	}
	if ex.Optional && fn.IsNullish() {
		return value.Undef, optionalChainShortCircuit{}
	}
	// An optional member link earlier in the chain (`a?.b.c`) already
	// short-circuited via evalMember; a plain nullish non-optional callee
	// here is a hard TypeError.
	if !fn.IsObject() {
		return value.Undef, it.ThrowValue(it.newTypeError("%s is not a function", calleeDebugName(ex.Callee)))
	}

	args, aerr := it.evalArgs(ex.Arguments, scope)
	if aerr != nil {
		return value.Undef, aerr
	}
	it.SetCallSite(ex.Pos())
	return it.Call(fn, this, args)
}

func calleeDebugName(e Expression) string {
	switch c := e.(type) {
	case *ast.Identifier:
		return c.Name
	case *ast.MemberExpression:
		if id, ok := c.Property.(*ast.Identifier); ok && !c.Computed {
			return id.Name
		}
	}
	return "value"
}

func (it *Interpreter) evalNew(ex *ast.NewExpression, scope env.Env) (value.Value, error) {
	callee, err := it.evalExpr(ex.Callee, scope)
	if err != nil {
		return value.Undef, err
	}
	args, aerr := it.evalArgs(ex.Arguments, scope)
	if aerr != nil {
		return value.Undef, aerr
	}
	it.SetCallSite(ex.Pos())
	return it.Construct(callee, args)
}

// evalSuperCall implements `super(...)` inside a derived class
// constructor: call the superclass constructor with the current
// new.target's instance as `this`,.
func (it *Interpreter) evalSuperCall(ex *ast.CallExpression, scope env.Env) (value.Value, error) {
	superCtorVal, err := scope.Get(it.Heap_, "%superclass%", false)
	if err != nil || !superCtorVal.IsObject() {
		return value.Undef, it.ThrowValue(it.newTypeError("'super' keyword is only valid inside a derived class constructor"))
	}
	thisVal, terr := scope.Get(it.Heap_, "this", false)
	if terr != nil {
		return value.Undef, it.jsErrToThrow(terr)
	}
	args, aerr := it.evalArgs(ex.Arguments, scope)
	if aerr != nil {
		return value.Undef, aerr
	}
	_, cerr := it.Call(superCtorVal, thisVal, args)
	return value.Undef, cerr
}
