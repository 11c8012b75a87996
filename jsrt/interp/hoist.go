package interp

import (
	"github.com/joeycumines/jsrt/ast"
	"github.com/joeycumines/jsrt/env"
	"github.com/joeycumines/jsrt/value"
)

// hoist implements the var/function/lexical hoisting: every `var` name
// in body is pre-created as an initialized Undefined binding, every
// function declaration is installed (in source order, later wins) before
// any statement executes, and every `let`/`const`/class name declared
// directly in body (not inside a nested block/loop/function, which owns
// its own scope and hoist pass) is pre-created as an uninitialized
// binding — TDZ, per §4.4: "let and const create bindings with
// initialized = false; any get or set before the initializer runs fails
// with a ReferenceError". isFunctionOrScriptScope distinguishes the
// top-level/function boundary (where var hoists to) from a nested block.
func (it *Interpreter) hoist(body []Statement, e env.Env, isFunctionOrScriptScope bool) {
	if isFunctionOrScriptScope {
		it.hoistVars(body, e)
	}
	it.hoistLexical(body, e)
	for _, stmt := range body {
		if fd, ok := stmt.(*ast.FunctionDeclaration); ok {
			fn := it.makeFunction(fd.Name, fd.Params, fd.Body, e, false, fd.Generator, fd.Async, gcNilHandle)
			if e.HasOwn(it.Heap_, fd.Name) {
				_ = e.Set(it.Heap_, fd.Name, fn)
			} else {
				_ = e.Define(it.Heap_, fd.Name, fn, true, true)
			}
		}
	}
}

// hoistLexical pre-declares every let/const/class name appearing
// directly in body as an uninitialized binding (TDZ) so that, per
// §4.4, a reference to the name anywhere in the scope before its
// declaration statement runs — including inside a typeof expression,
// which does not suppress TDZ — observes the binding and throws
// ReferenceError rather than resolving to an outer scope's binding of
// the same name or reporting "undefined".
func (it *Interpreter) hoistLexical(body []Statement, e env.Env) {
	for _, stmt := range body {
		switch st := stmt.(type) {
		case *ast.VariableDeclaration:
			if st.Kind == ast.Var {
				continue
			}
			mutable := st.Kind != ast.Const
			for _, d := range st.Declarations {
				if p, ok := d.ID.(ast.Pattern); ok {
					it.declareUninitialized(p, e, mutable)
				}
			}
		case *ast.ClassDeclaration:
			if st.Name != "" {
				_ = e.Define(it.Heap_, st.Name, value.Undef, true, false)
			}
		}
	}
}

// declareUninitialized walks p the same way hoistVars' walkPattern does,
// pre-declaring every identifier it binds as an uninitialized binding.
func (it *Interpreter) declareUninitialized(p ast.Pattern, e env.Env, mutable bool) {
	switch pt := p.(type) {
	case *ast.IdentifierPattern:
		_ = e.Define(it.Heap_, pt.Name, value.Undef, mutable, false)
	case *ast.ObjectPattern:
		for _, prop := range pt.Props {
			it.declareUninitialized(prop.Value, e, mutable)
		}
		if pt.Rest != nil {
			it.declareUninitialized(pt.Rest, e, mutable)
		}
	case *ast.ArrayPattern:
		for _, el := range pt.Elements {
			if el != nil {
				it.declareUninitialized(el, e, mutable)
			}
		}
		if pt.Rest != nil {
			it.declareUninitialized(pt.Rest, e, mutable)
		}
	case *ast.AssignmentPattern:
		it.declareUninitialized(pt.Left, e, mutable)
	case *ast.RestPattern:
		it.declareUninitialized(pt.Argument, e, mutable)
	}
}

// hoistVars walks statements recursively (but does not descend into
// nested function bodies) collecting `var` names and pre-creating them
// as initialized Undefined bindings in e.
func (it *Interpreter) hoistVars(body []Statement, e env.Env) {
	var walk func(s Statement)
	declare := func(name string) {
		if !e.HasOwn(it.Heap_, name) {
			_ = e.Define(it.Heap_, name, value.Undef, true, true)
		}
	}
	var walkPattern func(p ast.Pattern)
	walkPattern = func(p ast.Pattern) {
		switch pt := p.(type) {
		case *ast.IdentifierPattern:
			declare(pt.Name)
		case *ast.ObjectPattern:
			for _, prop := range pt.Props {
				walkPattern(prop.Value)
			}
			if pt.Rest != nil {
				walkPattern(pt.Rest)
			}
		case *ast.ArrayPattern:
			for _, el := range pt.Elements {
				if el != nil {
					walkPattern(el)
				}
			}
			if pt.Rest != nil {
				walkPattern(pt.Rest)
			}
		case *ast.AssignmentPattern:
			walkPattern(pt.Left)
		case *ast.RestPattern:
			walkPattern(pt.Argument)
		}
	}
	walk = func(s Statement) {
		switch st := s.(type) {
		case *ast.VariableDeclaration:
			if st.Kind == ast.Var {
				for _, d := range st.Declarations {
					if p, ok := d.ID.(ast.Pattern); ok {
						walkPattern(p)
					}
				}
			}
		case *ast.BlockStatement:
			for _, ss := range st.Body {
				walk(ss)
			}
		case *ast.IfStatement:
			walk(st.Consequent)
			if st.Alternate != nil {
				walk(st.Alternate)
			}
		case *ast.ForStatement:
			if vd, ok := st.Init.(*ast.VariableDeclaration); ok {
				walk(vd)
			}
			walk(st.Body)
		case *ast.ForInStatement:
			if vd, ok := st.Left.(*ast.VariableDeclaration); ok {
				walk(vd)
			}
			walk(st.Body)
		case *ast.ForOfStatement:
			if vd, ok := st.Left.(*ast.VariableDeclaration); ok {
				walk(vd)
			}
			walk(st.Body)
		case *ast.WhileStatement:
			walk(st.Body)
		case *ast.DoWhileStatement:
			walk(st.Body)
		case *ast.TryStatement:
			walk(st.Block)
			if st.Handler != nil {
				walk(st.Handler.Body)
			}
			if st.Finalizer != nil {
				walk(st.Finalizer)
			}
		case *ast.SwitchStatement:
			for _, c := range st.Cases {
				for _, ss := range c.Consequent {
					walk(ss)
				}
			}
		case *ast.LabeledStatement:
			walk(st.Body)
		}
	}
	for _, s := range body {
		walk(s)
	}
}

var gcNilHandle = emptyHandle()
