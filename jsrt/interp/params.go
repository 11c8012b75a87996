package interp

import (
	"github.com/joeycumines/jsrt/ast"
	"github.com/joeycumines/jsrt/env"
	"github.com/joeycumines/jsrt/value"
)

// bindParams implements the parameter binding: positional
// params (with defaults/destructuring) followed by an optional rest
// element collecting the remainder into an array.
func (it *Interpreter) bindParams(params []value.ParamSpec, args []value.Value, scope env.Env) error {
	i := 0
	for _, p := range params {
		if p.Rest {
			rest := make([]value.Value, 0, len(args)-i)
			if i < len(args) {
				rest = append(rest, args[i:]...)
			}
			pat, _ := p.Pattern.(Pattern)
			if err := it.declarePattern(pat, it.newArray(rest), scope, false, false); err != nil {
				return err
			}
			i = len(args)
			continue
		}
		var v value.Value
		if i < len(args) {
			v = args[i]
		}
		i++
		if v.IsUndefined() && p.Default != nil {
			dv, err := it.evalExpr(p.Default.(Expression), scope)
			if err != nil {
				return err
			}
			v = dv
		}
		pat, _ := p.Pattern.(Pattern)
		if pat == nil {
			continue
		}
		if err := it.declarePattern(pat, v, scope, false, false); err != nil {
			return err
		}
	}
	return nil
}

func (it *Interpreter) newArray(items []value.Value) value.Value {
	obj := value.NewOrdinary()
	obj.Exotic = value.ArrayKind
	obj.Array = &value.ArrayData{}
	obj.SetProto(it.Intrinsics.ArrayProto)
	h := it.Heap_.Alloc(it.Guard(), obj)
	for i, v := range items {
		obj.DefineOwn(value.NewIndexKey(uint32(i)), value.Property{Val: v, Writable: true, Enumerable: true, Configurable: true})
	}
	obj.Array.Length = uint32(len(items))
	return value.NewObject(h)
}

// declarePattern implements the destructuring as used for
// declarations: a fresh binding per identifier, nested patterns
// recursing. isConst propagates `const` immutability to every identifier
// the pattern introduces. init selects which half of the TDZ protocol
// applies: false binds into a scope with no pre-existing binding for the
// name (function parameters, catch parameters, for-of/for-in per-
// iteration bindings — scopes freshly created with nothing executing in
// them yet); true initializes a binding hoistLexical already pre-
// declared uninitialized (a `let`/`const` statement's own declaration,
// per §4.4: "let and const create bindings with initialized = false ...
// the corresponding declaration statement later merely assigns").
func (it *Interpreter) declarePattern(p Pattern, v value.Value, scope env.Env, isConst, init bool) error {
	switch pt := p.(type) {
	case *ast.IdentifierPattern:
		if init && scope.HasOwn(it.Heap_, pt.Name) {
			// The common case: hoistLexical already pre-declared this
			// name as an uninitialized (TDZ) binding when scope was
			// entered. A scope built without that pre-pass (e.g. a
			// `for (let i = ...)` init, whose loopScope is fresh with
			// nothing hoisted into it) has no such binding to
			// initialize, so fall back to defining it outright —
			// equivalent here since nothing can have observed the name
			// before this point either way.
			return scope.Initialize(it.Heap_, pt.Name, v)
		}
		return scope.Define(it.Heap_, pt.Name, v, !isConst, true)

	case *ast.AssignmentPattern:
		if v.IsUndefined() {
			dv, err := it.evalExpr(pt.Default, scope)
			if err != nil {
				return err
			}
			v = dv
		}
		return it.declarePattern(pt.Left, v, scope, isConst, init)

	case *ast.ObjectPattern:
		return it.declareObjectPattern(pt, v, scope, isConst, init)

	case *ast.ArrayPattern:
		return it.declareArrayPattern(pt, v, scope, isConst, init)

	case *ast.RestPattern:
		return it.declarePattern(pt.Argument, v, scope, isConst, init)
	}
	return internalBug("declarePattern: unhandled pattern %T", p)
}

func (it *Interpreter) declareObjectPattern(pt *ast.ObjectPattern, v value.Value, scope env.Env, isConst, init bool) error {
	if !v.IsObject() {
		if v.IsNullish() {
			return it.ThrowValue(it.newTypeError("Cannot destructure %s", value.TypeOf(v)))
		}
	}
	extracted := map[string]bool{}
	for _, prop := range pt.Props {
		key, err := it.evalPropertyKey(prop.Key, prop.Computed, scope)
		if err != nil {
			return err
		}
		extracted[key.String()] = true
		pv, perr := it.readPropertyFrom(v, key)
		if perr != nil {
			return perr
		}
		if err := it.declarePattern(prop.Value, pv, scope, isConst, init); err != nil {
			return err
		}
	}
	if pt.Rest != nil {
		rest := value.NewOrdinary()
		rest.SetProto(it.Intrinsics.ObjectProto)
		h := it.Heap_.Alloc(it.Guard(), rest)
		if v.IsObject() {
			obj := it.Object(v.AsObject())
			for _, k := range obj.OwnKeys() {
				if extracted[k.String()] {
					continue
				}
				p, _ := obj.GetOwn(k)
				if !p.Enumerable {
					continue
				}
				rest.DefineOwn(k, value.Property{Val: it.getProperty(obj, k), Writable: true, Enumerable: true, Configurable: true})
			}
		}
		if err := it.declarePattern(pt.Rest, value.NewObject(h), scope, isConst, init); err != nil {
			return err
		}
	}
	return nil
}

func (it *Interpreter) readPropertyFrom(v value.Value, key value.PropertyKey) (value.Value, error) {
	if !v.IsObject() {
		if v.IsNullish() {
			return value.Undef, it.ThrowValue(it.newTypeError("Cannot destructure %s", value.TypeOf(v)))
		}
		proto := it.boxedProto(v)
		if proto == nil {
			return value.Undef, nil
		}
		return it.getProperty(proto, key), nil
	}
	return it.GetProperty(v.AsObject(), key)
}

func (it *Interpreter) declareArrayPattern(pt *ast.ArrayPattern, v value.Value, scope env.Env, isConst, init bool) error {
	iter, err := it.getIterator(v, false)
	if err != nil {
		return err
	}
	defer it.iteratorClose(iter)

	for _, el := range pt.Elements {
		item, done, nerr := it.iteratorNext(iter, value.Undef, false)
		if nerr != nil {
			return nerr
		}
		if el == nil {
			continue // hole: advance iterator without binding
		}
		if done {
			item = value.Undef
		}
		if err := it.declarePattern(el, item, scope, isConst, init); err != nil {
			return err
		}
	}
	if pt.Rest != nil {
		var rest []value.Value
		for {
			item, done, nerr := it.iteratorNext(iter, value.Undef, false)
			if nerr != nil {
				return nerr
			}
			if done {
				break
			}
			rest = append(rest, item)
		}
		if err := it.declarePattern(pt.Rest, it.newArray(rest), scope, isConst, init); err != nil {
			return err
		}
	}
	return nil
}

// assignPattern implements the destructuring as used for
// plain assignment (not declaration): the same engine, re-targeted to
// existing bindings/members instead of fresh ones.
func (it *Interpreter) assignPattern(p Pattern, v value.Value, scope env.Env) error {
	switch pt := p.(type) {
	case *ast.IdentifierPattern:
		return it.jsErrToThrowIfErr(scope.Set(it.Heap_, pt.Name, v))

	case *ast.AssignmentPattern:
		if v.IsUndefined() {
			dv, err := it.evalExpr(pt.Default, scope)
			if err != nil {
				return err
			}
			v = dv
		}
		return it.assignPattern(pt.Left, v, scope)

	case *ast.ObjectPattern:
		return it.assignObjectPattern(pt, v, scope)

	case *ast.ArrayPattern:
		return it.assignArrayPattern(pt, v, scope)

	case *ast.RestPattern:
		return it.assignPattern(pt.Argument, v, scope)
	}
	return internalBug("assignPattern: unhandled pattern %T", p)
}

func (it *Interpreter) jsErrToThrowIfErr(err error) error {
	if err == nil {
		return nil
	}
	return it.jsErrToThrow(err)
}

func (it *Interpreter) assignObjectPattern(pt *ast.ObjectPattern, v value.Value, scope env.Env) error {
	extracted := map[string]bool{}
	for _, prop := range pt.Props {
		key, err := it.evalPropertyKey(prop.Key, prop.Computed, scope)
		if err != nil {
			return err
		}
		extracted[key.String()] = true
		pv, perr := it.readPropertyFrom(v, key)
		if perr != nil {
			return perr
		}
		if err := it.assignPattern(prop.Value, pv, scope); err != nil {
			return err
		}
	}
	if pt.Rest != nil {
		rest := value.NewOrdinary()
		rest.SetProto(it.Intrinsics.ObjectProto)
		h := it.Heap_.Alloc(it.Guard(), rest)
		if v.IsObject() {
			obj := it.Object(v.AsObject())
			for _, k := range obj.OwnKeys() {
				if extracted[k.String()] {
					continue
				}
				p, _ := obj.GetOwn(k)
				if !p.Enumerable {
					continue
				}
				rest.DefineOwn(k, value.Property{Val: it.getProperty(obj, k), Writable: true, Enumerable: true, Configurable: true})
			}
		}
		if err := it.assignPattern(pt.Rest, value.NewObject(h), scope); err != nil {
			return err
		}
	}
	return nil
}

func (it *Interpreter) assignArrayPattern(pt *ast.ArrayPattern, v value.Value, scope env.Env) error {
	iter, err := it.getIterator(v, false)
	if err != nil {
		return err
	}
	defer it.iteratorClose(iter)

	for _, el := range pt.Elements {
		item, done, nerr := it.iteratorNext(iter, value.Undef, false)
		if nerr != nil {
			return nerr
		}
		if el == nil {
			continue
		}
		if done {
			item = value.Undef
		}
		if err := it.assignPattern(el, item, scope); err != nil {
			return err
		}
	}
	if pt.Rest != nil {
		var rest []value.Value
		for {
			item, done, nerr := it.iteratorNext(iter, value.Undef, false)
			if nerr != nil {
				return nerr
			}
			if done {
				break
			}
			rest = append(rest, item)
		}
		if err := it.assignPattern(pt.Rest, it.newArray(rest), scope); err != nil {
			return err
		}
	}
	return nil
}
