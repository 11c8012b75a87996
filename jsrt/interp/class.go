package interp

import (
	"github.com/joeycumines/jsrt/ast"
	"github.com/joeycumines/jsrt/env"
	"github.com/joeycumines/jsrt/gc"
	"github.com/joeycumines/jsrt/value"
)

// evalClass implements the class evaluation: build a
// constructor Function, wire up the prototype chain for `extends`, install
// methods on the prototype and static members on the constructor itself,
// and apply any decorators (a reduced, ES2022-stage-3-shaped subset: each
// decorator is called as `decorator(value, context)` and may return a
// replacement value; field/accessor `addInitializer` is not implemented).
func (it *Interpreter) evalClass(name string, superClassExpr ast.Expression, members []ast.ClassMember, decorators []ast.Expression, scope env.Env) (value.Value, error) {
	var superCtor value.Value

	classEnv := env.New(it.Heap_, it.Guard(), scope)
	it.declareClassPrivateNames(members, classEnv)

	hasSuper := superClassExpr != nil
	if hasSuper {
		sv, err := it.evalExpr(superClassExpr, scope)
		if err != nil {
			return value.Undef, err
		}
		superCtor = sv
	}

	protoObj := value.NewOrdinary()
	if hasSuper {
		if superCtor.IsObject() {
			superProtoVal := it.getProperty(it.Object(superCtor.AsObject()), value.NewStringKey(it.Intern_, "prototype"))
			if superProtoVal.IsObject() {
				protoObj.SetProto(superProtoVal.AsObject())
			} else if superCtor.IsNull() {
				protoObj.SetNullProto()
			}
		}
	} else {
		protoObj.SetProto(it.Intrinsics.ObjectProto)
	}
	protoHandle := it.Heap_.Alloc(it.Guard(), protoObj)
	protoVal := value.NewObject(protoHandle)

	var ctorMember *ast.ClassMember
	var instanceFields []ast.ClassMember
	for i := range members {
		m := &members[i]
		if m.Kind == "constructor" {
			ctorMember = m
			continue
		}
		if m.Kind == "field" && !m.Static {
			instanceFields = append(instanceFields, *m)
		}
	}

	var ctorFn value.Value
	if ctorMember != nil {
		fe := ctorMember.Value.(*ast.FunctionExpression)
		ctorFn = it.makeFunction(name, fe.Params, fe.Body, classEnv, false, false, false, protoHandle)
	} else {
		body := &ast.BlockStatement{}
		if hasSuper {
			body.Body = []ast.Statement{&ast.ExpressionStatement{Expr: &ast.CallExpression{
				Callee: &ast.SuperExpression{},
				Arguments: []ast.Expression{&ast.SpreadElement{Argument: &ast.Identifier{Name: "arguments"}}},
			}}}
		}
		ctorFn = it.makeFunction(name, nil, body, classEnv, false, false, false, protoHandle)
	}
	ctorObj := it.Object(ctorFn.AsObject())
	ctorHandle := ctorFn.AsObject()

	if hasSuper {
		ctorObj.Function.HomeObject = protoHandle
		if superCtor.IsObject() {
			ctorObj.SetProto(superCtor.AsObject())
		}
		_ = classEnv.Define(it.Heap_, "%superclass%", superCtor, false, true)
	} else {
		ctorObj.SetProto(it.Intrinsics.FunctionProto)
	}
	_ = classEnv.Define(it.Heap_, name, ctorFn, false, true)

	it.defineDataProp(ctorObj, "prototype", protoVal, false, false, false)
	it.defineDataProp(protoObj, "constructor", ctorFn, true, false, true)
	it.defineDataProp(ctorObj, "name", it.stringValue(name), false, false, true)

	it.classFieldInits[ctorHandle] = instanceFields
	it.classFieldEnvs[ctorHandle] = classEnv

	for i := range members {
		m := &members[i]
		if m.Kind == "constructor" || m.Kind == "field" {
			continue
		}
		target := protoObj
		targetHandle := protoHandle
		if m.Static {
			target = ctorObj
			targetHandle = ctorHandle
		}
		key, err := it.evalPropertyKey(m.Key, classMemberComputed(m), classEnv)
		if err != nil {
			return value.Undef, err
		}
		fe, _ := m.Value.(*ast.FunctionExpression)
		if fe == nil {
			continue
		}
		methodFn := it.makeFunction(methodDebugName(m.Key), fe.Params, fe.Body, classEnv, false, fe.Generator, fe.Async, targetHandle)
		methodVal, derr := it.applyMemberDecorators(m.Decorators, methodFn, m, classEnv)
		if derr != nil {
			return value.Undef, derr
		}
		switch m.Kind {
		case "get":
			existing, _ := target.GetOwn(key)
			p := existing
			p.Enumerable, p.Configurable = false, true
			p.HasGet, p.Get = true, methodVal.AsObject()
			target.DefineOwn(key, p)
		case "set":
			existing, _ := target.GetOwn(key)
			p := existing
			p.Enumerable, p.Configurable = false, true
			p.HasSet, p.Set = true, methodVal.AsObject()
			target.DefineOwn(key, p)
		default:
			target.DefineOwn(key, value.Property{Val: methodVal, Writable: true, Enumerable: false, Configurable: true})
		}
	}

	// Static fields run immediately, `this` bound to the constructor itself.
	for i := range members {
		m := &members[i]
		if m.Kind != "field" || !m.Static {
			continue
		}
		key, err := it.evalPropertyKey(m.Key, classMemberComputed(m), classEnv)
		if err != nil {
			return value.Undef, err
		}
		fieldEnv := env.New(it.Heap_, it.Guard(), classEnv)
		_ = fieldEnv.Define(it.Heap_, "this", ctorFn, false, true)
		var v value.Value
		if m.Value != nil {
			fv, ferr := it.evalExpr(m.Value, fieldEnv)
			if ferr != nil {
				return value.Undef, ferr
			}
			v = fv
		}
		ctorObj.DefineOwn(key, value.Property{Val: v, Writable: true, Enumerable: true, Configurable: true})
	}

	result, derr := it.applyClassDecorators(decorators, ctorFn, classEnv)
	if derr != nil {
		return value.Undef, derr
	}
	return result, nil
}

func classMemberComputed(m *ast.ClassMember) bool {
	_, isPrivate := m.Key.(*ast.PrivateName)
	if isPrivate {
		return false
	}
	if _, isIdent := m.Key.(*ast.Identifier); isIdent {
		return false
	}
	return true
}

// privateBindingName is the hidden classEnv binding a class's own private
// name declaration is registered under — "%private#"+name+"%" rather than
// the bare "#"+name a user program could never shadow anyway (identifiers
// can't start with '#' outside a PrivateName token), chosen only to keep
// it visually distinct from "%superclass%"/"%home%" in a debugger dump.
func privateBindingName(name string) string { return "%private#" + name + "%" }

// privateNameKey resolves a #name reference to the Symbol-keyed
// PropertyKey its nearest enclosing class declared, implementing real
// per-class brands: two classes declaring the same #name get distinct
// Symbols, so neither this module's own GetProperty/SetProperty brand
// check (props.go) nor a plain obj["#name"] bracket access can cross
// between them. A #name with no enclosing declaration (not reachable
// through any valid parse, but guarded here rather than assumed) throws
// the same SyntaxError a parser would have caught earlier.
func (it *Interpreter) privateNameKey(name string, scope env.Env) (value.PropertyKey, error) {
	v, err := scope.Get(it.Heap_, privateBindingName(name), false)
	if err != nil || !v.IsSymbol() {
		return value.PropertyKey{}, it.ThrowValue(it.errorValue("SyntaxError", "Private field '#%s' must be declared in an enclosing class", name))
	}
	return value.NewSymbolKey(v.AsSymbol()), nil
}

// declareClassPrivateNames scans every member key for a PrivateName and
// defines one fresh brand Symbol per distinct name in classEnv, before any
// method/field body is evaluated — methods close over classEnv, so every
// #name access anywhere in the class body (including nested arrow
// functions) resolves through the same binding via privateNameKey.
func (it *Interpreter) declareClassPrivateNames(members []ast.ClassMember, classEnv env.Env) {
	seen := map[string]bool{}
	for i := range members {
		pn, ok := members[i].Key.(*ast.PrivateName)
		if !ok || seen[pn.Name] {
			continue
		}
		seen[pn.Name] = true
		sym := value.NewPrivateSymbol(pn.Name)
		_ = classEnv.Define(it.Heap_, privateBindingName(pn.Name), value.NewSymbolValue(sym), false, true)
	}
}

func methodDebugName(key ast.Node) string {
	switch k := key.(type) {
	case *ast.Identifier:
		return k.Name
	case *ast.PrivateName:
		return "#" + k.Name
	}
	return ""
}

// runInstanceFieldInits installs instance fields on a freshly constructed
// `this`,.2: runs in constructor-declaration order. Construct calls it
// before the constructor body runs, for base and derived classes alike.
func (it *Interpreter) runInstanceFieldInits(ctorHandle gc.Handle, thisVal value.Value) error {
	fields, ok := it.classFieldInits[ctorHandle]
	if !ok {
		return nil
	}
	classEnv := it.classFieldEnvs[ctorHandle]
	for _, m := range fields {
		key, err := it.evalPropertyKey(m.Key, classMemberComputed(&m), classEnv)
		if err != nil {
			return err
		}
		fieldEnv := env.New(it.Heap_, it.Guard(), classEnv)
		_ = fieldEnv.Define(it.Heap_, "this", thisVal, false, true)
		var v value.Value
		if m.Value != nil {
			fv, ferr := it.evalExpr(m.Value, fieldEnv)
			if ferr != nil {
				return ferr
			}
			v = fv
		}
		obj := it.Object(thisVal.AsObject())
		enumerable := !m.Private
		obj.DefineOwn(key, value.Property{Val: v, Writable: true, Enumerable: enumerable, Configurable: true})
	}
	return nil
}

// applyMemberDecorators implements the reduced method/field decorator
// subset: each decorator in source order is called with (value, context)
// where context is a plain object {kind, name, static, private}; a
// non-undefined return value replaces the member.
func (it *Interpreter) applyMemberDecorators(decorators []ast.Expression, v value.Value, m *ast.ClassMember, scope env.Env) (value.Value, error) {
	if len(decorators) == 0 {
		return v, nil
	}
	ctx := value.NewOrdinary()
	ctx.SetProto(it.Intrinsics.ObjectProto)
	ch := it.Heap_.Alloc(it.Guard(), ctx)
	it.defineDataProp(ctx, "kind", it.stringValue(m.Kind), true, true, true)
	it.defineDataProp(ctx, "name", it.stringValue(methodDebugName(m.Key)), true, true, true)
	it.defineDataProp(ctx, "static", value.NewBool(m.Static), true, true, true)
	it.defineDataProp(ctx, "private", value.NewBool(m.Private), true, true, true)

	cur := v
	for _, decExpr := range decorators {
		dec, err := it.evalExpr(decExpr, scope)
		if err != nil {
			return value.Undef, err
		}
		if !dec.IsObject() {
			continue
		}
		res, cerr := it.Call(dec, value.Undef, []value.Value{cur, value.NewObject(ch)})
		if cerr != nil {
			return value.Undef, cerr
		}
		if !res.IsUndefined() {
			cur = res
		}
	}
	return cur, nil
}

func (it *Interpreter) applyClassDecorators(decorators []ast.Expression, v value.Value, scope env.Env) (value.Value, error) {
	if len(decorators) == 0 {
		return v, nil
	}
	ctx := value.NewOrdinary()
	ctx.SetProto(it.Intrinsics.ObjectProto)
	ch := it.Heap_.Alloc(it.Guard(), ctx)
	it.defineDataProp(ctx, "kind", it.stringValue("class"), true, true, true)

	cur := v
	for _, decExpr := range decorators {
		dec, err := it.evalExpr(decExpr, scope)
		if err != nil {
			return value.Undef, err
		}
		if !dec.IsObject() {
			continue
		}
		res, cerr := it.Call(dec, value.Undef, []value.Value{cur, value.NewObject(ch)})
		if cerr != nil {
			return value.Undef, cerr
		}
		if !res.IsUndefined() {
			cur = res
		}
	}
	return cur, nil
}
