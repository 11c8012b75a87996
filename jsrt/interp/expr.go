package interp

import (
	"math"

	"github.com/joeycumines/jsrt/ast"
	"github.com/joeycumines/jsrt/env"
	"github.com/joeycumines/jsrt/value"
)

// evalExpr evaluates e in scope and returns its value. Errors returned
// are either a controlSignal (a Throw or YieldCompletion propagating up
// through expression evaluation, or the optionalChainShortCircuit
// sentinel,.6) or a genuine internal error; callers that
// are not the matching optional-chain boundary must simply propagate
// whatever they receive.
func (it *Interpreter) evalExpr(e Expression, scope env.Env) (value.Value, error) {
	switch ex := e.(type) {
	case *ast.Literal:
		return it.evalLiteral(ex), nil

	case *ast.Identifier:
		v, err := scope.Get(it.Heap_, ex.Name, false)
		if err != nil {
			return value.Undef, it.jsErrToThrow(err)
		}
		return v, nil

	case *ast.ThisExpression:
		v, err := scope.Get(it.Heap_, "this", false)
		if err != nil {
			return value.Undef, nil // non-strict top level: undefined `this`
		}
		return v, nil

	case *ast.SuperExpression:
		return value.Undef, internalBug("bare `super` evaluated outside member/call context")

	case *ast.ParenthesizedExpression:
		return it.evalExpr(ex.Expression, scope)

	case *ast.TypeAssertionExpression:
		return it.evalExpr(ex.Argument, scope)

	case *ast.NonNullExpression:
		return it.evalExpr(ex.Argument, scope)

	case *ast.ArrayLiteral:
		return it.evalArrayLiteral(ex, scope)

	case *ast.ObjectLiteral:
		return it.evalObjectLiteral(ex, scope)

	case *ast.FunctionExpression:
		name := ex.Name
		fn := it.makeFunction(name, ex.Params, ex.Body, scope, false, ex.Generator, ex.Async, emptyHandle())
		if name != "" {
			// Named function expressions can refer to themselves.
			it.bindSelfName(fn, name, scope)
		}
		return fn, nil

	case *ast.ArrowFunctionExpression:
		return it.evalArrowFunction(ex, scope)

	case *ast.ClassExpression:
		return it.evalClass(ex.Name, ex.SuperClass, ex.Members, nil, scope)

	case *ast.TemplateLiteral:
		return it.evalTemplateLiteral(ex, scope)

	case *ast.TaggedTemplateExpression:
		return it.evalTaggedTemplate(ex, scope)

	case *ast.UnaryExpression:
		return it.evalUnary(ex, scope)

	case *ast.UpdateExpression:
		return it.evalUpdate(ex, scope)

	case *ast.BinaryExpression:
		return it.evalBinary(ex, scope)

	case *ast.LogicalExpression:
		return it.evalLogical(ex, scope)

	case *ast.ConditionalExpression:
		test, err := it.evalExpr(ex.Test, scope)
		if err != nil {
			return value.Undef, err
		}
		if value.ToBoolean(test) {
			return it.evalExpr(ex.Consequent, scope)
		}
		return it.evalExpr(ex.Alternate, scope)

	case *ast.AssignmentExpression:
		return it.evalAssignment(ex, scope)

	case *ast.SequenceExpression:
		var last value.Value
		for _, sub := range ex.Expressions {
			v, err := it.evalExpr(sub, scope)
			if err != nil {
				return value.Undef, err
			}
			last = v
		}
		return last, nil

	case *ast.MemberExpression:
		v, _, _, err := it.evalMember(ex, scope)
		return v, err

	case *ast.OptionalChainExpression:
		v, err := it.evalExpr(ex.Expression, scope)
		if err != nil {
			if _, ok := err.(optionalChainShortCircuit); ok {
				return value.Undef, nil
			}
			return value.Undef, err
		}
		return v, nil

	case *ast.CallExpression:
		v, err := it.evalCall(ex, scope)
		return v, err

	case *ast.NewExpression:
		return it.evalNew(ex, scope)

	case *ast.SpreadElement:
		return value.Undef, internalBug("bare SpreadElement evaluated outside array/call context")

	case *ast.YieldExpression:
		return it.evalYield(ex, scope)

	case *ast.AwaitExpression:
		return it.evalAwait(ex, scope)

	case *ast.PrivateName:
		return value.Undef, internalBug("bare PrivateName evaluated outside member context")
	}
	return value.Undef, internalBug("evalExpr: unhandled node %T", e)
}

func (it *Interpreter) evalLiteral(ex *ast.Literal) value.Value {
	switch v := ex.Value.(type) {
	case nil:
		return value.Nul
	case bool:
		return value.NewBool(v)
	case float64:
		return value.NewNumber(v)
	case string:
		return it.stringValue(v)
	default:
		return value.Undef
	}
}

func (it *Interpreter) bindSelfName(fn value.Value, name string, outer env.Env) {
	obj := it.Object(fn.AsObject())
	if obj == nil || obj.Function == nil {
		return
	}
	// Re-point the closure environment to a scope that also binds the
	// function's own name, so `function f{ return f; }` resolves.
	g := it.Guard()
	selfEnv := env.New(it.Heap_, g, outer)
	_ = selfEnv.Define(it.Heap_, name, fn, false, true)
	obj.Function.ClosureEnv = selfEnv.Handle
}

func (it *Interpreter) evalArrayLiteral(ex *ast.ArrayLiteral, scope env.Env) (value.Value, error) {
	obj := value.NewOrdinary()
	obj.Exotic = value.ArrayKind
	obj.Array = &value.ArrayData{}
	obj.SetProto(it.Intrinsics.ArrayProto)
	h := it.Heap_.Alloc(it.Guard(), obj)

	idx := uint32(0)
	for _, el := range ex.Elements {
		if el == nil {
			idx++ // hole: advances index, no own property installed
			continue
		}
		if sp, ok := el.(*ast.SpreadElement); ok {
			src, err := it.evalExpr(sp.Argument, scope)
			if err != nil {
				return value.Undef, err
			}
			items, err := it.iterableToSlice(src)
			if err != nil {
				return value.Undef, err
			}
			for _, v := range items {
				obj.DefineOwn(value.NewIndexKey(idx), value.Property{Val: v, Writable: true, Enumerable: true, Configurable: true})
				idx++
			}
			continue
		}
		v, err := it.evalExpr(el, scope)
		if err != nil {
			return value.Undef, err
		}
		obj.DefineOwn(value.NewIndexKey(idx), value.Property{Val: v, Writable: true, Enumerable: true, Configurable: true})
		idx++
	}
	if obj.Array.Length < idx {
		obj.Array.Length = idx
	}
	return value.NewObject(h), nil
}

func (it *Interpreter) evalObjectLiteral(ex *ast.ObjectLiteral, scope env.Env) (value.Value, error) {
	obj := value.NewOrdinary()
	obj.SetProto(it.Intrinsics.ObjectProto)
	h := it.Heap_.Alloc(it.Guard(), obj)
	objVal := value.NewObject(h)

	for _, prop := range ex.Properties {
		if prop.Kind == "spread" {
			src, err := it.evalExpr(prop.Value, scope)
			if err != nil {
				return value.Undef, err
			}
			if src.IsObject() {
				srcObj := it.Object(src.AsObject())
				for _, k := range srcObj.OwnKeys() {
					p, _ := srcObj.GetOwn(k)
					if !p.Enumerable {
						continue
					}
					v := p.Val
					if p.IsAccessor() {
						v = it.getProperty(srcObj, k)
					}
					obj.DefineOwn(k, value.Property{Val: v, Writable: true, Enumerable: true, Configurable: true})
				}
			}
			continue
		}

		key, err := it.evalPropertyKey(prop.Key, prop.Computed, scope)
		if err != nil {
			return value.Undef, err
		}

		switch prop.Kind {
		case "get", "set":
			fn, ferr := it.evalExpr(prop.Value, scope)
			if ferr != nil {
				return value.Undef, ferr
			}
			existing, _ := obj.GetOwn(key)
			p := existing
			p.Enumerable = true
			p.Configurable = true
			if prop.Kind == "get" {
				p.HasGet, p.Get = true, fn.AsObject()
			} else {
				p.HasSet, p.Set = true, fn.AsObject()
			}
			obj.DefineOwn(key, p)
		default:
			v, verr := it.evalExpr(prop.Value, scope)
			if verr != nil {
				return value.Undef, verr
			}
			obj.DefineOwn(key, value.Property{Val: v, Writable: true, Enumerable: true, Configurable: true})
		}
	}
	return objVal, nil
}

// evalPropertyKey resolves a Member/ObjectProperty key node to a
// PropertyKey: either the literal name of an Identifier, or the computed
// expression's coerced property key.
func (it *Interpreter) evalPropertyKey(key ast.Node, computed bool, scope env.Env) (value.PropertyKey, error) {
	if !computed {
		switch k := key.(type) {
		case *ast.Identifier:
			return value.NewStringKey(it.Intern_, k.Name), nil
		case *ast.Literal:
			return it.literalPropertyKey(k)
		case *ast.PrivateName:
			return it.privateNameKey(k.Name, scope)
		}
	}
	expr, _ := key.(Expression)
	v, err := it.evalExpr(expr, scope)
	if err != nil {
		return value.PropertyKey{}, err
	}
	pk, perr := value.PropertyKeyFromValue(it.Intern_, it, v)
	if perr != nil {
		return value.PropertyKey{}, it.jsErrToThrow(perr)
	}
	return pk, nil
}

func (it *Interpreter) literalPropertyKey(k *ast.Literal) (value.PropertyKey, error) {
	switch v := k.Value.(type) {
	case string:
		return value.NewStringKey(it.Intern_, v), nil
	case float64:
		return value.PropertyKeyFromValue(it.Intern_, it, value.NewNumber(v))
	default:
		return value.NewStringKey(it.Intern_, "undefined"), nil
	}
}

func (it *Interpreter) evalArrowFunction(ex *ast.ArrowFunctionExpression, scope env.Env) (value.Value, error) {
	var body *ast.BlockStatement
	if b, ok := ex.Body.(*ast.BlockStatement); ok {
		body = b
	} else if bodyExpr, ok := ex.Body.(Expression); ok {
		// Concise body: desugar to `{ return <expr>; }`.
		body = &ast.BlockStatement{Body: []Statement{&ast.ReturnStatement{Argument: bodyExpr}}}
	}
	return it.makeFunction("", ex.Params, body, scope, true, false, ex.Async, emptyHandle()), nil
}

func (it *Interpreter) evalTemplateLiteral(ex *ast.TemplateLiteral, scope env.Env) (value.Value, error) {
	var sb []byte
	sb = append(sb, ex.Quasis[0]...)
	for i, expr := range ex.Expressions {
		v, err := it.evalExpr(expr, scope)
		if err != nil {
			return value.Undef, err
		}
		s, serr := value.ToStringValue(it.Intern_, it, v)
		if serr != nil {
			return value.Undef, it.jsErrToThrow(serr)
		}
		sb = append(sb, s.Content()...)
		if i+1 < len(ex.Quasis) {
			sb = append(sb, ex.Quasis[i+1]...)
		}
	}
	return it.stringValue(string(sb)), nil
}

func (it *Interpreter) evalTaggedTemplate(ex *ast.TaggedTemplateExpression, scope env.Env) (value.Value, error) {
	tagFn, thisVal, err := it.evalCallee(ex.Tag, scope)
	if err != nil {
		return value.Undef, err
	}

	stringsObj := value.NewOrdinary()
	stringsObj.Exotic = value.ArrayKind
	stringsObj.Array = &value.ArrayData{}
	stringsObj.SetProto(it.Intrinsics.ArrayProto)
	sh := it.Heap_.Alloc(it.Guard(), stringsObj)

	rawObj := value.NewOrdinary()
	rawObj.Exotic = value.ArrayKind
	rawObj.Array = &value.ArrayData{}
	rawObj.SetProto(it.Intrinsics.ArrayProto)
	rh := it.Heap_.Alloc(it.Guard(), rawObj)

	for i, q := range ex.Template.Quasis {
		stringsObj.DefineOwn(value.NewIndexKey(uint32(i)), value.Property{Val: it.stringValue(q), Writable: false, Enumerable: true})
	}
	stringsObj.Array.Length = uint32(len(ex.Template.Quasis))
	for i, q := range ex.Template.RawQuasis {
		rawObj.DefineOwn(value.NewIndexKey(uint32(i)), value.Property{Val: it.stringValue(q), Writable: false, Enumerable: true})
	}
	rawObj.Array.Length = uint32(len(ex.Template.RawQuasis))
	it.defineDataProp(stringsObj, "raw", value.NewObject(rh), false, false, false)

	args := []value.Value{value.NewObject(sh)}
	for _, expr := range ex.Template.Expressions {
		v, err := it.evalExpr(expr, scope)
		if err != nil {
			return value.Undef, err
		}
		args = append(args, v)
	}
	return it.Call(tagFn, thisVal, args)
}

func (it *Interpreter) evalUnary(ex *ast.UnaryExpression, scope env.Env) (value.Value, error) {
	if ex.Operator == "typeof" {
		if id, ok := ex.Argument.(*ast.Identifier); ok {
			v, err := scope.Get(it.Heap_, id.Name, true)
			if err != nil {
				return value.Undef, it.jsErrToThrow(err)
			}
			return it.typeOfValue(v), nil
		}
	}
	if ex.Operator == "delete" {
		return it.evalDelete(ex.Argument, scope)
	}
	if ex.Operator == "void" {
		_, err := it.evalExpr(ex.Argument, scope)
		if err != nil {
			return value.Undef, err
		}
		return value.Undef, nil
	}

	v, err := it.evalExpr(ex.Argument, scope)
	if err != nil {
		return value.Undef, err
	}
	switch ex.Operator {
	case "typeof":
		return it.typeOfValue(v), nil
	case "!":
		return value.NewBool(!value.ToBoolean(v)), nil
	case "+":
		n, nerr := value.ToNumber(it, v)
		if nerr != nil {
			return value.Undef, it.jsErrToThrow(nerr)
		}
		return value.NewNumber(n), nil
	case "-":
		n, nerr := value.ToNumber(it, v)
		if nerr != nil {
			return value.Undef, it.jsErrToThrow(nerr)
		}
		return value.NewNumber(-n), nil
	case "~":
		n, nerr := value.ToNumber(it, v)
		if nerr != nil {
			return value.Undef, it.jsErrToThrow(nerr)
		}
		return value.NewNumber(float64(^toInt32(n))), nil
	}
	return value.Undef, internalBug("unknown unary operator %q", ex.Operator)
}

func (it *Interpreter) typeOfValue(v value.Value) value.Value {
	if v.IsObject() {
		obj := it.Object(v.AsObject())
		if obj != nil {
			return it.stringValue(value.TypeOfObject(obj))
		}
	}
	return it.stringValue(value.TypeOf(v))
}

func (it *Interpreter) evalDelete(target Expression, scope env.Env) (value.Value, error) {
	mem, ok := target.(*ast.MemberExpression)
	if !ok {
		_, err := it.evalExpr(target, scope)
		if err != nil {
			return value.Undef, err
		}
		return value.True, nil
	}
	objVal, err := it.evalExpr(mem.Object, scope)
	if err != nil {
		return value.Undef, err
	}
	if !objVal.IsObject() {
		return value.True, nil
	}
	key, err := it.evalPropertyKey(mem.Property, mem.Computed, scope)
	if err != nil {
		return value.Undef, err
	}
	obj := it.Object(objVal.AsObject())
	if obj == nil {
		return value.True, nil
	}
	ok2 := obj.DeleteOwn(key)
	if obj.Exotic == value.ArrayKind && key.Kind() == value.KeyIndex {
		// deleting an index leaves a hole; length is unaffected per spec.
	}
	return value.NewBool(ok2), nil
}

func (it *Interpreter) evalUpdate(ex *ast.UpdateExpression, scope env.Env) (value.Value, error) {
	old, setter, err := it.evalReference(ex.Argument, scope)
	if err != nil {
		return value.Undef, err
	}
	n, nerr := value.ToNumber(it, old)
	if nerr != nil {
		return value.Undef, it.jsErrToThrow(nerr)
	}
	var next float64
	if ex.Operator == "++" {
		next = n + 1
	} else {
		next = n - 1
	}
	if err := setter(value.NewNumber(next)); err != nil {
		return value.Undef, err
	}
	if ex.Prefix {
		return value.NewNumber(next), nil
	}
	return value.NewNumber(n), nil
}

// evalReference reads the current value of an identifier or member
// expression and returns a setter closure, the shared primitive behind
// update and compound-assignment expressions.
func (it *Interpreter) evalReference(target Expression, scope env.Env) (value.Value, func(value.Value) error, error) {
	switch t := target.(type) {
	case *ast.Identifier:
		v, err := scope.Get(it.Heap_, t.Name, false)
		if err != nil {
			return value.Undef, nil, it.jsErrToThrow(err)
		}
		return v, func(nv value.Value) error {
			if err := scope.Set(it.Heap_, t.Name, nv); err != nil {
				return it.jsErrToThrow(err)
			}
			return nil
		}, nil
	case *ast.MemberExpression:
		objVal, recvVal, key, err := it.evalMember(t, scope)
		if err != nil {
			return value.Undef, nil, err
		}
		return objVal, func(nv value.Value) error {
			if !recvVal.IsObject() {
				return it.ThrowValue(it.newTypeError("cannot set property of non-object"))
			}
			return it.SetProperty(recvVal.AsObject(), key, nv)
		}, nil
	}
	return value.Undef, nil, internalBug("invalid reference target %T", target)
}

func (it *Interpreter) evalBinary(ex *ast.BinaryExpression, scope env.Env) (value.Value, error) {
	if pn, ok := ex.Left.(*ast.PrivateName); ok && ex.Operator == "in" {
		return it.evalPrivateInCheck(pn, ex.Right, scope)
	}
	lv, err := it.evalExpr(ex.Left, scope)
	if err != nil {
		return value.Undef, err
	}
	rv, err := it.evalExpr(ex.Right, scope)
	if err != nil {
		return value.Undef, err
	}
	return it.applyBinary(ex.Operator, lv, rv)
}

// evalPrivateInCheck implements the ergonomic brand check `#x in obj`:
// unlike ordinary `in`, a non-object rv just means false rather than a
// TypeError, and presence is an own-property check only (private fields
// are never inherited), reusing hasProperty's private-key branch.
func (it *Interpreter) evalPrivateInCheck(pn *ast.PrivateName, rightExpr ast.Expression, scope env.Env) (value.Value, error) {
	key, err := it.privateNameKey(pn.Name, scope)
	if err != nil {
		return value.Undef, err
	}
	rv, err := it.evalExpr(rightExpr, scope)
	if err != nil {
		return value.Undef, err
	}
	if !rv.IsObject() {
		return value.NewBool(false), nil
	}
	obj := it.Object(rv.AsObject())
	if obj == nil {
		return value.NewBool(false), nil
	}
	return value.NewBool(it.hasProperty(obj, key)), nil
}

func (it *Interpreter) applyBinary(op string, lv, rv value.Value) (value.Value, error) {
	switch op {
	case "+":
		return it.addValues(lv, rv)
	case "-", "*", "/", "%", "**":
		ln, lerr := value.ToNumber(it, lv)
		if lerr != nil {
			return value.Undef, it.jsErrToThrow(lerr)
		}
		rn, rerr := value.ToNumber(it, rv)
		if rerr != nil {
			return value.Undef, it.jsErrToThrow(rerr)
		}
		return value.NewNumber(arith(op, ln, rn)), nil
	case "==":
		eq, eerr := value.AbstractEquals(it, lv, rv)
		if eerr != nil {
			return value.Undef, it.jsErrToThrow(eerr)
		}
		return value.NewBool(eq), nil
	case "!=":
		eq, eerr := value.AbstractEquals(it, lv, rv)
		if eerr != nil {
			return value.Undef, it.jsErrToThrow(eerr)
		}
		return value.NewBool(!eq), nil
	case "===":
		return value.NewBool(value.StrictEquals(lv, rv)), nil
	case "!==":
		return value.NewBool(!value.StrictEquals(lv, rv)), nil
	case "<", ">", "<=", ">=":
		return it.compare(op, lv, rv)
	case "&", "|", "^", "<<", ">>":
		ln, lerr := value.ToNumber(it, lv)
		if lerr != nil {
			return value.Undef, it.jsErrToThrow(lerr)
		}
		rn, rerr := value.ToNumber(it, rv)
		if rerr != nil {
			return value.Undef, it.jsErrToThrow(rerr)
		}
		return value.NewNumber(bitwise(op, ln, rn)), nil
	case ">>>":
		ln, lerr := value.ToNumber(it, lv)
		if lerr != nil {
			return value.Undef, it.jsErrToThrow(lerr)
		}
		rn, rerr := value.ToNumber(it, rv)
		if rerr != nil {
			return value.Undef, it.jsErrToThrow(rerr)
		}
		shift := toUint32(rn) & 31
		return value.NewNumber(float64(toUint32(ln) >> shift)), nil
	case "instanceof":
		if !rv.IsObject() {
			return value.Undef, it.ThrowValue(it.newTypeError("Right-hand side of 'instanceof' is not callable"))
		}
		ok, ierr := it.instanceOf(lv, it.Object(rv.AsObject()))
		if ierr != nil {
			return value.Undef, ierr
		}
		return value.NewBool(ok), nil
	case "in":
		if !rv.IsObject() {
			return value.Undef, it.ThrowValue(it.newTypeError("cannot use 'in' operator on non-object"))
		}
		key, kerr := value.PropertyKeyFromValue(it.Intern_, it, lv)
		if kerr != nil {
			return value.Undef, it.jsErrToThrow(kerr)
		}
		return value.NewBool(it.hasProperty(it.Object(rv.AsObject()), key)), nil
	}
	return value.Undef, internalBug("unknown binary operator %q", op)
}

// addValues implements the `+`: string concatenation if
// either operand is (or coerces via to_primitive("default") to) a
// String, numeric addition otherwise.
func (it *Interpreter) addValues(lv, rv value.Value) (value.Value, error) {
	lp, lerr := value.ToPrimitive(it, lv, "default")
	if lerr != nil {
		return value.Undef, it.jsErrToThrow(lerr)
	}
	rp, rerr := value.ToPrimitive(it, rv, "default")
	if rerr != nil {
		return value.Undef, it.jsErrToThrow(rerr)
	}
	if lp.IsString() || rp.IsString() {
		ls, lserr := value.ToStringValue(it.Intern_, it, lp)
		if lserr != nil {
			return value.Undef, it.jsErrToThrow(lserr)
		}
		rs, rserr := value.ToStringValue(it.Intern_, it, rp)
		if rserr != nil {
			return value.Undef, it.jsErrToThrow(rserr)
		}
		return it.stringValue(ls.Content() + rs.Content()), nil
	}
	ln, lnerr := value.ToNumber(it, lp)
	if lnerr != nil {
		return value.Undef, it.jsErrToThrow(lnerr)
	}
	rn, rnerr := value.ToNumber(it, rp)
	if rnerr != nil {
		return value.Undef, it.jsErrToThrow(rnerr)
	}
	return value.NewNumber(ln + rn), nil
}

func arith(op string, l, r float64) float64 {
	switch op {
	case "-":
		return l - r
	case "*":
		return l * r
	case "/":
		return l / r
	case "%":
		return math.Mod(l, r) // IEEE remainder, sign of dividend
	case "**":
		return math.Pow(l, r)
	}
	return math.NaN()
}

func bitwise(op string, l, r float64) float64 {
	li, ri := toInt32(l), toInt32(r)
	switch op {
	case "&":
		return float64(li & ri)
	case "|":
		return float64(li | ri)
	case "^":
		return float64(li ^ ri)
	case "<<":
		return float64(li << (uint32(ri) & 31))
	case ">>":
		return float64(li >> (uint32(ri) & 31))
	}
	return math.NaN()
}

func toInt32(n float64) int32 {
	if math.IsNaN(n) || math.IsInf(n, 0) {
		return 0
	}
	return int32(uint32(int64(math.Trunc(n))))
}

func toUint32(n float64) uint32 {
	if math.IsNaN(n) || math.IsInf(n, 0) {
		return 0
	}
	return uint32(int64(math.Trunc(n)))
}

func (it *Interpreter) compare(op string, lv, rv value.Value) (value.Value, error) {
	lp, lerr := value.ToPrimitive(it, lv, "number")
	if lerr != nil {
		return value.Undef, it.jsErrToThrow(lerr)
	}
	rp, rerr := value.ToPrimitive(it, rv, "number")
	if rerr != nil {
		return value.Undef, it.jsErrToThrow(rerr)
	}
	if lp.IsString() && rp.IsString() {
		l, r := lp.AsString().Content(), rp.AsString().Content()
		switch op {
		case "<":
			return value.NewBool(l < r), nil
		case ">":
			return value.NewBool(l > r), nil
		case "<=":
			return value.NewBool(l <= r), nil
		default:
			return value.NewBool(l >= r), nil
		}
	}
	ln, lnerr := value.ToNumber(it, lp)
	if lnerr != nil {
		return value.Undef, it.jsErrToThrow(lnerr)
	}
	rn, rnerr := value.ToNumber(it, rp)
	if rnerr != nil {
		return value.Undef, it.jsErrToThrow(rnerr)
	}
	if math.IsNaN(ln) || math.IsNaN(rn) {
		return value.False, nil
	}
	switch op {
	case "<":
		return value.NewBool(ln < rn), nil
	case ">":
		return value.NewBool(ln > rn), nil
	case "<=":
		return value.NewBool(ln <= rn), nil
	default:
		return value.NewBool(ln >= rn), nil
	}
}

func (it *Interpreter) evalLogical(ex *ast.LogicalExpression, scope env.Env) (value.Value, error) {
	lv, err := it.evalExpr(ex.Left, scope)
	if err != nil {
		return value.Undef, err
	}
	switch ex.Operator {
	case "&&":
		if !value.ToBoolean(lv) {
			return lv, nil
		}
	case "||":
		if value.ToBoolean(lv) {
			return lv, nil
		}
	case "??":
		if !lv.IsNullish() {
			return lv, nil
		}
	}
	return it.evalExpr(ex.Right, scope)
}

// evalMember implements dot/index/private access including optional
// chaining short-circuit (/§4.6): it returns the property's
// value, the receiver value, and the resolved key (the latter two let
// callers like evalReference and evalCall reuse the receiver without
// re-evaluating ex.Object, which could have side effects).
func (it *Interpreter) evalMember(ex *ast.MemberExpression, scope env.Env) (value.Value, value.Value, value.PropertyKey, error) {
	if _, ok := ex.Object.(*ast.SuperExpression); ok {
		return it.evalSuperMember(ex, scope)
	}
	objVal, err := it.evalExpr(ex.Object, scope)
	if err != nil {
		return value.Undef, value.Undef, value.PropertyKey{}, err
	}
	if ex.Optional && objVal.IsNullish() {
		return value.Undef, value.Undef, value.PropertyKey{}, optionalChainShortCircuit{}
	}
	if objVal.IsNullish() {
		name := "(intermediate value)"
		if id, ok := ex.Object.(*ast.Identifier); ok {
			name = id.Name
		}
		return value.Undef, value.Undef, value.PropertyKey{}, it.ThrowValue(it.newTypeError("Cannot read properties of %s (reading %q from %s)", value.TypeOf(objVal), propKeyDebug(ex.Property), name))
	}

	key, err := it.evalPropertyKey(ex.Property, ex.Computed, scope)
	if err != nil {
		return value.Undef, value.Undef, value.PropertyKey{}, err
	}

	if objVal.IsString() && key.Kind() == value.KeyIndex {
		s := objVal.AsString().Content()
		runes := []rune(s)
		if int(key.Index()) < len(runes) {
			return it.stringValue(string(runes[key.Index()])), objVal, key, nil
		}
		return value.Undef, objVal, key, nil
	}
	if objVal.IsString() && key.Kind() == value.KeyString && key.String() == "length" {
		return value.NewNumber(float64(len([]rune(objVal.AsString().Content())))), objVal, key, nil
	}
	if !objVal.IsObject() {
		// primitive member access falls through to its intrinsic
		// prototype; see boxedProto.
		proto := it.boxedProto(objVal)
		if proto == nil {
			return value.Undef, objVal, key, nil
		}
		return it.getProperty(proto, key), objVal, key, nil
	}

	v, gerr := it.GetProperty(objVal.AsObject(), key)
	if gerr != nil {
		return value.Undef, objVal, key, gerr
	}
	return v, objVal, key, nil
}

func propKeyDebug(n ast.Node) string {
	if id, ok := n.(*ast.Identifier); ok {
		return id.Name
	}
	return "<computed>"
}

func (it *Interpreter) boxedProto(v value.Value) *value.Object {
	switch v.Kind() {
	case value.String:
		return it.Object(it.Intrinsics.StringProto)
	case value.Number:
		return it.Object(it.Intrinsics.NumberProto)
	case value.Boolean:
		return it.Object(it.Intrinsics.BooleanProto)
	case value.SymbolKind:
		return it.Object(it.Intrinsics.SymbolProto)
	}
	return nil
}

// evalSuperMember resolves `super.x`: a method-bound lookup against the
// current function's home-object's prototype,.
func (it *Interpreter) evalSuperMember(ex *ast.MemberExpression, scope env.Env) (value.Value, value.Value, value.PropertyKey, error) {
	homeVal, err := scope.Get(it.Heap_, "%home%", false)
	if err != nil || !homeVal.IsObject() {
		return value.Undef, value.Undef, value.PropertyKey{}, it.ThrowValue(it.newTypeError("'super' keyword is only valid inside a method"))
	}
	home := it.Object(homeVal.AsObject())
	if home == nil || !home.HasProto {
		return value.Undef, value.Undef, value.PropertyKey{}, nil
	}
	key, kerr := it.evalPropertyKey(ex.Property, ex.Computed, scope)
	if kerr != nil {
		return value.Undef, value.Undef, value.PropertyKey{}, kerr
	}
	v, gerr := it.GetProperty(home.Proto, key)
	thisVal, _ := scope.Get(it.Heap_, "this", false)
	if gerr != nil {
		return value.Undef, thisVal, key, gerr
	}
	return v, thisVal, key, nil
}

func (it *Interpreter) evalAssignment(ex *ast.AssignmentExpression, scope env.Env) (value.Value, error) {
	if ex.Operator == "=" {
		if pat, ok := ex.Left.(Pattern); ok {
			if _, isID := pat.(*ast.IdentifierPattern); !isID {
				rv, err := it.evalExpr(ex.Right, scope)
				if err != nil {
					return value.Undef, err
				}
				if err := it.assignPattern(pat, rv, scope); err != nil {
					return value.Undef, err
				}
				return rv, nil
			}
		}
		_, setter, err := it.evalReference(ex.Left.(Expression), scope)
		if err != nil {
			return value.Undef, err
		}
		rv, err := it.evalExpr(ex.Right, scope)
		if err != nil {
			return value.Undef, err
		}
		if err := setter(rv); err != nil {
			return value.Undef, err
		}
		return rv, nil
	}

	target := ex.Left.(Expression)
	old, setter, err := it.evalReference(target, scope)
	if err != nil {
		return value.Undef, err
	}

	switch ex.Operator {
	case "&&=":
		if !value.ToBoolean(old) {
			return old, nil
		}
	case "||=":
		if value.ToBoolean(old) {
			return old, nil
		}
	case "??=":
		if !old.IsNullish() {
			return old, nil
		}
	}

	rv, err := it.evalExpr(ex.Right, scope)
	if err != nil {
		return value.Undef, err
	}

	var result value.Value
	switch ex.Operator {
	case "&&=", "||=", "??=":
		result = rv
	default:
		op := ex.Operator[:len(ex.Operator)-1] // strip trailing '='
		result, err = it.applyBinary(op, old, rv)
		if err != nil {
			return value.Undef, err
		}
	}
	if err := setter(result); err != nil {
		return value.Undef, err
	}
	return result, nil
}

func (it *Interpreter) evalYield(ex *ast.YieldExpression, scope env.Env) (value.Value, error) {
	var arg value.Value
	if ex.Argument != nil {
		v, err := it.evalExpr(ex.Argument, scope)
		if err != nil {
			return value.Undef, err
		}
		arg = v
	}
	if ex.Delegate {
		return it.yieldDelegate(arg, scope)
	}
	return it.yieldOne(arg)
}

func (it *Interpreter) evalAwait(ex *ast.AwaitExpression, scope env.Env) (value.Value, error) {
	v, err := it.evalExpr(ex.Argument, scope)
	if err != nil {
		return value.Undef, err
	}
	return it.awaitValue(v)
}
