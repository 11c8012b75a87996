package interp

import (
	"github.com/joeycumines/jsrt/ast"
	"github.com/joeycumines/jsrt/env"
	"github.com/joeycumines/jsrt/value"
)

// asCompletion converts an error returned by evalExpr/execStmt into a
// Completion: a controlSignal (Throw/YieldCompletion) becomes the
// matching abrupt Completion; anything else is a genuine internal error
// that must propagate past the statement layer unconverted.
func asCompletion(err error) (Completion, error) {
	if err == nil {
		return Completion{Kind: Normal}, nil
	}
	if c, ok := asControlSignal(err); ok {
		return c, nil
	}
	return Completion{}, err
}

// execStmt evaluates one statement in scope and returns its Completion,
//.5/§4.6.
func (it *Interpreter) execStmt(s Statement, scope env.Env) (Completion, error) {
	switch st := s.(type) {
	case *ast.EmptyStatement, *ast.DebuggerStatement:
		return normal(value.Undef), nil

	case *ast.ExpressionStatement:
		v, err := it.evalExpr(st.Expr, scope)
		if err != nil {
			return asCompletion(err)
		}
		return normal(v), nil

	case *ast.BlockStatement:
		return it.execBlock(st.Body, scope)

	case *ast.VariableDeclaration:
		return it.execVarDecl(st, scope)

	case *ast.FunctionDeclaration:
		return normal(value.Undef), nil // installed by hoist

	case *ast.ClassDeclaration:
		cls, err := it.evalClass(st.Name, st.SuperClass, st.Members, st.Decorators, scope)
		if err != nil {
			return asCompletion(err)
		}
		if st.Name != "" {
			if err := scope.Initialize(it.Heap_, st.Name, cls); err != nil {
				if !scope.HasOwn(it.Heap_, st.Name) {
					_ = scope.Define(it.Heap_, st.Name, cls, true, true)
				}
			}
		}
		return normal(cls), nil

	case *ast.IfStatement:
		test, err := it.evalExpr(st.Test, scope)
		if err != nil {
			return asCompletion(err)
		}
		if value.ToBoolean(test) {
			return it.execStmt(st.Consequent, scope)
		}
		if st.Alternate != nil {
			return it.execStmt(st.Alternate, scope)
		}
		return normal(value.Undef), nil

	case *ast.WhileStatement:
		return it.execWhile(st, scope)

	case *ast.DoWhileStatement:
		return it.execDoWhile(st, scope)

	case *ast.ForStatement:
		return it.execFor(st, scope)

	case *ast.ForInStatement:
		return it.execForIn(st, scope)

	case *ast.ForOfStatement:
		return it.execForOf(st, scope)

	case *ast.ReturnStatement:
		var v value.Value
		if st.Argument != nil {
			rv, err := it.evalExpr(st.Argument, scope)
			if err != nil {
				return asCompletion(err)
			}
			v = rv
		}
		return Completion{Kind: Return, Value: v}, nil

	case *ast.ThrowStatement:
		v, err := it.evalExpr(st.Argument, scope)
		if err != nil {
			return asCompletion(err)
		}
		return Completion{Kind: Throw, Value: v}, nil

	case *ast.BreakStatement:
		return Completion{Kind: Break, Label: st.Label}, nil

	case *ast.ContinueStatement:
		return Completion{Kind: Continue, Label: st.Label}, nil

	case *ast.LabeledStatement:
		c, err := it.execStmt(st.Body, scope)
		if err != nil {
			return c, err
		}
		if (c.Kind == Break || c.Kind == Continue) && c.Label == st.Label {
			if c.Kind == Break {
				return normal(value.Undef), nil
			}
			// An unconsumed labeled `continue` targeting this exact
			// label with no enclosing loop is treated as loop-exhausted;
			// well-formed ASTs only label loops/blocks that handle it.
			return normal(value.Undef), nil
		}
		return c, nil

	case *ast.TryStatement:
		return it.execTry(st, scope)

	case *ast.SwitchStatement:
		return it.execSwitch(st, scope)

	case *ast.ImportDeclaration:
		return normal(value.Undef), it.linkImport(st, scope)

	case *ast.ExportDeclaration:
		return it.execExport(st, scope)

	case *ast.TypeAliasDeclaration, *ast.InterfaceDeclaration:
		return normal(value.Undef), nil // no runtime effect,.1

	case *ast.EnumDeclaration:
		return it.execEnum(st, scope)

	case *ast.NamespaceDeclaration:
		return it.execNamespace(st, scope)
	}
	return Completion{}, internalBug("execStmt: unhandled node %T", s)
}

// execBlock runs a statement list in a fresh child scope, hoisting
// function declarations (but not vars, which hoist to the enclosing
// function/script scope) first.
func (it *Interpreter) execBlock(body []Statement, outer env.Env) (Completion, error) {
	g := it.PushGuard()
	defer it.PopGuard()
	scope := env.New(it.Heap_, g, outer)
	it.hoist(body, scope, false)
	return it.execStmtList(body, scope)
}

func (it *Interpreter) execStmtList(body []Statement, scope env.Env) (Completion, error) {
	for _, stmt := range body {
		c, err := it.execStmt(stmt, scope)
		if err != nil {
			return Completion{}, err
		}
		if c.IsAbrupt() {
			return c, nil
		}
	}
	return normal(value.Undef), nil
}

func (it *Interpreter) execVarDecl(st *ast.VariableDeclaration, scope env.Env) (Completion, error) {
	for _, decl := range st.Declarations {
		pat, _ := decl.ID.(Pattern)
		var v value.Value
		if decl.Init != nil {
			rv, err := it.evalExpr(decl.Init, scope)
			if err != nil {
				return asCompletion(err)
			}
			v = rv
		}
		switch st.Kind {
		case ast.Var:
			if decl.Init != nil {
				if err := it.assignPattern(pat, v, scope); err != nil {
					return asCompletion(err)
				}
			}
		case ast.Let, ast.Const:
			// hoistLexical already pre-declared this name as an
			// uninitialized (TDZ) binding when scope was entered;
			// Initialize it now rather than Define a fresh one.
			if err := it.declarePattern(pat, v, scope, st.Kind == ast.Const, true); err != nil {
				return asCompletion(err)
			}
		}
	}
	return normal(value.Undef), nil
}

// loopResult interprets a loop body's completion: whether the loop must
// stop (with a Completion to propagate) and, if continuing, whether a
// `continue` targeted this loop (vs. an outer label, unwound further).
func loopResult(c Completion, label string) (stop bool, out Completion) {
	switch c.Kind {
	case Break:
		if c.Label == "" || c.Label == label {
			return true, normal(value.Undef)
		}
		return true, c
	case Continue:
		if c.Label == "" || c.Label == label {
			return false, Completion{}
		}
		return true, c
	case Normal:
		return false, Completion{}
	default: // Return, Throw, YieldCompletion
		return true, c
	}
}

func (it *Interpreter) execWhile(st *ast.WhileStatement, scope env.Env) (Completion, error) {
	for {
		test, err := it.evalExpr(st.Test, scope)
		if err != nil {
			return asCompletion(err)
		}
		if !value.ToBoolean(test) {
			return normal(value.Undef), nil
		}
		c, err := it.execStmt(st.Body, scope)
		if err != nil {
			return Completion{}, err
		}
		if stop, out := loopResult(c, ""); stop {
			return out, nil
		}
	}
}

func (it *Interpreter) execDoWhile(st *ast.DoWhileStatement, scope env.Env) (Completion, error) {
	for {
		c, err := it.execStmt(st.Body, scope)
		if err != nil {
			return Completion{}, err
		}
		if stop, out := loopResult(c, ""); stop {
			return out, nil
		}
		test, err := it.evalExpr(st.Test, scope)
		if err != nil {
			return asCompletion(err)
		}
		if !value.ToBoolean(test) {
			return normal(value.Undef), nil
		}
	}
}

func (it *Interpreter) execFor(st *ast.ForStatement, scope env.Env) (Completion, error) {
	g := it.PushGuard()
	defer it.PopGuard()
	loopScope := env.New(it.Heap_, g, scope)

	if st.Init != nil {
		if vd, ok := st.Init.(*ast.VariableDeclaration); ok {
			if c, err := it.execVarDecl(vd, loopScope); err != nil || c.IsAbrupt() {
				return c, err
			}
		} else if e, ok := st.Init.(Expression); ok {
			if _, err := it.evalExpr(e, loopScope); err != nil {
				return asCompletion(err)
			}
		}
	}

	for {
		// Per-iteration scope copy so closures created inside the body
		// capture that iteration's `let` bindings ( scenario 1).
		iterG := it.PushGuard()
		iterScope := env.New(it.Heap_, iterG, scope)
		it.copyBindings(loopScope, iterScope)

		if st.Test != nil {
			test, err := it.evalExpr(st.Test, iterScope)
			if err != nil {
				it.PopGuard()
				return asCompletion(err)
			}
			if !value.ToBoolean(test) {
				it.PopGuard()
				return normal(value.Undef), nil
			}
		}

		c, err := it.execStmt(st.Body, iterScope)
		if err != nil {
			it.PopGuard()
			return Completion{}, err
		}
		it.copyBindings(iterScope, loopScope)
		it.PopGuard()

		if stop, out := loopResult(c, ""); stop {
			return out, nil
		}

		if st.Update != nil {
			if _, err := it.evalExpr(st.Update, loopScope); err != nil {
				return asCompletion(err)
			}
		}
	}
}

// copyBindings copies every own binding from src into dst, used to give
// each `for` iteration its own `let` environment while still threading
// mutations back for the next test/update evaluation.
func (it *Interpreter) copyBindings(src, dst env.Env) {
	srcObj := it.Object(src.Handle)
	if srcObj == nil || srcObj.Environment == nil {
		return
	}
	for name, b := range srcObj.Environment.Bindings {
		if dst.HasOwn(it.Heap_, name) {
			if b.Initialized {
				_ = dst.Set(it.Heap_, name, b.Value)
			}
			continue
		}
		_ = dst.Define(it.Heap_, name, b.Value, b.Mutable, b.Initialized)
	}
}

func (it *Interpreter) execForIn(st *ast.ForInStatement, scope env.Env) (Completion, error) {
	rightVal, err := it.evalExpr(st.Right, scope)
	if err != nil {
		return asCompletion(err)
	}
	if !rightVal.IsObject() {
		return normal(value.Undef), nil
	}
	keys := it.enumerateKeys(rightVal.AsObject())

	for _, k := range keys {
		g := it.PushGuard()
		iterScope := env.New(it.Heap_, g, scope)
		if err := it.bindForTarget(st.Left, it.stringValue(k), iterScope); err != nil {
			it.PopGuard()
			return asCompletion(err)
		}
		c, cerr := it.execStmt(st.Body, iterScope)
		it.PopGuard()
		if cerr != nil {
			return Completion{}, cerr
		}
		if stop, out := loopResult(c, ""); stop {
			return out, nil
		}
	}
	return normal(value.Undef), nil
}

// enumerateKeys walks obj's prototype chain collecting own-enumerable
// string keys in insertion order, suppressing duplicates already seen
// (the for-in semantics).
func (it *Interpreter) enumerateKeys(h gcHandle) []string {
	seen := map[string]bool{}
	var out []string
	cur := it.Object(h)
	for cur != nil {
		for _, k := range cur.OwnKeys() {
			if k.Kind() == value.KeySymbol {
				continue
			}
			ks := k.String()
			if seen[ks] {
				continue
			}
			seen[ks] = true
			if p, ok := cur.GetOwn(k); ok && p.Enumerable {
				out = append(out, ks)
			}
		}
		if !cur.HasProto {
			break
		}
		cur = it.Object(cur.Proto)
	}
	return out
}

func (it *Interpreter) bindForTarget(left ast.Node, v value.Value, scope env.Env) error {
	if vd, ok := left.(*ast.VariableDeclaration); ok {
		pat, _ := vd.Declarations[0].ID.(Pattern)
		if vd.Kind == ast.Var {
			return it.assignPattern(pat, v, scope)
		}
		return it.declarePattern(pat, v, scope, vd.Kind == ast.Const, false)
	}
	if pat, ok := left.(Pattern); ok {
		return it.assignPattern(pat, v, scope)
	}
	return internalBug("invalid for-in/of left-hand side %T", left)
}

func (it *Interpreter) execForOf(st *ast.ForOfStatement, scope env.Env) (Completion, error) {
	rightVal, err := it.evalExpr(st.Right, scope)
	if err != nil {
		return asCompletion(err)
	}
	iter, ierr := it.getIterator(rightVal, st.Await)
	if ierr != nil {
		return asCompletion(ierr)
	}

	for {
		itemVal, done, nerr := it.iteratorNext(iter, value.Undef, st.Await)
		if nerr != nil {
			return asCompletion(nerr)
		}
		if done {
			return normal(value.Undef), nil
		}

		g := it.PushGuard()
		iterScope := env.New(it.Heap_, g, scope)
		if err := it.bindForTarget(st.Left, itemVal, iterScope); err != nil {
			it.PopGuard()
			it.iteratorClose(iter)
			return asCompletion(err)
		}
		c, cerr := it.execStmt(st.Body, iterScope)
		it.PopGuard()
		if cerr != nil {
			it.iteratorClose(iter)
			return Completion{}, cerr
		}
		if stop, out := loopResult(c, ""); stop {
			it.iteratorClose(iter)
			return out, nil
		}
	}
}

func (it *Interpreter) execTry(st *ast.TryStatement, scope env.Env) (Completion, error) {
	result, err := it.execStmt(st.Block, scope)
	if err != nil {
		if st.Finalizer != nil {
			it.runFinally(st.Finalizer, scope)
		}
		return Completion{}, err
	}

	if result.Kind == Throw && st.Handler != nil {
		g := it.PushGuard()
		catchScope := env.New(it.Heap_, g, scope)
		if st.Handler.Param != nil {
			pat, _ := st.Handler.Param.(Pattern)
			if derr := it.declarePattern(pat, result.Value, catchScope, false, false); derr != nil {
				it.PopGuard()
				if st.Finalizer != nil {
					it.runFinally(st.Finalizer, scope)
				}
				return asCompletion(derr)
			}
		}
		result, err = it.execStmt(st.Handler.Body, catchScope)
		it.PopGuard()
		if err != nil {
			if st.Finalizer != nil {
				it.runFinally(st.Finalizer, scope)
			}
			return Completion{}, err
		}
	}

	if st.Finalizer != nil {
		finResult, ferr := it.execStmt(st.Finalizer, scope)
		if ferr != nil {
			return Completion{}, ferr
		}
		if finResult.IsAbrupt() {
			// finally's own abrupt completion overrides the pending one,
			//.
			return finResult, nil
		}
	}
	return result, nil
}

// runFinally runs a finalizer purely for its side effects when the try
// block itself failed with a hard Go error (not a JS-level completion);
// a finally abrupt completion in that narrow case cannot override
// anything meaningful, so it is discarded rather than threaded back.
func (it *Interpreter) runFinally(block *ast.BlockStatement, scope env.Env) {
	_, _ = it.execStmt(block, scope)
}

func (it *Interpreter) execSwitch(st *ast.SwitchStatement, scope env.Env) (Completion, error) {
	disc, err := it.evalExpr(st.Discriminant, scope)
	if err != nil {
		return asCompletion(err)
	}

	g := it.PushGuard()
	defer it.PopGuard()
	switchScope := env.New(it.Heap_, g, scope)
	for _, c := range st.Cases {
		for _, stmt := range c.Consequent {
			it.hoist([]Statement{stmt}, switchScope, false)
		}
	}

	matched := -1
	for i, c := range st.Cases {
		if c.Test == nil {
			continue
		}
		tv, terr := it.evalExpr(c.Test, switchScope)
		if terr != nil {
			return asCompletion(terr)
		}
		if value.StrictEquals(disc, tv) {
			matched = i
			break
		}
	}
	if matched == -1 {
		for i, c := range st.Cases {
			if c.Test == nil {
				matched = i
				break
			}
		}
	}
	if matched == -1 {
		return normal(value.Undef), nil
	}

	for i := matched; i < len(st.Cases); i++ {
		c, err := it.execStmtList(st.Cases[i].Consequent, switchScope)
		if err != nil {
			return Completion{}, err
		}
		if c.Kind == Break && c.Label == "" {
			return normal(value.Undef), nil
		}
		if c.IsAbrupt() {
			return c, nil
		}
	}
	return normal(value.Undef), nil
}

func (it *Interpreter) execEnum(st *ast.EnumDeclaration, scope env.Env) (Completion, error) {
	obj := value.NewOrdinary()
	obj.SetProto(it.Intrinsics.ObjectProto)
	h := it.Heap_.Alloc(it.Guard(), obj)

	last := -1.0
	for _, m := range st.Members {
		var v value.Value
		if m.Init != nil {
			iv, err := it.evalExpr(m.Init, scope)
			if err != nil {
				return asCompletion(err)
			}
			v = iv
			if v.IsNumber() {
				last = v.AsNumber()
			}
		} else {
			last++
			v = value.NewNumber(last)
		}
		it.defineDataProp(obj, m.Name, v, true, true, true)
		if v.IsNumber() {
			it.defineDataProp(obj, value.NumberToString(v.AsNumber()), it.stringValue(m.Name), true, true, true)
		}
	}
	enumVal := value.NewObject(h)
	if err := scope.Define(it.Heap_, st.Name, enumVal, false, true); err != nil {
		return asCompletion(err)
	}
	return normal(enumVal), nil
}

// execNamespace gives `namespace N {... }` runtime effect as an ordinary
// object populated by the namespace body's top-level bindings, matching
// how this implementation treats `enum` ( only mandates this
// for enums; namespaces are a TypeScript-only supplement with no
// observable effect in pure-JS programs, so a lightweight object is
// sufficient rather than full module-style exports).
func (it *Interpreter) execNamespace(st *ast.NamespaceDeclaration, scope env.Env) (Completion, error) {
	g := it.PushGuard()
	defer it.PopGuard()
	inner := env.New(it.Heap_, g, scope)
	it.hoist(st.Body, inner, true)
	if c, err := it.execStmtList(st.Body, inner); err != nil || c.IsAbrupt() {
		return c, err
	}

	obj := value.NewOrdinary()
	obj.SetProto(it.Intrinsics.ObjectProto)
	h := it.Heap_.Alloc(it.Guard(), obj)
	innerObj := it.Object(inner.Handle)
	for name, b := range innerObj.Environment.Bindings {
		if b.Initialized {
			it.defineDataProp(obj, name, b.Value, true, true, true)
		}
	}
	nsVal := value.NewObject(h)
	if err := scope.Define(it.Heap_, st.Name, nsVal, false, true); err != nil {
		return asCompletion(err)
	}
	return normal(nsVal), nil
}
