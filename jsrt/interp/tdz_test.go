package interp_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joeycumines/jsrt/ast"
)

// referenceErrorName runs body, expects an uncaught throw, and returns the
// thrown value's `name` property — the same shape the scheduler's
// ThrownToJSError reads to classify an uncaught error.
func referenceErrorName(t *testing.T, body []ast.Statement) string {
	t.Helper()
	it := newRuntime(t)
	_, err := it.RunProgram(&ast.Program{Body: body})
	require.Error(t, err)
	thrown, ok := it.ExtractThrown(err)
	require.True(t, ok, "expected an uncaught JS throw, got %v", err)
	je := it.ThrownToJSError(thrown)
	return je.Kind.String()
}

// TestTDZ_TypeofDoesNotSuppressReferenceError pins §4.4: `typeof x` on a
// `let`/`const` binding still inside its own declaration's TDZ must throw
// ReferenceError, unlike `typeof` on a name that was never declared at
// all (which resolves to "undefined").
func TestTDZ_TypeofDoesNotSuppressReferenceError(t *testing.T) {
	// let x = 1; { typeof x; let x = 2; }
	body := []ast.Statement{
		vardecl(ast.Let, "x", num(1)),
		block(
			exprStmt(&ast.UnaryExpression{Operator: "typeof", Argument: ident("x")}),
			vardecl(ast.Let, "x", num(2)),
		),
	}
	assert.Equal(t, "ReferenceError", referenceErrorName(t, body))
}

// TestTDZ_InnerBindingShadowsOuterDuringTDZ pins §4.4: a reference to a
// name before its own `let`/`const` declaration's line must observe that
// block's own (uninitialized) binding, not fall through to an outer
// scope's already-initialized binding of the same name.
func TestTDZ_InnerBindingShadowsOuterDuringTDZ(t *testing.T) {
	// let x = 1; { x; let x = 2; }
	body := []ast.Statement{
		vardecl(ast.Let, "x", num(1)),
		block(
			exprStmt(ident("x")),
			vardecl(ast.Let, "x", num(2)),
		),
	}
	assert.Equal(t, "ReferenceError", referenceErrorName(t, body))
}

// TestTDZ_AfterInitializerBindingIsUsable ensures the pre-pass that makes
// TDZ observable doesn't also break the ordinary, post-declaration case:
// once a `let`'s initializer has run, later statements in the same block
// read the new value normally.
func TestTDZ_AfterInitializerBindingIsUsable(t *testing.T) {
	it := newRuntime(t)
	// { let x = 2; x; }
	run(t, it, []ast.Statement{
		block(
			vardecl(ast.Let, "x", num(2)),
			exprStmt(ident("x")),
		),
	})
}

// TestTDZ_ConstReassignmentStillThrowsTypeError ensures the init=true path
// through declarePattern (which calls env.Initialize rather than Define)
// still leaves the binding's Mutable bit correctly set for `const`.
func TestTDZ_ConstReassignmentStillThrowsTypeError(t *testing.T) {
	// const x = 1; x = 2;
	body := []ast.Statement{
		vardecl(ast.Const, "x", num(1)),
		exprStmt(&ast.AssignmentExpression{Operator: "=", Left: ident("x"), Right: num(2)}),
	}
	assert.Equal(t, "TypeError", referenceErrorName(t, body))
}

// TestTDZ_ForLoopLetInitStillWorks guards against a regression in the
// declarePattern init-flag fallback: a `for (let i = 0; ...)` loop's init
// clause runs in a freshly created scope with nothing hoisted into it, so
// declarePattern must fall back to Define rather than fail trying to
// Initialize a binding that was never pre-declared.
func TestTDZ_ForLoopLetInitStillWorks(t *testing.T) {
	it := newRuntime(t)
	// var out = []; for (let i = 0; i < 3; i = i + 1) { out.push(i); }
	run(t, it, []ast.Statement{
		vardecl(ast.Var, "out", &ast.ArrayLiteral{}),
		&ast.ForStatement{
			Init: vardecl(ast.Let, "i", num(0)),
			Test: binop("<", ident("i"), num(3)),
			Update: &ast.AssignmentExpression{Operator: "=", Left: ident("i"), Right: binop("+", ident("i"), num(1))},
			Body: block(exprStmt(call(member(ident("out"), "push"), ident("i")))),
		},
	})
	out := global(t, it, "out")
	vals := arrayValues(t, it, out)
	require.Len(t, vals, 3)
	assert.Equal(t, 0.0, vals[0].AsNumber())
	assert.Equal(t, 1.0, vals[1].AsNumber())
	assert.Equal(t, 2.0, vals[2].AsNumber())
}
