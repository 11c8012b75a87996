package interp_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/joeycumines/jsrt/ast"
	"github.com/joeycumines/jsrt/builtins"
	"github.com/joeycumines/jsrt/interp"
	"github.com/joeycumines/jsrt/value"
)

// newRuntime builds an Interpreter with the full global object installed,
// the same way jsrt.New wires interp+builtins together.
func newRuntime(t *testing.T) *interp.Interpreter {
	t.Helper()
	it := interp.New(0)
	builtins.Setup(it)
	return it
}

// run executes body as a program's top-level statements and returns the
// completion value of the last one, per RunProgram.
func run(t *testing.T, it *interp.Interpreter, body []ast.Statement) value.Value {
	t.Helper()
	v, err := it.RunProgram(&ast.Program{Body: body})
	require.NoError(t, err)
	return v
}

// global reads a top-level var/let/const binding after a program ran.
func global(t *testing.T, it *interp.Interpreter, name string) value.Value {
	t.Helper()
	v, err := it.Global.Get(it.Heap_, name, false)
	require.NoError(t, err)
	return v
}

// arrayValues reads every element out of an Array-exotic Value via its
// length and indexed GetProperty, the way a host reading a result back
// out of the runtime would.
func arrayValues(t *testing.T, it *interp.Interpreter, v value.Value) []value.Value {
	t.Helper()
	require.True(t, v.IsObject(), "expected an array, got %v", v)
	h := v.AsObject()
	lengthVal, err := it.GetProperty(h, value.NewStringKey(it.Intern(), "length"))
	require.NoError(t, err)
	n := int(lengthVal.AsNumber())
	out := make([]value.Value, n)
	for i := 0; i < n; i++ {
		ev, err := it.GetProperty(h, value.NewIndexKey(uint32(i)))
		require.NoError(t, err)
		out[i] = ev
	}
	return out
}

func ident(name string) *ast.Identifier { return &ast.Identifier{Name: name} }
func num(n float64) *ast.Literal        { return &ast.Literal{Value: n} }
func str(s string) *ast.Literal         { return &ast.Literal{Value: s} }

func exprStmt(e ast.Expression) *ast.ExpressionStatement {
	return &ast.ExpressionStatement{Expr: e}
}

func block(stmts ...ast.Statement) *ast.BlockStatement {
	return &ast.BlockStatement{Body: stmts}
}

func call(callee ast.Expression, args ...ast.Expression) *ast.CallExpression {
	return &ast.CallExpression{Callee: callee, Arguments: args}
}

func member(obj ast.Expression, name string) *ast.MemberExpression {
	return &ast.MemberExpression{Object: obj, Property: ident(name)}
}

func computedMember(obj, prop ast.Expression) *ast.MemberExpression {
	return &ast.MemberExpression{Object: obj, Property: prop, Computed: true}
}

func vardecl(kind ast.VariableKind, name string, init ast.Expression) *ast.VariableDeclaration {
	return &ast.VariableDeclaration{
		Kind:         kind,
		Declarations: []ast.VariableDeclarator{{ID: &ast.IdentifierPattern{Name: name}, Init: init}},
	}
}

func binop(op string, l, r ast.Expression) *ast.BinaryExpression {
	return &ast.BinaryExpression{Operator: op, Left: l, Right: r}
}

func fnExpr(generator bool, params []ast.Pattern, body *ast.BlockStatement) *ast.FunctionExpression {
	return &ast.FunctionExpression{Params: params, Body: body, Generator: generator}
}
