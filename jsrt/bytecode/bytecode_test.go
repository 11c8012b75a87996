package bytecode_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joeycumines/jsrt/ast"
	"github.com/joeycumines/jsrt/builtins"
	"github.com/joeycumines/jsrt/bytecode"
	"github.com/joeycumines/jsrt/interp"
)

func newInterp(t *testing.T) *interp.Interpreter {
	t.Helper()
	it := interp.New(0)
	builtins.Setup(it)
	bytecode.Enable(it)
	return it
}

func ident(name string) *ast.Identifier           { return &ast.Identifier{Name: name} }
func idPattern(name string) *ast.IdentifierPattern { return &ast.IdentifierPattern{Name: name} }
func lit(v any) *ast.Literal                       { return &ast.Literal{Value: v} }

func callStmt(callee ast.Expression, args ...ast.Expression) ast.Statement {
	return &ast.ExpressionStatement{Expr: &ast.CallExpression{Callee: callee, Arguments: args}}
}

// assertCompiled looks up name in the global object and asserts that it
// compiled to bytecode (fd.Compiled != nil) when want is true, or stayed
// on the tree walker (fd.Compiled == nil) when want is false.
func assertCompiled(t *testing.T, it *interp.Interpreter, name string, want bool) {
	t.Helper()
	fnVal, err := it.Global.Get(it.Heap_, name, false)
	require.NoError(t, err)
	require.True(t, fnVal.IsObject())
	obj := it.Object(fnVal.AsObject())
	require.NotNil(t, obj)
	require.NotNil(t, obj.Function)
	if want {
		assert.NotNil(t, obj.Function.Compiled, "expected %q to compile to bytecode", name)
	} else {
		assert.Nil(t, obj.Function.Compiled, "expected %q to stay on the tree walker", name)
	}
}

func TestCompiledFunction_Arithmetic(t *testing.T) {
	it := newInterp(t)

	// function add(a, b) { return a + b; }
	add := &ast.FunctionDeclaration{
		Name:   "add",
		Params: []ast.Pattern{idPattern("a"), idPattern("b")},
		Body: &ast.BlockStatement{Body: []ast.Statement{
			&ast.ReturnStatement{Argument: &ast.BinaryExpression{
				Operator: "+",
				Left:     ident("a"),
				Right:    ident("b"),
			}},
		}},
	}

	prog := &ast.Program{Body: []ast.Statement{
		add,
		&ast.ExpressionStatement{Expr: &ast.CallExpression{
			Callee:    ident("add"),
			Arguments: []ast.Expression{lit(3.0), lit(4.0)},
		}},
	}}

	res, err := it.RunProgram(prog)
	require.NoError(t, err)
	require.True(t, res.IsNumber())
	assert.Equal(t, 7.0, res.AsNumber())

	assertCompiled(t, it, "add", true)
}

func TestCompiledFunction_IfWhileLoop(t *testing.T) {
	it := newInterp(t)

	// function sumTo(n) {
	//   let total = 0;
	//   let i = 0;
	//   while (i < n) {
	//     if (i == 3) { i = i + 1; continue; }
	//     total = total + i;
	//     i = i + 1;
	//   }
	//   return total;
	// }
	body := &ast.BlockStatement{Body: []ast.Statement{
		&ast.VariableDeclaration{Kind: ast.Let, Declarations: []ast.VariableDeclarator{
			{ID: idPattern("total"), Init: lit(0.0)},
		}},
		&ast.VariableDeclaration{Kind: ast.Let, Declarations: []ast.VariableDeclarator{
			{ID: idPattern("i"), Init: lit(0.0)},
		}},
		&ast.WhileStatement{
			Test: &ast.BinaryExpression{Operator: "<", Left: ident("i"), Right: ident("n")},
			Body: &ast.BlockStatement{Body: []ast.Statement{
				&ast.IfStatement{
					Test: &ast.BinaryExpression{Operator: "==", Left: ident("i"), Right: lit(3.0)},
					Consequent: &ast.BlockStatement{Body: []ast.Statement{
						&ast.ExpressionStatement{Expr: &ast.AssignmentExpression{
							Operator: "=", Left: idPattern("i"),
							Right: &ast.BinaryExpression{Operator: "+", Left: ident("i"), Right: lit(1.0)},
						}},
						&ast.ContinueStatement{},
					}},
				},
				&ast.ExpressionStatement{Expr: &ast.AssignmentExpression{
					Operator: "=", Left: idPattern("total"),
					Right: &ast.BinaryExpression{Operator: "+", Left: ident("total"), Right: ident("i")},
				}},
				&ast.ExpressionStatement{Expr: &ast.AssignmentExpression{
					Operator: "=", Left: idPattern("i"),
					Right: &ast.BinaryExpression{Operator: "+", Left: ident("i"), Right: lit(1.0)},
				}},
			}},
		},
		&ast.ReturnStatement{Argument: ident("total")},
	}}

	sumTo := &ast.FunctionDeclaration{
		Name:   "sumTo",
		Params: []ast.Pattern{idPattern("n")},
		Body:   body,
	}

	prog := &ast.Program{Body: []ast.Statement{
		sumTo,
		&ast.ExpressionStatement{Expr: &ast.CallExpression{
			Callee:    ident("sumTo"),
			Arguments: []ast.Expression{lit(6.0)},
		}},
	}}

	res, err := it.RunProgram(prog)
	require.NoError(t, err)
	require.True(t, res.IsNumber())
	// 0+1+2+4+5 (3 is skipped by continue) = 12
	assert.Equal(t, 12.0, res.AsNumber())

	assertCompiled(t, it, "sumTo", true)
}

func TestCompiledFunction_TryCatch(t *testing.T) {
	it := newInterp(t)

	// function safe() {
	//   try { throw "boom"; } catch (e) { return e; }
	// }
	safe := &ast.FunctionDeclaration{
		Name: "safe",
		Body: &ast.BlockStatement{Body: []ast.Statement{
			&ast.TryStatement{
				Block: &ast.BlockStatement{Body: []ast.Statement{
					&ast.ThrowStatement{Argument: lit("boom")},
				}},
				Handler: &ast.CatchClause{
					Param: idPattern("e"),
					Body: &ast.BlockStatement{Body: []ast.Statement{
						&ast.ReturnStatement{Argument: ident("e")},
					}},
				},
			},
		}},
	}

	prog := &ast.Program{Body: []ast.Statement{
		safe,
		&ast.ExpressionStatement{Expr: &ast.CallExpression{Callee: ident("safe")}},
	}}

	res, err := it.RunProgram(prog)
	require.NoError(t, err)
	require.True(t, res.IsString())
	assert.Equal(t, "boom", res.AsString().Content())

	assertCompiled(t, it, "safe", true)
}

// TestCompiledFunction_FallsBackOnUnsupportedConstruct confirms a function
// using a construct outside the compiled subset (here, try/finally) stays
// on the tree walker and still behaves correctly.
func TestCompiledFunction_FallsBackOnUnsupportedConstruct(t *testing.T) {
	it := newInterp(t)

	// function withFinally() {
	//   let ran = false;
	//   try { return 1; } finally { ran = true; }
	// }
	withFinally := &ast.FunctionDeclaration{
		Name: "withFinally",
		Body: &ast.BlockStatement{Body: []ast.Statement{
			&ast.VariableDeclaration{Kind: ast.Let, Declarations: []ast.VariableDeclarator{
				{ID: idPattern("ran"), Init: lit(false)},
			}},
			&ast.TryStatement{
				Block: &ast.BlockStatement{Body: []ast.Statement{
					&ast.ReturnStatement{Argument: lit(1.0)},
				}},
				Finalizer: &ast.BlockStatement{Body: []ast.Statement{
					&ast.ExpressionStatement{Expr: &ast.AssignmentExpression{
						Operator: "=", Left: idPattern("ran"), Right: lit(true),
					}},
				}},
			},
		}},
	}

	prog := &ast.Program{Body: []ast.Statement{
		withFinally,
		&ast.ExpressionStatement{Expr: &ast.CallExpression{Callee: ident("withFinally")}},
	}}

	res, err := it.RunProgram(prog)
	require.NoError(t, err)
	require.True(t, res.IsNumber())
	assert.Equal(t, 1.0, res.AsNumber())

	assertCompiled(t, it, "withFinally", false)
}

// TestCompiledFunction_RestParamFallsBack confirms a non-identifier
// parameter (rest) also bars compilation, independent of the body shape.
func TestCompiledFunction_RestParamFallsBack(t *testing.T) {
	it := newInterp(t)

	variadic := &ast.FunctionDeclaration{
		Name:   "variadic",
		Params: []ast.Pattern{&ast.RestPattern{Argument: idPattern("args")}},
		Body: &ast.BlockStatement{Body: []ast.Statement{
			&ast.ReturnStatement{Argument: lit(1.0)},
		}},
	}

	prog := &ast.Program{Body: []ast.Statement{
		variadic,
		&ast.ExpressionStatement{Expr: &ast.CallExpression{Callee: ident("variadic")}},
	}}

	res, err := it.RunProgram(prog)
	require.NoError(t, err)
	assert.Equal(t, 1.0, res.AsNumber())

	assertCompiled(t, it, "variadic", false)
}

func TestCompile_DirectUnsupportedReasons(t *testing.T) {
	_, err := bytecode.Compile("anon", nil, &ast.BlockStatement{Body: []ast.Statement{
		&ast.SwitchStatement{Discriminant: lit(1.0)},
	}})
	require.Error(t, err)
	var unsupported *bytecode.ErrUnsupported
	assert.ErrorAs(t, err, &unsupported)
}

func TestCompile_PlainArithmeticChunk(t *testing.T) {
	chunk, err := bytecode.Compile("f", []string{"x"}, &ast.BlockStatement{Body: []ast.Statement{
		&ast.ReturnStatement{Argument: &ast.BinaryExpression{
			Operator: "*", Left: ident("x"), Right: lit(2.0),
		}},
	}})
	require.NoError(t, err)
	assert.Equal(t, "f", chunk.Func.Name)
	assert.Equal(t, 1, chunk.Func.ParamCount)
	assert.NotEmpty(t, chunk.Code)
}
