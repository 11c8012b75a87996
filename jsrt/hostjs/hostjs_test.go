package hostjs_test

import (
	"testing"

	"github.com/dop251/goja"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joeycumines/jsrt"
	"github.com/joeycumines/jsrt/ast"
	"github.com/joeycumines/jsrt/hostjs"
)

func ident(name string) *ast.Identifier { return &ast.Identifier{Name: name} }
func lit(v any) *ast.Literal            { return &ast.Literal{Value: v} }

func newPair(t *testing.T) *hostjs.Runtime {
	t.Helper()
	jr := jsrt.New()
	gr := goja.New()
	rt, err := hostjs.New(jr, gr)
	require.NoError(t, err)
	return rt
}

func TestNew_RejectsNil(t *testing.T) {
	jr := jsrt.New()
	gr := goja.New()

	_, err := hostjs.New(nil, gr)
	assert.Error(t, err)

	_, err = hostjs.New(jr, nil)
	assert.Error(t, err)
}

// TestDiffProgram_MathAgrees hand-builds the jsrt program for
// `Math.max(1, 2, 3)` and compares it against the same expression run
// through goja — both should produce 3.
func TestDiffProgram_MathAgrees(t *testing.T) {
	rt := newPair(t)

	prog := &ast.Program{Body: []ast.Statement{
		&ast.ExpressionStatement{Expr: &ast.CallExpression{
			Callee: &ast.MemberExpression{
				Object:   ident("Math"),
				Property: ident("max"),
			},
			Arguments: []ast.Expression{lit(1.0), lit(2.0), lit(3.0)},
		}},
	}}

	res, err := rt.DiffProgram("math-max", prog, "Math.max(1, 2, 3)")
	require.NoError(t, err)
	require.NoError(t, res.GojaError)
	assert.True(t, res.Match, "jsrt=%v goja=%v", res.JsrtValue, res.GojaValue)
	assert.Equal(t, int64(3), res.GojaValue.Export())
}

// TestDiffProgram_JSONStringifyAgrees compares JSON.stringify of an object
// literal between the two engines.
func TestDiffProgram_JSONStringifyAgrees(t *testing.T) {
	rt := newPair(t)

	obj := &ast.ObjectLiteral{Properties: []ast.ObjectProperty{
		{Key: ident("a"), Value: lit(1.0), Kind: "init"},
		{Key: ident("b"), Value: lit("two"), Kind: "init"},
	}}
	prog := &ast.Program{Body: []ast.Statement{
		&ast.ExpressionStatement{Expr: &ast.CallExpression{
			Callee: &ast.MemberExpression{
				Object:   ident("JSON"),
				Property: ident("stringify"),
			},
			Arguments: []ast.Expression{obj},
		}},
	}}

	res, err := rt.DiffProgram("json-stringify", prog, `JSON.stringify({a: 1, b: "two"})`)
	require.NoError(t, err)
	require.NoError(t, res.GojaError)
	assert.True(t, res.Match, "jsrt=%v goja=%v", res.JsrtValue, res.GojaValue)
}

// TestDiffProgram_ArrayJoinAgrees compares Array.prototype.join semantics.
func TestDiffProgram_ArrayJoinAgrees(t *testing.T) {
	rt := newPair(t)

	arr := &ast.ArrayLiteral{Elements: []ast.Expression{lit(1.0), lit(2.0), lit(3.0)}}
	prog := &ast.Program{Body: []ast.Statement{
		&ast.ExpressionStatement{Expr: &ast.CallExpression{
			Callee: &ast.MemberExpression{
				Object:   arr,
				Property: ident("join"),
			},
			Arguments: []ast.Expression{lit("-")},
		}},
	}}

	res, err := rt.DiffProgram("array-join", prog, `[1, 2, 3].join("-")`)
	require.NoError(t, err)
	require.NoError(t, res.GojaError)
	assert.True(t, res.Match, "jsrt=%v goja=%v", res.JsrtValue, res.GojaValue)
	assert.Equal(t, "1-2-3", res.GojaValue.Export())
}

// TestToGojaFromGoja_RoundTripsPlainValues confirms the conversion helpers
// agree on scalars and a flat object independent of Diff.
func TestToGojaFromGoja_RoundTripsPlainValues(t *testing.T) {
	rt := newPair(t)

	gv := rt.Goja().ToValue(map[string]any{"x": int64(1), "y": "z"})
	jv, err := rt.FromGoja(gv)
	require.NoError(t, err)
	require.True(t, jv.IsObject())

	back, err := rt.ToGoja(jv)
	require.NoError(t, err)
	exported, ok := back.Export().(map[string]any)
	require.True(t, ok)
	assert.Equal(t, float64(1), exported["x"])
	assert.Equal(t, "z", exported["y"])
}
