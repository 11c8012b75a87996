package jsrt

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joeycumines/jsrt/ast"
)

// literalParser is a stand-in Parser for tests: it ignores the actual
// source text and always returns the same trivial script, since jsrt
// treats the lexer/grammar as an external pluggable collaborator and owns
// none itself.
func literalParser(n float64) Parser {
	return func(source, file string) (*ast.Program, error) {
		return &ast.Program{
			Body: []ast.Statement{&ast.ExpressionStatement{Expr: &ast.Literal{Value: n}}},
		}, nil
	}
}

func TestRuntime_PrepareWithoutParser(t *testing.T) {
	rt := New()
	_, err := rt.Prepare("1", "main.js")
	assert.Error(t, err)
}

func TestRuntime_RunScript(t *testing.T) {
	rt := New(WithParser(literalParser(7)))

	res, err := rt.Prepare("ignored", "main.js")
	require.NoError(t, err)
	require.Equal(t, Continue, res.Kind)

	res, err = rt.Step()
	require.NoError(t, err)
	require.Equal(t, Complete, res.Kind)
	assert.True(t, res.Value.IsNumber())
	assert.Equal(t, 7.0, res.Value.AsNumber())
}

func TestRuntime_GlobalAndIntern(t *testing.T) {
	rt := New()
	assert.True(t, rt.Global().IsObject())
	s := rt.Intern("hello")
	assert.True(t, s.IsString())
}

func TestRuntime_Timeout(t *testing.T) {
	rt := New(WithParser(literalParser(1)), WithTimeout(time.Nanosecond))
	_, err := rt.Prepare("ignored", "main.js")
	require.NoError(t, err)
	time.Sleep(time.Millisecond)
	_, err = rt.Step()
	assert.Error(t, err)
}
