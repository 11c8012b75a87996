package scheduler

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joeycumines/jsrt/ast"
	"github.com/joeycumines/jsrt/builtins"
	"github.com/joeycumines/jsrt/interp"
	"github.com/joeycumines/jsrt/value"
)

func newInterp(t *testing.T) *interp.Interpreter {
	t.Helper()
	it := interp.New(0)
	builtins.Setup(it)
	return it
}

func TestScheduler_ScriptCompletion(t *testing.T) {
	it := newInterp(t)
	s := New(it)

	prog := &ast.Program{
		Body: []ast.Statement{
			&ast.ExpressionStatement{Expr: &ast.Literal{Value: 42.0}},
		},
	}

	res := s.Prepare("main", prog)
	require.Equal(t, Continue, res.Kind)

	res, err := s.Step()
	require.NoError(t, err)
	require.Equal(t, Complete, res.Kind)
	assert.True(t, res.Value.IsNumber())
	assert.Equal(t, 42.0, res.Value.AsNumber())
	assert.Equal(t, StateDone, s.State())

	// Stepping again after completion is idempotent.
	res2, err := s.Step()
	require.NoError(t, err)
	assert.Equal(t, res, res2)
}

func TestScheduler_ModuleNeedImportsThenDone(t *testing.T) {
	it := newInterp(t)
	s := New(it)

	entry := &ast.Program{
		Module: true,
		Body: []ast.Statement{
			&ast.ImportDeclaration{
				Specifiers: []ast.ImportSpecifier{{Imported: "x", Local: "x"}},
				Source:     "dep",
			},
			&ast.ExportDeclaration{
				Declaration: &ast.VariableDeclaration{
					Kind: ast.Const,
					Declarations: []ast.VariableDeclarator{{
						ID:   &ast.IdentifierPattern{Name: "y"},
						Init: &ast.Identifier{Name: "x"},
					}},
				},
			},
		},
	}

	res := s.Prepare("entry", entry)
	require.Equal(t, NeedImports, res.Kind)
	require.Len(t, res.Imports, 1)
	assert.Equal(t, "dep", res.Imports[0].Specifier)

	res, err := s.Step()
	require.NoError(t, err)
	require.Equal(t, NeedImports, res.Kind)
	require.Len(t, res.Imports, 1)
	assert.Equal(t, "dep", res.Imports[0].Specifier)

	dep := &ast.Program{
		Module: true,
		Body: []ast.Statement{
			&ast.ExportDeclaration{
				Declaration: &ast.VariableDeclaration{
					Kind: ast.Const,
					Declarations: []ast.VariableDeclarator{{
						ID:   &ast.IdentifierPattern{Name: "x"},
						Init: &ast.Literal{Value: 10.0},
					}},
				},
			},
		},
	}
	s.ProvideModule("dep", dep)

	res, err = s.Step()
	require.NoError(t, err)
	assert.Equal(t, Done, res.Kind)

	y, err := s.GetExport("entry", "y")
	require.NoError(t, err)
	require.True(t, y.IsNumber())
	assert.Equal(t, 10.0, y.AsNumber())

	names, err := s.GetExportNames("entry")
	require.NoError(t, err)
	assert.Equal(t, []string{"y"}, names)
}

func TestScheduler_OrderFulfillAndSuspended(t *testing.T) {
	it := newInterp(t)
	s := New(it)

	prog := &ast.Program{Body: []ast.Statement{&ast.ExpressionStatement{Expr: &ast.Literal{Value: 1.0}}}}
	require.Equal(t, Continue, s.Prepare("main", prog).Kind)

	promise, id := s.NewOrder()
	require.True(t, promise.IsObject())

	res, err := s.Step()
	require.NoError(t, err)
	require.Equal(t, Suspended, res.Kind)
	require.Equal(t, []uint64{id}, res.Pending)

	require.NoError(t, s.FulfillOrder(id, value.NewString(it.Intern().GetOrInsert("done")), false))

	res, err = s.Step()
	require.NoError(t, err)
	assert.Equal(t, Complete, res.Kind)
}

func TestScheduler_RaceCancelsLoser(t *testing.T) {
	it := newInterp(t)
	s := New(it)

	prog := &ast.Program{Body: []ast.Statement{&ast.ExpressionStatement{Expr: &ast.Literal{Value: 1.0}}}}
	require.Equal(t, Continue, s.Prepare("main", prog).Kind)

	// Both orders must exist before the first Step, which is what runs
	// the program and would otherwise declare it Complete immediately
	// (nothing was outstanding yet).
	winner, winnerID := s.NewOrder()
	loser, loserID := s.NewOrder()
	it.PromiseRace([]value.Value{winner, loser})

	res, err := s.Step()
	require.NoError(t, err)
	require.Equal(t, Suspended, res.Kind)
	assert.ElementsMatch(t, []uint64{winnerID, loserID}, res.Pending)

	require.NoError(t, s.FulfillOrder(winnerID, value.NewNumber(1), false))

	// The reaction that detects the loser only runs as a microtask, which
	// only the next Step drains.
	res, err = s.Step()
	require.NoError(t, err)
	assert.Contains(t, res.Cancelled, loserID)
	assert.NotContains(t, res.Pending, loserID)

	// Fulfilling the already-cancelled loser is a harmless no-op.
	require.NoError(t, s.FulfillOrder(loserID, value.NewNumber(2), false))
}

func TestScheduler_Timeout(t *testing.T) {
	it := newInterp(t)
	s := New(it)
	s.SetTimeout(time.Nanosecond)

	prog := &ast.Program{Body: []ast.Statement{&ast.ExpressionStatement{Expr: &ast.Literal{Value: 1.0}}}}
	s.Prepare("main", prog)
	time.Sleep(time.Millisecond)

	_, err := s.Step()
	require.Error(t, err)
}
