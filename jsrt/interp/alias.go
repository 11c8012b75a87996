package interp

import (
	"github.com/joeycumines/jsrt/ast"
	"github.com/joeycumines/jsrt/gc"
)

// Local aliases keep the rest of this package's signatures terse; the
// underlying types are jsrt/ast's.
type (
	Statement  = ast.Statement
	Expression = ast.Expression
	Pattern    = ast.Pattern
	gcHandle   = gc.Handle
)

func emptyHandle() gc.Handle { return gc.Handle{} }
