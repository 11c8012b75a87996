package bytecode

import (
	"github.com/joeycumines/jsrt/ast"
	"github.com/joeycumines/jsrt/gc"
	"github.com/joeycumines/jsrt/interp"
)

// Enable wires it.CompileFunction so every freshly built interpreted
// function is attempted for bytecode compilation, falling back silently
// to the tree walker on anything outside the compiled subset. Without
// calling Enable, an Interpreter never compiles — it just runs the tree
// walker for every function, exactly as it did before this package
// existed.
func Enable(it *interp.Interpreter) {
	it.CompileFunction = func(name string, params []ast.Pattern, body *ast.BlockStatement, closureEnv gc.Handle, isArrow bool) any {
		cf, err := TryCompile(name, params, body, closureEnv, isArrow)
		if err != nil {
			return nil
		}
		return cf
	}
}
