package scheduler

import "github.com/joeycumines/jsrt/ast"

// scanImportSources collects every module specifier prog's top level
// statically references, from `import... from "x"` and from re-export
// forms (`export { a } from "x"`, `export * from "x"`), deduplicated.
// Dynamic import is out of scope: the grammar jsrt/ast models has no
// such expression node, matching this module's static-module-graph scope.
func scanImportSources(prog *ast.Program) []string {
	seen := map[string]bool{}
	var out []string
	add := func(src string) {
		if src == "" || seen[src] {
			return
		}
		seen[src] = true
		out = append(out, src)
	}
	for _, stmt := range prog.Body {
		switch st := stmt.(type) {
		case *ast.ImportDeclaration:
			add(st.Source)
		case *ast.ExportDeclaration:
			add(st.Source)
		}
	}
	return out
}
