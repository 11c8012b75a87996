package interp

import (
	"github.com/joeycumines/jsrt/ast"
	"github.com/joeycumines/jsrt/env"
	"github.com/joeycumines/jsrt/gc"
	"github.com/joeycumines/jsrt/jserr"
	"github.com/joeycumines/jsrt/value"
)

// Module is a single provided source's state: its own module-scope
// environment, the set of names it exports (exported name -> local
// binding name in Env), any re-exports it forwards from other sources,
// and the namespace object `import * as ns` resolves to.
type Module struct {
	Source string
	Env env.Env
	Evaluated bool
	Exports map[string]string
	reExports []reExportEntry
	Namespace value.Value
}

type reExportEntry struct {
	source string
	local string // "*" for `export * from`, else the remote exported name
	exported string // name visible from this module; "" for a bare `export *`
}

func (it *Interpreter) moduleRegistry() map[string]*Module {
	if it.modules == nil {
		it.modules = map[string]*Module{}
	}
	return it.modules
}

// Module looks up a previously provided module by source name.
func (it *Interpreter) Module(source string) (*Module, bool) {
	mod, ok := it.moduleRegistry()[source]
	return mod, ok
}

// ProvideModule implements the provide_module: compile prog as a
// module body against a fresh module-scope environment (a child of the
// global environment, following the usual habit of running top-level
// script code directly in it.Global), then hoist and evaluate its
// statements. The module is registered before evaluation runs so a cycle
// (a module that imports, directly or transitively, a source still in the
// middle of being evaluated) resolves against its not-yet-fully-populated
// namespace instead of recursing.
func (it *Interpreter) ProvideModule(source string, prog *ast.Program) error {
	reg := it.moduleRegistry()
	if _, exists := reg[source]; exists {
		return jserr.ModuleErr("module %q already provided", source)
	}

	modEnv := env.New(it.Heap_, it.Heap_.RootGuard(), it.Global)
	mod := &Module{Source: source, Env: modEnv, Exports: map[string]string{}}
	reg[source] = mod

	prevModule := it.currentModule
	it.currentModule = mod
	defer func() { it.currentModule = prevModule }()

	it.hoist(prog.Body, modEnv, true)

	for _, stmt := range prog.Body {
		c, err := it.execStmt(stmt, modEnv)
		if err != nil {
			return it.jsErrToThrow(err)
		}
		if c.Kind == Throw {
			return it.ThrowValue(c.Value)
		}
	}

	mod.Evaluated = true
	it.buildNamespace(mod)
	return nil
}

// GetExport looks up a single named export of a previously provided
// module, for the host (see jsrt/scheduler) rather than an `import`
// statement — the same resolveExport machinery backs both.
func (it *Interpreter) GetExport(source, name string) (value.Value, error) {
	mod, ok := it.Module(source)
	if !ok {
		return value.Undef, it.ThrowValue(it.errorValue("ModuleError", "module %q has not been provided", source))
	}
	return it.resolveExport(mod, name)
}

// GetExportNames lists every name a module exposes under `import *`, for
// the host.
func (it *Interpreter) GetExportNames(source string) ([]string, error) {
	mod, ok := it.Module(source)
	if !ok {
		return nil, it.ThrowValue(it.errorValue("ModuleError", "module %q has not been provided", source))
	}
	return it.exportedNames(mod), nil
}

// linkImport implements the import linking: resolve st.Source
// against the module registry and bind each specifier into scope. A
// missing source is reported as a ModuleError rather than the NeedImports
// signal this module describes at the host-scheduler level (see jsrt/scheduler)
// — the host is expected to call ProvideModule for every static import
// before running the importing module's body.
func (it *Interpreter) linkImport(st *ast.ImportDeclaration, scope env.Env) error {
	mod, ok := it.Module(st.Source)
	if !ok {
		return it.ThrowValue(it.errorValue("ModuleError", "module %q has not been provided", st.Source))
	}

	for _, spec := range st.Specifiers {
		switch {
		case spec.Namespace:
			if !mod.Namespace.IsObject() {
				it.buildNamespace(mod)
			}
			if err := scope.Define(it.Heap_, spec.Local, mod.Namespace, false, true); err != nil {
				return it.jsErrToThrow(err)
			}
		case spec.Default:
			v, err := it.resolveExport(mod, "default")
			if err != nil {
				return err
			}
			if derr := scope.Define(it.Heap_, spec.Local, v, false, true); derr != nil {
				return it.jsErrToThrow(derr)
			}
		default:
			v, err := it.resolveExport(mod, spec.Imported)
			if err != nil {
				return err
			}
			if derr := scope.Define(it.Heap_, spec.Local, v, false, true); derr != nil {
				return it.jsErrToThrow(derr)
			}
		}
	}
	return nil
}

// resolveExport reads the current value of a module's export by name,
// following a chain of re-exports (`export { x } from "other"` / `export *
// from "other"`) when the name is not bound directly. Each named import
// snapshots the value at link time rather than tracking a live binding —
// a documented simplification from true ES module live bindings, which
// would require aliasing across Environment objects that jsrt/env does not
// support today (the namespace object, built by buildNamespace, does stay
// live since its properties are accessors).
func (it *Interpreter) resolveExport(mod *Module, name string) (value.Value, error) {
	if local, ok := mod.Exports[name]; ok {
		v, err := mod.Env.Get(it.Heap_, local, false)
		if err != nil {
			return value.Undef, it.jsErrToThrow(err)
		}
		return v, nil
	}
	for _, re := range mod.reExports {
		if re.local == "*" {
			continue
		}
		if re.exported != name {
			continue
		}
		remote, ok := it.Module(re.source)
		if !ok {
			return value.Undef, it.ThrowValue(it.errorValue("ModuleError", "module %q has not been provided", re.source))
		}
		return it.resolveExport(remote, re.local)
	}
	for _, re := range mod.reExports {
		if re.local != "*" {
			continue
		}
		remote, ok := it.Module(re.source)
		if !ok {
			continue
		}
		if v, err := it.resolveExport(remote, name); err == nil {
			return v, nil
		}
	}
	return value.Undef, it.ThrowValue(it.errorValue("SyntaxError", "module %q has no export named %q", mod.Source, name))
}

// exportedNames flattens everything a module makes available under
// import *: its own direct exports plus whatever its wildcard re-exports
// currently expose, skipping "default" per this module's `export *` semantics.
func (it *Interpreter) exportedNames(mod *Module) []string {
	seen := map[string]bool{}
	var names []string
	add := func(n string) {
		if n == "default" || seen[n] {
			return
		}
		seen[n] = true
		names = append(names, n)
	}
	for n := range mod.Exports {
		add(n)
	}
	for _, re := range mod.reExports {
		if re.local == "*" {
			if remote, ok := it.Module(re.source); ok {
				for _, n := range it.exportedNames(remote) {
					add(n)
				}
			}
			continue
		}
		add(re.exported)
	}
	return names
}

// buildNamespace builds (or rebuilds) mod's `import * as ns` object: a
// null-prototype object, frozen against further property addition, whose
// own properties are accessor pairs that call back into resolveExport on
// every read so a namespace read always reflects the export's current
// value even though individual named-import bindings do not.
func (it *Interpreter) buildNamespace(mod *Module) {
	ns := value.NewOrdinary()
	ns.SetNullProto()
	for _, name := range it.exportedNames(mod) {
		exportName := name
		getter := it.NewNativeFunction("", 0, func(host value.Host, guard *gc.Guard, this value.Value, args []value.Value) (value.Value, error) {
			return it.resolveExport(mod, exportName)
		})
		key := value.NewStringKey(it.Intern_, exportName)
		ns.DefineOwn(key, value.Property{HasGet: true, Get: getter.AsObject(), Enumerable: true, Configurable: false})
	}
	ns.Extensible = false
	ns.Frozen = true
	h := it.Heap_.Alloc(it.Heap_.RootGuard(), ns)
	mod.Namespace = value.NewObject(h)
}

func declaredNames(st ast.Statement) []string {
	switch s := st.(type) {
	case *ast.FunctionDeclaration:
		return []string{s.Name}
	case *ast.ClassDeclaration:
		return []string{s.Name}
	case *ast.VariableDeclaration:
		var names []string
		for _, d := range s.Declarations {
			if p, ok := d.ID.(ast.Pattern); ok {
				names = append(names, patternBoundNames(p)...)
			}
		}
		return names
	}
	return nil
}

func patternBoundNames(p ast.Pattern) []string {
	switch pt := p.(type) {
	case *ast.IdentifierPattern:
		return []string{pt.Name}
	case *ast.ObjectPattern:
		var names []string
		for _, prop := range pt.Props {
			names = append(names, patternBoundNames(prop.Value)...)
		}
		if pt.Rest != nil {
			names = append(names, patternBoundNames(pt.Rest)...)
		}
		return names
	case *ast.ArrayPattern:
		var names []string
		for _, el := range pt.Elements {
			if el != nil {
				names = append(names, patternBoundNames(el)...)
			}
		}
		if pt.Rest != nil {
			names = append(names, patternBoundNames(pt.Rest)...)
		}
		return names
	case *ast.AssignmentPattern:
		return patternBoundNames(pt.Left)
	case *ast.RestPattern:
		return patternBoundNames(pt.Argument)
	}
	return nil
}

// execExport implements the export statement forms. Executed
// inside ProvideModule (it.currentModule set), it both runs the wrapped
// declaration (so `export function f{}` defines f in the module scope
// exactly as a bare declaration would) and records the export mapping.
// Outside a module (it.currentModule nil, i.e. a plain script/eval), the
// wrapped declaration still runs but no export bookkeeping happens since
// there is no namespace for it to populate.
func (it *Interpreter) execExport(st *ast.ExportDeclaration, scope env.Env) (Completion, error) {
	mod := it.currentModule

	switch {
	case st.All:
		if mod != nil {
			mod.reExports = append(mod.reExports, reExportEntry{source: st.Source, local: "*", exported: st.AllAs})
		}
		return normal(value.Undef), nil

	case st.Source != "" && len(st.Specifiers) > 0:
		if mod != nil {
			for _, sp := range st.Specifiers {
				mod.reExports = append(mod.reExports, reExportEntry{source: st.Source, local: sp.Local, exported: sp.Exported})
			}
		}
		return normal(value.Undef), nil

	case len(st.Specifiers) > 0:
		if mod != nil {
			for _, sp := range st.Specifiers {
				mod.Exports[sp.Exported] = sp.Local
			}
		}
		return normal(value.Undef), nil

	case st.Default:
		if st.DefaultExpr != nil {
			v, err := it.evalExpr(st.DefaultExpr, scope)
			if err != nil {
				return Completion{}, err
			}
			if scope.HasOwn(it.Heap_, "*default*") {
				_ = scope.Set(it.Heap_, "*default*", v)
			} else {
				_ = scope.Define(it.Heap_, "*default*", v, true, true)
			}
			if mod != nil {
				mod.Exports["default"] = "*default*"
			}
			return normal(value.Undef), nil
		}
		if st.Declaration != nil {
			c, err := it.execStmt(st.Declaration, scope)
			if err != nil {
				return c, err
			}
			if names := declaredNames(st.Declaration); len(names) > 0 && mod != nil {
				mod.Exports["default"] = names[0]
			}
			return c, nil
		}
		return normal(value.Undef), nil

	case st.Declaration != nil:
		c, err := it.execStmt(st.Declaration, scope)
		if err != nil {
			return c, err
		}
		if mod != nil {
			for _, name := range declaredNames(st.Declaration) {
				mod.Exports[name] = name
			}
		}
		return c, nil
	}
	return normal(value.Undef), nil
}
