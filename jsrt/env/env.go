// Package env implements lexical scopes as GC-managed Environment
// objects, TDZ for let/const, var hoisting, and lookup through the outer
// chain.
package env

import (
	"github.com/joeycumines/jsrt/gc"
	"github.com/joeycumines/jsrt/jserr"
	"github.com/joeycumines/jsrt/value"
)

// Env is a thin handle-oriented wrapper around a value.Object whose
// Exotic kind is EnvironmentKind. Operations are free functions taking
// the heap explicitly, matching jsrt/gc's handle-based API.
type Env struct {
	Handle gc.Handle
}

// New allocates a fresh Environment extending outer (the zero Env{} means
// "no outer", i.e. the global environment).
func New(heap *gc.Heap, g *gc.Guard, outer Env) Env {
	obj := value.NewOrdinary()
	obj.Exotic = value.EnvironmentKind
	obj.Environment = value.NewEnvironmentData()
	if outer.Handle != (gc.Handle{}) {
		obj.Environment.Outer = outer.Handle
		obj.Environment.HasOuter = true
	}
	h := heap.Alloc(g, obj)
	return Env{Handle: h}
}

func (e Env) object(heap *gc.Heap) *value.Object {
	if e.Handle == (gc.Handle{}) {
		return nil
	}
	o, _ := heap.Get(e.Handle).(*value.Object)
	return o
}

// Define creates a new binding in e's own scope. mutable=false models
// `const`; initialized controls TDZ — `let`/`const` start uninitialized,
// `var`/function hoisting start initialized.
func (e Env) Define(heap *gc.Heap, name string, v value.Value, mutable, initialized bool) error {
	obj := e.object(heap)
	if obj == nil {
		return jserr.Internal("define on nil environment")
	}
	if _, exists := obj.Environment.Bindings[name]; exists {
		return jserr.SyntaxError("identifier %q has already been declared", name)
	}
	obj.Environment.Bindings[name] = &value.Binding{Value: v, Mutable: mutable, Initialized: initialized}
	return nil
}

// Initialize marks an existing (TDZ) binding as initialized and sets its
// value — used when a let/const declaration's initializer runs.
func (e Env) Initialize(heap *gc.Heap, name string, v value.Value) error {
	obj := e.object(heap)
	if obj == nil {
		return jserr.Internal("initialize on nil environment")
	}
	b, ok := obj.Environment.Bindings[name]
	if !ok {
		return jserr.Internal("initialize of unknown binding %q", name)
	}
	b.Value = v
	b.Initialized = true
	return nil
}

// Get implements the env_get: walks the outer chain, honoring
// TDZ. asTypeof, when true, returns Undefined instead of a
// ReferenceError for a name that is not found anywhere in the chain
// (JS's `typeof undeclaredVar` special case).
func (e Env) Get(heap *gc.Heap, name string, asTypeof bool) (value.Value, error) {
	for cur := e; cur.Handle != (gc.Handle{}); {
		obj := cur.object(heap)
		if obj == nil {
			break
		}
		if b, ok := obj.Environment.Bindings[name]; ok {
			if !b.Initialized {
				return value.Undef, jserr.ReferenceError("cannot access %q before initialization", name)
			}
			return b.Value, nil
		}
		if !obj.Environment.HasOuter {
			break
		}
		cur = Env{Handle: obj.Environment.Outer}
	}
	if asTypeof {
		return value.Undef, nil
	}
	return value.Undef, jserr.ReferenceError("%s is not defined", name)
}

// Set implements the env_set: walks the outer chain; rejects
// writes to const bindings with TypeError, and TDZ access with
// ReferenceError,.
func (e Env) Set(heap *gc.Heap, name string, v value.Value) error {
	for cur := e; cur.Handle != (gc.Handle{}); {
		obj := cur.object(heap)
		if obj == nil {
			break
		}
		if b, ok := obj.Environment.Bindings[name]; ok {
			if !b.Initialized {
				return jserr.ReferenceError("cannot access %q before initialization", name)
			}
			if !b.Mutable {
				return jserr.TypeError("assignment to constant variable %q", name)
			}
			b.Value = v
			return nil
		}
		if !obj.Environment.HasOuter {
			break
		}
		cur = Env{Handle: obj.Environment.Outer}
	}
	return jserr.ReferenceError("%s is not defined", name)
}

// Has reports whether name is bound anywhere in e's chain, regardless of
// TDZ state (used by hoisting passes to detect existing var bindings).
func (e Env) Has(heap *gc.Heap, name string) bool {
	for cur := e; cur.Handle != (gc.Handle{}); {
		obj := cur.object(heap)
		if obj == nil {
			break
		}
		if _, ok := obj.Environment.Bindings[name]; ok {
			return true
		}
		if !obj.Environment.HasOuter {
			break
		}
		cur = Env{Handle: obj.Environment.Outer}
	}
	return false
}

// HasOwn reports whether name is bound directly in e (not an ancestor).
func (e Env) HasOwn(heap *gc.Heap, name string) bool {
	obj := e.object(heap)
	if obj == nil {
		return false
	}
	_, ok := obj.Environment.Bindings[name]
	return ok
}

// Outer returns e's parent scope, or the zero Env if e is the root.
func (e Env) Outer(heap *gc.Heap) Env {
	obj := e.object(heap)
	if obj == nil || !obj.Environment.HasOuter {
		return Env{}
	}
	return Env{Handle: obj.Environment.Outer}
}
