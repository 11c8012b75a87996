// Package builtins installs the Array/Object/String/Number/Boolean/Error/
// Symbol/Promise/Map/Set/Math/JSON/console global surface, grounded
// file-by-file on original_source/src/interpreter/builtins/*.rs
// (array.rs, json.rs, math.rs, global.rs, console.rs, error.rs, set.rs,
// promise.rs).
package builtins

import (
	"math"

	"github.com/joeycumines/jsrt/gc"
	"github.com/joeycumines/jsrt/interp"
	"github.com/joeycumines/jsrt/value"
)

// Setup wires every intrinsic prototype and global binding onto a freshly
// constructed *interp.Interpreter. Allocation order matters: ObjectProto
// must exist before FunctionProto (its own prototype), and every other
// prototype must exist before its setupXProto call, since method/
// NewNativeFunction proto every function it creates onto
// Intrinsics.FunctionProto.
func Setup(it *interp.Interpreter) {
	heap := it.Heap_
	root := heap.RootGuard()

	objProto := value.NewOrdinary()
	it.Intrinsics.ObjectProto = heap.Alloc(root, objProto)

	funcProto := value.NewOrdinary()
	funcProto.SetProto(it.Intrinsics.ObjectProto)
	funcProto.Exotic = value.FunctionKind
	funcProto.Function = &value.FunctionData{
		Tag:    value.FuncNative,
		Native: func(value.Host, *gc.Guard, value.Value, []value.Value) (value.Value, error) { return value.Undef, nil },
		Name:   "",
	}
	it.Intrinsics.FunctionProto = heap.Alloc(root, funcProto)

	for _, h := range []*gc.Handle{
		&it.Intrinsics.ArrayProto, &it.Intrinsics.StringProto, &it.Intrinsics.NumberProto,
		&it.Intrinsics.BooleanProto, &it.Intrinsics.ErrorProto, &it.Intrinsics.SymbolProto,
		&it.Intrinsics.PromiseProto, &it.Intrinsics.GeneratorProto, &it.Intrinsics.MapProto,
		&it.Intrinsics.SetProto, &it.Intrinsics.RegExpProto, &it.Intrinsics.DateProto,
	} {
		obj := value.NewOrdinary()
		obj.SetProto(it.Intrinsics.ObjectProto)
		*h = heap.Alloc(root, obj)
	}

	setupObjectProto(it)
	setupFunctionProto(it)
	setupArrayProto(it)
	setupStringProto(it)
	setupNumberProto(it)
	setupBooleanProto(it)
	setupErrorProto(it)
	setupSymbolProto(it)
	setupPromiseProto(it)
	setupGeneratorProto(it)
	setupMapProto(it)
	setupSetProto(it)
	setupRegExpProto(it)
	setupDateProto(it)

	globals := map[string]value.Value{
		"Object":   setupObjectConstructor(it),
		"Array":    setupArrayConstructor(it),
		"String":   setupStringConstructor(it),
		"Number":   setupNumberConstructor(it),
		"Boolean":  setupBooleanConstructor(it),
		"Symbol":   setupSymbolConstructor(it),
		"Promise":  setupPromiseConstructor(it),
		"Map":      setupMapConstructor(it),
		"Set":      setupSetConstructor(it),
		"RegExp":   setupRegExpConstructor(it),
		"Date":     setupDateConstructor(it),
		"Math":     setupMath(it),
		"JSON":     setupJSON(it),
		"console":  setupConsole(it),
		"NaN":      value.NaNValue,
		"Infinity": value.NewNumber(math.Inf(1)),
	}
	for name, ctor := range setupErrorConstructors(it) {
		globals[name] = ctor
	}
	globals["parseInt"] = it.NewNativeFunction("parseInt", 2, jsParseInt(it))
	globals["parseFloat"] = it.NewNativeFunction("parseFloat", 1, jsParseFloat(it))
	globals["isNaN"] = it.NewNativeFunction("isNaN", 1, func(host value.Host, guard *gc.Guard, this value.Value, args []value.Value) (value.Value, error) {
		n, err := numArg(it, argAt(args, 0))
		if err != nil {
			return value.Undef, err
		}
		return value.NewBool(math.IsNaN(n)), nil
	})
	globals["isFinite"] = it.NewNativeFunction("isFinite", 1, func(host value.Host, guard *gc.Guard, this value.Value, args []value.Value) (value.Value, error) {
		n, err := numArg(it, argAt(args, 0))
		if err != nil {
			return value.Undef, err
		}
		return value.NewBool(!math.IsNaN(n) && !math.IsInf(n, 0)), nil
	})

	globalThis := value.NewObject(it.GlobalObj)
	globals["globalThis"] = globalThis

	globalObj := it.Object(it.GlobalObj)
	globalObj.SetProto(it.Intrinsics.ObjectProto)
	for name, v := range globals {
		_ = it.Global.Define(heap, name, v, false, true)
		dataProp(globalObj, key(it, name), v, true, false, true)
	}
	_ = it.Global.Define(heap, "undefined", value.Undef, false, true)
}
