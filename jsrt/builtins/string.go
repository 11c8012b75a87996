package builtins

import (
	"strings"

	"github.com/joeycumines/jsrt/gc"
	"github.com/joeycumines/jsrt/interp"
	"github.com/joeycumines/jsrt/value"
)

// thisString coerces this to a content string, the way every
// String.prototype method does (allowing both the primitive-wrapped and
// plain string receiver shapes this module's scenarios use).
func thisString(it *interp.Interpreter, this value.Value) (string, error) {
	return strArg(it, this)
}

// setupStringProto installs the subset of String.prototype this module's
// worked examples exercise: split/join round-trips, template-literal
// adjacent concatenation checks, and iteration via Symbol.iterator.
func setupStringProto(it *interp.Interpreter) {
	proto := it.Object(it.Intrinsics.StringProto)

	method(it, proto, "charAt", 1, func(host value.Host, guard *gc.Guard, this value.Value, args []value.Value) (value.Value, error) {
		s, err := thisString(it, this)
		if err != nil {
			return value.Undef, err
		}
		runes := []rune(s)
		i := int(argAt(args, 0).AsNumber())
		if i < 0 || i >= len(runes) {
			return str(it, ""), nil
		}
		return str(it, string(runes[i])), nil
	})

	method(it, proto, "indexOf", 1, func(host value.Host, guard *gc.Guard, this value.Value, args []value.Value) (value.Value, error) {
		s, err := thisString(it, this)
		if err != nil {
			return value.Undef, err
		}
		sub, err := strArg(it, argAt(args, 0))
		if err != nil {
			return value.Undef, err
		}
		return value.NewNumber(float64(strings.Index(s, sub))), nil
	})

	method(it, proto, "includes", 1, func(host value.Host, guard *gc.Guard, this value.Value, args []value.Value) (value.Value, error) {
		s, err := thisString(it, this)
		if err != nil {
			return value.Undef, err
		}
		sub, err := strArg(it, argAt(args, 0))
		if err != nil {
			return value.Undef, err
		}
		return value.NewBool(strings.Contains(s, sub)), nil
	})

	method(it, proto, "slice", 2, func(host value.Host, guard *gc.Guard, this value.Value, args []value.Value) (value.Value, error) {
		s, err := thisString(it, this)
		if err != nil {
			return value.Undef, err
		}
		runes := []rune(s)
		start, end := sliceBounds(len(runes), argAt(args, 0), argAt(args, 1))
		return str(it, string(runes[start:end])), nil
	})

	method(it, proto, "split", 2, func(host value.Host, guard *gc.Guard, this value.Value, args []value.Value) (value.Value, error) {
		s, err := thisString(it, this)
		if err != nil {
			return value.Undef, err
		}
		sepArg := argAt(args, 0)
		if sepArg.IsUndefined() {
			return arrayOf(it, []value.Value{str(it, s)}), nil
		}
		sep, err := strArg(it, sepArg)
		if err != nil {
			return value.Undef, err
		}
		var parts []string
		if sep == "" {
			for _, r := range s {
				parts = append(parts, string(r))
			}
		} else {
			parts = strings.Split(s, sep)
		}
		items := make([]value.Value, len(parts))
		for i, p := range parts {
			items[i] = str(it, p)
		}
		return arrayOf(it, items), nil
	})

	method(it, proto, "trim", 0, func(host value.Host, guard *gc.Guard, this value.Value, args []value.Value) (value.Value, error) {
		s, err := thisString(it, this)
		if err != nil {
			return value.Undef, err
		}
		return str(it, strings.TrimSpace(s)), nil
	})

	method(it, proto, "toUpperCase", 0, func(host value.Host, guard *gc.Guard, this value.Value, args []value.Value) (value.Value, error) {
		s, err := thisString(it, this)
		if err != nil {
			return value.Undef, err
		}
		return str(it, strings.ToUpper(s)), nil
	})

	method(it, proto, "toLowerCase", 0, func(host value.Host, guard *gc.Guard, this value.Value, args []value.Value) (value.Value, error) {
		s, err := thisString(it, this)
		if err != nil {
			return value.Undef, err
		}
		return str(it, strings.ToLower(s)), nil
	})

	method(it, proto, "replace", 2, func(host value.Host, guard *gc.Guard, this value.Value, args []value.Value) (value.Value, error) {
		s, err := thisString(it, this)
		if err != nil {
			return value.Undef, err
		}
		pat, err := strArg(it, argAt(args, 0))
		if err != nil {
			return value.Undef, err
		}
		repl, err := strArg(it, argAt(args, 1))
		if err != nil {
			return value.Undef, err
		}
		return str(it, strings.Replace(s, pat, repl, 1)), nil
	})

	method(it, proto, "repeat", 1, func(host value.Host, guard *gc.Guard, this value.Value, args []value.Value) (value.Value, error) {
		s, err := thisString(it, this)
		if err != nil {
			return value.Undef, err
		}
		n := int(argAt(args, 0).AsNumber())
		if n < 0 {
			return value.Undef, throwRange(it, "Invalid count value")
		}
		return str(it, strings.Repeat(s, n)), nil
	})

	method(it, proto, "concat", 1, func(host value.Host, guard *gc.Guard, this value.Value, args []value.Value) (value.Value, error) {
		s, err := thisString(it, this)
		if err != nil {
			return value.Undef, err
		}
		for _, a := range args {
			piece, err := strArg(it, a)
			if err != nil {
				return value.Undef, err
			}
			s += piece
		}
		return str(it, s), nil
	})

	method(it, proto, "toString", 0, func(host value.Host, guard *gc.Guard, this value.Value, args []value.Value) (value.Value, error) {
		return this, nil
	})

	methodSymbol(it, proto, it.Intrinsics.SymbolIterator, "[Symbol.iterator]", 0, func(host value.Host, guard *gc.Guard, this value.Value, args []value.Value) (value.Value, error) {
		return it.StringIterator(this), nil
	})
}

// setupStringConstructor builds the String constructor (String(x) coerces
// via ToString; no primitive-wrapper object support, matching this
// engine's simplified string-value model).
func setupStringConstructor(it *interp.Interpreter) value.Value {
	ctor := it.NewNativeFunction("String", 1, func(host value.Host, guard *gc.Guard, this value.Value, args []value.Value) (value.Value, error) {
		if len(args) == 0 {
			return str(it, ""), nil
		}
		s, err := strArg(it, args[0])
		if err != nil {
			return value.Undef, err
		}
		return str(it, s), nil
	})
	ctorObj := it.Object(ctor.AsObject())
	dataProp(ctorObj, key(it, "prototype"), value.NewObject(it.Intrinsics.StringProto), false, false, false)

	method(it, ctorObj, "fromCharCode", 1, func(host value.Host, guard *gc.Guard, this value.Value, args []value.Value) (value.Value, error) {
		var b strings.Builder
		for _, a := range args {
			b.WriteRune(rune(int(a.AsNumber())))
		}
		return str(it, b.String()), nil
	})

	return ctor
}
