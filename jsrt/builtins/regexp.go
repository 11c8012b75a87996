package builtins

import (
	"strings"

	"github.com/dlclark/regexp2"
	"github.com/joeycumines/jsrt/gc"
	"github.com/joeycumines/jsrt/interp"
	"github.com/joeycumines/jsrt/value"
)

func thisRegExp(it *interp.Interpreter, this value.Value) (*value.Object, error) {
	if !this.IsObject() {
		return nil, throwType(it, "RegExp method called on non-object")
	}
	obj := it.Object(this.AsObject())
	if obj == nil || obj.Exotic != value.RegExpKind {
		return nil, throwType(it, "RegExp method called on incompatible receiver")
	}
	return obj, nil
}

// regexpOptions maps the subset of JS flags regexp2 itself understands
// (i/m/s) onto its RegexOptions bitset, always under ECMAScript mode for
// backreference/lookaround parity with the spec rather than .NET regex
// semantics. "g"/"y" (global/sticky) have no regexp2 analogue — they only
// affect how exec/test drive LastIndex below, not compilation.
func regexpOptions(flags string) regexp2.RegexOptions {
	opts := regexp2.RegexOptions(regexp2.ECMAScript)
	for _, f := range flags {
		switch f {
		case 'i':
			opts |= regexp2.IgnoreCase
		case 'm':
			opts |= regexp2.Multiline
		case 's':
			opts |= regexp2.Singleline
		}
	}
	return opts
}

func compileRegExp(it *interp.Interpreter, source, flags string) (*value.Object, gc.Handle, error) {
	compiled, err := regexp2.Compile(source, regexpOptions(flags))
	if err != nil {
		return nil, gc.Handle{}, throwType(it, "Invalid regular expression: %s", err.Error())
	}
	obj := value.NewOrdinary()
	obj.SetProto(it.Intrinsics.RegExpProto)
	obj.Exotic = value.RegExpKind
	obj.RegExp = &value.RegExpData{Source: source, Flags: flags, Compiled: compiled}
	h := it.Heap_.Alloc(it.Guard(), obj)
	dataProp(obj, key(it, "lastIndex"), value.NewNumber(0), true, false, false)
	dataProp(obj, key(it, "source"), str(it, source), false, false, false)
	dataProp(obj, key(it, "flags"), str(it, flags), false, false, false)
	dataProp(obj, key(it, "global"), value.NewBool(strings.ContainsRune(flags, 'g')), false, false, false)
	dataProp(obj, key(it, "ignoreCase"), value.NewBool(strings.ContainsRune(flags, 'i')), false, false, false)
	dataProp(obj, key(it, "multiline"), value.NewBool(strings.ContainsRune(flags, 'm')), false, false, false)
	dataProp(obj, key(it, "sticky"), value.NewBool(strings.ContainsRune(flags, 'y')), false, false, false)
	return obj, h, nil
}

// execRegExp runs re against s starting at startAt (a UTF-16-ignorant
// index in regexp2's rune units — this module's string model is not
// UTF-16-backed, see jsrt/value's string handling), returning nil (no
// match) or a match array whose [0] is the full match and 1..n are the
// capture groups, matching RegExp.prototype.exec's result shape.
func execRegExp(it *interp.Interpreter, obj *value.Object, s string) (value.Value, error) {
	global := obj.RegExp.Flags != "" && strings.ContainsRune(obj.RegExp.Flags, 'g')
	sticky := strings.ContainsRune(obj.RegExp.Flags, 'y')
	startAt := 0
	if global || sticky {
		startAt = obj.RegExp.LastIndex
	}
	if startAt < 0 || startAt > len(s) {
		obj.RegExp.LastIndex = 0
		return value.Nul, nil
	}
	m, err := obj.RegExp.Compiled.FindStringMatchStartingAt(s, startAt)
	if err != nil {
		return value.Undef, throwType(it, "regular expression execution failed: %s", err.Error())
	}
	if m == nil || (sticky && m.Index != startAt) {
		if global || sticky {
			obj.RegExp.LastIndex = 0
		}
		return value.Nul, nil
	}
	if global || sticky {
		next := m.Index + m.Length
		if m.Length == 0 {
			next++
		}
		obj.RegExp.LastIndex = next
	}
	groups := m.Groups()
	items := make([]value.Value, 0, len(groups))
	for _, g := range groups {
		if len(g.Captures) == 0 {
			items = append(items, value.Undef)
			continue
		}
		items = append(items, str(it, g.String()))
	}
	result := arrayOf(it, items)
	resultObj := it.Object(result.AsObject())
	dataProp(resultObj, key(it, "index"), value.NewNumber(float64(m.Index)), true, true, true)
	dataProp(resultObj, key(it, "input"), str(it, s), true, true, true)
	return result, nil
}

// setupRegExpProto installs RegExp.prototype's test/exec/toString, grounded
// on the same receiver-validation and result-shape conventions as
// setupMapProto/setupSetProto, delegating the actual matching to regexp2
// rather than Go's RE2 engine (see jsrt/value/exotic.go's RegExpData).
func setupRegExpProto(it *interp.Interpreter) {
	proto := it.Object(it.Intrinsics.RegExpProto)

	method(it, proto, "exec", 1, func(host value.Host, guard *gc.Guard, this value.Value, args []value.Value) (value.Value, error) {
		obj, err := thisRegExp(it, this)
		if err != nil {
			return value.Undef, err
		}
		s, err := strArg(it, argAt(args, 0))
		if err != nil {
			return value.Undef, err
		}
		return execRegExp(it, obj, s)
	})

	method(it, proto, "test", 1, func(host value.Host, guard *gc.Guard, this value.Value, args []value.Value) (value.Value, error) {
		obj, err := thisRegExp(it, this)
		if err != nil {
			return value.Undef, err
		}
		s, err := strArg(it, argAt(args, 0))
		if err != nil {
			return value.Undef, err
		}
		res, err := execRegExp(it, obj, s)
		if err != nil {
			return value.Undef, err
		}
		return value.NewBool(!res.IsNull()), nil
	})

	method(it, proto, "toString", 0, func(host value.Host, guard *gc.Guard, this value.Value, args []value.Value) (value.Value, error) {
		obj, err := thisRegExp(it, this)
		if err != nil {
			return value.Undef, err
		}
		return str(it, "/"+obj.RegExp.Source+"/"+obj.RegExp.Flags), nil
	})
}

// setupRegExpConstructor builds the global `RegExp` function: `new
// RegExp(pattern, flags)` compiles pattern via regexp2, and re-wraps an
// existing RegExp argument (optionally with overridden flags), per the
// spec's RegExp(pattern, flags) behavior.
func setupRegExpConstructor(it *interp.Interpreter) value.Value {
	ctor := it.NewNativeFunction("RegExp", 2, func(host value.Host, guard *gc.Guard, this value.Value, args []value.Value) (value.Value, error) {
		patternArg := argAt(args, 0)
		flagsArg := argAt(args, 1)

		var source, flags string
		if patternArg.IsObject() {
			if existing := it.Object(patternArg.AsObject()); existing != nil && existing.Exotic == value.RegExpKind {
				source = existing.RegExp.Source
				flags = existing.RegExp.Flags
			}
		}
		if source == "" && !patternArg.IsUndefined() {
			s, err := strArg(it, patternArg)
			if err != nil {
				return value.Undef, err
			}
			source = s
		}
		if !flagsArg.IsUndefined() {
			f, err := strArg(it, flagsArg)
			if err != nil {
				return value.Undef, err
			}
			flags = f
		}

		_, h, err := compileRegExp(it, source, flags)
		if err != nil {
			return value.Undef, err
		}
		return value.NewObject(h), nil
	})
	ctorObj := it.Object(ctor.AsObject())
	dataProp(ctorObj, key(it, "prototype"), value.NewObject(it.Intrinsics.RegExpProto), false, false, false)
	return ctor
}
