package builtins

import (
	"fmt"
	"strings"
	"time"

	"github.com/joeycumines/jsrt/gc"
	"github.com/joeycumines/jsrt/interp"
	"github.com/joeycumines/jsrt/value"
)

// setupConsole builds the global `console` object: log/info/debug/warn/
// error all write to the same per-runtime Output (no level-based routing),
// plus time/timeEnd/count/group/groupEnd against interp.ConsoleState, which
// is per-Interpreter rather than the process-wide tables the original
// source used.
func setupConsole(it *interp.Interpreter) value.Value {
	obj, h := newPlainObject(it, it.Intrinsics.ObjectProto)

	logLike := func(host value.Host, guard *gc.Guard, this value.Value, args []value.Value) (value.Value, error) {
		parts := make([]string, len(args))
		for i, a := range args {
			s, err := inspect(it, a, 0, map[value.Value]bool{})
			if err != nil {
				return value.Undef, err
			}
			parts[i] = s
		}
		out := it.Intrinsics.Console.Output
		fmt.Fprintln(out, strings.Repeat("  ", it.Intrinsics.Console.GroupDepth)+strings.Join(parts, " "))
		return value.Undef, nil
	}
	for _, name := range []string{"log", "info", "debug", "warn", "error", "trace"} {
		method(it, obj, name, 0, logLike)
	}

	method(it, obj, "assert", 2, func(host value.Host, guard *gc.Guard, this value.Value, args []value.Value) (value.Value, error) {
		if toBool(argAt(args, 0)) {
			return value.Undef, nil
		}
		rest := args
		if len(rest) > 0 {
			rest = rest[1:]
		}
		return logLike(host, guard, this, append([]value.Value{str(it, "Assertion failed:")}, rest...))
	})

	method(it, obj, "group", 0, func(host value.Host, guard *gc.Guard, this value.Value, args []value.Value) (value.Value, error) {
		if _, err := logLike(host, guard, this, args); err != nil {
			return value.Undef, err
		}
		it.Intrinsics.Console.GroupDepth++
		return value.Undef, nil
	})
	method(it, obj, "groupEnd", 0, func(host value.Host, guard *gc.Guard, this value.Value, args []value.Value) (value.Value, error) {
		if it.Intrinsics.Console.GroupDepth > 0 {
			it.Intrinsics.Console.GroupDepth--
		}
		return value.Undef, nil
	})

	method(it, obj, "time", 1, func(host value.Host, guard *gc.Guard, this value.Value, args []value.Value) (value.Value, error) {
		label, err := consoleLabel(it, args)
		if err != nil {
			return value.Undef, err
		}
		it.Intrinsics.Console.Timers[label] = time.Now().UnixNano()
		return value.Undef, nil
	})

	method(it, obj, "timeEnd", 1, func(host value.Host, guard *gc.Guard, this value.Value, args []value.Value) (value.Value, error) {
		label, err := consoleLabel(it, args)
		if err != nil {
			return value.Undef, err
		}
		start, ok := it.Intrinsics.Console.Timers[label]
		if !ok {
			return value.Undef, nil
		}
		delete(it.Intrinsics.Console.Timers, label)
		elapsed := time.Duration(time.Now().UnixNano() - start)
		fmt.Fprintf(it.Intrinsics.Console.Output, "%s: %s\n", label, elapsed)
		return value.Undef, nil
	})

	method(it, obj, "count", 1, func(host value.Host, guard *gc.Guard, this value.Value, args []value.Value) (value.Value, error) {
		label, err := consoleLabel(it, args)
		if err != nil {
			return value.Undef, err
		}
		it.Intrinsics.Console.Counts[label]++
		fmt.Fprintf(it.Intrinsics.Console.Output, "%s: %d\n", label, it.Intrinsics.Console.Counts[label])
		return value.Undef, nil
	})

	method(it, obj, "countReset", 1, func(host value.Host, guard *gc.Guard, this value.Value, args []value.Value) (value.Value, error) {
		label, err := consoleLabel(it, args)
		if err != nil {
			return value.Undef, err
		}
		delete(it.Intrinsics.Console.Counts, label)
		return value.Undef, nil
	})

	return value.NewObject(h)
}

func consoleLabel(it *interp.Interpreter, args []value.Value) (string, error) {
	v := argAt(args, 0)
	if v.IsUndefined() {
		return "default", nil
	}
	return strArg(it, v)
}

func toBool(v value.Value) bool {
	switch v.Kind() {
	case value.Undefined, value.Null:
		return false
	case value.Boolean:
		return v.AsBool()
	case value.Number:
		n := v.AsNumber()
		return n != 0 && n == n
	case value.String:
		return v.AsString().Content() != ""
	default:
		return true
	}
}

// inspect renders v the way console.log displays it: a bare string at
// depth 0 (matching `console.log("x")` printing x, not "x"), quoted
// strings once nested inside an object/array, and a cycle-safe recursive
// walk of object/array contents (nesting depth is not limited).
func inspect(it *interp.Interpreter, v value.Value, depth int, seen map[value.Value]bool) (string, error) {
	switch v.Kind() {
	case value.Undefined:
		return "undefined", nil
	case value.Null:
		return "null", nil
	case value.Boolean:
		if v.AsBool() {
			return "true", nil
		}
		return "false", nil
	case value.Number:
		return value.NumberToString(v.AsNumber()), nil
	case value.SymbolKind:
		return v.AsSymbol().String(), nil
	case value.String:
		if depth == 0 {
			return v.AsString().Content(), nil
		}
		return "'" + v.AsString().Content() + "'", nil
	case value.ObjectKind:
		if seen[v] {
			return "[Circular]", nil
		}
		o := it.Object(v.AsObject())
		if o == nil {
			return "[Object]", nil
		}
		switch o.Exotic {
		case value.FunctionKind:
			name := ""
			if o.Function != nil {
				name = o.Function.Name
			}
			if name == "" {
				return "[Function (anonymous)]", nil
			}
			return "[Function: " + name + "]", nil
		case value.ArrayKind:
			seen[v] = true
			defer delete(seen, v)
			parts := make([]string, o.Array.Length)
			for i := range parts {
				elem, err := it.GetProperty(v.AsObject(), value.NewIndexKey(uint32(i)))
				if err != nil {
					return "", err
				}
				s, err := inspect(it, elem, depth+1, seen)
				if err != nil {
					return "", err
				}
				parts[i] = s
			}
			return "[ " + strings.Join(parts, ", ") + " ]", nil
		default:
			seen[v] = true
			defer delete(seen, v)
			var parts []string
			for _, k := range o.OwnKeys() {
				if k.Kind() == value.KeySymbol {
					continue
				}
				p, ok := o.GetOwn(k)
				if !ok || !p.Enumerable {
					continue
				}
				var fv value.Value
				if p.IsAccessor() {
					fv = str(it, "[Getter]")
				} else {
					fv = p.Val
				}
				s, err := inspect(it, fv, depth+1, seen)
				if err != nil {
					return "", err
				}
				parts = append(parts, k.String()+": "+s)
			}
			if len(parts) == 0 {
				return "{}", nil
			}
			return "{ " + strings.Join(parts, ", ") + " }", nil
		}
	default:
		return "", nil
	}
}
