package builtins

import (
	"math"
	"strconv"
	"strings"

	"github.com/joeycumines/jsrt/gc"
	"github.com/joeycumines/jsrt/interp"
	"github.com/joeycumines/jsrt/value"
)

func setupNumberProto(it *interp.Interpreter) {
	proto := it.Object(it.Intrinsics.NumberProto)

	method(it, proto, "toFixed", 1, func(host value.Host, guard *gc.Guard, this value.Value, args []value.Value) (value.Value, error) {
		n, err := numArg(it, this)
		if err != nil {
			return value.Undef, err
		}
		digits := 0
		if len(args) > 0 {
			digits = int(argAt(args, 0).AsNumber())
		}
		return str(it, strconv.FormatFloat(n, 'f', digits, 64)), nil
	})

	method(it, proto, "toString", 1, func(host value.Host, guard *gc.Guard, this value.Value, args []value.Value) (value.Value, error) {
		n, err := numArg(it, this)
		if err != nil {
			return value.Undef, err
		}
		if radixArg := argAt(args, 0); !radixArg.IsUndefined() {
			radix := int(radixArg.AsNumber())
			if radix != 10 {
				return str(it, strconv.FormatInt(int64(n), radix)), nil
			}
		}
		return str(it, value.NumberToString(n)), nil
	})

	method(it, proto, "valueOf", 0, func(host value.Host, guard *gc.Guard, this value.Value, args []value.Value) (value.Value, error) {
		n, err := numArg(it, this)
		if err != nil {
			return value.Undef, err
		}
		return value.NewNumber(n), nil
	})
}

// setupNumberConstructor builds the Number constructor, Number.isInteger/
// isFinite/isNaN/parseFloat/parseInt, and the MAX_SAFE_INTEGER/EPSILON
// static data properties, grounded on global.rs's parseInt/parseFloat/
// isNaN/isFinite registration pattern (all four also get installed as
// plain globals by global.go, matching non-strict JS's historical
// global-function shape).
func setupNumberConstructor(it *interp.Interpreter) value.Value {
	ctor := it.NewNativeFunction("Number", 1, func(host value.Host, guard *gc.Guard, this value.Value, args []value.Value) (value.Value, error) {
		if len(args) == 0 {
			return value.NewNumber(0), nil
		}
		n, err := numArg(it, args[0])
		if err != nil {
			return value.Undef, err
		}
		return value.NewNumber(n), nil
	})
	ctorObj := it.Object(ctor.AsObject())
	dataProp(ctorObj, key(it, "prototype"), value.NewObject(it.Intrinsics.NumberProto), false, false, false)
	dataProp(ctorObj, key(it, "MAX_SAFE_INTEGER"), value.NewNumber(9007199254740991), false, false, false)
	dataProp(ctorObj, key(it, "MIN_SAFE_INTEGER"), value.NewNumber(-9007199254740991), false, false, false)
	dataProp(ctorObj, key(it, "EPSILON"), value.NewNumber(2.220446049250313e-16), false, false, false)
	dataProp(ctorObj, key(it, "POSITIVE_INFINITY"), value.NewNumber(math.Inf(1)), false, false, false)
	dataProp(ctorObj, key(it, "NEGATIVE_INFINITY"), value.NewNumber(math.Inf(-1)), false, false, false)
	dataProp(ctorObj, key(it, "NaN"), value.NaNValue, false, false, false)

	method(it, ctorObj, "isInteger", 1, func(host value.Host, guard *gc.Guard, this value.Value, args []value.Value) (value.Value, error) {
		v := argAt(args, 0)
		if !v.IsNumber() {
			return value.False, nil
		}
		n := v.AsNumber()
		return value.NewBool(!math.IsNaN(n) && !math.IsInf(n, 0) && n == math.Trunc(n)), nil
	})

	method(it, ctorObj, "isFinite", 1, func(host value.Host, guard *gc.Guard, this value.Value, args []value.Value) (value.Value, error) {
		v := argAt(args, 0)
		if !v.IsNumber() {
			return value.False, nil
		}
		n := v.AsNumber()
		return value.NewBool(!math.IsNaN(n) && !math.IsInf(n, 0)), nil
	})

	method(it, ctorObj, "isNaN", 1, func(host value.Host, guard *gc.Guard, this value.Value, args []value.Value) (value.Value, error) {
		v := argAt(args, 0)
		return value.NewBool(v.IsNumber() && math.IsNaN(v.AsNumber())), nil
	})

	method(it, ctorObj, "parseFloat", 1, jsParseFloat(it))
	method(it, ctorObj, "parseInt", 2, jsParseInt(it))

	return ctor
}

func jsParseFloat(it *interp.Interpreter) value.NativeFunc {
	return func(host value.Host, guard *gc.Guard, this value.Value, args []value.Value) (value.Value, error) {
		s, err := strArg(it, argAt(args, 0))
		if err != nil {
			return value.Undef, err
		}
		s = strings.TrimSpace(s)
		end := 0
		for end < len(s) && strings.ContainsRune("+-0123456789.eE", rune(s[end])) {
			end++
		}
		for end > 0 {
			if n, err := strconv.ParseFloat(s[:end], 64); err == nil {
				return value.NewNumber(n), nil
			}
			end--
		}
		return value.NaNValue, nil
	}
}

func jsParseInt(it *interp.Interpreter) value.NativeFunc {
	return func(host value.Host, guard *gc.Guard, this value.Value, args []value.Value) (value.Value, error) {
		s, err := strArg(it, argAt(args, 0))
		if err != nil {
			return value.Undef, err
		}
		s = strings.TrimSpace(s)
		radix := 10
		if r := argAt(args, 1); !r.IsUndefined() {
			radix = int(r.AsNumber())
			if radix == 0 {
				radix = 10
			}
		}
		neg := false
		if strings.HasPrefix(s, "-") {
			neg = true
			s = s[1:]
		} else if strings.HasPrefix(s, "+") {
			s = s[1:]
		}
		if (radix == 16 || radix == 10) && (strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X")) {
			s = s[2:]
			radix = 16
		}
		end := 0
		for end < len(s) {
			_, err := strconv.ParseInt(s[:end+1], radix, 64)
			if err != nil {
				break
			}
			end++
		}
		if end == 0 {
			return value.NaNValue, nil
		}
		n, _ := strconv.ParseInt(s[:end], radix, 64)
		if neg {
			n = -n
		}
		return value.NewNumber(float64(n)), nil
	}
}
