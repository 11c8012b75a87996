package builtins

import (
	"math"
	"math/rand"

	"github.com/joeycumines/jsrt/gc"
	"github.com/joeycumines/jsrt/interp"
	"github.com/joeycumines/jsrt/value"
)

// setupMath builds the global `Math` object, grounded on
// original_source/src/interpreter/builtins/math.rs's function-by-function
// layout: one Go math stdlib call per JS method, plus the constant data
// properties.
func setupMath(it *interp.Interpreter) value.Value {
	obj, h := newPlainObject(it, it.Intrinsics.ObjectProto)

	dataProp(obj, key(it, "PI"), value.NewNumber(math.Pi), false, false, false)
	dataProp(obj, key(it, "E"), value.NewNumber(math.E), false, false, false)
	dataProp(obj, key(it, "LN2"), value.NewNumber(math.Ln2), false, false, false)
	dataProp(obj, key(it, "LN10"), value.NewNumber(math.Log(10)), false, false, false)
	dataProp(obj, key(it, "LOG2E"), value.NewNumber(1/math.Ln2), false, false, false)
	dataProp(obj, key(it, "LOG10E"), value.NewNumber(1/math.Log(10)), false, false, false)
	dataProp(obj, key(it, "SQRT2"), value.NewNumber(math.Sqrt2), false, false, false)
	dataProp(obj, key(it, "SQRT1_2"), value.NewNumber(math.Sqrt(0.5)), false, false, false)

	unary := func(name string, fn func(float64) float64) {
		method(it, obj, name, 1, func(host value.Host, guard *gc.Guard, this value.Value, args []value.Value) (value.Value, error) {
			n, err := numArg(it, argAt(args, 0))
			if err != nil {
				return value.Undef, err
			}
			return value.NewNumber(fn(n)), nil
		})
	}

	unary("abs", math.Abs)
	unary("floor", math.Floor)
	unary("ceil", math.Ceil)
	unary("trunc", math.Trunc)
	unary("sqrt", math.Sqrt)
	unary("cbrt", math.Cbrt)
	unary("sign", func(n float64) float64 {
		switch {
		case n > 0:
			return 1
		case n < 0:
			return -1
		default:
			return n // preserves 0/-0/NaN
		}
	})
	unary("round", func(n float64) float64 {
		if math.IsNaN(n) || math.IsInf(n, 0) {
			return n
		}
		return math.Floor(n + 0.5)
	})
	unary("log", math.Log)
	unary("log2", math.Log2)
	unary("log10", math.Log10)
	unary("log1p", math.Log1p)
	unary("exp", math.Exp)
	unary("expm1", math.Expm1)
	unary("sin", math.Sin)
	unary("cos", math.Cos)
	unary("tan", math.Tan)
	unary("asin", math.Asin)
	unary("acos", math.Acos)
	unary("atan", math.Atan)
	unary("sinh", math.Sinh)
	unary("cosh", math.Cosh)
	unary("tanh", math.Tanh)
	unary("asinh", math.Asinh)
	unary("acosh", math.Acosh)
	unary("atanh", math.Atanh)

	method(it, obj, "pow", 2, func(host value.Host, guard *gc.Guard, this value.Value, args []value.Value) (value.Value, error) {
		base, err := numArg(it, argAt(args, 0))
		if err != nil {
			return value.Undef, err
		}
		exp, err := numArg(it, argAt(args, 1))
		if err != nil {
			return value.Undef, err
		}
		return value.NewNumber(math.Pow(base, exp)), nil
	})

	method(it, obj, "atan2", 2, func(host value.Host, guard *gc.Guard, this value.Value, args []value.Value) (value.Value, error) {
		y, err := numArg(it, argAt(args, 0))
		if err != nil {
			return value.Undef, err
		}
		x, err := numArg(it, argAt(args, 1))
		if err != nil {
			return value.Undef, err
		}
		return value.NewNumber(math.Atan2(y, x)), nil
	})

	method(it, obj, "hypot", 2, func(host value.Host, guard *gc.Guard, this value.Value, args []value.Value) (value.Value, error) {
		sum := 0.0
		for _, a := range args {
			n, err := numArg(it, a)
			if err != nil {
				return value.Undef, err
			}
			sum += n * n
		}
		return value.NewNumber(math.Sqrt(sum)), nil
	})

	variadic := func(name string, fold func(a, b float64) float64, seed float64) {
		method(it, obj, name, 2, func(host value.Host, guard *gc.Guard, this value.Value, args []value.Value) (value.Value, error) {
			if len(args) == 0 {
				return value.NewNumber(seed), nil
			}
			acc := math.NaN()
			for i, a := range args {
				n, err := numArg(it, a)
				if err != nil {
					return value.Undef, err
				}
				if i == 0 {
					acc = n
					continue
				}
				acc = fold(acc, n)
			}
			return value.NewNumber(acc), nil
		})
	}
	variadic("max", math.Max, math.Inf(-1))
	variadic("min", math.Min, math.Inf(1))

	method(it, obj, "random", 0, func(host value.Host, guard *gc.Guard, this value.Value, args []value.Value) (value.Value, error) {
		return value.NewNumber(rand.Float64()), nil
	})

	return value.NewObject(h)
}
