package builtins

import (
	"math"
	"time"

	"github.com/joeycumines/jsrt/gc"
	"github.com/joeycumines/jsrt/interp"
	"github.com/joeycumines/jsrt/value"
)

func thisDate(it *interp.Interpreter, this value.Value) (*value.Object, error) {
	if !this.IsObject() {
		return nil, throwType(it, "Date method called on non-object")
	}
	obj := it.Object(this.AsObject())
	if obj == nil || obj.Exotic != value.DateKind {
		return nil, throwType(it, "Date method called on incompatible receiver")
	}
	return obj, nil
}

// newDate allocates a Date-exotic object holding ms milliseconds since the
// epoch (NaN for Invalid Date, per value.DateData's doc comment).
func newDate(it *interp.Interpreter, ms float64) (*value.Object, gc.Handle) {
	obj := value.NewOrdinary()
	obj.SetProto(it.Intrinsics.DateProto)
	obj.Exotic = value.DateKind
	obj.Date = &value.DateData{MillisSinceEpoch: ms}
	h := it.Heap_.Alloc(it.Guard(), obj)
	return obj, h
}

// dateValueOf composes a (year, month, day, hours, minutes, seconds, ms)
// tuple into milliseconds since epoch, matching the multi-argument `new
// Date(...)` form's UTC interpretation (this module does not model a host
// local timezone — every Date is effectively UTC).
func dateValueOf(year, month, day, hours, minutes, seconds, millis float64) float64 {
	if math.IsNaN(year) || math.IsNaN(month) {
		return math.NaN()
	}
	if year >= 0 && year <= 99 {
		year += 1900
	}
	y, mo := int(year), int(month)
	// Normalize an out-of-range month (e.g. month=13) onto the following
	// year, the way time.Date already does; this just makes it explicit
	// that -Inf/+Inf inputs degrade to NaN rather than a zero time.
	if math.IsInf(day, 0) || math.IsInf(hours, 0) || math.IsInf(minutes, 0) || math.IsInf(seconds, 0) || math.IsInf(millis, 0) {
		return math.NaN()
	}
	t := time.Date(y, time.Month(mo+1), int(day), int(hours), int(minutes), int(seconds), int(millis)*int(time.Millisecond), time.UTC)
	return float64(t.UnixMilli())
}

// parseDateString implements Date.parse's reduced grammar: RFC3339/ISO
// 8601 (the format time.Parse's time.RFC3339 and a handful of common
// variants cover), rather than the full informal Date Time String Format
// a browser engine accepts. Any string this cannot parse is Invalid Date
// (NaN), not a parse error — matching Date.parse's own "return NaN" rather
// than throw contract.
func parseDateString(s string) float64 {
	layouts := []string{
		time.RFC3339Nano,
		time.RFC3339,
		"2006-01-02T15:04:05.999",
		"2006-01-02T15:04:05",
		"2006-01-02T15:04",
		"2006-01-02",
		"2006-01",
		"2006",
	}
	for _, layout := range layouts {
		if t, err := time.Parse(layout, s); err == nil {
			return float64(t.UnixMilli())
		}
	}
	return math.NaN()
}

// setupDateProto installs Date.prototype's getters and conversions,
// following the same receiver-validation convention as setupRegExpProto/
// setupMapProto.
func setupDateProto(it *interp.Interpreter) {
	proto := it.Object(it.Intrinsics.DateProto)

	getTime := func(host value.Host, guard *gc.Guard, this value.Value, args []value.Value) (value.Value, error) {
		obj, err := thisDate(it, this)
		if err != nil {
			return value.Undef, err
		}
		return value.NewNumber(obj.Date.MillisSinceEpoch), nil
	}
	method(it, proto, "getTime", 0, getTime)
	method(it, proto, "valueOf", 0, getTime)

	method(it, proto, "toISOString", 0, func(host value.Host, guard *gc.Guard, this value.Value, args []value.Value) (value.Value, error) {
		obj, err := thisDate(it, this)
		if err != nil {
			return value.Undef, err
		}
		if math.IsNaN(obj.Date.MillisSinceEpoch) {
			return value.Undef, throwRange(it, "invalid date")
		}
		return str(it, obj.Date.Time().Format("2006-01-02T15:04:05.000Z")), nil
	})

	method(it, proto, "toJSON", 0, func(host value.Host, guard *gc.Guard, this value.Value, args []value.Value) (value.Value, error) {
		obj, err := thisDate(it, this)
		if err != nil {
			return value.Undef, err
		}
		if math.IsNaN(obj.Date.MillisSinceEpoch) {
			return value.Nul, nil
		}
		return str(it, obj.Date.Time().Format("2006-01-02T15:04:05.000Z")), nil
	})

	method(it, proto, "toString", 0, func(host value.Host, guard *gc.Guard, this value.Value, args []value.Value) (value.Value, error) {
		obj, err := thisDate(it, this)
		if err != nil {
			return value.Undef, err
		}
		if math.IsNaN(obj.Date.MillisSinceEpoch) {
			return str(it, "Invalid Date"), nil
		}
		return str(it, obj.Date.Time().Format("Mon Jan 02 2006 15:04:05 GMT+0000 (UTC)")), nil
	})

	dateGetter := func(name string, extract func(t time.Time) float64) {
		method(it, proto, name, 0, func(host value.Host, guard *gc.Guard, this value.Value, args []value.Value) (value.Value, error) {
			obj, err := thisDate(it, this)
			if err != nil {
				return value.Undef, err
			}
			if math.IsNaN(obj.Date.MillisSinceEpoch) {
				return value.NaNValue, nil
			}
			return value.NewNumber(extract(obj.Date.Time())), nil
		})
	}
	dateGetter("getFullYear", func(t time.Time) float64 { return float64(t.Year()) })
	dateGetter("getMonth", func(t time.Time) float64 { return float64(t.Month() - 1) })
	dateGetter("getDate", func(t time.Time) float64 { return float64(t.Day()) })
	dateGetter("getDay", func(t time.Time) float64 { return float64(t.Weekday()) })
	dateGetter("getHours", func(t time.Time) float64 { return float64(t.Hour()) })
	dateGetter("getMinutes", func(t time.Time) float64 { return float64(t.Minute()) })
	dateGetter("getSeconds", func(t time.Time) float64 { return float64(t.Second()) })
	dateGetter("getMilliseconds", func(t time.Time) float64 { return float64(t.Nanosecond() / int(time.Millisecond)) })
	// This module has no host-local-timezone concept (every Date is UTC,
	// per dateValueOf/parseDateString), so the UTC getters alias theirs.
	dateGetter("getUTCFullYear", func(t time.Time) float64 { return float64(t.Year()) })
	dateGetter("getUTCMonth", func(t time.Time) float64 { return float64(t.Month() - 1) })
	dateGetter("getUTCDate", func(t time.Time) float64 { return float64(t.Day()) })
	dateGetter("getUTCDay", func(t time.Time) float64 { return float64(t.Weekday()) })
	dateGetter("getUTCHours", func(t time.Time) float64 { return float64(t.Hour()) })
	dateGetter("getUTCMinutes", func(t time.Time) float64 { return float64(t.Minute()) })
	dateGetter("getUTCSeconds", func(t time.Time) float64 { return float64(t.Second()) })
	dateGetter("getUTCMilliseconds", func(t time.Time) float64 { return float64(t.Nanosecond() / int(time.Millisecond)) })

	method(it, proto, "getTimezoneOffset", 0, func(host value.Host, guard *gc.Guard, this value.Value, args []value.Value) (value.Value, error) {
		return value.NewNumber(0), nil
	})
}

// setupDateConstructor builds the global `Date` function: `new Date()`/
// `new Date(ms)`/`new Date(dateString)`/`new Date(year, month, ...)` all
// allocate a fresh DateKind object, per the same this-ignoring convention
// as setupMapConstructor/setupRegExpConstructor; `Date()` called without
// `new` returns the current time formatted like toString, per the
// "Date() called as a function ignores its arguments" behavior.
func setupDateConstructor(it *interp.Interpreter) value.Value {
	ctor := it.NewNativeFunction("Date", 7, func(host value.Host, guard *gc.Guard, this value.Value, args []value.Value) (value.Value, error) {
		if !this.IsObject() {
			t := time.Now().UTC()
			return str(it, t.Format("Mon Jan 02 2006 15:04:05 GMT+0000 (UTC)")), nil
		}

		var ms float64
		switch len(args) {
		case 0:
			ms = float64(time.Now().UnixMilli())
		case 1:
			var existing *value.Object
			if args[0].IsObject() {
				existing = it.Object(args[0].AsObject())
			}
			switch {
			case args[0].IsString():
				ms = parseDateString(args[0].AsString().Content())
			case existing != nil && existing.Exotic == value.DateKind:
				ms = existing.Date.MillisSinceEpoch
			default:
				n, err := numArg(it, args[0])
				if err != nil {
					return value.Undef, err
				}
				ms = n
			}
		default:
			nums := make([]float64, 7)
			nums[2] = 1 // day defaults to 1, every other field defaults to 0
			for i := 0; i < len(args) && i < 7; i++ {
				n, err := numArg(it, args[i])
				if err != nil {
					return value.Undef, err
				}
				nums[i] = n
			}
			ms = dateValueOf(nums[0], nums[1], nums[2], nums[3], nums[4], nums[5], nums[6])
		}

		_, h := newDate(it, ms)
		return value.NewObject(h), nil
	})
	ctorObj := it.Object(ctor.AsObject())
	dataProp(ctorObj, key(it, "prototype"), value.NewObject(it.Intrinsics.DateProto), false, false, false)

	method(it, ctorObj, "now", 0, func(host value.Host, guard *gc.Guard, this value.Value, args []value.Value) (value.Value, error) {
		return value.NewNumber(float64(time.Now().UnixMilli())), nil
	})
	method(it, ctorObj, "parse", 1, func(host value.Host, guard *gc.Guard, this value.Value, args []value.Value) (value.Value, error) {
		s, err := strArg(it, argAt(args, 0))
		if err != nil {
			return value.Undef, err
		}
		return value.NewNumber(parseDateString(s)), nil
	})
	method(it, ctorObj, "UTC", 7, func(host value.Host, guard *gc.Guard, this value.Value, args []value.Value) (value.Value, error) {
		nums := make([]float64, 7)
		nums[2] = 1
		for i := 0; i < len(args) && i < 7; i++ {
			n, err := numArg(it, args[i])
			if err != nil {
				return value.Undef, err
			}
			nums[i] = n
		}
		return value.NewNumber(dateValueOf(nums[0], nums[1], nums[2], nums[3], nums[4], nums[5], nums[6])), nil
	})

	return ctor
}
