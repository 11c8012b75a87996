package value

import (
	"github.com/dop251/goja"

	"github.com/joeycumines/jsrt/gc"
)

// ToGoja converts v into a goja.Value for a host that runs jsrt and goja
// side by side (jsrt/hostjs's differential-testing shim). It follows
// goja-protobuf/conversion.go's convention of building a plain Go native
// value (bool/float64/string/map/slice) and handing it to rt.ToValue
// rather than constructing a goja.Object property by property.
//
// Functions convert to a goja-callable wrapper that re-enters h.Call, per
// goja-eventloop/adapter.go's func(call goja.FunctionCall) goja.Value
// pattern; a Go error from h.Call becomes a panic(rt.NewGoError(err)),
// exactly as that file raises errors across the same boundary. Symbols
// have no goja equivalent usable as a round-trippable value here, so
// they convert to their display string ("Symbol(desc)") — lossy, and
// documented as such rather than silently misrepresented as a string
// Value on the way back.
func ToGoja(h Host, rt *goja.Runtime, v Value) (goja.Value, error) {
	switch v.Kind() {
	case Undefined:
		return goja.Undefined(), nil
	case Null:
		return goja.Null(), nil
	}
	native, err := toGoNative(h, rt, v, map[gc.Handle]bool{})
	if err != nil {
		return nil, err
	}
	return rt.ToValue(native), nil
}

func toGoNative(h Host, rt *goja.Runtime, v Value, seen map[gc.Handle]bool) (any, error) {
	switch v.Kind() {
	case Undefined, Null:
		return nil, nil
	case Boolean:
		return v.AsBool(), nil
	case Number:
		return v.AsNumber(), nil
	case String:
		return v.AsString().Content(), nil
	case SymbolKind:
		return v.AsSymbol().String(), nil
	case ObjectKind:
		return objectToGoNative(h, rt, v, seen)
	default:
		return nil, nil
	}
}

func objectToGoNative(h Host, rt *goja.Runtime, v Value, seen map[gc.Handle]bool) (any, error) {
	handle := v.AsObject()
	if seen[handle] {
		// A cycle: goja's own ToValue recursion would stack-overflow on
		// this exact shape, so stop here rather than reproduce the bug.
		return nil, nil
	}
	obj, _ := h.Heap().Get(handle).(*Object)
	if obj == nil {
		return nil, nil
	}
	seen[handle] = true
	defer delete(seen, handle)

	if obj.Exotic == FunctionKind {
		fn := v
		return func(call goja.FunctionCall) goja.Value {
			args := make([]Value, len(call.Arguments))
			for i, a := range call.Arguments {
				hv, err := FromGoja(h, a)
				if err != nil {
					panic(rt.NewGoError(err))
				}
				args[i] = hv
			}
			result, err := h.Call(fn, Undef, args)
			if err != nil {
				panic(rt.NewGoError(err))
			}
			gv, err := ToGoja(h, rt, result)
			if err != nil {
				panic(rt.NewGoError(err))
			}
			return gv
		}, nil
	}

	if obj.Exotic == ArrayKind {
		out := make([]any, obj.Array.Length)
		for i := uint32(0); i < obj.Array.Length; i++ {
			p, ok := obj.GetOwn(NewIndexKey(i))
			if !ok || p.IsAccessor() {
				out[i] = nil
				continue
			}
			elem, err := toGoNative(h, rt, p.Val, seen)
			if err != nil {
				return nil, err
			}
			out[i] = elem
		}
		return out, nil
	}

	out := map[string]any{}
	for _, key := range obj.OwnKeys() {
		if key.Kind() == KeySymbol {
			continue // no JSON/goja-native representation for symbol keys
		}
		p, ok := obj.GetOwn(key)
		if !ok || p.IsAccessor() || !p.Enumerable {
			continue
		}
		elem, err := toGoNative(h, rt, p.Val, seen)
		if err != nil {
			return nil, err
		}
		out[key.String()] = elem
	}
	return out, nil
}

// FromGoja converts a goja.Value into a jsrt Value, via gv.Export() —
// the same stable conversion surface goja-protobuf's gojaToProtoValue
// reads scalars from. Exported maps and slices become fresh Ordinary/
// Array objects with no prototype set (callers that need Array.prototype
// methods or similar on the result should re-home it via their own
// Intrinsics, the way jsrt/interp's own object construction does — this
// function only has a bare Host, not an Interpreter's Intrinsics table).
func FromGoja(h Host, gv goja.Value) (Value, error) {
	if gv == nil || goja.IsUndefined(gv) {
		return Undef, nil
	}
	if goja.IsNull(gv) {
		return Nul, nil
	}
	return goNativeToValue(h, gv.Export())
}

func goNativeToValue(h Host, native any) (Value, error) {
	switch n := native.(type) {
	case nil:
		return Nul, nil
	case bool:
		return NewBool(n), nil
	case int64:
		return NewNumber(float64(n)), nil
	case float64:
		return NewNumber(n), nil
	case string:
		return NewString(h.Intern().GetOrInsert(n)), nil
	case []any:
		obj := NewOrdinary()
		obj.Exotic = ArrayKind
		obj.Array = &ArrayData{}
		handle := h.Heap().Alloc(h.Guard(), obj)
		for i, elem := range n {
			ev, err := goNativeToValue(h, elem)
			if err != nil {
				return Undef, err
			}
			obj.DefineOwn(NewIndexKey(uint32(i)), Property{Val: ev, Writable: true, Enumerable: true, Configurable: true})
		}
		return NewObject(handle), nil
	case map[string]any:
		obj := NewOrdinary()
		handle := h.Heap().Alloc(h.Guard(), obj)
		for k, elem := range n {
			ev, err := goNativeToValue(h, elem)
			if err != nil {
				return Undef, err
			}
			obj.DefineOwn(NewStringKey(h.Intern(), k), Property{Val: ev, Writable: true, Enumerable: true, Configurable: true})
		}
		return NewObject(handle), nil
	default:
		// goja.Export() can also surface *big.Int (BigInt), []byte
		// (ArrayBuffer/TypedArray), time.Time (Date), and func(...) —
		// none of which this interop layer round-trips today; fall
		// back to the Go %v text rather than dropping the value.
		return NewString(h.Intern().GetOrInsert(formatUnsupportedNative(n))), nil
	}
}
