package builtins

import (
	"encoding/json"
	"strings"

	"github.com/joeycumines/jsrt/gc"
	"github.com/joeycumines/jsrt/interp"
	"github.com/joeycumines/jsrt/value"
)

// setupJSON builds the global `JSON` object. parse delegates structural
// decoding to encoding/json (no JS-specific grammar extensions to worry
// about) and walks the resulting interface{} tree into jsrt Values;
// stringify walks the Value tree directly, since encoding/json has no
// notion of our GC-managed Object shape.
func setupJSON(it *interp.Interpreter) value.Value {
	obj, h := newPlainObject(it, it.Intrinsics.ObjectProto)

	method(it, obj, "parse", 2, func(host value.Host, guard *gc.Guard, this value.Value, args []value.Value) (value.Value, error) {
		s, err := strArg(it, argAt(args, 0))
		if err != nil {
			return value.Undef, err
		}
		var decoded any
		if err := json.Unmarshal([]byte(s), &decoded); err != nil {
			return value.Undef, it.ThrowValue(errorObj(it, "SyntaxError", "Unexpected token in JSON: "+err.Error()))
		}
		return jsonToValue(it, decoded), nil
	})

	method(it, obj, "stringify", 3, func(host value.Host, guard *gc.Guard, this value.Value, args []value.Value) (value.Value, error) {
		v := argAt(args, 0)
		indent := ""
		if indentArg := argAt(args, 2); indentArg.IsNumber() {
			n := int(indentArg.AsNumber())
			if n > 10 {
				n = 10
			}
			if n > 0 {
				indent = strings.Repeat(" ", n)
			}
		} else if indentArg.IsString() {
			indent = indentArg.AsString().Content()
			if len(indent) > 10 {
				indent = indent[:10]
			}
		}
		var b strings.Builder
		ok, err := stringifyValue(it, &b, v, indent, "")
		if err != nil {
			return value.Undef, err
		}
		if !ok {
			return value.Undef, nil
		}
		return str(it, b.String()), nil
	})

	return value.NewObject(h)
}

func jsonToValue(it *interp.Interpreter, v any) value.Value {
	switch x := v.(type) {
	case nil:
		return value.Nul
	case bool:
		return value.NewBool(x)
	case float64:
		return value.NewNumber(x)
	case string:
		return str(it, x)
	case []any:
		items := make([]value.Value, len(x))
		for i, e := range x {
			items[i] = jsonToValue(it, e)
		}
		return arrayOf(it, items)
	case map[string]any:
		o, h := newPlainObject(it, it.Intrinsics.ObjectProto)
		for k, e := range x {
			dataProp(o, key(it, k), jsonToValue(it, e), true, true, true)
		}
		return value.NewObject(h)
	default:
		return value.Undef
	}
}

// stringifyValue writes v's JSON text to b at the given nesting depth
// (curIndent is the indentation already applied to the enclosing
// container). Returns ok=false when v serializes to "nothing" — undefined,
// a function, or a symbol — matching JSON.stringify's documented holes.
func stringifyValue(it *interp.Interpreter, b *strings.Builder, v value.Value, indent, curIndent string) (bool, error) {
	switch v.Kind() {
	case value.Undefined, value.SymbolKind:
		return false, nil
	case value.Null:
		b.WriteString("null")
		return true, nil
	case value.Boolean:
		if v.AsBool() {
			b.WriteString("true")
		} else {
			b.WriteString("false")
		}
		return true, nil
	case value.Number:
		n := v.AsNumber()
		if n != n || n > 1.7976931348623157e+308 || n < -1.7976931348623157e+308 {
			b.WriteString("null")
			return true, nil
		}
		b.WriteString(value.NumberToString(n))
		return true, nil
	case value.String:
		writeJSONString(b, v.AsString().Content())
		return true, nil
	case value.ObjectKind:
		o := it.Object(v.AsObject())
		if o == nil {
			return false, nil
		}
		if o.Exotic == value.FunctionKind {
			return false, nil
		}
		if toJSON, err := it.GetProperty(v.AsObject(), key(it, "toJSON")); err == nil && toJSON.IsObject() {
			if inner := it.Object(toJSON.AsObject()); inner != nil && inner.Exotic == value.FunctionKind {
				replaced, err := it.Call(toJSON, v, nil)
				if err != nil {
					return false, err
				}
				return stringifyValue(it, b, replaced, indent, curIndent)
			}
		}
		if o.Exotic == value.ArrayKind {
			return stringifyArray(it, b, o, v, indent, curIndent)
		}
		return stringifyObject(it, b, o, indent, curIndent)
	default:
		return false, nil
	}
}

func stringifyArray(it *interp.Interpreter, b *strings.Builder, o *value.Object, v value.Value, indent, curIndent string) (bool, error) {
	nextIndent := curIndent + indent
	n := int(o.Array.Length)
	b.WriteByte('[')
	for i := 0; i < n; i++ {
		if i > 0 {
			b.WriteByte(',')
		}
		newlineIndent(b, indent, nextIndent)
		elem, _ := it.GetProperty(v.AsObject(), value.NewIndexKey(uint32(i)))
		ok, err := stringifyValue(it, b, elem, indent, nextIndent)
		if err != nil {
			return false, err
		}
		if !ok {
			b.WriteString("null")
		}
	}
	if n > 0 {
		newlineIndent(b, indent, curIndent)
	}
	b.WriteByte(']')
	return true, nil
}

func stringifyObject(it *interp.Interpreter, b *strings.Builder, o *value.Object, indent, curIndent string) (bool, error) {
	nextIndent := curIndent + indent
	b.WriteByte('{')
	first := true
	for _, k := range o.OwnKeys() {
		if k.Kind() == value.KeySymbol {
			continue
		}
		p, ok := o.GetOwn(k)
		if !ok || !p.Enumerable {
			continue
		}
		var fieldVal value.Value
		var err error
		if p.IsAccessor() {
			if !p.HasGet {
				continue
			}
			fieldVal, err = it.Call(value.NewObject(p.Get), value.Undef, nil)
			if err != nil {
				return false, err
			}
		} else {
			fieldVal = p.Val
		}
		var fb strings.Builder
		wrote, err := stringifyValue(it, &fb, fieldVal, indent, nextIndent)
		if err != nil {
			return false, err
		}
		if !wrote {
			continue
		}
		if !first {
			b.WriteByte(',')
		}
		first = false
		newlineIndent(b, indent, nextIndent)
		writeJSONString(b, k.String())
		b.WriteByte(':')
		if indent != "" {
			b.WriteByte(' ')
		}
		b.WriteString(fb.String())
	}
	if !first {
		newlineIndent(b, indent, curIndent)
	}
	b.WriteByte('}')
	return true, nil
}

func newlineIndent(b *strings.Builder, indent, level string) {
	if indent == "" {
		return
	}
	b.WriteByte('\n')
	b.WriteString(level)
}

func writeJSONString(b *strings.Builder, s string) {
	encoded, _ := json.Marshal(s)
	b.Write(encoded)
}
