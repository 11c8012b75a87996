package builtins

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joeycumines/jsrt/gc"
	"github.com/joeycumines/jsrt/interp"
	"github.com/joeycumines/jsrt/value"
)

func newInterp(t *testing.T) *interp.Interpreter {
	t.Helper()
	it := interp.New(0)
	Setup(it)
	return it
}

func global(t *testing.T, it *interp.Interpreter, name string) value.Value {
	t.Helper()
	v, err := it.Global.Get(it.Heap_, name, false)
	require.NoError(t, err)
	return v
}

func getMethod(t *testing.T, it *interp.Interpreter, obj value.Value, name string) value.Value {
	t.Helper()
	require.True(t, obj.IsObject())
	v, err := it.GetProperty(obj.AsObject(), key(it, name))
	require.NoError(t, err)
	return v
}

func TestGlobal_MathMax(t *testing.T) {
	it := newInterp(t)
	math := global(t, it, "Math")
	max := getMethod(t, it, math, "max")

	res, err := it.Call(max, value.Undef, []value.Value{value.NewNumber(1), value.NewNumber(5), value.NewNumber(3)})
	require.NoError(t, err)
	assert.Equal(t, 5.0, res.AsNumber())
}

func TestGlobal_JSONRoundTrip(t *testing.T) {
	it := newInterp(t)
	json := global(t, it, "JSON")
	stringify := getMethod(t, it, json, "stringify")
	parse := getMethod(t, it, json, "parse")

	obj, h := newPlainObject(it, it.Intrinsics.ObjectProto)
	dataProp(obj, key(it, "a"), value.NewNumber(1), true, true, true)

	s, err := it.Call(stringify, value.Undef, []value.Value{value.NewObject(h)})
	require.NoError(t, err)
	require.True(t, s.IsString())

	back, err := it.Call(parse, value.Undef, []value.Value{s})
	require.NoError(t, err)
	require.True(t, back.IsObject())

	a, err := it.GetProperty(back.AsObject(), key(it, "a"))
	require.NoError(t, err)
	assert.Equal(t, 1.0, a.AsNumber())
}

func TestGlobal_MapBasics(t *testing.T) {
	it := newInterp(t)
	mapCtor := global(t, it, "Map")

	m, err := it.Construct(mapCtor, nil)
	require.NoError(t, err)

	set := getMethod(t, it, m, "set")
	get := getMethod(t, it, m, "get")
	has := getMethod(t, it, m, "has")

	_, err = it.Call(set, m, []value.Value{str(it, "k"), value.NewNumber(9)})
	require.NoError(t, err)

	v, err := it.Call(get, m, []value.Value{str(it, "k")})
	require.NoError(t, err)
	assert.Equal(t, 9.0, v.AsNumber())

	h, err := it.Call(has, m, []value.Value{str(it, "missing")})
	require.NoError(t, err)
	assert.False(t, h.AsBool())
}

func TestGlobal_SetBasics(t *testing.T) {
	it := newInterp(t)
	setCtor := global(t, it, "Set")

	s, err := it.Construct(setCtor, nil)
	require.NoError(t, err)

	add := getMethod(t, it, s, "add")
	has := getMethod(t, it, s, "has")

	_, err = it.Call(add, s, []value.Value{value.NewNumber(1)})
	require.NoError(t, err)

	got, err := it.Call(has, s, []value.Value{value.NewNumber(1)})
	require.NoError(t, err)
	assert.True(t, got.AsBool())
}

func TestGlobal_PromiseResolveThen(t *testing.T) {
	it := newInterp(t)
	promiseCtor := global(t, it, "Promise")
	resolve := getMethod(t, it, promiseCtor, "resolve")

	p, err := it.Call(resolve, value.Undef, []value.Value{value.NewNumber(42)})
	require.NoError(t, err)

	then := getMethod(t, it, p, "then")
	var seen value.Value
	onFulfilled := it.NewNativeFunction("", 1, func(host value.Host, guard *gc.Guard, this value.Value, args []value.Value) (value.Value, error) {
		if len(args) > 0 {
			seen = args[0]
		}
		return value.Undef, nil
	})
	_, err = it.Call(then, p, []value.Value{onFulfilled})
	require.NoError(t, err)

	it.DrainJobs()
	require.True(t, seen.IsNumber())
	assert.Equal(t, 42.0, seen.AsNumber())
}

func TestGlobal_DateBasics(t *testing.T) {
	it := newInterp(t)
	dateCtor := global(t, it, "Date")

	d, err := it.Construct(dateCtor, []value.Value{value.NewNumber(0)})
	require.NoError(t, err)
	require.True(t, d.IsObject())
	obj := it.Object(d.AsObject())
	require.Equal(t, value.DateKind, obj.Exotic)

	getTime := getMethod(t, it, d, "getTime")
	ms, err := it.Call(getTime, d, nil)
	require.NoError(t, err)
	assert.Equal(t, 0.0, ms.AsNumber())

	getFullYear := getMethod(t, it, d, "getFullYear")
	year, err := it.Call(getFullYear, d, nil)
	require.NoError(t, err)
	assert.Equal(t, 1970.0, year.AsNumber())

	toISOString := getMethod(t, it, d, "toISOString")
	iso, err := it.Call(toISOString, d, nil)
	require.NoError(t, err)
	assert.Equal(t, "1970-01-01T00:00:00.000Z", iso.AsString().Content())
}

func TestGlobal_DateParseAndInvalid(t *testing.T) {
	it := newInterp(t)
	dateCtor := global(t, it, "Date")

	d, err := it.Construct(dateCtor, []value.Value{str(it, "2024-03-15T12:00:00.000Z")})
	require.NoError(t, err)
	getTime := getMethod(t, it, d, "getTime")
	ms, err := it.Call(getTime, d, nil)
	require.NoError(t, err)
	assert.NotEqual(t, 0.0, ms.AsNumber())

	invalid, err := it.Construct(dateCtor, []value.Value{str(it, "not a date")})
	require.NoError(t, err)
	invalidMs, err := it.Call(getTime, invalid, nil)
	require.NoError(t, err)
	assert.True(t, invalidMs.AsNumber() != invalidMs.AsNumber(), "expected NaN")

	toISOString := getMethod(t, it, invalid, "toISOString")
	_, err = it.Call(toISOString, invalid, nil)
	require.Error(t, err)
}

func TestGlobal_DateNoNewCallFormatsString(t *testing.T) {
	it := newInterp(t)
	dateCtor := global(t, it, "Date")
	res, err := it.Call(dateCtor, value.Undef, nil)
	require.NoError(t, err)
	require.True(t, res.IsString())
}

func TestGlobal_ErrorConstructors(t *testing.T) {
	it := newInterp(t)
	for _, name := range errorNames {
		ctor := global(t, it, name)
		require.True(t, ctor.IsObject(), name)
		v, err := it.Construct(ctor, []value.Value{str(it, "boom")})
		require.NoError(t, err)
		msg, err := it.GetProperty(v.AsObject(), key(it, "message"))
		require.NoError(t, err)
		assert.Equal(t, "boom", msg.AsString().Content())
	}
}
