package dbfunc

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/docql/docql/collate"
	"github.com/docql/docql/value"
)

func call(t *testing.T, name string, args ...[]value.Value) []value.Value {
	t.Helper()
	d, ok := Lookup(name, len(args))
	require.Truef(t, ok, "expected %s/%d to be registered", name, len(args))
	out, err := d.Run(args, EvalContext{Collation: collate.Invariant})
	require.NoError(t, err)
	return out
}

func seq(vs ...value.Value) []value.Value { return vs }

func TestLookupRejectsBadArity(t *testing.T) {
	_, ok := Lookup("UPPER", 0)
	require.False(t, ok)
	_, ok = Lookup("UPPER", 2)
	require.False(t, ok)
	_, ok = Lookup("NOPE", 1)
	require.False(t, ok)
}

func TestStringFunctions(t *testing.T) {
	require.Equal(t, "ABC", call(t, "UPPER", seq(value.Str("aBc")))[0].AsString())
	require.Equal(t, "abc", call(t, "LOWER", seq(value.Str("aBc")))[0].AsString())
}

func TestLengthVariants(t *testing.T) {
	require.True(t, value.Equal(value.Int64(3), call(t, "LENGTH", seq(value.Str("abc")))[0], collate.Invariant))
	arr := value.NewArray([]value.Value{value.Int64(1), value.Int64(2)})
	require.True(t, value.Equal(value.Int64(2), call(t, "LENGTH", seq(arr))[0], collate.Invariant))
}

func TestSubstring(t *testing.T) {
	out := call(t, "SUBSTRING", seq(value.Str("hello world")), seq(value.Int64(6)))
	require.Equal(t, "world", out[0].AsString())
	out = call(t, "SUBSTRING", seq(value.Str("hello world")), seq(value.Int64(0)), seq(value.Int64(5)))
	require.Equal(t, "hello", out[0].AsString())
}

func TestConcat(t *testing.T) {
	out := call(t, "CONCAT", seq(value.Str("foo")), seq(value.Str("bar")), seq(value.Str("baz")))
	require.Equal(t, "foobarbaz", out[0].AsString())
}

func TestArithmeticFunctions(t *testing.T) {
	require.True(t, value.Equal(value.Int64(5), call(t, "ABS", seq(value.Int64(-5)))[0], collate.Invariant))
	require.True(t, value.Equal(value.Double(3), call(t, "CEILING", seq(value.Double(2.1)))[0], collate.Invariant))
	require.True(t, value.Equal(value.Double(2), call(t, "FLOOR", seq(value.Double(2.9)))[0], collate.Invariant))
}

func TestDateParts(t *testing.T) {
	d := value.DateTime(time.Date(2024, time.March, 15, 10, 30, 0, 0, time.UTC))
	require.True(t, value.Equal(value.Int64(2024), call(t, "YEAR", seq(d))[0], collate.Invariant))
	require.True(t, value.Equal(value.Int64(3), call(t, "MONTH", seq(d))[0], collate.Invariant))
	require.True(t, value.Equal(value.Int64(15), call(t, "DAY", seq(d))[0], collate.Invariant))
}

func TestNowAndTodayAreNonImmutable(t *testing.T) {
	desc, ok := Lookup("NOW", 0)
	require.True(t, ok)
	require.False(t, desc.Immutable(0))
	desc, ok = Lookup("TODAY", 0)
	require.True(t, ok)
	require.False(t, desc.Immutable(0))

	fixed := time.Date(2025, time.June, 1, 12, 0, 0, 0, time.UTC)
	d2, _ := Lookup("TODAY", 0)
	out2, err := d2.Run(nil, EvalContext{Now: func() time.Time { return fixed }})
	require.NoError(t, err)
	require.Equal(t, 0, out2[0].AsTime().Hour())
}

func TestGuidArityDependentImmutability(t *testing.T) {
	desc, ok := Lookup("GUID", 0)
	require.True(t, ok)
	require.False(t, desc.Immutable(0))

	desc, ok = Lookup("GUID", 1)
	require.True(t, ok)
	require.True(t, desc.Immutable(1))

	out := call(t, "GUID", seq(value.Str("c9a646d3-9c61-4cb7-bfcd-ee2522c8f633")))
	require.Equal(t, value.KindGuid, out[0].Kind())
}

func TestObjectIDArityDependentImmutability(t *testing.T) {
	desc, ok := Lookup("OBJECTID", 0)
	require.True(t, ok)
	require.False(t, desc.Immutable(0))

	desc, ok = Lookup("OBJECTID", 1)
	require.True(t, ok)
	require.True(t, desc.Immutable(1))
}

func TestDatetimeAlwaysNonImmutable(t *testing.T) {
	desc, ok := Lookup("DATETIME", 0)
	require.True(t, ok)
	require.False(t, desc.Immutable(0))
	desc, ok = Lookup("DATETIME", 3)
	require.True(t, ok)
	require.False(t, desc.Immutable(3))
}

func TestExistenceFolds(t *testing.T) {
	empty := call(t, "ANY", seq())
	require.False(t, empty[0].AsBool())
	nonEmpty := call(t, "ANY", seq(value.Int64(1)))
	require.True(t, nonEmpty[0].AsBool())

	allTrue := call(t, "ALL", seq(value.Bool(true), value.Bool(true)))
	require.True(t, allTrue[0].AsBool())
	allFalse := call(t, "ALL", seq(value.Bool(true), value.Bool(false)))
	require.False(t, allFalse[0].AsBool())
}

func TestAggregates(t *testing.T) {
	nums := seq(value.Int64(1), value.Int64(2), value.Int64(3))
	require.True(t, value.Equal(value.Int64(3), call(t, "COUNT", nums)[0], collate.Invariant))
	require.Equal(t, "6", call(t, "SUM", nums)[0].Decimal().String())
	require.Equal(t, "2", call(t, "AVG", nums)[0].Decimal().String())
	require.True(t, value.Equal(value.Int64(1), call(t, "MIN", nums)[0], collate.Invariant))
	require.True(t, value.Equal(value.Int64(3), call(t, "MAX", nums)[0], collate.Invariant))
}

func TestArrayFunction(t *testing.T) {
	out := call(t, "ARRAY", seq(value.Int64(1), value.Int64(2)))
	require.Equal(t, value.KindArray, out[0].Kind())
	require.Len(t, out[0].AsArray(), 2)
}
