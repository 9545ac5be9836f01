package compile

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/docql/docql/ast"
	"github.com/docql/docql/value"
)

func mustCompile(t *testing.T, source string) *Expression {
	t.Helper()
	e, err := Compile(source)
	require.NoError(t, err)
	return e
}

func TestCompileCachesByNormalizedSource(t *testing.T) {
	a := mustCompile(t, "1+1")
	b := mustCompile(t, "1 + 1")
	require.Same(t, a, b)
}

func TestFieldsSimplePath(t *testing.T) {
	e := mustCompile(t, "$.Items[*].Type")
	require.ElementsMatch(t, []string{"Items"}, e.Fields)
}

func TestFieldsFilterAndAll(t *testing.T) {
	e := mustCompile(t, "Items[$.Root = 1].Type all = Age")
	require.ElementsMatch(t, []string{"Items", "Root", "Age"}, e.Fields)
}

func TestFieldsMapProjectionNotTransparentOutward(t *testing.T) {
	// @ reached inside the projection contributes no field of its own;
	// only the source side (Items) does.
	e := mustCompile(t, "MAP($.Items[*] => @.Price)")
	require.ElementsMatch(t, []string{"Items"}, e.Fields)
}

func TestIsImmutableCallWithVolatileArg(t *testing.T) {
	e := mustCompile(t, "_id + DAY(NOW())")
	require.False(t, e.IsImmutable)
}

func TestIsImmutableDocumentOfImmutableParts(t *testing.T) {
	e := mustCompile(t, "{ a: 1, n: UPPER(name) }")
	require.True(t, e.IsImmutable)
}

func TestTypePrecedence(t *testing.T) {
	e := mustCompile(t, "(1 + 1) / 3")
	require.Equal(t, ast.KindDivide, e.Type)

	e2 := mustCompile(t, "1 + 1 / 3")
	require.Equal(t, ast.KindAdd, e2.Type)
}

func TestPathIsAlwaysImmutable(t *testing.T) {
	e := mustCompile(t, "$.name")
	require.True(t, e.IsImmutable)
}

func TestParameterIsNotImmutable(t *testing.T) {
	e := mustCompile(t, "@0")
	require.False(t, e.IsImmutable)
}

func TestNormalizeRoundTrip(t *testing.T) {
	sources := []string{
		"1+1",
		"items[*].id any=5",
		"a.b.c",
		"$.x between 1 and 10",
		"UPPER(name) = \"A\"",
		"{a:1,b:[1,2,3]}",
		"x like \"a%\" and y in [1,2]",
		"*.x",
	}
	for _, s := range sources {
		e := mustCompile(t, s)
		e2 := mustCompile(t, e.Source)
		require.Equal(t, e.Source, e2.Source)
	}
}

func TestNormalizeSourceFieldLowersToMap(t *testing.T) {
	e := mustCompile(t, "*.x")
	require.Equal(t, "MAP(*=>@.x)", e.Source)
}

func TestSourceFieldAccessIsNotScalar(t *testing.T) {
	e := mustCompile(t, "*.x")
	require.False(t, e.IsScalar)
	require.True(t, e.UsesSource)
}

func TestNormalizeQuantifierBeforeComparisonSymbol(t *testing.T) {
	e := mustCompile(t, "items[*].id any=5")
	require.Equal(t, "MAP($.items[*]=>@.id) ANY=5", e.Source)
}

func TestCompileForIndexRejectsParameters(t *testing.T) {
	_, err := CompileForIndex("@0")
	require.Error(t, err)
}

func TestCompileForIndexRejectsUserCalls(t *testing.T) {
	_, err := CompileForIndex("UPPER(name)")
	require.Error(t, err)
}

func TestCompileForIndexRejectsSource(t *testing.T) {
	_, err := CompileForIndex("*")
	require.Error(t, err)
}

func TestCompileForIndexAllowsPathsAndFilters(t *testing.T) {
	_, err := CompileForIndex("items[name = 1].id")
	require.NoError(t, err)

	_, err = CompileForIndex("$.a.b")
	require.NoError(t, err)

	_, err = CompileForIndex("{a: $.x, b: [$.y, 1]}")
	require.NoError(t, err)
}

func TestEvaluateArithmeticWidening(t *testing.T) {
	e := mustCompile(t, "1 + 1.5")
	out, err := e.Evaluate(Env{})
	require.NoError(t, err)
	require.Len(t, out, 1)
	require.Equal(t, "2.5", out[0].Decimal().String())
}

func TestEvaluateStringConcat(t *testing.T) {
	e := mustCompile(t, "\"foo\" + \"bar\"")
	out, err := e.Evaluate(Env{})
	require.NoError(t, err)
	require.Equal(t, "foobar", out[0].AsString())
}

func TestEvaluateDivisionByZeroIsNull(t *testing.T) {
	e := mustCompile(t, "1 / 0")
	out, err := e.Evaluate(Env{})
	require.NoError(t, err)
	require.True(t, out[0].IsNull())
}

func TestEvaluatePathScalarMissingFieldIsNull(t *testing.T) {
	e := mustCompile(t, "$.missing")
	root := value.NewDocument(value.DocOf("present", value.Int64(1)))
	out, err := e.ExecuteScalar(root, nil, nil)
	require.NoError(t, err)
	require.True(t, out.IsNull())
}

func TestEvaluatePathSequenceSkipsMissing(t *testing.T) {
	e := mustCompile(t, "$.items[*].name")
	items := value.NewArray([]value.Value{
		value.NewDocument(value.DocOf("name", value.Str("a"))),
		value.NewDocument(value.DocOf("other", value.Int64(1))),
		value.NewDocument(value.DocOf("name", value.Str("c"))),
	})
	root := value.NewDocument(value.DocOf("items", items))
	out, err := e.Evaluate(Env{Root: root, Current: root})
	require.NoError(t, err)
	require.Len(t, out, 2)
	require.Equal(t, "a", out[0].AsString())
	require.Equal(t, "c", out[1].AsString())
}

func TestEvaluateAnyAllQuantifiers(t *testing.T) {
	items := value.NewArray([]value.Value{value.Int64(1), value.Int64(2), value.Int64(3)})
	root := value.NewDocument(value.DocOf("items", items))

	anyE := mustCompile(t, "$.items[*] any = 2")
	out, err := anyE.Evaluate(Env{Root: root, Current: root})
	require.NoError(t, err)
	require.True(t, out[0].AsBool())

	allE := mustCompile(t, "$.items[*] all > 0")
	out, err = allE.Evaluate(Env{Root: root, Current: root})
	require.NoError(t, err)
	require.True(t, out[0].AsBool())

	allFalseE := mustCompile(t, "$.items[*] all > 1")
	out, err = allFalseE.Evaluate(Env{Root: root, Current: root})
	require.NoError(t, err)
	require.False(t, out[0].AsBool())
}

func TestEvaluateLike(t *testing.T) {
	e := mustCompile(t, "name like \"A%\"")
	root := value.NewDocument(value.DocOf("name", value.Str("Apple")))
	out, err := e.ExecuteScalar(root, nil, nil)
	require.NoError(t, err)
	require.True(t, out.AsBool())
}

func TestEvaluateInFlattensArrays(t *testing.T) {
	// The right-hand array is flattened one level into its members, so the
	// nested [2, 3] is a single member that x must equal as a whole.
	e := mustCompile(t, "x in [1, [2, 3]]")
	root := value.NewDocument(value.DocOf("x", value.NewArray([]value.Value{value.Int64(2), value.Int64(3)})))
	out, err := e.ExecuteScalar(root, nil, nil)
	require.NoError(t, err)
	require.True(t, out.AsBool())
}

func TestEvaluateBetween(t *testing.T) {
	e := mustCompile(t, "x between 1 and 10")
	root := value.NewDocument(value.DocOf("x", value.Int64(5)))
	out, err := e.ExecuteScalar(root, nil, nil)
	require.NoError(t, err)
	require.True(t, out.AsBool())
}

func TestEvaluateMapProjection(t *testing.T) {
	e := mustCompile(t, "MAP($.items[*] => @.price)")
	items := value.NewArray([]value.Value{
		value.NewDocument(value.DocOf("price", value.Int64(1))),
		value.NewDocument(value.DocOf("price", value.Int64(2))),
	})
	root := value.NewDocument(value.DocOf("items", items))
	out, err := e.Evaluate(Env{Root: root, Current: root})
	require.NoError(t, err)
	require.Len(t, out, 2)
}

func TestEvaluateFilterKeepsTruthyOnly(t *testing.T) {
	e := mustCompile(t, "FILTER($.items[*] => @.ok = true)")
	items := value.NewArray([]value.Value{
		value.NewDocument(value.DocOf("ok", value.True)),
		value.NewDocument(value.DocOf("ok", value.False)),
	})
	root := value.NewDocument(value.DocOf("items", items))
	out, err := e.Evaluate(Env{Root: root, Current: root})
	require.NoError(t, err)
	require.Len(t, out, 1)
}

func TestExecuteScalarBindsParameters(t *testing.T) {
	e := mustCompile(t, "@0 + 1")
	params := value.DocOf("0", value.Int64(41))
	out, err := e.ExecuteScalar(value.Null, nil, params)
	require.NoError(t, err)
	require.Equal(t, "42", out.Decimal().String())
}
