package format

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/docql/docql/ast"
	"github.com/docql/docql/parser"
)

func parseNode(t *testing.T, src string) ast.Node {
	t.Helper()
	n, err := parser.New(src).Parse()
	require.NoError(t, err)
	return n
}

func TestStringRendersSimpleComparisonInline(t *testing.T) {
	n := parseNode(t, "age > 10")
	require.Equal(t, "$.age > 10", String(n))
}

func TestStringRendersAndAcrossLines(t *testing.T) {
	n := parseNode(t, "age > 10 and name = \"bob\"")
	out := String(n)
	require.Contains(t, out, "AND")
	require.Contains(t, out, "\n")
}

func TestStringRendersSingleElementArrayInline(t *testing.T) {
	n := parseNode(t, "[1]")
	require.Equal(t, "[1]", String(n))
}

func TestStringRendersMultiElementArrayMultiline(t *testing.T) {
	n := parseNode(t, "[1,2,3]")
	out := String(n)
	require.Contains(t, out, "\n")
	require.Contains(t, out, "1,")
}

func TestStringRendersMapArrow(t *testing.T) {
	n := parseNode(t, "items[*].id")
	require.Equal(t, "MAP($.items[*] => @.id)", String(n))
}

func TestLowercaseOption(t *testing.T) {
	n := parseNode(t, "a = 1 and b = 2")
	out := New(Options{Uppercase: false, Indent: "  "}).Render(n)
	require.Contains(t, out, "and")
}
