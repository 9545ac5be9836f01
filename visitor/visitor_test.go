package visitor

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

func TestWalkFuncVisitsEveryLiteral(t *testing.T) {
	n := parseNode(t, "age > 10 and name = \"bob\"")
	var literals []string
	WalkFunc(n, func(node ast.Node) bool {
		if l, ok := node.(*ast.Literal); ok {
			literals = append(literals, l.Value)
		}
		return true
	})
	require.ElementsMatch(t, []string{"10", "bob"}, literals)
}

func TestWalkFuncCanPrune(t *testing.T) {
	n := parseNode(t, "age > 10 and name = \"bob\"")
	var visited int
	WalkFunc(n, func(node ast.Node) bool {
		visited++
		if _, ok := node.(*ast.BinaryExpr); ok {
			return false
		}
		return true
	})
	require.Equal(t, 1, visited) // only the top-level And, nothing below it
}

func TestFieldsCollectsRootFieldsDeduped(t *testing.T) {
	n := parseNode(t, "age > 10 and Age < 20 and name = \"x\"")
	require.ElementsMatch(t, []string{"age", "name"}, Fields(n))
}

func TestRewriteReplacesLiteral(t *testing.T) {
	n := parseNode(t, "age = 10")
	result := Rewrite(n, func(node ast.Node) ast.Node {
		if l, ok := node.(*ast.Literal); ok && l.Value == "10" {
			return &ast.Literal{LitKind: ast.KindInt, Value: "99"}
		}
		return node
	})
	b := result.(*ast.BinaryExpr)
	require.Equal(t, "99", b.Right.(*ast.Literal).Value)
}
