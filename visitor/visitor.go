// Package visitor provides traversal and rewriting utilities over the
// expression AST (package ast), the same depth-first Visitor/Walk shape the
// teacher used for its SQL statement tree, generalized to the document
// expression grammar's node set: paths, calls, map/filter lowering, and the
// binary/between comparison forms.
package visitor

import (
	"strings"

	"github.com/docql/docql/ast"
)

// Visitor is the interface for AST traversal. Visit is called for node; if
// it returns a non-nil Visitor, Walk continues into node's children with
// that Visitor.
type Visitor interface {
	Visit(node ast.Node) Visitor
}

// Walk traverses an AST in depth-first order.
func Walk(v Visitor, node ast.Node) {
	if node == nil {
		return
	}
	if v = v.Visit(node); v == nil {
		return
	}
	walkChildren(v, node)
}

func walkChildren(v Visitor, node ast.Node) {
	switch n := node.(type) {
	case *ast.RootExpr, *ast.SourceExpr, *ast.Literal, *ast.ParameterExpr:
		// leaves

	case *ast.PathExpr:
		Walk(v, n.Base)
		for _, seg := range n.Segments {
			if seg.Kind == ast.SegFilter && seg.Filter != nil {
				Walk(v, seg.Filter)
			}
		}

	case *ast.ArrayExpr:
		for _, el := range n.Elements {
			Walk(v, el)
		}

	case *ast.DocumentExpr:
		for _, f := range n.Fields {
			Walk(v, f.Value)
		}

	case *ast.CallExpr:
		for _, a := range n.Args {
			Walk(v, a)
		}

	case *ast.MapExpr:
		Walk(v, n.Source)
		Walk(v, n.Projection)

	case *ast.FilterExpr:
		Walk(v, n.Source)
		Walk(v, n.Predicate)

	case *ast.BinaryExpr:
		Walk(v, n.Left)
		Walk(v, n.Right)

	case *ast.BetweenExpr:
		Walk(v, n.Target)
		Walk(v, n.Low)
		Walk(v, n.High)
	}
}

// WalkFunc is a convenience wrapper that calls fn for each node; returning
// false from fn skips that node's children.
func WalkFunc(node ast.Node, fn func(ast.Node) bool) {
	Walk(funcVisitor(fn), node)
}

type funcVisitor func(ast.Node) bool

func (f funcVisitor) Visit(node ast.Node) Visitor {
	if f(node) {
		return f
	}
	return nil
}

// Fields collects the distinct root field names (spec §4.3 point 2's
// `$.foo`/bare-`foo` style references) touched anywhere under node,
// case-insensitively deduped in first-form-seen order. It exists alongside
// the compiler's own Expression.Fields for callers walking raw,
// not-yet-compiled AST (e.g. a rewrite pass run before Compile).
func Fields(node ast.Node) []string {
	var out []string
	seen := map[string]bool{}
	WalkFunc(node, func(n ast.Node) bool {
		p, ok := n.(*ast.PathExpr)
		if !ok {
			return true
		}
		root, ok := p.Base.(*ast.RootExpr)
		if !ok || root.Which != ast.RootDocument || len(p.Segments) == 0 || p.Segments[0].Kind != ast.SegField {
			return true
		}
		name := p.Segments[0].Field
		key := strings.ToUpper(name)
		if seen[key] {
			return true
		}
		seen[key] = true
		out = append(out, name)
		return true
	})
	return out
}
