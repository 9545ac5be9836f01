package visitor

import "github.com/docql/docql/ast"

// ApplyFunc is called for each node during rewriting. Return the
// replacement node, or the original, to keep it.
type ApplyFunc func(ast.Node) ast.Node

// Rewrite traverses the AST allowing node replacement, post-order (children
// first, then the parent).
func Rewrite(node ast.Node, f ApplyFunc) ast.Node {
	if node == nil {
		return nil
	}
	rewriteChildren(node, f)
	return f(node)
}

func rewriteChildren(node ast.Node, f ApplyFunc) {
	switch n := node.(type) {
	case *ast.PathExpr:
		if result := Rewrite(n.Base, f); result != nil {
			n.Base = result
		}
		for i, seg := range n.Segments {
			if seg.Kind == ast.SegFilter && seg.Filter != nil {
				if result := Rewrite(seg.Filter, f); result != nil {
					n.Segments[i].Filter = result
				}
			}
		}

	case *ast.ArrayExpr:
		for i, el := range n.Elements {
			if result := Rewrite(el, f); result != nil {
				n.Elements[i] = result
			}
		}

	case *ast.DocumentExpr:
		for i, fld := range n.Fields {
			if result := Rewrite(fld.Value, f); result != nil {
				n.Fields[i].Value = result
			}
		}

	case *ast.CallExpr:
		for i, a := range n.Args {
			if result := Rewrite(a, f); result != nil {
				n.Args[i] = result
			}
		}

	case *ast.MapExpr:
		if result := Rewrite(n.Source, f); result != nil {
			n.Source = result
		}
		if result := Rewrite(n.Projection, f); result != nil {
			n.Projection = result
		}

	case *ast.FilterExpr:
		if result := Rewrite(n.Source, f); result != nil {
			n.Source = result
		}
		if result := Rewrite(n.Predicate, f); result != nil {
			n.Predicate = result
		}

	case *ast.BinaryExpr:
		if result := Rewrite(n.Left, f); result != nil {
			n.Left = result
		}
		if result := Rewrite(n.Right, f); result != nil {
			n.Right = result
		}

	case *ast.BetweenExpr:
		if result := Rewrite(n.Target, f); result != nil {
			n.Target = result
		}
		if result := Rewrite(n.Low, f); result != nil {
			n.Low = result
		}
		if result := Rewrite(n.High, f); result != nil {
			n.High = result
		}
	}
}
