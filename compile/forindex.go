package compile

import (
	"github.com/docql/docql/ast"
	"github.com/docql/docql/dberr"
)

// validateForIndex enforces the restricted grammar spec §6.1 requires of
// compile_for_index: only paths (optionally with [*]/[index]/scalar
// predicate segments, including the MAP that "path[*].field" lowers to)
// and document/array initializers over the same.
// Parameters, user-defined calls and `*` are rejected wherever they occur,
// including inside a path's filter segments.
func validateForIndex(n ast.Node) error {
	switch v := n.(type) {
	case *ast.RootExpr:
		return nil
	case *ast.Literal:
		return nil
	case *ast.PathExpr:
		if err := validateForIndex(v.Base); err != nil {
			return err
		}
		for _, seg := range v.Segments {
			if seg.Kind == ast.SegFilter {
				if err := validateIndexFilter(seg.Filter); err != nil {
					return err
				}
			}
		}
		return nil
	case *ast.ArrayExpr:
		for _, el := range v.Elements {
			if err := validateForIndex(el); err != nil {
				return err
			}
		}
		return nil
	case *ast.DocumentExpr:
		for _, f := range v.Fields {
			if err := validateForIndex(f.Value); err != nil {
				return err
			}
		}
		return nil
	case *ast.MapExpr:
		if err := validateForIndex(v.Source); err != nil {
			return err
		}
		return validateForIndex(v.Projection)
	default:
		return dberr.New(dberr.CodeInvalidExpressionType,
			"compile_for_index does not allow %s expressions", n.Kind())
	}
}

// validateIndexFilter allows the "scalar predicate" forms spec §6.1 permits
// inside a path's [predicate] segment: comparisons, BETWEEN, LIKE, IN,
// AND/OR over paths and literals — but still no parameters, calls, or `*`.
func validateIndexFilter(n ast.Node) error {
	switch v := n.(type) {
	case *ast.BinaryExpr:
		if err := validateIndexFilter(v.Left); err != nil {
			return err
		}
		return validateIndexFilter(v.Right)
	case *ast.BetweenExpr:
		if err := validateIndexFilter(v.Target); err != nil {
			return err
		}
		if err := validateIndexFilter(v.Low); err != nil {
			return err
		}
		return validateIndexFilter(v.High)
	default:
		return validateForIndex(v)
	}
}
