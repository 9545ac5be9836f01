package compile

import (
	"strings"

	"github.com/docql/docql/ast"
	"github.com/docql/docql/dbfunc"
)

// analyze walks n bottom-up, synthesizing the four metadata pieces spec
// §4.3 names (is_scalar, fields, is_immutable, uses_source) plus the
// predicate/quantifier flags, and builds the child Expression tree
// Left/Right/Parameters expose for reflection.
func analyze(n ast.Node) (*Expression, error) {
	e := &Expression{Type: n.Kind(), node: n}

	switch v := n.(type) {
	case *ast.Literal:
		e.IsScalar = true
		e.IsImmutable = true

	case *ast.RootExpr:
		e.IsScalar = true
		e.IsImmutable = true
		if v.Which == ast.RootDocument {
			e.Fields = []string{"$"}
		}

	case *ast.SourceExpr:
		e.IsScalar = false
		e.IsImmutable = true
		e.UsesSource = true
		e.Fields = []string{"$"}

	case *ast.ParameterExpr:
		e.IsScalar = true
		e.IsImmutable = false

	case *ast.CallExpr:
		desc, ok := dbfunc.Lookup(v.Name, len(v.Args))
		if !ok {
			return nil, errUnknownFunction(v.Name, len(v.Args))
		}
		e.IsScalar = desc.IsScalar
		args := make([]*Expression, len(v.Args))
		immutable := desc.Immutable(len(v.Args))
		var fields []string
		usesSource := false
		for i, a := range v.Args {
			ae, err := analyze(a)
			if err != nil {
				return nil, err
			}
			args[i] = ae
			immutable = immutable && ae.IsImmutable
			usesSource = usesSource || ae.UsesSource
			fields = mergeFields(fields, ae.Fields)
		}
		e.Parameters = args
		e.IsImmutable = immutable
		e.UsesSource = usesSource
		e.Fields = fields

	case *ast.PathExpr:
		base, err := analyze(v.Base)
		if err != nil {
			return nil, err
		}
		e.Left = base
		e.IsScalar = !v.HasUnboundedSegment()
		e.IsImmutable = true // a path is immutable per spec §4.3 point 3, unconditionally
		e.UsesSource = base.UsesSource

		fields := pathFields(v, base)
		for _, seg := range v.Segments {
			if seg.Kind == ast.SegFilter {
				fe, err := analyze(seg.Filter)
				if err != nil {
					return nil, err
				}
				e.UsesSource = e.UsesSource || fe.UsesSource
				fields = mergeFields(fields, fe.Fields)
			}
		}
		e.Fields = fields

	case *ast.ArrayExpr:
		e.IsScalar = true
		immutable := true
		var fields []string
		usesSource := false
		children := make([]*Expression, len(v.Elements))
		for i, elemNode := range v.Elements {
			ce, err := analyze(elemNode)
			if err != nil {
				return nil, err
			}
			children[i] = ce
			immutable = immutable && ce.IsImmutable
			usesSource = usesSource || ce.UsesSource
			fields = mergeFields(fields, ce.Fields)
		}
		e.Parameters = children
		e.IsImmutable = immutable
		e.UsesSource = usesSource
		e.Fields = fields

	case *ast.DocumentExpr:
		e.IsScalar = true
		immutable := true
		var fields []string
		usesSource := false
		children := make([]*Expression, len(v.Fields))
		for i, f := range v.Fields {
			ce, err := analyze(f.Value)
			if err != nil {
				return nil, err
			}
			children[i] = ce
			immutable = immutable && ce.IsImmutable
			usesSource = usesSource || ce.UsesSource
			fields = mergeFields(fields, ce.Fields) // keys are not fields (spec §4.3 point 2)
		}
		e.Parameters = children
		e.IsImmutable = immutable
		e.UsesSource = usesSource
		e.Fields = fields

	case *ast.MapExpr:
		src, err := analyze(v.Source)
		if err != nil {
			return nil, err
		}
		proj, err := analyze(v.Projection)
		if err != nil {
			return nil, err
		}
		e.Left, e.Right = src, proj
		e.IsScalar = false
		e.IsImmutable = false
		e.UsesSource = src.UsesSource || proj.UsesSource
		e.Fields = mergeFields(src.Fields, proj.Fields)

	case *ast.FilterExpr:
		src, err := analyze(v.Source)
		if err != nil {
			return nil, err
		}
		pred, err := analyze(v.Predicate)
		if err != nil {
			return nil, err
		}
		e.Left, e.Right = src, pred
		e.IsScalar = false
		e.IsImmutable = false
		e.UsesSource = src.UsesSource || pred.UsesSource
		e.Fields = mergeFields(src.Fields, pred.Fields)

	case *ast.BinaryExpr:
		left, err := analyze(v.Left)
		if err != nil {
			return nil, err
		}
		right, err := analyze(v.Right)
		if err != nil {
			return nil, err
		}
		e.Left, e.Right = left, right
		e.IsScalar = true
		e.IsImmutable = left.IsImmutable && right.IsImmutable
		e.UsesSource = left.UsesSource || right.UsesSource
		e.Fields = mergeFields(left.Fields, right.Fields)
		e.IsPredicate = v.Op.IsPredicate()
		if v.Op.IsComparison() || v.Op == ast.KindLike || v.Op == ast.KindIn {
			e.IsAny = v.Quant != ast.QuantAll
			e.IsAll = v.Quant == ast.QuantAll
		}

	case *ast.BetweenExpr:
		target, err := analyze(v.Target)
		if err != nil {
			return nil, err
		}
		low, err := analyze(v.Low)
		if err != nil {
			return nil, err
		}
		high, err := analyze(v.High)
		if err != nil {
			return nil, err
		}
		e.Left = target
		e.Parameters = []*Expression{low, high}
		e.IsScalar = true
		e.IsImmutable = target.IsImmutable && low.IsImmutable && high.IsImmutable
		e.UsesSource = target.UsesSource || low.UsesSource || high.UsesSource
		e.Fields = mergeFields(mergeFields(target.Fields, low.Fields), high.Fields)
		e.IsPredicate = true
		e.IsAny = v.Quant != ast.QuantAll
		e.IsAll = v.Quant == ast.QuantAll
	}

	return e, nil
}

// pathFields implements spec §4.3 point 2 for a Path node: a path rooted at
// $ contributes its first field segment (or "$" if the first segment isn't
// a field, or there are no segments at all); a path rooted at @ contributes
// nothing directly (the MAP/FILTER transparency rule — fields reached
// through @ are not fields of the outer document — falls out of this
// automatically, since @ always resolves to a RootExpr{RootCurrent} whose
// own Fields is empty); a path over any other base (a call, a parenthesized
// expression, ...) inherits whatever fields that base already computed.
func pathFields(p *ast.PathExpr, base *Expression) []string {
	root, ok := p.Base.(*ast.RootExpr)
	if !ok {
		return base.Fields
	}
	if root.Which != ast.RootDocument {
		return nil
	}
	if len(p.Segments) > 0 && p.Segments[0].Kind == ast.SegField {
		return []string{p.Segments[0].Field}
	}
	return []string{"$"}
}

// mergeFields unions two field-name sets with spec §4.3's dedup rule:
// case-insensitive, preserving the form first seen.
func mergeFields(a, b []string) []string {
	if len(b) == 0 {
		return a
	}
	seen := make(map[string]bool, len(a))
	for _, f := range a {
		seen[strings.ToUpper(f)] = true
	}
	out := a
	for _, f := range b {
		u := strings.ToUpper(f)
		if seen[u] {
			continue
		}
		seen[u] = true
		out = append(out, f)
	}
	return out
}
