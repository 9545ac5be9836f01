package compile

import (
	"strconv"

	"github.com/docql/docql/ast"
	"github.com/docql/docql/collate"
	"github.com/docql/docql/dbfunc"
	"github.com/docql/docql/value"
)

func one(v value.Value) []value.Value { return []value.Value{v} }

func first(vals []value.Value) value.Value {
	if len(vals) == 0 {
		return value.Null
	}
	return vals[0]
}

// evalNode is the recursive evaluator implementing spec §4.3's evaluation
// contract directly over the raw AST (the same tree analyze walked for
// metadata), rather than over a separately rebuilt bytecode form — the
// "evaluator closures are the natural form" alternative spec §9 names.
func evalNode(n ast.Node, env Env) ([]value.Value, error) {
	switch v := n.(type) {
	case *ast.Literal:
		return one(evalLiteral(v)), nil

	case *ast.RootExpr:
		if v.Which == ast.RootDocument {
			return one(env.Root), nil
		}
		return one(env.Current), nil

	case *ast.SourceExpr:
		return env.Source, nil

	case *ast.ParameterExpr:
		return one(evalParameter(v, env)), nil

	case *ast.CallExpr:
		return evalCall(v, env)

	case *ast.ArrayExpr:
		elems := make([]value.Value, len(v.Elements))
		for i, e := range v.Elements {
			vals, err := evalNode(e, env)
			if err != nil {
				return nil, err
			}
			elems[i] = first(vals)
		}
		return one(value.NewArray(elems)), nil

	case *ast.DocumentExpr:
		doc := value.NewDoc()
		for _, f := range v.Fields {
			vals, err := evalNode(f.Value, env)
			if err != nil {
				return nil, err
			}
			if err := doc.Set(f.Key, first(vals)); err != nil {
				return nil, err
			}
		}
		return one(value.NewDocument(doc)), nil

	case *ast.PathExpr:
		return evalPath(v, env, !v.HasUnboundedSegment())

	case *ast.MapExpr:
		srcVals, err := evalNode(v.Source, env)
		if err != nil {
			return nil, err
		}
		var out []value.Value
		for _, elem := range srcVals {
			var projVals []value.Value
			if p, ok := v.Projection.(*ast.PathExpr); ok {
				projVals, err = evalPath(p, env.withCurrent(elem), false)
			} else {
				projVals, err = evalNode(v.Projection, env.withCurrent(elem))
			}
			if err != nil {
				return nil, err
			}
			out = append(out, projVals...)
		}
		return out, nil

	case *ast.FilterExpr:
		srcVals, err := evalNode(v.Source, env)
		if err != nil {
			return nil, err
		}
		var out []value.Value
		for _, elem := range srcVals {
			predVals, err := evalNode(v.Predicate, env.withCurrent(elem))
			if err != nil {
				return nil, err
			}
			if first(predVals).IsTruthy() {
				out = append(out, elem)
			}
		}
		return out, nil

	case *ast.BinaryExpr:
		return evalBinary(v, env)

	case *ast.BetweenExpr:
		return evalBetween(v, env)
	}
	return nil, nil
}

func evalLiteral(l *ast.Literal) value.Value {
	switch l.LitKind {
	case ast.KindInt:
		n, _ := strconv.ParseInt(l.Value, 10, 64)
		return value.Int64(n)
	case ast.KindDouble:
		f, _ := strconv.ParseFloat(l.Value, 64)
		return value.Double(f)
	case ast.KindString:
		return value.Str(l.Value)
	case ast.KindBoolean:
		return value.Bool(l.Value == "true")
	case ast.KindNull:
		return value.Null
	default:
		return value.Null
	}
}

func evalParameter(p *ast.ParameterExpr, env Env) value.Value {
	if env.Parameters == nil {
		return value.Null
	}
	if p.Index >= 0 {
		keys := env.Parameters.Keys()
		if p.Index >= len(keys) {
			return value.Null
		}
		v, _ := env.Parameters.Get(keys[p.Index])
		return v
	}
	v, _ := env.Parameters.Get(p.Name)
	return v
}

func evalCall(c *ast.CallExpr, env Env) ([]value.Value, error) {
	desc, ok := dbfunc.Lookup(c.Name, len(c.Args))
	if !ok {
		return nil, errUnknownFunction(c.Name, len(c.Args))
	}
	args := make([][]value.Value, len(c.Args))
	for i, a := range c.Args {
		vals, err := evalNode(a, env)
		if err != nil {
			return nil, err
		}
		args[i] = vals
	}
	return desc.Run(args, dbfunc.EvalContext{Collation: env.Collation})
}

// evalPath navigates p's segments left to right. A path with no unbounded
// segment ([*] or [predicate]) uses scalar semantics (a missing segment
// yields Null, per spec §4.3); a path containing one, or a path that is a
// MAP projection (as "a[*].b" lowers to), uses sequence semantics
// throughout (a missing segment contributes no element).
func evalPath(p *ast.PathExpr, env Env, scalarMode bool) ([]value.Value, error) {
	cur, err := evalNode(p.Base, env)
	if err != nil {
		return nil, err
	}
	for _, seg := range p.Segments {
		var next []value.Value
		for _, v := range cur {
			switch seg.Kind {
			case ast.SegField:
				if v.Kind() == value.KindDocument {
					if val, ok := v.AsDocument().Get(seg.Field); ok {
						next = append(next, val)
						continue
					}
				}
				if scalarMode {
					next = append(next, value.Null)
				}
			case ast.SegIndex:
				if v.Kind() == value.KindArray {
					arr := v.AsArray()
					if seg.Index >= 0 && seg.Index < len(arr) {
						next = append(next, arr[seg.Index])
						continue
					}
				}
				if scalarMode {
					next = append(next, value.Null)
				}
			case ast.SegAny:
				if v.Kind() == value.KindArray {
					next = append(next, v.AsArray()...)
				}
			case ast.SegFilter:
				if v.Kind() == value.KindArray {
					for _, elem := range v.AsArray() {
						predVals, err := evalNode(seg.Filter, env.withCurrent(elem))
						if err != nil {
							return nil, err
						}
						if first(predVals).IsTruthy() {
							next = append(next, elem)
						}
					}
				}
			}
		}
		cur = next
	}
	return cur, nil
}

func evalArithmetic(op ast.Kind, l, r value.Value) value.Value {
	if op == ast.KindAdd && l.Kind() == value.KindString && r.Kind() == value.KindString {
		return value.Str(l.AsString() + r.AsString())
	}
	if !l.Kind().IsNumeric() || !r.Kind().IsNumeric() {
		return value.Null
	}
	ld, rd := l.Decimal(), r.Decimal()
	switch op {
	case ast.KindAdd:
		return value.Dec(ld.Add(rd))
	case ast.KindSubtract:
		return value.Dec(ld.Sub(rd))
	case ast.KindMultiply:
		return value.Dec(ld.Mul(rd))
	case ast.KindDivide:
		if rd.IsZero() {
			return value.Null
		}
		return value.Dec(ld.Div(rd))
	case ast.KindModulo:
		if rd.IsZero() {
			return value.Null
		}
		return value.Dec(ld.Mod(rd))
	default:
		return value.Null
	}
}

func evalBinary(b *ast.BinaryExpr, env Env) ([]value.Value, error) {
	switch b.Op {
	case ast.KindAdd, ast.KindSubtract, ast.KindMultiply, ast.KindDivide, ast.KindModulo:
		lv, err := evalNode(b.Left, env)
		if err != nil {
			return nil, err
		}
		rv, err := evalNode(b.Right, env)
		if err != nil {
			return nil, err
		}
		return one(evalArithmetic(b.Op, first(lv), first(rv))), nil

	case ast.KindAnd:
		lv, err := evalNode(b.Left, env)
		if err != nil {
			return nil, err
		}
		if !first(lv).IsTruthy() {
			return one(value.False), nil
		}
		rv, err := evalNode(b.Right, env)
		if err != nil {
			return nil, err
		}
		return one(value.Bool(first(rv).IsTruthy())), nil

	case ast.KindOr:
		lv, err := evalNode(b.Left, env)
		if err != nil {
			return nil, err
		}
		if first(lv).IsTruthy() {
			return one(value.True), nil
		}
		rv, err := evalNode(b.Right, env)
		if err != nil {
			return nil, err
		}
		return one(value.Bool(first(rv).IsTruthy())), nil

	case ast.KindLike:
		lv, err := evalNode(b.Left, env)
		if err != nil {
			return nil, err
		}
		rv, err := evalNode(b.Right, env)
		if err != nil {
			return nil, err
		}
		pattern := first(rv)
		match := func(l value.Value) bool {
			return l.Kind() == value.KindString && pattern.Kind() == value.KindString &&
				env.Collation.Like(l.AsString(), pattern.AsString())
		}
		return one(value.Bool(quantified(lv, b.Quant, match))), nil

	case ast.KindIn:
		lv, err := evalNode(b.Left, env)
		if err != nil {
			return nil, err
		}
		rv, err := evalNode(b.Right, env)
		if err != nil {
			return nil, err
		}
		target := flattenArrays(rv)
		match := func(l value.Value) bool {
			for _, t := range target {
				if value.Equal(l, t, env.Collation) {
					return true
				}
			}
			return false
		}
		return one(value.Bool(quantified(lv, b.Quant, match))), nil

	default: // comparison kinds
		lv, err := evalNode(b.Left, env)
		if err != nil {
			return nil, err
		}
		rv, err := evalNode(b.Right, env)
		if err != nil {
			return nil, err
		}
		match := func(l value.Value) bool {
			return matchAgainstAny(l, rv, b.Op, env)
		}
		return one(value.Bool(quantified(lv, b.Quant, match))), nil
	}
}

func matchAgainstAny(l value.Value, rv []value.Value, op ast.Kind, env Env) bool {
	for _, r := range rv {
		if compareOp(l, r, op, env.Collation) {
			return true
		}
	}
	return false
}

func compareOp(l, r value.Value, op ast.Kind, coll collate.Collation) bool {
	c := value.Compare(l, r, coll)
	switch op {
	case ast.KindEqual:
		return c == 0
	case ast.KindNotEqual:
		return c != 0
	case ast.KindGreaterThan:
		return c > 0
	case ast.KindGreaterThanOrEqual:
		return c >= 0
	case ast.KindLessThan:
		return c < 0
	case ast.KindLessThanOrEqual:
		return c <= 0
	default:
		return false
	}
}

// quantified applies match over seq per the ANY/ALL quantifier semantics of
// spec §4.3: ANY is satisfied by any element (false on empty), ALL requires
// every element (vacuously true on empty).
func quantified(seq []value.Value, quant ast.Quant, match func(value.Value) bool) bool {
	if quant == ast.QuantAll {
		for _, v := range seq {
			if !match(v) {
				return false
			}
		}
		return true
	}
	for _, v := range seq {
		if match(v) {
			return true
		}
	}
	return false
}

func flattenArrays(vals []value.Value) []value.Value {
	var out []value.Value
	for _, v := range vals {
		if v.Kind() == value.KindArray {
			out = append(out, v.AsArray()...)
		} else {
			out = append(out, v)
		}
	}
	return out
}

func evalBetween(b *ast.BetweenExpr, env Env) ([]value.Value, error) {
	targetVals, err := evalNode(b.Target, env)
	if err != nil {
		return nil, err
	}
	lowVals, err := evalNode(b.Low, env)
	if err != nil {
		return nil, err
	}
	highVals, err := evalNode(b.High, env)
	if err != nil {
		return nil, err
	}
	lo, hi := first(lowVals), first(highVals)
	match := func(t value.Value) bool {
		return value.Compare(t, lo, env.Collation) >= 0 && value.Compare(t, hi, env.Collation) <= 0
	}
	return one(value.Bool(quantified(targetVals, b.Quant, match))), nil
}
