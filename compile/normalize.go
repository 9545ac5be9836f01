package compile

import (
	"strconv"
	"strings"

	"github.com/docql/docql/ast"
)

// precedence mirrors the parser's ladder (spec §4.2) so normalize knows
// when a child needs parentheses to preserve the original grouping.
func precedence(k ast.Kind) int {
	switch k {
	case ast.KindOr:
		return 1
	case ast.KindAnd:
		return 2
	case ast.KindEqual, ast.KindNotEqual, ast.KindGreaterThan, ast.KindGreaterThanOrEqual,
		ast.KindLessThan, ast.KindLessThanOrEqual, ast.KindLike, ast.KindBetween, ast.KindIn:
		return 3
	case ast.KindAdd, ast.KindSubtract:
		return 4
	case ast.KindMultiply, ast.KindDivide, ast.KindModulo:
		return 5
	default:
		return 6 // atoms, paths, calls, etc. never need parens around themselves
	}
}

// normalize produces the canonical source text for n (spec §4.4).
func normalize(n ast.Node) string {
	return normalizeAt(n, 0)
}

func normalizeAt(n ast.Node, parentPrec int) string {
	switch v := n.(type) {
	case *ast.Literal:
		return normalizeLiteral(v)
	case *ast.RootExpr:
		if v.Which == ast.RootDocument {
			return "$"
		}
		return "@"
	case *ast.SourceExpr:
		return "*"
	case *ast.ParameterExpr:
		if v.Index >= 0 {
			return "@" + strconv.Itoa(v.Index)
		}
		return "@" + v.Name
	case *ast.PathExpr:
		return normalizePath(v)
	case *ast.ArrayExpr:
		parts := make([]string, len(v.Elements))
		for i, el := range v.Elements {
			parts[i] = normalizeAt(el, 0)
		}
		return "[" + strings.Join(parts, ",") + "]"
	case *ast.DocumentExpr:
		parts := make([]string, len(v.Fields))
		for i, f := range v.Fields {
			parts[i] = normalizeKey(f.Key) + ":" + normalizeAt(f.Value, 0)
		}
		return "{" + strings.Join(parts, ",") + "}"
	case *ast.CallExpr:
		parts := make([]string, len(v.Args))
		for i, a := range v.Args {
			parts[i] = normalizeAt(a, 0)
		}
		return strings.ToUpper(v.Name) + "(" + strings.Join(parts, ",") + ")"
	case *ast.MapExpr:
		return "MAP(" + normalizeAt(v.Source, 0) + "=>" + normalizeAt(v.Projection, 0) + ")"
	case *ast.FilterExpr:
		return "FILTER(" + normalizeAt(v.Source, 0) + "=>" + normalizeAt(v.Predicate, 0) + ")"
	case *ast.BetweenExpr:
		s := normalizeAt(v.Target, precedence(ast.KindBetween)) + " " + quantWord(v.Quant) + "BETWEEN " +
			normalizeAt(v.Low, precedence(ast.KindAdd)) + " AND " + normalizeAt(v.High, precedence(ast.KindAdd))
		return parenIf(s, precedence(ast.KindBetween) < parentPrec)
	case *ast.BinaryExpr:
		return normalizeBinary(v, parentPrec)
	default:
		return ""
	}
}

func parenIf(s string, need bool) string {
	if need {
		return "(" + s + ")"
	}
	return s
}

func normalizeBinary(v *ast.BinaryExpr, parentPrec int) string {
	prec := precedence(v.Op)
	left := normalizeAt(v.Left, prec)
	right := normalizeAt(v.Right, prec+1)
	var s string
	switch v.Op {
	case ast.KindAdd:
		s = left + "+" + right
	case ast.KindSubtract:
		s = left + "-" + right
	case ast.KindMultiply:
		s = left + "*" + right
	case ast.KindDivide:
		s = left + "/" + right
	case ast.KindModulo:
		s = left + "%" + right
	case ast.KindAnd:
		s = left + " AND " + right
	case ast.KindOr:
		s = left + " OR " + right
	case ast.KindLike:
		s = left + " " + quantWord(v.Quant) + "LIKE " + right
	case ast.KindIn:
		s = left + " " + quantWord(v.Quant) + "IN " + right
	default:
		// comparisons: quant keyword (if any) abuts the operator symbol
		// directly, e.g. "MAP($.items[*]=>@.id) ANY=5" (spec §8 example 6).
		if prefix := quantSymbolPrefix(v.Quant); prefix != "" {
			s = left + " " + prefix + compareSymbol(v.Op) + right
		} else {
			s = left + compareSymbol(v.Op) + right
		}
	}
	return parenIf(s, prec < parentPrec)
}

// quantWord renders the quantifier keyword for LIKE/IN with its own
// trailing space, or the empty string for the unquantified (ANY, default)
// case — the canonical grammar never requires writing ANY before a keyword
// operator, only before the six comparison symbols.
func quantWord(q ast.Quant) string {
	if q == ast.QuantAll {
		return "ALL "
	}
	return ""
}

// quantSymbolPrefix renders the quantifier keyword explicitly written before
// a comparison symbol, or the empty string when none was written (the zero
// value QuantDefault) — a plain scalar comparison normalizes with no
// quantifier at all, since the quantifier only has meaning for a
// sequence-vs-scalar comparison (spec §3.3).
func quantSymbolPrefix(q ast.Quant) string {
	switch q {
	case ast.QuantAll:
		return "ALL"
	case ast.QuantAny:
		return "ANY"
	default:
		return ""
	}
}

func compareSymbol(k ast.Kind) string {
	switch k {
	case ast.KindEqual:
		return "="
	case ast.KindNotEqual:
		return "!="
	case ast.KindGreaterThan:
		return ">"
	case ast.KindGreaterThanOrEqual:
		return ">="
	case ast.KindLessThan:
		return "<"
	case ast.KindLessThanOrEqual:
		return "<="
	default:
		return "?"
	}
}

func normalizePath(p *ast.PathExpr) string {
	var b strings.Builder
	b.WriteString(normalizeAt(p.Base, 6))
	for _, seg := range p.Segments {
		switch seg.Kind {
		case ast.SegField:
			b.WriteString(".")
			b.WriteString(normalizeKey(seg.Field))
		case ast.SegIndex:
			b.WriteString("[")
			b.WriteString(strconv.Itoa(seg.Index))
			b.WriteString("]")
		case ast.SegAny:
			b.WriteString("[*]")
		case ast.SegFilter:
			b.WriteString("[")
			b.WriteString(normalizeAt(seg.Filter, 0))
			b.WriteString("]")
		}
	}
	return b.String()
}

func isSafeIdent(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if !(r >= 'A' && r <= 'Z' || r >= 'a' && r <= 'z' || r >= '0' && r <= '9' || r == '_') {
			return false
		}
	}
	return true
}

func normalizeKey(s string) string {
	if isSafeIdent(s) {
		return s
	}
	return "[" + normalizeStringLiteral(s) + "]"
}

func normalizeStringLiteral(s string) string {
	var b strings.Builder
	b.WriteByte('"')
	for _, r := range s {
		if r == '"' || r == '\\' {
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	b.WriteByte('"')
	return b.String()
}

func normalizeLiteral(l *ast.Literal) string {
	switch l.LitKind {
	case ast.KindInt:
		return l.Value
	case ast.KindDouble:
		return normalizeDouble(l.Value)
	case ast.KindString:
		return normalizeStringLiteral(l.Value)
	case ast.KindBoolean:
		return strings.ToUpper(l.Value)
	case ast.KindNull:
		return "NULL"
	default:
		return l.Value
	}
}

// normalizeDouble renders a double literal with at least one decimal digit
// and no trailing zeros beyond the first (spec §4.4: "5.0", "5.001").
func normalizeDouble(raw string) string {
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return raw
	}
	s := strconv.FormatFloat(f, 'f', -1, 64)
	intPart, fracPart, ok := strings.Cut(s, ".")
	if !ok {
		return intPart + ".0"
	}
	fracPart = strings.TrimRight(fracPart, "0")
	if fracPart == "" {
		fracPart = "0"
	}
	return intPart + "." + fracPart
}
