package parser

import (
	"strconv"
	"strings"

	"github.com/docql/docql/ast"
	"github.com/docql/docql/internal/token"
)

// atom := literal | parameter | call | '(' expr ')' | pathRoot | docInit | arrayInit | source
func (p *Parser) parseAtom() ast.Node {
	if p.failed() {
		return nil
	}
	switch p.cur.Kind {
	case token.Int:
		pos := p.cur.Position
		v := p.cur.Value
		p.advance()
		return &ast.Literal{LitKind: ast.KindInt, Value: v, StartPos: pos}
	case token.Double:
		pos := p.cur.Position
		v := p.cur.Value
		p.advance()
		return &ast.Literal{LitKind: ast.KindDouble, Value: v, StartPos: pos}
	case token.String:
		pos := p.cur.Position
		v := p.cur.Value
		p.advance()
		return &ast.Literal{LitKind: ast.KindString, Value: v, StartPos: pos}
	case token.Dollar:
		pos := p.cur.Position
		p.advance()
		// Further ".field"/"[...]" access is handled uniformly by
		// parsePostfix's own loop over whatever atom is returned here.
		return &ast.RootExpr{Which: ast.RootDocument, StartPos: pos}
	case token.At:
		pos := p.cur.Position
		p.advance()
		switch p.cur.Kind {
		case token.Int:
			idx, err := strconv.Atoi(p.cur.Value)
			if err != nil {
				p.unexpected("invalid positional parameter @%s", p.cur.Value)
				return nil
			}
			p.advance()
			return &ast.ParameterExpr{Index: idx, StartPos: pos}
		case token.Word:
			name := p.cur.Value
			p.advance()
			return &ast.ParameterExpr{Index: -1, Name: name, StartPos: pos}
		default:
			// Bare '@' (not "@0"/"@name"): the current-value root used
			// inside Map/Filter projections, e.g. "@.price" (spec §4.2
			// design note — '@' alone is not in the formal atom grammar
			// but is required by the mapArrow projection semantics).
			return &ast.RootExpr{Which: ast.RootCurrent, StartPos: pos}
		}
	case token.Asterisk:
		pos := p.cur.Position
		p.advance()
		return &ast.SourceExpr{StartPos: pos}
	case token.OpenParen:
		p.advance()
		inner := p.parseExpr()
		if p.failed() {
			return nil
		}
		if p.cur.Kind != token.CloseParen {
			p.unexpected("expected ')'")
			return nil
		}
		p.advance()
		return inner
	case token.OpenBracket:
		return p.parseArrayInit()
	case token.OpenBrace:
		return p.parseDocumentInit()
	case token.Word:
		return p.parseWordAtom()
	case token.Minus:
		return p.parseUnary()
	default:
		p.unexpected("unexpected token %s", p.cur.Kind)
		return nil
	}
}

// parseWordAtom handles every atom that starts with a bare word: MAP(...),
// FILTER(...), ANY(...)/ALL(...) existence calls, ordinary function calls,
// the boolean/null literals, and the bare-identifier path sugar
// "a.b" ≡ "$.a.b".
func (p *Parser) parseWordAtom() ast.Node {
	upper := p.upperWord()
	pos := p.cur.Position
	raw := p.cur.Value

	switch upper {
	case "TRUE", "FALSE":
		p.advance()
		return &ast.Literal{LitKind: ast.KindBoolean, Value: strings.ToLower(upper), StartPos: pos}
	case "NULL":
		p.advance()
		return &ast.Literal{LitKind: ast.KindNull, StartPos: pos}
	case "MAP":
		if p.lex.Peek().Kind == token.OpenParen {
			return p.parseMapOrFilterArrow(false)
		}
	case "FILTER":
		if p.lex.Peek().Kind == token.OpenParen {
			return p.parseMapOrFilterArrow(true)
		}
	case "AND", "OR", "BETWEEN", "LIKE", "IN":
		// Reserved words are never valid in atom position except as a
		// call name (IDENT '(' ...), which none of these are — using one
		// bare is a syntax error (spec §4.2: "reserved word in atom
		// position" is a failure condition).
		p.unexpected("reserved word %q cannot start an expression", raw)
		return nil
	}

	if (upper == "ANY" || upper == "ALL") && p.lex.Peek().Kind == token.OpenParen {
		// ANY(seq)/ALL(seq): existence/universality folds, distinct from
		// the ANY/ALL quantifier used before a comparison operator. Both
		// readings share the reserved words; atom position always means
		// the call form (see DESIGN.md).
		p.advance()
		return p.parseCallArgs(upper, pos)
	}

	// Ordinary call or bare-identifier path.
	name := p.cur.Value
	if p.lex.Peek().Kind == token.OpenParen {
		p.advance()
		return p.parseCallArgs(strings.ToUpper(name), pos)
	}
	p.advance()
	root := &ast.RootExpr{Which: ast.RootDocument, StartPos: pos}
	seg := ast.Segment{Kind: ast.SegField, Field: name, StartPos: pos}
	return &ast.PathExpr{Base: root, Segments: []ast.Segment{seg}, StartPos: pos}
}

func (p *Parser) parseCallArgs(name string, pos int) ast.Node {
	if p.cur.Kind != token.OpenParen {
		p.unexpected("expected '(' in call to %s", name)
		return nil
	}
	p.advance()
	var args []ast.Node
	if p.cur.Kind != token.CloseParen {
		for {
			arg := p.parseExpr()
			if p.failed() {
				return nil
			}
			args = append(args, arg)
			if p.cur.Kind == token.Comma {
				p.advance()
				continue
			}
			break
		}
	}
	if p.cur.Kind != token.CloseParen {
		p.unexpected("expected ')' to close call to %s", name)
		return nil
	}
	p.advance()
	return &ast.CallExpr{Name: name, Args: args, StartPos: pos}
}

// mapArrow := MAP '(' expr '=>' expr ')'  (and symmetrically for FILTER)
func (p *Parser) parseMapOrFilterArrow(isFilter bool) ast.Node {
	pos := p.cur.Position
	p.advance() // MAP/FILTER
	p.advance() // '('
	source := p.parseExpr()
	if p.failed() {
		return nil
	}
	if p.cur.Kind != token.Arrow {
		p.unexpected("expected '=>' in %s(...)", map[bool]string{true: "FILTER", false: "MAP"}[isFilter])
		return nil
	}
	p.advance()
	projection := p.parseExpr()
	if p.failed() {
		return nil
	}
	if p.cur.Kind != token.CloseParen {
		p.unexpected("expected ')'")
		return nil
	}
	p.advance()
	if isFilter {
		return &ast.FilterExpr{Source: source, Predicate: projection, StartPos: pos}
	}
	return &ast.MapExpr{Source: source, Projection: projection, StartPos: pos}
}

// arrayInit := '[' ( expr ( ',' expr )* )? ']'
func (p *Parser) parseArrayInit() ast.Node {
	pos := p.cur.Position
	p.advance()
	var elems []ast.Node
	if p.cur.Kind != token.CloseBracket {
		for {
			e := p.parseExpr()
			if p.failed() {
				return nil
			}
			elems = append(elems, e)
			if p.cur.Kind == token.Comma {
				p.advance()
				continue
			}
			break
		}
	}
	if p.cur.Kind != token.CloseBracket {
		p.unexpected("expected ']'")
		return nil
	}
	p.advance()
	return &ast.ArrayExpr{Elements: elems, StartPos: pos}
}

// docInit := '{' ( key ':' expr | IDENT )* '}'   (shorthand: IDENT ≡ IDENT:IDENT)
func (p *Parser) parseDocumentInit() ast.Node {
	pos := p.cur.Position
	p.advance()
	var fields []ast.DocField
	if p.cur.Kind != token.CloseBrace {
		for {
			key, keyPos, ok := p.parseDocKey()
			if !ok {
				return nil
			}
			if p.cur.Kind == token.Colon {
				p.advance()
				val := p.parseExpr()
				if p.failed() {
					return nil
				}
				fields = append(fields, ast.DocField{Key: key, Value: val})
			} else {
				// Shorthand: IDENT ≡ IDENT:IDENT (bare field references
				// the same-named root field).
				root := &ast.RootExpr{Which: ast.RootDocument, StartPos: keyPos}
				val := &ast.PathExpr{Base: root, Segments: []ast.Segment{{Kind: ast.SegField, Field: key, StartPos: keyPos}}, StartPos: keyPos}
				fields = append(fields, ast.DocField{Key: key, Value: val})
			}
			if p.cur.Kind == token.Comma {
				p.advance()
				continue
			}
			break
		}
	}
	if p.cur.Kind != token.CloseBrace {
		p.unexpected("expected '}'")
		return nil
	}
	p.advance()
	return &ast.DocumentExpr{Fields: fields, StartPos: pos}
}

func (p *Parser) parseDocKey() (string, int, bool) {
	pos := p.cur.Position
	switch p.cur.Kind {
	case token.Word:
		v := p.cur.Value
		p.advance()
		return v, pos, true
	case token.String:
		v := p.cur.Value
		p.advance()
		return v, pos, true
	default:
		p.unexpected("expected document key")
		return "", pos, false
	}
}

func parseIntLiteral(s string) int {
	n, _ := strconv.Atoi(s)
	return n
}
