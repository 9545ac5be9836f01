// Package parser implements the Pratt/precedence-climbing parser that
// turns a token stream into the raw AST defined in package ast (spec §4.2).
package parser

import (
	"strings"
	"sync"

	"github.com/docql/docql/ast"
	"github.com/docql/docql/dberr"
	"github.com/docql/docql/internal/lexer"
	"github.com/docql/docql/internal/token"
)

// maxExprDepth bounds recursive-descent nesting so pathological input (deep
// parenthesization, deeply nested MAP/FILTER) fails cleanly instead of
// overflowing the goroutine stack (spec §9 design notes).
const maxExprDepth = 200

// Parser is a recursive-descent parser over a token stream.
type Parser struct {
	lex   *lexer.Lexer
	cur   token.Token
	depth int
	err   *dberr.Error
}

var parserPool = sync.Pool{
	New: func() any { return &Parser{} },
}

// New creates a Parser over source.
func New(source string) *Parser {
	p := &Parser{lex: lexer.New(source)}
	p.advance()
	return p
}

// Get returns a pooled Parser reset to scan source. Call Put when done.
func Get(source string) *Parser {
	p := parserPool.Get().(*Parser)
	p.lex = lexer.Get(source)
	p.depth = 0
	p.err = nil
	p.advance()
	return p
}

// Put returns p and its lexer to their pools.
func Put(p *Parser) {
	if p.lex != nil {
		lexer.Put(p.lex)
		p.lex = nil
	}
	parserPool.Put(p)
}

// Parse parses a complete expression and verifies the whole input was
// consumed.
func (p *Parser) Parse() (ast.Node, error) {
	node := p.parseExpr()
	if p.err != nil {
		return nil, p.err
	}
	if p.cur.Kind != token.EOF {
		return nil, p.unexpected("trailing input after expression")
	}
	return node, nil
}

func (p *Parser) advance() {
	if p.err != nil {
		return
	}
	p.cur = p.lex.Next()
	if lerr := p.lex.Err(); lerr != nil && p.err == nil {
		p.err = dberr.At(dberr.CodeUnexpectedToken, p.cur.Position, "%s", lerr.Error())
	}
}

func (p *Parser) unexpected(format string, args ...any) *dberr.Error {
	if p.err != nil {
		return p.err
	}
	e := dberr.At(dberr.CodeUnexpectedToken, p.cur.Position, format, args...)
	p.err = e
	return e
}

func (p *Parser) failed() bool { return p.err != nil }

func (p *Parser) enter() bool {
	p.depth++
	if p.depth > maxExprDepth {
		p.unexpected("expression nesting exceeds depth limit (%d)", maxExprDepth)
		return false
	}
	return true
}

func (p *Parser) leave() { p.depth-- }

// word reports whether the current token is a Word whose upper-cased
// value equals kw. Keyword matching is case-insensitive; field names
// remain case-sensitive (handled at the value/field layer, not here).
func (p *Parser) word(kw string) bool {
	return p.cur.Kind == token.Word && strings.EqualFold(p.cur.Value, kw)
}

func (p *Parser) upperWord() string {
	return strings.ToUpper(p.cur.Value)
}

// parseExpr parses a full expression: the entry point for the whole
// precedence ladder and for every nested sub-expression (parenthesized
// expressions, call arguments, array/document elements, Map/Filter
// projections, Between bounds).
func (p *Parser) parseExpr() ast.Node {
	if !p.enter() {
		return nil
	}
	defer p.leave()
	return p.parseOr()
}

// orExpr := andExpr ( OR andExpr )*
func (p *Parser) parseOr() ast.Node {
	left := p.parseAnd()
	for !p.failed() && p.word("OR") {
		pos := p.cur.Position
		p.advance()
		right := p.parseAnd()
		if p.failed() {
			return nil
		}
		left = &ast.BinaryExpr{Op: ast.KindOr, Left: left, Right: right, StartPos: pos}
	}
	return left
}

// andExpr := predicate ( AND predicate )*
func (p *Parser) parseAnd() ast.Node {
	left := p.parsePredicate()
	for !p.failed() && p.word("AND") {
		pos := p.cur.Position
		p.advance()
		right := p.parsePredicate()
		if p.failed() {
			return nil
		}
		left = &ast.BinaryExpr{Op: ast.KindAnd, Left: left, Right: right, StartPos: pos}
	}
	return left
}

// predicate := additive (quant? compareOp additive | BETWEEN additive AND additive | LIKE additive | IN additive)?
// Comparisons, BETWEEN, LIKE and IN are non-chained: at most one such
// suffix is consumed (spec §4.2).
func (p *Parser) parsePredicate() ast.Node {
	left := p.parseAdditive()
	if p.failed() {
		return nil
	}

	quant := ast.QuantDefault
	if p.word("ANY") || p.word("ALL") {
		// A bare ANY/ALL reaching this point (i.e. not consumed already as
		// part of `left`'s atom parsing) can only be the quantifier
		// production "quant? compareOp"; "ANY(...)"/"ALL(...)" as a call
		// is recognized and consumed inside parseAtom, never here.
		kw := p.upperWord()
		pos := p.cur.Position
		p.advance()
		if !p.curIsCompareOp() {
			p.err = dberr.At(dberr.CodeUnexpectedToken, pos, "%s quantifier must be followed by a comparison operator", kw)
			return nil
		}
		if kw == "ANY" {
			quant = ast.QuantAny
		} else {
			quant = ast.QuantAll
		}
	}

	switch {
	case p.curIsCompareOp():
		op, pos := p.compareOpKind(), p.cur.Position
		p.advance()
		right := p.parseAdditive()
		if p.failed() {
			return nil
		}
		return &ast.BinaryExpr{Op: op, Left: left, Right: right, Quant: quant, StartPos: pos}
	case p.word("BETWEEN"):
		pos := p.cur.Position
		p.advance()
		low := p.parseBetweenBound()
		if p.failed() {
			return nil
		}
		if !p.word("AND") {
			p.unexpected("expected AND in BETWEEN expression")
			return nil
		}
		p.advance()
		high := p.parseBetweenBound()
		if p.failed() {
			return nil
		}
		return &ast.BetweenExpr{Target: left, Low: low, High: high, Quant: quant, StartPos: pos}
	case p.word("LIKE"):
		pos := p.cur.Position
		p.advance()
		right := p.parseAdditive()
		if p.failed() {
			return nil
		}
		return &ast.BinaryExpr{Op: ast.KindLike, Left: left, Right: right, Quant: quant, StartPos: pos}
	case p.word("IN"):
		pos := p.cur.Position
		p.advance()
		right := p.parseAdditive()
		if p.failed() {
			return nil
		}
		return &ast.BinaryExpr{Op: ast.KindIn, Left: left, Right: right, Quant: quant, StartPos: pos}
	default:
		return left
	}
}

// parseBetweenBound parses the "additive" operand of a BETWEEN bound,
// non-greedily: it must not itself consume a trailing AND, so that the
// BETWEEN's own AND is not swallowed by an outer AND-expression (spec
// §4.2: "parses b non-greedily so that an outer AND is not captured").
// Additive already stops before AND/OR/comparisons, so no special casing
// is needed beyond using parseAdditive directly.
func (p *Parser) parseBetweenBound() ast.Node {
	return p.parseAdditive()
}

func (p *Parser) curIsCompareOp() bool {
	switch p.cur.Kind {
	case token.Equals, token.NotEquals, token.Greater, token.GreaterOrEquals,
		token.Less, token.LessOrEquals:
		return true
	default:
		return false
	}
}

func (p *Parser) compareOpKind() ast.Kind {
	switch p.cur.Kind {
	case token.Equals:
		return ast.KindEqual
	case token.NotEquals:
		return ast.KindNotEqual
	case token.Greater:
		return ast.KindGreaterThan
	case token.GreaterOrEquals:
		return ast.KindGreaterThanOrEqual
	case token.Less:
		return ast.KindLessThan
	case token.LessOrEquals:
		return ast.KindLessThanOrEqual
	default:
		return ast.KindEqual
	}
}

// additive := multiplicative ( (+|-) multiplicative )*
func (p *Parser) parseAdditive() ast.Node {
	left := p.parseMultiplicative()
	for !p.failed() {
		var op ast.Kind
		switch p.cur.Kind {
		case token.Plus:
			op = ast.KindAdd
		case token.Minus:
			op = ast.KindSubtract
		default:
			return left
		}
		pos := p.cur.Position
		p.advance()
		right := p.parseMultiplicative()
		if p.failed() {
			return nil
		}
		left = &ast.BinaryExpr{Op: op, Left: left, Right: right, StartPos: pos}
	}
	return nil
}

// multiplicative := unary ( (*|/|%) unary )*
func (p *Parser) parseMultiplicative() ast.Node {
	left := p.parseUnary()
	for !p.failed() {
		var op ast.Kind
		switch p.cur.Kind {
		case token.Asterisk:
			op = ast.KindMultiply
		case token.Slash:
			op = ast.KindDivide
		case token.Percent:
			op = ast.KindModulo
		default:
			return left
		}
		pos := p.cur.Position
		p.advance()
		right := p.parseUnary()
		if p.failed() {
			return nil
		}
		left = &ast.BinaryExpr{Op: op, Left: left, Right: right, StartPos: pos}
	}
	return nil
}

// unary := '-'? postfix
//
// Only '-' is accepted as a unary prefix, not '+': "8 ++ 9" must fail with
// an unexpected-token error rather than parse as 8 + (+9).
func (p *Parser) parseUnary() ast.Node {
	if p.cur.Kind == token.Minus {
		pos := p.cur.Position
		p.advance()
		operand := p.parsePostfix()
		if p.failed() {
			return nil
		}
		// Unary minus is modeled as a binary subtract against an implicit
		// zero literal, avoiding a dedicated UnaryExpr node while keeping
		// the same arithmetic widening path as binary Subtract (spec
		// §4.3's arithmetic semantics apply uniformly).
		zero := &ast.Literal{LitKind: ast.KindInt, Value: "0", StartPos: pos}
		return &ast.BinaryExpr{Op: ast.KindSubtract, Left: zero, Right: operand, StartPos: pos}
	}
	return p.parsePostfix()
}

// postfix := atom ( '.' IDENT | '.' '[' STRING ']' | '[' filterOrIndex ']' )*
func (p *Parser) parsePostfix() ast.Node {
	base := p.parseAtom()
	if p.failed() {
		return nil
	}
	basePos := ast.Pos(base)
	var segs []ast.Segment
	for !p.failed() {
		switch p.cur.Kind {
		case token.Dot:
			p.advance()
			if p.cur.Kind == token.OpenBracket {
				p.advance()
				if p.cur.Kind != token.String {
					p.unexpected("expected bracketed string key after '.['")
					return nil
				}
				name := p.cur.Value
				pos := p.cur.Position
				p.advance()
				if p.cur.Kind != token.CloseBracket {
					p.unexpected("expected ']'")
					return nil
				}
				p.advance()
				segs = append(segs, ast.Segment{Kind: ast.SegField, Field: name, StartPos: pos})
				continue
			}
			if p.cur.Kind != token.Word {
				p.unexpected("expected identifier after '.'")
				return nil
			}
			name := p.cur.Value
			pos := p.cur.Position
			p.advance()
			segs = append(segs, ast.Segment{Kind: ast.SegField, Field: name, StartPos: pos})
		case token.OpenBracket:
			p.advance()
			seg := p.parseBracketSegment()
			if p.failed() {
				return nil
			}
			if p.cur.Kind != token.CloseBracket {
				p.unexpected("expected ']'")
				return nil
			}
			p.advance()
			segs = append(segs, seg)
		default:
			if len(segs) == 0 {
				return base
			}
			return buildPathOrMap(base, segs, basePos)
		}
	}
	return nil
}

func (p *Parser) parseBracketSegment() ast.Segment {
	pos := p.cur.Position
	if p.cur.Kind == token.Asterisk {
		p.advance()
		return ast.Segment{Kind: ast.SegAny, StartPos: pos}
	}
	if p.cur.Kind == token.Int && p.lex.Peek().Kind == token.CloseBracket {
		idxStr := p.cur.Value
		p.advance()
		idx := parseIntLiteral(idxStr)
		return ast.Segment{Kind: ast.SegIndex, Index: idx, StartPos: pos}
	}
	pred := p.parseExpr()
	if p.failed() {
		return ast.Segment{}
	}
	return ast.Segment{Kind: ast.SegFilter, Filter: pred, StartPos: pos}
}

// buildPathOrMap assembles the segment chain collected by parsePostfix
// into Path and (when an unbounded segment has further access chained
// after it) Map nodes, per spec §4.2's postfix-sugar lowering:
//
//	items[*].price                     ≡ MAP($.items[*] => @.price)
//	items[*].products[*].price         ≡ MAP($.items[*] => MAP(@.products[*] => @.price))
//	*.x                                ≡ MAP(* => @.x)
func buildPathOrMap(base ast.Node, segs []ast.Segment, basePos int) ast.Node {
	if _, ok := base.(*ast.SourceExpr); ok && len(segs) > 0 {
		// The standalone '*' is the Source node denoting the whole
		// collection; any access chained directly onto it maps over that
		// sequence rather than indexing a single document.
		projBase := &ast.RootExpr{Which: ast.RootCurrent, StartPos: segs[0].StartPos}
		projection := buildPathOrMap(projBase, segs, segs[0].StartPos)
		return &ast.MapExpr{Source: base, Projection: projection, StartPos: basePos}
	}
	for i, s := range segs {
		if (s.Kind == ast.SegAny || s.Kind == ast.SegFilter) && i < len(segs)-1 {
			source := wrapPath(base, segs[:i+1], basePos)
			rest := segs[i+1:]
			projBase := &ast.RootExpr{Which: ast.RootCurrent, StartPos: rest[0].StartPos}
			projection := buildPathOrMap(projBase, rest, rest[0].StartPos)
			return &ast.MapExpr{Source: source, Projection: projection, StartPos: basePos}
		}
	}
	return wrapPath(base, segs, basePos)
}

func wrapPath(base ast.Node, segs []ast.Segment, basePos int) ast.Node {
	if len(segs) == 0 {
		return base
	}
	return &ast.PathExpr{Base: base, Segments: segs, StartPos: basePos}
}
