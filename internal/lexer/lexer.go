// Package lexer turns expression source text into a stream of tokens.
package lexer

import (
	"fmt"
	"strings"
	"sync"

	"github.com/docql/docql/internal/token"
)

// Lexer reads characters from a source string and produces tokens on
// demand, one at a time, with a single token of lookahead. It mirrors the
// pooled scan-on-demand shape of a hand-written recursive-descent lexer:
// Next consumes, Peek looks ahead without consuming.
type Lexer struct {
	input  string
	pos    int
	peeked bool
	item   token.Token
	err    error
}

var lexerPool = sync.Pool{
	New: func() any { return &Lexer{} },
}

// New creates a Lexer over input.
func New(input string) *Lexer {
	return &Lexer{input: input}
}

// Get returns a pooled Lexer reset to scan input.
func Get(input string) *Lexer {
	l := lexerPool.Get().(*Lexer)
	l.Reset(input)
	return l
}

// Put returns l to the pool. l must not be used afterward.
func Put(l *Lexer) {
	lexerPool.Put(l)
}

// Reset rewinds l to scan a new input string.
func (l *Lexer) Reset(input string) {
	l.input = input
	l.pos = 0
	l.peeked = false
	l.item = token.Token{}
	l.err = nil
}

// Err returns the first lexical error encountered, if any. Once set, Next
// and Peek keep returning the EOF token.
func (l *Lexer) Err() error {
	return l.err
}

// Next consumes and returns the next token.
func (l *Lexer) Next() token.Token {
	if l.peeked {
		l.peeked = false
		return l.item
	}
	l.item = l.scan()
	return l.item
}

// Peek returns the next token without consuming it.
func (l *Lexer) Peek() token.Token {
	if !l.peeked {
		l.item = l.scan()
		l.peeked = true
	}
	return l.item
}

// Expect consumes the next token if it has kind k, otherwise leaves it
// unconsumed and returns the zero Token and false; it records no error.
// This is the "read expected kind, else fail" helper from spec §4.1; the
// caller builds any dberr.Error carrying the stable error code.
func (l *Lexer) Expect(k token.Kind) (token.Token, bool) {
	t := l.Peek()
	if t.Kind != k {
		return token.Token{}, false
	}
	l.Next()
	return t, true
}

func (l *Lexer) fail(format string, args ...any) token.Token {
	if l.err == nil {
		l.err = fmt.Errorf(format, args...)
	}
	return token.Token{Kind: token.EOF, Position: len(l.input)}
}

func (l *Lexer) scan() token.Token {
	if l.err != nil {
		return token.Token{Kind: token.EOF, Position: len(l.input)}
	}
	l.skipWhitespaceAndComments()
	if l.pos >= len(l.input) {
		return token.Token{Kind: token.EOF, Position: len(l.input)}
	}

	start := l.pos
	ch := l.input[l.pos]

	switch {
	case ch == '{':
		l.pos++
		return l.make(token.OpenBrace, start)
	case ch == '}':
		l.pos++
		return l.make(token.CloseBrace, start)
	case ch == '[':
		l.pos++
		return l.make(token.OpenBracket, start)
	case ch == ']':
		l.pos++
		return l.make(token.CloseBracket, start)
	case ch == '(':
		l.pos++
		return l.make(token.OpenParen, start)
	case ch == ')':
		l.pos++
		return l.make(token.CloseParen, start)
	case ch == ',':
		l.pos++
		return l.make(token.Comma, start)
	case ch == ':':
		l.pos++
		return l.make(token.Colon, start)
	case ch == '.':
		if l.pos+1 < len(l.input) && isDigit(l.input[l.pos+1]) {
			return l.scanNumber()
		}
		l.pos++
		return l.make(token.Dot, start)
	case ch == '$':
		l.pos++
		return l.make(token.Dollar, start)
	case ch == '@':
		l.pos++
		return l.make(token.At, start)
	case ch == '+':
		l.pos++
		return l.make(token.Plus, start)
	case ch == '-':
		l.pos++
		return l.make(token.Minus, start)
	case ch == '*':
		l.pos++
		return l.make(token.Asterisk, start)
	case ch == '/':
		l.pos++
		return l.make(token.Slash, start)
	case ch == '%':
		l.pos++
		return l.make(token.Percent, start)
	case ch == '?':
		l.pos++
		return l.make(token.Question, start)
	case ch == '=':
		l.pos++
		if l.pos < len(l.input) && l.input[l.pos] == '>' {
			l.pos++
			return l.make(token.Arrow, start)
		}
		return l.make(token.Equals, start)
	case ch == '!':
		if l.pos+1 < len(l.input) && l.input[l.pos+1] == '=' {
			l.pos += 2
			return l.make(token.NotEquals, start)
		}
		return l.fail("unexpected character %q at position %d", ch, start)
	case ch == '<':
		l.pos++
		if l.pos < len(l.input) {
			switch l.input[l.pos] {
			case '=':
				l.pos++
				return l.make(token.LessOrEquals, start)
			case '>':
				l.pos++
				return l.make(token.NotEquals, start)
			}
		}
		return l.make(token.Less, start)
	case ch == '>':
		l.pos++
		if l.pos < len(l.input) && l.input[l.pos] == '=' {
			l.pos++
			return l.make(token.GreaterOrEquals, start)
		}
		return l.make(token.Greater, start)
	case ch == '\'' || ch == '"':
		return l.scanString(ch)
	case isDigit(ch):
		return l.scanNumber()
	case isIdentStart(ch):
		return l.scanWord()
	default:
		return l.fail("unexpected character %q at position %d", ch, start)
	}
}

func (l *Lexer) make(k token.Kind, start int) token.Token {
	return token.Token{Kind: k, Value: l.input[start:l.pos], Position: l.pos}
}

func (l *Lexer) skipWhitespaceAndComments() {
	for l.pos < len(l.input) {
		ch := l.input[l.pos]
		switch {
		case ch == ' ' || ch == '\t' || ch == '\n' || ch == '\r':
			l.pos++
		case ch == '/' && l.pos+1 < len(l.input) && l.input[l.pos+1] == '*':
			l.skipNestedComment()
		default:
			return
		}
	}
}

// skipNestedComment consumes a /* ... */ comment, honoring nested /* */
// pairs (spec §4.1: "nested comments are skipped").
func (l *Lexer) skipNestedComment() {
	start := l.pos
	l.pos += 2
	depth := 1
	for l.pos < len(l.input) && depth > 0 {
		if strings.HasPrefix(l.input[l.pos:], "/*") {
			depth++
			l.pos += 2
			continue
		}
		if strings.HasPrefix(l.input[l.pos:], "*/") {
			depth--
			l.pos += 2
			continue
		}
		l.pos++
	}
	if depth > 0 {
		l.pos = start
		l.fail("unterminated comment at position %d", start)
	}
}

func isDigit(ch byte) bool { return ch >= '0' && ch <= '9' }

func isIdentStart(ch byte) bool {
	return ch == '_' || (ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z') || ch >= 0x80
}

func isIdentPart(ch byte) bool {
	return isIdentStart(ch) || isDigit(ch)
}

func (l *Lexer) scanWord() token.Token {
	start := l.pos
	for l.pos < len(l.input) && isIdentPart(l.input[l.pos]) {
		l.pos++
	}
	return l.make(token.Word, start)
}

func (l *Lexer) scanNumber() token.Token {
	start := l.pos
	isDouble := false
	for l.pos < len(l.input) && isDigit(l.input[l.pos]) {
		l.pos++
	}
	if l.pos < len(l.input) && l.input[l.pos] == '.' {
		// A '.' that is not followed by a digit ends the number (it's the
		// postfix path operator), e.g. "5.Field" lexes as INT "5" then DOT.
		if l.pos+1 < len(l.input) && isDigit(l.input[l.pos+1]) {
			isDouble = true
			l.pos++
			for l.pos < len(l.input) && isDigit(l.input[l.pos]) {
				l.pos++
			}
		}
	}
	if l.pos < len(l.input) && (l.input[l.pos] == 'e' || l.input[l.pos] == 'E') {
		save := l.pos
		p := l.pos + 1
		if p < len(l.input) && (l.input[p] == '+' || l.input[p] == '-') {
			p++
		}
		if p < len(l.input) && isDigit(l.input[p]) {
			isDouble = true
			l.pos = p
			for l.pos < len(l.input) && isDigit(l.input[l.pos]) {
				l.pos++
			}
		} else {
			l.pos = save
		}
	}
	kind := token.Int
	if isDouble {
		kind = token.Double
	}
	return token.Token{Kind: kind, Value: l.input[start:l.pos], Position: l.pos}
}

// scanString reads a single- or double-quoted string literal with
// backslash escapes, returning the unescaped value while the lexeme's raw
// text (incl. quotes) is discarded (spec §4.1: "the token carries the
// unescaped value").
func (l *Lexer) scanString(quote byte) token.Token {
	start := l.pos
	l.pos++ // opening quote
	var b strings.Builder
	for {
		if l.pos >= len(l.input) {
			l.pos = start
			return l.fail("unterminated string starting at position %d", start)
		}
		ch := l.input[l.pos]
		if ch == quote {
			l.pos++
			break
		}
		if ch == '\\' && l.pos+1 < len(l.input) {
			l.pos++
			esc := l.input[l.pos]
			switch esc {
			case 'n':
				b.WriteByte('\n')
			case 't':
				b.WriteByte('\t')
			case 'r':
				b.WriteByte('\r')
			case '\\', '\'', '"':
				b.WriteByte(esc)
			default:
				b.WriteByte(esc)
			}
			l.pos++
			continue
		}
		b.WriteByte(ch)
		l.pos++
	}
	return token.Token{Kind: token.String, Value: b.String(), Position: l.pos}
}
