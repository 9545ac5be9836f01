// Package format renders an expression AST as human-readable, indented
// text — a debugging/logging view distinct from compile.normalize's
// single-line canonical form, which optimizes for cache-key equality
// rather than readability. The split mirrors the teacher's own
// separation of concerns: one layer decides canonical text, another
// decides how to print it for a person.
package format

import (
	"bytes"
	"strconv"
	"strings"

	"github.com/docql/docql/ast"
)

// Options controls rendering.
type Options struct {
	Uppercase bool   // uppercase keywords (AND, OR, MAP, BETWEEN, ...)
	Indent    string // indentation unit per nesting level
}

// DefaultOptions matches the canonical normalizer's own casing choice.
var DefaultOptions = Options{Uppercase: true, Indent: "  "}

// String renders node using DefaultOptions.
func String(node ast.Node) string {
	return New(DefaultOptions).Render(node)
}

// Formatter renders AST nodes to indented text.
type Formatter struct {
	buf  bytes.Buffer
	opts Options
}

// New creates a Formatter with the given options.
func New(opts Options) *Formatter {
	return &Formatter{opts: opts}
}

// Render returns node's indented text form, starting at nesting depth 0.
func (f *Formatter) Render(node ast.Node) string {
	f.buf.Reset()
	f.write(node, 0)
	return f.buf.String()
}

func (f *Formatter) write(node ast.Node, depth int) {
	switch n := node.(type) {
	case nil:
		return
	case *ast.RootExpr:
		if n.Which == ast.RootDocument {
			f.buf.WriteString("$")
		} else {
			f.buf.WriteString("@")
		}
	case *ast.SourceExpr:
		f.buf.WriteString("*")
	case *ast.Literal:
		f.writeLiteral(n)
	case *ast.ParameterExpr:
		if n.Index >= 0 {
			f.buf.WriteString("@" + strconv.Itoa(n.Index))
		} else {
			f.buf.WriteString("@" + n.Name)
		}
	case *ast.PathExpr:
		f.writePath(n)
	case *ast.ArrayExpr:
		f.writeBlock("[", "]", depth, len(n.Elements), func(i int) {
			f.write(n.Elements[i], depth+1)
		})
	case *ast.DocumentExpr:
		f.writeBlock("{", "}", depth, len(n.Fields), func(i int) {
			f.buf.WriteString(n.Fields[i].Key)
			f.buf.WriteString(": ")
			f.write(n.Fields[i].Value, depth+1)
		})
	case *ast.CallExpr:
		name := n.Name
		if f.opts.Uppercase {
			name = strings.ToUpper(name)
		}
		f.buf.WriteString(name)
		f.writeBlock("(", ")", depth, len(n.Args), func(i int) {
			f.write(n.Args[i], depth+1)
		})
	case *ast.MapExpr:
		f.writeArrow("MAP", n.Source, n.Projection, depth)
	case *ast.FilterExpr:
		f.writeArrow("FILTER", n.Source, n.Predicate, depth)
	case *ast.BetweenExpr:
		f.write(n.Target, depth)
		f.writeKeyword(" BETWEEN ")
		f.write(n.Low, depth)
		f.writeKeyword(" AND ")
		f.write(n.High, depth)
	case *ast.BinaryExpr:
		f.writeBinary(n, depth)
	}
}

func (f *Formatter) writeLiteral(l *ast.Literal) {
	switch l.LitKind {
	case ast.KindString:
		f.buf.WriteByte('"')
		f.buf.WriteString(l.Value)
		f.buf.WriteByte('"')
	case ast.KindNull:
		f.writeKeyword("NULL")
	case ast.KindBoolean:
		f.writeKeyword(l.Value)
	default:
		f.buf.WriteString(l.Value)
	}
}

func (f *Formatter) writePath(p *ast.PathExpr) {
	f.write(p.Base, 0)
	for _, seg := range p.Segments {
		switch seg.Kind {
		case ast.SegField:
			f.buf.WriteByte('.')
			f.buf.WriteString(seg.Field)
		case ast.SegIndex:
			f.buf.WriteByte('[')
			f.buf.WriteString(strconv.Itoa(seg.Index))
			f.buf.WriteByte(']')
		case ast.SegAny:
			f.buf.WriteString("[*]")
		case ast.SegFilter:
			f.buf.WriteByte('[')
			f.write(seg.Filter, 0)
			f.buf.WriteByte(']')
		}
	}
}

// writeArrow renders "NAME(source => projection)" on one line; compound
// sides are not broken across lines.
func (f *Formatter) writeArrow(name string, source, projection ast.Node, depth int) {
	if f.opts.Uppercase {
		name = strings.ToUpper(name)
	} else {
		name = strings.ToLower(name)
	}
	f.buf.WriteString(name)
	f.buf.WriteByte('(')
	f.write(source, depth)
	f.buf.WriteString(" => ")
	f.write(projection, depth)
	f.buf.WriteByte(')')
}

func (f *Formatter) writeBinary(b *ast.BinaryExpr, depth int) {
	switch b.Op {
	case ast.KindAnd, ast.KindOr:
		f.indent(depth)
		f.write(b.Left, depth)
		f.buf.WriteByte('\n')
		f.indent(depth)
		if b.Op == ast.KindAnd {
			f.writeKeyword("AND")
		} else {
			f.writeKeyword("OR")
		}
		f.buf.WriteByte('\n')
		f.write(b.Right, depth)
	case ast.KindLike:
		f.write(b.Left, depth)
		f.writeKeyword(" LIKE ")
		f.write(b.Right, depth)
	case ast.KindIn:
		f.write(b.Left, depth)
		f.writeKeyword(" IN ")
		f.write(b.Right, depth)
	default:
		f.write(b.Left, depth)
		f.buf.WriteString(" ")
		f.buf.WriteString(compareSymbol(b.Op))
		f.buf.WriteString(" ")
		f.write(b.Right, depth)
	}
}

// writeBlock renders count children delimited by open/close, one per
// indented line when there is more than one, inline otherwise.
func (f *Formatter) writeBlock(open, closing string, depth, count int, writeChild func(i int)) {
	f.buf.WriteString(open)
	if count == 0 {
		f.buf.WriteString(closing)
		return
	}
	if count == 1 {
		writeChild(0)
		f.buf.WriteString(closing)
		return
	}
	for i := 0; i < count; i++ {
		f.buf.WriteByte('\n')
		f.indent(depth + 1)
		writeChild(i)
		if i < count-1 {
			f.buf.WriteByte(',')
		}
	}
	f.buf.WriteByte('\n')
	f.indent(depth)
	f.buf.WriteString(closing)
}

func (f *Formatter) indent(depth int) {
	for i := 0; i < depth; i++ {
		f.buf.WriteString(f.opts.Indent)
	}
}

func (f *Formatter) writeKeyword(kw string) {
	if f.opts.Uppercase {
		f.buf.WriteString(strings.ToUpper(kw))
	} else {
		f.buf.WriteString(strings.ToLower(kw))
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
	case ast.KindAdd:
		return "+"
	case ast.KindSubtract:
		return "-"
	case ast.KindMultiply:
		return "*"
	case ast.KindDivide:
		return "/"
	case ast.KindModulo:
		return "%"
	default:
		return "?"
	}
}
