// Package compile turns a parsed expression into the metadata-carrying,
// evaluable form described in spec §3.3/§4.3: scalar/sequence shape, field
// dependencies, immutability, and a pure evaluate function, plus the
// canonical source normalization of §4.4.
package compile

import (
	"sync"

	"github.com/docql/docql/ast"
	"github.com/docql/docql/collate"
	"github.com/docql/docql/dberr"
	"github.com/docql/docql/parser"
	"github.com/docql/docql/value"
)

// Expression is a compiled, immutable expression: the AST plus the metadata
// spec §3.3 requires of every compiled node. Sub-expressions are exposed
// recursively through Left/Right/Parameters for reflection (spec §6.2),
// mirroring how the teacher's formatter walks a typed AST rather than a
// grab-bag of marshaled fields.
type Expression struct {
	Source      string
	Type        ast.Kind
	IsScalar    bool
	IsImmutable bool
	IsPredicate bool
	IsAny       bool
	IsAll       bool
	UsesSource  bool
	Fields      []string

	Left       *Expression
	Right      *Expression
	Parameters []*Expression

	node ast.Node
}

// cache is the process-wide compile cache, keyed by normalized source (spec
// §5: "linearizable insert-if-absent"); sync.Map.LoadOrStore gives exactly
// that without a separate mutex, the same way the teacher relies on
// sync.Pool's own internal synchronization rather than hand-rolled locking.
var cache sync.Map // map[string]*Expression

// Compile parses and compiles source, returning the cached Expression if an
// equivalent (by normalized form) expression was compiled before.
func Compile(source string) (*Expression, error) {
	node, err := parser.New(source).Parse()
	if err != nil {
		return nil, err
	}
	return compileNode(node)
}

// CompileForIndex compiles source under the restricted grammar spec §6.1
// requires for index expressions: no parameters, no user-defined calls, no
// `*`, no operators — only paths (with `[*]`/`[index]`/scalar predicate
// segments) and document/array initializers over the same.
func CompileForIndex(source string) (*Expression, error) {
	node, err := parser.New(source).Parse()
	if err != nil {
		return nil, err
	}
	if err := validateForIndex(node); err != nil {
		return nil, err
	}
	return compileNode(node)
}

func compileNode(node ast.Node) (*Expression, error) {
	m, err := analyze(node)
	if err != nil {
		return nil, err
	}
	m.Source = normalize(node)
	if cached, ok := cache.Load(m.Source); ok {
		return cached.(*Expression), nil
	}
	actual, _ := cache.LoadOrStore(m.Source, m)
	return actual.(*Expression), nil
}

// Env is the ambient evaluation environment threaded through Evaluate: the
// four inputs spec §3.3's evaluate contract names (source sequence, root
// document, current value, collation) plus the parameters document.
type Env struct {
	Source     []value.Value
	Root       value.Value
	Current    value.Value
	Collation  collate.Collation
	Parameters *value.Document
}

func (e Env) withCurrent(v value.Value) Env {
	e.Current = v
	return e
}

// Evaluate runs e against env, yielding the sequence spec §3.3 describes;
// scalar expressions yield a single-element sequence.
func (e *Expression) Evaluate(env Env) ([]value.Value, error) {
	if env.Collation == nil {
		env.Collation = collate.Invariant
	}
	return evalNode(e.node, env)
}

// ExecuteScalar is the spec §6.2/§9 convenience wrapper used by tests and
// other callers: the first emitted value, or Null on an empty sequence.
func (e *Expression) ExecuteScalar(root value.Value, coll collate.Collation, params *value.Document) (value.Value, error) {
	env := Env{Root: root, Current: root, Collation: coll, Parameters: params}
	vals, err := e.Evaluate(env)
	if err != nil {
		return value.Null, err
	}
	if len(vals) == 0 {
		return value.Null, nil
	}
	return vals[0], nil
}

var errUnknownFunction = func(name string, argc int) error {
	return dberr.New(dberr.CodeInvalidExpressionType, "unknown function or wrong arity: %s/%d", name, argc)
}
