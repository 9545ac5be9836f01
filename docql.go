// Package docql compiles and optimizes the expression sublanguage of an
// embedded, single-file document database: a LINQ-like path/predicate
// grammar over a BSON-shaped document model, compiled to cacheable,
// metadata-carrying expressions and planned against a collection's indexes.
//
// Basic usage:
//
//	e, err := docql.Compile("age > 18 and name like \"bo%\"")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	vals, err := e.Evaluate(docql.Env{Root: doc, Current: doc})
//
// Planning a query against a collection's indexes:
//
//	plan, err := docql.NewOptimizer().Optimize("users", &docql.Query{
//	    Select: e,
//	    Where:  []*docql.Expression{where},
//	}, snapshot)
//
// Walking or pretty-printing a parsed expression:
//
//	docql.Walk(node, func(n ast.Node) bool {
//	    if p, ok := n.(*ast.PathExpr); ok {
//	        fmt.Println(p)
//	    }
//	    return true
//	})
//	fmt.Println(docql.Format(node))
package docql

import (
	"github.com/docql/docql/ast"
	"github.com/docql/docql/collate"
	"github.com/docql/docql/compile"
	"github.com/docql/docql/format"
	"github.com/docql/docql/index"
	"github.com/docql/docql/parser"
	"github.com/docql/docql/prebuilt"
	"github.com/docql/docql/query"
	"github.com/docql/docql/value"
	"github.com/docql/docql/visitor"
)

// Compile parses and compiles source, returning the process-wide cached
// Expression if an equivalent (by normalized form) expression was compiled
// before.
func Compile(source string) (*Expression, error) {
	return compile.Compile(source)
}

// CompileForIndex compiles source under the restricted grammar an index
// expression must satisfy: paths and document/array initializers only, no
// parameters, user-defined calls, the source sequence, or operators.
func CompileForIndex(source string) (*Expression, error) {
	return compile.CompileForIndex(source)
}

// Parse parses source to a raw, not-yet-compiled syntax tree, for callers
// that want to Walk, Rewrite, or Format it before compiling.
func Parse(source string) (ast.Node, error) {
	return parser.New(source).Parse()
}

// Format renders node as human-readable, indented text.
func Format(node ast.Node) string {
	return format.String(node)
}

// Walk traverses node's AST in depth-first order, calling fn for each node.
// Returning false from fn skips that node's children.
func Walk(node ast.Node, fn func(ast.Node) bool) {
	visitor.WalkFunc(node, fn)
}

// Rewrite traverses node's AST in post-order, allowing node replacement.
func Rewrite(node ast.Node, fn func(ast.Node) ast.Node) ast.Node {
	return visitor.Rewrite(node, fn)
}

// NewOptimizer constructs a query planner.
func NewOptimizer() *query.Optimizer {
	return query.NewOptimizer()
}

// ID, Count, and Exists return the library's prebuilt singleton expressions.
func ID() (*Expression, error)     { return prebuilt.ID() }
func Count() (*Expression, error)  { return prebuilt.Count() }
func Exists() (*Expression, error) { return prebuilt.Exists() }

// Type aliases for convenient single-import use.
type (
	Expression  = compile.Expression
	Env         = compile.Env
	Query       = query.Query
	Plan        = query.Plan
	ChosenIndex = query.ChosenIndex
	IndexKind   = query.IndexKind
	Collation   = collate.Collation
	Descriptor  = index.Descriptor
	Snapshot    = index.Snapshot
	Predicate   = index.Predicate
	Value       = value.Value
	Document    = value.Document
)

// Index kinds.
const (
	IndexAllKind     = query.IndexAllKind
	IndexEqualsKind  = query.IndexEqualsKind
	IndexRangeKind   = query.IndexRangeKind
	IndexScanKind    = query.IndexScanKind
	IndexVirtualKind = query.IndexVirtualKind
)

// Order directions.
const (
	Ascending  = query.Ascending
	Descending = query.Descending
)
