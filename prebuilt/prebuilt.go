// Package prebuilt holds a small library of process-wide, lazily-initialized
// expressions that every collection needs and that never change shape:
// the primary key path, a document-count projection, and an existence
// check. Each is compiled once, behind a sync.Once, and reused from then
// on — the same amortized-allocation idea as the teacher's sync.Pool node
// pools, but for read-only singletons rather than recycled mutable values.
package prebuilt

import (
	"sync"

	"github.com/docql/docql/compile"
)

var (
	idOnce sync.Once
	idExpr *compile.Expression
	idErr  error

	countOnce sync.Once
	countExpr *compile.Expression
	countErr  error

	existsOnce sync.Once
	existsExpr *compile.Expression
	existsErr  error
)

// ID returns the compiled "_id" path expression.
func ID() (*compile.Expression, error) {
	idOnce.Do(func() {
		idExpr, idErr = compile.Compile("_id")
	})
	return idExpr, idErr
}

// Count returns the compiled "{ count: COUNT(*._id) }" projection.
func Count() (*compile.Expression, error) {
	countOnce.Do(func() {
		countExpr, countErr = compile.Compile("{ count: COUNT(*._id) }")
	})
	return countExpr, countErr
}

// Exists returns the compiled "{ exists: ANY(*._id) }" projection.
func Exists() (*compile.Expression, error) {
	existsOnce.Do(func() {
		existsExpr, existsErr = compile.Compile("{ exists: ANY(*._id) }")
	})
	return existsExpr, existsErr
}
