// Package query implements the query planner/optimizer (spec §3.5, §3.6,
// §4.6): it turns a Query plus a snapshot of a collection's indexes into an
// executable Plan, choosing the cheapest index via the index package's cost
// model and classifying which work happens before or after the scan.
package query

import (
	"github.com/docql/docql/compile"
	"github.com/docql/docql/index"
	"github.com/docql/docql/value"
)

// Order direction for an OrderBy or an IndexAll scan.
const (
	Ascending  = 1
	Descending = -1
)

// Query is the optimizer's input (spec §3.5).
type Query struct {
	Select    *compile.Expression   // required; Select.UsesSource carries the "use_source" flag
	Where     []*compile.Expression // ordered list of where-expressions, ANDed together
	Includes  []*compile.Expression // ordered list of single-field path expressions
	GroupBy   *compile.Expression   // nil if absent
	Having    *compile.Expression   // nil if absent
	OrderBy   *compile.Expression   // nil if absent
	Order     int                   // Ascending or Descending; meaningful only if OrderBy != nil
	Limit     int
	Offset    int
	ForUpdate bool

	// Virtual, when non-nil, is an external data sequence the query reads
	// from instead of a stored collection (spec §4.6 step 4: "If the input
	// carries a virtual index... use it with cost 0").
	Virtual []value.Value
}

// IndexKind tags which shape of index the planner chose (spec §3.6).
type IndexKind int

const (
	IndexAllKind IndexKind = iota
	IndexEqualsKind
	IndexRangeKind
	IndexScanKind
	IndexVirtualKind
)

// ChosenIndex describes the index the optimizer settled on.
type ChosenIndex struct {
	Kind       IndexKind
	Field      string // set for IndexAllKind
	Order      int    // set for IndexAllKind
	Descriptor index.Descriptor
}

// Plan is the optimizer's output (spec §3.6).
type Plan struct {
	Collection      string
	Index           ChosenIndex
	IndexCost       int
	IndexExpression string
	IsIndexKeyOnly  bool
	Filters         []*compile.Expression
	Fields          []string // empty/nil means "all"

	IncludeBefore []*compile.Expression
	IncludeAfter  []*compile.Expression

	OrderBy *compile.Expression
	Order   int
	GroupBy *compile.Expression

	Select    *compile.Expression
	Limit     int
	Offset    int
	ForUpdate bool
}

// FieldsForIndexOnly re-derives a plan's index-only-scan fields without
// re-running the optimizer (spec §9 supplement: exposing the lower-level
// primitive alongside the full Optimize pipeline).
func FieldsForIndexOnly(p *Plan) ([]string, bool) {
	return p.Fields, p.IsIndexKeyOnly
}
