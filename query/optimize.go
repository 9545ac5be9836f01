package query

import (
	"strings"

	"github.com/docql/docql/ast"
	"github.com/docql/docql/collate"
	"github.com/docql/docql/compile"
	"github.com/docql/docql/dberr"
	"github.com/docql/docql/index"
)

// Optimizer runs the fixed nine-step sequence of spec §4.6 over a Query.
// It carries no state of its own; a value receiver would do just as well,
// but the teacher's formatter/visitor types are all pointer-receiver
// structs, so this module keeps that shape for consistency.
type Optimizer struct{}

// NewOptimizer constructs an Optimizer.
func NewOptimizer() *Optimizer { return &Optimizer{} }

// Optimize turns q into an executable Plan against collection, consulting
// snap for the collection's current index list.
func (o *Optimizer) Optimize(collection string, q *Query, snap index.Snapshot) (*Plan, error) {
	terms, err := splitWhereIntoTerms(q.Where)
	if err != nil {
		return nil, err
	}
	terms = optimizeTerms(terms)

	fields := collectFields(q, terms)

	chosen, consumed, cost, indexExpr := chooseIndex(q, terms, fields, snap)

	plan := &Plan{
		Collection:      collection,
		Index:           chosen,
		IndexCost:       cost,
		IndexExpression: indexExpr,
		Fields:          fields,
		Select:          q.Select,
		Limit:           q.Limit,
		Offset:          q.Offset,
		ForUpdate:       q.ForUpdate,
	}
	plan.IsIndexKeyOnly = isIndexKeyOnly(fields, indexExpr)
	plan.Filters = populateFilters(terms, consumed)

	defineOrderBy(plan, q, indexExpr)
	if err := defineGroupBy(plan, q, indexExpr); err != nil {
		return nil, err
	}
	partitionIncludes(plan, q)

	return plan, nil
}

// splitWhereIntoTerms is step 1: walk each where expression, recursing
// through AND, collecting the leaves as independent terms. A leaf using the
// source sequence or that is neither a predicate nor an OR is rejected.
func splitWhereIntoTerms(where []*compile.Expression) ([]*compile.Expression, error) {
	var terms []*compile.Expression
	var walk func(e *compile.Expression) error
	walk = func(e *compile.Expression) error {
		if e.Type == ast.KindAnd {
			if err := walk(e.Left); err != nil {
				return err
			}
			return walk(e.Right)
		}
		if e.UsesSource {
			return dberr.New(dberr.CodeInvalidExpressionType, "WHERE must not reference the source sequence: %s", e.Source)
		}
		if !e.IsPredicate {
			return dberr.New(dberr.CodeInvalidExpressionType, "WHERE term is not a predicate: %s", e.Source)
		}
		terms = append(terms, e)
		return nil
	}
	for _, w := range where {
		if w == nil {
			continue
		}
		if err := walk(w); err != nil {
			return nil, err
		}
	}
	return terms, nil
}

// optimizeTerms is step 2: rewrite "seq = scalar_path" under ANY into
// "scalar_path IN ARRAY(seq)", the indexable form of the common
// contains-this-value LINQ pattern.
func optimizeTerms(terms []*compile.Expression) []*compile.Expression {
	out := make([]*compile.Expression, len(terms))
	for i, t := range terms {
		out[i] = rewriteAnyEqualToIn(t)
	}
	return out
}

func rewriteAnyEqualToIn(t *compile.Expression) *compile.Expression {
	if t.Type != ast.KindEqual || !t.IsAny || t.Left == nil || t.Right == nil {
		return t
	}
	if t.Left.IsScalar || !t.Right.IsScalar || t.Right.Type != ast.KindPath {
		return t
	}
	rewritten, err := compile.Compile(t.Right.Source + " IN ARRAY(" + t.Left.Source + ")")
	if err != nil {
		return t
	}
	return rewritten
}

// collectFields is step 3: union the field sets of select, every term,
// every include, group_by, having and order_by; a union containing "$"
// collapses to "load the whole document" (an empty/nil field set).
func collectFields(q *Query, terms []*compile.Expression) []string {
	var fields []string
	add := func(e *compile.Expression) {
		if e == nil {
			return
		}
		fields = mergeFieldSets(fields, e.Fields)
	}
	add(q.Select)
	for _, t := range terms {
		add(t)
	}
	for _, inc := range q.Includes {
		add(inc)
	}
	add(q.GroupBy)
	add(q.Having)
	add(q.OrderBy)

	for _, f := range fields {
		if f == "$" {
			return nil
		}
	}
	return fields
}

// isValueSide reports whether e is usable as the "value" operand of a
// comparison for index-matching purposes: it depends on no document field
// (a literal, a parameter, or a call over only such things).
func isValueSide(e *compile.Expression) bool {
	return len(e.Fields) == 0
}

type candidate struct {
	term *compile.Expression
	desc index.Descriptor
	cost int
}

// chooseIndex is step 4.
func chooseIndex(q *Query, terms []*compile.Expression, fields []string, snap index.Snapshot) (ChosenIndex, *compile.Expression, int, string) {
	if q.Virtual != nil {
		return ChosenIndex{Kind: IndexVirtualKind}, nil, 0, ""
	}

	var indexes []index.Descriptor
	if snap != nil {
		indexes = snap.GetIndexes()
	}

	var best *candidate
	for _, t := range terms {
		c := matchTermToIndex(t, indexes)
		if c == nil {
			continue
		}
		if best == nil || c.cost < best.cost {
			best = c
		}
	}
	if best != nil {
		kind := indexKindForTermType(best.term.Type)
		return ChosenIndex{Kind: kind, Descriptor: best.desc}, best.term, best.cost, best.desc.Expression()
	}

	if q.GroupBy != nil {
		if d := findIndexByExpression(indexes, q.GroupBy.Source); d != nil {
			return ChosenIndex{Kind: IndexScanKind, Descriptor: d}, nil, defaultCost(d), d.Expression()
		}
	}
	if q.OrderBy != nil {
		if d := findIndexByExpression(indexes, q.OrderBy.Source); d != nil {
			return ChosenIndex{Kind: IndexScanKind, Descriptor: d}, nil, defaultCost(d), d.Expression()
		}
	}
	if len(fields) == 1 {
		hint := "$." + fields[0]
		if d := findIndexByExpression(indexes, hint); d != nil {
			return ChosenIndex{Kind: IndexScanKind, Descriptor: d}, nil, defaultCost(d), d.Expression()
		}
	}

	pk := findIndexByExpression(indexes, index.PrimaryKeyExpression)
	if pk == nil {
		pk = index.PrimaryKeyIndex(0)
	}
	return ChosenIndex{Kind: IndexAllKind, Field: "_id", Order: Ascending, Descriptor: pk}, nil, 0, pk.Expression()
}

func defaultCost(d index.Descriptor) int {
	cost, ok := d.Cost(index.Predicate{Kind: index.KindEqual})
	if !ok {
		return d.KeyCount()
	}
	return cost
}

func indexKindForTermType(k ast.Kind) IndexKind {
	switch k {
	case ast.KindEqual, ast.KindIn:
		return IndexEqualsKind
	case ast.KindBetween, ast.KindGreaterThan, ast.KindGreaterThanOrEqual,
		ast.KindLessThan, ast.KindLessThanOrEqual, ast.KindLike:
		return IndexRangeKind
	default:
		return IndexScanKind
	}
}

// matchTermToIndex finds the (index, cost) candidate for a single where
// term, or nil if the term admits no index. ALL-quantified terms are never
// indexable (spec §4.6 step 4 / open question in §9).
func matchTermToIndex(t *compile.Expression, indexes []index.Descriptor) *candidate {
	if t.IsAll {
		return nil
	}

	switch t.Type {
	case ast.KindBetween:
		target := t.Left
		if target == nil || len(t.Parameters) != 2 {
			return nil
		}
		d := findIndexByExpression(indexes, target.Source)
		if d == nil {
			return nil
		}
		cost, ok := d.Cost(index.Predicate{Kind: index.KindBetween})
		if !ok {
			return nil
		}
		return &candidate{term: t, desc: d, cost: cost}

	case ast.KindIn:
		left, right := t.Left, t.Right
		if left == nil || right == nil {
			return nil
		}
		d := findIndexByExpression(indexes, left.Source)
		if d == nil {
			return nil
		}
		cost, ok := d.Cost(index.Predicate{Kind: index.KindIn, KeyCount: inKeyCount(right)})
		if !ok {
			return nil
		}
		return &candidate{term: t, desc: d, cost: cost}

	case ast.KindEqual, ast.KindNotEqual, ast.KindGreaterThan, ast.KindGreaterThanOrEqual,
		ast.KindLessThan, ast.KindLessThanOrEqual, ast.KindLike:
		left, right := t.Left, t.Right
		if left == nil || right == nil {
			return nil
		}
		var pathSide, valueSide *compile.Expression
		switch {
		case !isValueSide(left) && isValueSide(right):
			pathSide, valueSide = left, right
		case isValueSide(left) && !isValueSide(right):
			pathSide, valueSide = right, left
		default:
			return nil
		}
		d := findIndexByExpression(indexes, pathSide.Source)
		if d == nil {
			return nil
		}
		pred := index.Predicate{Kind: mapComparisonKind(t.Type)}
		if t.Type == ast.KindLike {
			if pattern, ok := literalStringContent(valueSide); ok {
				if prefix, isPrefix := collate.LikePrefix(pattern); isPrefix {
					pred.LikePrefix = true
					pred.Selectivity = prefixSelectivity(prefix)
				}
			}
		}
		cost, ok := d.Cost(pred)
		if !ok {
			return nil
		}
		return &candidate{term: t, desc: d, cost: cost}
	}
	return nil
}

func mapComparisonKind(k ast.Kind) index.Kind {
	switch k {
	case ast.KindEqual:
		return index.KindEqual
	case ast.KindNotEqual:
		return index.KindNotEqual
	case ast.KindGreaterThan:
		return index.KindGreaterThan
	case ast.KindGreaterThanOrEqual:
		return index.KindGreaterThanOrEqual
	case ast.KindLessThan:
		return index.KindLessThan
	case ast.KindLessThanOrEqual:
		return index.KindLessThanOrEqual
	case ast.KindLike:
		return index.KindLike
	default:
		return index.KindEqual
	}
}

func inKeyCount(e *compile.Expression) int {
	if len(e.Parameters) > 0 {
		return len(e.Parameters)
	}
	return 1
}

func literalStringContent(e *compile.Expression) (string, bool) {
	if e.Type != ast.KindString {
		return "", false
	}
	s := e.Source
	if len(s) < 2 || s[0] != '"' || s[len(s)-1] != '"' {
		return "", false
	}
	body := s[1 : len(s)-1]
	body = strings.ReplaceAll(body, `\"`, `"`)
	body = strings.ReplaceAll(body, `\\`, `\`)
	return body, true
}

// prefixSelectivity estimates the fraction of keys a literal LIKE prefix
// matches: longer prefixes narrow the range more.
func prefixSelectivity(prefix string) float64 {
	sel := 1.0
	for range prefix {
		sel *= 0.3
	}
	if sel < 0.001 {
		sel = 0.001
	}
	return sel
}

func findIndexByExpression(indexes []index.Descriptor, expr string) index.Descriptor {
	for _, d := range indexes {
		if d.Expression() == expr {
			return d
		}
	}
	return nil
}

// isIndexKeyOnly is step 5.
func isIndexKeyOnly(fields []string, indexExpr string) bool {
	if len(fields) != 1 {
		return false
	}
	return "$."+fields[0] == indexExpr
}

// populateFilters is step 6: every term survives into filters except the
// one consumed by the chosen index, compared by reference identity.
func populateFilters(terms []*compile.Expression, consumed *compile.Expression) []*compile.Expression {
	if consumed == nil {
		return terms
	}
	out := make([]*compile.Expression, 0, len(terms))
	for _, t := range terms {
		if t == consumed {
			continue
		}
		out = append(out, t)
	}
	return out
}

// defineOrderBy is step 7: if the requested order matches the chosen
// index's iteration order, the sort step is dropped.
func defineOrderBy(plan *Plan, q *Query, indexExpr string) {
	plan.OrderBy = q.OrderBy
	plan.Order = q.Order
	if q.OrderBy != nil && q.OrderBy.Source == indexExpr {
		plan.OrderBy = nil
	}
}

// defineGroupBy is step 8: group-by cannot coexist with order-by or
// includes; if it doesn't already match the chosen index's order, a
// synthetic ascending order-by is injected to pre-sort for grouping.
func defineGroupBy(plan *Plan, q *Query, indexExpr string) error {
	if q.GroupBy == nil {
		return nil
	}
	if q.OrderBy != nil || len(q.Includes) > 0 {
		return dberr.New(dberr.CodeInvalidExpressionType, "GROUP BY cannot coexist with ORDER BY or includes")
	}
	plan.GroupBy = q.GroupBy
	if q.GroupBy.Source != indexExpr {
		plan.OrderBy = q.GroupBy
		plan.Order = Ascending
	}
	return nil
}

// partitionIncludes is step 9: an include is needed before filtering iff
// its field appears in a remaining filter or in order_by; it is needed
// after iff it is not needed before, or it is needed before but order_by
// survives the plan (the pre-sort collapses the hydrated document).
func partitionIncludes(plan *Plan, q *Query) {
	for _, inc := range q.Includes {
		field := includeField(inc)
		before := fieldAppearsInFiltersOrOrderBy(field, plan.Filters, plan.OrderBy)
		after := !before || (before && plan.OrderBy != nil)
		if before {
			plan.IncludeBefore = append(plan.IncludeBefore, inc)
		}
		if after {
			plan.IncludeAfter = append(plan.IncludeAfter, inc)
		}
	}
}

func includeField(inc *compile.Expression) string {
	if len(inc.Fields) != 1 {
		return ""
	}
	return inc.Fields[0]
}

func fieldAppearsInFiltersOrOrderBy(field string, filters []*compile.Expression, orderBy *compile.Expression) bool {
	if field == "" {
		return false
	}
	for _, f := range filters {
		if containsFieldCI(f.Fields, field) {
			return true
		}
	}
	if orderBy != nil && containsFieldCI(orderBy.Fields, field) {
		return true
	}
	return false
}
