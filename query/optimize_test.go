package query

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/docql/docql/compile"
	"github.com/docql/docql/dberr"
	"github.com/docql/docql/index"
	"github.com/docql/docql/value"
)

func mustCompile(t *testing.T, source string) *compile.Expression {
	t.Helper()
	e, err := compile.Compile(source)
	require.NoError(t, err)
	return e
}

func newSnapshot(descs ...index.Descriptor) index.Snapshot {
	return &index.BasicSnapshot{Collection: "items", Indexes: descs}
}

func TestSplitWhereRejectsSourceUsage(t *testing.T) {
	_, err := NewOptimizer().Optimize("items", &Query{
		Select: mustCompile(t, "$"),
		Where:  []*compile.Expression{mustCompile(t, "COUNT(*) = 1")},
	}, newSnapshot())
	require.Error(t, err)
	code, ok := dberr.CodeOf(err)
	require.True(t, ok)
	require.Equal(t, dberr.CodeInvalidExpressionType, code)
}

func TestSplitWhereRejectsNonPredicateLeaf(t *testing.T) {
	_, err := NewOptimizer().Optimize("items", &Query{
		Select: mustCompile(t, "$"),
		Where:  []*compile.Expression{mustCompile(t, "name")},
	}, newSnapshot())
	require.Error(t, err)
}

func TestSplitWhereRecursesAnd(t *testing.T) {
	idxName := &index.BasicDescriptor{IndexName: "name_idx", IndexExpression: "$.name", IsUnique: false, Count: 100, Duplicates: 2}
	plan, err := NewOptimizer().Optimize("items", &Query{
		Select: mustCompile(t, "$"),
		Where: []*compile.Expression{
			mustCompile(t, "name = \"bob\" and age > 10"),
		},
	}, newSnapshot(idxName))
	require.NoError(t, err)
	require.Len(t, plan.Filters, 1) // one term consumed by the name index, one remains
}

func TestOptimizeTermsRewritesAnyEqualToIn(t *testing.T) {
	plan, err := NewOptimizer().Optimize("items", &Query{
		Select: mustCompile(t, "$"),
		Where:  []*compile.Expression{mustCompile(t, "tags[*] any = category")},
	}, newSnapshot())
	require.NoError(t, err)
	require.Len(t, plan.Filters, 1)
	require.Equal(t, "$.category IN ARRAY($.tags[*])", plan.Filters[0].Source)
}

func TestCollectFieldsUnionsAndClearsOnDollar(t *testing.T) {
	fields := collectFields(&Query{
		Select: mustCompile(t, "$.a"),
	}, []*compile.Expression{mustCompile(t, "$.b = 1")})
	require.ElementsMatch(t, []string{"a", "b"}, fields)

	clearedFields := collectFields(&Query{
		Select: mustCompile(t, "$"),
	}, nil)
	require.Nil(t, clearedFields)
}

func TestChooseIndexPicksCheapestCandidate(t *testing.T) {
	uniqueID := &index.BasicDescriptor{IndexName: "id_idx", IndexExpression: "$.id", IsUnique: true, Count: 10000}
	nonUniqueAge := &index.BasicDescriptor{IndexName: "age_idx", IndexExpression: "$.age", IsUnique: false, Count: 10000, Duplicates: 50}

	plan, err := NewOptimizer().Optimize("items", &Query{
		Select: mustCompile(t, "$"),
		Where: []*compile.Expression{
			mustCompile(t, "id = 1"),
			mustCompile(t, "age = 20"),
		},
	}, newSnapshot(uniqueID, nonUniqueAge))
	require.NoError(t, err)
	require.Equal(t, "$.id", plan.IndexExpression)
	require.Equal(t, 1, plan.IndexCost)
	require.Len(t, plan.Filters, 1)
	require.Equal(t, "$.age=20", plan.Filters[0].Source)
}

func TestChooseIndexFallsBackToPrimaryKey(t *testing.T) {
	plan, err := NewOptimizer().Optimize("items", &Query{
		Select: mustCompile(t, "$"),
	}, newSnapshot())
	require.NoError(t, err)
	require.Equal(t, index.PrimaryKeyExpression, plan.IndexExpression)
	require.Equal(t, IndexAllKind, plan.Index.Kind)
	require.Equal(t, "_id", plan.Index.Field)
}

func TestChooseIndexUsesOrderByHintWhenNoWhereCandidate(t *testing.T) {
	nameIdx := &index.BasicDescriptor{IndexName: "name_idx", IndexExpression: "$.name", IsUnique: false, Count: 500}
	plan, err := NewOptimizer().Optimize("items", &Query{
		Select:  mustCompile(t, "$"),
		OrderBy: mustCompile(t, "$.name"),
		Order:   Ascending,
	}, newSnapshot(nameIdx))
	require.NoError(t, err)
	require.Equal(t, "$.name", plan.IndexExpression)
	require.Nil(t, plan.OrderBy) // order satisfied by the index's own iteration order
}

func TestIsIndexKeyOnlyRequiresSingleMatchingField(t *testing.T) {
	idIdx := &index.BasicDescriptor{IndexName: "id_idx", IndexExpression: "$.id", IsUnique: true, Count: 100}
	plan, err := NewOptimizer().Optimize("items", &Query{
		Select: mustCompile(t, "id"),
		Where:  []*compile.Expression{mustCompile(t, "id = 1")},
	}, newSnapshot(idIdx))
	require.NoError(t, err)
	require.True(t, plan.IsIndexKeyOnly)
	require.Equal(t, []string{"id"}, plan.Fields)
}

func TestGroupByRejectsCoexistenceWithOrderBy(t *testing.T) {
	_, err := NewOptimizer().Optimize("items", &Query{
		Select:  mustCompile(t, "$"),
		GroupBy: mustCompile(t, "$.category"),
		OrderBy: mustCompile(t, "$.name"),
	}, newSnapshot())
	require.Error(t, err)
}

func TestGroupByInjectsSyntheticOrderWhenNotIndexAligned(t *testing.T) {
	plan, err := NewOptimizer().Optimize("items", &Query{
		Select:  mustCompile(t, "$"),
		GroupBy: mustCompile(t, "$.category"),
	}, newSnapshot())
	require.NoError(t, err)
	require.NotNil(t, plan.OrderBy)
	require.Equal(t, "$.category", plan.OrderBy.Source)
	require.Equal(t, Ascending, plan.Order)
}

func TestGroupByNoSyntheticOrderWhenAlreadyIndexAligned(t *testing.T) {
	catIdx := &index.BasicDescriptor{IndexName: "cat_idx", IndexExpression: "$.category", IsUnique: false, Count: 100}
	plan, err := NewOptimizer().Optimize("items", &Query{
		Select:  mustCompile(t, "$"),
		GroupBy: mustCompile(t, "$.category"),
	}, newSnapshot(catIdx))
	require.NoError(t, err)
	require.Nil(t, plan.OrderBy)
}

func TestPartitionIncludesBeforeWhenFilteredOn(t *testing.T) {
	plan, err := NewOptimizer().Optimize("items", &Query{
		Select:   mustCompile(t, "$"),
		Where:    []*compile.Expression{mustCompile(t, "category = \"x\"")},
		Includes: []*compile.Expression{mustCompile(t, "category")},
	}, newSnapshot())
	require.NoError(t, err)
	require.Len(t, plan.IncludeBefore, 1)
	require.Len(t, plan.IncludeAfter, 0)
}

func TestPartitionIncludesAfterWhenUnrelated(t *testing.T) {
	plan, err := NewOptimizer().Optimize("items", &Query{
		Select:   mustCompile(t, "$"),
		Includes: []*compile.Expression{mustCompile(t, "author")},
	}, newSnapshot())
	require.NoError(t, err)
	require.Len(t, plan.IncludeBefore, 0)
	require.Len(t, plan.IncludeAfter, 1)
}

func TestPartitionIncludesBothWhenBeforeAndOrderBySurvives(t *testing.T) {
	plan, err := NewOptimizer().Optimize("items", &Query{
		Select:   mustCompile(t, "$"),
		Where:    []*compile.Expression{mustCompile(t, "category = \"x\"")},
		OrderBy:  mustCompile(t, "$.price"),
		Includes: []*compile.Expression{mustCompile(t, "category")},
	}, newSnapshot())
	require.NoError(t, err)
	require.Len(t, plan.IncludeBefore, 1)
	require.Len(t, plan.IncludeAfter, 1)
}

func TestVirtualIndexCostIsZero(t *testing.T) {
	plan, err := NewOptimizer().Optimize("items", &Query{
		Select:  mustCompile(t, "$"),
		Virtual: []value.Value{value.Int64(1)},
	}, newSnapshot())
	require.NoError(t, err)
	require.Equal(t, IndexVirtualKind, plan.Index.Kind)
	require.Equal(t, 0, plan.IndexCost)
}
