package value

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/docql/docql/collate"
)

func TestOrderAcrossVariants(t *testing.T) {
	ordered := []Value{
		Null,
		Min,
		Int32(1),
		Int64(2),
		Double(3.5),
		Str("abc"),
		NewDocument(DocOf("a", Int64(1))),
		NewArray([]Value{Int64(1)}),
		Binary([]byte{1, 2}),
		Bool(false),
		Bool(true),
		Max,
	}
	for i := 0; i+1 < len(ordered); i++ {
		require.Truef(t, Less(ordered[i], ordered[i+1], collate.Invariant),
			"expected %v < %v", ordered[i], ordered[i+1])
	}
}

func TestNumericWideningEquality(t *testing.T) {
	require.True(t, Equal(Int32(5), Int64(5), collate.Invariant))
	require.True(t, Equal(Int64(5), Double(5.0), collate.Invariant))
	require.False(t, Equal(Int32(5), Double(5.5), collate.Invariant))
}

func TestNullLessThanEverything(t *testing.T) {
	others := []Value{Min, Int32(0), Str(""), Bool(false), Max}
	for _, o := range others {
		require.True(t, Less(Null, o, collate.Invariant))
	}
}

func TestDocumentRejectsNullCharInKey(t *testing.T) {
	d := NewDoc()
	err := d.Set("bad\x00key", Int64(1))
	require.Error(t, err)
	var nilErr ErrNullCharInKey
	require.ErrorAs(t, err, &nilErr)
}

func TestDocumentPreservesInsertionOrder(t *testing.T) {
	d := NewDoc()
	require.NoError(t, d.Set("b", Int64(2)))
	require.NoError(t, d.Set("a", Int64(1)))
	require.NoError(t, d.Set("b", Int64(20)))
	require.Equal(t, []string{"b", "a"}, d.Keys())
	v, ok := d.Get("b")
	require.True(t, ok)
	require.True(t, Equal(v, Int64(20), collate.Invariant))
}

func TestCollationCaseSensitivity(t *testing.T) {
	require.False(t, collate.Invariant.Equal("ABC", "abc"))
	require.True(t, collate.InvariantIgnoreCase.Equal("ABC", "abc"))
}

func TestLikeWildcards(t *testing.T) {
	require.True(t, collate.Invariant.Like("hello", "h_ll%"))
	require.False(t, collate.Invariant.Like("halo", "h_ll%"))
	require.True(t, collate.Invariant.Like("anything", "%"))
}
