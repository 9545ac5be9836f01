package prebuilt

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestIDIsThePrimaryKeyPath(t *testing.T) {
	e, err := ID()
	require.NoError(t, err)
	require.Equal(t, "$._id", e.Source)
}

func TestCountProjectsOverTheSource(t *testing.T) {
	e, err := Count()
	require.NoError(t, err)
	require.True(t, e.UsesSource)
}

func TestExistsProjectsOverTheSource(t *testing.T) {
	e, err := Exists()
	require.NoError(t, err)
	require.True(t, e.UsesSource)
}

func TestSingletonsAreCachedAcrossCalls(t *testing.T) {
	a, err := ID()
	require.NoError(t, err)
	b, err := ID()
	require.NoError(t, err)
	require.Same(t, a, b)
}
