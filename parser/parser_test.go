package parser

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/docql/docql/dberr"
)

// TestParseUnexpectedTokenErrors covers every input in the spec's worked
// scenario for unexpected-token failures: each of these must fail to
// parse rather than silently accept a malformed expression.
func TestParseUnexpectedTokenErrors(t *testing.T) {
	tests := []string{
		"5 FOO < 1",
		"8 ++ 9",
		"10 + 5)",
		"(25 + 15",
		"MAP(A => +)",
	}
	for _, src := range tests {
		t.Run(src, func(t *testing.T) {
			_, err := New(src).Parse()
			require.Error(t, err)
			code, ok := dberr.CodeOf(err)
			require.True(t, ok)
			require.Equal(t, dberr.CodeUnexpectedToken, code)
		})
	}
}

func TestParseUnaryMinusNegatesOperand(t *testing.T) {
	_, err := New("8 + -9").Parse()
	require.NoError(t, err)
}

func TestParseUnaryPlusIsNotAccepted(t *testing.T) {
	_, err := New("+9").Parse()
	require.Error(t, err)
}
