package fuzz

import (
	"testing"

	"github.com/docql/docql/compile"
	"github.com/docql/docql/parser"
)

// TestFuzzRegressions documents edge cases discovered while shaking out the
// parser/compiler. Each entry records a specific input that previously
// caused a panic rather than a clean error.
func TestFuzzRegressions(t *testing.T) {
	tests := []struct {
		name  string
		input string
		note  string
	}{
		{"empty input", "", "empty source should not panic"},
		{"only whitespace", "   \t\n\r  ", "whitespace-only source should not panic"},
		{"unclosed string", "name = \"unclosed", "unclosed string literal should error, not panic"},
		{"unclosed paren", "(1 + 2", "missing closing paren should error, not panic"},
		{"extra close paren", "(1))", "extra closing paren should error, not panic"},
		{"null byte", "age = \x00", "embedded null byte should not panic the lexer"},
		{"deeply nested parens", "((((((((((1))))))))))", "deep parenthesis nesting should not overflow the stack"},
		{"bare quantifier no operator", "age any", "ANY with no following comparison operator must error cleanly"},
		{"unterminated map arrow", "MAP($.items =>", "incomplete MAP call should error, not panic"},
		{"unterminated filter arrow", "FILTER($.items =>", "incomplete FILTER call should error, not panic"},
		{"empty array", "[]", "empty array literal should parse cleanly"},
		{"empty document", "{}", "empty document literal should parse cleanly"},
		{"unclosed bracket segment", "$.items[", "unclosed path segment should error, not panic"},
		{"trailing operator", "age + ", "trailing binary operator should error, not panic"},
		{"long field chain", longFieldChain(500), "long field-access chain should not overflow the stack"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			defer func() {
				if r := recover(); r != nil {
					t.Errorf("panicked: %v\ninput: %q\nnote: %s", r, tt.input, tt.note)
				}
			}()
			_, _ = parser.New(tt.input).Parse()
			_, _ = compile.Compile(tt.input)
		})
	}
}

func longFieldChain(n int) string {
	s := "a"
	for i := 0; i < n; i++ {
		s += ".b"
	}
	return s
}

// TestFuzzRoundTrip checks that compiling an expression's own normalized
// Source re-normalizes to the same text (spec §4.4's idempotence guarantee).
func TestFuzzRoundTrip(t *testing.T) {
	tests := []string{
		"age > 10",
		"name = \"bob\" and active = true",
		"items[*].id any = 5",
		"price between 10 and 20",
		"tags in [\"a\",\"b\"]",
		"name like \"bo%\"",
		"{ a: 1, b: 2 }",
		"[1, 2, 3]",
		"MAP($.items => @.id)",
		"FILTER($.items => @.price > 10)",
	}
	for _, src := range tests {
		t.Run(src, func(t *testing.T) {
			e, err := compile.Compile(src)
			if err != nil {
				t.Fatalf("compile failed: %v", err)
			}
			e2, err := compile.Compile(e.Source)
			if err != nil {
				t.Fatalf("re-compile of normalized source failed: %v\nnormalized: %s", err, e.Source)
			}
			if e.Source != e2.Source {
				t.Errorf("round-trip mismatch:\ninput:      %s\nnormalized: %s\nre-norm:    %s", src, e.Source, e2.Source)
			}
		})
	}
}
